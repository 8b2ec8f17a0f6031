// SPDX-License-Identifier: MIT
package photos

import (
	"io"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Meta carries the EXIF fields the directory cares about. Orientation
// follows the EXIF tag values (1 upright, 3/6/8 rotated); zero means
// the file carried no usable tag and is treated as upright.
type Meta struct {
	Orientation int
	TakenAt     time.Time
}

// ReadMeta extracts orientation and capture time from the image at path.
// PNGs, GIFs and stripped JPEGs have no EXIF block; that is not an
// error, the zero Meta is returned.
func ReadMeta(path string) Meta {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}
	}
	defer func() { _ = f.Close() }()
	return readMeta(f)
}

func readMeta(r io.Reader) Meta {
	var m Meta
	x, err := exif.Decode(r)
	if err != nil {
		return m
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			m.Orientation = v
		}
	}
	if t, err := x.DateTime(); err == nil {
		m.TakenAt = t
	}
	return m
}
