// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfineRelPath(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a subdirectory "subdir"
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(subDir, 0o750); err != nil {
		t.Fatal(err)
	}

	// Create a regular file "safe.jpg"
	safeFile := filepath.Join(tmpDir, "safe.jpg")
	if err := os.WriteFile(safeFile, []byte("safe"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Create a symlink "link_outside" -> parent of tmpDir
	linkOutside := filepath.Join(tmpDir, "link_outside")
	if err := os.Symlink("..", linkOutside); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		root     string
		target   string
		wantErr  bool
		wantPath string // if not empty, checks suffix
	}{
		{
			name:     "valid simple file",
			root:     tmpDir,
			target:   "safe.jpg",
			wantErr:  false,
			wantPath: "safe.jpg",
		},
		{
			// "subdir" exists, "foo.jpg" does not: resolution falls back to the
			// parent directory check and still confines the joined path.
			name:     "valid subdir file",
			root:     tmpDir,
			target:   "subdir/foo.jpg",
			wantErr:  false,
			wantPath: "subdir/foo.jpg",
		},
		{
			name:    "traversal attempt ..",
			root:    tmpDir,
			target:  "../outside.jpg",
			wantErr: true,
		},
		{
			name:    "traversal attempt /",
			root:    tmpDir,
			target:  "/etc/passwd",
			wantErr: true,
		},
		{
			name:    "backslash rejected",
			root:    tmpDir,
			target:  "subdir\\foo.jpg",
			wantErr: true,
		},
		{
			name:    "symlink escape",
			root:    tmpDir,
			target:  "link_outside/foo",
			wantErr: true, // "link_outside" resolves to parent, so it escapes
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRelPath(tt.root, tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ConfineRelPath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.wantPath != "" {
				if !strings.HasSuffix(got, tt.wantPath) {
					t.Errorf("ConfineRelPath() got = %v, want suffix %v", got, tt.wantPath)
				}
			}
		})
	}
}

func TestConfineAbsPath(t *testing.T) {
	tmpDir := t.TempDir()

	// safe file
	safePath := filepath.Join(tmpDir, "safe.jpg")
	if err := os.WriteFile(safePath, []byte("ok"), 0o600); err != nil {
		t.Fatal(err)
	}

	// outside file
	outsideDir := t.TempDir()
	outsidePath := filepath.Join(outsideDir, "secret.jpg")

	tests := []struct {
		name    string
		root    string
		target  string
		wantErr bool
	}{
		{
			name:    "valid absolute path",
			root:    tmpDir,
			target:  safePath,
			wantErr: false,
		},
		{
			name:    "outside absolute path",
			root:    tmpDir,
			target:  outsidePath,
			wantErr: true,
		},
		{
			name:    "relative path input (error)",
			root:    tmpDir,
			target:  "safe.jpg",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConfineAbsPath(tt.root, tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ConfineAbsPath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsRegularFile(t *testing.T) {
	tmpDir := t.TempDir()

	file := filepath.Join(tmpDir, "photo.jpg")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := IsRegularFile(file); err != nil {
		t.Errorf("IsRegularFile(regular) = %v, want nil", err)
	}
	if err := IsRegularFile(tmpDir); err == nil {
		t.Error("IsRegularFile(directory) should fail")
	}
	if err := IsRegularFile(filepath.Join(tmpDir, "missing.jpg")); err == nil {
		t.Error("IsRegularFile(missing) should fail")
	}
}
