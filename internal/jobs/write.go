// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/teamdir/internal/directory"
	tdlog "github.com/ManuGH/teamdir/internal/log"
)

// writeArtifact writes the snapshot as indented JSON with full durability
// guarantees using renameio: fsync before rename, so a power failure never
// leaves a truncated artifact behind.
func writeArtifact(ctx context.Context, path string, snap directory.Snapshot) error {
	logger := tdlog.FromContext(ctx)

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending artifact: %w", err)
	}
	defer func() {
		// renameio removes the temp file if it was not committed
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending artifact")
		}
	}()

	enc := json.NewEncoder(pendingFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace artifact: %w", err)
	}
	return nil
}
