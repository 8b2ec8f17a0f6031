package validation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/log"
	xnet "github.com/ManuGH/teamdir/internal/platform/net"
)

// PerformStartupChecks validates the environment before the daemon starts
// serving, so broken deployments fail at boot instead of mid-refresh.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Data Directory Permissions
	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	// 2. Roster Source
	if err := checkRosterSource(ctx, logger, cfg); err != nil {
		return fmt.Errorf("roster source check failed: %w", err)
	}

	// 3. Photos Directory
	checkPhotosDir(logger, cfg.PhotosDir)

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	// Check if directory exists
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")
	return nil
}

// checkRosterSource verifies the configured source can plausibly serve a
// roster. Remote URLs are checked against the outbound policy only; the
// first real fetch owns the network error handling.
func checkRosterSource(ctx context.Context, logger zerolog.Logger, cfg config.AppConfig) error {
	if rosterURL := strings.TrimSpace(cfg.RosterURL); rosterURL != "" {
		if _, err := xnet.ValidateOutboundURL(ctx, rosterURL, cfg.Outbound.Policy()); err != nil {
			return fmt.Errorf("roster url %s rejected by outbound policy: %w", xnet.SanitizeURL(rosterURL), err)
		}
		logger.Info().Str("url", xnet.SanitizeURL(rosterURL)).Msg("✓ Roster URL passes outbound policy")
		return nil
	}

	info, err := os.Stat(cfg.RosterPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Not fatal: a restored snapshot can serve until the file
			// appears, and the watcher picks it up when it does.
			logger.Warn().Str("path", cfg.RosterPath).Msg("roster file not found yet, directory starts empty")
			return nil
		}
		return fmt.Errorf("cannot stat roster file %s: %v", cfg.RosterPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("roster path is a directory: %s", cfg.RosterPath)
	}
	f, err := os.Open(cfg.RosterPath)
	if err != nil {
		return fmt.Errorf("roster file is not readable: %s (error: %v)", cfg.RosterPath, err)
	}
	_ = f.Close()

	logger.Info().Str("path", cfg.RosterPath).Msg("✓ Roster file is readable")
	return nil
}

// checkPhotosDir warns instead of failing: a directory without photos is
// a degraded but valid deployment, every profile simply gets the
// placeholder image.
func checkPhotosDir(logger zerolog.Logger, path string) {
	info, err := os.Stat(path)
	if err != nil {
		logger.Warn().Str("path", path).Msg("photos directory not found, profiles will have no photos")
		return
	}
	if !info.IsDir() {
		logger.Warn().Str("path", path).Msg("photos path is not a directory, profiles will have no photos")
		return
	}
	logger.Info().Str("path", path).Msg("✓ Photos directory present")
}
