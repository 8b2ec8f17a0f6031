// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment and dependencies a
// configuration points at. The daemon runs it against every candidate
// config before a hot reload is applied, so a reload can never swap in
// a config the process could not have booted with.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Data Directory Permissions
	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	// 2. Targeted Validations
	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

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

// checkTargetedValidations performs security and runtime-critical validations
func checkTargetedValidations(logger zerolog.Logger, cfg config.AppConfig) error {
	// a. Listen Address (Parseable)
	if cfg.APIListenAddr != "" {
		_, port, err := net.SplitHostPort(cfg.APIListenAddr)
		if err != nil {
			return fmt.Errorf("invalid API listen address %q: %w", cfg.APIListenAddr, err)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil || portNum < 0 || portNum > 65535 {
			return fmt.Errorf("invalid API listen port %q in %q", port, cfg.APIListenAddr)
		}
		logger.Info().Str("addr", cfg.APIListenAddr).Msg("✓ API listen address is valid")
	}

	// b. Roster Source (Syntax + Scheme for remote, presence for local)
	if cfg.RosterURL != "" {
		u, err := url.Parse(cfg.RosterURL)
		if err != nil {
			return fmt.Errorf("invalid TEAMDIR_ROSTER_URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("TEAMDIR_ROSTER_URL scheme must be http or https, got: %s", u.Scheme)
		}
		logger.Info().Str("url", config.MaskURL(cfg.RosterURL)).Msg("✓ Roster URL is valid")
	} else if _, err := os.Stat(cfg.RosterPath); os.IsNotExist(err) {
		// Not fatal: watch mode picks the file up once it appears.
		logger.Warn().Str("path", cfg.RosterPath).Msg("roster file not found; refresh will fail until it appears")
	}

	// c. TLS Config (Pair + Readable)
	if cfg.TLS.Cert != "" || cfg.TLS.Key != "" {
		if cfg.TLS.Cert == "" || cfg.TLS.Key == "" {
			return fmt.Errorf("TLS configuration requires BOTH Cert and Key to be set")
		}
		// Check readability
		if err := checkFileReadable(cfg.TLS.Cert); err != nil {
			return fmt.Errorf("TLS Cert error: %w", err)
		}
		if err := checkFileReadable(cfg.TLS.Key); err != nil {
			return fmt.Errorf("TLS Key error: %w", err)
		}
		logger.Info().Msg("✓ TLS configuration is valid")
	}

	// d. Photo Directories (ensure existence with 0750)
	// MkdirAll returns nil if the directory already exists, so a first boot
	// against an empty data volume comes up without manual setup.
	if err := os.MkdirAll(cfg.PhotosDir, 0750); err != nil {
		return fmt.Errorf("failed to ensure photos directory (%s): %w", cfg.PhotosDir, err)
	}
	if err := os.MkdirAll(cfg.Thumbs.Dir, 0750); err != nil {
		return fmt.Errorf("failed to ensure thumbnail directory (%s): %w", cfg.Thumbs.Dir, err)
	}
	logger.Info().Str("photos", cfg.PhotosDir).Str("thumbs", cfg.Thumbs.Dir).Msg("✓ Photo directories ensured")

	// e. Cache backend reachability prerequisites
	if cfg.Cache.Backend == "redis" {
		if _, _, err := net.SplitHostPort(cfg.Cache.RedisAddr); err != nil {
			return fmt.Errorf("invalid redis address %q: %w", cfg.Cache.RedisAddr, err)
		}
		logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("✓ Redis address is valid")
	}

	// f. State persistence safety
	if cfg.State.Backend == "badger" {
		if err := os.MkdirAll(cfg.State.Dir, 0750); err != nil {
			return fmt.Errorf("failed to ensure state directory (%s): %w", cfg.State.Dir, err)
		}
	} else {
		logger.Warn().
			Str("state_backend", cfg.State.Backend).
			Msg("state uses in-memory store; snapshot and run history are not persistent across restarts")
	}

	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; cached data and state may be lost on reboot")
	}

	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
