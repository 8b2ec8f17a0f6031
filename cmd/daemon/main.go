// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/teamdir/internal/api"
	"github.com/ManuGH/teamdir/internal/audit"
	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/daemon"
	"github.com/ManuGH/teamdir/internal/health"
	tdlog "github.com/ManuGH/teamdir/internal/log"
	tdtls "github.com/ManuGH/teamdir/internal/tls"
	"github.com/ManuGH/teamdir/internal/validation"
	"github.com/ManuGH/teamdir/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	// Handle command-line flags
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logger := tdlog.WithComponent("daemon")

	// Create a context that listens for the interrupt signal from the OS
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectiveConfigPath, configSource := resolveConfigPath(*configPath)

	// Load configuration with precedence: ENV > File > Defaults
	loader := config.NewLoader(effectiveConfigPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	// The logger bootstraps at info; apply the configured level now.
	tdlog.SetLevel(cfg.LogLevel)

	// Typos in security-sensitive TEAMDIR_* keys fail the boot; anything
	// else is a warning about a dead flag.
	if err := loader.ValidateEnvUsage(true); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.env_check_failed").
			Msg("environment validation failed")
	}

	loadedEvent := logger.Info().
		Str("event", "config.loaded").
		Str("source", configSource)
	if effectiveConfigPath != "" {
		loadedEvent = loadedEvent.Str("path", effectiveConfigPath)
	}
	loadedEvent.Msg("loaded configuration")

	// -------------------------------------------------------------------------
	// Pre-flight Checks (Fail Fast)
	// -------------------------------------------------------------------------
	if err := validation.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and permissions.")
	}
	// -------------------------------------------------------------------------

	// Parse server configuration
	serverCfg := config.ParseServerConfigForApp(cfg)

	// Auto-generate TLS certificates when TLS is requested without material
	if cfg.TLSEnabled() {
		logger.Info().
			Str("cert", cfg.TLS.Cert).
			Str("key", cfg.TLS.Key).
			Msg("Using user-provided TLS certificates")
	} else if config.ParseBool("TEAMDIR_TLS_ENABLED", false) {
		certPath, keyPath, err := tdtls.EnsureCertificates(tdtls.Config{
			CertPath: cfg.TLS.Cert,
			KeyPath:  cfg.TLS.Key,
			Logger:   logger,
		})
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "tls.ensure.failed").
				Msg("Failed to ensure TLS certificates")
		}
		cfg.TLS.Cert = certPath
		cfg.TLS.Key = keyPath
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", serverCfg.ListenAddr).
		Msg("starting teamdir")

	comp, err := buildComponents(cfg, logger)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "wiring.failed").
			Msg("failed to build server components")
	}

	// Log key configuration
	logger.Info().Msgf("→ Roster: %s", comp.source.Describe())
	logger.Info().Msgf("→ Photos: %s", cfg.PhotosDir)
	logger.Info().Msgf("→ Thumbs: %s (width %dpx)", cfg.Thumbs.Dir, cfg.Thumbs.Width)
	logger.Info().Msgf("→ Cache: %s", cfg.Cache.Backend)
	logger.Info().Msgf("→ State: %s", cfg.State.Backend)
	if cfg.Library.Enabled {
		logger.Info().Msgf("→ Library: %s", cfg.Library.DBPath)
	}
	if cfg.TLSEnabled() {
		logger.Info().Msgf("→ TLS: enabled (cert: %s, key: %s)", cfg.TLS.Cert, cfg.TLS.Key)
	}
	if strings.TrimSpace(cfg.MetricsAddr) != "" {
		logger.Info().Msgf("→ Metrics: %s", cfg.MetricsAddr)
	}
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)

	// Hot reload support: watch the config file and allow SIGHUP-triggered
	// reload. Without an explicit config, watch the default location so a
	// config.yaml dropped into the data dir is picked up.
	holderPath := effectiveConfigPath
	if holderPath == "" {
		holderPath = filepath.Join(cfg.DataDir, "config.yaml")
	}
	cfgHolder := config.NewConfigHolder(cfg, config.NewLoader(holderPath, version.Version), holderPath)
	// Reloaded configs pass the same environment checks as a fresh boot.
	cfgHolder.SetPreApplyCheck(health.PerformStartupChecks)

	// Create API handler
	s := api.New(cfg, comp.apiDeps(), api.WithAuditLogger(audit.NewLogger()))

	// Restore persisted state so the API serves data before the first refresh
	restoreState(ctx, logger, comp, s)

	// Refresh staleness rides on the server's status, so this checker
	// registers once the server exists. Soft: the snapshot checker owns
	// the ready gate, refresh trouble only degrades.
	comp.health.RegisterChecker(health.Soften(health.NewLastRefreshChecker(func() (time.Time, string) {
		st := s.Status()
		return st.LastRun, st.Error
	})))

	tp := daemon.SetupTelemetry(ctx, cfg, logger)

	deps := daemon.Deps{
		Logger:         logger,
		Config:         cfg,
		APIHandler:     s.Handler(),
		MetricsAddr:    strings.TrimSpace(cfg.MetricsAddr),
		MetricsHandler: promhttp.Handler(),
	}

	mgr, err := daemon.NewManager(serverCfg, deps)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.creation.failed").
			Msg("failed to create daemon manager")
	}

	// Hooks run LIFO: the prewarmer stops before its stores close, and
	// telemetry flushes last.
	if tp != nil {
		mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	}
	if comp.library != nil {
		mgr.RegisterShutdownHook("library", func(context.Context) error { return comp.library.Close() })
	}
	mgr.RegisterShutdownHook("cache", func(context.Context) error { return comp.cache.Close() })
	mgr.RegisterShutdownHook("state", func(context.Context) error { return comp.state.Close() })
	mgr.RegisterShutdownHook("prewarmer", func(context.Context) error { comp.prewarmer.Stop(); return nil })

	// Start daemon app (blocks until shutdown)
	app := daemon.NewApp(logger, mgr, cfgHolder, s, cfg)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}

// resolveConfigPath determines the config file to load. Precedence: the
// -config flag, then TEAMDIR_CONFIG, then an auto-detected
// ${TEAMDIR_DATA}/config.yaml.
func resolveConfigPath(explicit string) (path, source string) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, "flag"
	}
	if p := strings.TrimSpace(config.ParseString("TEAMDIR_CONFIG", "")); p != "" {
		return p, "env"
	}
	dataDir := strings.TrimSpace(config.ParseString("TEAMDIR_DATA", config.DefaultDataDir))
	if dataDir == "" {
		dataDir = config.DefaultDataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath, "file(auto)"
	}
	return "", "env+defaults"
}
