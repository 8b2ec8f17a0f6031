// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/teamdir/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys

	environ func() []string // overridable for tests
}

// NewLoader creates a new configuration loader.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
		environ:         os.Environ,
	}
}

// Wrapper methods for mechanical connection tracking

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envLookup(key string) (string, bool) {
	l.ConsumedEnvKeys[key] = struct{}{}
	return os.LookupEnv(key)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// It enforces Strict Validated Order: Defaults -> Parse File (Strict) -> Apply Env -> Validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := AppConfig{}

	// 1. Set defaults
	l.setDefaults(&cfg)

	// 2. Load from file (if provided)
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		l.mergeFileConfig(&cfg, fileCfg)
	}

	// 3. Override with environment variables (highest priority)
	l.mergeEnvConfig(&cfg)

	// SAFETY: Ensure DataDir is absolute to prevent path traversal/platform errors
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.resolveDataPaths()

	// 4. Version from binary
	cfg.Version = l.version

	// 5. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	// Check file extension
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// Read file
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	// Parse YAML with strict mode (unknown fields cause errors)
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, ErrTrailingDocument
	}

	return &fileCfg, nil
}

// setDefaults initialises cfg with registry defaults.
func (l *Loader) setDefaults(cfg *AppConfig) {
	cfg.DataDir = DefaultDataDir
	cfg.LogLevel = "info"
	cfg.InitialRefresh = true
	cfg.Watch = false
	cfg.WatchDebounce = 2 * time.Second

	cfg.Thumbs = ThumbsConfig{
		Width:       200,
		Quality:     85,
		Workers:     4,
		RendersPerS: 0,
		NegativeTTL: 10 * time.Minute,
	}
	cfg.Library = LibraryConfig{Enabled: true}
	cfg.Cache = CacheConfig{
		Backend: "memory",
		TTL:     30 * time.Second,
	}
	cfg.State = StateConfig{
		Backend:    "memory",
		RunHistory: 20,
		RunTTL:     720 * time.Hour,
	}
	cfg.Fetch = FetchConfig{
		Timeout:    10 * time.Second,
		Retries:    3,
		Backoff:    500 * time.Millisecond,
		MaxBackoff: 30 * time.Second,
		MaxBytes:   10 << 20,
	}
	cfg.Outbound = OutboundConfig{
		Schemes: []string{"http", "https"},
		Ports:   []int{80, 443},
	}
	cfg.API = APISettings{
		RateLimitEnabled: true,
		RateLimitRPS:     25,
		RateLimitBurst:   50,
	}
	cfg.Telemetry = TelemetrySettings{
		Protocol:    "grpc",
		SampleRate:  1.0,
		Environment: "production",
	}
	cfg.Server = defaultServerRuntimeConfig()
}

// fileDuration parses a duration string from the config file, keeping the
// current value and logging a warning when the string is invalid.
func (l *Loader) fileDuration(field, raw string, current time.Duration) time.Duration {
	if raw == "" {
		return current
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str("field", field).
			Str("value", raw).
			Msg("invalid duration in config file, keeping previous value")
		return current
	}
	return d
}

// mergeFileConfig applies non-empty file values over cfg.
func (l *Loader) mergeFileConfig(cfg *AppConfig, src *FileConfig) {
	if src == nil {
		return
	}
	if src.DataDir != "" {
		cfg.DataDir = src.DataDir
	}
	if src.LogLevel != "" {
		cfg.LogLevel = src.LogLevel
	}

	if src.Roster.Path != "" {
		cfg.RosterPath = src.Roster.Path
	}
	if src.Roster.URL != "" {
		cfg.RosterURL = src.Roster.URL
	}
	if src.Photos.Dir != "" {
		cfg.PhotosDir = src.Photos.Dir
	}

	if src.Refresh.Initial != nil {
		cfg.InitialRefresh = *src.Refresh.Initial
	}
	if src.Refresh.Watch != nil {
		cfg.Watch = *src.Refresh.Watch
	}
	cfg.WatchDebounce = l.fileDuration("refresh.watchDebounce", src.Refresh.WatchDebounce, cfg.WatchDebounce)

	if src.Thumbs.Dir != "" {
		cfg.Thumbs.Dir = src.Thumbs.Dir
	}
	if src.Thumbs.Width != nil {
		cfg.Thumbs.Width = *src.Thumbs.Width
	}
	if src.Thumbs.Quality != nil {
		cfg.Thumbs.Quality = *src.Thumbs.Quality
	}
	if src.Thumbs.Workers != nil {
		cfg.Thumbs.Workers = *src.Thumbs.Workers
	}
	if src.Thumbs.RendersPerSecond != nil {
		cfg.Thumbs.RendersPerS = *src.Thumbs.RendersPerSecond
	}
	cfg.Thumbs.NegativeTTL = l.fileDuration("thumbs.negativeTtl", src.Thumbs.NegativeTTL, cfg.Thumbs.NegativeTTL)

	if src.Library.Enabled != nil {
		cfg.Library.Enabled = *src.Library.Enabled
	}
	if src.Library.DB != "" {
		cfg.Library.DBPath = src.Library.DB
	}

	if src.Cache.Backend != "" {
		cfg.Cache.Backend = src.Cache.Backend
	}
	cfg.Cache.TTL = l.fileDuration("cache.ttl", src.Cache.TTL, cfg.Cache.TTL)
	if src.Cache.Redis.Addr != "" {
		cfg.Cache.RedisAddr = src.Cache.Redis.Addr
	}
	if src.Cache.Redis.Password != "" {
		cfg.Cache.RedisPassword = src.Cache.Redis.Password
	}
	if src.Cache.Redis.DB != nil {
		cfg.Cache.RedisDB = *src.Cache.Redis.DB
	}

	if src.State.Backend != "" {
		cfg.State.Backend = src.State.Backend
	}
	if src.State.Dir != "" {
		cfg.State.Dir = src.State.Dir
	}
	if src.State.RunHistory != nil {
		cfg.State.RunHistory = *src.State.RunHistory
	}
	cfg.State.RunTTL = l.fileDuration("state.runTtl", src.State.RunTTL, cfg.State.RunTTL)

	cfg.Fetch.Timeout = l.fileDuration("fetch.timeout", src.Fetch.Timeout, cfg.Fetch.Timeout)
	if src.Fetch.Retries != nil {
		cfg.Fetch.Retries = *src.Fetch.Retries
	}
	cfg.Fetch.Backoff = l.fileDuration("fetch.backoff", src.Fetch.Backoff, cfg.Fetch.Backoff)
	cfg.Fetch.MaxBackoff = l.fileDuration("fetch.maxBackoff", src.Fetch.MaxBackoff, cfg.Fetch.MaxBackoff)
	if src.Fetch.MaxBytes != nil {
		cfg.Fetch.MaxBytes = *src.Fetch.MaxBytes
	}

	if len(src.Outbound.Hosts) > 0 {
		cfg.Outbound.Hosts = src.Outbound.Hosts
	}
	if len(src.Outbound.CIDRs) > 0 {
		cfg.Outbound.CIDRs = src.Outbound.CIDRs
	}
	if len(src.Outbound.Ports) > 0 {
		cfg.Outbound.Ports = src.Outbound.Ports
	}
	if len(src.Outbound.Schemes) > 0 {
		cfg.Outbound.Schemes = src.Outbound.Schemes
	}

	if src.API.ListenAddr != "" {
		cfg.APIListenAddr = src.API.ListenAddr
	}
	if src.API.RateLimit.Enabled != nil {
		cfg.API.RateLimitEnabled = *src.API.RateLimit.Enabled
	}
	if src.API.RateLimit.RPS != nil {
		cfg.API.RateLimitRPS = *src.API.RateLimit.RPS
	}
	if src.API.RateLimit.Burst != nil {
		cfg.API.RateLimitBurst = *src.API.RateLimit.Burst
	}
	if len(src.API.AllowedOrigins) > 0 {
		cfg.API.AllowedOrigins = src.API.AllowedOrigins
	}
	if src.Metrics.ListenAddr != "" {
		cfg.MetricsAddr = src.Metrics.ListenAddr
	}

	if src.TLS.Cert != "" {
		cfg.TLS.Cert = src.TLS.Cert
	}
	if src.TLS.Key != "" {
		cfg.TLS.Key = src.TLS.Key
	}

	if src.Telemetry.Enabled != nil {
		cfg.Telemetry.Enabled = *src.Telemetry.Enabled
	}
	if src.Telemetry.Endpoint != "" {
		cfg.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.Protocol != "" {
		cfg.Telemetry.Protocol = src.Telemetry.Protocol
	}
	if src.Telemetry.SampleRate != nil {
		cfg.Telemetry.SampleRate = *src.Telemetry.SampleRate
	}
	if src.Telemetry.Environment != "" {
		cfg.Telemetry.Environment = src.Telemetry.Environment
	}

	cfg.Server.ReadTimeout = l.fileDuration("server.readTimeout", src.Server.ReadTimeout, cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.fileDuration("server.writeTimeout", src.Server.WriteTimeout, cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.fileDuration("server.idleTimeout", src.Server.IdleTimeout, cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = l.fileDuration("server.shutdownTimeout", src.Server.ShutdownTimeout, cfg.Server.ShutdownTimeout)
	if src.Server.MaxHeaderBytes != nil {
		cfg.Server.MaxHeaderBytes = *src.Server.MaxHeaderBytes
	}
}

// mergeEnvConfig applies environment overrides (highest precedence).
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("TEAMDIR_DATA", cfg.DataDir)
	cfg.LogLevel = l.envString("TEAMDIR_LOG_LEVEL", cfg.LogLevel)
	cfg.RosterPath = l.envString("TEAMDIR_ROSTER", cfg.RosterPath)
	cfg.RosterURL = l.envString("TEAMDIR_ROSTER_URL", cfg.RosterURL)
	cfg.PhotosDir = l.envString("TEAMDIR_PHOTOS", cfg.PhotosDir)

	// Listen resolution: TEAMDIR_LISTEN > PORT (container contract) > file > default.
	listen := strings.TrimSpace(l.envString("TEAMDIR_LISTEN", ""))
	if listen == "" {
		if port := strings.TrimSpace(l.envString("PORT", "")); port != "" {
			listen = ":" + port
		}
	}
	if listen != "" {
		cfg.APIListenAddr = listen
	}
	if strings.TrimSpace(cfg.APIListenAddr) == "" {
		cfg.APIListenAddr = fallbackListenAddr
	}
	if bind := strings.TrimSpace(l.envString("TEAMDIR_BIND", "")); bind != "" {
		if addr, err := BindListenAddr(cfg.APIListenAddr, bind); err == nil {
			cfg.APIListenAddr = addr
		} else {
			logger := log.WithComponent("config")
			logger.Warn().
				Err(err).
				Str("bind", bind).
				Msg("could not apply bind host, keeping listen address")
		}
	}
	cfg.MetricsAddr = l.envString("TEAMDIR_METRICS_LISTEN", cfg.MetricsAddr)

	cfg.InitialRefresh = l.envBool("TEAMDIR_INITIAL_REFRESH", cfg.InitialRefresh)
	cfg.Watch = l.envBool("TEAMDIR_WATCH", cfg.Watch)
	cfg.WatchDebounce = l.envDuration("TEAMDIR_WATCH_DEBOUNCE", cfg.WatchDebounce)

	cfg.Thumbs.Dir = l.envString("TEAMDIR_THUMBS_DIR", cfg.Thumbs.Dir)
	cfg.Thumbs.Width = l.envInt("TEAMDIR_THUMBS_WIDTH", cfg.Thumbs.Width)
	cfg.Thumbs.Quality = l.envInt("TEAMDIR_THUMBS_QUALITY", cfg.Thumbs.Quality)
	cfg.Thumbs.Workers = l.envInt("TEAMDIR_THUMBS_WORKERS", cfg.Thumbs.Workers)
	cfg.Thumbs.RendersPerS = l.envFloat("TEAMDIR_THUMBS_RPS", cfg.Thumbs.RendersPerS)
	cfg.Thumbs.NegativeTTL = l.envDuration("TEAMDIR_THUMBS_NEG_TTL", cfg.Thumbs.NegativeTTL)

	cfg.Library.Enabled = l.envBool("TEAMDIR_LIBRARY_ENABLED", cfg.Library.Enabled)
	cfg.Library.DBPath = l.envString("TEAMDIR_LIBRARY_DB", cfg.Library.DBPath)

	cfg.Cache.Backend = l.envString("TEAMDIR_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.TTL = l.envDuration("TEAMDIR_CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.RedisAddr = l.envString("TEAMDIR_REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString("TEAMDIR_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt("TEAMDIR_REDIS_DB", cfg.Cache.RedisDB)

	cfg.State.Backend = l.envString("TEAMDIR_STATE_BACKEND", cfg.State.Backend)
	cfg.State.Dir = l.envString("TEAMDIR_STATE_DIR", cfg.State.Dir)
	cfg.State.RunHistory = l.envInt("TEAMDIR_STATE_RUN_HISTORY", cfg.State.RunHistory)
	cfg.State.RunTTL = l.envDuration("TEAMDIR_STATE_RUN_TTL", cfg.State.RunTTL)

	cfg.Fetch.Timeout = l.envDuration("TEAMDIR_FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.Retries = l.envInt("TEAMDIR_FETCH_RETRIES", cfg.Fetch.Retries)
	cfg.Fetch.Backoff = l.envDuration("TEAMDIR_FETCH_BACKOFF", cfg.Fetch.Backoff)
	cfg.Fetch.MaxBackoff = l.envDuration("TEAMDIR_FETCH_MAX_BACKOFF", cfg.Fetch.MaxBackoff)
	if raw, ok := l.envLookup("TEAMDIR_FETCH_MAX_BYTES"); ok && raw != "" {
		if n := int64(ParseInt("TEAMDIR_FETCH_MAX_BYTES", int(cfg.Fetch.MaxBytes))); n > 0 {
			cfg.Fetch.MaxBytes = n
		}
	}

	cfg.Outbound.Hosts = parseCommaSeparated(l.envString("TEAMDIR_OUTBOUND_HOSTS", ""), cfg.Outbound.Hosts)
	cfg.Outbound.CIDRs = parseCommaSeparated(l.envString("TEAMDIR_OUTBOUND_CIDRS", ""), cfg.Outbound.CIDRs)
	cfg.Outbound.Schemes = parseCommaSeparated(l.envString("TEAMDIR_OUTBOUND_SCHEMES", ""), cfg.Outbound.Schemes)
	if raw, ok := l.envLookup("TEAMDIR_OUTBOUND_PORTS"); ok && raw != "" {
		if ports, err := ParsePorts(raw); err == nil {
			cfg.Outbound.Ports = ports
		} else {
			logger := log.WithComponent("config")
			logger.Warn().
				Err(err).
				Str("key", "TEAMDIR_OUTBOUND_PORTS").
				Msg("invalid port list in environment variable, keeping previous value")
		}
	}

	cfg.API.RateLimitEnabled = l.envBool("TEAMDIR_RATE_LIMIT_ENABLED", cfg.API.RateLimitEnabled)
	cfg.API.RateLimitRPS = l.envInt("TEAMDIR_RATE_LIMIT_RPS", cfg.API.RateLimitRPS)
	cfg.API.RateLimitBurst = l.envInt("TEAMDIR_RATE_LIMIT_BURST", cfg.API.RateLimitBurst)
	cfg.API.AllowedOrigins = parseCommaSeparated(l.envString("TEAMDIR_CORS_ORIGINS", ""), cfg.API.AllowedOrigins)

	cfg.TLS.Cert = l.envString("TEAMDIR_TLS_CERT", cfg.TLS.Cert)
	cfg.TLS.Key = l.envString("TEAMDIR_TLS_KEY", cfg.TLS.Key)

	cfg.Telemetry.Enabled = l.envBool("TEAMDIR_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = l.envString("TEAMDIR_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Protocol = l.envString("TEAMDIR_OTEL_PROTOCOL", cfg.Telemetry.Protocol)
	cfg.Telemetry.SampleRate = l.envFloat("TEAMDIR_OTEL_SAMPLE_RATE", cfg.Telemetry.SampleRate)
	cfg.Telemetry.Environment = l.envString("TEAMDIR_OTEL_ENVIRONMENT", cfg.Telemetry.Environment)

	cfg.Server.ReadTimeout = l.envDuration("TEAMDIR_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration("TEAMDIR_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration("TEAMDIR_SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = l.envDuration("TEAMDIR_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.MaxHeaderBytes = l.envInt("TEAMDIR_SERVER_MAX_HEADER_BYTES", cfg.Server.MaxHeaderBytes)
}
