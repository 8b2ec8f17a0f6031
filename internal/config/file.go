// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

// FileConfig represents the YAML configuration structure.
// Uses pointers for optional fields to distinguish between "not set" and
// "explicitly set to zero/false". Durations are Go duration strings ("30s").
type FileConfig struct {
	Version  string `yaml:"version,omitempty"`
	DataDir  string `yaml:"dataDir,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	Roster    RosterFileConfig    `yaml:"roster,omitempty"`
	Photos    PhotosFileConfig    `yaml:"photos,omitempty"`
	Refresh   RefreshFileConfig   `yaml:"refresh,omitempty"`
	Thumbs    ThumbsFileConfig    `yaml:"thumbs,omitempty"`
	Library   LibraryFileConfig   `yaml:"library,omitempty"`
	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	State     StateFileConfig     `yaml:"state,omitempty"`
	Fetch     FetchFileConfig     `yaml:"fetch,omitempty"`
	Outbound  OutboundFileConfig  `yaml:"outbound,omitempty"`
	API       APIFileConfig       `yaml:"api,omitempty"`
	Metrics   MetricsFileConfig   `yaml:"metrics,omitempty"`
	TLS       TLSFileConfig       `yaml:"tls,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
	Server    ServerFileConfig    `yaml:"server,omitempty"`
}

// RosterFileConfig holds roster source settings.
type RosterFileConfig struct {
	Path string `yaml:"path,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

// PhotosFileConfig holds photo folder settings.
type PhotosFileConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// RefreshFileConfig holds refresh trigger settings.
type RefreshFileConfig struct {
	Initial       *bool  `yaml:"initial,omitempty"`
	Watch         *bool  `yaml:"watch,omitempty"`
	WatchDebounce string `yaml:"watchDebounce,omitempty"` // e.g. "2s"
}

// ThumbsFileConfig holds thumbnail pipeline settings.
type ThumbsFileConfig struct {
	Dir              string   `yaml:"dir,omitempty"`
	Width            *int     `yaml:"width,omitempty"`
	Quality          *int     `yaml:"quality,omitempty"`
	Workers          *int     `yaml:"workers,omitempty"`
	RendersPerSecond *float64 `yaml:"rendersPerSecond,omitempty"`
	NegativeTTL      string   `yaml:"negativeTtl,omitempty"` // e.g. "10m"
}

// LibraryFileConfig holds photo library index settings.
type LibraryFileConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	DB      string `yaml:"db,omitempty"`
}

// RedisFileConfig holds redis connection settings.
type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
}

// CacheFileConfig holds response cache settings.
type CacheFileConfig struct {
	Backend string          `yaml:"backend,omitempty"` // "none", "memory", "redis"
	TTL     string          `yaml:"ttl,omitempty"`     // e.g. "30s"
	Redis   RedisFileConfig `yaml:"redis,omitempty"`
}

// StateFileConfig holds snapshot persistence settings.
type StateFileConfig struct {
	Backend    string `yaml:"backend,omitempty"` // "memory", "badger"
	Dir        string `yaml:"dir,omitempty"`
	RunHistory *int   `yaml:"runHistory,omitempty"`
	RunTTL     string `yaml:"runTtl,omitempty"` // e.g. "720h"
}

// FetchFileConfig holds remote roster fetch settings.
type FetchFileConfig struct {
	Timeout    string `yaml:"timeout,omitempty"` // e.g. "10s"
	Retries    *int   `yaml:"retries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"`    // e.g. "500ms"
	MaxBackoff string `yaml:"maxBackoff,omitempty"` // e.g. "30s"
	MaxBytes   *int64 `yaml:"maxBytes,omitempty"`
}

// OutboundFileConfig holds the outbound allowlist for remote roster sources.
type OutboundFileConfig struct {
	Hosts   []string `yaml:"hosts,omitempty"`
	CIDRs   []string `yaml:"cidrs,omitempty"`
	Ports   []int    `yaml:"ports,omitempty"`
	Schemes []string `yaml:"schemes,omitempty"`
}

// RateLimitFileConfig holds API rate limiting settings.
type RateLimitFileConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	RPS     *int  `yaml:"rps,omitempty"`
	Burst   *int  `yaml:"burst,omitempty"`
}

// APIFileConfig holds API server configuration.
type APIFileConfig struct {
	ListenAddr     string              `yaml:"listenAddr,omitempty"`
	RateLimit      RateLimitFileConfig `yaml:"rateLimit,omitempty"`
	AllowedOrigins []string            `yaml:"allowedOrigins,omitempty"`
}

// MetricsFileConfig holds metrics listener configuration.
type MetricsFileConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

// TLSFileConfig holds TLS settings.
type TLSFileConfig struct {
	Cert string `yaml:"cert,omitempty"`
	Key  string `yaml:"key,omitempty"`
}

// TelemetryFileConfig holds OTLP trace exporter settings.
type TelemetryFileConfig struct {
	Enabled     *bool    `yaml:"enabled,omitempty"`
	Endpoint    string   `yaml:"endpoint,omitempty"`
	Protocol    string   `yaml:"protocol,omitempty"` // "grpc" or "http"
	SampleRate  *float64 `yaml:"sampleRate,omitempty"`
	Environment string   `yaml:"environment,omitempty"`
}

// ServerFileConfig holds HTTP server tuning.
type ServerFileConfig struct {
	ReadTimeout     string `yaml:"readTimeout,omitempty"`
	WriteTimeout    string `yaml:"writeTimeout,omitempty"`
	IdleTimeout     string `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
	MaxHeaderBytes  *int   `yaml:"maxHeaderBytes,omitempty"`
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	loader := NewLoader(path, "")
	return loader.loadFile(path)
}
