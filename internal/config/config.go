// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for teamdir.
//
// Precedence is ENV > YAML file > defaults. Every knob has a TEAMDIR_* key;
// the plain PORT variable is honored as the container listen contract.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	xnet "github.com/ManuGH/teamdir/internal/platform/net"
)

// Defaults for paths relative to the data directory.
const (
	DefaultDataDir    = "/data"
	defaultRosterFile = "profiles.csv"
	defaultPhotosDir  = "photos"
	defaultThumbsDir  = "thumbs"
	defaultStateDir   = "state"
	defaultLibraryDB  = "library.db"
)

// ThumbsConfig holds thumbnail pipeline settings.
type ThumbsConfig struct {
	Dir         string
	Width       int
	Quality     int
	Workers     int
	RendersPerS float64       // 0 disables the render rate limit
	NegativeTTL time.Duration // how long undecodable sources stay blacklisted
}

// LibraryConfig holds photo library index settings.
type LibraryConfig struct {
	Enabled bool
	DBPath  string
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Backend       string // "none", "memory" or "redis"
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// StateConfig holds snapshot/run persistence settings.
type StateConfig struct {
	Backend    string // "memory" or "badger"
	Dir        string
	RunHistory int
	RunTTL     time.Duration
}

// FetchConfig holds remote roster fetch settings.
type FetchConfig struct {
	Timeout    time.Duration
	Retries    int
	Backoff    time.Duration
	MaxBackoff time.Duration
	MaxBytes   int64
}

// OutboundConfig holds the outbound URL allowlist for remote roster sources.
type OutboundConfig struct {
	Hosts   []string
	CIDRs   []string
	Ports   []int
	Schemes []string
}

// Policy converts the allowlist into the enforcement form the outbound
// URL guard consumes. The policy is always enabled; an empty allowlist
// simply rejects every host.
func (c OutboundConfig) Policy() xnet.OutboundPolicy {
	return xnet.OutboundPolicy{
		Enabled: true,
		Allow: xnet.OutboundAllowlist{
			Hosts:   c.Hosts,
			CIDRs:   c.CIDRs,
			Ports:   c.Ports,
			Schemes: c.Schemes,
		},
	}
}

// TLSSettings holds optional TLS listener material.
type TLSSettings struct {
	Cert string
	Key  string
}

// APISettings holds API hardening knobs.
type APISettings struct {
	RateLimitEnabled bool
	RateLimitRPS     int
	RateLimitBurst   int
	AllowedOrigins   []string
}

// TelemetrySettings holds OTLP trace exporter settings.
type TelemetrySettings struct {
	Enabled     bool
	Endpoint    string
	Protocol    string // "grpc" or "http"
	SampleRate  float64
	Environment string
}

// AppConfig is the root runtime configuration assembled by the Loader.
type AppConfig struct {
	Version string

	DataDir    string
	RosterPath string
	RosterURL  string // optional remote roster source; empty = local file only
	PhotosDir  string
	LogLevel   string

	APIListenAddr string
	BindHost      string
	MetricsAddr   string

	InitialRefresh bool
	Watch          bool
	WatchDebounce  time.Duration

	Thumbs    ThumbsConfig
	Library   LibraryConfig
	Cache     CacheConfig
	State     StateConfig
	Fetch     FetchConfig
	Outbound  OutboundConfig
	TLS       TLSSettings
	API       APISettings
	Telemetry TelemetrySettings
	Server    ServerRuntimeConfig
}

// TLSEnabled reports whether both certificate and key are configured.
func (c AppConfig) TLSEnabled() bool {
	return c.TLS.Cert != "" && c.TLS.Key != ""
}

// resolveDataPaths fills path fields that default relative to DataDir.
func (c *AppConfig) resolveDataPaths() {
	if c.RosterPath == "" {
		c.RosterPath = filepath.Join(c.DataDir, defaultRosterFile)
	}
	if c.PhotosDir == "" {
		c.PhotosDir = filepath.Join(c.DataDir, defaultPhotosDir)
	}
	if c.Thumbs.Dir == "" {
		c.Thumbs.Dir = filepath.Join(c.DataDir, defaultThumbsDir)
	}
	if c.State.Dir == "" {
		c.State.Dir = filepath.Join(c.DataDir, defaultStateDir)
	}
	if c.Library.DBPath == "" {
		c.Library.DBPath = filepath.Join(c.DataDir, defaultLibraryDB)
	}
}

// Sanitized returns a redacted view of the configuration safe for the
// /api/config endpoint and debug logs.
func (c AppConfig) Sanitized() map[string]any {
	redisAddr := c.Cache.RedisAddr
	if c.Cache.RedisPassword != "" {
		redisAddr = redisAddr + " (auth)"
	}
	out := map[string]any{
		"version":         c.Version,
		"data_dir":        c.DataDir,
		"roster_path":     c.RosterPath,
		"roster_url":      MaskURL(c.RosterURL),
		"photos_dir":      c.PhotosDir,
		"log_level":       c.LogLevel,
		"listen":          c.APIListenAddr,
		"metrics_listen":  c.MetricsAddr,
		"initial_refresh": c.InitialRefresh,
		"watch":           c.Watch,
		"thumbs": map[string]any{
			"dir":     c.Thumbs.Dir,
			"width":   c.Thumbs.Width,
			"quality": c.Thumbs.Quality,
			"workers": c.Thumbs.Workers,
		},
		"library": map[string]any{
			"enabled": c.Library.Enabled,
			"db":      c.Library.DBPath,
		},
		"cache": map[string]any{
			"backend": c.Cache.Backend,
			"ttl":     c.Cache.TTL.String(),
			"redis":   redisAddr,
		},
		"state": map[string]any{
			"backend": c.State.Backend,
			"dir":     c.State.Dir,
		},
		"tls_enabled": c.TLSEnabled(),
	}

	// Second pass: catch any key that still smells like a secret.
	masked, ok := MaskSecrets(out).(map[string]any)
	if !ok {
		return out
	}
	return masked
}

// String renders a compact, redacted summary for startup logging.
func (c AppConfig) String() string {
	parts := []string{
		fmt.Sprintf("data=%s", c.DataDir),
		fmt.Sprintf("roster=%s", c.RosterPath),
	}
	if c.RosterURL != "" {
		parts = append(parts, fmt.Sprintf("roster_url=%s", MaskURL(c.RosterURL)))
	}
	parts = append(parts,
		fmt.Sprintf("photos=%s", c.PhotosDir),
		fmt.Sprintf("listen=%s", c.APIListenAddr),
		fmt.Sprintf("cache=%s", c.Cache.Backend),
		fmt.Sprintf("state=%s", c.State.Backend),
	)
	return strings.Join(parts, " ")
}
