// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/teamdir/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Directory("DataDir", cfg.DataDir, false)
	v.NotEmpty("RosterPath", cfg.RosterPath)
	v.Directory("PhotosDir", cfg.PhotosDir, false)
	v.WritableDirectory("Thumbs.Dir", cfg.Thumbs.Dir, false)

	// Remote roster source (optional)
	if strings.TrimSpace(cfg.RosterURL) != "" {
		v.URL("RosterURL", cfg.RosterURL, []string{"http", "https"})
	}

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", err.Error(), cfg.LogLevel)
	}

	validateListenAddr(v, "APIListenAddr", cfg.APIListenAddr)
	if strings.TrimSpace(cfg.MetricsAddr) != "" {
		validateListenAddr(v, "MetricsAddr", cfg.MetricsAddr)
	}

	v.Range("Thumbs.Width", cfg.Thumbs.Width, 16, 1024)
	v.Range("Thumbs.Quality", cfg.Thumbs.Quality, 1, 100)
	v.Range("Thumbs.Workers", cfg.Thumbs.Workers, 1, 64)
	if cfg.Thumbs.RendersPerS < 0 {
		v.AddError("Thumbs.RendersPerS", "must be >= 0", cfg.Thumbs.RendersPerS)
	}
	if cfg.Thumbs.NegativeTTL < 0 {
		v.AddError("Thumbs.NegativeTTL", "must be >= 0", cfg.Thumbs.NegativeTTL.String())
	}

	if cfg.Library.Enabled {
		v.NotEmpty("Library.DBPath", cfg.Library.DBPath)
	}

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{"memory", "redis", "none"})
	if cfg.Cache.Backend == "redis" {
		v.NotEmpty("Cache.RedisAddr", cfg.Cache.RedisAddr)
	}
	if cfg.Cache.TTL < 0 {
		v.AddError("Cache.TTL", "must be >= 0", cfg.Cache.TTL.String())
	}

	v.OneOf("State.Backend", cfg.State.Backend, []string{"memory", "badger"})
	if cfg.State.Backend == "badger" {
		// Fail Fast: the state store must be writable before the daemon starts
		v.WritableDirectory("State.Dir", cfg.State.Dir, false)
	}
	v.Range("State.RunHistory", cfg.State.RunHistory, 1, 500)

	if cfg.Fetch.Timeout <= 0 {
		v.AddError("Fetch.Timeout", "must be > 0", cfg.Fetch.Timeout.String())
	}
	v.Range("Fetch.Retries", cfg.Fetch.Retries, 0, 10)
	if cfg.Fetch.MaxBytes <= 0 {
		v.AddError("Fetch.MaxBytes", "must be > 0", cfg.Fetch.MaxBytes)
	}

	// Outbound allowlist entries must be well formed
	for _, entry := range cfg.Outbound.CIDRs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err != nil {
			v.AddError("Outbound.CIDRs", "must be a valid CIDR", entry)
		}
	}
	for _, scheme := range cfg.Outbound.Schemes {
		v.OneOf("Outbound.Schemes", scheme, []string{"http", "https"})
	}
	for _, port := range cfg.Outbound.Ports {
		v.Port("Outbound.Ports", port)
	}

	if (cfg.TLS.Cert == "") != (cfg.TLS.Key == "") {
		v.AddError("TLS", "cert and key must both be set or both be empty", "")
	}

	if cfg.API.RateLimitEnabled {
		v.Positive("API.RateLimitRPS", cfg.API.RateLimitRPS)
		v.Positive("API.RateLimitBurst", cfg.API.RateLimitBurst)
	}

	if cfg.Telemetry.Enabled {
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.OneOf("Telemetry.Protocol", cfg.Telemetry.Protocol, []string{"grpc", "http"})
	}
	v.Fraction("Telemetry.SampleRate", cfg.Telemetry.SampleRate)

	if cfg.Watch && cfg.WatchDebounce < 100*time.Millisecond {
		v.AddError("WatchDebounce", "must be >= 100ms when watching is enabled", cfg.WatchDebounce.String())
	}

	return v.Err()
}

// validateListenAddr accepts ":8080" and "host:port" forms.
func validateListenAddr(v *validate.Validator, field, addr string) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		v.AddError(field, "listen address cannot be empty", addr)
		return
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		v.AddError(field, "must be of the form host:port or :port", addr)
		return
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		v.AddError(field, "port must be numeric", addr)
		return
	}
	v.Port(field, p)
}
