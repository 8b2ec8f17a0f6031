// SPDX-License-Identifier: MIT

package api

import (
	"strconv"

	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/log"
)

// ApplyRuntimeConfig applies the reloadable subset of a new config:
// log level, rate limits and the response cache TTL. Everything else
// (listen addresses, directories, backends) needs a restart and is
// only logged by the config holder's diff.
func (s *Server) ApplyRuntimeConfig(cfg config.AppConfig) {
	logger := log.WithComponent("api")

	if cfg.LogLevel != "" {
		log.SetLevel(cfg.LogLevel)
	}

	if s.limiter != nil && cfg.API.RateLimitEnabled {
		s.limiter.Update(limiterConfig(cfg))
	}

	if cfg.Cache.TTL > 0 {
		s.cacheTTL.Store(int64(cfg.Cache.TTL))
	}

	if s.auditLog != nil {
		s.auditLog.ConfigReload("system", "applied", map[string]string{
			"log_level":  cfg.LogLevel,
			"rate_limit": strconv.FormatBool(cfg.API.RateLimitEnabled),
			"cache_ttl":  cfg.Cache.TTL.String(),
		})
	}

	logger.Info().
		Str("event", "config.applied").
		Str("log_level", cfg.LogLevel).
		Bool("rate_limit", cfg.API.RateLimitEnabled).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("runtime config applied")
}
