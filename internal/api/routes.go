// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/ManuGH/teamdir/internal/api/middleware"
	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/ratelimit"
)

// Handler builds the routed handler with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := s.newRouter()
	s.registerRoutes(r)
	return r
}

func (s *Server) newRouter() *chi.Mux {
	return middleware.NewRouter(middleware.StackConfig{
		EnableCORS:     true,
		AllowedOrigins: s.cfg.API.AllowedOrigins,

		EnableSecurityHeaders: true,
		CSP:                   middleware.DefaultCSP,

		EnableMetrics:  true,
		TracingService: "teamdir-api",
		EnableLogging:  true,

		Limiter: s.newLimiter(),
	})
}

// newLimiter builds the token-bucket tier from config; nil disables it.
// The limiter is kept on the server so config reloads can retune it.
func (s *Server) newLimiter() *ratelimit.Limiter {
	if !s.cfg.API.RateLimitEnabled {
		return nil
	}
	s.limiter = ratelimit.New(limiterConfig(s.cfg))
	return s.limiter
}

// limiterConfig derives the tiered limits from the app config. The
// per-IP knob scales the global bucket by an order of magnitude.
func limiterConfig(appCfg config.AppConfig) ratelimit.Config {
	cfg := ratelimit.DefaultConfig()
	if rps := appCfg.API.RateLimitRPS; rps > 0 {
		cfg.PerIPRate = rate.Limit(rps)
		cfg.GlobalRate = rate.Limit(rps) * 10
	}
	if burst := appCfg.API.RateLimitBurst; burst > 0 {
		cfg.PerIPBurst = burst
		cfg.GlobalBurst = burst * 10
	}
	return cfg
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.With(middleware.RefreshRateLimit()).Post("/refresh", s.handleRefresh)
		r.Get("/profiles", s.handleProfiles)
		r.Get("/profiles/{id}", s.handleProfile)
		r.Get("/countries", s.handleCountries)
		r.Get("/library/items", s.handleLibraryItems)
		r.Get("/library/stats", s.handleLibraryStats)
		r.Get("/config", s.handleConfig)
	})

	r.Handle("/photos/*", http.StripPrefix("/photos/", s.securePhotoServer()))
	r.Get("/thumbs/{id}.jpg", s.handleThumb)

	// The embedded UI owns everything else, including /.
	r.Handle("/*", uiHandler(middleware.DefaultCSP))
}
