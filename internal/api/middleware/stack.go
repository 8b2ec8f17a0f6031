// SPDX-License-Identifier: MIT

package middleware

import (
	"github.com/go-chi/chi/v5"

	tdlog "github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/ratelimit"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
// The API server and tests build their routers through it so
// cross-cutting concerns cannot drift between entry points.
type StackConfig struct {
	// CORS
	EnableCORS     bool
	AllowedOrigins []string

	// Security headers
	EnableSecurityHeaders bool
	CSP                   string

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// Rate limiting; nil disables the tier entirely
	Limiter *ratelimit.Limiter
}

// NewRouter constructs a chi router with the canonical middleware stack.
// Order matters here. The recoverer is outermost so a panic anywhere
// below it still turns into a clean 500. Request IDs are assigned before
// anything that logs or traces. The rate limiter is innermost so
// rejected requests still carry correlation IDs and security headers.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(tdlog.Middleware())
	}
	if cfg.Limiter != nil {
		r.Use(RateLimit(cfg.Limiter))
	}

	return r
}
