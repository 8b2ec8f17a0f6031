// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ManuGH/teamdir/internal/ratelimit"
)

// classFor maps a request path to its rate limit class. Image routes
// move real bytes and get their own bucket; everything else is api.
func classFor(path string) string {
	switch {
	case strings.HasPrefix(path, "/photos/"), strings.HasPrefix(path, "/thumbs/"):
		return ratelimit.ClassPhotos
	case strings.HasPrefix(path, "/api/refresh"):
		return ratelimit.ClassRefresh
	default:
		return ratelimit.ClassAPI
	}
}

// RateLimit creates a middleware enforcing the tiered limiter: global,
// per endpoint class, per client IP.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ratelimit.GetClientIP(r)
			if !limiter.Allow(clientIP, classFor(r.URL.Path)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RefreshRateLimit returns a sliding-window limiter for the refresh
// endpoint. It sits on the route itself, on top of the token-bucket
// tier, because a refresh rebuilds the whole snapshot and a reload
// loop in a browser tab must not churn the pipeline.
func RefreshRateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		10,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many refresh requests. Please try again later."}`))
		}),
	)
}
