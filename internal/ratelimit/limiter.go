// SPDX-License-Identifier: MIT

// Package ratelimit provides tiered request rate limiting for the API:
// a global bucket, one bucket per endpoint class and one per client IP.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	rateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teamdir",
			Name:      "ratelimit_exceeded_total",
			Help:      "Total rate limit rejections",
		},
		[]string{"limit_type", "class"},
	)
)

// Endpoint classes used by the API router.
const (
	ClassAPI     = "api"
	ClassPhotos  = "photos"
	ClassRefresh = "refresh"
)

// Config holds rate limiting configuration
type Config struct {
	// Global limits
	GlobalRate  rate.Limit // requests per second
	GlobalBurst int        // max burst size

	// Per-IP limits
	PerIPRate  rate.Limit
	PerIPBurst int

	// Per-class limits (api: JSON endpoints, photos: image serving, refresh: manual refresh)
	ClassRates map[string]rate.Limit
	ClassBurst map[string]int

	// Cleanup interval for per-IP limiters
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		GlobalRate:  100, // 100 req/s globally
		GlobalBurst: 200, // burst up to 200

		PerIPRate:  10, // 10 req/s per IP
		PerIPBurst: 20, // burst up to 20

		ClassRates: map[string]rate.Limit{
			ClassAPI:     50, // JSON queries are cheap
			ClassPhotos:  30, // image serving moves real bytes
			ClassRefresh: 1,  // refresh rebuilds the whole snapshot
		},
		ClassBurst: map[string]int{
			ClassAPI:     100,
			ClassPhotos:  60,
			ClassRefresh: 5,
		},

		CleanupInterval: 5 * time.Minute,
	}
}

// Limiter manages tiered request rate limiting
type Limiter struct {
	config Config

	global   *rate.Limiter
	perIP    map[string]*rate.Limiter
	perClass map[string]*rate.Limiter
	mu       sync.RWMutex

	lastCleanup time.Time
}

// New creates a new rate limiter with the given config
func New(config Config) *Limiter {
	l := &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perIP:       make(map[string]*rate.Limiter),
		perClass:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}

	// Initialize per-class limiters
	for class, classRate := range config.ClassRates {
		burst := config.ClassBurst[class]
		l.perClass[class] = rate.NewLimiter(classRate, burst)
	}

	return l
}

// Allow checks if a request is allowed under rate limits
// Returns true if allowed, false if rate limited
func (l *Limiter) Allow(clientIP, class string) bool {
	// Periodic cleanup of stale IP limiters. Runs before the IP lookup so
	// the current request's limiter survives the wipe.
	l.maybeCleanup()

	// 1. Check global limit
	if !l.global.Allow() {
		rateLimitExceeded.WithLabelValues("global", class).Inc()
		return false
	}

	// 2. Check per-class limit
	l.mu.RLock()
	classLimiter, exists := l.perClass[class]
	l.mu.RUnlock()

	if exists && !classLimiter.Allow() {
		rateLimitExceeded.WithLabelValues("per_class", class).Inc()
		return false
	}

	// 3. Check per-IP limit
	ipLimiter := l.getIPLimiter(clientIP)
	if !ipLimiter.Allow() {
		rateLimitExceeded.WithLabelValues("per_ip", class).Inc()
		return false
	}

	return true
}

// getIPLimiter returns the rate limiter for a specific IP
func (l *Limiter) getIPLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.perIP[ip]
	if !exists {
		limiter = rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)
		l.perIP[ip] = limiter
	}

	return limiter
}

// Update applies a new configuration at runtime. The global and
// per-class buckets change immediately; existing per-IP limiters keep
// their old rate until the next cleanup wipe replaces them.
func (l *Limiter) Update(config Config) {
	l.global.SetLimit(config.GlobalRate)
	l.global.SetBurst(config.GlobalBurst)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.config = config
	for class, classRate := range config.ClassRates {
		if limiter, ok := l.perClass[class]; ok {
			limiter.SetLimit(classRate)
			limiter.SetBurst(config.ClassBurst[class])
		} else {
			l.perClass[class] = rate.NewLimiter(classRate, config.ClassBurst[class])
		}
	}
}

// maybeCleanup removes stale IP limiters if cleanup interval has passed
func (l *Limiter) maybeCleanup() {
	l.mu.RLock()
	due := time.Since(l.lastCleanup) >= l.config.CleanupInterval
	l.mu.RUnlock()
	if !due {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastCleanup) < l.config.CleanupInterval {
		return
	}

	// Clear all IP limiters (simple approach)
	// Alternative: Track last access time and only remove stale entries
	l.perIP = make(map[string]*rate.Limiter)
	l.lastCleanup = time.Now()
}

// GetClientIP extracts the real client IP from the request
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (reverse proxy)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
		// Take the first one (original client)
		if idx := strings.IndexByte(xff, ','); idx > 0 {
			xff = xff[:idx]
		}
		xff = strings.TrimSpace(xff)
		if xff != "" {
			return xff
		}
	}

	// Check X-Real-IP header (some proxies)
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// Fallback to RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
