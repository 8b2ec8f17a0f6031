// SPDX-License-Identifier: MIT

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	photoRequestsDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdir_photo_requests_denied_total",
		Help: "Number of photo requests denied for security reasons",
	}, []string{"reason"})

	photoRequestsAllowedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamdir_photo_requests_allowed_total",
		Help: "Number of photo requests allowed",
	})

	photoCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamdir_photo_cache_hits_total",
		Help: "Number of photo requests served as 304 Not Modified",
	})

	photoCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamdir_photo_cache_misses_total",
		Help: "Number of photo requests resulting in 200 OK (content served)",
	})
)

func recordPhotoRequestAllowed() {
	photoRequestsAllowedTotal.Inc()
}

func recordPhotoRequestDenied(reason string) {
	photoRequestsDeniedTotal.WithLabelValues(reason).Inc()
}

func recordPhotoCacheHit() {
	photoCacheHitsTotal.Inc()
}

func recordPhotoCacheMiss() {
	photoCacheMissesTotal.Inc()
}
