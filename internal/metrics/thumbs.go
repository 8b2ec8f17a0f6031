// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	thumbRenderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdir_thumb_render_total",
		Help: "Thumbnail render attempts by outcome",
	}, []string{"outcome"}) // outcome=rendered|hit_disk|negcache|dedup|dropped|notfound|error

	thumbRenderDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "teamdir_thumb_render_duration_seconds",
		Help:    "Time spent decoding and resizing a single thumbnail",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
)

func IncThumbRender(outcome string) { thumbRenderTotal.WithLabelValues(outcome).Inc() }

func ObserveThumbRender(seconds float64) { thumbRenderDurationSeconds.Observe(seconds) }
