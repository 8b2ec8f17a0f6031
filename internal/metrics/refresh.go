// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdir_refresh_total",
		Help: "Completed refresh runs by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	refreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "teamdir_refresh_duration_seconds",
		Help:    "Time spent on a full roster+photos refresh",
		Buckets: prometheus.DefBuckets,
	})

	refreshFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdir_refresh_failures_total",
		Help: "Refresh failures by pipeline stage",
	}, []string{"stage"}) // stage=config|roster|photos|match|snapshot|persist|artifact

	lastRefreshTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamdir_last_refresh_timestamp_seconds",
		Help: "Unix timestamp of the last successful refresh",
	})

	profilesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamdir_profiles_total",
		Help: "Profiles in the current directory snapshot",
	})

	profilesWithPhoto = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamdir_profiles_with_photo",
		Help: "Profiles with a matched photo in the current snapshot",
	})

	countriesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamdir_countries_total",
		Help: "Distinct countries in the current snapshot",
	})

	photosIndexed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamdir_photos_indexed",
		Help: "Image files found in the photos directory (last scan)",
	})

	rosterFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdir_roster_fetch_total",
		Help: "Roster load attempts by source and outcome",
	}, []string{"source", "outcome"}) // source=file|http, outcome=success|error|blocked
)

func RecordRefreshOutcome(outcome string) { refreshTotal.WithLabelValues(outcome).Inc() }

func ObserveRefreshDuration(d time.Duration) { refreshDurationSeconds.Observe(d.Seconds()) }

func RecordRefreshFailure(stage string) { refreshFailuresTotal.WithLabelValues(stage).Inc() }

func SetLastRefresh(t time.Time) { lastRefreshTimestamp.Set(float64(t.Unix())) }

// RecordSnapshotCounts updates the snapshot gauges after a refresh swap.
func RecordSnapshotCounts(profiles, matched, countries, photos int) {
	profilesTotal.Set(float64(profiles))
	profilesWithPhoto.Set(float64(matched))
	countriesTotal.Set(float64(countries))
	photosIndexed.Set(float64(photos))
}

func IncRosterFetch(source, outcome string) {
	rosterFetchTotal.WithLabelValues(source, outcome).Inc()
}
