// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The state gauge is one-hot: one time series per known state, so
// dashboards match on the state label instead of decoding an enum value.
var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "teamdir_circuit_breaker_state",
		Help: "Circuit breaker state by component (active state=1, others 0)",
	}, []string{"component", "state"})

	breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamdir_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips (transitions to open state)",
	}, []string{"component", "reason"})
)

var breakerStates = [...]string{"closed", "half-open", "open"}

// SetCircuitBreakerState flips the one-hot state gauge for a component,
// such as the roster fetcher or the refresh endpoint.
func SetCircuitBreakerState(component, state string) {
	for _, s := range breakerStates {
		var active float64
		if s == state {
			active = 1
		}
		breakerState.WithLabelValues(component, s).Set(active)
	}
}

// RecordCircuitBreakerTrip counts a transition to open, labelled with the
// reason ("threshold_exceeded" or "half_open_failure").
func RecordCircuitBreakerTrip(component, reason string) {
	breakerTrips.WithLabelValues(component, reason).Inc()
}
