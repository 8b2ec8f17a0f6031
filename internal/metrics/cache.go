// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "teamdir_cache_operations_total",
	Help: "Response cache operations by backend and outcome",
}, []string{"backend", "op", "outcome"}) // op=get|set|delete, outcome=hit|miss|success|error

func IncCacheOperation(backend, op, outcome string) {
	cacheOperationsTotal.WithLabelValues(backend, op, outcome).Inc()
}
