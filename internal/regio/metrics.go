package regio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bus transaction counters, exported on the daemon's /metrics endpoint.
var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imx585",
		Subsystem: "regio",
		Name:      "ops_total",
		Help:      "Register bus transactions by operation.",
	}, []string{"op"})

	errsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imx585",
		Subsystem: "regio",
		Name:      "errors_total",
		Help:      "Failed register bus transactions by operation.",
	}, []string{"op"})
)

func countOp(op string, err error) {
	opsTotal.WithLabelValues(op).Inc()
	if err != nil {
		errsTotal.WithLabelValues(op).Inc()
	}
}
