package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_runs_total",
		Help: "Total number of times the poller ran its machine",
	}, []string{"poller"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poller_run_duration_seconds",
		Help:    "Duration of a single machine run",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"poller"})

	watchdogStalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poller_watchdog_stalls_total",
		Help: "Total number of gaps between runs longer than the watchdog period",
	}, []string{"poller"})

	cyclePeriod = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "poller_cycle_period_seconds",
		Help: "Cycle period of the active state",
	}, []string{"poller"})
)
