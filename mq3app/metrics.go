package mq3app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	faultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mq3_faults_total",
		Help: "Total number of faults that redirected the machine to RESET, by state",
	}, []string{"state"})

	concentration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mq3_concentration_mg_per_l",
		Help: "Most recent alcohol concentration reading",
	})

	r0Gauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mq3_r0_ohms",
		Help: "Sensor resistance in clean air currently in use",
	})

	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mq3_calibration_saves_total",
		Help: "Total number of calibration save attempts by outcome",
	}, []string{"outcome"})
)
