package calibration

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calibration_evaluations_total",
		Help: "Total number of calibration evaluations by outcome",
	}, []string{"accumulator", "outcome"})

	samplesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "calibration_samples",
		Help: "Number of samples currently held",
	}, []string{"accumulator"})

	precisionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "calibration_last_precision_percent",
		Help: "Precision of the most recent evaluation, in percent of the mean",
	}, []string{"accumulator"})
)
