// Package calibration accumulates repeated estimates of a calibration value and
// decides, against a precision threshold, whether their mean can be trusted.
//
// Precision is the three-sigma spread expressed as a percentage of the mean:
//
//	precision = 3 * stddev / |mean| * 100
//
// where stddev is the population standard deviation. An evaluation always
// reports the precision it computed, accepted or not. A configured plausible
// range is checked after the precision and before the threshold; its bounds
// are exclusive. The threshold itself is inclusive.
package calibration

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoSamples is returned by Evaluate when there is nothing to evaluate.
var ErrNoSamples = errors.New("no samples")

// Reason explains the outcome of an evaluation.
type Reason string

const (
	ReasonAccepted    Reason = "accepted"
	ReasonImprecise   Reason = "imprecise"
	ReasonImplausible Reason = "implausible"
)

// Result is the outcome of one Evaluate call.
type Result struct {
	Accepted  bool
	Precision float64
	Mean      float64
	StdDev    float64
	Samples   int
	Reason    Reason
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithPlausibleRange rejects means outside the open interval (lo, hi).
func WithPlausibleRange(lo, hi float64) Option {
	return func(a *Accumulator) {
		a.plausible = true
		a.lo = lo
		a.hi = hi
	}
}

// WithName labels the accumulator's metrics.
func WithName(name string) Option {
	return func(a *Accumulator) {
		if name != "" {
			a.name = name
		}
	}
}

// Accumulator holds the samples of a calibration run. It is not safe for
// concurrent use.
type Accumulator struct {
	name      string
	plausible bool
	lo, hi    float64

	samples       []float64
	confirmed     float64
	hasConfirmed  bool
	lastPrecision float64
}

func New(opts ...Option) *Accumulator {
	acc := &Accumulator{
		name:          "calibration",
		lastPrecision: math.NaN(),
	}

	for _, opt := range opts {
		opt(acc)
	}

	return acc
}

// AddSample appends value. Nothing is rejected here; validity is judged in aggregate.
func (a *Accumulator) AddSample(value float64) {
	a.samples = append(a.samples, value)
	samplesGauge.WithLabelValues(a.name).Set(float64(len(a.samples)))
}

func (a *Accumulator) Len() int {
	return len(a.samples)
}

// Samples returns a copy of the collected samples.
func (a *Accumulator) Samples() []float64 {
	out := make([]float64, len(a.samples))
	copy(out, a.samples)

	return out
}

// Clear drops all samples. The confirmed value survives.
func (a *Accumulator) Clear() {
	a.samples = a.samples[:0]
	samplesGauge.WithLabelValues(a.name).Set(0)
}

// Confirmed returns the mean of the last accepted evaluation.
func (a *Accumulator) Confirmed() (float64, bool) {
	return a.confirmed, a.hasConfirmed
}

// LastPrecision returns the precision of the last evaluation, or NaN if none ran.
func (a *Accumulator) LastPrecision() float64 {
	return a.lastPrecision
}

// Evaluate computes mean, standard deviation and precision over all samples and
// accepts the mean when it is plausible and precision <= threshold. Samples are
// kept either way.
func (a *Accumulator) Evaluate(threshold float64) (Result, error) {
	if len(a.samples) == 0 {
		evaluations.WithLabelValues(a.name, "no_samples").Inc()

		return Result{}, ErrNoSamples
	}

	mean, stddev := stat.PopMeanStdDev(a.samples, nil)

	res := Result{
		Mean:      mean,
		StdDev:    stddev,
		Samples:   len(a.samples),
		Precision: precision(mean, stddev),
	}

	a.lastPrecision = res.Precision
	precisionGauge.WithLabelValues(a.name).Set(res.Precision)

	switch {
	case a.plausible && (mean <= a.lo || mean >= a.hi):
		res.Reason = ReasonImplausible
	case res.Precision <= threshold:
		res.Reason = ReasonAccepted
		res.Accepted = true
		a.confirmed = mean
		a.hasConfirmed = true
	default:
		res.Reason = ReasonImprecise
	}

	evaluations.WithLabelValues(a.name, string(res.Reason)).Inc()

	return res, nil
}

func precision(mean, stddev float64) float64 {
	if mean == 0 {
		return math.Inf(1)
	}

	return 3 * stddev / math.Abs(mean) * 100 //nolint:mnd
}
