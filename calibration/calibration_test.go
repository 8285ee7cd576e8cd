package calibration

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(acc *Accumulator, samples ...float64) {
	for _, s := range samples {
		acc.AddSample(s)
	}
}

func TestEvaluateAcceptsTightSamples(t *testing.T) {
	t.Parallel()

	acc := New(WithName(t.Name()))
	fill(acc, 100, 102, 98, 101, 99)

	res, err := acc.Evaluate(5.0)
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, ReasonAccepted, res.Reason)
	assert.InDelta(t, 100.0, res.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt2, res.StdDev, 1e-9)
	assert.InDelta(t, 4.2426, res.Precision, 1e-4)
	assert.Equal(t, 5, res.Samples)

	confirmed, ok := acc.Confirmed()
	assert.True(t, ok)
	assert.InDelta(t, 100.0, confirmed, 1e-9)
	assert.InDelta(t, res.Precision, acc.LastPrecision(), 0)
}

func TestStdDevIsPopulation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples []float64
		mean    float64
		stddev  float64
	}{
		{"textbook set", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, 2},
		{"single sample", []float64{1000}, 1000, 0},
		{"two samples", []float64{50, 150}, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			acc := New(WithName(t.Name()))
			fill(acc, tt.samples...)

			res, err := acc.Evaluate(1000)
			require.NoError(t, err)
			assert.InDelta(t, tt.mean, res.Mean, 1e-9)
			assert.InDelta(t, tt.stddev, res.StdDev, 1e-9)
		})
	}
}

func TestEvaluateRejectsSpreadSamples(t *testing.T) {
	t.Parallel()

	acc := New(WithName(t.Name()))
	fill(acc, 50, 150)

	res, err := acc.Evaluate(5.0)
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonImprecise, res.Reason)
	assert.InDelta(t, 150.0, res.Precision, 1e-9)

	_, ok := acc.Confirmed()
	assert.False(t, ok)
	assert.Equal(t, 2, acc.Len(), "rejection keeps samples")
}

func TestThresholdIsInclusive(t *testing.T) {
	t.Parallel()

	acc := New(WithName(t.Name()))
	fill(acc, 75, 125)

	res, err := acc.Evaluate(75)
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	res, err = acc.Evaluate(74.999)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
}

func TestPlausibleRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		samples []float64
		reason  Reason
	}{
		{"below", []float64{200, 200}, ReasonImplausible},
		{"lower bound is exclusive", []float64{300, 300}, ReasonImplausible},
		{"upper bound is exclusive", []float64{4000, 4000}, ReasonImplausible},
		{"inside", []float64{1000, 1000}, ReasonAccepted},
		{"inside but imprecise", []float64{500, 1500}, ReasonImprecise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			acc := New(WithName(t.Name()), WithPlausibleRange(300, 4000))
			fill(acc, tt.samples...)

			res, err := acc.Evaluate(1.0)
			require.NoError(t, err)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.reason == ReasonAccepted, res.Accepted)
		})
	}
}

func TestImplausibleStillReportsPrecision(t *testing.T) {
	t.Parallel()

	acc := New(WithName(t.Name()), WithPlausibleRange(300, 4000))
	fill(acc, 100, 200)

	res, err := acc.Evaluate(1000)
	require.NoError(t, err)

	assert.Equal(t, ReasonImplausible, res.Reason)
	assert.InDelta(t, 100.0, res.Precision, 1e-9)
}

func TestZeroMean(t *testing.T) {
	t.Parallel()

	acc := New(WithName(t.Name()))
	fill(acc, -1, 1)

	res, err := acc.Evaluate(math.MaxFloat64)
	require.NoError(t, err)

	assert.True(t, math.IsInf(res.Precision, 1))
	assert.False(t, res.Accepted)
}

func TestClear(t *testing.T) {
	t.Parallel()

	acc := New(WithName(t.Name()))
	assert.True(t, math.IsNaN(acc.LastPrecision()))

	_, err := acc.Evaluate(5)
	require.ErrorIs(t, err, ErrNoSamples)

	fill(acc, 10, 10, 10)

	res, err := acc.Evaluate(5)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	acc.Clear()
	assert.Equal(t, 0, acc.Len())

	_, err = acc.Evaluate(5)
	require.ErrorIs(t, err, ErrNoSamples)

	confirmed, ok := acc.Confirmed()
	assert.True(t, ok)
	assert.InDelta(t, 10.0, confirmed, 0)

	fill(acc, 20)
	assert.Equal(t, []float64{20}, acc.Samples())
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	acc := New(WithName(t.Name()))
	fill(acc, 50, 150)

	_, err := acc.Evaluate(5)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, testutil.ToFloat64(evaluations.WithLabelValues(t.Name(), string(ReasonImprecise))), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(samplesGauge.WithLabelValues(t.Name())), 0)
	assert.InDelta(t, 150.0, testutil.ToFloat64(precisionGauge.WithLabelValues(t.Name())), 1e-9)
}
