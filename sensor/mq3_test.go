package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBus = errors.New("i2c bus stuck")

type brokenADC struct{}

func (brokenADC) Read() (int, error) {
	return 0, errBus
}

// sequenceADC returns its values in order, wrapping around.
type sequenceADC struct {
	values []int
	next   int
}

func (s *sequenceADC) Read() (int, error) {
	v := s.values[s.next%len(s.values)]
	s.next++

	return v, nil
}

func TestMeasure(t *testing.T) {
	t.Parallel()

	m := NewMQ3(FixedADC(123), WithReads(10))

	meas, err := m.Measure()
	require.NoError(t, err)

	volts := 123.0 / 1024 * 5
	assert.InDelta(t, 123.0, meas.Raw, 1e-9)
	assert.InDelta(t, volts, meas.Volts, 1e-9)
	assert.InDelta(t, 5*4700/volts-4700, meas.RS, 1e-6)
}

func TestMeasureAverages(t *testing.T) {
	t.Parallel()

	m := NewMQ3(&sequenceADC{values: []int{100, 200}}, WithReads(4))

	meas, err := m.Measure()
	require.NoError(t, err)
	assert.InDelta(t, 150.0, meas.Raw, 1e-9)
}

func TestMeasureFailures(t *testing.T) {
	t.Parallel()

	_, err := NewMQ3(FixedADC(0)).Measure()
	require.ErrorIs(t, err, ErrNoSignal)

	_, err = NewMQ3(brokenADC{}).Measure()
	require.ErrorIs(t, err, ErrReadFailed)
	require.ErrorIs(t, err, errBus)

	_, _, err = NewMQ3(FixedADC(0)).EstimateR0()
	require.ErrorIs(t, err, ErrNoSignal)
}

func TestEstimateR0(t *testing.T) {
	t.Parallel()

	count := VoltsToCount(0.6)
	m := NewMQ3(FixedADC(count), WithReads(1))

	meas, r0, err := m.EstimateR0()
	require.NoError(t, err)

	assert.InDelta(t, meas.RS/CleanAirRatio, r0, 1e-9)
	assert.True(t, ValidR0(r0))
}

func TestValidR0(t *testing.T) {
	t.Parallel()

	assert.False(t, ValidR0(MinR0))
	assert.False(t, ValidR0(MaxR0))
	assert.False(t, ValidR0(0))
	assert.True(t, ValidR0(MinR0+1))
	assert.True(t, ValidR0(MaxR0-1))
}

func TestConcentration(t *testing.T) {
	t.Parallel()

	mgL, err := Concentration(1000/0.4, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mgL, 1e-12)

	lower, err := Concentration(2*1000/0.4, 1000)
	require.NoError(t, err)
	assert.Less(t, lower, mgL, "higher resistance means less alcohol")

	_, err = Concentration(1000, 0)
	require.ErrorIs(t, err, ErrNotCalibrated)
}

func TestResistanceFromVolts(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, LoadResistance, ResistanceFromVolts(ReferenceVolts/2), 1e-9)
}
