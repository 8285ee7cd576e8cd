// Package sensor models an MQ3 alcohol sensor read through a 10-bit ADC.
package sensor

import (
	"errors"
	"fmt"
	"math"
)

const (
	// ADCLevels is the number of distinct readings of a 10-bit converter.
	ADCLevels = 1024
	// ReferenceVolts is the ADC reference and the sensor supply voltage.
	ReferenceVolts = 5.0
	// LoadResistance is the load resistor on the sensor output, in ohms.
	LoadResistance = 4700.0
	// CleanAirRatio is RS/R0 in clean air, read off the MQ3 datasheet curve.
	CleanAirRatio = 60.0
	// MinR0 and MaxR0 bound a plausible R0, exclusive. They correspond to
	// roughly 1.0 V down to 0.1 V in clean air.
	MinR0 = 300.0
	MaxR0 = 4000.0
	// DefaultReads is how many ADC reads one measurement averages.
	DefaultReads = 1000
)

var (
	// ErrNoSignal means every ADC read in a measurement was zero.
	ErrNoSignal = errors.New("no signal from sensor")
	// ErrReadFailed wraps an ADC read error.
	ErrReadFailed = errors.New("adc read failed")
	// ErrNotCalibrated means a concentration was asked for without a usable R0.
	ErrNotCalibrated = errors.New("sensor is not calibrated")
)

// ADC reads one raw sample in [0, ADCLevels).
type ADC interface {
	Read() (int, error)
}

// Measurement is one averaged reading.
type Measurement struct {
	// Raw is the average ADC reading.
	Raw   float64
	Volts float64
	// RS is the sensing resistance in ohms.
	RS float64
}

// Option configures an MQ3.
type Option func(*MQ3)

// WithReads sets how many ADC reads a measurement averages.
func WithReads(n int) Option {
	return func(m *MQ3) {
		if n > 0 {
			m.reads = n
		}
	}
}

// MQ3 turns ADC reads into sensing resistance and concentration.
type MQ3 struct {
	adc   ADC
	reads int
}

func NewMQ3(adc ADC, opts ...Option) *MQ3 {
	m := &MQ3{
		adc:   adc,
		reads: DefaultReads,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Measure averages the configured number of reads.
func (m *MQ3) Measure() (Measurement, error) {
	sum := 0

	for range m.reads {
		v, err := m.adc.Read()
		if err != nil {
			return Measurement{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}

		sum += v
	}

	if sum == 0 {
		return Measurement{}, ErrNoSignal
	}

	raw := float64(sum) / float64(m.reads)
	volts := raw / ADCLevels * ReferenceVolts

	return Measurement{
		Raw:   raw,
		Volts: volts,
		RS:    ResistanceFromVolts(volts),
	}, nil
}

// EstimateR0 measures once and returns the clean-air R0 estimate for it.
func (m *MQ3) EstimateR0() (Measurement, float64, error) {
	meas, err := m.Measure()
	if err != nil {
		return Measurement{}, 0, err
	}

	return meas, meas.RS / CleanAirRatio, nil
}

// ResistanceFromVolts solves the voltage divider for the sensing resistance.
func ResistanceFromVolts(volts float64) float64 {
	return ReferenceVolts*LoadResistance/volts - LoadResistance
}

// ValidR0 reports whether r0 is inside the plausible range.
func ValidR0(r0 float64) bool {
	return r0 > MinR0 && r0 < MaxR0
}

// Concentration converts a sensing resistance into mg/L of alcohol using the
// datasheet power law.
func Concentration(rs, r0 float64) (float64, error) {
	if !ValidR0(r0) {
		return 0, fmt.Errorf("%w: R0 = %.2f", ErrNotCalibrated, r0)
	}

	return math.Pow(0.4*rs/r0, -1.431), nil //nolint:mnd
}
