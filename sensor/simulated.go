package sensor

import (
	"math"
	"math/rand/v2"
	"sync"

	"go.uber.org/atomic"
)

// SimulatedADC stands in for the converter on machines without the sensor. Its
// output voltage starts at a cold value and settles exponentially toward a
// warm one as reads accumulate, with uniform noise on top.
type SimulatedADC struct {
	mut     sync.Mutex
	rng     *rand.Rand
	cold    float64
	settled *atomic.Float64
	tau     float64
	noise   float64
	reads   *atomic.Uint64
	fail    *atomic.Bool
}

// NewSimulatedADC returns a converter whose voltage moves from cold to settled
// with time constant tau (in reads). noise is the peak noise, in volts.
func NewSimulatedADC(cold, settled float64, tau uint64, noise float64, seed uint64) *SimulatedADC {
	return &SimulatedADC{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint:gosec
		cold:    cold,
		settled: atomic.NewFloat64(settled),
		tau:     float64(max(tau, 1)),
		noise:   noise,
		reads:   atomic.NewUint64(0),
		fail:    atomic.NewBool(false),
	}
}

// SetSettled moves the voltage the simulation settles toward, for example to
// mimic a breath sample.
func (s *SimulatedADC) SetSettled(volts float64) {
	s.settled.Store(volts)
}

// SetDisconnected makes every read return zero, like a missing sensor.
func (s *SimulatedADC) SetDisconnected(disconnected bool) {
	s.fail.Store(disconnected)
}

// Reads returns the number of reads served.
func (s *SimulatedADC) Reads() uint64 {
	return s.reads.Load()
}

func (s *SimulatedADC) Read() (int, error) {
	n := s.reads.Inc()

	if s.fail.Load() {
		return 0, nil
	}

	settled := s.settled.Load()
	volts := settled + (s.cold-settled)*math.Exp(-float64(n)/s.tau)

	s.mut.Lock()
	volts += (s.rng.Float64()*2 - 1) * s.noise
	s.mut.Unlock()

	return VoltsToCount(volts), nil
}

// VoltsToCount quantizes volts the way the converter would.
func VoltsToCount(volts float64) int {
	count := int(volts / ReferenceVolts * ADCLevels)

	return min(max(count, 0), ADCLevels-1)
}

// FixedADC always returns the same count.
type FixedADC int

func (f FixedADC) Read() (int, error) {
	return int(f), nil
}
