package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the wait before retry number attempt (zero-indexed).
type Backoff interface {
	Delay(attempt uint) time.Duration
}

// ExpBackoff waits Base * Factor^attempt, clamped to [Base, Max].
//
//	retry.ExpBackoff{Base: 100 * time.Millisecond, Max: time.Second, Factor: 2}
//	// 100ms, 200ms, 400ms, 800ms, 1s, 1s, ...
type ExpBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

func (b ExpBackoff) Delay(attempt uint) time.Duration {
	f := float64(b.Base) * math.Pow(b.Factor, float64(attempt))

	if f > float64(b.Max) {
		return max(b.Max, b.Base)
	}

	return max(time.Duration(f), b.Base)
}

// Jitter is the share of each delay that is randomized: 0 keeps delays exact,
// 1 picks uniformly from [0, delay). Negative values disable jitter.
type Jitter float64

const (
	FullJitter    Jitter = 1.0
	EqualJitter   Jitter = 0.5
	WithoutJitter Jitter = -1.0
)

func (j Jitter) apply(d time.Duration) time.Duration {
	if j <= 0 || d <= 0 {
		return d
	}

	r := rand.Float64() * float64(d) //nolint:gosec

	if j < 1 {
		r = float64(j)*r + float64(1-j)*float64(d)
	}

	return time.Duration(r)
}
