// Package poller drives a timed state machine from a ticker. It is the only
// place that knows about wall-clock time: on every tick it checks whether the
// active state's cycle period has elapsed and, if so, calls Run once.
package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/amp-labs/amp-tfsm/logger"
	"go.uber.org/atomic"
)

const (
	DefaultResolution = 10 * time.Millisecond
	// DefaultWatchdog mirrors the hardware watchdog of the sensor board: a gap
	// between runs longer than this is reported as a stall.
	DefaultWatchdog = 8 * time.Second
)

// Machine is what the poller drives. *tfsm.Engine implements it.
type Machine interface {
	RunContext(ctx context.Context)
	CyclePeriod() time.Duration
	CurrentName() string
}

// Option configures a Poller.
type Option func(*Poller)

// WithResolution sets the ticker interval.
func WithResolution(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.resolution = d
		}
	}
}

// WithWatchdog sets the stall threshold. Zero disables stall detection.
func WithWatchdog(d time.Duration) Option {
	return func(p *Poller) {
		p.watchdog = d
	}
}

// WithTickLogging enables a debug record for every run. It is off by default;
// the records are discarded through a muted logger context.
func WithTickLogging(enabled bool) Option {
	return func(p *Poller) {
		p.tickLogging = enabled
	}
}

// WithClock replaces time.Now, for tests. Run reads it on every tick and Step
// uses it to time each run.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

func WithName(name string) Option {
	return func(p *Poller) {
		p.name = name
	}
}

// Poller calls Machine.RunContext no more often than once per cycle period.
// Step and Run must be called from one goroutine; the counters may be read
// from any.
type Poller struct {
	machine    Machine
	name       string
	resolution time.Duration
	watchdog   time.Duration
	now        func() time.Time

	tickLogging bool

	started bool
	last    time.Time

	runs    *atomic.Uint64
	stalls  *atomic.Uint64
	lastRun *atomic.Time
}

func New(machine Machine, opts ...Option) *Poller {
	p := &Poller{
		machine:    machine,
		name:       "poller",
		resolution: DefaultResolution,
		watchdog:   DefaultWatchdog,
		now:        time.Now,
		runs:       atomic.NewUint64(0),
		stalls:     atomic.NewUint64(0),
		lastRun:    atomic.NewTime(time.Time{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Step runs the machine if its cycle period has elapsed since the previous
// run, and reports whether it did. The first Step always runs.
func (p *Poller) Step(ctx context.Context, now time.Time) bool {
	cycle := p.machine.CyclePeriod()

	if p.started {
		elapsed := now.Sub(p.last)
		if elapsed <= cycle {
			return false
		}

		if p.watchdog > 0 && elapsed > p.watchdog {
			p.stalls.Inc()
			watchdogStalls.WithLabelValues(p.name).Inc()
			logger.Get(ctx).Error("Machine was not run within the watchdog period",
				"poller", p.name,
				"state", p.machine.CurrentName(),
				"elapsed", elapsed,
				"watchdog", p.watchdog)
		}
	}

	p.started = true
	p.last = now

	start := p.now()
	p.machine.RunContext(ctx)
	took := p.now().Sub(start)

	p.runs.Inc()
	p.lastRun.Store(now)

	runsTotal.WithLabelValues(p.name).Inc()
	runDuration.WithLabelValues(p.name).Observe(took.Seconds())
	cyclePeriod.WithLabelValues(p.name).Set(p.machine.CyclePeriod().Seconds())

	p.tickLogger(ctx).Debug("Ran machine",
		"poller", p.name,
		"state", p.machine.CurrentName(),
		"took", took)

	switch {
	case p.watchdog > 0 && took > p.watchdog:
		p.stalls.Inc()
		watchdogStalls.WithLabelValues(p.name).Inc()
		logger.Get(ctx).Error("Run took longer than the watchdog period",
			"poller", p.name,
			"state", p.machine.CurrentName(),
			"took", took,
			"watchdog", p.watchdog)
	case cycle > 0 && took > cycle:
		logger.Get(ctx).Warn("Run took longer than the cycle period",
			"poller", p.name,
			"state", p.machine.CurrentName(),
			"took", took,
			"cycle", cycle)
	}

	return true
}

func (p *Poller) tickLogger(ctx context.Context) *slog.Logger {
	return logger.Get(logger.WithMuted(ctx, !p.tickLogging))
}

// Run ticks until ctx is done. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.resolution)
	defer ticker.Stop()

	logger.Get(ctx).Info("Poller started", "poller", p.name, "resolution", p.resolution)

	p.Step(ctx, p.now())

	for {
		select {
		case <-ctx.Done():
			logger.Get(ctx).Info("Poller stopped", "poller", p.name, "runs", p.runs.Load())

			return nil
		case <-ticker.C:
			p.Step(ctx, p.now())
		}
	}
}

// Runs returns how many times the machine was run.
func (p *Poller) Runs() uint64 {
	return p.runs.Load()
}

// Stalls returns how many watchdog stalls were seen.
func (p *Poller) Stalls() uint64 {
	return p.stalls.Load()
}

// LastRun returns the clock reading of the latest run, zero before the first.
func (p *Poller) LastRun() time.Time {
	return p.lastRun.Load()
}
