package poller

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/amp-labs/amp-tfsm/tfsm"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type fakeMachine struct {
	cycle *atomic.Duration
	runs  *atomic.Int64
	onRun func()
}

func newFakeMachine(cycle time.Duration) *fakeMachine {
	return &fakeMachine{
		cycle: atomic.NewDuration(cycle),
		runs:  atomic.NewInt64(0),
	}
}

func (m *fakeMachine) RunContext(context.Context) {
	m.runs.Inc()

	if m.onRun != nil {
		m.onRun()
	}
}

func (m *fakeMachine) CyclePeriod() time.Duration {
	return m.cycle.Load()
}

func (m *fakeMachine) CurrentName() string {
	return "FAKE"
}

func TestStepHonorsCyclePeriod(t *testing.T) {
	t.Parallel()

	machine := newFakeMachine(time.Second)
	p := New(machine, WithName(t.Name()))
	base := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	assert.True(t, p.Step(t.Context(), base), "first step always runs")
	assert.False(t, p.Step(t.Context(), base.Add(500*time.Millisecond)))
	assert.False(t, p.Step(t.Context(), base.Add(time.Second)), "elapsed must exceed the cycle")
	assert.True(t, p.Step(t.Context(), base.Add(time.Second+time.Millisecond)))

	machine.cycle.Store(0)
	assert.True(t, p.Step(t.Context(), base.Add(time.Second+2*time.Millisecond)))

	assert.Equal(t, int64(3), machine.runs.Load())
	assert.Equal(t, uint64(3), p.Runs())
	assert.Equal(t, base.Add(time.Second+2*time.Millisecond), p.LastRun())
	assert.InDelta(t, 3.0, testutil.ToFloat64(runsTotal.WithLabelValues(t.Name())), 0)
}

func TestWatchdogStall(t *testing.T) {
	t.Parallel()

	machine := newFakeMachine(time.Second)
	p := New(machine, WithName(t.Name()), WithWatchdog(8*time.Second))
	base := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	p.Step(t.Context(), base)
	p.Step(t.Context(), base.Add(2*time.Second))
	assert.Equal(t, uint64(0), p.Stalls())

	p.Step(t.Context(), base.Add(20*time.Second))
	assert.Equal(t, uint64(1), p.Stalls())
	assert.InDelta(t, 1.0, testutil.ToFloat64(watchdogStalls.WithLabelValues(t.Name())), 0)

	disabled := New(newFakeMachine(time.Second), WithName(t.Name()+"-off"), WithWatchdog(0))
	disabled.Step(t.Context(), base)
	disabled.Step(t.Context(), base.Add(time.Hour))
	assert.Equal(t, uint64(0), disabled.Stalls())
}

func TestSlowRunCountsAsStall(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	clock := atomic.NewTime(base)
	runTime := atomic.NewDuration(time.Millisecond)

	machine := newFakeMachine(time.Second)
	machine.onRun = func() {
		clock.Store(clock.Load().Add(runTime.Load()))
	}

	p := New(machine,
		WithName(t.Name()),
		WithWatchdog(8*time.Second),
		WithClock(clock.Load))

	require.True(t, p.Step(t.Context(), base))
	assert.Equal(t, uint64(0), p.Stalls())

	runTime.Store(9 * time.Second)
	require.True(t, p.Step(t.Context(), base.Add(2*time.Second)))
	assert.Equal(t, uint64(1), p.Stalls())
	assert.InDelta(t, 1.0, testutil.ToFloat64(watchdogStalls.WithLabelValues(t.Name())), 0)

	// Slower than the cycle but inside the watchdog only warns.
	runTime.Store(2 * time.Second)
	require.True(t, p.Step(t.Context(), base.Add(4*time.Second)))
	assert.Equal(t, uint64(1), p.Stalls())
}

func TestTickLoggerIsMutedByDefault(t *testing.T) {
	t.Parallel()

	quiet := New(newFakeMachine(0), WithName(t.Name()))
	assert.False(t, quiet.tickLogger(t.Context()).Enabled(t.Context(), slog.LevelError))

	verbose := New(newFakeMachine(0), WithName(t.Name()+"-verbose"), WithTickLogging(true))
	assert.True(t, verbose.tickLogger(t.Context()).Enabled(t.Context(), slog.LevelError))
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	machine := newFakeMachine(0)
	p := New(machine, WithName(t.Name()), WithResolution(time.Millisecond))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- p.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return machine.runs.Load() >= 3
	}, 5*time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	assert.GreaterOrEqual(t, p.Runs(), uint64(3))
}

func TestDrivesEngine(t *testing.T) {
	t.Parallel()

	engine, err := tfsm.New([]tfsm.State{
		{Name: "A", CyclePeriod: time.Second, Steps: 2, Primary: 1, Alternate: 1},
		{Name: "B", CyclePeriod: 3 * time.Second, Steps: 1, Primary: 1, Alternate: 1},
	}, tfsm.WithName(t.Name()))
	require.NoError(t, err)

	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	p := New(engine, WithName(t.Name()), WithWatchdog(0))

	// Tick every 100ms for ten seconds of simulated time.
	for range 100 {
		p.Step(t.Context(), now)
		now = now.Add(100 * time.Millisecond)
	}

	assert.Equal(t, "B", engine.CurrentName())
	// A runs at 0s, 1.1s and 2.2s (transition into B), then B every 3.1s.
	assert.Equal(t, uint64(5), p.Runs())
}
