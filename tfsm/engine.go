// Package tfsm implements a cooperative, table-driven timed state machine.
//
// An Engine owns a copy of a state table and advances it one step per Run call.
// Each state invokes its action once per remaining step, then waits out an
// optional delay, then moves to its primary successor, or to its alternate
// successor if an action asked for it. The engine never sleeps: whoever drives
// Run is expected to wait CyclePeriod between calls.
//
// An Engine is not safe for concurrent use. Callbacks run on the goroutine that
// called Run and may call the mutators (ForceTransition, SetDelay and friends),
// but a nested Run is ignored.
package tfsm

import (
	"context"
	"time"
)

// Option configures an Engine.
type Option func(*Engine)

// WithName labels the engine in logs, metrics and spans.
func WithName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// WithMaxCyclePeriod sets the cap applied to every state's CyclePeriod.
// Non-positive values keep the default.
func WithMaxCyclePeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.maxCyclePeriod = d
		}
	}
}

// WithLogger replaces the default slog-backed Logger.
func WithLogger(logger Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine runs a state table.
type Engine struct {
	name           string
	maxCyclePeriod time.Duration
	logger         Logger

	table []State

	current     int
	active      State
	alternate   bool
	held        Argument
	heldPending bool
	running     bool
}

// New validates table, copies it and enters its first row.
func New(table []State, opts ...Option) (*Engine, error) {
	engine := &Engine{
		name:           "tfsm",
		maxCyclePeriod: DefaultMaxCyclePeriod,
		logger:         NewDefaultLogger(nil),
	}

	for _, opt := range opts {
		opt(engine)
	}

	if err := validateTable(table); err != nil {
		return nil, err
	}

	engine.table = make([]State, len(table))
	copy(engine.table, table)

	for i := range engine.table {
		if engine.table[i].CyclePeriod > engine.maxCyclePeriod {
			engine.table[i].CyclePeriod = engine.maxCyclePeriod
		}
	}

	engine.current = 0
	engine.active = engine.table[0]
	engine.alternate = false

	activeState.WithLabelValues(engine.name).Set(0)

	return engine, nil
}

func validateTable(table []State) error {
	if len(table) == 0 {
		return ErrEmptyTable
	}

	for i, st := range table {
		switch {
		case st.Steps < 1:
			return wrapStateError(i, st.Name, ErrInvalidSteps)
		case st.Delay < 0:
			return wrapStateError(i, st.Name, ErrInvalidDelay)
		case st.CyclePeriod < 0:
			return wrapStateError(i, st.Name, ErrInvalidCyclePeriod)
		case st.Primary < 0 || st.Primary >= len(table):
			return wrapStateError(i, st.Name, ErrSuccessorOutOfRange)
		case st.Alternate < 0 || st.Alternate >= len(table):
			return wrapStateError(i, st.Name, ErrSuccessorOutOfRange)
		}
	}

	return nil
}

// Run advances the machine by one step.
func (e *Engine) Run() {
	e.RunContext(context.Background())
}

// RunContext is Run with a context for logging and tracing. The context is
// not used for cancellation; Run never blocks on its own.
func (e *Engine) RunContext(ctx context.Context) {
	if e.running {
		reentrantRuns.WithLabelValues(e.name).Inc()
		e.logger.ReentrantRun(ctx, e.name, e.active.Name)

		return
	}

	e.running = true
	defer func() { e.running = false }()

	switch {
	case e.active.Steps > 0:
		runsTotal.WithLabelValues(e.name, phaseStep).Inc()
		e.step()
	case e.active.Delay > 0:
		runsTotal.WithLabelValues(e.name, phaseDelay).Inc()

		e.active.Delay--
		if e.active.Delay == 0 && e.active.OnDelay != nil {
			e.fireDelay(ctx, triggerElapsed)
		}
	default:
		runsTotal.WithLabelValues(e.name, phaseTransition).Inc()
		e.transition(ctx)
	}
}

func (e *Engine) step() {
	invoke(e.active.Action, e.active.Argument)

	// A forced transition inside the action already zeroed the counter.
	if e.active.Steps > 0 {
		e.active.Steps--
	}
}

func (e *Engine) fireDelay(ctx context.Context, trigger string) {
	cb := e.active.OnDelay
	e.active.OnDelay = nil

	delayCallbacks.WithLabelValues(e.name, e.active.Name, trigger).Inc()
	e.logger.DelayElapsed(ctx, e.name, e.active.Name)

	cb.Call(e.active.Argument)
}

func (e *Engine) transition(ctx context.Context) {
	from := e.active.Name
	alternate := e.alternate

	next := e.active.Primary
	if alternate {
		next = e.active.Alternate
	}

	ctx, span := startTransitionSpan(ctx, e.name, from, e.table[next].Name, alternate)
	defer span.End()

	if e.active.OnDelay != nil {
		e.fireDelay(ctx, triggerFlush)
	}

	e.enter(next)

	branch := branchPrimary
	if alternate {
		branch = branchAlternate
	}

	transitionsTotal.WithLabelValues(e.name, from, e.active.Name, branch).Inc()
	activeState.WithLabelValues(e.name).Set(float64(next))
	e.logger.TransitionExecuted(ctx, e.name, from, e.active.Name, alternate)
	e.logger.StateEntered(ctx, e.name, next, e.active.Name, e.active.Argument)

	e.step()
}

func (e *Engine) enter(index int) {
	e.current = index
	e.active = e.table[index]
	e.alternate = false

	if e.active.Argument.IsEmpty() && e.heldPending {
		e.active.Argument = e.held
		e.heldPending = false
	}
}

// Name returns the engine label.
func (e *Engine) Name() string {
	return e.name
}

// Table returns a copy of the engine's state table, with clamped cycle periods.
func (e *Engine) Table() []State {
	out := make([]State, len(e.table))
	copy(out, e.table)

	return out
}

// CyclePeriod is how long the driver should wait before the next Run.
func (e *Engine) CyclePeriod() time.Duration {
	return e.active.CyclePeriod
}

// RemainingSteps returns the active state's step counter.
func (e *Engine) RemainingSteps() int32 {
	return e.active.Steps
}

// RemainingDelay returns the active state's delay counter.
func (e *Engine) RemainingDelay() int32 {
	return e.active.Delay
}

// Current returns the table index of the active state.
func (e *Engine) Current() int {
	return e.current
}

// CurrentName returns the name of the active state.
func (e *Engine) CurrentName() string {
	return e.active.Name
}

// CurrentArgument returns the argument the active state's callbacks receive.
func (e *Engine) CurrentArgument() Argument {
	return e.active.Argument
}

// AlternateRequested reports whether the next transition will take the
// alternate successor.
func (e *Engine) AlternateRequested() bool {
	return e.alternate
}

// RequestAlternateTransition makes the next transition pick the alternate
// successor. The request is dropped when a new state is entered.
func (e *Engine) RequestAlternateTransition() {
	e.alternate = true
}

// ForceTransition zeroes the step counter so the next Run goes straight to
// delay and transition handling.
func (e *Engine) ForceTransition() {
	e.active.Steps = 0
}

// SetDelay overrides the active state's delay. Non-positive values are ignored.
func (e *Engine) SetDelay(delay int32) {
	if delay > 0 {
		e.active.Delay = delay
	}
}

// SetHeldArgument copies b into the engine's held buffer. The next state
// entered with an empty argument slot receives it, once. Empty or oversized
// payloads are rejected and leave the buffer untouched.
func (e *Engine) SetHeldArgument(b []byte) bool {
	arg, ok := OwnedArgument(b)
	if !ok {
		return false
	}

	e.held = arg
	e.heldPending = true

	return true
}

// SetAll applies argument, alternate request, delay and force, in that order.
func (e *Engine) SetAll(req SetAllRequest) {
	if len(req.Argument) > 0 {
		e.SetHeldArgument(req.Argument)
	}

	if req.Alternate {
		e.RequestAlternateTransition()
	}

	e.SetDelay(req.Delay)

	if req.Force {
		e.ForceTransition()
	}
}
