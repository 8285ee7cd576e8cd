package tfsm

import (
	"context"
	"log/slog"

	"github.com/amp-labs/amp-tfsm/logger"
)

// Logger provides logging hooks for engine activity.
type Logger interface {
	StateEntered(ctx context.Context, machine string, index int, state string, arg Argument)
	TransitionExecuted(ctx context.Context, machine, from, to string, alternate bool)
	DelayElapsed(ctx context.Context, machine, state string)
	ReentrantRun(ctx context.Context, machine, state string)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a Logger writing to l. A nil l logs through the
// context-scoped logger from the logger package.
func NewDefaultLogger(l *slog.Logger) *DefaultLogger {
	return &DefaultLogger{
		logger: l,
	}
}

func (l *DefaultLogger) get(ctx context.Context, machine string) *slog.Logger {
	if l.logger != nil {
		return l.logger.With("machine", machine)
	}

	return logger.Get(logger.WithMachine(ctx, machine))
}

func (l *DefaultLogger) StateEntered(ctx context.Context, machine string, index int, state string, arg Argument) {
	fields := []any{
		"state", state,
		"index", index,
	}

	if !arg.IsEmpty() {
		fields = append(fields,
			"argument", arg.String(),
			"argument_kind", arg.Kind().String(),
		)
	}

	l.get(ctx, machine).DebugContext(ctx, "State entered", fields...)
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, machine, from, to string, alternate bool) {
	fields := []any{
		"from", from,
		"to", to,
		"alternate", alternate,
	}

	l.get(ctx, machine).InfoContext(ctx, "Transition executed", append(fields, traceFields(ctx)...)...)
}

func (l *DefaultLogger) DelayElapsed(ctx context.Context, machine, state string) {
	l.get(ctx, machine).DebugContext(ctx, "Delay callback fired", "state", state)
}

func (l *DefaultLogger) ReentrantRun(ctx context.Context, machine, state string) {
	l.get(ctx, machine).WarnContext(ctx, "Run called from inside a callback, ignoring", "state", state)
}
