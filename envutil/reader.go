//nolint:ireturn
package envutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	ErrBadEnvVar     = errors.New("error parsing environment variable")
	ErrEnvVarMissing = errors.New("missing environment variable")
)

// Reader is the outcome of reading one variable: the parsed value plus whether
// the variable was set and whether it parsed.
type Reader[A any] struct {
	key     string
	present bool
	err     error

	value A
}

// Value fails with ErrBadEnvVar for a malformed variable and ErrEnvVarMissing
// for an unset one without a default.
func (e Reader[A]) Value() (A, error) {
	switch {
	case e.err != nil:
		return e.value, fmt.Errorf("%w %s: %w (given value is %v)", ErrBadEnvVar, e.key, e.err, e.value)
	case !e.present:
		return e.value, fmt.Errorf("%w %s", ErrEnvVarMissing, e.key)
	default:
		return e.value, nil
	}
}

// ValueOrFatal is Value for process startup: any error is logged and the
// process exits.
func (e Reader[A]) ValueOrFatal() A {
	value, err := e.Value()
	if err != nil {
		slog.Error("error reading environment variable", "key", e.key, "error", err)
		os.Exit(1)
	}

	return value
}

// ValueOrElse falls back to v when the variable is unset or malformed. Only
// the malformed case is logged.
func (e Reader[A]) ValueOrElse(v A) A {
	if e.HasValue() {
		return e.value
	}

	if e.err != nil {
		slog.Warn("error reading environment variable, using fallback value",
			"key", e.key, "value", e.value, "error", e.err, "fallback", v)
	}

	return v
}

func (e Reader[A]) HasValue() bool {
	return e.present && e.err == nil
}

func (e Reader[A]) HasError() bool {
	return e.err != nil
}

func (e Reader[A]) String() string {
	switch {
	case e.err != nil:
		return fmt.Sprintf("%s=<error: %v>", e.key, e.err)
	case !e.present:
		return e.key + "=<not set>"
	default:
		return fmt.Sprintf("%s=%v", e.key, e.value)
	}
}

// WithDefault fills in v for an unset variable. A set but malformed one keeps
// its error.
func (e Reader[A]) WithDefault(v A) Reader[A] {
	if e.present {
		return e
	}

	e.present = true
	e.value = v

	return e
}

// WithErrorIfMissing turns an unset variable into err.
func (e Reader[A]) WithErrorIfMissing(err error) Reader[A] {
	if e.present || e.err != nil {
		return e
	}

	e.err = err

	return e
}

// Map parses or converts the value with f. Unset variables and earlier errors
// pass through without calling f.
func Map[A any, B any](env Reader[A], f func(A) (B, error)) Reader[B] {
	out := Reader[B]{
		key:     env.key,
		present: env.present,
		err:     env.err,
	}

	if !env.HasValue() {
		return out
	}

	out.value, out.err = f(env.value)

	return out
}
