// Package envutil reads typed configuration values from the process environment.
//
// Every reader returns a Reader[T], which carries the key, whether the variable was
// present, any parse error, and the parsed value. Options such as Default and Validate
// are applied in order:
//
//	steps := envutil.Int[int32](ctx, "MQ3_CALIBRATION_STEPS",
//	    envutil.Default[int32](200),
//	    envutil.Validate(positive[int32])).ValueOrFatal()
package envutil

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// get returns a Reader for the given environment variable key. Values set on
// the context with WithEnvOverride win over the process environment.
func get(ctx context.Context, key string) Reader[string] {
	if val, ok := getEnvOverride(ctx, key); ok {
		return Reader[string]{
			key:     key,
			present: true,
			value:   val,
		}
	}

	val, ok := os.LookupEnv(key)

	return Reader[string]{
		key:     key,
		present: ok,
		value:   val,
	}
}

// NewReader returns a Reader for the given raw data. It provides the same
// functionality as the environment readers, except that the caller supplies
// the initial values.
func NewReader[T any](key string, present bool, err error, value T) Reader[T] {
	return Reader[T]{
		key:     key,
		present: present,
		value:   value,
		err:     err,
	}
}

func apply[T any](rdr Reader[T], opts []Option[T]) Reader[T] {
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// String returns a Reader for the given environment variable key.
func String(ctx context.Context, key string, opts ...Option[string]) Reader[string] {
	return apply(get(ctx, key), opts)
}

func Bool(ctx context.Context, key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(get(ctx, key), parseBool), opts)
}

// Int reads a signed integer of any width. Values that overflow the target
// type are reported as parse errors.
func Int[I ~int | ~int8 | ~int16 | ~int32 | ~int64](
	ctx context.Context, key string, opts ...Option[I],
) Reader[I] {
	rdr := Map(get(ctx, key), func(value string) (I, error) {
		var zero I

		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, bitSize(zero))
		if err != nil {
			return zero, err
		}

		return I(parsed), nil
	})

	return apply(rdr, opts)
}

func Float64(ctx context.Context, key string, opts ...Option[float64]) Reader[float64] {
	rdr := Map(get(ctx, key), func(value string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(value), 64)
	})

	return apply(rdr, opts)
}

func Duration(ctx context.Context, key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	rdr := Map(get(ctx, key), func(value string) (time.Duration, error) {
		return time.ParseDuration(strings.TrimSpace(value))
	})

	return apply(rdr, opts)
}

// SlogLevel returns a Reader for the given environment variable key.
func SlogLevel(ctx context.Context, key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	rdr := Map(get(ctx, key), func(value string) (slog.Level, error) {
		var level slog.Level

		err := level.UnmarshalText([]byte(strings.TrimSpace(value)))

		return level, err
	})

	return apply(rdr, opts)
}

func parseBool(value string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(value))
}

func bitSize[I ~int | ~int8 | ~int16 | ~int32 | ~int64](zero I) int {
	return reflect.TypeOf(zero).Bits()
}
