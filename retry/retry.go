// Package retry re-runs operations that fail transiently, waiting an
// exponentially growing, jittered delay between attempts.
//
//	rec, err := retry.DoValue(ctx, func(ctx context.Context) (calibstore.Record, error) {
//	    return store.Save(ctx, rec)
//	}, retry.WithAttempts(3))
//
// An operation stops the loop early by returning an error wrapped with Abort.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	defaultAttempts      = 4
	defaultBaseDelay     = 100 * time.Millisecond
	defaultMaxDelay      = 2 * time.Second
	defaultBackoffFactor = 2.0
)

// Do calls f until it succeeds, returns an aborting error, the attempts run
// out or ctx is done. It returns the last error f produced.
func Do(ctx context.Context, f func(ctx context.Context) error, opts ...Option) error {
	o := newOptions(opts)

	var err error

	for attempt := uint(0); o.attempts == 0 || attempt < uint(o.attempts); attempt++ {
		if attempt > 0 {
			if o.onRetry != nil {
				o.onRetry(attempt, err)
			}

			timer := time.NewTimer(o.jitter.apply(o.backoff.Delay(attempt - 1)))

			select {
			case <-ctx.Done():
				timer.Stop()

				return ctx.Err()
			case <-timer.C:
			}
		}

		err = f(withAttempt(ctx, attempt))
		if err == nil {
			return nil
		}

		var abort *abortError
		if errors.As(err, &abort) {
			return abort.err
		}

		if ctx.Err() != nil {
			return err
		}
	}

	return err
}

// DoValue is Do for operations that produce a value. On failure it returns the
// zero value.
func DoValue[T any](ctx context.Context, f func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var out T

	err := Do(ctx, func(ctx context.Context) error {
		var err error

		out, err = f(ctx)

		return err
	}, opts...)
	if err != nil {
		var zero T

		return zero, err
	}

	return out, nil
}
