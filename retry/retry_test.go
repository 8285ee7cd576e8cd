package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amp-labs/amp-tfsm/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("database is locked")

func fast() []retry.Option {
	return []retry.Option{
		retry.WithBackoff(retry.ExpBackoff{Base: time.Millisecond, Max: time.Millisecond, Factor: 2}),
		retry.WithJitter(retry.WithoutJitter),
	}
}

func TestDoSucceedsAfterTransientErrors(t *testing.T) {
	t.Parallel()

	var seen []uint

	err := retry.Do(t.Context(), func(ctx context.Context) error {
		seen = append(seen, retry.Attempt(ctx))
		if len(seen) < 3 {
			return errBusy
		}

		return nil
	}, fast()...)

	require.NoError(t, err)
	assert.Equal(t, []uint{0, 1, 2}, seen)
}

func TestDoReturnsLastError(t *testing.T) {
	t.Parallel()

	calls := 0
	retries := 0

	opts := append(fast(), retry.WithAttempts(3), retry.OnRetry(func(_ uint, err error) {
		assert.ErrorIs(t, err, errBusy)
		retries++
	}))

	err := retry.Do(t.Context(), func(context.Context) error {
		calls++

		return errBusy
	}, opts...)

	require.ErrorIs(t, err, errBusy)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestAbortStopsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0

	err := retry.Do(t.Context(), func(context.Context) error {
		calls++

		return retry.Abort(errBusy)
	}, fast()...)

	require.ErrorIs(t, err, errBusy)
	assert.Equal(t, 1, calls)
	assert.NoError(t, retry.Abort(nil))
}

func TestDoStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())

	err := retry.Do(ctx, func(context.Context) error {
		cancel()

		return errBusy
	}, retry.WithAttempts(0))

	require.Error(t, err)
}

func TestDoValue(t *testing.T) {
	t.Parallel()

	calls := 0

	v, err := retry.DoValue(t.Context(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 7, errBusy
		}

		return 42, nil
	}, fast()...)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = retry.DoValue(t.Context(), func(context.Context) (int, error) {
		return 7, retry.Abort(errBusy)
	}, fast()...)
	require.ErrorIs(t, err, errBusy)
	assert.Zero(t, v)
}

func TestExpBackoff(t *testing.T) {
	t.Parallel()

	b := retry.ExpBackoff{Base: 100 * time.Millisecond, Max: time.Second, Factor: 2}

	tests := []struct {
		attempt uint
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{200, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}
