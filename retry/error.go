package retry

import "context"

type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }

func (e *abortError) Unwrap() error { return e.err }

// Abort marks err as permanent: Do returns it unwrapped without retrying.
func Abort(err error) error {
	if err == nil {
		return nil
	}

	return &abortError{err: err}
}

type ctxKey string

const attemptKey ctxKey = "attempt"

func withAttempt(ctx context.Context, attempt uint) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// Attempt reports which attempt ctx belongs to, starting at 0.
func Attempt(ctx context.Context) uint {
	n, _ := ctx.Value(attemptKey).(uint)

	return n
}
