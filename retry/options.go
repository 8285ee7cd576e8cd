package retry

// Attempts caps how many times an operation runs, the first call included.
// Zero means no cap.
type Attempts uint

// Option configures Do and DoValue.
type Option func(*options)

type options struct {
	attempts Attempts
	backoff  Backoff
	jitter   Jitter
	onRetry  func(attempt uint, err error)
}

func newOptions(opts []Option) *options {
	o := &options{
		attempts: defaultAttempts,
		backoff: ExpBackoff{
			Base:   defaultBaseDelay,
			Max:    defaultMaxDelay,
			Factor: defaultBackoffFactor,
		},
		jitter: FullJitter,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func WithAttempts(a Attempts) Option {
	return func(o *options) {
		o.attempts = a
	}
}

func WithBackoff(b Backoff) Option {
	return func(o *options) {
		o.backoff = b
	}
}

func WithJitter(j Jitter) Option {
	return func(o *options) {
		o.jitter = j
	}
}

// OnRetry registers a hook called before each retry with the attempt about to
// run and the error of the previous one.
func OnRetry(f func(attempt uint, err error)) Option {
	return func(o *options) {
		o.onRetry = f
	}
}
