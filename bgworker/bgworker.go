// Package bgworker runs blocking side effects (disk writes, network calls) off
// the state machine's run path.
package bgworker

import (
	"context"
	"log/slog"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-tfsm/envutil"
	"github.com/amp-labs/amp-tfsm/shutdown"
)

const defaultWorkerCount = 2

// Pool is a bounded background worker pool.
type Pool struct {
	name string
	pool pond.Pool
}

// New creates a pool sized by BACKGROUND_WORKER_COUNT.
func New(ctx context.Context, name string) *Pool {
	count := envutil.Int[int](ctx, "BACKGROUND_WORKER_COUNT",
		envutil.Default(defaultWorkerCount)).ValueOrElse(defaultWorkerCount)

	return NewWithSize(name, count)
}

// NewWithSize creates a pool with a fixed number of workers.
func NewWithSize(name string, count int) *Pool {
	if count < 1 {
		count = 1
	}

	slog.Debug("Initializing background worker pool", "pool", name, "count", count)

	return &Pool{
		name: name,
		pool: pond.NewPool(count),
	}
}

// StopOnShutdown registers the pool with the shutdown hooks so queued work is
// drained before the process exits.
func (p *Pool) StopOnShutdown() *Pool {
	shutdown.BeforeShutdown("bgworker:"+p.name, p.StopAndWait)

	return p
}

// Submit submits a function to the pool. The returned Task can be waited on.
func (p *Pool) Submit(f func()) pond.Task { //nolint:ireturn
	return p.pool.Submit(f)
}

// Go submits a function to the pool and returns immediately. It returns an
// error if the pool is stopped.
func (p *Pool) Go(f func()) error {
	return p.pool.Go(f)
}

// Waiting returns the number of queued tasks.
func (p *Pool) Waiting() uint64 {
	return p.pool.WaitingTasks()
}

// StopAndWait stops accepting work and waits for queued tasks to finish.
func (p *Pool) StopAndWait() {
	if p.pool.Stopped() {
		return
	}

	slog.Debug("Stopping background worker pool", "pool", p.name)
	p.pool.StopAndWait()
	slog.Debug("Background worker pool stopped", "pool", p.name)
}
