package async

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"
)

// ErrPoolSaturated is returned by TryRun when every worker slot is taken.
var ErrPoolSaturated = errors.New("worker pool saturated")

var (
	poolInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "async_pool_in_flight",
		Help: "The number of tasks currently holding a worker pool slot.",
	})
	poolRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "async_pool_rejected_total",
		Help: "The number of droppable tasks rejected because the worker pool was saturated.",
	})
)

// Pool bounds how many expensive tasks (state transitions, signature batches, head
// recomputation) run at the same time. Tasks run on the calling goroutine once they hold
// a slot, so callers keep their own ordering and error handling.
type Pool struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight int64
}

// NewPool returns a pool with size slots. A size below one is treated as one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Run waits for a free slot and runs f. It returns the context error, without running f,
// if ctx is done before a slot frees up.
func (p *Pool) Run(ctx context.Context, f func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	return p.run(ctx, f)
}

// TryRun runs f only if a slot is free right now. Otherwise it returns ErrPoolSaturated
// and f is never called.
func (p *Pool) TryRun(ctx context.Context, f func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.sem.TryAcquire(1) {
		poolRejected.Inc()
		return ErrPoolSaturated
	}
	return p.run(ctx, f)
}

func (p *Pool) run(ctx context.Context, f func(context.Context) error) error {
	atomic.AddInt64(&p.inFlight, 1)
	poolInFlight.Inc()
	defer func() {
		atomic.AddInt64(&p.inFlight, -1)
		poolInFlight.Dec()
		p.sem.Release(1)
	}()
	return f(ctx)
}

// InFlight returns the number of tasks currently running.
func (p *Pool) InFlight() int {
	return int(atomic.LoadInt64(&p.inFlight))
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return int(p.size)
}
