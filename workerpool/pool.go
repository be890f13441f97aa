package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bundaberg-joey/amiscreen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Descriptor is the unopened description of a pool: how many workers, and
// how to build each one. Opening it is the scoped-resource entry point
// (spec §4.4 Lifecycle): constructing ncpus workers up front and handing
// back a live Pool.
type Descriptor struct {
	NCPUs   int
	Factory WorkerFactory
}

// ErrNoWorkers is returned by Open when NCPUs is not positive.
var ErrNoWorkers = fmt.Errorf("workerpool: ncpus must be > 0")

// Open constructs NCPUs workers via the factory and returns a live Pool.
// Closing the returned Pool drains all in-flight jobs before returning.
func (d Descriptor) Open(ctx context.Context) (*Pool, error) {
	if d.NCPUs <= 0 {
		return nil, ErrNoWorkers
	}

	idle := make([]Worker, 0, d.NCPUs)
	for i := 0; i < d.NCPUs; i++ {
		w, err := d.Factory.NewWorker()
		if err != nil {
			return nil, fmt.Errorf("workerpool: building worker %d: %w", i, err)
		}
		idle = append(idle, w)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	return &Pool{
		sem:      semaphore.NewWeighted(int64(d.NCPUs)),
		idle:     idle,
		group:    group,
		groupCtx: groupCtx,
		stats:    newPoolStats(),
	}, nil
}

// Pool is the opened, running form of a Descriptor. It enforces the
// slot discipline described in spec §4.4: at most NCPUs jobs run
// concurrently, submission blocks until a slot is free, and a completed
// handle's slot is not reusable until explicitly Released.
type Pool struct {
	sem      *semaphore.Weighted
	group    *errgroup.Group
	groupCtx context.Context

	mu   sync.Mutex
	idle []Worker

	stats *PoolStats
}

func (p *Pool) acquireWorker(ctx context.Context) (Worker, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.idle)
	w := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return w, nil
}

// SubmitTruth claims a worker slot, blocking until one is idle, and runs
// the calculator job on it. The pool itself never fails a submission once
// opened with NCPUs > 0; a failing job surfaces its error on the returned
// Handle instead.
func (p *Pool) SubmitTruth(ctx context.Context, params ami.SerializedOpaque) (*Handle[ami.SerializedOpaque], error) {
	w, err := p.acquireWorker(ctx)
	if err != nil {
		return nil, err
	}

	h := newHandle[ami.SerializedOpaque](w)
	p.group.Go(func() error {
		start := time.Now()
		value, jobErr := w.CalculateTruth(params)
		p.stats.record(time.Since(start))
		h.finish(value, jobErr)
		return nil
	})
	return h, nil
}

// SubmitFitAndRank claims a worker slot and runs a fit-and-rank job on it,
// with the same slot discipline as SubmitTruth.
func (p *Pool) SubmitFitAndRank(ctx context.Context, input ami.SurrogateInput) (*Handle[ami.Option[[]ami.LocalIndex]], error) {
	w, err := p.acquireWorker(ctx)
	if err != nil {
		return nil, err
	}

	h := newHandle[ami.Option[[]ami.LocalIndex]](w)
	p.group.Go(func() error {
		start := time.Now()
		value, jobErr := w.FitAndRank(input)
		p.stats.record(time.Since(start))
		h.finish(value, jobErr)
		return nil
	})
	return h, nil
}

// Release returns a completed handle's worker to the idle pool, freeing its
// slot for reuse. The caller (the runner's report()) must not call Release
// until the handle has been observed as done.
func Release[T any](p *Pool, h *Handle[T]) {
	p.mu.Lock()
	p.idle = append(p.idle, h.worker)
	p.mu.Unlock()
	p.sem.Release(1)
}

// Stats returns the pool's running job telemetry.
func (p *Pool) Stats() *PoolStats {
	return p.stats
}

// Close waits for every in-flight job to finish, then closes every worker in
// the idle set; workers whose handles were never Released are not closed.
// A job that returns an error does not skip the drain: group.Wait always
// runs to completion since job goroutines never return a non-nil error
// themselves, only record it on their Handle. A job that panics is not
// recovered; the panic ends the process.
func (p *Pool) Close() error {
	if err := p.group.Wait(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, w := range p.idle {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
