// Package runner implements the event loop (spec §4.6, C7): a single
// coordinator that keeps up to ncpus jobs in flight across the worker pool,
// draining completions via wait_any and refilling the in-flight set one job
// at a time.
package runner

import (
	"context"
	"fmt"
	"log"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/scheduler"
	"github.com/bundaberg-joey/amiscreen/workerpool"
)

// Runner binds a Scheduler to a worker pool descriptor. The pool is opened
// for the duration of Run and closed on return, draining any in-flight jobs
// (spec §4.4 Lifecycle).
type Runner struct {
	scheduler    *scheduler.Scheduler
	descriptor   workerpool.Descriptor
	decodeTarget TargetDecoder
}

// New binds a scheduler, an unopened pool descriptor, and the target
// decoder a truth job's raw result must be run through before it can be
// recorded.
func New(sched *scheduler.Scheduler, descriptor workerpool.Descriptor, decodeTarget TargetDecoder) *Runner {
	return &Runner{scheduler: sched, descriptor: descriptor, decodeTarget: decodeTarget}
}

// loopContext is the Go analogue of the Python source's
// RunnerContextHelper: it owns the handle→index bookkeeping and the single
// pending-ranking guard, so Run itself is just the wait_any drive loop.
type loopContext struct {
	counter int
	pool    *workerpool.Pool
	sched   *scheduler.Scheduler
	decode  TargetDecoder

	truthIndex map[*workerpool.Handle[ami.SerializedOpaque]]ami.Index

	rankPending      bool
	pendingRankLocal []ami.Index
	rankHandle       *workerpool.Handle[ami.Option[[]ami.LocalIndex]]
}

// schedule submits the next job per spec §4.6.1, returning nil when it
// submits nothing: counter has reached zero (whether or not a ranking
// submission is outstanding), or the ranked queue has run dry.
func (c *loopContext) schedule(ctx context.Context) (workerpool.Completer, error) {
	if c.counter <= 0 && !c.rankPending {
		return nil, nil
	}

	// Single-ranking-in-flight rule: only consider a new ranking
	// submission when none is already outstanding.
	if !c.rankPending && c.sched.NeedsNewRanking() {
		global, input := c.sched.RankerInputs()
		h, err := c.pool.SubmitFitAndRank(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("runner: submitting fit-and-rank: %w", err)
		}
		c.pendingRankLocal = global
		c.rankPending = true
		c.rankHandle = h
		// A ranking submission never consumes the truth counter.
		return h, nil
	}

	if c.counter > 0 {
		i, err := c.sched.Next()
		if err == scheduler.ErrExhausted {
			// Fewer candidates than the requested counter: nothing left
			// to dispatch, which is a normal (if unusual) way to run dry
			// rather than a configuration error.
			c.counter = 0
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("runner: advancing schedule: %w", err)
		}
		params, err := c.sched.Parameters(i)
		if err != nil {
			return nil, fmt.Errorf("runner: fetching parameters for index %d: %w", i, err)
		}
		h, err := c.pool.SubmitTruth(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("runner: submitting truth job: %w", err)
		}
		c.truthIndex[h] = i
		c.counter--
		return h, nil
	}

	return nil, nil
}

// report observes a completed handle's outcome, releases its worker slot,
// and applies its effect to the scheduler (spec §4.6.2).
func (c *loopContext) report(h workerpool.Completer) error {
	switch handle := h.(type) {
	case *workerpool.Handle[ami.SerializedOpaque]:
		i, ok := c.truthIndex[handle]
		if !ok {
			return fmt.Errorf("runner: report called on an unregistered truth handle")
		}
		delete(c.truthIndex, handle)

		result, jobErr := handle.Result()
		workerpool.Release(c.pool, handle)

		value := ami.None[ami.Target]()
		if jobErr != nil {
			log.Printf("runner: truth job for index %d failed: %v", i, jobErr)
		} else if target, decodeErr := c.decode(result); decodeErr != nil {
			log.Printf("runner: truth job for index %d produced an undecodable result: %v", i, decodeErr)
		} else {
			value = ami.Some(target)
		}
		return c.sched.SetResult(i, value)

	case *workerpool.Handle[ami.Option[[]ami.LocalIndex]]:
		if handle != c.rankHandle {
			return fmt.Errorf("runner: report called on an unregistered rank handle")
		}

		localRanks, jobErr := handle.Result()
		workerpool.Release(c.pool, handle)
		if jobErr != nil {
			log.Printf("runner: fit-and-rank job failed: %v", jobErr)
			localRanks = ami.None[[]ami.LocalIndex]()
		}

		local, ok := localRanks.Get()
		if !ok {
			c.sched.SetRanks(ami.None[[]ami.Index]())
		} else {
			global := make([]ami.Index, len(local))
			for pos, l := range local {
				global[pos] = c.pendingRankLocal[l]
			}
			c.sched.SetRanks(ami.Some(global))
		}
		c.pendingRankLocal = nil
		c.rankHandle = nil
		c.rankPending = false
		return nil

	default:
		return fmt.Errorf("runner: report called on an unrecognised handle type %T", h)
	}
}

// Run drives the event loop described in spec §4.6: it opens the pool
// scope, seeds up to min(ncpus, counter) jobs, then alternates wait_any and
// report/schedule until the in-flight set drains. It terminates when
// counter truth jobs have been dispatched, every ranking they triggered has
// been observed, and all resulting truth dispatches have themselves
// completed.
func (r *Runner) Run(ctx context.Context, counter int) error {
	pool, err := r.descriptor.Open(ctx)
	if err != nil {
		return fmt.Errorf("runner: opening worker pool: %w", err)
	}
	defer func() {
		if closeErr := pool.Close(); closeErr != nil {
			log.Printf("runner: closing worker pool: %v", closeErr)
		}
	}()

	lc := &loopContext{
		counter:    counter,
		pool:       pool,
		sched:      r.scheduler,
		decode:     r.decodeTarget,
		truthIndex: make(map[*workerpool.Handle[ami.SerializedOpaque]]ami.Index),
	}

	seed := r.descriptor.NCPUs
	if counter < seed {
		seed = counter
	}
	inFlight := make([]workerpool.Completer, 0, seed)
	for i := 0; i < seed; i++ {
		h, err := lc.schedule(ctx)
		if err != nil {
			return err
		}
		if h != nil {
			inFlight = append(inFlight, h)
		}
	}

	for len(inFlight) > 0 {
		done, pending := workerpool.WaitAny(inFlight)
		inFlight = pending

		for _, h := range done {
			if err := lc.report(h); err != nil {
				return err
			}
			next, err := lc.schedule(ctx)
			if err != nil {
				return err
			}
			if next != nil {
				inFlight = append(inFlight, next)
			}
		}
	}

	return nil
}
