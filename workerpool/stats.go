package workerpool

import (
	"sync/atomic"
	"time"

	"github.com/bundaberg-joey/amiscreen/atomic_float"
)

// PoolStats tracks lock-free running telemetry for the pool's job
// throughput, reusing the lock-free AtomicFloat64 the RL grid-world code it
// was adapted from used for cell values — here repurposed to accumulate a
// running mean job latency across concurrently completing workers instead
// of a matrix of state values.
type PoolStats struct {
	completed    int64
	meanLatency  *atomic_float.AtomicFloat64
	totalLatency *atomic_float.AtomicFloat64
}

func newPoolStats() *PoolStats {
	return &PoolStats{
		meanLatency:  atomic_float.NewAtomicFloat64(0),
		totalLatency: atomic_float.NewAtomicFloat64(0),
	}
}

func (s *PoolStats) record(d time.Duration) {
	n := atomic.AddInt64(&s.completed, 1)

	var total float64
	for {
		var ok bool
		total, ok = s.totalLatency.AtomicAdd(d.Seconds())
		if ok {
			break
		}
	}
	for {
		if ok := s.meanLatency.AtomicSet(total / float64(n)); ok {
			break
		}
	}
}

// Completed returns the number of jobs (truth and fit-and-rank combined)
// that have finished.
func (s *PoolStats) Completed() int64 {
	return atomic.LoadInt64(&s.completed)
}

// MeanLatency returns the running mean job duration in seconds.
func (s *PoolStats) MeanLatency() float64 {
	return s.meanLatency.AtomicRead()
}
