// Package workerpool implements the bounded executor (spec's Worker Pool /
// Executor component): a fixed-size set of workers, two submission kinds
// (truth calculation and fit-and-rank), and a wait_any completion primitive
// that lets a single coordinator drive a heterogeneous in-flight set.
package workerpool

import (
	"reflect"
)

// Completer is the minimal surface WaitAny needs: something with a
// completion signal. Handle[T] satisfies it regardless of its result type,
// which is what lets WaitAny mix truth handles and the fit-and-rank handle
// in a single wait set.
type Completer interface {
	done() <-chan struct{}
}

// Handle is a future-like completion token returned by a submission. It
// carries either the job's result or its failure and must be released
// (Release) to free its worker slot, mirroring the Result<T,Err>
// returned by the Python source's concurrent.futures.Future wrapper.
type Handle[T any] struct {
	ch     chan struct{}
	worker Worker
	value  T
	err    error
}

func newHandle[T any](w Worker) *Handle[T] {
	return &Handle[T]{ch: make(chan struct{}), worker: w}
}

func (h *Handle[T]) done() <-chan struct{} {
	return h.ch
}

// Ready reports whether the job has completed.
func (h *Handle[T]) Ready() bool {
	select {
	case <-h.ch:
		return true
	default:
		return false
	}
}

// Result blocks until the job completes and returns its outcome. Once a
// Handle is reported as done by WaitAny, Result never blocks.
func (h *Handle[T]) Result() (T, error) {
	<-h.ch
	return h.value, h.err
}

func (h *Handle[T]) finish(value T, err error) {
	h.value = value
	h.err = err
	close(h.ch)
}

// WaitAny blocks until at least one handle in the set has completed, then
// returns the completed subset and whatever remains pending. It is built on
// reflect.Select rather than channerics.Merge because the in-flight set is
// heterogeneous (truth handles of type Handle[ami.SerializedOpaque] mixed
// with the single fit-and-rank handle of type
// Handle[ami.Option[[]ami.LocalIndex]]); channerics.Merge only fans in a
// single concrete channel type.
func WaitAny(handles []Completer) (done []Completer, pending []Completer) {
	if len(handles) == 0 {
		return nil, nil
	}

	cases := make([]reflect.SelectCase, len(handles))
	for i, h := range handles {
		cases[i] = reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(h.done()),
		}
	}

	chosen, _, _ := reflect.Select(cases)
	done = append(done, handles[chosen])
	pending = append(pending, handles[:chosen]...)
	pending = append(pending, handles[chosen+1:]...)

	// Drain any others that are also already complete, so a burst of
	// near-simultaneous completions is reported in one wait_any call
	// instead of trickling the coordinator through repeated wakeups.
	remaining := pending
	pending = nil
	for _, h := range remaining {
		select {
		case <-h.done():
			done = append(done, h)
		default:
			pending = append(pending, h)
		}
	}
	return done, pending
}
