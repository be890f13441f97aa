// Package state implements the candidate tri-state machine: every candidate
// index is, at any instant, exactly one of fresh-and-available, selected
// (in flight), done-successfully, or done-with-failure. See spec §4.1.
package state

import "fmt"

// ErrIllegalTransition is returned when a transition's precondition does not
// hold for the index's current state. This is a programmer error per the
// error taxonomy (spec §7) — it indicates the caller dispatched the same
// index twice, or reported a result for an index that was never selected.
type ErrIllegalTransition struct {
	Op    string
	Index int
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("state: illegal %s transition for index %d", e.Op, e.Index)
}

// StateMachine holds the three boolean vectors backing every candidate's
// tri-state: done, available, failed. All combinations other than the four
// named in spec §3 are illegal and unreachable through the public API.
type StateMachine struct {
	done      []bool
	available []bool
	failed    []bool
}

// New returns a state machine of n candidates, all fresh and available.
func New(n int) *StateMachine {
	available := make([]bool, n)
	for i := range available {
		available[i] = true
	}
	return &StateMachine{
		done:      make([]bool, n),
		available: available,
		failed:    make([]bool, n),
	}
}

// Len returns the number of candidates tracked.
func (sm *StateMachine) Len() int {
	return len(sm.done)
}

func (sm *StateMachine) isSelectable(i int) bool {
	return !sm.done[i] && sm.available[i] && !sm.failed[i]
}

func (sm *StateMachine) isSettable(i int) bool {
	return !sm.done[i] && !sm.available[i] && !sm.failed[i]
}

// Select transitions index i from (F,T,F) "fresh" to (F,F,F) "in flight".
// It fails with ErrIllegalTransition unless i is currently fresh.
func (sm *StateMachine) Select(i int) error {
	if !sm.isSelectable(i) {
		return &ErrIllegalTransition{Op: "select", Index: i}
	}
	sm.available[i] = false
	return nil
}

// Set transitions index i from (F,F,F) "in flight" to (T,F,!success) "done".
// It fails with ErrIllegalTransition unless i is currently in flight.
func (sm *StateMachine) Set(i int, success bool) error {
	if !sm.isSettable(i) {
		return &ErrIllegalTransition{Op: "set", Index: i}
	}
	sm.done[i] = true
	sm.failed[i] = !success
	return nil
}

// Reset forces index i back to (F,T,F) "fresh" from any state. reset(i);
// reset(i) is idempotent, equivalent to a single reset(i).
func (sm *StateMachine) Reset(i int) {
	sm.done[i] = false
	sm.failed[i] = false
	sm.available[i] = true
}

// ListDone returns a boolean vector of length Len(); entry i is true iff
// candidate i is done. When includeFailures is false, failed candidates are
// excluded (entry i is true iff done and not failed).
func (sm *StateMachine) ListDone(includeFailures bool) []bool {
	out := make([]bool, len(sm.done))
	for i := range out {
		if includeFailures {
			out[i] = sm.done[i]
		} else {
			out[i] = sm.done[i] && !sm.failed[i]
		}
	}
	return out
}

// ListAvailable returns a boolean vector of length Len(); entry i is true
// iff candidate i is not done and is available for selection.
func (sm *StateMachine) ListAvailable() []bool {
	out := make([]bool, len(sm.available))
	for i := range out {
		out[i] = !sm.done[i] && sm.available[i]
	}
	return out
}

// IsDone reports whether a single candidate is done (succeeded or failed).
func (sm *StateMachine) IsDone(i int) bool {
	return sm.done[i]
}

// IsFailed reports whether a single done candidate failed.
func (sm *StateMachine) IsFailed(i int) bool {
	return sm.failed[i]
}

// IsAvailable reports whether a single candidate is currently selectable.
func (sm *StateMachine) IsAvailable(i int) bool {
	return !sm.done[i] && sm.available[i]
}
