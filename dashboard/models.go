// Package dashboard serves a live, read-only view of a screening run's
// progress: one cell per candidate index, colored by its current tri-state.
// It is wholly optional — a Runner never imports it, and a run started
// without a dashboard address behaves identically.
package dashboard

import (
	"github.com/bundaberg-joey/amiscreen/state"
)

// Status is a candidate's display state, derived from the tri-state machine
// rather than duplicating it.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSelected  Status = "selected"
	StatusSuccess   Status = "success"
	StatusFailure   Status = "failure"
)

// fill is the SVG fill color for each Status, chosen for contrast rather
// than any particular palette convention.
var fill = map[Status]string{
	StatusAvailable: "lightgray",
	StatusSelected:  "lightblue",
	StatusSuccess:   "lightgreen",
	StatusFailure:   "lightcoral",
}

// CandidateCell is the view-model for a single candidate: immediately
// usable as a template parameter, the way the teacher's CellViewModel was.
type CandidateCell struct {
	Index  int
	Status Status
	Fill   string
}

// Convert snapshots a state machine into one CandidateCell per candidate,
// in index order.
func Convert(sm *state.StateMachine) []CandidateCell {
	cells := make([]CandidateCell, sm.Len())
	for i := range cells {
		st := statusOf(sm, i)
		cells[i] = CandidateCell{Index: i, Status: st, Fill: fill[st]}
	}
	return cells
}

func statusOf(sm *state.StateMachine, i int) Status {
	switch {
	case sm.IsAvailable(i):
		return StatusAvailable
	case sm.IsDone(i) && sm.IsFailed(i):
		return StatusFailure
	case sm.IsDone(i):
		return StatusSuccess
	default:
		return StatusSelected
	}
}
