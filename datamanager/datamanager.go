// Package datamanager implements spec §4.2 (C2): the Data Manager owns the
// candidate catalogue, the tri-state machine, feature/target storage, and
// the append-only result sink, and is the sole component that ever mutates
// any of them.
package datamanager

import (
	"fmt"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/state"
)

// ErrMissingParameters is returned by Parameters when the underlying
// TruthProvider has no payload for the requested index — a programmer
// error per spec §7 (the scheduler should never request an index outside
// the catalogue).
type ErrMissingParameters struct {
	Index int
}

func (e *ErrMissingParameters) Error() string {
	return fmt.Sprintf("datamanager: no parameters available for index %d", e.Index)
}

// DataManager wires together the state machine, a FeatureStore, a
// TruthProvider, and a ResultSink. It is the sole owner of the state
// machine and the persistence sink (spec §3, Ownership).
type DataManager struct {
	state    *state.StateMachine
	features FeatureStore
	truth    TruthProvider
	sink     ResultSink
}

// New constructs a DataManager whose catalogue size is taken from truth.Len();
// features must cover the same size.
func New(truth TruthProvider, features FeatureStore, sink ResultSink) (*DataManager, error) {
	if truth.Len() != features.Len() {
		return nil, fmt.Errorf("datamanager: truth provider size %d does not match feature store size %d", truth.Len(), features.Len())
	}
	return &DataManager{
		state:    state.New(truth.Len()),
		features: features,
		truth:    truth,
		sink:     sink,
	}, nil
}

// Len reports the size of the candidate catalogue.
func (dm *DataManager) Len() int {
	return dm.state.Len()
}

// StateMachine exposes the underlying tri-state machine read-only, for
// callers — the dashboard's progress snapshot — that only ever observe it
// and never mutate it directly.
func (dm *DataManager) StateMachine() *state.StateMachine {
	return dm.state
}

// AvailableForCalculation returns the dense list of indices currently
// eligible for selection.
func (dm *DataManager) AvailableForCalculation() []int {
	available := dm.state.ListAvailable()
	indices := make([]int, 0, len(available))
	for i, ok := range available {
		if ok {
			indices = append(indices, i)
		}
	}
	return indices
}

// Known returns the feature/target pairs for every completed, non-failed
// candidate.
func (dm *DataManager) Known() ([]ami.Feature, []ami.Target) {
	return dm.features.Known(dm.state)
}

// Unknown returns the feature values for every available candidate, in the
// same order as AvailableForCalculation.
func (dm *DataManager) Unknown() []ami.Feature {
	return dm.features.Unknown(dm.state)
}

// Parameters returns the opaque calculator payload for index i, performing
// the state.Select transition as a side effect (spec §4.5.2). It fails with
// ErrMissingParameters if the truth provider has nothing for i, or with the
// state machine's ErrIllegalTransition if i was not selectable.
func (dm *DataManager) Parameters(i int) (ami.SerializedOpaque, error) {
	opt, err := dm.truth.Parameters(i, dm.state)
	if err != nil {
		return nil, err
	}
	v, ok := opt.Get()
	if !ok {
		return nil, &ErrMissingParameters{Index: i}
	}
	return v, nil
}

// SetResult records the outcome of a truth calculation for index i: a
// present value marks the candidate done-successfully and appends a valid
// record to the sink; an absent value marks it done-with-failure and
// appends a failed record. The state machine transition is propagated
// verbatim on illegal-transition failure (spec §4.2).
func (dm *DataManager) SetResult(i int, value ami.Option[ami.Target]) error {
	dm.features.SetTarget(i, value)

	target, ok := value.Get()
	if ok {
		if err := dm.state.Set(i, true); err != nil {
			return err
		}
		f, isFloat := target.(float64)
		if !isFloat {
			return fmt.Errorf("datamanager: result sink requires a float64 target for index %d, got %T", i, target)
		}
		return dm.sink.AppendValid(i, f)
	}

	if err := dm.state.Set(i, false); err != nil {
		return err
	}
	return dm.sink.AppendInvalid(i)
}

// Close releases the underlying result sink.
func (dm *DataManager) Close() error {
	return dm.sink.Close()
}
