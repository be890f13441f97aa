package datamanager

import (
	"fmt"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/state"
)

// FeatureStore owns the feature/target storage consulted by the scheduler's
// ranker_inputs() (spec §4.5.2) and mutated by set_result (spec §4.2). It is
// the Go analogue of the Python source's SurrogateProviderInterface /
// IndexedSingleFloatTargetSurrogateProvider.
type FeatureStore interface {
	// Known returns the feature/target pairs for every candidate the state
	// machine reports as done-without-failure.
	Known(sm *state.StateMachine) ([]ami.Feature, []ami.Target)
	// Unknown returns the feature values for every candidate the state
	// machine reports as available.
	Unknown(sm *state.StateMachine) []ami.Feature
	// SetTarget records the observed target for index i, or does nothing if
	// value is None (a failed truth calculation carries no target).
	SetTarget(i int, value ami.Option[ami.Target])
	// Len reports the size of the candidate catalogue this store covers.
	Len() int
	// Schema describes the feature/target shape for wiring-time validation.
	Schema() ami.Schema
}

// IndexFeatureStore is the minimal surrogate input: the candidate's own
// dense Index is its only feature, mirroring the Python source's
// IndexedSingleFloatTargetSurrogateProvider (used there as a placeholder
// feature source ahead of a real descriptor/fingerprint provider). Real
// deployments supply their own FeatureStore (e.g. backed by an HDF5 dataset,
// see SPEC_FULL.md §3) — this implementation exists so the engine is
// runnable standalone.
type IndexFeatureStore struct {
	targets []float64
	schema  ami.Schema
}

// NewIndexFeatureStore allocates a feature store of size n.
func NewIndexFeatureStore(n int) *IndexFeatureStore {
	return &IndexFeatureStore{
		targets: make([]float64, n),
		schema: ami.Schema{
			Features: []ami.Field{{Name: "index", Type: "int"}},
			Targets:  []ami.Field{{Name: "target", Type: "float64"}},
		},
	}
}

func (s *IndexFeatureStore) Len() int { return len(s.targets) }

func (s *IndexFeatureStore) Schema() ami.Schema { return s.schema }

func (s *IndexFeatureStore) Known(sm *state.StateMachine) ([]ami.Feature, []ami.Target) {
	done := sm.ListDone(false)
	var x []ami.Feature
	var y []ami.Target
	for i, ok := range done {
		if ok {
			x = append(x, i)
			y = append(y, s.targets[i])
		}
	}
	return x, y
}

func (s *IndexFeatureStore) Unknown(sm *state.StateMachine) []ami.Feature {
	available := sm.ListAvailable()
	var x []ami.Feature
	for i, ok := range available {
		if ok {
			x = append(x, i)
		}
	}
	return x
}

func (s *IndexFeatureStore) SetTarget(i int, value ami.Option[ami.Target]) {
	v, ok := value.Get()
	if !ok {
		return
	}
	f, ok := v.(float64)
	if !ok {
		panic(fmt.Sprintf("datamanager: IndexFeatureStore target must be float64, got %T", v))
	}
	s.targets[i] = f
}
