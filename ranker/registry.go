package ranker

import (
	"fmt"
	"math/rand"
	"time"
)

func defaultRandSource() rand.Source {
	return rand.NewSource(time.Now().UnixNano())
}

// Registry maps a short name to a Ranker constructor, mirroring
// original_source/.../ami/abc/registry.py and the ad hoc
// {'ei': ei_ranker, 'greedy': greedy_n_ranker} dispatch dict in
// original_source/main_ami.py, so a CLI flag can select among bundled
// acquisition strategies without the scheduler ever knowing which was
// chosen.
type Registry struct {
	constructors map[string]func() Ranker
}

// NewRegistry returns a Registry pre-populated with the bundled rankers:
// "random" (RandomRanker), "greedy" (SurrogateRanker + GreedyAcquisition),
// and "ei" (SurrogateRanker + ExpectedImprovementAcquisition), all backed by
// a fresh BucketGaussianSurrogate.
func NewRegistry() *Registry {
	schema := (&RandomRanker{}).Schema()
	reg := &Registry{constructors: map[string]func() Ranker{}}
	reg.Register("random", func() Ranker {
		return NewRandomRanker(defaultRandSource())
	})
	reg.Register("greedy", func() Ranker {
		return NewSurrogateRanker(NewBucketGaussianSurrogate(1.0), GreedyAcquisition, schema)
	})
	reg.Register("ei", func() Ranker {
		return NewSurrogateRanker(NewBucketGaussianSurrogate(1.0), ExpectedImprovementAcquisition, schema)
	})
	return reg
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, ctor func() Ranker) {
	r.constructors[name] = ctor
}

// ErrUnknownRanker is returned by Build when name was never registered.
type ErrUnknownRanker struct {
	Name string
}

func (e *ErrUnknownRanker) Error() string {
	return fmt.Sprintf("ranker: unknown ranker %q", e.Name)
}

// Build constructs a fresh Ranker instance for name.
func (r *Registry) Build(name string) (Ranker, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, &ErrUnknownRanker{Name: name}
	}
	return ctor(), nil
}
