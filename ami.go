// Package ami defines the shared vocabulary of the Autonomous Materials
// Investigator screening engine: the candidate index space, the opaque
// feature/target/parameter types passed between the scheduler, the worker
// pool, and the external calculator/ranker collaborators, and the Option
// sum type used wherever a value may legitimately be absent.
package ami

import "fmt"

// Index identifies one candidate in the dense range [0, N).
type Index = int

// LocalIndex is an index relative to a single unknown_x slice passed to a
// Ranker; the scheduler is responsible for mapping it back to a global Index.
type LocalIndex = int

// Feature and Target are opaque domain values supplied by external
// collaborators (the calculator, the ranker's surrogate). The engine never
// introspects them; it only carries them between components.
type Feature = any
type Target = any

// SerializedOpaque is an uninterpreted mapping of named byte buffers, passed
// end to end from the scheduler through the worker pool to the calculator
// and back.
type SerializedOpaque map[string][]byte

// SurrogateInput bundles the known (x, y) pairs and the unknown x values a
// Ranker fits and ranks against. The invariant len(KnownX) == len(KnownY) is
// enforced by NewSurrogateInput.
type SurrogateInput struct {
	KnownX   []Feature
	KnownY   []Target
	UnknownX []Feature
}

// NewSurrogateInput validates the known-x/known-y length invariant before
// constructing a SurrogateInput.
func NewSurrogateInput(knownX []Feature, knownY []Target, unknownX []Feature) (SurrogateInput, error) {
	if len(knownX) != len(knownY) {
		return SurrogateInput{}, fmt.Errorf("ami: known_x/known_y length mismatch: %d != %d", len(knownX), len(knownY))
	}
	return SurrogateInput{KnownX: knownX, KnownY: knownY, UnknownX: unknownX}, nil
}

// Field names one named, typed slot of a Schema.
type Field struct {
	Name string
	Type string
}

// Schema is an ordered sequence of (name, type) pairs describing either the
// feature side or the target side of a calculator or ranker's input/output
// shape. The engine enforces no check beyond name opacity; at wiring time the
// Factory (§4.7) requires both schemas to be set and reads the target key
// from the target schema, but never compares schemas with each other.
type Schema struct {
	Features []Field
	Targets  []Field
}

// Option is an explicit tagged sum type for a value that may be absent,
// mirroring the Maybe/Option construct the distilled spec's Python source
// uses for missing parameters and skipped rankings (see ami/option.py in
// original_source). Go has no native absent/zero-value distinction, so this
// stays a real generic type rather than a sentinel value.
type Option[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns the absent variant of Option[T].
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether the option carries a value.
func (o Option[T]) IsSome() bool {
	return o.ok
}

// IsNone reports whether the option is absent.
func (o Option[T]) IsNone() bool {
	return !o.ok
}

// Get returns the wrapped value and whether it was present, in the
// comma-ok idiom.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// UnwrapOr returns the wrapped value, or def if the option is absent.
func (o Option[T]) UnwrapOr(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// Unwrap returns the wrapped value and panics if the option is absent. Use
// only where absence has already been excluded by a prior IsSome/Get check;
// this mirrors the Python source's unwrap(), which raises when called on
// Nothing.
func (o Option[T]) Unwrap() T {
	if !o.ok {
		panic("ami: Unwrap called on an absent Option")
	}
	return o.value
}
