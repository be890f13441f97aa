// Package factory assembles a fully wired runner.Runner from its component
// parts: a validated builder with one setter per required slot, mirroring
// the Python source's reflective DataclassFactory with explicit,
// compiler-checked setters instead (spec §4.7, design note "Factory /
// Builder pattern").
package factory

import (
	"fmt"
	"sort"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/calculator"
	"github.com/bundaberg-joey/amiscreen/datamanager"
	"github.com/bundaberg-joey/amiscreen/ranker"
	"github.com/bundaberg-joey/amiscreen/runner"
	"github.com/bundaberg-joey/amiscreen/scheduler"
	"github.com/bundaberg-joey/amiscreen/workerpool"
)

// ErrMissingFields is returned by Build when one or more required slots
// were never set, naming every offender at once rather than failing on the
// first.
type ErrMissingFields struct {
	Fields []string
}

func (e ErrMissingFields) Error() string {
	return fmt.Sprintf("factory: missing required fields: %v", e.Fields)
}

// Builder assembles a Runner. Every slot below is required; Build reports
// every unset one together instead of failing on the first.
type Builder struct {
	dataManager   *datamanager.DataManager
	calc          calculator.Calculator
	initialRank   ranker.Ranker
	activeRank    ranker.Ranker
	featureSchema ami.Schema
	targetSchema  ami.Schema

	poolSize         int
	hasPoolSize      bool
	dirtyThreshold   int
	hasThreshold     bool
	hasFeatureSchema bool
	hasTargetSchema  bool
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// SetDataManager wires the Data Manager collaborator.
func (b *Builder) SetDataManager(dm *datamanager.DataManager) *Builder {
	b.dataManager = dm
	return b
}

// SetCalculator wires the truth calculator.
func (b *Builder) SetCalculator(c calculator.Calculator) *Builder {
	b.calc = c
	return b
}

// SetInitialRanker wires the ranker used once, synchronously, at
// scheduler construction (spec §4.5.1).
func (b *Builder) SetInitialRanker(r ranker.Ranker) *Builder {
	b.initialRank = r
	return b
}

// SetActiveRanker wires the ranker the worker pool invokes for every
// subsequent fit-and-rank job during the run.
func (b *Builder) SetActiveRanker(r ranker.Ranker) *Builder {
	b.activeRank = r
	return b
}

// SetPoolSize wires ncpus, the worker pool's fixed concurrency.
func (b *Builder) SetPoolSize(n int) *Builder {
	b.poolSize = n
	b.hasPoolSize = true
	return b
}

// SetDirtyThreshold wires the scheduler's re-ranking threshold.
func (b *Builder) SetDirtyThreshold(n int) *Builder {
	b.dirtyThreshold = n
	b.hasThreshold = true
	return b
}

// SetFeatureSchema wires the feature schema. Build only checks that it was
// set; its contents are not compared against anything.
func (b *Builder) SetFeatureSchema(s ami.Schema) *Builder {
	b.featureSchema = s
	b.hasFeatureSchema = true
	return b
}

// SetTargetSchema wires the target schema. Its first declared field also
// names the key a truth job's raw result is decoded from (see
// runner.Float64TargetDecoder).
func (b *Builder) SetTargetSchema(s ami.Schema) *Builder {
	b.targetSchema = s
	b.hasTargetSchema = true
	return b
}

// Build validates every slot and wires a Runner. No defaults are applied —
// a missing slot is a configuration error, never a runtime one.
func (b *Builder) Build() (*runner.Runner, error) {
	var missing []string
	if b.dataManager == nil {
		missing = append(missing, "DataManager")
	}
	if b.calc == nil {
		missing = append(missing, "Calculator")
	}
	if b.initialRank == nil {
		missing = append(missing, "InitialRanker")
	}
	if b.activeRank == nil {
		missing = append(missing, "ActiveRanker")
	}
	if !b.hasPoolSize {
		missing = append(missing, "PoolSize")
	}
	if !b.hasThreshold {
		missing = append(missing, "DirtyThreshold")
	}
	if !b.hasFeatureSchema {
		missing = append(missing, "FeatureSchema")
	}
	if !b.hasTargetSchema {
		missing = append(missing, "TargetSchema")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, ErrMissingFields{Fields: missing}
	}

	if len(b.targetSchema.Targets) == 0 {
		return nil, fmt.Errorf("factory: target schema declares no fields")
	}
	if b.poolSize <= 0 {
		return nil, fmt.Errorf("factory: pool size must be positive, got %d", b.poolSize)
	}
	if b.dirtyThreshold < 0 {
		return nil, fmt.Errorf("factory: dirty threshold must be >= 0, got %d", b.dirtyThreshold)
	}

	sched, err := scheduler.New(b.dataManager, b.initialRank, b.dirtyThreshold)
	if err != nil {
		return nil, fmt.Errorf("factory: constructing scheduler: %w", err)
	}

	descriptor := workerpool.Descriptor{
		NCPUs:   b.poolSize,
		Factory: &workerpool.SimpleWorkerFactory{Calculator: b.calc, Ranker: b.activeRank},
	}

	decode := runner.Float64TargetDecoder(b.targetSchema.Targets[0].Name)
	return runner.New(sched, descriptor, decode), nil
}
