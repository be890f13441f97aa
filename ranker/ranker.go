// Package ranker defines the Ranker contract (spec §4.3, C3) — an external
// collaborator the scheduler fits against known (x, y) pairs and asks to
// rank the unknown candidates best to worst — plus a small set of bundled
// implementations that make the engine runnable standalone.
package ranker

import (
	"math/rand"
	"sort"

	"github.com/bundaberg-joey/amiscreen"
)

// Ranker is the pluggable surrogate/acquisition collaborator. Rank returns
// a permutation of [0, len(unknownX)) best to worst, local to the unknownX
// slice passed in, or None to mean "no update, keep the current queue"
// (spec §4.3).
type Ranker interface {
	Fit(knownX []ami.Feature, knownY []ami.Target)
	Rank(unknownX []ami.Feature) ami.Option[[]ami.LocalIndex]
	Schema() ami.Schema
}

// RandomRanker shuffles the unknown set uniformly at random. It is used in
// the example pack's Python ancestor as the initial ranker ("used to
// randomly sample at start of screening", original_source/ranking_models.py)
// since nothing is known yet for a real surrogate to fit against.
type RandomRanker struct {
	rng *rand.Rand
}

// NewRandomRanker returns a RandomRanker seeded from src.
func NewRandomRanker(src rand.Source) *RandomRanker {
	return &RandomRanker{rng: rand.New(src)}
}

func (r *RandomRanker) Fit(knownX []ami.Feature, knownY []ami.Target) {}

func (r *RandomRanker) Rank(unknownX []ami.Feature) ami.Option[[]ami.LocalIndex] {
	perm := r.rng.Perm(len(unknownX))
	return ami.Some(perm)
}

func (r *RandomRanker) Schema() ami.Schema {
	return ami.Schema{
		Features: []ami.Field{{Name: "index", Type: "int"}},
		Targets:  []ami.Field{{Name: "target", Type: "float64"}},
	}
}

// Surrogate is the numerical model a SurrogateRanker fits and predicts
// from. Real deployments plug in a proper regressor (e.g. a Gaussian
// process or random forest, as original_source/code_libs/surrogate/dense.py
// does); BucketGaussianSurrogate below is a stdlib-only stand-in.
type Surrogate interface {
	Fit(x []ami.Feature, y []ami.Target)
	// Predict returns, for each element of x, a (mean, stddev) estimate.
	Predict(x []ami.Feature) (mean []float64, stddev []float64)
}

// AcquisitionFunc turns per-candidate (mean, stddev) predictions into a
// best-to-worst local permutation, mirroring the acquisition functions in
// original_source/code_libs/surrogate/surrogate/acquisition.py.
type AcquisitionFunc func(mean, stddev []float64) []ami.LocalIndex

// SurrogateRanker composes a Surrogate with an AcquisitionFunc, mirroring
// original_source/.../ami/ranker.py's SingleSurrogateRanker.
type SurrogateRanker struct {
	surrogate   Surrogate
	acquisition AcquisitionFunc
	schema      ami.Schema
}

// NewSurrogateRanker builds a Ranker from a Surrogate and an acquisition
// function.
func NewSurrogateRanker(surrogate Surrogate, acquisition AcquisitionFunc, schema ami.Schema) *SurrogateRanker {
	return &SurrogateRanker{surrogate: surrogate, acquisition: acquisition, schema: schema}
}

func (r *SurrogateRanker) Fit(knownX []ami.Feature, knownY []ami.Target) {
	r.surrogate.Fit(knownX, knownY)
}

func (r *SurrogateRanker) Rank(unknownX []ami.Feature) ami.Option[[]ami.LocalIndex] {
	if len(unknownX) == 0 {
		return ami.Some([]ami.LocalIndex{})
	}
	mean, stddev := r.surrogate.Predict(unknownX)
	return ami.Some(r.acquisition(mean, stddev))
}

func (r *SurrogateRanker) Schema() ami.Schema {
	return r.schema
}

// sortByScoreDescending returns the permutation of [0,len(score)) that
// would sort score descending, the shared plumbing behind the bundled
// acquisition functions below.
func sortByScoreDescending(score []float64) []ami.LocalIndex {
	idx := make([]ami.LocalIndex, len(score))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return score[idx[a]] > score[idx[b]]
	})
	return idx
}

// GreedyAcquisition ranks purely by predicted mean, highest first —
// grounded on original_source/.../surrogate/acquisition.py's GreedyNRanking
// (exploitation only, no exploration term).
func GreedyAcquisition(mean, stddev []float64) []ami.LocalIndex {
	return sortByScoreDescending(mean)
}

// ExpectedImprovementAcquisition ranks by mean + stddev, trading exploration
// (uncertainty) against exploitation (predicted value), grounded on
// original_source/.../surrogate/acquisition.py's EiRanking in simplified
// form (a proper EI integrates over the normal CDF/PDF against the current
// best observed value; this stdlib-only stand-in uses the common
// upper-confidence-bound surrogate for the same exploration/exploitation
// trade-off, since scipy's normal distribution functions are not available
// without a numerical dependency this pack doesn't carry).
func ExpectedImprovementAcquisition(mean, stddev []float64) []ami.LocalIndex {
	score := make([]float64, len(mean))
	for i := range score {
		score[i] = mean[i] + stddev[i]
	}
	return sortByScoreDescending(score)
}
