package runner

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/calculator"
	"github.com/bundaberg-joey/amiscreen/datamanager"
	"github.com/bundaberg-joey/amiscreen/ranker"
	"github.com/bundaberg-joey/amiscreen/scheduler"
	"github.com/bundaberg-joey/amiscreen/state"
	"github.com/bundaberg-joey/amiscreen/workerpool"
	. "github.com/smartystreets/goconvey/convey"
)

func encodeTestFloat(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

// memTruthProvider/memSink are local fixtures matching the pattern used by
// datamanager's and scheduler's own tests.
type memTruthProvider struct{ n int }

func (m *memTruthProvider) Len() int           { return m.n }
func (m *memTruthProvider) Schema() ami.Schema { return ami.Schema{} }
func (m *memTruthProvider) Parameters(i int, sm *state.StateMachine) (ami.Option[ami.SerializedOpaque], error) {
	if i < 0 || i >= m.n {
		return ami.None[ami.SerializedOpaque](), nil
	}
	if err := sm.Select(i); err != nil {
		return ami.None[ami.SerializedOpaque](), err
	}
	return ami.Some(ami.SerializedOpaque{"index": encodeTestFloat(float64(i))}), nil
}

type memSink struct {
	mu      sync.Mutex
	order   []string
	valid   map[int]float64
	invalid map[int]bool
}

func newMemSink() *memSink {
	return &memSink{valid: map[int]float64{}, invalid: map[int]bool{}}
}
func (s *memSink) AppendValid(i int, target float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid[i] = target
	s.order = append(s.order, "valid")
	return nil
}
func (s *memSink) AppendInvalid(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalid[i] = true
	s.order = append(s.order, "invalid")
	return nil
}
func (s *memSink) Close() error { return nil }

// identityRanker always returns its input order unchanged.
type identityRanker struct{}

func (identityRanker) Fit(x []ami.Feature, y []ami.Target) {}
func (identityRanker) Rank(unknownX []ami.Feature) ami.Option[[]ami.LocalIndex] {
	perm := make([]ami.LocalIndex, len(unknownX))
	for i := range perm {
		perm[i] = i
	}
	return ami.Some(perm)
}
func (identityRanker) Schema() ami.Schema { return ami.Schema{} }

func newHarness(n, threshold int, initial ranker.Ranker) (*scheduler.Scheduler, *memSink, error) {
	truth := &memTruthProvider{n: n}
	features := datamanager.NewIndexFeatureStore(n)
	sink := newMemSink()
	dm, err := datamanager.New(truth, features, sink)
	if err != nil {
		return nil, nil, err
	}
	sched, err := scheduler.New(dm, initial, threshold)
	if err != nil {
		return nil, nil, err
	}
	return sched, sink, nil
}

func TestTrivialSerialRun(t *testing.T) {
	Convey("Given 3 candidates, ncpus=1, counter=3, never re-ranking", t, func() {
		sched, sink, err := newHarness(3, 1000, identityRanker{})
		So(err, ShouldBeNil)

		decode := Float64TargetDecoder("target")
		r := New(sched, workerpool.Descriptor{
			NCPUs:   1,
			Factory: &workerpool.SimpleWorkerFactory{Calculator: calculator.NewEchoCalculator(), Ranker: ranker.NewRandomRanker(rand.NewSource(1))},
		}, decode)

		Convey("Running to completion records all three results", func() {
			err := r.Run(context.Background(), 3)
			So(err, ShouldBeNil)
			So(sink.valid[0], ShouldEqual, 0.0)
			So(sink.valid[1], ShouldEqual, 1.0)
			So(sink.valid[2], ShouldEqual, 4.0) // EchoCalculator squares its input
		})
	})
}

func TestAllFailuresRun(t *testing.T) {
	Convey("Given a calculator that always errors", t, func() {
		failing := calculator.FuncCalculator{
			Fn: func(ami.SerializedOpaque) (ami.SerializedOpaque, error) {
				return nil, errors.New("simulation crashed")
			},
		}
		sched, sink, err := newHarness(3, 1000, identityRanker{})
		So(err, ShouldBeNil)

		r := New(sched, workerpool.Descriptor{
			NCPUs:   1,
			Factory: &workerpool.SimpleWorkerFactory{Calculator: failing, Ranker: ranker.NewRandomRanker(rand.NewSource(1))},
		}, Float64TargetDecoder("target"))

		Convey("Every candidate ends up marked failed in the sink", func() {
			err := r.Run(context.Background(), 3)
			So(err, ShouldBeNil)
			So(sink.invalid[0], ShouldBeTrue)
			So(sink.invalid[1], ShouldBeTrue)
			So(sink.invalid[2], ShouldBeTrue)
			So(len(sink.valid), ShouldEqual, 0)
		})
	})
}

func TestCounterZero(t *testing.T) {
	Convey("Given counter=0", t, func() {
		sched, sink, err := newHarness(3, 1000, identityRanker{})
		So(err, ShouldBeNil)

		r := New(sched, workerpool.Descriptor{
			NCPUs:   1,
			Factory: &workerpool.SimpleWorkerFactory{Calculator: calculator.NewEchoCalculator(), Ranker: ranker.NewRandomRanker(rand.NewSource(1))},
		}, Float64TargetDecoder("target"))

		Convey("The run submits nothing and the sink stays empty", func() {
			err := r.Run(context.Background(), 0)
			So(err, ShouldBeNil)
			So(len(sink.valid), ShouldEqual, 0)
			So(len(sink.invalid), ShouldEqual, 0)
		})
	})
}

func TestParallelSaturation(t *testing.T) {
	Convey("Given 10 candidates and ncpus=4", t, func() {
		sched, sink, err := newHarness(10, 1000, identityRanker{})
		So(err, ShouldBeNil)

		r := New(sched, workerpool.Descriptor{
			NCPUs:   4,
			Factory: &workerpool.SimpleWorkerFactory{Calculator: calculator.NewEchoCalculator(), Ranker: ranker.NewRandomRanker(rand.NewSource(1))},
		}, Float64TargetDecoder("target"))

		Convey("All ten candidates are dispatched exactly once", func() {
			err := r.Run(context.Background(), 10)
			So(err, ShouldBeNil)
			So(len(sink.valid), ShouldEqual, 10)
		})
	})
}

// reverseRanker ranks the unknown set in reverse order, to exercise the
// re-ranking path (end-to-end scenario 3).
type reverseRanker struct{}

func (reverseRanker) Fit(x []ami.Feature, y []ami.Target) {}
func (reverseRanker) Rank(unknownX []ami.Feature) ami.Option[[]ami.LocalIndex] {
	perm := make([]ami.LocalIndex, len(unknownX))
	for i := range perm {
		perm[i] = len(unknownX) - 1 - i
	}
	return ami.Some(perm)
}
func (reverseRanker) Schema() ami.Schema { return ami.Schema{} }

func TestReRankingFires(t *testing.T) {
	Convey("Given threshold=0 and a ranker that always reverses its input", t, func() {
		sched, sink, err := newHarness(4, 0, reverseRanker{})
		So(err, ShouldBeNil)

		r := New(sched, workerpool.Descriptor{
			NCPUs:   1,
			Factory: &workerpool.SimpleWorkerFactory{Calculator: calculator.NewEchoCalculator(), Ranker: reverseRanker{}},
		}, Float64TargetDecoder("target"))

		Convey("The run completes all four candidates, re-ranking along the way", func() {
			err := r.Run(context.Background(), 4)
			So(err, ShouldBeNil)
			So(len(sink.valid), ShouldEqual, 4)
		})
	})
}
