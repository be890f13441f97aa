package scheduler

import (
	"testing"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/datamanager"
	"github.com/bundaberg-joey/amiscreen/state"
	. "github.com/smartystreets/goconvey/convey"
)

// memTruthProvider/memSink mirror datamanager's own test fixtures — kept
// local since those are unexported across the package boundary.
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
	return ami.Some(ami.SerializedOpaque{"index": []byte{byte(i)}}), nil
}

type memSink struct {
	valid   map[int]float64
	invalid map[int]bool
}

func newMemSink() *memSink {
	return &memSink{valid: map[int]float64{}, invalid: map[int]bool{}}
}
func (s *memSink) AppendValid(i int, target float64) error { s.valid[i] = target; return nil }
func (s *memSink) AppendInvalid(i int) error               { s.invalid[i] = true; return nil }
func (s *memSink) Close() error                            { return nil }

// stubRanker returns a fixed rank on every call, or None if rank is nil.
type stubRanker struct {
	rank []ami.LocalIndex
}

func (r *stubRanker) Fit(x []ami.Feature, y []ami.Target) {}
func (r *stubRanker) Rank(unknownX []ami.Feature) ami.Option[[]ami.LocalIndex] {
	if r.rank == nil {
		return ami.None[[]ami.LocalIndex]()
	}
	return ami.Some(r.rank)
}
func (r *stubRanker) Schema() ami.Schema { return ami.Schema{} }

func newTestDataManager(n int) *datamanager.DataManager {
	dm, err := datamanager.New(&memTruthProvider{n: n}, datamanager.NewIndexFeatureStore(n), newMemSink())
	if err != nil {
		panic(err)
	}
	return dm
}

func TestSchedulerInitialRanking(t *testing.T) {
	Convey("Given a data manager over 3 candidates and a ranker that reverses them", t, func() {
		dm := newTestDataManager(3)
		initial := &stubRanker{rank: []ami.LocalIndex{2, 1, 0}}

		Convey("New seeds the pending queue from the mapped-back global indices", func() {
			sched, err := New(dm, initial, 0)
			So(err, ShouldBeNil)

			i, err := sched.Next()
			So(err, ShouldBeNil)
			So(i, ShouldEqual, 2)
		})

		Convey("A ranker returning None at construction is a programmer error", func() {
			_, err := New(dm, &stubRanker{rank: nil}, 0)
			So(err, ShouldNotBeNil)
			_, ok := err.(ErrInitialRankingFailed)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestSchedulerNextExhaustion(t *testing.T) {
	Convey("Given a scheduler over 2 candidates", t, func() {
		dm := newTestDataManager(2)
		sched, err := New(dm, &stubRanker{rank: []ami.LocalIndex{0, 1}}, 10)
		So(err, ShouldBeNil)

		Convey("Next walks the queue then fails with ErrExhausted", func() {
			first, err := sched.Next()
			So(err, ShouldBeNil)
			So(first, ShouldEqual, 0)

			second, err := sched.Next()
			So(err, ShouldBeNil)
			So(second, ShouldEqual, 1)

			_, err = sched.Next()
			So(err, ShouldEqual, ErrExhausted)
		})
	})
}

func TestSchedulerDirtyCountAndRanking(t *testing.T) {
	Convey("Given a scheduler with threshold 1", t, func() {
		dm := newTestDataManager(3)
		sched, err := New(dm, &stubRanker{rank: []ami.LocalIndex{0, 1, 2}}, 1)
		So(err, ShouldBeNil)
		So(sched.NeedsNewRanking(), ShouldBeFalse)

		Convey("Two SetResult calls push dirty_count past the threshold", func() {
			i, _ := sched.Next()
			_, _ = sched.Parameters(i)
			So(sched.SetResult(i, ami.Some[ami.Target](1.0)), ShouldBeNil)
			So(sched.NeedsNewRanking(), ShouldBeFalse)

			j, _ := sched.Next()
			_, _ = sched.Parameters(j)
			So(sched.SetResult(j, ami.Some[ami.Target](2.0)), ShouldBeNil)
			So(sched.NeedsNewRanking(), ShouldBeTrue)
		})

		Convey("SetRanks(None) is a no-op that leaves ptr and dirty_count untouched", func() {
			i, _ := sched.Next()
			_, _ = sched.Parameters(i)
			_ = sched.SetResult(i, ami.Some[ami.Target](1.0))

			sched.SetRanks(ami.None[[]ami.Index]())

			next, err := sched.Next()
			So(err, ShouldBeNil)
			So(next, ShouldEqual, 1)

			// dirty_count is still 1, so one more result passes threshold 1.
			_, _ = sched.Parameters(next)
			So(sched.SetResult(next, ami.Some[ami.Target](2.0)), ShouldBeNil)
			So(sched.NeedsNewRanking(), ShouldBeTrue)
		})

		Convey("SetRanks(Some) resets ptr and dirty_count and installs the new queue", func() {
			i, _ := sched.Next()
			_, _ = sched.Parameters(i)
			_ = sched.SetResult(i, ami.Some[ami.Target](1.0))

			sched.SetRanks(ami.Some([]ami.Index{2, 1}))
			So(sched.NeedsNewRanking(), ShouldBeFalse)

			next, err := sched.Next()
			So(err, ShouldBeNil)
			So(next, ShouldEqual, 2)
		})
	})
}
