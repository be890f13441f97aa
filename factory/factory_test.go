package factory

import (
	"math/rand"
	"testing"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/calculator"
	"github.com/bundaberg-joey/amiscreen/datamanager"
	"github.com/bundaberg-joey/amiscreen/ranker"
	"github.com/bundaberg-joey/amiscreen/state"
	. "github.com/smartystreets/goconvey/convey"
)

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
	return ami.Some(ami.SerializedOpaque{}), nil
}

type memSink struct{}

func (memSink) AppendValid(i int, target float64) error { return nil }
func (memSink) AppendInvalid(i int) error                { return nil }
func (memSink) Close() error                             { return nil }

func fullSchema() ami.Schema {
	return ami.Schema{
		Features: []ami.Field{{Name: "index", Type: "int"}},
		Targets:  []ami.Field{{Name: "target", Type: "float64"}},
	}
}

func newDataManager(t *testing.T) *datamanager.DataManager {
	t.Helper()
	dm, err := datamanager.New(&memTruthProvider{n: 3}, datamanager.NewIndexFeatureStore(3), memSink{})
	if err != nil {
		t.Fatal(err)
	}
	return dm
}

func TestBuilderMissingFields(t *testing.T) {
	Convey("Given a builder with nothing set", t, func() {
		b := New()

		Convey("Build fails listing every missing field", func() {
			_, err := b.Build()
			So(err, ShouldNotBeNil)
			missing, ok := err.(ErrMissingFields)
			So(ok, ShouldBeTrue)
			So(len(missing.Fields), ShouldEqual, 8)
		})
	})
}

func TestBuilderSuccess(t *testing.T) {
	Convey("Given a builder with every slot set", t, func() {
		b := New().
			SetDataManager(newDataManager(t)).
			SetCalculator(calculator.NewEchoCalculator()).
			SetInitialRanker(ranker.NewRandomRanker(rand.NewSource(1))).
			SetActiveRanker(ranker.NewRandomRanker(rand.NewSource(2))).
			SetPoolSize(2).
			SetDirtyThreshold(0).
			SetFeatureSchema(fullSchema()).
			SetTargetSchema(fullSchema())

		Convey("Build succeeds and returns a runner", func() {
			r, err := b.Build()
			So(err, ShouldBeNil)
			So(r, ShouldNotBeNil)
		})
	})

	Convey("Given a builder missing only the active ranker", t, func() {
		b := New().
			SetDataManager(newDataManager(t)).
			SetCalculator(calculator.NewEchoCalculator()).
			SetInitialRanker(ranker.NewRandomRanker(rand.NewSource(1))).
			SetPoolSize(2).
			SetDirtyThreshold(0).
			SetFeatureSchema(fullSchema()).
			SetTargetSchema(fullSchema())

		Convey("Build reports exactly ActiveRanker missing", func() {
			_, err := b.Build()
			missing, ok := err.(ErrMissingFields)
			So(ok, ShouldBeTrue)
			So(missing.Fields, ShouldResemble, []string{"ActiveRanker"})
		})
	})
}
