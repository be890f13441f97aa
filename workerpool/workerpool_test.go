package workerpool

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/calculator"
	"github.com/bundaberg-joey/amiscreen/ranker"
	. "github.com/smartystreets/goconvey/convey"
)

func openTestPool(n int, calc calculator.Calculator, rank ranker.Ranker) (*Pool, error) {
	d := Descriptor{NCPUs: n, Factory: &SimpleWorkerFactory{Calculator: calc, Ranker: rank}}
	return d.Open(context.Background())
}

func testRanker() ranker.Ranker {
	return ranker.NewRandomRanker(rand.NewSource(1))
}

func TestPoolSubmitTruth(t *testing.T) {
	Convey("Given a pool of 2 workers wrapping an EchoCalculator", t, func() {
		pool, err := openTestPool(2, calculator.NewEchoCalculator(), testRanker())
		So(err, ShouldBeNil)

		Convey("Submitting a truth job returns a handle that resolves", func() {
			h, err := pool.SubmitTruth(context.Background(), ami.SerializedOpaque{
				"index": encodeTestFloat(4.0),
			})
			So(err, ShouldBeNil)

			value, jobErr := h.Result()
			So(jobErr, ShouldBeNil)
			So(decodeTestFloat(value["target"]), ShouldEqual, 16.0)

			Release(pool, h)
			So(pool.Close(), ShouldBeNil)
		})
	})
}

func TestPoolSlotDiscipline(t *testing.T) {
	Convey("Given a pool with exactly one worker", t, func() {
		pool, err := openTestPool(1, calculator.NewEchoCalculator(), testRanker())
		So(err, ShouldBeNil)

		Convey("A second submission blocks until the first is released", func() {
			h1, err := pool.SubmitTruth(context.Background(), ami.SerializedOpaque{"index": encodeTestFloat(1.0)})
			So(err, ShouldBeNil)
			h1.Result()

			submitted := make(chan struct{})
			go func() {
				h2, err := pool.SubmitTruth(context.Background(), ami.SerializedOpaque{"index": encodeTestFloat(2.0)})
				So(err, ShouldBeNil)
				h2.Result()
				close(submitted)
			}()

			select {
			case <-submitted:
				t.Fatal("second submission should not complete before release")
			case <-time.After(50 * time.Millisecond):
			}

			Release(pool, h1)
			<-submitted
			So(pool.Close(), ShouldBeNil)
		})
	})
}

func TestPoolJobFailureDoesNotFailPool(t *testing.T) {
	Convey("Given a pool wrapping a calculator that always errors", t, func() {
		failing := calculator.FuncCalculator{
			Fn: func(ami.SerializedOpaque) (ami.SerializedOpaque, error) {
				return nil, errors.New("simulation crashed")
			},
		}
		pool, err := openTestPool(1, failing, testRanker())
		So(err, ShouldBeNil)

		Convey("The handle surfaces the failure but Close still succeeds", func() {
			h, err := pool.SubmitTruth(context.Background(), ami.SerializedOpaque{})
			So(err, ShouldBeNil)

			_, jobErr := h.Result()
			So(jobErr, ShouldNotBeNil)

			Release(pool, h)
			So(pool.Close(), ShouldBeNil)
		})
	})
}

func TestWaitAny(t *testing.T) {
	Convey("Given two truth handles that have both completed", t, func() {
		pool, err := openTestPool(2, calculator.NewEchoCalculator(), testRanker())
		So(err, ShouldBeNil)

		h1, _ := pool.SubmitTruth(context.Background(), ami.SerializedOpaque{"index": encodeTestFloat(2.0)})
		h1.Result() // force first handle to completion before waiting

		h2, _ := pool.SubmitTruth(context.Background(), ami.SerializedOpaque{"index": encodeTestFloat(3.0)})
		h2.Result()

		Convey("WaitAny reports both as done with none left pending", func() {
			done, pending := WaitAny([]Completer{h1, h2})
			So(len(done), ShouldEqual, 2)
			So(len(pending), ShouldEqual, 0)

			Release(pool, h1)
			Release(pool, h2)
			So(pool.Close(), ShouldBeNil)
		})
	})
}

func encodeTestFloat(v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func decodeTestFloat(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
