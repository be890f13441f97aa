package workerpool

import (
	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/calculator"
	"github.com/bundaberg-joey/amiscreen/ranker"
)

// Worker executes exactly one job at a time on behalf of the Pool. Workers
// never touch scheduler state directly (spec §5): the only path back to the
// coordinator is the Handle it was given at submission time.
type Worker interface {
	CalculateTruth(params ami.SerializedOpaque) (ami.SerializedOpaque, error)
	FitAndRank(input ami.SurrogateInput) (ami.Option[[]ami.LocalIndex], error)
	Close() error
}

// WorkerFactory constructs the fixed set of Workers a Pool opens with.
type WorkerFactory interface {
	NewWorker() (Worker, error)
}

// SimpleWorker adapts a Calculator and Ranker pair to the Worker interface.
// The ranker is shared across every SimpleWorker produced by the same
// factory: the single-ranking-in-flight rule (enforced one layer up, by the
// runner) guarantees at most one FitAndRank call touches it at a time, so no
// per-worker copy is needed.
type SimpleWorker struct {
	calc calculator.Calculator
	rank ranker.Ranker
}

func (w *SimpleWorker) CalculateTruth(params ami.SerializedOpaque) (ami.SerializedOpaque, error) {
	return w.calc.Calculate(params)
}

func (w *SimpleWorker) FitAndRank(input ami.SurrogateInput) (ami.Option[[]ami.LocalIndex], error) {
	w.rank.Fit(input.KnownX, input.KnownY)
	return w.rank.Rank(input.UnknownX), nil
}

func (w *SimpleWorker) Close() error {
	return nil
}

// SimpleWorkerFactory builds SimpleWorkers bound to a shared Calculator and
// Ranker, mirroring the single calculator/ranker pair the Python source's
// ProcessPoolExecutor workers close over.
type SimpleWorkerFactory struct {
	Calculator calculator.Calculator
	Ranker     ranker.Ranker
}

func (f *SimpleWorkerFactory) NewWorker() (Worker, error) {
	return &SimpleWorker{calc: f.Calculator, rank: f.Ranker}, nil
}
