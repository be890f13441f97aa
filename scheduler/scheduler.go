// Package scheduler implements the core of the core (spec §4.5, C6): it
// tracks a pending queue of ranked candidates, a dirty counter that decides
// when the queue needs refreshing, and the single pointer walking that
// queue forward.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/bundaberg-joey/amiscreen"
	"github.com/bundaberg-joey/amiscreen/datamanager"
	"github.com/bundaberg-joey/amiscreen/ranker"
)

// ErrExhausted is returned by Next once every ranked candidate has been
// dispatched.
var ErrExhausted = errors.New("scheduler: ranked queue exhausted")

// ErrInitialRankingFailed is a programmer error (spec §4.5.1): the initial
// ranker is required to produce a ranking synchronously at construction
// time, so a None result there can never be a legitimate "keep current
// queue" — there is no current queue yet.
type ErrInitialRankingFailed struct{}

func (ErrInitialRankingFailed) Error() string {
	return "scheduler: initial ranker returned no ranking at construction"
}

// Scheduler is the pending-queue coordinator. It is built with a Data
// Manager and an initial ranker (spec §4.5); the worker pool that executes
// ranking/truth jobs is wired one layer up, in the runner, since nothing
// here ever calls through to it (see DESIGN.md).
type Scheduler struct {
	data *datamanager.DataManager

	threshold  int
	dirtyCount int
	ptr        int
	ranked     []ami.Index
}

// New constructs a Scheduler, performing the synchronous initial ranking
// described in spec §4.5.1: fit the initial ranker against whatever is
// already known, rank the unknown set, and seed the pending queue with the
// result mapped back to global indices.
func New(data *datamanager.DataManager, initialRanker ranker.Ranker, threshold int) (*Scheduler, error) {
	global, input := rankerInputs(data)

	initialRanker.Fit(input.KnownX, input.KnownY)
	localPerm, ok := initialRanker.Rank(input.UnknownX).Get()
	if !ok {
		return nil, ErrInitialRankingFailed{}
	}

	ranked := make([]ami.Index, len(localPerm))
	for pos, local := range localPerm {
		ranked[pos] = global[local]
	}

	return &Scheduler{
		data:      data,
		threshold: threshold,
		ranked:    ranked,
	}, nil
}

// rankerInputs computes the (global_indices, SurrogateInput) pair used both
// at construction and by RankerInputs: available candidates define the
// unknown set, and global is parallel to it so a returned local permutation
// can be mapped back (spec §4.5.2 guarantees len(global) == len(unknown_x)).
func rankerInputs(data *datamanager.DataManager) ([]ami.Index, ami.SurrogateInput) {
	global := data.AvailableForCalculation()
	unknownX := data.Unknown()
	knownX, knownY := data.Known()
	return global, ami.SurrogateInput{KnownX: knownX, KnownY: knownY, UnknownX: unknownX}
}

// RankerInputs exposes the same computation the runner needs when
// dispatching a fit-and-rank job (spec §4.5.2).
func (s *Scheduler) RankerInputs() ([]ami.Index, ami.SurrogateInput) {
	return rankerInputs(s.data)
}

// NeedsNewRanking reports whether enough truth results have accumulated
// since the last ranking to justify refreshing the pending queue.
func (s *Scheduler) NeedsNewRanking() bool {
	return s.dirtyCount > s.threshold
}

// Next returns the next global index in the pending queue, advancing the
// pointer monotonically. It fails with ErrExhausted once the queue is
// drained.
func (s *Scheduler) Next() (ami.Index, error) {
	if s.ptr >= len(s.ranked) {
		return 0, ErrExhausted
	}
	i := s.ranked[s.ptr]
	s.ptr++
	return i, nil
}

// Parameters returns the opaque calculator payload for index i. This is
// also where selection happens (spec §4.5.2): the underlying data manager
// performs the state machine's select transition as a side effect, so
// Next()+Parameters() together constitute "dispatch".
func (s *Scheduler) Parameters(i ami.Index) (ami.SerializedOpaque, error) {
	return s.data.Parameters(i)
}

// SetResult records a truth outcome and bumps the dirty counter. It never
// fails except by propagating the data manager's own error.
func (s *Scheduler) SetResult(i ami.Index, value ami.Option[ami.Target]) error {
	if err := s.data.SetResult(i, value); err != nil {
		return fmt.Errorf("scheduler: recording result for index %d: %w", i, err)
	}
	s.dirtyCount++
	return nil
}

// SetRanks installs a freshly computed pending queue, or does nothing if
// ranks is None — meaning the ranker declined to update and the current
// queue should be left untouched (spec §4.5.2).
func (s *Scheduler) SetRanks(ranks ami.Option[[]ami.Index]) {
	seq, ok := ranks.Get()
	if !ok {
		return
	}
	s.ptr = 0
	s.dirtyCount = 0
	s.ranked = seq
}
