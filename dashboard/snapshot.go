package dashboard

import (
	"context"
	"time"

	"github.com/bundaberg-joey/amiscreen/state"
	channerics "github.com/niceyeti/channerics/channels"
)

// Snapshot polls a state machine at a fixed resolution and publishes a full
// []CandidateCell snapshot on every tick. The Runner never needs to know
// the dashboard exists; this is the only place that reaches into a
// *state.StateMachine from outside the engine.
func Snapshot(ctx context.Context, sm *state.StateMachine, resolution time.Duration) <-chan []CandidateCell {
	out := make(chan []CandidateCell)
	ticker := channerics.NewTicker(ctx.Done(), resolution)

	go func() {
		defer close(out)
		for range channerics.OrDone(ctx.Done(), ticker) {
			select {
			case out <- Convert(sm):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
