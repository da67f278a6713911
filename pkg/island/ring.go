package island

import (
	"context"
	"fmt"

	"github.com/tommoulard/propulate/pkg/fabric"
)

// maybeWriteAndForwardToken runs the checkpoint-ring token-holder's duties
// for this generation (spec.md §4.5): write the checkpoint then forward
// the token to the next worker in the island by intra-island rank,
// wrapping at the end.
func (w *Worker) maybeWriteAndForwardToken(ctx context.Context) error {
	if !w.HoldsToken {
		return nil
	}

	if err := w.writeCheckpoint(); err != nil {
		return err
	}

	next := w.IslandComm.Rank() + 1
	if next >= w.IslandComm.Size() {
		next = 0
	}

	if err := w.IslandComm.Send(ctx, next, fabric.DumpTag, struct{}{}); err != nil {
		return fmt.Errorf("forward checkpoint token to island rank %d: %w", next, err)
	}

	w.HoldsToken = false

	return nil
}

// probeForToken non-blockingly checks for an incoming checkpoint token and
// sets HoldsToken if one arrived.
func (w *Worker) probeForToken(ctx context.Context) error {
	if !w.IslandComm.Probe(fabric.DumpTag) {
		return nil
	}

	if _, _, err := w.IslandComm.Recv(ctx, fabric.DumpTag); err != nil {
		return fmt.Errorf("recv checkpoint token: %w", err)
	}

	w.HoldsToken = true

	return nil
}

// writeCheckpoint persists the full replica (active and inactive) to this
// island's checkpoint file, renaming any existing file to a .bkp sibling
// first (spec.md §4.5 steps 1-2). Filesystem errors here are logged and
// swallowed, per spec.md §7 ("transient file-system error"): the next
// token-holder will retry on its turn.
func (w *Worker) writeCheckpoint() error {
	if err := w.Checkpointer.Write(w.Island, w.Replica); err != nil {
		w.Logger.Warn().Err(err).Msg("checkpoint write failed, will retry on next token pass")
	}

	return nil
}
