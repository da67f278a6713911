package island

import (
	"context"
	"fmt"

	"github.com/tommoulard/propulate/pkg/fabric"
	"github.com/tommoulard/propulate/pkg/individual"
)

// drainDeactivations absorbs pending SYNCHRONIZATION notices into the
// emigrated log, then attempts to resolve every entry in the log against
// the local replica (spec.md §4.3.4): a resolved entry is flipped inactive
// and removed from the log; an unresolved one (the matching INDIVIDUAL
// message has not arrived yet) remains for a later call.
func (w *Worker) drainDeactivations(ctx context.Context) error {
	for w.IslandComm.Probe(fabric.SynchronizationTag) {
		_, payload, err := w.IslandComm.Recv(ctx, fabric.SynchronizationTag)
		if err != nil {
			return fmt.Errorf("recv deactivation notice: %w", err)
		}

		batch, _ := payload.(individual.Population)
		w.Emigrated = append(w.Emigrated, batch.Clone()...)
	}

	if len(w.Emigrated) == 0 {
		return nil
	}

	remaining := w.Emigrated[:0:0]

	for _, target := range w.Emigrated {
		idx := w.Replica.FindReplicaEntry(target)
		if idx == -1 {
			remaining = append(remaining, target)
			continue
		}

		if count := w.Replica.CountReplicaEntries(target); count != 1 {
			return w.invariantViolation("deactivation: expected exactly one matching replica entry for %v, found %d", target, count)
		}

		w.Replica[idx].Active = false
	}

	w.Emigrated = remaining

	return nil
}

// drainTermination runs the multi-phase shutdown barrier sequence of
// spec.md §4.6: every worker drains and acknowledges outstanding traffic
// before anyone writes a final checkpoint, so no in-flight message is lost.
func (w *Worker) drainTermination(ctx context.Context) error {
	if err := w.WorldComm.Barrier(ctx); err != nil {
		return fmt.Errorf("termination barrier 1: %w", err)
	}

	if err := w.drainInbox(ctx); err != nil {
		return err
	}

	if err := w.WorldComm.Barrier(ctx); err != nil {
		return fmt.Errorf("termination barrier 2: %w", err)
	}

	if w.Config.MigrationEnabled() {
		if err := w.drainImmigrants(ctx); err != nil {
			return err
		}

		if err := w.WorldComm.Barrier(ctx); err != nil {
			return fmt.Errorf("termination barrier 3: %w", err)
		}

		if err := w.drainDeactivations(ctx); err != nil {
			return err
		}

		if len(w.Emigrated) > 0 {
			// Single retry: a peer's deactivation notice may simply not have
			// arrived before the previous drain ran.
			if err := w.drainDeactivations(ctx); err != nil {
				return err
			}
		}

		if len(w.Emigrated) > 0 {
			return ErrEmigratedLogNotEmpty
		}
	}

	if err := w.WorldComm.Barrier(ctx); err != nil {
		return fmt.Errorf("termination barrier 4: %w", err)
	}

	// Whichever worker holds the token at this point writes, with no check
	// for an existing checkpoint file (spec.md §4.6 step 5). If the token is
	// still in transit between workers, no worker writes here; the lingering
	// token is drained below.
	if w.HoldsToken {
		if err := w.Checkpointer.Write(w.Island, w.Replica); err != nil {
			w.Logger.Warn().Err(err).Msg("final checkpoint write failed")
		}
	}

	if err := w.WorldComm.Barrier(ctx); err != nil {
		return fmt.Errorf("termination barrier 5: %w", err)
	}

	for w.IslandComm.Probe(fabric.DumpTag) {
		if _, _, err := w.IslandComm.Recv(ctx, fabric.DumpTag); err != nil {
			return fmt.Errorf("drain lingering checkpoint token: %w", err)
		}
	}

	if err := w.WorldComm.Barrier(ctx); err != nil {
		return fmt.Errorf("termination barrier 6: %w", err)
	}

	return nil
}
