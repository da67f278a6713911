package island

import (
	"context"
	"fmt"

	"github.com/tommoulard/propulate/pkg/fabric"
	"github.com/tommoulard/propulate/pkg/individual"
)

// Strategy is the migration-variant capability set spec.md §9 calls for:
// a single orchestrator parameterized by whether emigrants are removed
// from the sending island (RealMigration) or duplicated (Pollination).
type Strategy interface {
	// deactivateLocally reports whether the sending worker must flip its
	// own replica entries to inactive and broadcast deactivation notices
	// to its island peers, per spec.md §4.3.1 step 1 and step 4.
	deactivateLocally() bool
}

// RealMigrationStrategy implements spec.md §4.3.1: emigrants are removed
// (deactivated) from the source island.
type RealMigrationStrategy struct{}

func (RealMigrationStrategy) deactivateLocally() bool { return true }

// PollinationStrategy implements spec.md §4.3.2: emigrants are duplicated,
// never deactivated on the source island.
type PollinationStrategy struct{}

func (PollinationStrategy) deactivateLocally() bool { return false }

// maybeSendEmigrants runs one migration event for this worker, per
// spec.md §4.3.1 and §4.3.2. It is a no-op, logged at debug level 2, when
// the worker does not currently hold enough eligible individuals to satisfy
// the topology (spec.md §4.3.1, "skip this migration event entirely").
func (w *Worker) maybeSendEmigrants(ctx context.Context) error {
	row := w.Config.MigrationTopology[w.Island]
	total := w.Config.RowSum(w.Island)

	if total == 0 {
		return nil
	}

	eligible := w.Replica.Owned(w.Rank)
	if len(eligible) < total {
		if w.Config.Debug >= 2 {
			w.Logger.Debug().
				Int("eligible", len(eligible)).
				Int("required", total).
				Msg("migration event skipped: under-population")
		}

		return nil
	}

	chosen := w.EmigrationPropagator.Select(eligible, total)
	w.RNG.Shuffle(len(chosen), func(i, j int) { chosen[i], chosen[j] = chosen[j], chosen[i] })

	offset := 0

	for destIsland, count := range row {
		if count == 0 {
			continue
		}

		batch := chosen[offset : offset+count]
		offset += count

		if err := w.sendBatch(ctx, destIsland, batch); err != nil {
			return err
		}
	}

	return nil
}

func (w *Worker) sendBatch(ctx context.Context, destIsland int, batch individual.Population) error {
	if w.Strategy.deactivateLocally() {
		if err := w.broadcastDeactivation(ctx, batch); err != nil {
			return err
		}
	}

	departing := batch.Clone()

	displ := w.Config.IslandDispls[destIsland]
	count := w.Config.IslandCounts[destIsland]
	for i := range departing {
		departing[i].Current = displ + w.RNG.Intn(count)
	}

	if err := w.sendToIsland(ctx, destIsland, departing); err != nil {
		return err
	}

	if w.Strategy.deactivateLocally() {
		if err := w.deactivateOwnEmigrants(batch); err != nil {
			return err
		}
	}

	return nil
}

// broadcastDeactivation sends batch, tagged SYNCHRONIZATION, to every other
// worker on this island (spec.md §4.3.1 step 1).
func (w *Worker) broadcastDeactivation(ctx context.Context, batch individual.Population) error {
	for r := 0; r < w.IslandComm.Size(); r++ {
		if r == w.IslandComm.Rank() {
			continue
		}

		if err := w.IslandComm.Send(ctx, r, fabric.SynchronizationTag, batch.Clone()); err != nil {
			return fmt.Errorf("broadcast deactivation to island peer %d: %w", r, err)
		}
	}

	return nil
}

// sendToIsland sends departing, tagged MIGRATION, to every world-rank
// worker on destIsland (spec.md §4.3.1 step 3).
func (w *Worker) sendToIsland(ctx context.Context, destIsland int, departing individual.Population) error {
	displ := w.Config.IslandDispls[destIsland]
	count := w.Config.IslandCounts[destIsland]

	for r := displ; r < displ+count; r++ {
		if err := w.WorldComm.Send(ctx, r, fabric.MigrationTag, departing.Clone()); err != nil {
			return fmt.Errorf("send emigrants to world rank %d on island %d: %w", r, destIsland, err)
		}
	}

	return nil
}

// deactivateOwnEmigrants locates the unique replica entry matching each
// emigrant under identical-replica-entry equivalence and flips it inactive
// (spec.md §4.3.1 step 4).
func (w *Worker) deactivateOwnEmigrants(batch individual.Population) error {
	for _, emigrant := range batch {
		idx := w.Replica.FindReplicaEntry(emigrant)
		count := w.Replica.CountReplicaEntries(emigrant)

		if count != 1 {
			return w.invariantViolation("self-deactivation: expected exactly one matching replica entry for emigrant %v, found %d", emigrant, count)
		}

		w.Replica[idx].Active = false
	}

	return nil
}

// drainImmigrants non-blockingly drains MIGRATION messages from the world
// communicator, per spec.md §4.3.3.
func (w *Worker) drainImmigrants(ctx context.Context) error {
	for w.WorldComm.Probe(fabric.MigrationTag) {
		_, payload, err := w.WorldComm.Recv(ctx, fabric.MigrationTag)
		if err != nil {
			return fmt.Errorf("recv immigrants: %w", err)
		}

		batch, _ := payload.(individual.Population)

		for _, immigrant := range batch {
			immigrant.MigrationSteps++

			if !immigrant.Active {
				return w.invariantViolation("received inactive immigrant %v", immigrant)
			}

			if w.Strategy.deactivateLocally() && w.Replica.CountReplicaEntries(immigrant) > 0 {
				return w.invariantViolation("catastrophic duplicate immigrant %v already present in replica", immigrant)
			}

			w.Replica = append(w.Replica, immigrant.Clone())
		}
	}

	return nil
}

var _ Strategy = RealMigrationStrategy{}
var _ Strategy = PollinationStrategy{}
