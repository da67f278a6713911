package island

import (
	"context"
	"fmt"

	"github.com/tommoulard/propulate/pkg/fabric"
	"github.com/tommoulard/propulate/pkg/individual"
)

// broadcast sends a deep copy of ind to every other worker in this
// worker's island, tagged INDIVIDUAL (spec.md §4.2).
func (w *Worker) broadcast(ctx context.Context, ind individual.Individual) error {
	for r := 0; r < w.IslandComm.Size(); r++ {
		if r == w.IslandComm.Rank() {
			continue
		}

		if err := w.IslandComm.Send(ctx, r, fabric.IndividualTag, ind.Clone()); err != nil {
			return fmt.Errorf("broadcast individual to island peer %d: %w", r, err)
		}
	}

	return nil
}

// drainInbox non-blockingly drains INDIVIDUAL messages from island peers
// and appends each to the local replica, in arrival order. Ordering across
// senders is not guaranteed and R1 does not require it (spec.md §4.2).
func (w *Worker) drainInbox(ctx context.Context) error {
	for w.IslandComm.Probe(fabric.IndividualTag) {
		_, payload, err := w.IslandComm.Recv(ctx, fabric.IndividualTag)
		if err != nil {
			return fmt.Errorf("recv individual: %w", err)
		}

		ind, _ := payload.(individual.Individual)
		w.Replica = append(w.Replica, ind)
	}

	return nil
}
