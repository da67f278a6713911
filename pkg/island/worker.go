// Package island implements a single worker's side of the propulate
// migration protocol: breeding a new individual each generation,
// broadcasting it to island peers, running real migration or pollination
// against other islands, and rotating the checkpoint token.
package island

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/tommoulard/propulate/pkg/breeding"
	"github.com/tommoulard/propulate/pkg/checkpoint"
	"github.com/tommoulard/propulate/pkg/config"
	"github.com/tommoulard/propulate/pkg/fabric"
	"github.com/tommoulard/propulate/pkg/individual"
)

// Worker runs one rank's side of the protocol. Replica is this worker's
// local view of the population (spec.md §3); Emigrated is the pending
// deactivation log for real migration (spec.md §4.3.4).
type Worker struct {
	Rank   int
	Island int

	WorldComm  fabric.Communicator
	IslandComm fabric.Communicator

	Config config.Config

	Driver               *breeding.Driver
	EmigrationPropagator breeding.EmigrationPropagator
	Strategy             Strategy
	Checkpointer         checkpoint.Writer
	Logger               zerolog.Logger

	RNG *rand.Rand

	Replica   individual.Population
	Emigrated individual.Population

	Generation int
	HoldsToken bool
}

// NewWorker builds a Worker. The island's intra-island rank 0 starts as the
// checkpoint-ring token holder, per spec.md §4.5.
func NewWorker(
	rank, island int,
	worldComm, islandComm fabric.Communicator,
	cfg config.Config,
	driver *breeding.Driver,
	emigrationPropagator breeding.EmigrationPropagator,
	strategy Strategy,
	checkpointer checkpoint.Writer,
	logger zerolog.Logger,
	rng *rand.Rand,
) *Worker {
	return &Worker{
		Rank:                 rank,
		Island:               island,
		WorldComm:            worldComm,
		IslandComm:           islandComm,
		Config:               cfg,
		Driver:               driver,
		EmigrationPropagator: emigrationPropagator,
		Strategy:             strategy,
		Checkpointer:         checkpointer,
		Logger:               logger,
		RNG:                  rng,
		HoldsToken:           islandComm.Rank() == 0,
	}
}

// Run drives the generation loop of spec.md §4.7 until the configured
// generation count is reached (or indefinitely, when Generations is -1),
// then performs the termination drain of §4.6.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.WorldComm.Barrier(ctx); err != nil {
		return fmt.Errorf("island %d worker %d: initial barrier: %w", w.Island, w.Rank, err)
	}

	for w.Config.Generations < 0 || w.Generation < w.Config.Generations {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ind := w.Driver.EvaluateOne(w.Replica, w.Generation)
		w.Replica = append(w.Replica, ind)

		if err := w.broadcast(ctx, ind); err != nil {
			return err
		}

		if err := w.drainInbox(ctx); err != nil {
			return err
		}

		if w.Config.MigrationEnabled() {
			if w.RNG.Float64() < w.Config.MigrationProb {
				if err := w.maybeSendEmigrants(ctx); err != nil {
					return err
				}
			}

			if err := w.drainImmigrants(ctx); err != nil {
				return err
			}

			if err := w.drainDeactivations(ctx); err != nil {
				return err
			}
		}

		if err := w.maybeWriteAndForwardToken(ctx); err != nil {
			return err
		}

		if err := w.probeForToken(ctx); err != nil {
			return err
		}

		if w.Config.Debug >= 1 && w.Config.LoggingInterval > 0 && w.Generation%w.Config.LoggingInterval == 0 {
			w.Logger.Info().
				Int("island", w.Island).
				Int("rank", w.Rank).
				Int("generation", w.Generation).
				Int("replica_size", len(w.Replica)).
				Msg("generation complete")
		}

		w.Generation++
	}

	return w.drainTermination(ctx)
}
