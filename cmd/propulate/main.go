// Command propulate runs one distributed evolutionary optimization: a set
// of islands, each a group of workers cooperating through the in-process
// message-passing fabric in pkg/fabric.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tommoulard/propulate/pkg/breeding"
	"github.com/tommoulard/propulate/pkg/checkpoint"
	"github.com/tommoulard/propulate/pkg/config"
	"github.com/tommoulard/propulate/pkg/fabric"
	"github.com/tommoulard/propulate/pkg/individual"
	"github.com/tommoulard/propulate/pkg/island"
	"github.com/tommoulard/propulate/pkg/losses"
)

// cliFlags holds the options parsed from argv that are layered on top of
// any config file, mirroring the teacher's parseFlags/Config split.
type cliFlags struct {
	configFile    string
	generations   int
	checkpoint    string
	numIslands    int
	workersPer    int
	migrationProb float64
	debug         int
	seed          int64
}

func main() {
	flags := parseFlags()

	cfg, err := config.LoadFromFile(flags.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	applyFlagOverrides(&cfg, flags)

	if cfg.MigrationTopology == nil {
		cfg.MigrationTopology = defaultTopology(flags.numIslands)
		cfg.IslandDispls, cfg.IslandCounts = defaultPartition(flags.numIslands, flags.workersPer)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	runID := uuid.New()

	if err := run(ctx, cfg, runID); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Operation canceled by user")
			os.Exit(130)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() cliFlags {
	var f cliFlags

	flag.StringVar(&f.configFile, "config", "", "Configuration file (TOML/YAML/JSON)")
	flag.IntVar(&f.generations, "generations", 100, "Generations to run (-1 = unlimited)")
	flag.StringVar(&f.checkpoint, "checkpoint", "./checkpoints", "Checkpoint directory")
	flag.IntVar(&f.numIslands, "islands", 1, "Number of islands")
	flag.IntVar(&f.workersPer, "workers-per-island", 4, "Workers per island")
	flag.Float64Var(&f.migrationProb, "migration-prob", 0, "Per-generation migration probability")
	flag.IntVar(&f.debug, "debug", 1, "Debug verbosity (0, 1, or 2)")
	flag.Int64Var(&f.seed, "seed", time.Now().UnixNano(), "RNG seed")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "propulate - distributed evolutionary optimizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	return f
}

func applyFlagOverrides(cfg *config.Config, f cliFlags) {
	cfg.Generations = f.generations
	cfg.CheckpointPath = f.checkpoint
	cfg.MigrationProb = f.migrationProb
	cfg.Debug = f.debug
	cfg.Seed = f.seed
}

// defaultTopology builds a ring: island i migrates to island (i+1)%n.
func defaultTopology(n int) [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = make([]int, n)
		if n > 1 {
			m[i][(i+1)%n] = 1
		}
	}

	return m
}

func defaultPartition(numIslands, workersPer int) (displs, counts []int) {
	displs = make([]int, numIslands)
	counts = make([]int, numIslands)

	for i := 0; i < numIslands; i++ {
		displs[i] = i * workersPer
		counts[i] = workersPer
	}

	return displs, counts
}

var defaultBounds = map[string][2]float64{
	"x": {-5, 5},
	"y": {-5, 5},
}

// sphereLoss is the built-in loss function used when no domain-specific
// breeding operator is wired in by an embedding caller: minimizes the sum
// of squares of the trait values.
func sphereLoss(traits individual.Traits) float64 {
	var sum float64
	for _, v := range traits {
		sum += v * v
	}

	return sum
}

func run(ctx context.Context, cfg config.Config, runID uuid.UUID) error {
	logger := zerolog.New(zerolog.NewConsoleWriter()).
		With().Timestamp().Str("run_id", runID.String()).Logger()

	if cfg.Debug >= 2 {
		logger = logger.Level(zerolog.DebugLevel)
	} else if cfg.Debug == 1 {
		logger = logger.Level(zerolog.InfoLevel)
	} else {
		logger = logger.Level(zerolog.WarnLevel)
	}

	logger.Info().
		Int("islands", cfg.NumIslands()).
		Int("generations", cfg.Generations).
		Str("variant", cfg.MigrationVariant.String()).
		Msg("starting propulate run")

	worldSize := 0
	islandRanks := make([][]int, cfg.NumIslands())

	for i := 0; i < cfg.NumIslands(); i++ {
		ranks := make([]int, cfg.IslandCounts[i])
		for j := range ranks {
			ranks[j] = cfg.IslandDispls[i] + j
		}

		islandRanks[i] = ranks
		worldSize += cfg.IslandCounts[i]
	}

	world := fabric.NewWorld(worldSize, islandRanks)

	store := checkpoint.NewStore(cfg.CheckpointPath)

	var strategy island.Strategy = island.RealMigrationStrategy{}
	if cfg.MigrationVariant == config.Pollination {
		strategy = island.PollinationStrategy{}
	}

	lossFn := losses.FuncAdapter(sphereLoss)

	g, ctx := errgroup.WithContext(ctx)

	for isl := 0; isl < cfg.NumIslands(); isl++ {
		for local := 0; local < cfg.IslandCounts[isl]; local++ {
			rank := cfg.IslandDispls[isl] + local

			rng := rand.New(rand.NewSource(cfg.Seed + int64(rank)))
			driver := breeding.NewDriver(
				breeding.NewRandomWalk(defaultBounds, 0.1),
				lossFn,
				losses.Noop{},
				rank, isl, rng,
			)

			w := island.NewWorker(
				rank, isl,
				world.WorldComm(rank), world.IslandComm(rank),
				cfg, driver, breeding.SelectMin{}, strategy, store,
				logger.With().Int("island", isl).Int("rank", rank).Logger(),
				rng,
			)

			g.Go(func() error {
				return w.Run(ctx)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run %s failed: %w", runID, err)
	}

	logger.Info().Msg("run complete")

	return nil
}
