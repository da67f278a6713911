// Package config holds the run configuration for a propulate optimization:
// island topology, migration behaviour, checkpointing, and logging
// verbosity.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Variant selects which migration strategy an island runs.
type Variant int

const (
	// RealMigration removes emigrants from the sending island.
	RealMigration Variant = iota
	// Pollination duplicates emigrants instead of removing them.
	Pollination
)

func (v Variant) String() string {
	if v == Pollination {
		return "pollination"
	}

	return "real-migration"
}

// Config holds the options for a propulate run. The emigration propagator
// is not one of them: cmd/propulate always uses breeding.SelectMin.
type Config struct {
	Generations int `mapstructure:"generations"`

	MigrationProb     float64 `mapstructure:"migration_prob"`
	MigrationTopology [][]int `mapstructure:"migration_topology"`
	MigrationVariant  Variant `mapstructure:"-"`

	IslandDispls []int `mapstructure:"island_displs"`
	IslandCounts []int `mapstructure:"island_counts"`

	CheckpointPath string `mapstructure:"checkpoint_path"`

	LoggingInterval int `mapstructure:"logging_interval"`
	Debug           int `mapstructure:"debug"`

	Seed int64 `mapstructure:"seed"`
}

// Default returns a migration-disabled configuration with no topology or
// rank partition set: NumIslands reports 0 until MigrationTopology is filled
// in (cmd/propulate does so from its flags).
func Default() Config {
	return Config{
		Generations:      100,
		MigrationProb:    0,
		CheckpointPath:   "./checkpoints",
		LoggingInterval:  10,
		Debug:            1,
		MigrationVariant: RealMigration,
	}
}

// LoadFromFile layers a TOML/YAML/JSON config file (read through viper) on
// top of Default. An empty path is not an error and returns Default
// unchanged, for callers that only want flag-driven configuration; a
// non-empty path that cannot be read or parsed is an error.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// NumIslands returns the number of islands implied by the topology matrix.
func (c Config) NumIslands() int {
	return len(c.MigrationTopology)
}

// MigrationEnabled reports whether migration is configured at all.
func (c Config) MigrationEnabled() bool {
	return c.MigrationProb > 0
}

// Validate checks the invariants spec.md §3 and §6 require of the topology
// and rank partitioning before a run starts.
func (c Config) Validate() error {
	if c.Generations < 0 && c.Generations != -1 {
		return errors.New("generations must be -1 (unlimited) or non-negative")
	}

	if c.MigrationProb < 0 || c.MigrationProb > 1 {
		return errors.New("migration_prob must be in [0, 1]")
	}

	if !c.MigrationEnabled() {
		return nil
	}

	n := c.NumIslands()
	if n == 0 {
		return errors.New("migration_topology is required when migration_prob > 0")
	}

	for i, row := range c.MigrationTopology {
		if len(row) != n {
			return fmt.Errorf("migration_topology row %d has %d entries, want %d (non-square matrix)", i, len(row), n)
		}

		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("migration_topology[%d][%d] is negative", i, j)
			}

			if i == j && v != 0 {
				return fmt.Errorf("migration_topology[%d][%d] must be 0 (an island cannot migrate to itself)", i, j)
			}
		}
	}

	if len(c.IslandDispls) != n || len(c.IslandCounts) != n {
		return fmt.Errorf("island_displs/island_counts must have %d entries, one per island", n)
	}

	for i, count := range c.IslandCounts {
		if count <= 0 {
			return fmt.Errorf("island_counts[%d] must be positive", i)
		}
	}

	return nil
}

// RowSum returns sum(M[island]), the number of individuals an island's
// workers collectively send out per migration event.
func (c Config) RowSum(island int) int {
	total := 0
	for _, v := range c.MigrationTopology[island] {
		total += v
	}

	return total
}
