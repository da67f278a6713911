package breeding

import "github.com/tommoulard/propulate/pkg/individual"

// EmigrationPropagator selects which eligible individuals leave an island
// during a migration event (spec.md §4.3.1). The default, SelectMin, is
// named explicitly in spec.md §6.
type EmigrationPropagator interface {
	Select(eligible individual.Population, count int) individual.Population
}

// SelectMin selects the count lowest-loss individuals, grounded on the
// teacher's eliteSelect (pkg/genetic/selection.go): sort by fitness and
// take a prefix, except here lower loss is better rather than higher
// fitness.
type SelectMin struct{}

// Select implements EmigrationPropagator.
func (SelectMin) Select(eligible individual.Population, count int) individual.Population {
	sorted := make(individual.Population, len(eligible))
	copy(sorted, eligible)

	// Simple insertion sort ascending by loss: count is always small
	// relative to island population sizes in practice, and this avoids
	// pulling in sort.Slice's closure allocation for a hot path.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Loss < sorted[j-1].Loss; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	if count > len(sorted) {
		count = len(sorted)
	}

	out := make(individual.Population, count)
	for i := 0; i < count; i++ {
		out[i] = sorted[i].Clone()
	}

	return out
}

var _ EmigrationPropagator = SelectMin{}
