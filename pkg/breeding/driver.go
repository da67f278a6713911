package breeding

import (
	"math/rand"

	"github.com/tommoulard/propulate/pkg/individual"
	"github.com/tommoulard/propulate/pkg/losses"
)

// Driver invokes the breeding operator against the active replica and
// evaluates its loss, optionally gated by a surrogate (spec.md §4.1).
type Driver struct {
	Propagator Propagator
	Loss       losses.Function
	Surrogate  losses.Surrogate

	Rank   int
	Island int

	RNG *rand.Rand
}

// NewDriver builds a Driver. A nil surrogate is replaced with losses.Noop,
// per spec.md §4.4 ("a missing surrogate is equivalent to one whose cancel
// always returns false").
func NewDriver(propagator Propagator, loss losses.Function, surrogate losses.Surrogate, rank, island int, rng *rand.Rand) *Driver {
	if surrogate == nil {
		surrogate = losses.Noop{}
	}

	return &Driver{
		Propagator: propagator,
		Loss:       loss,
		Surrogate:  surrogate,
		Rank:       rank,
		Island:     island,
		RNG:        rng,
	}
}

// EvaluateOne breeds and scores a single new Individual against the given
// replica's active subset. The caller is responsible for appending the
// result to the local replica and broadcasting it (pkg/island handles
// that); the driver itself never mutates the replica. The result also
// depends on, and advances, the driver's RNG and surrogate state.
func (d *Driver) EvaluateOne(replica individual.Population, generation int) individual.Individual {
	sample := replica.Active()
	traits := d.Propagator.Propagate(sample, d.RNG)
	ind := individual.New(traits, generation, d.Rank, d.Island)

	d.Surrogate.StartRun(ind)

	seq := d.Loss.Evaluate(traits)

	var last float64

	for {
		value, final := seq.Next()
		last = value

		d.Surrogate.Update(value)

		if d.Surrogate.Cancel(value) {
			break
		}

		if final {
			break
		}
	}

	ind.Loss = last

	return ind
}
