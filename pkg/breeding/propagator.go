// Package breeding wraps the external breeding operator (spec.md §6, out of
// scope arithmetic) in a driver that performs the in-scope parts: sampling
// the active replica, invoking the operator and the loss function, and
// running the optional surrogate loop.
package breeding

import (
	"math/rand"

	"github.com/tommoulard/propulate/pkg/individual"
)

// Propagator is the breeding operator: a function from an ordered sample of
// active Individuals to a new Individual's traits. It may be stateful
// across calls on the same worker (e.g. CMA-ES covariance adaptation) but
// must not depend on the sample's order beyond reproducibility via rng.
type Propagator interface {
	Propagate(sample individual.Population, rng *rand.Rand) individual.Traits
}

// RandomWalk is a minimal concrete Propagator: it perturbs a random
// parent's traits by a bounded uniform step, or draws traits uniformly from
// Bounds if the sample is empty (first generation). It exists so the
// protocol is runnable end-to-end without a user-supplied CMA-ES/GA
// propagator; the spec explicitly treats real breeding arithmetic as an
// opaque external collaborator.
type RandomWalk struct {
	Bounds map[string][2]float64
	Step   float64
}

// NewRandomWalk builds a RandomWalk propagator over the given parameter
// bounds with the given per-trait step size.
func NewRandomWalk(bounds map[string][2]float64, step float64) *RandomWalk {
	return &RandomWalk{Bounds: bounds, Step: step}
}

// Propagate implements Propagator.
func (rw *RandomWalk) Propagate(sample individual.Population, rng *rand.Rand) individual.Traits {
	if len(sample) == 0 {
		return rw.randomTraits(rng)
	}

	parent := sample[rng.Intn(len(sample))]
	child := make(individual.Traits, len(parent.Traits))

	for name, value := range parent.Traits {
		lo, hi := rw.boundsFor(name)
		next := value + (rng.Float64()*2-1)*rw.Step
		child[name] = clamp(next, lo, hi)
	}

	return child
}

func (rw *RandomWalk) randomTraits(rng *rand.Rand) individual.Traits {
	traits := make(individual.Traits, len(rw.Bounds))
	for name, bound := range rw.Bounds {
		traits[name] = bound[0] + rng.Float64()*(bound[1]-bound[0])
	}

	return traits
}

func (rw *RandomWalk) boundsFor(name string) (float64, float64) {
	if b, ok := rw.Bounds[name]; ok {
		return b[0], b[1]
	}

	return -1e300, 1e300
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
