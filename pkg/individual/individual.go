// Package individual implements the candidate record and population replica
// data model shared by every worker in a propulate run.
package individual

import "fmt"

// Traits is a candidate's parameter assignment: a mapping from parameter
// name to scalar value. The breeding operator (out of scope here, see
// pkg/breeding) is the only thing that produces new trait maps.
type Traits map[string]float64

// Clone returns a deep copy of the trait map.
func (t Traits) Clone() Traits {
	if t == nil {
		return nil
	}

	clone := make(Traits, len(t))
	for k, v := range t {
		clone[k] = v
	}

	return clone
}

// Equal reports whether two trait maps hold the same key/value pairs.
func (t Traits) Equal(other Traits) bool {
	if len(t) != len(other) {
		return false
	}

	for k, v := range t {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}

	return true
}

// Unevaluated is the sentinel loss value for an individual that has not yet
// been scored by the loss function.
const Unevaluated = float64(-1)

// Individual is a single candidate solution and its lifecycle state, per
// spec.md §3.
type Individual struct {
	Traits Traits

	Loss float64

	Generation int
	Rank       int
	Island     int

	// Current is the rank of the worker currently responsible for this
	// individual; it changes when the individual migrates.
	Current int

	// MigrationSteps counts how many times this individual has crossed an
	// island boundary.
	MigrationSteps int

	// Active is false for individuals that have emigrated (real migration)
	// and are therefore invisible to selection on their origin island.
	Active bool
}

// New constructs a freshly bred, active, zero-migration individual owned by
// the worker that bred it.
func New(traits Traits, generation, rank, island int) Individual {
	return Individual{
		Traits:     traits,
		Loss:       Unevaluated,
		Generation: generation,
		Rank:       rank,
		Island:     island,
		Current:    rank,
		Active:     true,
	}
}

// Clone returns a deep copy, including its trait map. Every send across the
// fabric must carry a clone so a later local mutation (e.g. deactivation)
// cannot reach back into an in-flight message, per spec.md §9's deep-copy
// discipline.
func (ind Individual) Clone() Individual {
	clone := ind
	clone.Traits = ind.Traits.Clone()

	return clone
}

// Equal implements candidate identity: traits, generation, rank, and island
// all equal. Loss, Active, Current, and MigrationSteps are disregarded.
func (ind Individual) Equal(other Individual) bool {
	return ind.Generation == other.Generation &&
		ind.Rank == other.Rank &&
		ind.Island == other.Island &&
		ind.Traits.Equal(other.Traits)
}

// SameReplicaEntry implements the stronger identical-replica-entry
// equivalence: candidate identity plus equal MigrationSteps and Current.
// The protocol uses this to locate the exact replica entry to deactivate,
// and to detect a catastrophic duplicate immigrant.
func (ind Individual) SameReplicaEntry(other Individual) bool {
	return ind.Equal(other) &&
		ind.MigrationSteps == other.MigrationSteps &&
		ind.Current == other.Current
}

// String renders a compact diagnostic form, used in invariant-violation
// error messages.
func (ind Individual) String() string {
	return fmt.Sprintf("Individual{gen=%d rank=%d island=%d current=%d steps=%d active=%t loss=%v traits=%v}",
		ind.Generation, ind.Rank, ind.Island, ind.Current, ind.MigrationSteps, ind.Active, ind.Loss, ind.Traits)
}

// Population is a worker's ordered replica of the evolutionary population.
// Per spec.md §3 it is append-only for insertion; Active is the only field
// ever mutated in place after append.
type Population []Individual

// Active returns the subset of the population visible to selection.
func (p Population) Active() Population {
	out := make(Population, 0, len(p))

	for _, ind := range p {
		if ind.Active {
			out = append(out, ind)
		}
	}

	return out
}

// Owned returns the individuals this worker currently is responsible for
// (active and Current == rank) — the eligible-emigrant set of spec.md
// §4.3.1.
func (p Population) Owned(rank int) Population {
	out := make(Population, 0, len(p))

	for _, ind := range p {
		if ind.Active && ind.Current == rank {
			out = append(out, ind)
		}
	}

	return out
}

// FindReplicaEntry returns the index of the unique replica entry that is
// SameReplicaEntry to target, or -1 if none exists.
func (p Population) FindReplicaEntry(target Individual) int {
	found := -1

	for i, ind := range p {
		if ind.SameReplicaEntry(target) {
			found = i
		}
	}

	return found
}

// CountReplicaEntries counts replica entries SameReplicaEntry to target; the
// protocol asserts this is exactly one when deactivating an entry (spec.md
// §4.3.1 step 4) and zero before appending an immigrant (spec.md §4.3.3).
func (p Population) CountReplicaEntries(target Individual) int {
	n := 0

	for _, ind := range p {
		if ind.SameReplicaEntry(target) {
			n++
		}
	}

	return n
}

// Clone returns a deep copy of the population, safe to send across the
// fabric.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i, ind := range p {
		out[i] = ind.Clone()
	}

	return out
}

// EqualMultiset reports whether two populations hold the same multiset of
// Individuals under full equality (including Active) — the convergence
// check of spec.md §8 property 1 (R1).
func EqualMultiset(a, b Population) bool {
	if len(a) != len(b) {
		return false
	}

	used := make([]bool, len(b))

	for _, ai := range a {
		matched := false

		for j, bj := range b {
			if used[j] {
				continue
			}

			if fullEqual(ai, bj) {
				used[j] = true
				matched = true

				break
			}
		}

		if !matched {
			return false
		}
	}

	return true
}

func fullEqual(a, b Individual) bool {
	return a.SameReplicaEntry(b) && a.Loss == b.Loss && a.Active == b.Active
}
