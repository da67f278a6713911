package losses

import "github.com/tommoulard/propulate/pkg/individual"

// Surrogate is the capability set spec.md §4.4 names. merge/data are
// reserved for island-boundary exchange of surrogate state and are not
// required for protocol correctness; a Noop implementation is equivalent to
// having no surrogate at all.
type Surrogate interface {
	StartRun(ind individual.Individual)
	Update(loss float64)
	Cancel(loss float64) bool
	Merge(data any)
	Data() any
}

// Noop is the default surrogate: update is a no-op and cancel never fires.
type Noop struct{}

// StartRun implements Surrogate.
func (Noop) StartRun(individual.Individual) {}

// Update implements Surrogate.
func (Noop) Update(float64) {}

// Cancel implements Surrogate.
func (Noop) Cancel(float64) bool { return false }

// Merge implements Surrogate.
func (Noop) Merge(any) {}

// Data implements Surrogate.
func (Noop) Data() any { return nil }

var _ Surrogate = Noop{}
