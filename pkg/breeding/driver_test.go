package breeding

import (
	"math/rand"
	"testing"

	"github.com/tommoulard/propulate/pkg/individual"
	"github.com/tommoulard/propulate/pkg/losses"
)

func TestEvaluateOneAppliesFinalLoss(t *testing.T) {
	prop := NewRandomWalk(map[string][2]float64{"x": {0, 1}}, 0.1)
	loss := losses.FuncAdapter(func(t individual.Traits) float64 { return t["x"] * 2 })

	driver := NewDriver(prop, loss, nil, 0, 0, rand.New(rand.NewSource(1)))

	ind := driver.EvaluateOne(nil, 0)
	if ind.Loss != ind.Traits["x"]*2 {
		t.Errorf("loss mismatch: got %f, want %f", ind.Loss, ind.Traits["x"]*2)
	}

	if !ind.Active || ind.Generation != 0 || ind.Current != 0 {
		t.Errorf("unexpected lifecycle fields on freshly bred individual: %+v", ind)
	}
}

type cancelAfterOne struct{}

func (cancelAfterOne) StartRun(individual.Individual) {}
func (cancelAfterOne) Update(float64)                 {}
func (cancelAfterOne) Cancel(float64) bool            { return true }
func (cancelAfterOne) Merge(any)                      {}
func (cancelAfterOne) Data() any                      { return nil }

func TestEvaluateOneSurrogateCancelAdoptsLastValue(t *testing.T) {
	prop := NewRandomWalk(map[string][2]float64{"x": {0, 1}}, 0.1)
	seq := losses.NewSliceSequence([]float64{5, 10, 15})
	loss := sliceFn{seq: seq}

	driver := NewDriver(prop, loss, cancelAfterOne{}, 0, 0, rand.New(rand.NewSource(1)))

	ind := driver.EvaluateOne(nil, 0)
	if ind.Loss != 5 {
		t.Errorf("expected surrogate cancel to adopt first observed value 5, got %f", ind.Loss)
	}
}

type sliceFn struct{ seq *losses.SliceSequence }

func (s sliceFn) Evaluate(individual.Traits) losses.Sequence { return s.seq }
