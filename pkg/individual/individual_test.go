package individual

import "testing"

func TestCloneIsIndependent(t *testing.T) {
	original := New(Traits{"x": 1.0, "y": 2.0}, 0, 0, 0)
	original.Loss = 0.5

	clone := original.Clone()
	clone.Traits["x"] = 99.0
	clone.Loss = 1.5

	if original.Traits["x"] != 1.0 {
		t.Errorf("mutating clone traits affected original: got %f, want 1.0", original.Traits["x"])
	}

	if original.Loss != 0.5 {
		t.Errorf("mutating clone loss affected original: got %f, want 0.5", original.Loss)
	}
}

func TestEqualIgnoresLossActiveCurrentSteps(t *testing.T) {
	a := New(Traits{"x": 1.0}, 3, 1, 0)
	b := a.Clone()
	b.Loss = 42
	b.Active = false
	b.Current = 7
	b.MigrationSteps = 2

	if !a.Equal(b) {
		t.Error("Equal should disregard loss, active, current, migration_steps")
	}

	if a.SameReplicaEntry(b) {
		t.Error("SameReplicaEntry should require equal current and migration_steps")
	}
}

func TestEqualRequiresMatchingIdentity(t *testing.T) {
	a := New(Traits{"x": 1.0}, 0, 0, 0)

	cases := []Individual{
		New(Traits{"x": 2.0}, 0, 0, 0),
		New(Traits{"x": 1.0}, 1, 0, 0),
		New(Traits{"x": 1.0}, 0, 1, 0),
		New(Traits{"x": 1.0}, 0, 0, 1),
	}

	for i, c := range cases {
		if a.Equal(c) {
			t.Errorf("case %d: expected non-equal candidate identity", i)
		}
	}
}

func TestPopulationOwnedFiltersActiveAndCurrent(t *testing.T) {
	pop := Population{
		New(Traits{"x": 1.0}, 0, 0, 0),
		New(Traits{"x": 2.0}, 0, 0, 0),
	}
	pop[1].Active = false

	owned := pop.Owned(0)
	if len(owned) != 1 {
		t.Fatalf("expected 1 owned individual, got %d", len(owned))
	}

	pop[0].Current = 1
	owned = pop.Owned(0)

	if len(owned) != 0 {
		t.Fatalf("expected 0 owned individuals after reassigning current, got %d", len(owned))
	}
}

func TestFindReplicaEntryUniqueMatch(t *testing.T) {
	target := New(Traits{"x": 1.0}, 0, 0, 0)
	pop := Population{target.Clone(), New(Traits{"x": 2.0}, 0, 0, 0)}

	idx := pop.FindReplicaEntry(target)
	if idx != 0 {
		t.Fatalf("expected match at index 0, got %d", idx)
	}

	if pop.CountReplicaEntries(target) != 1 {
		t.Fatalf("expected exactly one replica entry match")
	}

	missing := New(Traits{"x": 3.0}, 0, 0, 0)
	if pop.FindReplicaEntry(missing) != -1 {
		t.Fatalf("expected no match for absent individual")
	}
}

func TestEqualMultisetIgnoresOrder(t *testing.T) {
	a := Population{
		New(Traits{"x": 1.0}, 0, 0, 0),
		New(Traits{"x": 2.0}, 0, 1, 0),
	}
	b := Population{a[1].Clone(), a[0].Clone()}

	if !EqualMultiset(a, b) {
		t.Error("EqualMultiset should be order-independent")
	}

	b[0].Active = false
	if EqualMultiset(a, b) {
		t.Error("EqualMultiset should consider the Active flag")
	}
}
