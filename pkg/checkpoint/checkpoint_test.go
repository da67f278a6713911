package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tommoulard/propulate/pkg/individual"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	replica := individual.Population{
		individual.New(individual.Traits{"x": 0.5}, 0, 0, 0),
		individual.New(individual.Traits{"x": 0.25}, 1, 1, 0),
	}
	replica[1].Active = false

	if err := store.Write(0, replica); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := store.Read(0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !individual.EqualMultiset(got, replica) {
		t.Errorf("round trip mismatch: got %v, want %v", got, replica)
	}
}

func TestWriteBacksUpExistingFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	first := individual.Population{individual.New(individual.Traits{"x": 1}, 0, 0, 0)}
	if err := store.Write(0, first); err != nil {
		t.Fatalf("first Write: %v", err)
	}

	second := individual.Population{individual.New(individual.Traits{"x": 2}, 1, 0, 0)}
	if err := store.Write(0, second); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	bkp := filepath.Join(dir, "island_0_ckpt.json.bkp")
	if _, err := store.Read(0); err != nil {
		t.Fatalf("Read after second write: %v", err)
	}

	if _, err := os.Stat(bkp); err != nil {
		t.Errorf("expected backup file %s to exist: %v", bkp, err)
	}
}

func TestWriteContinuesWhenBackupRenameFails(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	first := individual.Population{individual.New(individual.Traits{"x": 1}, 0, 0, 0)}
	if err := store.Write(0, first); err != nil {
		t.Fatalf("first Write: %v", err)
	}

	// Occupy the .bkp path with a non-empty directory so the rename in the
	// second Write fails; the write of the new content must still happen.
	bkp := filepath.Join(dir, "island_0_ckpt.json.bkp")
	if err := os.Mkdir(bkp, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", bkp, err)
	}

	if err := os.WriteFile(filepath.Join(bkp, "occupied"), []byte("x"), 0o644); err != nil {
		t.Fatalf("populate %s: %v", bkp, err)
	}

	second := individual.Population{individual.New(individual.Traits{"x": 2}, 1, 0, 0)}
	if err := store.Write(0, second); err != nil {
		t.Fatalf("Write should succeed despite backup rename failure: %v", err)
	}

	got, err := store.Read(0)
	if err != nil {
		t.Fatalf("Read after second write: %v", err)
	}

	if !individual.EqualMultiset(got, second) {
		t.Errorf("expected checkpoint content to be overwritten despite rename failure: got %v, want %v", got, second)
	}
}
