package fabric

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSendRecvPreservesSenderOrder(t *testing.T) {
	w := NewWorld(2, [][]int{{0, 1}})
	ctx := context.Background()

	sender := w.WorldComm(0)
	receiver := w.WorldComm(1)

	for i := 0; i < 5; i++ {
		if err := sender.Send(ctx, 1, IndividualTag, i); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		_, payload, err := receiver.Recv(ctx, IndividualTag)
		if err != nil {
			t.Fatalf("recv: %v", err)
		}

		if payload.(int) != i {
			t.Fatalf("out of order: got %v, want %d", payload, i)
		}
	}
}

func TestProbeThenRecvReturnsSameMessage(t *testing.T) {
	w := NewWorld(2, [][]int{{0, 1}})
	ctx := context.Background()

	if err := w.WorldComm(0).Send(ctx, 1, DumpTag, "token"); err != nil {
		t.Fatalf("send: %v", err)
	}

	receiver := w.WorldComm(1)
	if !receiver.Probe(DumpTag) {
		t.Fatal("expected probe to find pending message")
	}

	source, payload, err := receiver.Recv(ctx, DumpTag)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}

	if source != 0 || payload.(string) != "token" {
		t.Fatalf("unexpected message: source=%d payload=%v", source, payload)
	}

	if receiver.Probe(DumpTag) {
		t.Fatal("expected no more pending messages")
	}
}

func TestBarrierReleasesAllMembers(t *testing.T) {
	w := NewWorld(4, [][]int{{0, 1, 2, 3}})

	var wg sync.WaitGroup

	var mu sync.Mutex

	order := make([]int, 0, 4)

	for r := 0; r < 4; r++ {
		wg.Add(1)

		go func(r int) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if err := w.WorldComm(r).Barrier(ctx); err != nil {
				t.Errorf("barrier: %v", err)
			}

			mu.Lock()
			order = append(order, r)
			mu.Unlock()
		}(r)
	}

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("barrier did not release all members")
	}

	if len(order) != 4 {
		t.Fatalf("expected all 4 workers past the barrier, got %d", len(order))
	}
}

func TestIslandCommIsolatedFromWorldComm(t *testing.T) {
	w := NewWorld(4, [][]int{{0, 1}, {2, 3}})
	ctx := context.Background()

	if err := w.IslandComm(0).Send(ctx, 1, SynchronizationTag, "deactivate"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if w.IslandComm(2).Probe(SynchronizationTag) {
		t.Fatal("island 1's communicator should not see island 0's traffic")
	}

	if !w.IslandComm(1).Probe(SynchronizationTag) {
		t.Fatal("island 0's other worker should see the message")
	}
}
