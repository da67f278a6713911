// Package fabric provides the message-passing substrate spec.md §2 and §5
// assume: tagged point-to-point send/receive, non-blocking probe, a
// collective barrier, and process-group subcommunicators. It stands in for
// an MPI runtime with an in-process, goroutine-backed implementation so the
// migration protocol can be built and exercised without a real cluster —
// see SPEC_FULL.md §2 and §4.
package fabric

import (
	"context"
	"fmt"
)

// Tag identifies a message's protocol role. spec.md §6 names exactly four.
type Tag int

const (
	// IndividualTag carries a newly evaluated Individual to intra-island peers.
	IndividualTag Tag = iota
	// MigrationTag carries an emigrant batch to a destination island.
	MigrationTag
	// SynchronizationTag carries an intra-island deactivation notice.
	SynchronizationTag
	// DumpTag carries the checkpoint token.
	DumpTag
)

func (t Tag) String() string {
	switch t {
	case IndividualTag:
		return "INDIVIDUAL"
	case MigrationTag:
		return "MIGRATION"
	case SynchronizationTag:
		return "SYNCHRONIZATION"
	case DumpTag:
		return "DUMP"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// Communicator is the per-worker handle onto a process group: either the
// world (all workers) or a single island's subgroup.
type Communicator interface {
	// Rank is this worker's rank within the group (0..Size()-1).
	Rank() int
	// Size is the number of members in the group.
	Size() int

	// Send enqueues payload for dest, tagged tag. Sends buffer and return
	// without waiting for the receiver, per spec.md §5; Send only blocks
	// the caller if that buffer is exhausted; ctx cancellation unblocks a
	// caller stuck on a full buffer.
	Send(ctx context.Context, dest int, tag Tag, payload any) error

	// Probe non-blockingly checks whether a message tagged tag is
	// available from any source. It returns false immediately if not.
	// A true result caches the message so the next Recv call for the
	// same tag returns it without blocking.
	Probe(tag Tag) bool

	// Recv returns the next message tagged tag, blocking only if Probe
	// was not already called successfully for tag.
	Recv(ctx context.Context, tag Tag) (source int, payload any, err error)

	// Barrier blocks until every member of the group has called Barrier
	// for the current generation.
	Barrier(ctx context.Context) error
}

type envelope struct {
	from    int
	payload any
}
