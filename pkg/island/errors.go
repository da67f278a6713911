package island

import "golang.org/x/xerrors"

// ErrEmigratedLogNotEmpty is the terminal error raised when the emigrated
// log is still non-empty after the single retry the termination drain
// allows (spec.md §4.6 step 4, §9 open question 3).
var ErrEmigratedLogNotEmpty = xerrors.New("island: emigrated log non-empty after termination drain")

// invariantViolation builds a protocol invariant violation error carrying
// the offending individual and this worker's local context, per spec.md
// §7. Callers return the result instead of panicking, so errgroup cancels
// ctx: peers still in the generation loop, or blocked on a full send
// buffer, return ctx.Err(). Peers already waiting in a barrier stay
// blocked, since barrier waits do not observe ctx.
func (w *Worker) invariantViolation(format string, args ...any) error {
	msg := xerrors.Errorf(format, args...)

	return xerrors.Errorf("island %d worker %d generation %d: protocol invariant violation: %w",
		w.Island, w.Rank, w.Generation, msg)
}
