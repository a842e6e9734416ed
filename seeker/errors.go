package seeker

import "errors"

// Errors returned by the seek functions. Every plot-reading failure is
// surfaced rather than swallowed; only SeekFolder's per-file sweep logs
// and continues past one, per spec.md §4.5.2. ErrTimeout and
// ErrExhausted are always returned wrapped with the elapsed search time
// (spec.md §4.3 step 5, §7); match them with errors.Is, not ==.
var (
	ErrNotFound    = errors.New("seeker: plot file not found")
	ErrTimeout     = errors.New("seeker: timed out before exhausting the search space")
	ErrKilled      = errors.New("seeker: killed by a sibling worker's signal")
	ErrShortRead   = errors.New("seeker: short read from plot file")
	ErrExhausted   = errors.New("seeker: search space exhausted without finding work")
	ErrNoPlotFiles = errors.New("seeker: no matching plot files in directory")
)
