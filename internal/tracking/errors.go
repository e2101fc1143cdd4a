package tracking

import "errors"

// All engine failures are local and recoverable: callers skip the offending
// input and carry on with the frame.
var (
	// ErrInvalidSample marks an observation that was dropped without touching
	// the entity: non-finite values, a missing id, or an out-of-order timestamp.
	ErrInvalidSample = errors.New("invalid sample")

	// ErrNoCandidate is returned when no entity satisfies the selection filters.
	ErrNoCandidate = errors.New("no candidate")

	// ErrDegenerateVector is returned when direction math receives a zero-length vector.
	ErrDegenerateVector = errors.New("degenerate vector")
)
