package volist

import "errors"

// Precondition errors: caller misuse, reported and recoverable.
var (
	ErrNotEmpty        = errors.New("spot reservation requires an empty list")
	ErrReservedSize    = errors.New("size 0 is reserved for spot placeholders")
	ErrSpotOverflow    = errors.New("spot index too large to carry a placeholder")
	ErrOffsetBeyondEnd = errors.New("end offset beyond the indexed pixel range")
)

// Invariant errors: the three maps disagree with each other. These indicate
// an internal defect, never caller misuse, and are routed through the assert
// handler before being returned.
var (
	ErrNoRun     = errors.New("no run at or below the requested key")
	ErrOutOfSync = errors.New("offset index out of sync with size index")
)
