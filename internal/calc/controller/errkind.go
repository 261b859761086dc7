package controller

// ErrKind is the user-visible error code a sub-controller leaves behind
// when it aborts. It is display state, not a Go error: every kind recovers
// to mode select.
type ErrKind uint8

const (
	// ErrNone means the last run completed cleanly.
	ErrNone ErrKind = iota

	// ErrDimRange means a parsed parameter was zero or out of range:
	// a dimension above the configured maximum, an invalid slot index,
	// or an unsupported operation code.
	ErrDimRange

	// ErrAllocTimeout means storage could not be acquired within the
	// configured number of ticks.
	ErrAllocTimeout
)

// String returns the display mnemonic for the kind.
func (k ErrKind) String() string {
	switch k {
	case ErrNone:
		return "NONE"
	case ErrDimRange:
		return "DIM_RANGE"
	case ErrAllocTimeout:
		return "ALLOC_TIMEOUT"
	default:
		return "UNKNOWN"
	}
}
