package sensor

import "errors"

// Error kinds, matched by callers with errors.Is.
var (
	// ErrBadConfig marks an unsupported hardware configuration (lane count,
	// link frequency, external clock, sync mode). Detected at parse time;
	// fatal to device attach.
	ErrBadConfig = errors.New("unsupported hardware configuration")

	// ErrInvalidArgument marks a request outside the device capabilities,
	// such as a format with no candidate modes or an out-of-range control
	// value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrControlGrabbed is returned for writes to controls that are
	// immutable while streaming (flips, HDR toggle).
	ErrControlGrabbed = errors.New("control is grabbed while streaming")

	// ErrControlInactive is returned for writes to controls that are not
	// active in the current mode (HDR cluster with HDR off, HCG with HDR on).
	ErrControlInactive = errors.New("control is inactive")

	// ErrControlReadOnly is returned for writes to read-only controls.
	ErrControlReadOnly = errors.New("control is read-only")

	// ErrUnknownControl is returned when no control matches the requested
	// ID or name.
	ErrUnknownControl = errors.New("unknown control")
)
