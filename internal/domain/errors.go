package domain

import "errors"

var (
	// ErrFeedUnavailable covers transport, status and payload failures of the telemetry source.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrNoDataInWindow means the source answered but nothing usable was in the window.
	ErrNoDataInWindow = errors.New("no data in window")

	// ErrMissingRangeBounds is returned for a custom range without both dates.
	ErrMissingRangeBounds = errors.New("missing range bounds")

	// ErrStaleResponse marks a fetch that completed after its phase was abandoned.
	ErrStaleResponse = errors.New("stale response discarded")

	ErrInvalidRange     = errors.New("range start is after end")
	ErrInvalidCount     = errors.New("count must be a positive integer")
	ErrUnknownSelector  = errors.New("unknown range selector")
	ErrUnknownField     = errors.New("unknown field")
	ErrUnknownPhase     = errors.New("unknown phase")
	ErrUnknownParameter = errors.New("unknown threshold parameter")
)
