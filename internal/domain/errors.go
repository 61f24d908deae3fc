package domain

import "errors"

var (
	// ErrAlreadyProcessed is returned by conditional player updates when
	// the player was resolved by a concurrent caller. Callers treat it as
	// success with a notice rather than a failure.
	ErrAlreadyProcessed = errors.New("player already processed")

	// ErrVersionConflict is returned when an optimistic state update lost
	// the race to a concurrent mutation.
	ErrVersionConflict = errors.New("auction state modified concurrently")
)
