package model

import "errors"

var (
	// ErrNoContainer is returned when the polygon source produced no shapes,
	// so there is nothing to pack into.
	ErrNoContainer = errors.New("no container shape found")

	// ErrDegeneratePolygon marks a polygon with zero area or one that
	// repair could not turn into a simple ring.
	ErrDegeneratePolygon = errors.New("degenerate polygon")

	// ErrIndeterminate is returned when the search was cut short by a
	// deadline or cancellation. It never means infeasible.
	ErrIndeterminate = errors.New("search did not complete")

	ErrInvalidConfig = errors.New("invalid config")
)
