package bayesdist

import "errors"

var (
	// ErrInvalidArgument reports malformed input: empty vectors, non-positive
	// concentration parameters, mismatched lengths or off-simplex points.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState reports a query that has no meaning in the current state.
	ErrInvalidState = errors.New("invalid state")
)
