package nbody

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds indicates a body position outside the cube of the node
	// it was routed to.
	ErrOutOfBounds = errors.New("nbody: position outside index cube")

	// ErrDuplicateIdentity indicates the index already holds a body with
	// the same identity.
	ErrDuplicateIdentity = errors.New("nbody: body identity already present")

	// ErrInvalidBody indicates a body with non-positive mass or timescale,
	// a negative radius, or a non-finite vector.
	ErrInvalidBody = errors.New("nbody: invalid body")

	// ErrInvariant indicates an index whose aggregates or structure disagree
	// with its contents.
	ErrInvariant = errors.New("nbody: index invariant violated")
)

// InsertError wraps a rejected insertion with the body and the depth at
// which it was rejected.
type InsertError struct {
	BodyID int64
	Depth  int
	Err    error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert body %d at depth %d: %v", e.BodyID, e.Depth, e.Err)
}

func (e *InsertError) Unwrap() error {
	return e.Err
}
