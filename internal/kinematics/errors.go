package kinematics

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedTopology is returned for (incoming, outgoing) counts other
	// than 1->2, 1->3, 2->2 and 2->3.
	ErrUnsupportedTopology = errors.New("kinematics: unsupported topology")

	// ErrOutOfRange indicates a point coordinate outside its integration limits.
	ErrOutOfRange = errors.New("kinematics: point outside integration limits")

	// ErrBelowThreshold indicates s below max(Σm_in, Σm_out)².
	ErrBelowThreshold = errors.New("kinematics: energy below threshold")

	// ErrTopologyChange indicates a mass update that would change particle counts.
	ErrTopologyChange = errors.New("kinematics: mass count does not match topology")

	ErrDimension = errors.New("kinematics: point dimension mismatch")

	ErrIndex = errors.New("kinematics: particle index out of range")
)

// PointError wraps an error with the phase-space point that caused it.
// Coord is the offending coordinate, or -1 when the whole point is at fault.
type PointError struct {
	Point   []float64
	Coord   int
	Wrapped error
}

func (e *PointError) Error() string {
	if e.Coord < 0 {
		return fmt.Sprintf("%v: point %v", e.Wrapped, e.Point)
	}
	return fmt.Sprintf("%v: coordinate %d of %v", e.Wrapped, e.Coord, e.Point)
}

func (e *PointError) Unwrap() error {
	return e.Wrapped
}
