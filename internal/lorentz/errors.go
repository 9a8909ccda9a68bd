package lorentz

import "errors"

var (
	// ErrSuperluminal indicates a boost velocity with |beta| >= 1.
	ErrSuperluminal = errors.New("lorentz: boost velocity must satisfy |beta| < 1")

	// ErrNonCollinear indicates two boosts along different directions; their
	// product is a boost times a rotation, not a pure boost.
	ErrNonCollinear = errors.New("lorentz: boosts are not collinear")
)
