package integration

import "errors"

var (
	// ErrNotConfigured indicates Run on an integrator without an integrand.
	ErrNotConfigured = errors.New("integration: no integrand attached")

	// ErrNotConverged guards reads of an estimate that did not converge.
	ErrNotConverged = errors.New("integration: estimate has not converged")
)

// EvaluationError wraps a failure of the integrand during a pass.
type EvaluationError struct {
	Pass    int
	Point   []float64
	Wrapped error
}

func (e *EvaluationError) Error() string {
	return "integration: evaluation failed: " + e.Wrapped.Error()
}

func (e *EvaluationError) Unwrap() error {
	return e.Wrapped
}
