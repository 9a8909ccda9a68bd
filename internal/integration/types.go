package integration

import (
	"fmt"
	"math"

	"github.com/san-kum/widthlab/internal/kinematics"
)

// Integrand is a real function over a box of per-variable limits.
type Integrand interface {
	Dim() int
	Limits() []kinematics.Interval
	Evaluate(point []float64) (float64, error)
}

type State int

const (
	Unconfigured State = iota
	Configured
	Converged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for st := Unconfigured; st <= Exhausted; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("integration: unknown state %q", s)
}

type Estimate struct {
	Value float64 `json:"value"`
	Error float64 `json:"error"`
}

// Compatible reports whether the nSigma error bars of e and o overlap.
func (e Estimate) Compatible(o Estimate, nSigma float64) bool {
	return math.Abs(e.Value-o.Value) <= nSigma*(e.Error+o.Error)
}

// RelativeError is Error/|Value|, or +Inf for a zero value with nonzero error.
func (e Estimate) RelativeError() float64 {
	if e.Value == 0 {
		if e.Error == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return e.Error / math.Abs(e.Value)
}

func (e Estimate) String() string {
	return fmt.Sprintf("%.6g ± %.2g", e.Value, e.Error)
}

// Iteration records one full pass.
type Iteration struct {
	Index      int      `json:"iter"`
	Calls      int      `json:"calls"`
	Pass       Estimate `json:"pass"`
	Cumulative Estimate `json:"cumulative"`
	Chi2PerDof float64  `json:"chi2_dof"`
}

type Observer interface {
	OnIteration(it Iteration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(it Iteration)

func (f ObserverFunc) OnIteration(it Iteration) { f(it) }
