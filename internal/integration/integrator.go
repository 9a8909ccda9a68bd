// Package integration drives adaptive Monte Carlo integration of a phase-space
// integrand and tracks whether the estimate can be trusted.
//
// An Integrator moves Unconfigured -> Configured when an integrand is
// attached and ends every run in Converged or Exhausted. Only a Converged
// estimate is returned by Integral; Last exposes whatever was retained
// together with the state.
package integration

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/san-kum/widthlab/internal/vegas"
)

const (
	DefaultCalls         = 1000
	DefaultMaxIterations = 50

	// Chi2Tolerance is the allowed distance of χ²/dof from 1.
	Chi2Tolerance = 0.4
)

type Integrator struct {
	integrand Integrand
	calls     int
	maxIter   int
	seed      uint64
	bins      int
	logger    *slog.Logger

	state     State
	last      Estimate
	chi2      float64
	history   []Iteration
	observers []Observer
}

type Option func(*Integrator)

func WithCalls(n int) Option          { return func(in *Integrator) { in.SetCalls(n) } }
func WithMaxIterations(n int) Option  { return func(in *Integrator) { in.SetMaxIterations(n) } }
func WithSeed(seed uint64) Option     { return func(in *Integrator) { in.seed = seed } }
func WithBins(n int) Option           { return func(in *Integrator) { in.bins = n } }
func WithObserver(o Observer) Option  { return func(in *Integrator) { in.AddObserver(o) } }
func WithLogger(l *slog.Logger) Option {
	return func(in *Integrator) {
		if l != nil {
			in.logger = l
		}
	}
}

func New(opts ...Option) *Integrator {
	in := &Integrator{
		calls:   DefaultCalls,
		maxIter: DefaultMaxIterations,
		seed:    1,
		bins:    vegas.DefaultBins,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Configure attaches the integrand and resets any previous result.
func (in *Integrator) Configure(f Integrand) {
	in.integrand = f
	in.reset()
	if f != nil {
		in.state = Configured
	} else {
		in.state = Unconfigured
	}
}

func (in *Integrator) reset() {
	in.last = Estimate{}
	in.chi2 = 0
	in.history = nil
}

// SetCalls sets the per-pass sample budget. Values below 2 are ignored.
func (in *Integrator) SetCalls(n int) {
	if n >= 2 {
		in.calls = n
	}
}

func (in *Integrator) SetMaxIterations(n int) {
	if n >= 1 {
		in.maxIter = n
	}
}

func (in *Integrator) SetSeed(seed uint64) { in.seed = seed }

func (in *Integrator) AddObserver(o Observer) { in.observers = append(in.observers, o) }

func (in *Integrator) Calls() int              { return in.calls }
func (in *Integrator) MaxIterations() int      { return in.maxIter }
func (in *Integrator) Seed() uint64            { return in.seed }
func (in *Integrator) State() State            { return in.state }
func (in *Integrator) Chi2PerDof() float64     { return in.chi2 }
func (in *Integrator) Last() (Estimate, State) { return in.last, in.state }

// History returns the full passes of the last run.
func (in *Integrator) History() []Iteration {
	out := make([]Iteration, len(in.history))
	copy(out, in.history)
	return out
}

// Integral returns the estimate of a converged run and ErrNotConverged
// otherwise.
func (in *Integrator) Integral() (Estimate, error) {
	if in.state != Converged {
		return Estimate{}, fmt.Errorf("%w: state %v", ErrNotConverged, in.state)
	}
	return in.last, nil
}

// Run integrates the attached integrand and returns the final state. The
// context is checked between passes. Evaluation errors abort the run and
// leave the integrator Configured.
func (in *Integrator) Run(ctx context.Context) (State, error) {
	if in.state == Unconfigured || in.integrand == nil {
		return in.state, ErrNotConfigured
	}
	in.state = Configured
	in.reset()

	f := in.integrand
	dim := f.Dim()
	if dim == 0 {
		v, err := f.Evaluate(nil)
		if err != nil {
			return in.state, &EvaluationError{Pass: 1, Wrapped: err}
		}
		in.last = Estimate{Value: v}
		in.record(Iteration{Index: 1, Calls: 1, Pass: in.last, Cumulative: in.last})
		in.state = Converged
		return in.state, nil
	}

	limits := f.Limits()
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for i, l := range limits {
		lo[i], hi[i] = l.Lo, l.Hi
	}

	rng := rand.New(rand.NewPCG(in.seed, in.seed^0x9e3779b97f4a7c15))
	sampler := vegas.New(lo, hi, rng, vegas.WithBins(in.bins))

	var evalErr *EvaluationError
	pass := 0
	fn := func(x []float64) float64 {
		if evalErr != nil {
			return 0
		}
		v, err := f.Evaluate(x)
		if err != nil {
			evalErr = &EvaluationError{Pass: pass, Point: append([]float64(nil), x...), Wrapped: err}
			return 0
		}
		return v
	}

	warmup := max(in.calls/10, 2)
	sampler.Pass(fn, warmup, true)
	if evalErr != nil {
		return in.state, evalErr
	}

	var acc accumulator
	for pass = 1; pass <= in.maxIter; pass++ {
		select {
		case <-ctx.Done():
			return in.state, ctx.Err()
		default:
		}

		res := sampler.Pass(fn, in.calls, true)
		if evalErr != nil {
			return in.state, evalErr
		}

		p := Estimate{Value: res.Value, Error: res.Error}
		acc.add(p)
		in.last = acc.estimate()
		in.chi2 = acc.chi2PerDof()
		in.record(Iteration{
			Index:      pass,
			Calls:      res.Calls,
			Pass:       p,
			Cumulative: in.last,
			Chi2PerDof: in.chi2,
		})

		if acc.converged(Chi2Tolerance) {
			in.state = Converged
			in.logger.Debug("integration converged",
				"passes", pass, "value", in.last.Value, "error", in.last.Error, "chi2_dof", in.chi2)
			return in.state, nil
		}
	}

	in.state = Exhausted
	in.logger.Warn("integration: iteration cap reached without convergence",
		"passes", in.maxIter, "value", in.last.Value, "error", in.last.Error, "chi2_dof", in.chi2)
	return in.state, nil
}

func (in *Integrator) record(it Iteration) {
	in.history = append(in.history, it)
	for _, o := range in.observers {
		o.OnIteration(it)
	}
}
