// Package experiment turns a run configuration into a bound process and an
// integrator, runs it and reports the result.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/san-kum/widthlab/internal/config"
	"github.com/san-kum/widthlab/internal/integration"
	"github.com/san-kum/widthlab/internal/kinematics"
	"github.com/san-kum/widthlab/internal/params"
	"github.com/san-kum/widthlab/internal/process"
	"github.com/san-kum/widthlab/internal/storage"
)

var ErrNotSetup = errors.New("experiment: not setup")

// Result is the outcome of one Run.
type Result struct {
	State              integration.State
	Estimate           integration.Estimate
	Chi2PerDof         float64
	History            []integration.Iteration
	ImaginaryResiduals int
	Duration           time.Duration
}

// Converged reports whether the estimate can be trusted.
func (r *Result) Converged() bool { return r.State == integration.Converged }

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *slog.Logger

	store      *params.Store
	kin        *kinematics.Kinematics
	proc       *process.Process
	integrator *integration.Integrator
	observers  []integration.Observer
}

type Option func(*Experiment)

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver attaches o to the integrator built by Setup.
func WithObserver(o integration.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

// New keeps a private copy of cfg.
func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg.Clone(), logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	return e
}

// Setup validates the configuration and builds the parameter store, the
// kinematics, the process and the integrator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	amp, err := e.registry.GetAmplitude(e.cfg.Amplitude)
	if err != nil {
		return err
	}

	store := params.New()
	for name, v := range e.cfg.Params {
		store.DeclareReal(name, v)
	}

	kin, err := kinematics.New(e.cfg.Incoming, e.cfg.Outgoing, e.cfg.EffectiveSqrtS(), store)
	if err != nil {
		return fmt.Errorf("experiment %s: %w", e.cfg.Name, err)
	}

	logger := e.logger.With("process", e.cfg.Name)
	proc, err := process.New(amp, kin, process.WithLogger(logger))
	if err != nil {
		return err
	}

	ic := e.cfg.Integration
	opts := []integration.Option{
		integration.WithCalls(ic.Calls),
		integration.WithMaxIterations(ic.MaxIterations),
		integration.WithSeed(ic.Seed),
		integration.WithLogger(logger),
	}
	if ic.Bins > 0 {
		opts = append(opts, integration.WithBins(ic.Bins))
	}
	for _, o := range e.observers {
		opts = append(opts, integration.WithObserver(o))
	}
	in := integration.New(opts...)
	in.Configure(proc)

	e.store, e.kin, e.proc, e.integrator = store, kin, proc, in
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.integrator == nil {
		return nil, ErrNotSetup
	}

	start := time.Now()
	before := e.proc.ImaginaryResiduals()
	state, err := e.integrator.Run(ctx)
	if err != nil {
		return nil, err
	}

	est, _ := e.integrator.Last()
	res := &Result{
		State:              state,
		Estimate:           est,
		Chi2PerDof:         e.integrator.Chi2PerDof(),
		History:            e.integrator.History(),
		ImaginaryResiduals: e.proc.ImaginaryResiduals() - before,
		Duration:           time.Since(start),
	}
	e.logger.Info("run finished",
		"process", e.cfg.Name, "state", state, "value", est.Value, "error", est.Error,
		"passes", len(res.History), "took", res.Duration.Round(time.Millisecond))
	return res, nil
}

// Set changes one input of a prepared experiment. "mass" is the parent mass
// of a decay, "sqrt_s" the collision energy; any other name is a declared
// parameter. The integrator is reconfigured so the next Run starts fresh.
func (e *Experiment) Set(name string, v float64) error {
	if e.integrator == nil {
		return ErrNotSetup
	}
	switch name {
	case "mass":
		if len(e.cfg.Incoming) != 1 {
			return fmt.Errorf("experiment: mass scan needs a decay, %s has %d incoming particles",
				e.cfg.Name, len(e.cfg.Incoming))
		}
		if err := e.kin.SetIncomingMasses([]float64{v}); err != nil {
			return err
		}
		e.cfg.Incoming[0] = v
	case "sqrt_s":
		if err := e.kin.SetSqrtS(v); err != nil {
			return err
		}
		if len(e.cfg.Incoming) == 1 {
			e.cfg.Incoming[0] = v
		} else {
			e.cfg.SqrtS = v
		}
	default:
		if !e.store.SetReal(name, v) {
			return fmt.Errorf("experiment: unknown parameter %q", name)
		}
		if e.cfg.Params == nil {
			e.cfg.Params = make(map[string]float64)
		}
		e.cfg.Params[name] = v
	}
	e.integrator.Configure(e.proc)
	return nil
}

// Metadata describes res for the run store.
func (e *Experiment) Metadata(res *Result) storage.RunMetadata {
	topo, _ := e.cfg.Topology()
	meta := storage.RunMetadata{
		Process:       e.cfg.Name,
		Amplitude:     e.cfg.Amplitude,
		Topology:      topo.String(),
		Timestamp:     time.Now(),
		Incoming:      append([]float64(nil), e.cfg.Incoming...),
		Outgoing:      append([]float64(nil), e.cfg.Outgoing...),
		SqrtS:         e.cfg.EffectiveSqrtS(),
		Params:        maps.Clone(e.cfg.Params),
		Seed:          e.cfg.Integration.Seed,
		Calls:         e.cfg.Integration.Calls,
		MaxIterations: e.cfg.Integration.MaxIterations,
	}
	if e.store != nil {
		meta.Params = e.store.Snapshot()
		for _, k := range e.kin.InvariantKeys() {
			delete(meta.Params, k)
		}
	}
	if res != nil {
		meta.State = res.State.String()
		meta.Value = res.Estimate.Value
		meta.Error = res.Estimate.Error
		meta.Chi2PerDof = res.Chi2PerDof
		meta.Passes = len(res.History)
		meta.ImaginaryResiduals = res.ImaginaryResiduals
	}
	return meta
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Integrator returns the underlying integrator for adding observers.
func (e *Experiment) Integrator() *integration.Integrator { return e.integrator }

func (e *Experiment) Kinematics() *kinematics.Kinematics { return e.kin }

func (e *Experiment) Process() *process.Process { return e.proc }
