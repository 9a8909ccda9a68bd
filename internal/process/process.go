// Package process binds an amplitude to a kinematics instance and exposes the
// product as a real integrand over the phase-space variables.
package process

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/widthlab/internal/amplitude"
	"github.com/san-kum/widthlab/internal/kinematics"
)

// imaginaryTolerance bounds |Im/Re| of an amplitude before it is reported.
const imaginaryTolerance = 1e-10

var ErrIncompatible = errors.New("process: amplitude does not match topology")

type Process struct {
	amp    amplitude.Amplitude
	kin    *kinematics.Kinematics
	logger *slog.Logger

	imaginary int
}

type Option func(*Process)

func WithLogger(l *slog.Logger) Option {
	return func(p *Process) {
		if l != nil {
			p.logger = l
		}
	}
}

// New declares the amplitude's invariants and parameters in the kinematics
// store and returns the bound process.
func New(amp amplitude.Amplitude, kin *kinematics.Kinematics, opts ...Option) (*Process, error) {
	topo := kin.Topology()
	if !amp.Accepts(topo.Incoming(), topo.Outgoing()) {
		return nil, fmt.Errorf("%w: %s expects %d -> %d, got %v",
			ErrIncompatible, amp.Name, amp.Incoming, amp.Outgoing, topo)
	}
	amp.Declare(kin.Store())

	p := &Process{amp: amp, kin: kin, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FromProvider looks the amplitude up by name.
func FromProvider(provider *amplitude.Provider, name string, kin *kinematics.Kinematics, opts ...Option) (*Process, error) {
	amp, err := provider.Lookup(name)
	if err != nil {
		return nil, err
	}
	return New(amp, kin, opts...)
}

// Evaluate returns phase-space factor × Re(|M|²) at point, or exactly 0 when
// the point is outside the physical region.
func (p *Process) Evaluate(point []float64) (float64, error) {
	if err := p.kin.Update(point, true); err != nil {
		return 0, err
	}
	if !p.kin.Valid(point) {
		return 0, nil
	}

	m := p.amp.Fn(p.kin.Store())
	re, im := real(m), imag(m)
	if im != 0 && (re == 0 || math.Abs(im/re) > imaginaryTolerance) {
		p.imaginary++
		if p.imaginary == 1 {
			p.logger.Warn("process: amplitude has a non-negligible imaginary part",
				"amplitude", p.amp.Name, "re", re, "im", im, "point", point)
		}
	}
	return p.kin.PhaseSpaceFactor(point) * re, nil
}

func (p *Process) Dim() int                           { return p.kin.Dim() }
func (p *Process) Limits() []kinematics.Interval      { return p.kin.Limits() }
func (p *Process) Kinematics() *kinematics.Kinematics { return p.kin }
func (p *Process) Amplitude() amplitude.Amplitude     { return p.amp }
func (p *Process) Name() string                       { return p.amp.Name }

// ImaginaryResiduals counts evaluations whose imaginary part exceeded the
// tolerance. Only the first one is logged.
func (p *Process) ImaginaryResiduals() int { return p.imaginary }
