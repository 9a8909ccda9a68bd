package kinematics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/widthlab/internal/lorentz"
)

// ErrMass indicates a negative or non-finite mass.
var ErrMass = errors.New("kinematics: mass must be finite and non-negative")

// Beta is the normalised Källén function sqrt(λ(x, y, z))/z. For a two-body
// system of invariant mass² z it is the speed of either daughter in the rest
// frame, scaled so that Beta(0, 0, z) = 1. Negative radicands from rounding
// at threshold are clamped to 0.
func Beta(x, y, z float64) float64 {
	d := (x - y) / z
	return math.Sqrt(math.Max(0, 1-2*(x+y)/z+d*d))
}

// Calculator computes momenta and phase-space weights for one topology.
// Masses are ordered incoming first. The topology never changes.
type Calculator struct {
	topo    Topology
	masses  []float64
	masses2 []float64
	s       float64
	sqrtS   float64
	momenta []lorentz.Momentum

	betaIn  float64
	betaOut float64
	limits  []Interval
}

// NewCalculator builds a calculator for topo with incoming masses first, then
// outgoing. s is ignored for decays, where it is fixed by the parent mass.
func NewCalculator(topo Topology, masses []float64, s float64) (*Calculator, error) {
	if len(masses) != topo.Particles() {
		return nil, fmt.Errorf("%w: %v needs %d masses, got %d", ErrTopologyChange, topo, topo.Particles(), len(masses))
	}
	c := &Calculator{
		topo:    topo,
		masses:  make([]float64, len(masses)),
		masses2: make([]float64, len(masses)),
		momenta: make([]lorentz.Momentum, len(masses)),
	}
	copy(c.masses, masses)
	if topo.IsDecay() {
		s = masses[0] * masses[0]
	}
	c.s = s
	if err := c.check(); err != nil {
		return nil, err
	}
	c.refresh()
	return c, nil
}

func (c *Calculator) Topology() Topology { return c.topo }
func (c *Calculator) Dim() int           { return c.topo.Dim() }
func (c *Calculator) S() float64         { return c.s }

// Threshold is the smallest allowed s: max(Σm_in, Σm_out)².
func (c *Calculator) Threshold() float64 {
	var in, out float64
	for i, m := range c.masses {
		if i < c.topo.Incoming() {
			in += m
		} else {
			out += m
		}
	}
	top := math.Max(in, out)
	return top * top
}

func (c *Calculator) check() error {
	for i, m := range c.masses {
		if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return fmt.Errorf("%w: mass %d = %g", ErrMass, i, m)
		}
	}
	if c.s <= 0 || c.s < c.Threshold() || math.IsNaN(c.s) {
		return fmt.Errorf("%w: s = %g, need at least %g", ErrBelowThreshold, c.s, c.Threshold())
	}
	return nil
}

// SetMass changes one mass. For decays, changing the parent mass also sets
// s = M². The previous state is kept when the new one is below threshold.
func (c *Calculator) SetMass(i int, m float64) error {
	if i < 0 || i >= len(c.masses) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	all := make([]float64, len(c.masses))
	copy(all, c.masses)
	all[i] = m
	return c.SetMasses(all)
}

// SetMasses replaces every mass at once.
func (c *Calculator) SetMasses(masses []float64) error {
	if len(masses) != len(c.masses) {
		return fmt.Errorf("%w: %v needs %d masses, got %d", ErrTopologyChange, c.topo, len(c.masses), len(masses))
	}
	prev, prevS := append([]float64(nil), c.masses...), c.s
	copy(c.masses, masses)
	if c.topo.IsDecay() {
		c.s = masses[0] * masses[0]
	}
	if err := c.check(); err != nil {
		copy(c.masses, prev)
		c.s = prevS
		return err
	}
	c.refresh()
	return nil
}

// SetS changes the centre-of-mass energy squared. For decays this moves the
// parent mass to sqrt(s).
func (c *Calculator) SetS(s float64) error {
	if c.topo.IsDecay() {
		if s < 0 {
			return fmt.Errorf("%w: s = %g", ErrBelowThreshold, s)
		}
		return c.SetMass(0, math.Sqrt(s))
	}
	prev := c.s
	c.s = s
	if err := c.check(); err != nil {
		c.s = prev
		return err
	}
	c.refresh()
	return nil
}

func (c *Calculator) refresh() {
	for i, m := range c.masses {
		c.masses2[i] = m * m
	}
	c.sqrtS = math.Sqrt(c.s)

	m2 := c.masses2
	switch c.topo {
	case Decay12:
		c.betaIn = 1
		c.betaOut = Beta(m2[1], m2[2], c.s)
		c.limits = nil
	case Decay13:
		c.betaIn = 1
		c.betaOut = 0
		c.limits = c.decay13Limits()
	case Scatter22:
		c.betaIn = Beta(m2[0], m2[1], c.s)
		c.betaOut = Beta(m2[2], m2[3], c.s)
		c.limits = []Interval{{-1, 1}}
	case Scatter23:
		c.betaIn = Beta(m2[0], m2[1], c.s)
		c.betaOut = 0
		c.limits = c.scatter23Limits()
	default:
		panic(fmt.Sprintf("kinematics: invalid topology %d", int(c.topo)))
	}
}

// Limits returns a copy of the integration domain.
func (c *Calculator) Limits() []Interval {
	out := make([]Interval, len(c.limits))
	copy(out, c.limits)
	return out
}

// ComputeMomenta fills the momentum slots for point. Points outside the
// physical region produce meaningless momenta; check Valid first when it
// matters.
func (c *Calculator) ComputeMomenta(point []float64) error {
	if len(point) != c.Dim() {
		return &PointError{Point: point, Coord: -1, Wrapped: ErrDimension}
	}
	switch c.topo {
	case Decay12:
		c.decay12()
	case Decay13:
		c.decay13(point[0], point[1])
	case Scatter22:
		c.scatter22(point[0])
	case Scatter23:
		c.scatter23(point[0], point[1], point[2], point[3])
	default:
		panic(fmt.Sprintf("kinematics: invalid topology %d", int(c.topo)))
	}
	return nil
}

// PhaseSpaceFactor is the flux factor times the Jacobian of the
// parametrisation at point.
func (c *Calculator) PhaseSpaceFactor(point []float64) float64 {
	switch c.topo {
	case Decay12:
		return c.betaOut / (16 * math.Pi * c.sqrtS)
	case Decay13:
		return c.sqrtS / (8 * math.Pow(2*math.Pi, 3))
	case Scatter22:
		return c.betaOut / (32 * math.Pi * c.s * c.betaIn)
	case Scatter23:
		return c.scatter23Factor(point[0])
	}
	panic(fmt.Sprintf("kinematics: invalid topology %d", int(c.topo)))
}

// Valid reports whether point lies in the physical region.
func (c *Calculator) Valid(point []float64) bool {
	switch c.topo {
	case Decay13:
		return c.decay13Valid(point[0], point[1])
	case Decay12, Scatter22, Scatter23:
		return true
	}
	panic(fmt.Sprintf("kinematics: invalid topology %d", int(c.topo)))
}

func (c *Calculator) Momentum(i int) (lorentz.Momentum, error) {
	if i < 0 || i >= len(c.momenta) {
		return lorentz.Momentum{}, fmt.Errorf("%w: %d", ErrIndex, i)
	}
	return c.momenta[i], nil
}

func (c *Calculator) Momenta() []lorentz.Momentum {
	out := make([]lorentz.Momentum, len(c.momenta))
	copy(out, c.momenta)
	return out
}

func (c *Calculator) Masses() []float64 {
	out := make([]float64, len(c.masses))
	copy(out, c.masses)
	return out
}

// flipZ rotates a sub-system built along +z so that it recoils along -z.
var flipZ = lorentz.NewRotation(0, math.Pi, 0)

func sinFromCos(c float64) float64 {
	return math.Sqrt(math.Max(0, 1-c*c))
}
