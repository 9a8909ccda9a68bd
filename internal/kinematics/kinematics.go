package kinematics

import (
	"fmt"

	"github.com/san-kum/widthlab/internal/lorentz"
	"github.com/san-kum/widthlab/internal/params"
)

// Predicate decides whether a point contributes to the integral.
type Predicate func(point []float64) bool

type invariant struct {
	i, j int
	name string
}

// Kinematics is the facade used by processes: it updates the momenta for a
// point and publishes the pair invariants into the parameter store.
type Kinematics struct {
	calc      *Calculator
	store     *params.Store
	keys      []invariant
	predicate Predicate
}

// New builds the kinematics for the given masses. For decays sqrtS is
// ignored and s is the parent mass squared. A nil store gets a fresh one.
func New(incoming, outgoing []float64, sqrtS float64, store *params.Store) (*Kinematics, error) {
	topo, err := TopologyFor(len(incoming), len(outgoing))
	if err != nil {
		return nil, err
	}

	masses := make([]float64, 0, len(incoming)+len(outgoing))
	masses = append(masses, incoming...)
	masses = append(masses, outgoing...)

	calc, err := NewCalculator(topo, masses, sqrtS*sqrtS)
	if err != nil {
		return nil, err
	}

	if store == nil {
		store = params.New()
	}
	k := &Kinematics{calc: calc, store: store}
	n := topo.Particles()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			k.keys = append(k.keys, invariant{i: i, j: j, name: InvariantName(i+1, j+1)})
		}
	}
	return k, nil
}

func NewDecay(parent float64, outgoing []float64, store *params.Store) (*Kinematics, error) {
	return New([]float64{parent}, outgoing, parent, store)
}

// NewMassless builds a kinematics with every external mass zero. A decaying
// parent cannot be massless, so for decays it gets mass sqrtS.
func NewMassless(nIn, nOut int, sqrtS float64, store *params.Store) (*Kinematics, error) {
	if _, err := TopologyFor(nIn, nOut); err != nil {
		return nil, err
	}
	in := make([]float64, nIn)
	if nIn == 1 {
		in[0] = sqrtS
	}
	return New(in, make([]float64, nOut), sqrtS, store)
}

// InvariantName is the store key of p_i·p_j for 1-based i < j.
func InvariantName(i, j int) string {
	return fmt.Sprintf("s_%d%d", i, j)
}

// Update computes the momenta for point and writes every declared s_ij into
// the store. Undeclared invariants are skipped. With bypassRangeChecks false,
// coordinates outside Limits are rejected with ErrOutOfRange.
func (k *Kinematics) Update(point []float64, bypassRangeChecks bool) error {
	if len(point) != k.calc.Dim() {
		return &PointError{Point: point, Coord: -1, Wrapped: ErrDimension}
	}
	if !bypassRangeChecks {
		for i, lim := range k.calc.limits {
			if !lim.Contains(point[i]) {
				return &PointError{Point: point, Coord: i, Wrapped: ErrOutOfRange}
			}
		}
	}
	if err := k.calc.ComputeMomenta(point); err != nil {
		return err
	}

	p := k.calc.momenta
	for _, inv := range k.keys {
		if h, ok := k.store.Lookup(inv.name); ok {
			k.store.Set(h, p[inv.i].Dot(p[inv.j]))
		}
	}
	return nil
}

// InvariantKeys lists every s_ij name this topology can publish.
func (k *Kinematics) InvariantKeys() []string {
	names := make([]string, len(k.keys))
	for i, inv := range k.keys {
		names[i] = inv.name
	}
	return names
}

// SetPredicate replaces the physical-region check used by Valid.
func (k *Kinematics) SetPredicate(p Predicate) { k.predicate = p }

// ResetPredicate restores the topology's own physical-region check.
func (k *Kinematics) ResetPredicate() { k.predicate = nil }

func (k *Kinematics) Valid(point []float64) bool {
	if k.predicate != nil {
		return k.predicate(point)
	}
	return k.calc.Valid(point)
}

func (k *Kinematics) PhaseSpaceFactor(point []float64) float64 {
	return k.calc.PhaseSpaceFactor(point)
}

func (k *Kinematics) SetIncomingMasses(masses []float64) error {
	return k.SetMasses(masses, k.OutgoingMasses())
}

func (k *Kinematics) SetOutgoingMasses(masses []float64) error {
	return k.SetMasses(k.IncomingMasses(), masses)
}

// SetMasses replaces all masses. Count changes return ErrTopologyChange; a
// result below threshold returns ErrBelowThreshold and keeps the old masses.
func (k *Kinematics) SetMasses(incoming, outgoing []float64) error {
	topo := k.calc.topo
	if len(incoming) != topo.Incoming() || len(outgoing) != topo.Outgoing() {
		return fmt.Errorf("%w: %v cannot become %d -> %d", ErrTopologyChange, topo, len(incoming), len(outgoing))
	}
	all := append(append([]float64(nil), incoming...), outgoing...)
	return k.calc.SetMasses(all)
}

func (k *Kinematics) SetSqrtS(sqrtS float64) error {
	return k.calc.SetS(sqrtS * sqrtS)
}

func (k *Kinematics) Dim() int                    { return k.calc.Dim() }
func (k *Kinematics) Limits() []Interval          { return k.calc.Limits() }
func (k *Kinematics) Topology() Topology          { return k.calc.topo }
func (k *Kinematics) Store() *params.Store        { return k.store }
func (k *Kinematics) S() float64                  { return k.calc.s }
func (k *Kinematics) SqrtS() float64              { return k.calc.sqrtS }
func (k *Kinematics) Threshold() float64          { return k.calc.Threshold() }
func (k *Kinematics) Masses() []float64           { return k.calc.Masses() }
func (k *Kinematics) Momenta() []lorentz.Momentum { return k.calc.Momenta() }

func (k *Kinematics) Momentum(i int) (lorentz.Momentum, error) {
	return k.calc.Momentum(i)
}

func (k *Kinematics) IncomingMasses() []float64 {
	return k.calc.Masses()[:k.calc.topo.Incoming()]
}

func (k *Kinematics) OutgoingMasses() []float64 {
	return k.calc.Masses()[k.calc.topo.Incoming():]
}
