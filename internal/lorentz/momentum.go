package lorentz

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/fmom"
)

// massEps snaps tiny negative or positive p·p values to zero before the square root.
const massEps = 1e-10

// Momentum is a 4-vector (E, px, py, pz) with the (+,-,-,-) metric.
type Momentum [4]float64

// NewMomentum builds a momentum from its energy and spatial components.
func NewMomentum(e, px, py, pz float64) Momentum {
	return Momentum{e, px, py, pz}
}

// OnShell builds a momentum of mass m and spatial magnitude p along dir.
// dir does not need to be normalised.
func OnShell(m, p float64, dir [3]float64) Momentum {
	norm := math.Sqrt(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2])
	e := math.Sqrt(m*m + p*p)
	if norm == 0 {
		return Momentum{e, 0, 0, 0}
	}
	return Momentum{e, dir[0] * p / norm, dir[1] * p / norm, dir[2] * p / norm}
}

// AtRest is a particle of mass m with no spatial momentum.
func AtRest(m float64) Momentum {
	return Momentum{m, 0, 0, 0}
}

func (p Momentum) E() float64  { return p[0] }
func (p Momentum) Px() float64 { return p[1] }
func (p Momentum) Py() float64 { return p[2] }
func (p Momentum) Pz() float64 { return p[3] }

func (p Momentum) Vec3() [3]float64 {
	return [3]float64{p[1], p[2], p[3]}
}

// P returns the magnitude of the spatial part.
func (p Momentum) P() float64 {
	return math.Sqrt(p[1]*p[1] + p[2]*p[2] + p[3]*p[3])
}

func (p Momentum) Add(o Momentum) Momentum {
	return Momentum{p[0] + o[0], p[1] + o[1], p[2] + o[2], p[3] + o[3]}
}

func (p Momentum) Sub(o Momentum) Momentum {
	return Momentum{p[0] - o[0], p[1] - o[1], p[2] - o[2], p[3] - o[3]}
}

// Dot is the Minkowski product E_a E_b - p_a·p_b.
func (p Momentum) Dot(o Momentum) float64 {
	return p[0]*o[0] - p[1]*o[1] - p[2]*o[2] - p[3]*o[3]
}

func (p Momentum) Mass() float64 {
	return math.Sqrt(math.Max(zeroIfClose(p.Dot(p), massEps), 0))
}

func (p Momentum) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Momentum) String() string {
	return fmt.Sprintf("(E=%.6g, px=%.6g, py=%.6g, pz=%.6g)", p[0], p[1], p[2], p[3])
}

// FourVector converts to the go-hep representation.
func (p Momentum) FourVector() fmom.PxPyPzE {
	return fmom.NewPxPyPzE(p[1], p[2], p[3], p[0])
}

func FromP4(p fmom.P4) Momentum {
	return Momentum{p.E(), p.Px(), p.Py(), p.Pz()}
}

// Pt is the momentum transverse to the z axis.
func (p Momentum) Pt() float64 {
	v := p.FourVector()
	return v.Pt()
}

// Eta is the pseudorapidity: 0 at rest and infinite along the z axis.
func (p Momentum) Eta() float64 {
	v := p.FourVector()
	return v.Eta()
}

// Sum adds up a set of momenta.
func Sum(ps ...Momentum) Momentum {
	var total fmom.PxPyPzE
	for _, p := range ps {
		v := p.FourVector()
		fmom.IAdd(&total, &v)
	}
	return FromP4(&total)
}

func zeroIfClose(x, eps float64) float64 {
	if math.Abs(x) < eps {
		return 0
	}
	return x
}
