package kinematics

import (
	"math"

	"github.com/san-kum/widthlab/internal/lorentz"
)

// decay13Vars maps the Dalitz variables to t = (p2+p3)² and the cosine of
// daughter 2 in the (2,3) rest frame.
func (c *Calculator) decay13Vars(x, y float64) (t, cosStar float64) {
	M2 := c.masses2[0]
	m1sq, m2sq, m3sq := c.masses2[1], c.masses2[2], c.masses2[3]

	t = M2*(1-2*x) + m1sq
	num := 4*M2*y*t - (t+m2sq-m3sq)*(t+M2-m1sq)
	den := M2 * t * Beta(m1sq, t, M2) * Beta(m2sq, m3sq, t)
	return t, num / den
}

func (c *Calculator) decay13Valid(x, y float64) bool {
	M, m1, m2, m3 := c.masses[0], c.masses[1], c.masses[2], c.masses[3]
	t, cosStar := c.decay13Vars(x, y)
	lo, hi := (m2+m3)*(m2+m3), (M-m1)*(M-m1)
	return t > lo && t < hi && math.Abs(cosStar) <= 1
}

// decay13Limits is the bounding box of the Dalitz region in (x, y).
func (c *Calculator) decay13Limits() []Interval {
	M, m1, m2, m3 := c.masses[0], c.masses[1], c.masses[2], c.masses[3]
	M2 := c.masses2[0]
	return []Interval{
		{Lo: m1 / M, Hi: (M2 + c.masses2[1] - (m2+m3)*(m2+m3)) / (2 * M2)},
		{Lo: m2 / M, Hi: (M2 + c.masses2[2] - (m1+m3)*(m1+m3)) / (2 * M2)},
	}
}

func (c *Calculator) decay13(x, y float64) {
	M, M2 := c.masses[0], c.masses2[0]
	t, cosStar := c.decay13Vars(x, y)
	sqrtT := math.Sqrt(t)
	sinStar := sinFromCos(cosStar)

	p := M * Beta(t, c.masses2[1], M2) / 2
	pStar := sqrtT * Beta(c.masses2[2], c.masses2[3], t) / 2
	boost := lorentz.BoostAlong((M2+t-c.masses2[1])/(2*sqrtT*M), lorentz.Z)

	c.momenta[0] = lorentz.AtRest(M)
	c.momenta[1] = lorentz.OnShell(c.masses[1], p, [3]float64{0, 0, 1})
	c.momenta[2] = lorentz.Apply(flipZ, lorentz.Apply(boost,
		lorentz.OnShell(c.masses[2], pStar, [3]float64{sinStar, 0, cosStar})))
	c.momenta[3] = lorentz.Apply(flipZ, lorentz.Apply(boost,
		lorentz.OnShell(c.masses[3], pStar, [3]float64{-sinStar, 0, -cosStar})))
}
