package kinematics

import (
	"math"

	"github.com/san-kum/widthlab/internal/lorentz"
)

func (c *Calculator) scatter23Limits() []Interval {
	m2, m3, m4 := c.masses[2], c.masses[3], c.masses[4]
	return []Interval{
		{Lo: (m3 + m4) * (m3 + m4), Hi: (c.sqrtS - m2) * (c.sqrtS - m2)},
		{Lo: -1, Hi: 1},
		{Lo: -1, Hi: 1},
		{Lo: 0, Hi: 2 * math.Pi},
	}
}

func (c *Calculator) scatter23Factor(t float64) float64 {
	recoil := Beta(t, c.masses2[2], c.s)
	pair := Beta(c.masses2[3], c.masses2[4], t)
	return recoil * pair / (128 * math.Pow(2*math.Pi, 4) * c.s * c.betaIn)
}

// scatter23 emits particle 2 at angle theta and the (3,4) pair against it;
// the pair decays at (theta*, phi*) in its own rest frame.
func (c *Calculator) scatter23(t, cosTheta, cosStar, phiStar float64) {
	cosTheta = math.Max(-1, math.Min(1, cosTheta))
	sqrtT := math.Sqrt(t)
	sinTheta := sinFromCos(cosTheta)
	sinStar := sinFromCos(cosStar)

	pIn := c.sqrtS * c.betaIn / 2
	pRecoil := c.sqrtS * Beta(t, c.masses2[2], c.s) / 2
	pStar := sqrtT * Beta(c.masses2[3], c.masses2[4], t) / 2

	boost := lorentz.BoostAlong((c.s+t-c.masses2[2])/(2*c.sqrtS*sqrtT), lorentz.Z)
	rot := lorentz.NewRotation(0, math.Pi+math.Acos(cosTheta), 0)

	dir := [3]float64{sinStar * math.Cos(phiStar), sinStar * math.Sin(phiStar), cosStar}
	back := [3]float64{-dir[0], -dir[1], -dir[2]}

	c.momenta[0] = lorentz.OnShell(c.masses[0], pIn, [3]float64{0, 0, 1})
	c.momenta[1] = lorentz.OnShell(c.masses[1], pIn, [3]float64{0, 0, -1})
	c.momenta[2] = lorentz.OnShell(c.masses[2], pRecoil, [3]float64{sinTheta, 0, cosTheta})
	c.momenta[3] = lorentz.Apply(rot, lorentz.Apply(boost, lorentz.OnShell(c.masses[3], pStar, dir)))
	c.momenta[4] = lorentz.Apply(rot, lorentz.Apply(boost, lorentz.OnShell(c.masses[4], pStar, back)))
}
