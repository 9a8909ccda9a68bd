package kinematics

import "github.com/san-kum/widthlab/internal/lorentz"

func (c *Calculator) scatter22(cosTheta float64) {
	pIn := c.sqrtS * c.betaIn / 2
	pOut := c.sqrtS * c.betaOut / 2
	sinTheta := sinFromCos(cosTheta)

	c.momenta[0] = lorentz.OnShell(c.masses[0], pIn, [3]float64{0, 0, 1})
	c.momenta[1] = lorentz.OnShell(c.masses[1], pIn, [3]float64{0, 0, -1})
	c.momenta[2] = lorentz.OnShell(c.masses[2], pOut, [3]float64{sinTheta, 0, cosTheta})
	c.momenta[3] = lorentz.OnShell(c.masses[3], pOut, [3]float64{-sinTheta, 0, -cosTheta})
}
