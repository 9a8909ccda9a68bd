package kinematics

import "github.com/san-kum/widthlab/internal/lorentz"

// decay12 puts the parent at rest and the daughters back to back along z.
func (c *Calculator) decay12() {
	p := c.sqrtS * c.betaOut / 2
	c.momenta[0] = lorentz.AtRest(c.sqrtS)
	c.momenta[1] = lorentz.OnShell(c.masses[1], p, [3]float64{0, 0, 1})
	c.momenta[2] = lorentz.OnShell(c.masses[2], p, [3]float64{0, 0, -1})
}
