// Package lorentz provides relativistic 4-vectors and frame transformations.
//
//   - [Momentum]: 4-vector (E, px, py, pz) with the Minkowski metric
//   - [Boost]: pure boost from a 3-velocity or from (gamma, axis)
//   - [Rotation]: spatial rotation from three fixed-axis angles
//   - [Apply]: carries a momentum into the frame a transformation describes
//
// # Passive convention
//
// A [Transformation] describes the target frame. Applying it to a momentum
// uses its inverse, so call sites never multiply matrices themselves:
//
//	b := lorentz.BoostAlong(gamma, lorentz.Z)
//	p := lorentz.Apply(b, lorentz.OnShell(m, pStar, dir))
//
// Boost inverses negate beta. That is exact for a single boost but not for a
// product of boosts along different axes; [Boost.Then] refuses such products.
package lorentz
