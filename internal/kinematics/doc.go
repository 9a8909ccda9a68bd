// Package kinematics builds on-shell momenta for the four supported process
// topologies from a point in the unit-free integration domain.
//
// A Calculator owns the masses, the centre-of-mass energy squared s and the
// momentum slots of one topology. A Kinematics wraps a Calculator and
// publishes the pair invariants s_ij = p_i·p_j (1-based particle indices,
// incoming particles first) into a params.Store after every update.
//
// Topologies and their integration variables:
//
//	Decay12    1 -> 2   none
//	Decay13    1 -> 3   x = p0·p1/M², y = p0·p2/M²
//	Scatter22  2 -> 2   cos θ
//	Scatter23  2 -> 3   t = (p3+p4)², cos θ, cos θ*, φ*
//
// Momenta are expressed in the centre-of-mass frame of the incoming state,
// with the beam (or the first daughter of a decay) along +z.
package kinematics
