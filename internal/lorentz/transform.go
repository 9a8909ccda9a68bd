package lorentz

import (
	"fmt"
	"math"
)

// Transformation is a frame change. The transformation describes the target
// frame; use Apply to carry a momentum into it.
type Transformation interface {
	Matrix() Matrix
	Inverse() Transformation
}

// Apply maps p with the passive convention: the inverse matrix of t is
// contracted with p on its first index. This is the only place where a
// transformation touches a momentum.
func Apply(t Transformation, p Momentum) Momentum {
	inv := t.Inverse().Matrix()
	var out Momentum
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i] += inv[j][i] * p[j]
		}
	}
	return out
}

// Compose returns the product of the given transformations, left to right.
// The result is a bare matrix: general compositions are not themselves
// Boosts or Rotations.
func Compose(ts ...Transformation) Matrix {
	m := Identity()
	for _, t := range ts {
		m = m.Mul(t.Matrix())
	}
	return m
}

// Axis selects a spatial axis; negative values flip its direction.
type Axis int

const (
	X Axis = 1
	Y Axis = 2
	Z Axis = 3
)

func (a Axis) Neg() Axis { return -a }

func (a Axis) index() int {
	i := int(a)
	if i < 0 {
		i = -i
	}
	if i < 1 || i > 3 {
		panic(fmt.Sprintf("lorentz: invalid axis %d", int(a)))
	}
	return i - 1
}

func (a Axis) sign() float64 {
	if a < 0 {
		return -1
	}
	return 1
}

// Boost is a pure Lorentz boost with 3-velocity beta (units of c).
type Boost struct {
	beta  [3]float64
	gamma float64
	m     Matrix
}

func NewBoost(beta [3]float64) (Boost, error) {
	b2 := beta[0]*beta[0] + beta[1]*beta[1] + beta[2]*beta[2]
	if b2 >= 1 || math.IsNaN(b2) {
		return Boost{}, fmt.Errorf("%w: |beta|=%g", ErrSuperluminal, math.Sqrt(b2))
	}
	return newBoost(beta, 1/math.Sqrt(1-b2)), nil
}

// BoostAlong builds the boost with Lorentz factor gamma along a single signed
// axis. Gamma values below 1 from rounding are treated as 1.
func BoostAlong(gamma float64, axis Axis) Boost {
	if gamma < 1 {
		gamma = 1
	}
	var beta [3]float64
	beta[axis.index()] = axis.sign() * math.Sqrt(math.Max(0, 1-1/(gamma*gamma)))
	return newBoost(beta, gamma)
}

func newBoost(beta [3]float64, gamma float64) Boost {
	// (g-1)/beta^2 rewritten as g^2/(g+1): finite at beta = 0.
	f := gamma * gamma / (gamma + 1)
	g := gamma
	bx, by, bz := beta[0], beta[1], beta[2]
	m := Matrix{
		{g, -g * bx, -g * by, -g * bz},
		{-g * bx, 1 + f*bx*bx, f * bx * by, f * bx * bz},
		{-g * by, f * by * bx, 1 + f*by*by, f * by * bz},
		{-g * bz, f * bz * bx, f * bz * by, 1 + f*bz*bz},
	}
	return Boost{beta: beta, gamma: gamma, m: m.sanitize(matrixEps)}
}

// BoostFromMatrix recovers beta and gamma from the time row of a boost matrix.
func BoostFromMatrix(m Matrix) (Boost, error) {
	g := m[0][0]
	if g < 1 {
		return Boost{}, fmt.Errorf("%w: gamma=%g", ErrSuperluminal, g)
	}
	return NewBoost([3]float64{-m[0][1] / g, -m[0][2] / g, -m[0][3] / g})
}

func (b Boost) Matrix() Matrix       { return b.m }
func (b Boost) Gamma() float64       { return b.gamma }
func (b Boost) Beta() [3]float64     { return b.beta }
func (b Boost) BetaSquared() float64 { return 1 - 1/(b.gamma*b.gamma) }

// Inverse negates beta. This is exact for a single boost; it is not the
// inverse of a product of boosts along different axes.
func (b Boost) Inverse() Transformation {
	return newBoost([3]float64{-b.beta[0], -b.beta[1], -b.beta[2]}, b.gamma)
}

// Then composes two collinear boosts. Non-collinear boosts do not compose
// to a pure boost and yield ErrNonCollinear.
func (b Boost) Then(o Boost) (Boost, error) {
	cx := b.beta[1]*o.beta[2] - b.beta[2]*o.beta[1]
	cy := b.beta[2]*o.beta[0] - b.beta[0]*o.beta[2]
	cz := b.beta[0]*o.beta[1] - b.beta[1]*o.beta[0]
	if math.Sqrt(cx*cx+cy*cy+cz*cz) > matrixEps {
		return Boost{}, ErrNonCollinear
	}
	return BoostFromMatrix(b.m.Mul(o.m))
}

// Rotation is a spatial rotation parameterised by three fixed-axis angles.
type Rotation struct {
	angles [3]float64
	m      Matrix
}

func NewRotation(thetaX, thetaY, thetaZ float64) Rotation {
	cx, sx := math.Cos(thetaX), math.Sin(thetaX)
	cy, sy := math.Cos(thetaY), math.Sin(thetaY)
	cz, sz := math.Cos(thetaZ), math.Sin(thetaZ)
	m := Matrix{
		{1, 0, 0, 0},
		{0, cy * cz, sx*sy*cz - cx*sz, cx*sy*cz + sx*sz},
		{0, cy * sz, sx*sy*sz + cx*cz, cx*sy*sz - sx*cz},
		{0, -sy, sx * cy, cx * cy},
	}
	return Rotation{angles: [3]float64{thetaX, thetaY, thetaZ}, m: m.sanitize(matrixEps)}
}

// RotationFromMatrix keeps m as given and recovers its angles.
func RotationFromMatrix(m Matrix) Rotation {
	sy := -m[3][1]
	ty := math.Asin(math.Max(-1, math.Min(1, sy)))
	var tx, tz float64
	if math.Abs(sy) >= 1 {
		// gimbal lock: only thetaX - sign*thetaZ is defined, pick thetaZ = 0
		tx = math.Atan2(sy*m[1][2], sy*m[1][3])
	} else {
		tx = math.Atan2(m[3][2], m[3][3])
		tz = math.Atan2(m[2][1], m[1][1])
	}
	return Rotation{angles: [3]float64{tx, ty, tz}, m: m.sanitize(matrixEps)}
}

func (r Rotation) Matrix() Matrix     { return r.m }
func (r Rotation) Angles() [3]float64 { return r.angles }

// Inverse is the exact transpose, rebuilt as a Rotation.
func (r Rotation) Inverse() Transformation {
	return RotationFromMatrix(r.m.Transpose())
}

func (r Rotation) Then(o Rotation) Rotation {
	return RotationFromMatrix(r.m.Mul(o.m))
}
