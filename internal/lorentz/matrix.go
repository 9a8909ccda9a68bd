package lorentz

import (
	"fmt"
	"math"
	"strings"
)

// matrixEps is the threshold below which composed entries are snapped to 0.
const matrixEps = 1e-12

// Matrix is a row-major 4x4 real matrix acting on (E, px, py, pz).
type Matrix [4][4]float64

func Identity() Matrix {
	return Matrix{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns a*b with near-zero entries snapped to exactly 0, so chained
// products do not accumulate epsilon noise.
func (a Matrix) Mul(b Matrix) Matrix {
	var r Matrix
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a[i][k] * b[k][j]
			}
			r[i][j] = sum
		}
	}
	return r.sanitize(matrixEps)
}

func (a Matrix) Transpose() Matrix {
	var r Matrix
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = a[j][i]
		}
	}
	return r
}

func (a Matrix) sanitize(eps float64) Matrix {
	for i := range a {
		for j := range a[i] {
			a[i][j] = zeroIfClose(a[i][j], eps)
		}
	}
	return a
}

func (a Matrix) ApproxEqual(b Matrix, tol float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func (a Matrix) IsIdentity(tol float64) bool {
	return a.ApproxEqual(Identity(), tol)
}

func (a Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(fmt.Sprintf("[% .6g\t% .6g\t% .6g\t% .6g]", a[i][0], a[i][1], a[i][2], a[i][3]))
	}
	return sb.String()
}
