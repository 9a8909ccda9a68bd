// Package vegas implements one adaptive pass of the VEGAS Monte Carlo
// algorithm: stratified sampling over a hypercube combined with a separable
// importance grid that is refined from the squared weights of every pass.
package vegas

import (
	"math"
	"math/rand/v2"
)

const (
	DefaultBins  = 50
	DefaultAlpha = 1.5
)

// minBinWeight floors each bin's refinement weight, as a fraction of the mean
// weight, so bins where no sample was nonzero keep a share of the points.
const minBinWeight = 0.05

// Func is the integrand in the unmapped integration coordinates.
type Func func(x []float64) float64

type Result struct {
	Value float64
	Error float64
	Calls int
}

// Sampler holds the importance grid between passes. It is not safe for
// concurrent use.
type Sampler struct {
	dim   int
	bins  int
	alpha float64
	lo    []float64
	width []float64
	edges [][]float64
	d     [][]float64
	count [][]int
	rng   *rand.Rand
}

type Option func(*Sampler)

func WithBins(n int) Option {
	return func(s *Sampler) {
		if n > 1 {
			s.bins = n
		}
	}
}

// WithAlpha sets the grid damping exponent; 0 freezes the grid.
func WithAlpha(a float64) Option {
	return func(s *Sampler) { s.alpha = a }
}

// New builds a sampler over the box [lo, hi] with a uniform grid.
func New(lo, hi []float64, rng *rand.Rand, opts ...Option) *Sampler {
	s := &Sampler{
		dim:   len(lo),
		bins:  DefaultBins,
		alpha: DefaultAlpha,
		lo:    append([]float64(nil), lo...),
		width: make([]float64, len(lo)),
		rng:   rng,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range lo {
		s.width[i] = hi[i] - lo[i]
	}

	s.edges = make([][]float64, s.dim)
	s.d = make([][]float64, s.dim)
	s.count = make([][]int, s.dim)
	for i := range s.edges {
		s.edges[i] = make([]float64, s.bins+1)
		for b := range s.edges[i] {
			s.edges[i][b] = float64(b) / float64(s.bins)
		}
		s.d[i] = make([]float64, s.bins)
		s.count[i] = make([]int, s.bins)
	}
	return s
}

func (s *Sampler) Dim() int { return s.dim }

// Edges returns a copy of the grid edges along axis i, in [0, 1].
func (s *Sampler) Edges(i int) []float64 {
	return append([]float64(nil), s.edges[i]...)
}

// Pass draws about calls points and returns the estimate of the integral.
// With adapt set the grid is refined from this pass's samples.
func (s *Sampler) Pass(f Func, calls int, adapt bool) Result {
	if s.dim == 0 {
		return Result{Value: f(nil), Calls: 1}
	}

	boxesPerAxis := int(math.Floor(math.Pow(float64(calls)/2, 1/float64(s.dim))))
	if boxesPerAxis < 1 {
		boxesPerAxis = 1
	}
	boxes := 1
	for i := 0; i < s.dim; i++ {
		boxes *= boxesPerAxis
	}
	perBox := calls / boxes
	if perBox < 2 {
		perBox = 2
	}

	for i := range s.d {
		clear(s.d[i])
		clear(s.count[i])
	}

	idx := make([]int, s.dim)
	bin := make([]int, s.dim)
	x := make([]float64, s.dim)
	var sum, variance float64

	for box := 0; box < boxes; box++ {
		// Welford running mean and squared deviation of the box
		var mean, m2 float64
		for k := 0; k < perBox; k++ {
			jac := 1.0
			for i := 0; i < s.dim; i++ {
				u := (float64(idx[i]) + s.rng.Float64()) / float64(boxesPerAxis)
				y, b, j := s.mapAxis(i, u)
				x[i] = s.lo[i] + y*s.width[i]
				bin[i] = b
				jac *= j
			}

			fv := f(x) * jac
			delta := fv - mean
			mean += delta / float64(k+1)
			m2 += delta * (fv - mean)
			for i := 0; i < s.dim; i++ {
				s.d[i][bin[i]] += fv * fv
				s.count[i][bin[i]]++
			}
		}

		n := float64(perBox)
		sum += mean
		variance += m2 / (n - 1) / n
		nextBox(idx, boxesPerAxis)
	}

	b := float64(boxes)
	res := Result{
		Value: sum / b,
		Error: math.Sqrt(variance) / b,
		Calls: boxes * perBox,
	}
	if adapt {
		s.refine()
	}
	return res
}

// mapAxis sends u in [0, 1) through the grid of axis i and returns the mapped
// coordinate in [0, 1], the grid bin and the Jacobian including the box width.
func (s *Sampler) mapAxis(i int, u float64) (float64, int, float64) {
	pos := u * float64(s.bins)
	b := int(pos)
	if b >= s.bins {
		b = s.bins - 1
	}
	e := s.edges[i]
	w := e[b+1] - e[b]
	y := e[b] + (pos-float64(b))*w
	return y, b, float64(s.bins) * w * s.width[i]
}

func nextBox(idx []int, n int) {
	for i := range idx {
		idx[i]++
		if idx[i] < n {
			return
		}
		idx[i] = 0
	}
}

// refine moves the grid edges so that every bin carries an equal share of
// the damped, smoothed mean of (f·J)² collected in the last pass.
func (s *Sampler) refine() {
	if s.alpha == 0 {
		return
	}
	n := s.bins
	d := make([]float64, n)
	smooth := make([]float64, n)
	weight := make([]float64, n)
	edges := make([]float64, n+1)

	for i := 0; i < s.dim; i++ {
		for b := 0; b < n; b++ {
			d[b] = 0
			if c := s.count[i][b]; c > 0 {
				d[b] = s.d[i][b] / float64(c)
			}
		}
		var total float64
		for b := 0; b < n; b++ {
			switch {
			case b == 0:
				smooth[b] = (d[0] + d[1]) / 2
			case b == n-1:
				smooth[b] = (d[n-2] + d[n-1]) / 2
			default:
				smooth[b] = (d[b-1] + d[b] + d[b+1]) / 3
			}
			total += smooth[b]
		}
		if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
			continue
		}

		var wsum float64
		for b := 0; b < n; b++ {
			r := smooth[b] / total
			switch {
			case r <= 0:
				weight[b] = 0
			case r >= 1:
				weight[b] = 1
			default:
				weight[b] = math.Pow((r-1)/math.Log(r), s.alpha)
			}
			wsum += weight[b]
		}
		if wsum == 0 {
			continue
		}
		floor := minBinWeight * wsum / float64(n)
		for b := 0; b < n; b++ {
			if weight[b] < floor {
				wsum += floor - weight[b]
				weight[b] = floor
			}
		}

		old := s.edges[i]
		edges[0], edges[n] = 0, 1
		step := wsum / float64(n)
		acc, j := 0.0, 0
		for k := 1; k < n; k++ {
			target := float64(k) * step
			for j < n-1 && acc+weight[j] < target {
				acc += weight[j]
				j++
			}
			frac := 0.0
			if weight[j] > 0 {
				frac = math.Min(1, (target-acc)/weight[j])
			}
			edges[k] = old[j] + frac*(old[j+1]-old[j])
		}
		copy(old, edges)
	}
}
