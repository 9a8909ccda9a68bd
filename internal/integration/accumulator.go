package integration

import "math"

// exactTolerance is the relative pass error below which a pass carries no
// usable variance estimate.
const exactTolerance = 1e-12

// accumulator combines passes with inverse-variance weights.
//
// A pass with zero variance cannot be weighted by 1/σ². Once a weighted pass
// exists it takes the mean weight of the weighted passes. Before that it is
// held back, and only a run made entirely of such passes that agree on a
// nonzero value counts as exactly integrated.
type accumulator struct {
	values  []float64
	weights []float64
	pending []float64
}

func (a *accumulator) add(p Estimate) {
	if p.Error > exactTolerance*math.Abs(p.Value) {
		w := 1 / (p.Error * p.Error)
		for _, v := range a.pending {
			a.values = append(a.values, v)
			a.weights = append(a.weights, w)
		}
		a.pending = a.pending[:0]
		a.values = append(a.values, p.Value)
		a.weights = append(a.weights, w)
		return
	}
	if len(a.weights) == 0 {
		a.pending = append(a.pending, p.Value)
		return
	}
	var sw float64
	for _, w := range a.weights {
		sw += w
	}
	a.values = append(a.values, p.Value)
	a.weights = append(a.weights, sw/float64(len(a.weights)))
}

// exact reports whether every pass so far had zero variance and all of them
// agree on the same nonzero value. A run that never saw a nonzero sample has
// no evidence the integrand is zero rather than narrowly supported.
func (a *accumulator) exact() bool {
	if len(a.values) > 0 || len(a.pending) < 2 {
		return false
	}
	v0 := a.pending[0]
	if v0 == 0 {
		return false
	}
	for _, v := range a.pending[1:] {
		if math.Abs(v-v0) > exactTolerance*math.Abs(v0) {
			return false
		}
	}
	return true
}

func (a *accumulator) estimate() Estimate {
	if len(a.values) == 0 {
		return a.spread()
	}
	var sw, swv float64
	for i, w := range a.weights {
		sw += w
		swv += w * a.values[i]
	}
	if sw == 0 {
		return Estimate{}
	}
	return Estimate{Value: swv / sw, Error: 1 / math.Sqrt(sw)}
}

// spread summarizes zero-variance passes by their mean and half range.
func (a *accumulator) spread() Estimate {
	if len(a.pending) == 0 {
		return Estimate{}
	}
	lo, hi, sum := a.pending[0], a.pending[0], 0.0
	for _, v := range a.pending {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	return Estimate{Value: sum / float64(len(a.pending)), Error: (hi - lo) / 2}
}

// chi2PerDof is Σ w_i (v_i - mean)² / (n-1) over the weighted passes.
func (a *accumulator) chi2PerDof() float64 {
	if len(a.values) < 2 {
		return 0
	}
	mean := a.estimate().Value
	var chi2 float64
	for i, v := range a.values {
		d := v - mean
		chi2 += a.weights[i] * d * d
	}
	return chi2 / float64(len(a.values)-1)
}

func (a *accumulator) converged(tolerance float64) bool {
	if a.exact() {
		return true
	}
	if len(a.values) < 2 {
		return false
	}
	return math.Abs(a.chi2PerDof()-1) <= tolerance
}
