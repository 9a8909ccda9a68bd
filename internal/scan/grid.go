// Package scan sweeps an experiment over a grid of inputs.
package scan

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/san-kum/widthlab/internal/config"
	"github.com/san-kum/widthlab/internal/experiment"
	"github.com/san-kum/widthlab/internal/integration"
)

var ErrEmptyGrid = errors.New("scan: empty grid")

// Point is one grid node. Err is set when the node could not be computed,
// for example below threshold; the scan carries on.
type Point struct {
	Params   map[string]float64
	Estimate integration.Estimate
	State    integration.State
	Err      error
}

type Grid struct {
	names  []string
	ranges [][]float64
}

func NewGrid(names []string, ranges [][]float64) *Grid {
	return &Grid{names: names, ranges: ranges}
}

// FromConfig builds the one-dimensional grid described by sc.
func FromConfig(sc config.ScanConfig) (*Grid, error) {
	if sc.Variable == "" {
		return nil, fmt.Errorf("%w: no scan variable", ErrEmptyGrid)
	}
	if sc.Points < 2 || sc.To <= sc.From {
		return nil, fmt.Errorf("%w: %d points over [%g, %g]", ErrEmptyGrid, sc.Points, sc.From, sc.To)
	}
	return NewGrid([]string{sc.Variable}, [][]float64{Linspace(sc.From, sc.To, sc.Points)}), nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func (g *Grid) Names() []string { return g.names }

// Size is the number of grid nodes.
func (g *Grid) Size() int {
	if len(g.names) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Run evaluates exp at every node in row-major order, reusing the prepared
// experiment through Set. exp must have been Setup. Only a context
// cancellation stops the scan early.
func (g *Grid) Run(ctx context.Context, exp *experiment.Experiment, onPoint func(Point)) ([]Point, error) {
	if g.Size() == 0 {
		return nil, ErrEmptyGrid
	}
	if len(g.names) != len(g.ranges) {
		return nil, fmt.Errorf("scan: %d names for %d ranges", len(g.names), len(g.ranges))
	}

	points := make([]Point, 0, g.Size())
	err := g.runRecursive(ctx, 0, make(map[string]float64), exp, func(p Point) {
		points = append(points, p)
		if onPoint != nil {
			onPoint(p)
		}
	})
	return points, err
}

func (g *Grid) runRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	exp *experiment.Experiment,
	emit func(Point),
) error {
	if depth == len(g.names) {
		p := Point{Params: maps.Clone(current)}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, name := range g.names {
			if err := exp.Set(name, current[name]); err != nil {
				p.Err = err
				emit(p)
				return nil
			}
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			p.Err = err
			emit(p)
			return nil
		}
		p.Estimate = result.Estimate
		p.State = result.State
		emit(p)
		return nil
	}

	name := g.names[depth]
	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[name] = val
		if err := g.runRecursive(ctx, depth+1, next, exp, emit); err != nil {
			return err
		}
	}
	return nil
}

// Values extracts the estimates of the converged points, in order.
func Values(points []Point) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Err == nil && p.State == integration.Converged {
			out = append(out, p.Estimate.Value)
		}
	}
	return out
}
