package scan

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"sync"

	"github.com/san-kum/widthlab/internal/config"
	"github.com/san-kum/widthlab/internal/experiment"
)

// RunParallel evaluates the grid with up to workers goroutines. Each node
// gets its own experiment built from cfg, so the results match Run with the
// same seed. workers <= 0 uses GOMAXPROCS.
func (g *Grid) RunParallel(ctx context.Context, cfg *config.Config, workers int, opts ...experiment.Option) ([]Point, error) {
	if g.Size() == 0 {
		return nil, ErrEmptyGrid
	}
	if len(g.names) != len(g.ranges) {
		return nil, fmt.Errorf("scan: %d names for %d ranges", len(g.names), len(g.ranges))
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	nodes := g.nodes()
	points := make([]Point, len(nodes))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(nodes)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				points[idx] = evaluate(ctx, cfg, g.names, nodes[idx], opts)
			}
		}()
	}

feed:
	for i := range nodes {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// nodes lists the grid in row-major order.
func (g *Grid) nodes() []map[string]float64 {
	out := []map[string]float64{{}}
	for d, name := range g.names {
		next := make([]map[string]float64, 0, len(out)*len(g.ranges[d]))
		for _, base := range out {
			for _, v := range g.ranges[d] {
				n := maps.Clone(base)
				n[name] = v
				next = append(next, n)
			}
		}
		out = next
	}
	return out
}

func evaluate(ctx context.Context, cfg *config.Config, names []string, node map[string]float64, opts []experiment.Option) Point {
	p := Point{Params: node}
	exp := experiment.New(cfg, opts...)
	if err := exp.Setup(); err != nil {
		p.Err = err
		return p
	}
	for _, name := range names {
		if err := exp.Set(name, node[name]); err != nil {
			p.Err = err
			return p
		}
	}
	result, err := exp.Run(ctx)
	if err != nil {
		p.Err = err
		return p
	}
	p.Estimate = result.Estimate
	p.State = result.State
	return p
}
