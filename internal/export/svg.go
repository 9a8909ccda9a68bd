// Package export renders runs and scans as standalone SVG charts.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/widthlab/internal/integration"
	"github.com/san-kum/widthlab/internal/scan"
)

const (
	background = "#0a0a0a"
	axisColor  = "#444466"
	lineColor  = "#00ccff"
	bandColor  = "#00ccff"
	dotColor   = "#ffaa00"
)

// Series is a line with an optional symmetric error band. Err may be nil.
type Series struct {
	Title string
	X     []float64
	Y     []float64
	Err   []float64
}

// FromIterations plots the cumulative estimate against the pass index.
func FromIterations(title string, iters []integration.Iteration) Series {
	s := Series{Title: title}
	for _, it := range iters {
		s.X = append(s.X, float64(it.Index))
		s.Y = append(s.Y, it.Cumulative.Value)
		s.Err = append(s.Err, it.Cumulative.Error)
	}
	return s
}

// FromScan keeps the converged points of a one-variable scan.
func FromScan(title, variable string, points []scan.Point) Series {
	s := Series{Title: title}
	for _, p := range points {
		if p.Err != nil || p.State != integration.Converged {
			continue
		}
		s.X = append(s.X, p.Params[variable])
		s.Y = append(s.Y, p.Estimate.Value)
		s.Err = append(s.Err, p.Estimate.Error)
	}
	return s
}

type bounds struct{ minX, maxX, minY, maxY float64 }

func (s Series) bounds() bounds {
	b := bounds{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
	for i := range s.X {
		e := 0.0
		if s.Err != nil {
			e = s.Err[i]
		}
		b.minX, b.maxX = math.Min(b.minX, s.X[i]), math.Max(b.maxX, s.X[i])
		b.minY, b.maxY = math.Min(b.minY, s.Y[i]-e), math.Max(b.maxY, s.Y[i]+e)
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = math.Max(math.Abs(b.maxY), 1)
	}
	b.minX -= rangeX * 0.05
	b.maxX += rangeX * 0.05
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b
}

// SVG renders s. Fewer than two points is an error.
func SVG(w io.Writer, s Series, width, height int) error {
	if len(s.X) < 2 || len(s.X) != len(s.Y) || (s.Err != nil && len(s.Err) != len(s.X)) {
		return fmt.Errorf("export: need at least 2 matching points, got x=%d y=%d", len(s.X), len(s.Y))
	}

	b := s.bounds()
	px := func(x float64) float64 { return (x - b.minX) / (b.maxX - b.minX) * float64(width) }
	py := func(y float64) float64 { return float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height) }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	if s.Title != "" {
		sb.WriteString(fmt.Sprintf(`<text x="8" y="16" fill="%s" font-family="monospace" font-size="12">%s</text>
`, axisColor, escape(s.Title)))
	}
	sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="10">%.4g .. %.4g</text>
`, height-6, axisColor, b.minY, b.maxY))

	if s.Err != nil {
		sb.WriteString(fmt.Sprintf(`<path fill="%s" fill-opacity="0.2" stroke="none" d="M`, bandColor))
		for i := range s.X {
			if i > 0 {
				sb.WriteString(" L")
			}
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(s.X[i]), py(s.Y[i]+s.Err[i])))
		}
		for i := len(s.X) - 1; i >= 0; i-- {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(s.X[i]), py(s.Y[i]-s.Err[i])))
		}
		sb.WriteString(" Z\"/>\n")
	}

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, lineColor))
	for i := range s.X {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(s.X[i]), py(s.Y[i])))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(s.X[i]), py(s.Y[i])))
		}
	}
	sb.WriteString("\"/>\n")

	sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", dotColor))
	for i := range s.X {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2"/>`+"\n", px(s.X[i]), py(s.Y[i])))
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
