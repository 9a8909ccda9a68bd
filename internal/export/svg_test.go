package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/widthlab/internal/integration"
	"github.com/san-kum/widthlab/internal/scan"
)

func TestSVGFromIterations(t *testing.T) {
	iters := []integration.Iteration{
		{Index: 1, Cumulative: integration.Estimate{Value: 1.0, Error: 0.2}},
		{Index: 2, Cumulative: integration.Estimate{Value: 1.1, Error: 0.1}},
		{Index: 3, Cumulative: integration.Estimate{Value: 1.05, Error: 0.05}},
	}

	var sb strings.Builder
	require.NoError(t, SVG(&sb, FromIterations("muon <decay>", iters), 400, 200))

	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "muon &lt;decay&gt;")
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Equal(t, 2, strings.Count(out, "<path"), "line plus error band")
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestSVGWithoutErrors(t *testing.T) {
	var sb strings.Builder
	s := Series{X: []float64{0, 1}, Y: []float64{2, 2}}
	require.NoError(t, SVG(&sb, s, 100, 100))
	assert.Equal(t, 1, strings.Count(sb.String(), "<path"))
	assert.NotContains(t, sb.String(), "NaN")
}

func TestSVGTooFewPoints(t *testing.T) {
	var sb strings.Builder
	assert.Error(t, SVG(&sb, Series{X: []float64{1}, Y: []float64{1}}, 100, 100))
	assert.Error(t, SVG(&sb, Series{X: []float64{1, 2}, Y: []float64{1}}, 100, 100))
	assert.Empty(t, sb.String())
}

func TestFromScanSkipsFailures(t *testing.T) {
	points := []scan.Point{
		{Params: map[string]float64{"mass": 5}, Err: errors.New("below threshold")},
		{Params: map[string]float64{"mass": 50}, State: integration.Converged, Estimate: integration.Estimate{Value: 1}},
		{Params: map[string]float64{"mass": 75}, State: integration.Exhausted, Estimate: integration.Estimate{Value: 9}},
		{Params: map[string]float64{"mass": 100}, State: integration.Converged, Estimate: integration.Estimate{Value: 2}},
	}
	s := FromScan("higgs", "mass", points)
	assert.Equal(t, []float64{50, 100}, s.X)
	assert.Equal(t, []float64{1, 2}, s.Y)
}
