package batch

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/widthlab/internal/config"
	"github.com/san-kum/widthlab/internal/integration"
)

const higgsChannels = `
name: higgs
description: two fermion channels of a 125 GeV scalar
steps:
  - label: bb
    preset: higgs_bb
  - label: tautau
    preset: higgs_bb
    outgoing: [1.77686, 1.77686]
    params:
      y: 0.0072165
      m_f: 1.77686
  - label: broken
    preset: nope
  - label: ee_mumu
    preset: ee_mumu
    calls: 500
    max_iterations: 3
`

func writeBatch(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func yukawa(y, M, mf float64) float64 {
	beta := math.Sqrt(1 - 4*mf*mf/(M*M))
	return y * y * M * beta * beta * beta / (8 * math.Pi)
}

func TestLoad(t *testing.T) {
	b, err := Load(writeBatch(t, higgsChannels))
	require.NoError(t, err)
	assert.Equal(t, "higgs", b.Name)
	require.Len(t, b.Steps, 4)
	assert.Equal(t, []float64{1.77686, 1.77686}, b.Steps[1].Outgoing)
	assert.Equal(t, 500, b.Steps[3].Calls)

	_, err = Load(writeBatch(t, "name: empty\n"))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStepConfig(t *testing.T) {
	cfg, err := Step{Preset: "higgs_bb", Label: "hbb", Seed: 7, Params: map[string]float64{"y": 0.5}}.Config()
	require.NoError(t, err)
	assert.Equal(t, "hbb", cfg.Name)
	assert.Equal(t, uint64(7), cfg.Integration.Seed)
	assert.Equal(t, 0.5, cfg.Params["y"])
	assert.Equal(t, 4.18, cfg.Params["m_f"], "preset params are kept")
	assert.NotEqual(t, 0.5, config.Presets["higgs_bb"].Params["y"])

	_, err = Step{Preset: "nope"}.Config()
	assert.Error(t, err)

	_, err = Step{Incoming: []float64{0, 0}}.Config()
	assert.Error(t, err, "scattering without sqrt_s")
}

func TestRunAndBranchingRatios(t *testing.T) {
	b, err := Load(writeBatch(t, higgsChannels))
	require.NoError(t, err)

	outcomes, err := Run(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.NoError(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
	assert.Error(t, outcomes[2].Err)
	assert.Contains(t, outcomes[2].Err.Error(), "broken")
	assert.False(t, outcomes[3].Decay(), "scattering is not a decay channel")

	ratios, total := BranchingRatios(outcomes)
	require.Len(t, ratios, 2)

	bb := yukawa(4.18/config.HiggsVEV, 125.25, 4.18)
	tt := yukawa(0.0072165, 125.25, 1.77686)
	assert.InEpsilon(t, bb+tt, total.Value, 1e-12)
	assert.InEpsilon(t, bb/(bb+tt), ratios[0].Ratio.Value, 1e-12)
	assert.InEpsilon(t, tt/(bb+tt), ratios[1].Ratio.Value, 1e-12)
	assert.Equal(t, "tautau", ratios[1].Label)
	assert.Zero(t, ratios[0].Ratio.Error, "exact widths carry no error")
}

func TestBranchingRatioErrors(t *testing.T) {
	ratios, total := BranchingRatios(nil)
	assert.Nil(t, ratios)
	assert.Zero(t, total.Value)

	// two equal channels with 10% errors: BR = 0.5 with error 0.5*0.1/sqrt(2)
	w := integration.Estimate{Value: 1, Error: 0.1}
	b, err := Load(writeBatch(t, "steps:\n  - preset: higgs_bb\n"))
	require.NoError(t, err)
	outcomes, err := Run(context.Background(), b)
	require.NoError(t, err)
	one := outcomes[0]
	one.Result.Estimate = w
	two := one
	ratios, _ = BranchingRatios([]Outcome{one, two})
	require.Len(t, ratios, 2)
	assert.InDelta(t, 0.5, ratios[0].Ratio.Value, 1e-15)
	assert.InDelta(t, 0.05/math.Sqrt(2), ratios[0].Ratio.Error, 1e-12)
}

func TestExhaustedWidthIsExcluded(t *testing.T) {
	b, err := Load(writeBatch(t, "steps:\n  - label: good\n    preset: higgs_bb\n  - label: capped\n    preset: higgs_bb\n"))
	require.NoError(t, err)
	outcomes, err := Run(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	outcomes[0].Result.Estimate = integration.Estimate{Value: 1, Error: 0.01}
	outcomes[1].Result.Estimate = integration.Estimate{Value: 3, Error: 0.01}
	outcomes[1].Result.State = integration.Exhausted
	assert.True(t, outcomes[0].Decay())
	assert.False(t, outcomes[1].Decay(), "a capped width is not usable")

	ratios, total := BranchingRatios(outcomes)
	require.Len(t, ratios, 1)
	assert.Equal(t, "good", ratios[0].Label)
	assert.InDelta(t, 1, total.Value, 1e-15)
	assert.InDelta(t, 1, ratios[0].Ratio.Value, 1e-15)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Batch{Steps: []Step{{Preset: "higgs_bb"}, {Preset: "higgs_bb"}}}
	outcomes, err := Run(ctx, b)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, outcomes)
}
