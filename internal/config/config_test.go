package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultAmplitude, cfg.Amplitude)
	assert.Equal(t, DefaultCalls, cfg.Integration.Calls)
	assert.Equal(t, DefaultMaxIterations, cfg.Integration.MaxIterations)
	require.NoError(t, cfg.Validate())
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("muon_decay")
	require.NotNil(t, cfg)
	assert.Equal(t, "muon_decay", cfg.Amplitude)
	assert.Equal(t, []float64{MuonMass}, cfg.Incoming)
	assert.Len(t, cfg.Outgoing, 3)
}

func TestGetPresetIsACopy(t *testing.T) {
	cfg := GetPreset("higgs_bb")
	require.NotNil(t, cfg)
	cfg.Outgoing[0] = 99
	cfg.Params["y"] = 99

	again := GetPreset("higgs_bb")
	assert.Equal(t, 4.18, again.Outgoing[0])
	assert.NotEqual(t, 99.0, again.Params["y"])
}

func TestGetPresetNotFound(t *testing.T) {
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, GetPreset(name).Validate())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unsupported topology", func(c *Config) { c.Outgoing = []float64{1} }},
		{"missing amplitude", func(c *Config) { c.Amplitude = "" }},
		{"scattering without energy", func(c *Config) { c.Incoming = []float64{0, 0}; c.SqrtS = 0 }},
		{"too few calls", func(c *Config) { c.Integration.Calls = 1 }},
		{"no iterations", func(c *Config) { c.Integration.MaxIterations = 0 }},
		{"bad scan variable", func(c *Config) { c.Scan = ScanConfig{Variable: "width", From: 1, To: 2, Points: 3} }},
		{"empty scan range", func(c *Config) { c.Scan = ScanConfig{Variable: "mass", From: 2, To: 1, Points: 3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	want := GetPreset("z_mumu")

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEffectiveSqrtS(t *testing.T) {
	assert.Equal(t, MuonMass, GetPreset("muon_decay").EffectiveSqrtS())
	assert.Equal(t, 10.0, GetPreset("ee_mumu").EffectiveSqrtS())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("WIDTHLAB_CALLS", "2500")
	t.Setenv("WIDTHLAB_SEED", "9")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "./runs", e.DataDir)
	assert.Equal(t, "info", e.LogLevel)

	cfg := DefaultConfig()
	e.Apply(cfg)
	assert.Equal(t, 2500, cfg.Integration.Calls)
	assert.Equal(t, uint64(9), cfg.Integration.Seed)
	assert.Equal(t, DefaultMaxIterations, cfg.Integration.MaxIterations)
}

func TestLoadEnvError(t *testing.T) {
	t.Setenv("WIDTHLAB_MAX_ITER", "many")

	_, err := LoadEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"debug+2": slog.LevelDebug + 2,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
