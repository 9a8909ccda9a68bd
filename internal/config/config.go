package config

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/widthlab/internal/kinematics"
)

const (
	DefaultCalls         = 1000
	DefaultMaxIterations = 50
	DefaultSeed          = 1
	DefaultBins          = 50
	DefaultAmplitude     = "unit"
)

// Config describes one process to integrate.
type Config struct {
	Name        string             `yaml:"name"`
	Amplitude   string             `yaml:"amplitude"`
	Incoming    []float64          `yaml:"incoming"`
	Outgoing    []float64          `yaml:"outgoing"`
	SqrtS       float64            `yaml:"sqrt_s,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	Integration IntegrationConfig  `yaml:"integration"`
	Scan        ScanConfig         `yaml:"scan,omitempty"`
}

type IntegrationConfig struct {
	Calls         int    `yaml:"calls"`
	MaxIterations int    `yaml:"max_iterations"`
	Seed          uint64 `yaml:"seed"`
	Bins          int    `yaml:"bins"`
}

// ScanConfig sweeps the parent mass ("mass") or the collision energy
// ("sqrt_s") over Points evenly spaced values.
type ScanConfig struct {
	Variable string  `yaml:"variable,omitempty"`
	From     float64 `yaml:"from,omitempty"`
	To       float64 `yaml:"to,omitempty"`
	Points   int     `yaml:"points,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:      "custom",
		Amplitude: DefaultAmplitude,
		Incoming:  []float64{1},
		Outgoing:  []float64{0, 0},
		Integration: IntegrationConfig{
			Calls:         DefaultCalls,
			MaxIterations: DefaultMaxIterations,
			Seed:          DefaultSeed,
			Bins:          DefaultBins,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Topology resolves the particle counts.
func (c *Config) Topology() (kinematics.Topology, error) {
	return kinematics.TopologyFor(len(c.Incoming), len(c.Outgoing))
}

// EffectiveSqrtS is the parent mass for decays and SqrtS otherwise.
func (c *Config) EffectiveSqrtS() float64 {
	if len(c.Incoming) == 1 {
		return c.Incoming[0]
	}
	return c.SqrtS
}

func (c *Config) Validate() error {
	if _, err := c.Topology(); err != nil {
		return err
	}
	if c.Amplitude == "" {
		return fmt.Errorf("config: amplitude is required")
	}
	if len(c.Incoming) == 2 && c.SqrtS <= 0 {
		return fmt.Errorf("config: sqrt_s must be positive for scattering, got %g", c.SqrtS)
	}
	if c.Integration.Calls < 2 {
		return fmt.Errorf("config: integration.calls must be at least 2, got %d", c.Integration.Calls)
	}
	if c.Integration.MaxIterations < 1 {
		return fmt.Errorf("config: integration.max_iterations must be at least 1, got %d", c.Integration.MaxIterations)
	}
	if c.Scan.Variable != "" {
		switch c.Scan.Variable {
		case "mass", "sqrt_s":
		default:
			return fmt.Errorf("config: unknown scan variable %q", c.Scan.Variable)
		}
		if c.Scan.Points < 2 || c.Scan.To <= c.Scan.From {
			return fmt.Errorf("config: scan needs at least 2 points over a non-empty range")
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Incoming = append([]float64(nil), c.Incoming...)
	out.Outgoing = append([]float64(nil), c.Outgoing...)
	out.Params = maps.Clone(c.Params)
	return &out
}
