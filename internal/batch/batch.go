// Package batch runs a scripted list of processes from a YAML file and
// combines decay channels into branching ratios.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/widthlab/internal/config"
	"github.com/san-kum/widthlab/internal/experiment"
	"github.com/san-kum/widthlab/internal/integration"
)

var ErrEmpty = errors.New("batch: no steps")

// Batch is a named sequence of runs.
type Batch struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step starts from a preset, or the default config when Preset is empty,
// and overrides whatever fields are set.
type Step struct {
	Label         string             `yaml:"label"`
	Preset        string             `yaml:"preset"`
	Amplitude     string             `yaml:"amplitude"`
	Incoming      []float64          `yaml:"incoming"`
	Outgoing      []float64          `yaml:"outgoing"`
	SqrtS         float64            `yaml:"sqrt_s"`
	Params        map[string]float64 `yaml:"params"`
	Calls         int                `yaml:"calls"`
	MaxIterations int                `yaml:"max_iterations"`
	Seed          uint64             `yaml:"seed"`

	// Set is applied after setup, like a scan point.
	Set map[string]float64 `yaml:"set"`
}

func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if len(b.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return &b, nil
}

// Config builds the run configuration of s.
func (s Step) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Amplitude != "" {
		cfg.Amplitude = s.Amplitude
	}
	if s.Incoming != nil {
		cfg.Incoming = slices.Clone(s.Incoming)
	}
	if s.Outgoing != nil {
		cfg.Outgoing = slices.Clone(s.Outgoing)
	}
	if s.SqrtS > 0 {
		cfg.SqrtS = s.SqrtS
	}
	if len(s.Params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		maps.Copy(cfg.Params, s.Params)
	}
	if s.Calls > 0 {
		cfg.Integration.Calls = s.Calls
	}
	if s.MaxIterations > 0 {
		cfg.Integration.MaxIterations = s.MaxIterations
	}
	if s.Seed > 0 {
		cfg.Integration.Seed = s.Seed
	}
	if s.Label != "" {
		cfg.Name = s.Label
	}
	return cfg, cfg.Validate()
}

// Outcome is the result of one step. Err is set when the step failed;
// the batch continues with the next one.
type Outcome struct {
	Label      string
	Experiment *experiment.Experiment
	Result     *experiment.Result
	Err        error
}

// Decay reports whether the step is a usable decay width. A width whose
// integration hit the iteration cap is not.
func (o Outcome) Decay() bool {
	return o.Err == nil && o.Result != nil && o.Result.Converged() &&
		len(o.Experiment.Config().Incoming) == 1
}

// Run executes the steps in order. Only a context cancellation aborts it.
func Run(ctx context.Context, b *Batch, opts ...experiment.Option) ([]Outcome, error) {
	if len(b.Steps) == 0 {
		return nil, ErrEmpty
	}

	outcomes := make([]Outcome, 0, len(b.Steps))
	for i, step := range b.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("step%d", i+1)
		}
		out := Outcome{Label: label}

		slog.Debug("batch step", "batch", b.Name, "step", i+1, "of", len(b.Steps), "label", label)
		out.Experiment, out.Result, out.Err = runStep(ctx, step, opts)
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if out.Err != nil {
			out.Err = fmt.Errorf("step %d (%s): %w", i+1, label, out.Err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func runStep(ctx context.Context, step Step, opts []experiment.Option) (*experiment.Experiment, *experiment.Result, error) {
	cfg, err := step.Config()
	if err != nil {
		return nil, nil, err
	}
	exp := experiment.New(cfg, opts...)
	if err := exp.Setup(); err != nil {
		return exp, nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(step.Set)) {
		if err := exp.Set(name, step.Set[name]); err != nil {
			return exp, nil, err
		}
	}
	result, err := exp.Run(ctx)
	return exp, result, err
}

// Ratio is one channel's share of the total width.
type Ratio struct {
	Label string
	Width integration.Estimate
	Ratio integration.Estimate
}

// BranchingRatios divides each decay width by the sum over all decay steps.
// Uncertainties are propagated assuming independent channels.
func BranchingRatios(outcomes []Outcome) ([]Ratio, integration.Estimate) {
	var total integration.Estimate
	var varSum float64
	for _, o := range outcomes {
		if o.Decay() {
			total.Value += o.Result.Estimate.Value
			varSum += o.Result.Estimate.Error * o.Result.Estimate.Error
		}
	}
	total.Error = sqrt(varSum)
	if total.Value == 0 {
		return nil, total
	}

	var ratios []Ratio
	for _, o := range outcomes {
		if !o.Decay() {
			continue
		}
		w := o.Result.Estimate
		br := w.Value / total.Value
		// d(w/T) = dw (T - w)/T^2 for the own channel, -w/T^2 for the others
		own := w.Error * (total.Value - w.Value) / (total.Value * total.Value)
		others := br * sqrt(varSum-w.Error*w.Error) / total.Value
		ratios = append(ratios, Ratio{
			Label: o.Label,
			Width: w,
			Ratio: integration.Estimate{Value: br, Error: sqrt(own*own + others*others)},
		})
	}
	return ratios, total
}

func sqrt(x float64) float64 { return math.Sqrt(math.Max(x, 0)) }
