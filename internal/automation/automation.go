package automation

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/optim"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep runs one preset with optional overrides. Zero values keep
// the preset's setting.
type ScenarioStep struct {
	Preset     string             `yaml:"preset"`
	Frames     int                `yaml:"frames"`
	Seed       int64              `yaml:"seed"`
	Particles  int                `yaml:"particles"`
	Gravity    *config.Point      `yaml:"gravity"`
	Attraction *float32           `yaml:"attraction"`
	Params     map[string]float64 `yaml:"params"`
	Metrics    []string           `yaml:"metrics"`
	Save       bool               `yaml:"save"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Preset string
	RunID  string
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step into a full configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.GetPreset(s.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
	}
	if s.Frames > 0 {
		cfg.Run.Frames = s.Frames
	}
	if s.Seed != 0 {
		cfg.Run.Seed = s.Seed
	}
	if s.Particles > 0 {
		cfg.Spawn.MaxParticles = s.Particles
	}
	if s.Gravity != nil {
		cfg.Physics.Gravity = *s.Gravity
	}
	if s.Attraction != nil {
		cfg.Physics.AttractionFactor = *s.Attraction
	}
	for name, v := range s.Params {
		set, ok := optim.Params[name]
		if !ok {
			return nil, fmt.Errorf("unknown param: %s (available: %v)", name, optim.ParamNames())
		}
		set(cfg, v)
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. Steps marked save are written to
// store, which may be nil when no step saves.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store, logger *zap.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("preset", step.Preset))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, logger)
		if err := exp.Setup(registry, step.Metrics); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Preset: cfg.Preset, Result: result}
		if step.Save {
			if store == nil {
				return results, fmt.Errorf("step %d: save requested without a store", i+1)
			}
			sr.RunID, err = store.Save(cfg, result, exp.System().Particles())
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs one preset across evenly spaced values of a param.
type ParameterSweep struct {
	Preset   string
	Param    string
	Min, Max float64
	NumSteps int
	Frames   int
	Metrics  []string
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Particles  int
	Contacts   int
	Dropped    int
	Metrics    map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *zap.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for _, v := range optim.Linspace(sweep.Min, sweep.Max, sweep.NumSteps) {
		step := ScenarioStep{
			Preset:  sweep.Preset,
			Frames:  sweep.Frames,
			Params:  map[string]float64{sweep.Param: v},
			Metrics: sweep.Metrics,
		}
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}

		exp := experiment.New(cfg, logger)
		if err := exp.Setup(registry, sweep.Metrics); err != nil {
			return results, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}

		sr := SweepResult{ParamValue: v, Particles: exp.System().Len(), Metrics: result.Metrics}
		for _, fs := range result.Stats {
			sr.Contacts += fs.Contacts
			sr.Dropped += fs.Dropped
		}
		results = append(results, sr)

		logger.Debug("sweep point", zap.String("param", sweep.Param), zap.Float64("value", v))
	}

	return results, nil
}
