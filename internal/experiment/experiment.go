package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/control"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/spawn"
)

// Experiment wires a configured ParticleSystem, its emitter and a simulator.
type Experiment struct {
	cfg        *config.Config
	system     *sim.ParticleSystem
	emitter    *spawn.Emitter
	thermostat *control.Thermostat
	simulator  *sim.Simulator
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{cfg: cfg, logger: logger}
}

// Setup validates the configuration and builds the system. metricNames
// selects metrics from the registry; nil uses the defaults.
func (e *Experiment) Setup(registry *Registry, metricNames []string) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sys, err := sim.New(e.cfg.SimConfig(),
		sim.WithLogger(e.logger.Named("sim")),
		sim.WithCapacity(e.cfg.Spawn.MaxParticles))
	if err != nil {
		return err
	}

	if metricNames == nil {
		metricNames = DefaultMetrics()
	}
	metrics := make([]sim.Metric, 0, len(metricNames))
	for _, name := range metricNames {
		m, err := registry.GetMetric(name, sys)
		if err != nil {
			return err
		}
		metrics = append(metrics, m)
	}

	e.system = sys
	e.emitter = spawn.NewEmitter(e.cfg.Spawn, e.cfg.Run.Seed)
	e.simulator = sim.NewSimulator(sys)
	e.simulator.AddDriver(e.emitter)
	if e.cfg.Thermostat.Enabled {
		e.thermostat = control.NewThermostat(e.cfg.Thermostat)
		e.simulator.AddDriver(e.thermostat)
	}
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}

	e.logger.Info("experiment ready",
		zap.String("preset", e.cfg.Preset),
		zap.Strings("metrics", metricNames),
		zap.Int("max_particles", e.cfg.Spawn.MaxParticles))
	return nil
}

// Run advances the configured number of frames.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.Run.Frames)
}

func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) System() *sim.ParticleSystem { return e.system }

func (e *Experiment) Emitter() *spawn.Emitter { return e.emitter }

// Thermostat returns the drag controller, nil unless enabled.
func (e *Experiment) Thermostat() *control.Thermostat { return e.thermostat }

func (e *Experiment) Config() *config.Config { return e.cfg }

// Factory returns an ensemble factory building one experiment per seed.
func Factory(cfg *config.Config, registry *Registry, metricNames []string, logger *zap.Logger) sim.Factory {
	return func(seed int64) (*sim.Simulator, error) {
		c := *cfg
		c.Run.Seed = seed
		exp := New(&c, logger)
		if err := exp.Setup(registry, metricNames); err != nil {
			return nil, err
		}
		return exp.Simulator(), nil
	}
}
