package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/sim"
)

// StabilitySpeedLimit is the speed in world units per second above which a
// frame counts as unstable.
const StabilitySpeedLimit = 5000

type Registry struct {
	metrics map[string]func(sys *sim.ParticleSystem) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(sys *sim.ParticleSystem) sim.Metric),
	}

	r.metrics["energy"] = func(*sim.ParticleSystem) sim.Metric { return metrics.NewEnergy() }
	r.metrics["energy_drift"] = func(*sim.ParticleSystem) sim.Metric { return metrics.NewEnergyDrift() }
	r.metrics["stability"] = func(*sim.ParticleSystem) sim.Metric { return metrics.NewStability(StabilitySpeedLimit) }
	r.metrics["containment"] = func(sys *sim.ParticleSystem) sim.Metric { return metrics.NewContainment(sys.Boundary()) }
	r.metrics["overlap"] = func(*sim.ParticleSystem) sim.Metric { return metrics.NewOverlap() }
	r.metrics["speed_spread"] = func(*sim.ParticleSystem) sim.Metric { return metrics.NewSpeedSpread() }

	return r
}

func (r *Registry) GetMetric(name string, sys *sim.ParticleSystem) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(sys), nil
}

// Has reports whether name is a registered metric.
func (r *Registry) Has(name string) bool {
	_, ok := r.metrics[name]
	return ok
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func DefaultMetrics() []string {
	return []string{"energy", "stability", "containment", "speed_spread"}
}
