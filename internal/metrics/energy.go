package metrics

import (
	"math"

	"github.com/san-kum/particlesim/internal/particle"
)

// KineticEnergy returns sum(r*|v|^2/2) over ps, with mass proportional to
// radius.
func KineticEnergy(ps []particle.Particle, dt float32) float64 {
	e := 0.0
	for i := range ps {
		v := ps[i].Velocity(dt)
		e += 0.5 * float64(ps[i].Radius) * float64(v.LengthSq())
	}
	return e
}

// Energy reports the mean kinetic energy per frame.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
	last        float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(ps []particle.Particle, dt float32, t float64) {
	e.last = KineticEnergy(ps, dt)
	e.totalEnergy += e.last
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
	e.last = 0
}

// EnergyDrift tracks the largest relative change of kinetic energy against
// the first non-zero sample. Useful for drag-free runs where the positional
// solver should not inject energy.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(ps []particle.Particle, dt float32, t float64) {
	energy := KineticEnergy(ps, dt)
	if e.initialEnergy == 0 {
		e.initialEnergy = energy
		return
	}
	drift := math.Abs(energy-e.initialEnergy) / e.initialEnergy
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
}
