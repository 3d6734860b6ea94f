// Package particle implements the Verlet point mass simulated by the core.
package particle

import "github.com/san-kum/particlesim/internal/dynamo"

// Particle stores current and previous position instead of a velocity.
// The implied per-step velocity is Position - PositionLast; every velocity
// read or write goes through the methods below so that derivation lives in
// one place.
type Particle struct {
	Position     dynamo.Vec2
	PositionLast dynamo.Vec2
	Acceleration dynamo.Vec2
	Radius       float32
	Color        dynamo.RGB8
}

// New returns a particle at rest. radius must be positive.
func New(pos dynamo.Vec2, radius float32) Particle {
	return Particle{
		Position:     pos,
		PositionLast: pos,
		Radius:       radius,
		Color:        dynamo.White,
	}
}

// Update advances one Störmer–Verlet step and clears the force accumulator.
func (p *Particle) Update(dt float32) {
	displacement := p.Position.Sub(p.PositionLast)
	p.PositionLast = p.Position
	p.Position = p.Position.Add(displacement).Add(p.Acceleration.Scale(dt * dt))
	p.Acceleration = dynamo.Vec2{}
}

// Accelerate adds a to the accumulator. Magnitude is not bounded.
func (p *Particle) Accelerate(a dynamo.Vec2) {
	p.Acceleration = p.Acceleration.Add(a)
}

// SetVelocity replaces the implied velocity with v over a step of dt.
func (p *Particle) SetVelocity(v dynamo.Vec2, dt float32) {
	p.PositionLast = p.Position.Sub(v.Scale(dt))
}

// AddVelocity adds v to the implied velocity over a step of dt.
func (p *Particle) AddVelocity(v dynamo.Vec2, dt float32) {
	p.PositionLast = p.PositionLast.Sub(v.Scale(dt))
}

// Slowdown scales the implied velocity by ratio: 1 keeps it, 0 removes it.
func (p *Particle) Slowdown(ratio float32) {
	p.PositionLast = p.Position.Sub(p.Position.Sub(p.PositionLast).Scale(ratio))
}

// Velocity derives the velocity for a step of dt.
func (p *Particle) Velocity(dt float32) dynamo.Vec2 {
	return p.Position.Sub(p.PositionLast).Scale(1 / dt)
}

// Displacement is the distance travelled during the last step.
func (p *Particle) Displacement() dynamo.Vec2 {
	return p.Position.Sub(p.PositionLast)
}

// Speed is the length of the last step's displacement.
func (p *Particle) Speed() float32 {
	return p.Displacement().Length()
}

// IsFinite reports whether position and acceleration hold no NaN or Inf.
func (p *Particle) IsFinite() bool {
	return p.Position.IsFinite() && p.PositionLast.IsFinite() && p.Acceleration.IsFinite()
}
