// Package forces applies the per-sub-step force terms. Every function is
// stateless and must be re-applied each sub-step because Particle.Update
// clears the accumulator.
package forces

import (
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/particle"
)

// ApplyGravity adds a uniform acceleration to every particle.
func ApplyGravity(ps []particle.Particle, g dynamo.Vec2) {
	if g == (dynamo.Vec2{}) {
		return
	}
	for i := range ps {
		ps[i].Accelerate(g)
	}
}

// ApplyAttraction pulls every particle toward point by factor*(point-position).
// A negative factor repels. There is no distance falloff.
func ApplyAttraction(ps []particle.Particle, point dynamo.Vec2, factor float32) {
	if factor == 0 {
		return
	}
	for i := range ps {
		ps[i].Accelerate(point.Sub(ps[i].Position).Scale(factor))
	}
}

// ApplyDrag contracts every implied velocity by ratio. It acts on Verlet
// state directly so it stays stable for any sub-step size.
func ApplyDrag(ps []particle.Particle, ratio float32) {
	if ratio == 1 {
		return
	}
	for i := range ps {
		ps[i].Slowdown(ratio)
	}
}
