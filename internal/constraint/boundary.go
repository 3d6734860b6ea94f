// Package constraint projects particles back inside the world boundary.
package constraint

import (
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/particle"
)

// Boundary is a position projection applied once per sub-step. Exactly one
// boundary is active in a system.
type Boundary interface {
	Apply(ps []particle.Particle)
	Contains(p *particle.Particle) bool
}

// Rect keeps particle discs within [Min+r, Max-r] on both axes.
//
// With Restitution 0 the clamp leaves PositionLast alone, so the implied
// velocity is truncated and particles stick to walls. A positive Restitution
// reflects the normal component of the implied velocity, scaled by it.
type Rect struct {
	Min, Max    dynamo.Vec2
	Restitution float32
}

// NewRect returns the world rectangle [0,w]x[0,h] inset by buffer.
func NewRect(width, height, buffer float32) Rect {
	return Rect{
		Min: dynamo.V(buffer, buffer),
		Max: dynamo.V(width-buffer, height-buffer),
	}
}

func (r Rect) Apply(ps []particle.Particle) {
	for i := range ps {
		p := &ps[i]
		lo, hi := r.Min.Add(dynamo.V(p.Radius, p.Radius)), r.Max.Sub(dynamo.V(p.Radius, p.Radius))
		p.Position.X, p.PositionLast.X = r.clampAxis(p.Position.X, p.PositionLast.X, lo.X, hi.X)
		p.Position.Y, p.PositionLast.Y = r.clampAxis(p.Position.Y, p.PositionLast.Y, lo.Y, hi.Y)
	}
}

func (r Rect) clampAxis(pos, last, lo, hi float32) (float32, float32) {
	if lo > hi {
		// disc wider than the box: pin to the centre line
		mid := (lo + hi) / 2
		return mid, mid
	}
	switch {
	case pos < lo:
		v := pos - last
		pos = lo
		if r.Restitution > 0 {
			last = pos + v*r.Restitution
		}
	case pos > hi:
		v := pos - last
		pos = hi
		if r.Restitution > 0 {
			last = pos + v*r.Restitution
		}
	}
	return pos, last
}

func (r Rect) Contains(p *particle.Particle) bool {
	return p.Position.X >= r.Min.X+p.Radius && p.Position.X <= r.Max.X-p.Radius &&
		p.Position.Y >= r.Min.Y+p.Radius && p.Position.Y <= r.Max.Y-p.Radius
}

// Circle keeps particle discs inside a disk of Radius around Center.
type Circle struct {
	Center dynamo.Vec2
	Radius float32
}

func (c Circle) Apply(ps []particle.Particle) {
	for i := range ps {
		p := &ps[i]
		limit := c.Radius - p.Radius
		d := p.Position.Sub(c.Center)
		dist := d.Length()
		if dist <= limit {
			continue
		}
		if dist == 0 || limit <= 0 {
			p.Position = c.Center
			continue
		}
		p.Position = c.Center.Add(d.Scale(limit / dist))
	}
}

func (c Circle) Contains(p *particle.Particle) bool {
	limit := c.Radius - p.Radius
	return p.Position.Sub(c.Center).LengthSq() <= limit*limit*(1+1e-5)
}
