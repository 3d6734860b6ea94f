package metrics

import (
	"github.com/san-kum/particlesim/internal/constraint"
	"github.com/san-kum/particlesim/internal/particle"
)

// Stability is the fraction of frames in which every particle is finite
// and no particle moves faster than threshold world units per second.
type Stability struct {
	name       string
	threshold  float32
	violations int
	samples    int
}

func NewStability(threshold float32) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(ps []particle.Particle, dt float32, t float64) {
	s.samples++
	limit := s.threshold * dt
	for i := range ps {
		if !ps[i].IsFinite() || ps[i].Speed() > limit {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Containment is the mean fraction of particles inside the boundary. It is
// sampled after integration, so a particle still moving into a wall counts
// as outside for that frame.
type Containment struct {
	name     string
	boundary constraint.Boundary
	sum      float64
	samples  int
}

func NewContainment(b constraint.Boundary) *Containment {
	return &Containment{name: "containment", boundary: b}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(ps []particle.Particle, dt float32, t float64) {
	if len(ps) == 0 {
		return
	}
	inside := 0
	for i := range ps {
		if c.boundary.Contains(&ps[i]) {
			inside++
		}
	}
	c.sum += float64(inside) / float64(len(ps))
	c.samples++
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return c.sum / float64(c.samples)
}

func (c *Containment) Reset() {
	c.sum = 0
	c.samples = 0
}
