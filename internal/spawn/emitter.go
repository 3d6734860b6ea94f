// Package spawn feeds particles into a running system from a fixed origin.
package spawn

import (
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/sim"
)

// Emitter adds particles until the cap is reached. Launch direction sweeps
// around AngleDeg and the colour walks the hue circle.
type Emitter struct {
	cfg config.SpawnConfig
	rng *rand.Rand
	hue float64
}

func NewEmitter(cfg config.SpawnConfig, seed int64) *Emitter {
	return &Emitter{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Done reports whether the cap has been reached for sys.
func (e *Emitter) Done(sys *sim.ParticleSystem) bool {
	return sys.Len() >= e.cfg.MaxParticles
}

func (e *Emitter) BeforeFrame(sys *sim.ParticleSystem, frame int) error {
	if e.cfg.PerFrame <= 0 || e.cfg.Interval <= 0 || frame%e.cfg.Interval != 0 {
		return nil
	}

	dir := e.Direction(sys.Time())
	normal := dynamo.V(-dir.Y, dir.X)

	for i := 0; i < e.cfg.PerFrame && !e.Done(sys); i++ {
		radius := e.radius()
		offset := normal.Scale(float32(i) * 2.2 * e.cfg.Radius)
		h, err := sys.AddParticle(e.cfg.Origin.Vec().Add(offset), radius)
		if err != nil {
			return err
		}
		if err := sys.SetParticleVelocity(h, dir.Scale(e.cfg.Speed)); err != nil {
			return err
		}
		if err := sys.SetParticleColor(h, e.nextColor()); err != nil {
			return err
		}
	}
	return nil
}

// Direction is the unit launch vector at simulation time t.
func (e *Emitter) Direction(t float64) dynamo.Vec2 {
	deg := e.cfg.AngleDeg + e.cfg.SpreadDeg*math.Sin(2*math.Pi*e.cfg.SweepHz*t)
	rad := deg * math.Pi / 180
	return dynamo.V(float32(math.Cos(rad)), float32(math.Sin(rad)))
}

func (e *Emitter) radius() float32 {
	if e.cfg.RadiusJitter == 0 {
		return e.cfg.Radius
	}
	return e.cfg.Radius + e.cfg.RadiusJitter*float32(2*e.rng.Float64()-1)
}

func (e *Emitter) nextColor() dynamo.RGB8 {
	r, g, b := colorful.Hsv(e.hue, 1, 1).RGB255()
	e.hue = math.Mod(e.hue+e.cfg.HueStep, 360)
	return dynamo.RGB8{R: r, G: g, B: b}
}
