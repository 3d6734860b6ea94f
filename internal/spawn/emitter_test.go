package spawn

import (
	"math"
	"testing"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/sim"
)

func newSystem(t *testing.T) *sim.ParticleSystem {
	t.Helper()
	s, err := sim.New(config.DefaultConfig().SimConfig())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEmitterRespectsIntervalAndCap(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	cfg.PerFrame = 3
	cfg.Interval = 2
	cfg.MaxParticles = 7
	s := newSystem(t)
	e := NewEmitter(cfg, 1)

	counts := []int{}
	for frame := 0; frame < 8; frame++ {
		if err := e.BeforeFrame(s, frame); err != nil {
			t.Fatal(err)
		}
		counts = append(counts, s.Len())
	}

	expected := []int{3, 3, 6, 6, 7, 7, 7, 7}
	for i := range expected {
		if counts[i] != expected[i] {
			t.Fatalf("expected counts %v, got %v", expected, counts)
		}
	}
	if !e.Done(s) {
		t.Error("expected emitter to report done at cap")
	}
}

func TestEmitterLaunchVelocity(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	cfg.PerFrame = 1
	cfg.AngleDeg = 90
	cfg.SpreadDeg = 0
	cfg.Speed = 240
	s := newSystem(t)
	e := NewEmitter(cfg, 1)

	if err := e.BeforeFrame(s, 0); err != nil {
		t.Fatal(err)
	}

	p, err := s.Particle(0)
	if err != nil {
		t.Fatal(err)
	}
	v := p.Velocity(s.StepDt())
	if math.Abs(float64(v.X)) > 0.5 || math.Abs(float64(v.Y-240)) > 0.5 {
		t.Errorf("expected velocity (0,240), got %v", v)
	}
	if p.Position != cfg.Origin.Vec() {
		t.Errorf("expected spawn at origin, got %v", p.Position)
	}
}

func TestEmitterColorsWalkHue(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	cfg.PerFrame = 2
	cfg.HueStep = 120
	s := newSystem(t)
	e := NewEmitter(cfg, 1)

	e.BeforeFrame(s, 0)
	e.BeforeFrame(s, 1)

	expected := []dynamo.RGB8{
		{R: 255, G: 0, B: 0},
		{R: 0, G: 255, B: 0},
		{R: 0, G: 0, B: 255},
		{R: 255, G: 0, B: 0},
	}
	for i, c := range expected {
		p, _ := s.Particle(sim.Handle(i))
		if p.Color != c {
			t.Errorf("particle %d: expected %v, got %v", i, c, p.Color)
		}
	}
}

func TestEmitterRadiusJitterIsSeeded(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	cfg.PerFrame = 5
	cfg.Radius = 5
	cfg.RadiusJitter = 2

	radii := func() []float32 {
		s := newSystem(t)
		NewEmitter(cfg, 42).BeforeFrame(s, 0)
		out := make([]float32, 0, s.Len())
		for _, p := range s.Particles() {
			if p.Radius < 3 || p.Radius > 7 {
				t.Errorf("radius %f outside jitter band", p.Radius)
			}
			out = append(out, p.Radius)
		}
		return out
	}

	a, b := radii(), radii()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical radii for the same seed, got %v and %v", a, b)
		}
	}
}

func TestDirectionSweeps(t *testing.T) {
	cfg := config.DefaultConfig().Spawn
	cfg.AngleDeg = 0
	cfg.SpreadDeg = 30
	cfg.SweepHz = 1
	e := NewEmitter(cfg, 1)

	d0 := e.Direction(0)
	dq := e.Direction(0.25)

	if math.Abs(float64(d0.X-1)) > 1e-6 || math.Abs(float64(d0.Y)) > 1e-6 {
		t.Errorf("expected (1,0) at t=0, got %v", d0)
	}
	want := math.Sin(30 * math.Pi / 180)
	if math.Abs(float64(dq.Y)-want) > 1e-5 {
		t.Errorf("expected y=%f at quarter period, got %f", want, dq.Y)
	}
}
