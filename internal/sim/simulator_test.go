package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/particle"
)

type countMetric struct {
	frames int
	last   float64
}

func (m *countMetric) Name() string { return "count" }
func (m *countMetric) Observe(ps []particle.Particle, dt float32, t float64) {
	m.frames++
	m.last = t
}
func (m *countMetric) Value() float64 { return float64(m.frames) }
func (m *countMetric) Reset()         { m.frames = 0 }

type recordObserver struct{ frames []int }

func (o *recordObserver) OnFrame(sys *ParticleSystem, frame int) {
	o.frames = append(o.frames, frame)
}

type addDriver struct {
	every int
	err   error
}

func (d *addDriver) BeforeFrame(sys *ParticleSystem, frame int) error {
	if d.err != nil {
		return d.err
	}
	if frame%d.every == 0 {
		_, err := sys.AddParticle(dynamo.V(100+float32(frame)*12, 200), 5)
		return err
	}
	return nil
}

func TestSimulatorRun(t *testing.T) {
	s := mustSystem(t, quietConfig())
	sim := NewSimulator(s)
	m := &countMetric{}
	o := &recordObserver{}
	sim.AddMetric(m)
	sim.AddObserver(o)
	sim.AddDriver(&addDriver{every: 2})

	result, err := sim.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Frames != 10 {
		t.Errorf("expected 10 frames, got %d", result.Frames)
	}
	if len(result.Times) != 10 || len(result.Stats) != 10 {
		t.Errorf("expected 10 times and stats, got %d and %d", len(result.Times), len(result.Stats))
	}
	if result.Metrics["count"] != 10 {
		t.Errorf("expected metric observed 10 times, got %f", result.Metrics["count"])
	}
	if s.Len() != 5 {
		t.Errorf("expected 5 spawned particles, got %d", s.Len())
	}
	if len(o.frames) != 10 || o.frames[0] != 1 || o.frames[9] != 10 {
		t.Errorf("unexpected observer frames %v", o.frames)
	}
	last := result.Stats[9]
	if last.Frame != 10 || last.Particles != 5 || math.Abs(last.Time-10.0/60) > 1e-9 {
		t.Errorf("unexpected final stats %+v", last)
	}
}

func TestSimulatorRunInvalidFrames(t *testing.T) {
	sim := NewSimulator(mustSystem(t, quietConfig()))

	for _, frames := range []int{0, -5} {
		if _, err := sim.Run(context.Background(), frames); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("frames %d: expected ErrParameterBounds, got %v", frames, err)
		}
	}
}

func TestSimulatorContextCancellation(t *testing.T) {
	sim := NewSimulator(mustSystem(t, quietConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, 100)
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
	if result == nil || result.Frames != 0 {
		t.Errorf("expected empty partial result, got %+v", result)
	}
}

func TestSimulatorDriverError(t *testing.T) {
	sim := NewSimulator(mustSystem(t, quietConfig()))
	boom := errors.New("boom")
	sim.AddDriver(&addDriver{every: 1, err: boom})

	if _, err := sim.Run(context.Background(), 3); !errors.Is(err, boom) {
		t.Errorf("expected driver error, got %v", err)
	}
}

func TestSimulatorValidateState(t *testing.T) {
	cfg := quietConfig()
	cfg.ValidateState = true
	s := mustSystem(t, cfg)
	mustAdd(t, s, 100, 100, 5)
	s.particles[0].Acceleration = dynamo.V(float32(math.Inf(1)), 0)

	result, err := NewSimulator(s).Run(context.Background(), 5)

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if simErr.Frame != 1 || simErr.Handle != 0 {
		t.Errorf("expected frame 1 particle 0, got %+v", simErr)
	}
	if result.Frames != 0 {
		t.Errorf("expected no completed frames, got %d", result.Frames)
	}
}

func TestRunWithCallbackStops(t *testing.T) {
	sim := NewSimulator(mustSystem(t, quietConfig()))
	calls := 0

	err := sim.RunWithCallback(context.Background(), func(sys *ParticleSystem) bool {
		calls++
		return calls < 7
	})

	if err != nil {
		t.Fatal(err)
	}
	if calls != 7 || sim.System().Frame() != 7 {
		t.Errorf("expected 7 frames, got %d calls and frame %d", calls, sim.System().Frame())
	}
}

func TestSimulatorStepKeepsMetrics(t *testing.T) {
	s := mustSystem(t, quietConfig())
	sim := NewSimulator(s)
	m := &countMetric{}
	sim.AddMetric(m)
	sim.AddDriver(&addDriver{every: 1})

	for i := 0; i < 3; i++ {
		fs, err := sim.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if fs.Frame != i+1 {
			t.Errorf("expected frame %d, got %d", i+1, fs.Frame)
		}
		if fs.Particles != i+1 {
			t.Errorf("expected %d particles, got %d", i+1, fs.Particles)
		}
	}

	if got := sim.MetricValues()["count"]; got != 3 {
		t.Errorf("expected metric to accumulate across steps, got %v", got)
	}
	sim.ResetMetrics()
	if got := sim.MetricValues()["count"]; got != 0 {
		t.Errorf("expected reset metric, got %v", got)
	}
}
