package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/dynamo"
)

// Simulator drives a ParticleSystem frame by frame, running drivers before
// each Update and metrics and observers after it.
type Simulator struct {
	sys       *ParticleSystem
	metrics   []Metric
	observers []Observer
	drivers   []Driver
	logger    *zap.Logger
}

func NewSimulator(sys *ParticleSystem) *Simulator {
	return &Simulator{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		drivers:   make([]Driver, 0),
		logger:    sys.logger,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) AddDriver(d Driver)     { s.drivers = append(s.drivers, d) }

func (s *Simulator) System() *ParticleSystem { return s.sys }

// MetricValues returns the current value of every registered metric.
func (s *Simulator) MetricValues() map[string]float64 {
	values := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		values[m.Name()] = m.Value()
	}
	return values
}

// ResetMetrics clears all metric accumulators.
func (s *Simulator) ResetMetrics() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Step advances one frame: drivers, Update, the optional finite check, then
// metrics and observers.
func (s *Simulator) Step() (FrameStats, error) {
	frame := s.sys.Frame()
	for _, d := range s.drivers {
		if err := d.BeforeFrame(s.sys, frame); err != nil {
			return FrameStats{}, fmt.Errorf("driver at frame %d: %w", frame, err)
		}
	}

	s.sys.Update()

	if s.sys.cfg.ValidateState {
		if err := s.sys.CheckFinite(); err != nil {
			s.logger.Warn("non-finite particle state", zap.Error(err))
			return FrameStats{}, err
		}
	}

	stats := s.sys.Stats()
	fs := FrameStats{
		Frame:         s.sys.Frame(),
		Time:          s.sys.Time(),
		Particles:     s.sys.Len(),
		Contacts:      stats.Contacts,
		Dropped:       stats.Dropped,
		Excluded:      stats.Excluded,
		KineticEnergy: s.sys.KineticEnergy(),
	}

	dt := s.sys.StepDt()
	for _, m := range s.metrics {
		m.Observe(s.sys.Particles(), dt, fs.Time)
	}
	for _, o := range s.observers {
		o.OnFrame(s.sys, fs.Frame)
	}
	return fs, nil
}

// Run resets metrics and advances frames frames. On cancellation or an
// invalid state it returns the partial result together with the error.
func (s *Simulator) Run(ctx context.Context, frames int) (*Result, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d: %w", frames, dynamo.ErrParameterBounds)
	}

	result := &Result{
		Times: make([]float64, 0, frames),
		Stats: make([]FrameStats, 0, frames),
	}
	s.ResetMetrics()

	var runErr error
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, err)
			break
		}

		fs, err := s.Step()
		if err != nil {
			runErr = err
			break
		}

		result.Frames++
		result.Times = append(result.Times, fs.Time)
		result.Stats = append(result.Stats, fs)
	}

	result.Metrics = s.MetricValues()

	s.logger.Debug("run finished",
		zap.Int("frames", result.Frames),
		zap.Int("particles", s.sys.Len()),
		zap.Float64("time", s.sys.Time()))

	return result, runErr
}

// RunWithCallback advances frames until callback returns false or ctx is
// done. It is used by front ends that own their own clock.
func (s *Simulator) RunWithCallback(ctx context.Context, callback func(sys *ParticleSystem) bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, err)
		}
		if _, err := s.Step(); err != nil {
			return err
		}
		if !callback(s.sys) {
			return nil
		}
	}
}
