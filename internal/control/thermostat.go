package control

import (
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/sim"
)

// Thermostat is a frame driver that sets the system's drag from a PID on
// the mean kinetic energy per particle. Drag stays within [MinDrag, 1].
type Thermostat struct {
	pid     *PID
	minDrag float32
	last    float32
}

func NewThermostat(cfg config.ThermostatConfig) *Thermostat {
	pid := NewPID(cfg.Kp, cfg.Ki, cfg.Kd, cfg.Target)
	pid.Relative = true
	if cfg.Ki > 0 {
		// the integral term alone can span the whole drag range, no more
		pid.IntegralLimit = 1 / cfg.Ki
	}
	return &Thermostat{
		pid:     pid,
		minDrag: cfg.MinDrag,
		last:    1,
	}
}

// BeforeFrame adjusts drag ahead of the frame. Empty systems are left
// untouched.
func (th *Thermostat) BeforeFrame(sys *sim.ParticleSystem, frame int) error {
	n := sys.Len()
	if n == 0 {
		return nil
	}
	u := th.pid.Compute(sys.KineticEnergy()/float64(n), sys.Time())

	drag := min(1, max(th.minDrag, float32(1+u)))
	th.last = drag
	return sys.SetDrag(drag)
}

// Drag returns the drag ratio set by the last frame.
func (th *Thermostat) Drag() float32 { return th.last }

func (th *Thermostat) PID() *PID { return th.pid }
