package control

import "math"

// PID is a scalar controller driven by explicit timestamps. With Relative
// set the error is expressed as a fraction of Target, so the same gains work
// at any scale. A positive IntegralLimit bounds the accumulated error.
type PID struct {
	Kp, Ki, Kd float64
	Target     float64

	Relative      bool
	IntegralLimit float64

	integral float64
	prevErr  float64
	prevT    float64
	primed   bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target}
}

// Error is the signed distance of measurement below Target.
func (p *PID) Error(measurement float64) float64 {
	e := p.Target - measurement
	if p.Relative && p.Target != 0 {
		e /= math.Abs(p.Target)
	}
	return e
}

// Compute returns the control output for measurement at time t. The first
// sample, and any sample that does not advance time, is proportional only.
func (p *PID) Compute(measurement, t float64) float64 {
	e := p.Error(measurement)
	if !p.primed {
		p.primed = true
		p.prevErr, p.prevT = e, t
		return p.Kp * e
	}
	dt := t - p.prevT
	if !(dt > 0) {
		return p.Kp * e
	}

	p.integral += e * dt
	if lim := p.IntegralLimit; lim > 0 {
		p.integral = math.Max(-lim, math.Min(lim, p.integral))
	}
	slope := (e - p.prevErr) / dt
	p.prevErr, p.prevT = e, t
	return p.Kp*e + p.Ki*p.integral + p.Kd*slope
}

// Reset forgets accumulated error and the previous sample.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.primed = false
}
