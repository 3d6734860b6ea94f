// Package control provides feedback control of a running particle system.
//
//   - [PID]: scalar Proportional-Integral-Derivative controller
//   - [Thermostat]: frame driver holding the mean kinetic energy per
//     particle near a target by adjusting drag
//
// # Usage
//
//	th := control.NewThermostat(cfg.Thermostat)
//	simulator.AddDriver(th)
//
// The thermostat runs its PID on the relative error with a bounded
// integral.
package control
