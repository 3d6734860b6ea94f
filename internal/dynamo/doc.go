// Package dynamo provides the value types shared by every simulation package.
//
//   - [Vec2]: float32 2D vector used for positions, accelerations and velocities
//   - [RGB8]: particle colour, read only by renderers
//   - sentinel errors and [SimulationError] for the few failure paths that exist
//
// The physics hot path never returns errors. Overflowing grid cells and
// near-coincident particles degrade silently; only configuration validation
// and the opt-in finite-state check surface errors.
package dynamo
