// Package viz renders a running particle system in the terminal.
//
//   - [Model]: Bubble Tea live view driven by an experiment [Builder]
//   - [Canvas]: braille sub-pixel canvas with per-cell colour
//   - Theme selection with 4 built-in colour schemes
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	R       - Rebuild the experiment
//	Tab     - Cycle the tunable setting
//	Up/Down - Adjust it
//	WASD    - Move the attraction point
//	C       - Toggle particle colours
//	T       - Cycle colour themes
//	G       - Toggle GIF recording
//	?       - Show help overlay
//
// Recordings are written to particles.gif in the working directory.
package viz
