// Package viz provides a terminal live view of a running gravity simulation.
//
// The view is a Bubble Tea program:
//
//   - [Model]: steps a [sim.Stepper] on every frame and renders the state
//   - [Canvas]: Braille-based dot canvas with per-cell colour
//   - [Camera]: orthographic projection of the universe cube onto the canvas
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	.      - Single step while paused
//	R      - Rebuild the initial population
//	P      - Cycle projection (XY, XZ, YZ, orbit)
//	+/-    - Zoom
//	Arrows - Rotate the orbit projection
//	T      - Cycle color themes
//	?      - Show help overlay
package viz
