// Package viz flies a vehicle live in the terminal.
//
// [Flight] is a Bubble Tea model that steps the simulator every frame and
// draws the x-z trajectory and a 3D attitude view on braille [Canvas]es,
// next to a telemetry panel. [Menu] wraps it with preset selection.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	R       - Rebuild and relaunch
//	Arrows  - Nudge the gimbal setpoint
//	C       - Center the gimbal
//	[ ]     - Autopilot kp down/up
//	{ }     - Autopilot kd down/up
//	+/-     - Ticks per frame
//	HJKL    - Orbit the attitude camera
//	T       - Cycle color themes
//	?       - Help overlay
package viz
