// Package control provides the thrust controllers and gimbal setpoint
// sources the step loop drives.
//
// Thrust controllers implement [sim.ThrustController]:
//
//   - [TVC]: a motor on a two-axis servo gimbal
//   - [None]: no thrust at all
//
// Setpoint sources implement [sim.SetpointSource] and steer a TVC:
//
//   - [Schedule]: fixed setpoints applied at given ticks
//   - [Autopilot]: a pair of [PID] loops holding the airframe vertical
//   - [StateFeedback]: linear feedback on tilt and tilt rate
//   - [Manual]: setpoints pushed from another goroutine, e.g. a keyboard
//
// # Usage
//
//	tvc := control.NewTVC(motor, control.WithGimbalLimit(0.1))
//	tvc.MoveToMotor(spatial.Vec(0, 0, -0.4))
//	s := sim.New(d, tvc, sim.WithThrustElement(motorID))
//	s.AddSetpointSource(control.NewAutopilot(0.4, 0.05, 0.08))
//
// Gimbal angles are in radians. A positive angle about body x tilts the
// thrust line toward −y, and a positive angle about body y tilts it toward
// +x.
package control
