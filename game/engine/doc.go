// Package engine provides the core rover simulation.
//
// The engine package implements:
//   - The heading model: four compass headings with their unit steps
//   - The rover state machine: turn left, turn right, move forward
//   - Boundary clamping: a move into the edge of the plateau stops there
//   - The mission runner: rovers processed one after another, in order
//
// Core Types:
//
// Heading is a closed four-value enum backed by lookup tables; its zero value
// is unset and rejected by validation. Rover holds
// only a position and a heading; its Bounds are an immutable value given at
// construction, so independent rovers share nothing. Mission describes a
// plateau and the rovers deployed on it, and Run turns it into one Report
// per rover.
//
// Usage:
//
//	mission := &engine.Mission{
//		Bounds: engine.NewBounds(5, 5),
//		Rovers: []engine.RoverSpec{
//			{X: 1, Y: 2, Heading: engine.North, Commands: "LMLMLMLMM"},
//		},
//	}
//
//	reports, err := engine.Run(mission)
//	for _, r := range reports {
//		fmt.Println(r.Final) // 1 3 N
//	}
//
// Errors:
//
// Unknown headings fail with ErrInvalidHeading, unknown commands with
// ErrInvalidCommand and unparseable numbers with ErrMalformedInput. A rover
// that hits an unknown command keeps the state reached before it; Run still
// processes the remaining rovers and joins every failure into its error.
package engine
