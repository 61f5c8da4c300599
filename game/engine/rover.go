package engine

import "fmt"

// Rover is a single rover on a bounded plateau. Its state is only its
// position and heading; the bounds are fixed at construction.
type Rover struct {
	pos     Position
	heading Heading
	bounds  Bounds
}

// NewRover deploys a rover at start. The heading must be valid and the
// position must lie inside bounds.
func NewRover(bounds Bounds, start RoverState) (*Rover, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if !start.Heading.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeading, start.Heading)
	}
	if !bounds.Contains(start.Position) {
		return nil, fmt.Errorf("%w: (%d,%d) outside [%d,%d]x[%d,%d]", ErrOutOfBounds,
			start.X, start.Y, bounds.XMin, bounds.XMax, bounds.YMin, bounds.YMax)
	}
	return &Rover{pos: start.Position, heading: start.Heading, bounds: bounds}, nil
}

// State returns the current position and heading.
func (r *Rover) State() RoverState {
	return RoverState{Position: r.pos, Heading: r.heading}
}

// Bounds returns the rectangle the rover is confined to.
func (r *Rover) Bounds() Bounds {
	return r.bounds
}

func (r *Rover) TurnLeft() {
	r.heading = r.heading.Left()
}

func (r *Rover) TurnRight() {
	r.heading = r.heading.Right()
}

// MoveForward advances one cell, stopping at the edge of the bounds. It
// reports whether the move was clamped.
func (r *Rover) MoveForward() bool {
	next := r.heading.Forward(r.pos)
	clamped := r.bounds.Clamp(next)
	r.pos = clamped
	return clamped != next
}

// Apply runs a single command character.
func (r *Rover) Apply(cmd rune) (clamped bool, err error) {
	switch cmd {
	case CommandLeft:
		r.TurnLeft()
	case CommandRight:
		r.TurnRight()
	case CommandMove:
		clamped = r.MoveForward()
	default:
		return false, fmt.Errorf("%w %q", ErrInvalidCommand, cmd)
	}
	return clamped, nil
}

// Execute applies commands left to right and returns the steps taken. It
// stops at the first unknown command with a *CommandError; the rover keeps
// the state reached by the commands before it.
func (r *Rover) Execute(commands string) ([]Step, error) {
	steps := make([]Step, 0, len(commands))
	for i, cmd := range []rune(commands) {
		from := r.State()
		clamped, err := r.Apply(cmd)
		if err != nil {
			return steps, &CommandError{Index: i, Command: cmd}
		}
		steps = append(steps, Step{
			Index:   i,
			Command: string(cmd),
			From:    from,
			To:      r.State(),
			Clamped: clamped,
		})
	}
	return steps, nil
}
