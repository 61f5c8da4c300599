package engine

import (
	"errors"
	"testing"
)

func newTestRover(t *testing.T, x, y int, h Heading) *Rover {
	t.Helper()
	r, err := NewRover(NewBounds(5, 5), RoverState{Position: Position{X: x, Y: y}, Heading: h})
	if err != nil {
		t.Fatalf("NewRover failed: %v", err)
	}
	return r
}

func TestNewRover_Validation(t *testing.T) {
	tests := []struct {
		name    string
		bounds  Bounds
		start   RoverState
		wantErr error
	}{
		{"inside", NewBounds(5, 5), RoverState{Position{1, 2}, North}, nil},
		{"on corner", NewBounds(5, 5), RoverState{Position{5, 5}, East}, nil},
		{"outside x", NewBounds(5, 5), RoverState{Position{6, 0}, North}, ErrOutOfBounds},
		{"negative y", NewBounds(5, 5), RoverState{Position{0, -1}, North}, ErrOutOfBounds},
		{"bad heading", NewBounds(5, 5), RoverState{Position{0, 0}, Heading(9)}, ErrInvalidHeading},
		{"empty bounds", Bounds{XMax: -1, YMax: 5}, RoverState{Position{0, 0}, North}, ErrMalformedInput},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewRover(test.bounds, test.start)
			if test.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, test.wantErr) {
				t.Errorf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestRover_TurnsKeepPosition(t *testing.T) {
	r := newTestRover(t, 2, 3, North)

	r.TurnLeft()
	if got := r.State(); got.Position != (Position{2, 3}) || got.Heading != West {
		t.Errorf("after TurnLeft: got %v", got)
	}

	r.TurnRight()
	r.TurnRight()
	if got := r.State(); got.Position != (Position{2, 3}) || got.Heading != East {
		t.Errorf("after two TurnRight: got %v", got)
	}
}

func TestRover_MoveForwardKeepsHeading(t *testing.T) {
	for _, h := range Headings {
		r := newTestRover(t, 2, 2, h)
		if clamped := r.MoveForward(); clamped {
			t.Errorf("%v: move from the centre should not be clamped", h)
		}
		got := r.State()
		if got.Heading != h {
			t.Errorf("%v: heading changed to %v", h, got.Heading)
		}
		if want := h.Forward(Position{2, 2}); got.Position != want {
			t.Errorf("%v: expected %v, got %v", h, want, got.Position)
		}
	}
}

func TestRover_MoveForwardClampsAtEveryEdge(t *testing.T) {
	tests := []struct {
		name  string
		start RoverState
	}{
		{"north edge", RoverState{Position{3, 5}, North}},
		{"east edge", RoverState{Position{5, 3}, East}},
		{"south edge", RoverState{Position{3, 0}, South}},
		{"west edge", RoverState{Position{0, 3}, West}},
		{"origin facing south", RoverState{Position{0, 0}, South}},
		{"origin facing west", RoverState{Position{0, 0}, West}},
		{"far corner facing north", RoverState{Position{5, 5}, North}},
		{"far corner facing east", RoverState{Position{5, 5}, East}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := newTestRover(t, test.start.X, test.start.Y, test.start.Heading)
			if clamped := r.MoveForward(); !clamped {
				t.Error("expected move to be clamped")
			}
			if got := r.State(); got != test.start {
				t.Errorf("expected %v, got %v", test.start, got)
			}
		})
	}
}

func TestRover_StaysInsideBounds(t *testing.T) {
	bounds := NewBounds(3, 2)
	for x := bounds.XMin; x <= bounds.XMax; x++ {
		for y := bounds.YMin; y <= bounds.YMax; y++ {
			for _, h := range Headings {
				r, err := NewRover(bounds, RoverState{Position{x, y}, h})
				if err != nil {
					t.Fatalf("NewRover failed: %v", err)
				}
				if _, err := r.Execute("MMMMRMMMMRMMMMRMMMM"); err != nil {
					t.Fatalf("Execute failed: %v", err)
				}
				if !bounds.Contains(r.State().Position) {
					t.Errorf("rover from (%d,%d,%v) left the bounds: %v", x, y, h, r.State())
				}
			}
		}
	}
}

func TestRover_Apply(t *testing.T) {
	r := newTestRover(t, 1, 1, North)

	if _, err := r.Apply('M'); err != nil {
		t.Fatalf("Apply('M') failed: %v", err)
	}
	if _, err := r.Apply('R'); err != nil {
		t.Fatalf("Apply('R') failed: %v", err)
	}
	if _, err := r.Apply('L'); err != nil {
		t.Fatalf("Apply('L') failed: %v", err)
	}

	before := r.State()
	_, err := r.Apply('X')
	if !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("expected ErrInvalidCommand, got %v", err)
	}
	if r.State() != before {
		t.Errorf("invalid command changed state: %v -> %v", before, r.State())
	}
}

func TestRover_ExecuteStopsAtInvalidCommand(t *testing.T) {
	r := newTestRover(t, 1, 2, North)

	steps, err := r.Execute("MMXM")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if cmdErr.Index != 2 || cmdErr.Command != 'X' {
		t.Errorf("expected index 2 command 'X', got index %d command %q", cmdErr.Index, cmdErr.Command)
	}
	if !errors.Is(err, ErrInvalidCommand) {
		t.Error("CommandError should unwrap to ErrInvalidCommand")
	}
	if len(steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(steps))
	}
	if got, want := r.State(), (RoverState{Position{1, 4}, North}); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRover_ExecuteRecordsSteps(t *testing.T) {
	r := newTestRover(t, 0, 0, South)

	steps, err := r.Execute("MLM")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if !steps[0].Clamped {
		t.Error("first move at the origin facing south should be clamped")
	}
	if steps[1].Command != "L" || steps[1].To.Heading != East {
		t.Errorf("unexpected turn step: %+v", steps[1])
	}
	if steps[2].To.Position != (Position{1, 0}) {
		t.Errorf("unexpected final step: %+v", steps[2])
	}
}
