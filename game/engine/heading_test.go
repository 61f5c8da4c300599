package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseHeading(t *testing.T) {
	tests := []struct {
		input    string
		expected Heading
		wantErr  bool
	}{
		{"N", North, false},
		{"E", East, false},
		{"S", South, false},
		{"W", West, false},
		{"n", 0, true},
		{"X", 0, true},
		{"", 0, true},
		{"NE", 0, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			h, err := ParseHeading(test.input)
			if test.wantErr {
				if !errors.Is(err, ErrInvalidHeading) {
					t.Fatalf("ParseHeading(%q): expected ErrInvalidHeading, got %v", test.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeading(%q): unexpected error %v", test.input, err)
			}
			if h != test.expected {
				t.Errorf("ParseHeading(%q): expected %v, got %v", test.input, test.expected, h)
			}
		})
	}
}

func TestHeadingTurns(t *testing.T) {
	tests := []struct {
		heading     Heading
		left, right Heading
	}{
		{North, West, East},
		{East, North, South},
		{South, East, West},
		{West, South, North},
	}

	for _, test := range tests {
		t.Run(test.heading.String(), func(t *testing.T) {
			if got := test.heading.Left(); got != test.left {
				t.Errorf("%v.Left(): expected %v, got %v", test.heading, test.left, got)
			}
			if got := test.heading.Right(); got != test.right {
				t.Errorf("%v.Right(): expected %v, got %v", test.heading, test.right, got)
			}
		})
	}
}

func TestHeadingCyclicClosure(t *testing.T) {
	for _, h := range Headings {
		left, right := h, h
		for i := 0; i < 4; i++ {
			left = left.Left()
			right = right.Right()
		}
		if left != h {
			t.Errorf("four left turns from %v ended at %v", h, left)
		}
		if right != h {
			t.Errorf("four right turns from %v ended at %v", h, right)
		}
		if got := h.Left().Right(); got != h {
			t.Errorf("left then right from %v ended at %v", h, got)
		}
		if got := h.Right().Left(); got != h {
			t.Errorf("right then left from %v ended at %v", h, got)
		}
	}
}

func TestHeadingForward(t *testing.T) {
	origin := Position{X: 2, Y: 2}
	tests := []struct {
		heading  Heading
		expected Position
	}{
		{North, Position{X: 2, Y: 3}},
		{East, Position{X: 3, Y: 2}},
		{South, Position{X: 2, Y: 1}},
		{West, Position{X: 1, Y: 2}},
	}

	for _, test := range tests {
		got := test.heading.Forward(origin)
		if got != test.expected {
			t.Errorf("%v.Forward(%v): expected %v, got %v", test.heading, origin, test.expected, got)
		}
	}

	if origin != (Position{X: 2, Y: 2}) {
		t.Error("Forward must not modify its argument")
	}
}

func TestHeadingInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid heading")
		}
	}()
	Heading(7).Left()
}

func TestHeadingZeroValueInvalid(t *testing.T) {
	var h Heading
	if h.Valid() {
		t.Fatal("zero heading must not be valid")
	}
	if _, err := h.MarshalText(); !errors.Is(err, ErrInvalidHeading) {
		t.Errorf("expected ErrInvalidHeading, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unset heading")
		}
	}()
	h.Forward(Position{})
}

func TestHeadingJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		H Heading `json:"h"`
	}{H: West})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"h":"W"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded struct {
		H Heading `json:"h"`
	}
	if err := json.Unmarshal([]byte(`{"h":"s"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.H != South {
		t.Errorf("expected South, got %v", decoded.H)
	}

	err = json.Unmarshal([]byte(`{"h":"Q"}`), &decoded)
	if !errors.Is(err, ErrInvalidHeading) {
		t.Errorf("expected ErrInvalidHeading, got %v", err)
	}
}
