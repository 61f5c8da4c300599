package engine

import (
	"fmt"
	"strings"
)

// Heading is one of the four compass directions a rover can face. The zero
// value is not a heading, so a rover decoded without one fails validation.
type Heading int

const (
	North Heading = iota + 1
	East
	South
	West
)

// Lookup tables indexed by Heading; slot 0 is the unset value.
var (
	headingNames = [...]string{"", "N", "E", "S", "W"}
	displacement = [...]Position{{}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}}
	leftOf       = [...]Heading{0, West, North, East, South}
	rightOf      = [...]Heading{0, East, South, West, North}
)

// Headings lists every heading in clockwise order starting at North.
var Headings = []Heading{North, East, South, West}

// ParseHeading converts "N", "E", "S" or "W" into a Heading.
func ParseHeading(s string) (Heading, error) {
	for _, h := range Headings {
		if s == headingNames[h] {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidHeading, s)
}

// Valid reports whether h is one of the four headings.
func (h Heading) Valid() bool {
	return h >= North && h <= West
}

func (h Heading) mustBeValid() {
	if !h.Valid() {
		panic(fmt.Sprintf("engine: invalid heading %d", int(h)))
	}
}

// Left returns the heading after a quarter turn counter-clockwise.
func (h Heading) Left() Heading {
	h.mustBeValid()
	return leftOf[h]
}

// Right returns the heading after a quarter turn clockwise.
func (h Heading) Right() Heading {
	h.mustBeValid()
	return rightOf[h]
}

// Forward returns the position one step ahead of p. It does not clamp.
func (h Heading) Forward(p Position) Position {
	h.mustBeValid()
	d := displacement[h]
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

func (h Heading) String() string {
	if !h.Valid() {
		return fmt.Sprintf("Heading(%d)", int(h))
	}
	return headingNames[h]
}

// MarshalText encodes the heading as its single letter.
func (h Heading) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHeading, int(h))
	}
	return []byte(headingNames[h]), nil
}

// UnmarshalText accepts the single letter form, case-insensitively.
func (h *Heading) UnmarshalText(text []byte) error {
	parsed, err := ParseHeading(strings.ToUpper(strings.TrimSpace(string(text))))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
