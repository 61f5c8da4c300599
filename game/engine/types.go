package engine

import (
	"encoding/json"
	"fmt"
)

// Command characters understood by a rover.
const (
	CommandLeft  = 'L'
	CommandRight = 'R'
	CommandMove  = 'M'
)

// Position represents x,y coordinates
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Bounds is the inclusive rectangle rovers are confined to.
type Bounds struct {
	XMin int `json:"x_min" yaml:"x_min"`
	YMin int `json:"y_min" yaml:"y_min"`
	XMax int `json:"x_max" yaml:"x_max"`
	YMax int `json:"y_max" yaml:"y_max"`
}

// NewBounds returns the plateau [0,xMax] x [0,yMax].
func NewBounds(xMax, yMax int) Bounds {
	return Bounds{XMax: xMax, YMax: yMax}
}

// Validate checks that the rectangle is not empty.
func (b Bounds) Validate() error {
	if b.XMin > b.XMax || b.YMin > b.YMax {
		return fmt.Errorf("%w: bounds [%d,%d]x[%d,%d] are empty", ErrMalformedInput, b.XMin, b.XMax, b.YMin, b.YMax)
	}
	return nil
}

// Contains reports whether p lies inside the bounds, edges included.
func (b Bounds) Contains(p Position) bool {
	return p.X >= b.XMin && p.X <= b.XMax && p.Y >= b.YMin && p.Y <= b.YMax
}

// Clamp caps each axis of p to the bounds independently.
func (b Bounds) Clamp(p Position) Position {
	return Position{
		X: max(b.XMin, min(b.XMax, p.X)),
		Y: max(b.YMin, min(b.YMax, p.Y)),
	}
}

// RoverState is the observable state of a rover.
type RoverState struct {
	Position `yaml:",inline"`
	Heading Heading `json:"heading" yaml:"heading"`
}

// String formats the state as "x y H".
func (s RoverState) String() string {
	return fmt.Sprintf("%d %d %s", s.X, s.Y, s.Heading)
}

// RoverSpec describes a rover's deployment and the commands it should run.
type RoverSpec struct {
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	X        int     `json:"x" yaml:"x"`
	Y        int     `json:"y" yaml:"y"`
	Heading  Heading `json:"heading" yaml:"heading"`
	Commands string  `json:"commands" yaml:"commands"`
}

// Start returns the deployment state of the rover.
func (s RoverSpec) Start() RoverState {
	return RoverState{Position: Position{X: s.X, Y: s.Y}, Heading: s.Heading}
}

// Mission is a plateau plus the rovers deployed on it, in processing order.
type Mission struct {
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Bounds      Bounds      `json:"bounds" yaml:"bounds"`
	Rovers      []RoverSpec `json:"rovers" yaml:"rovers"`
}

// UnmarshalJSON decodes a mission and requires its bounds to be present.
func (m *Mission) UnmarshalJSON(data []byte) error {
	type mission Mission
	aux := struct {
		*mission
		Bounds *Bounds `json:"bounds"`
	}{mission: (*mission)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Bounds == nil {
		return fmt.Errorf("%w: mission has no bounds", ErrMalformedInput)
	}
	m.Bounds = *aux.Bounds
	return nil
}

// Step is a single applied command.
type Step struct {
	Index   int        `json:"index"`
	Command string     `json:"command"`
	From    RoverState `json:"from"`
	To      RoverState `json:"to"`
	Clamped bool       `json:"clamped,omitempty"`
}

// Report is the outcome of running one rover of a mission.
type Report struct {
	Index     int        `json:"index"`
	Name      string     `json:"name,omitempty"`
	Start     RoverState `json:"start"`
	Final     RoverState `json:"final"`
	Commands  int        `json:"commands"`
	Executed  int        `json:"executed"`
	Clamps    int        `json:"clamps"`
	Error     string     `json:"error,omitempty"`
	ErrorKind ErrorKind  `json:"error_kind,omitempty"`

	err error
}

// Err returns the failure of this rover, or nil if every command ran.
func (r *Report) Err() error {
	return r.err
}

// OK reports whether the rover completed its command string.
func (r *Report) OK() bool {
	return r.err == nil && r.Error == ""
}
