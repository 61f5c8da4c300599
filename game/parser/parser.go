// Package parser reads and writes the plain text mission format:
//
//	5 5
//	1 2 N
//	LMLMLMLMM
//	3 3 E
//	MMRMMRMRRM
//
// The first two fields are the upper-right corner of the plateau; the lower
// left is always 0,0. Each rover then takes four fields: x, y, heading and a
// command string. Any whitespace separates fields.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/wricardo/mcp-training/roversim/game/engine"
)

var missionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Field", Pattern: `[^\s]+`},
})

type missionFile struct {
	XMax   *field         `parser:"@@"`
	YMax   *field         `parser:"@@"`
	Rovers []*roverRecord `parser:"@@*"`
}

type roverRecord struct {
	X        *field `parser:"@@"`
	Y        *field `parser:"@@"`
	Heading  *field `parser:"@@"`
	Commands *field `parser:"@@"`
}

type field struct {
	Pos   lexer.Position
	Value string `parser:"@Field"`
}

var missionParser = participle.MustBuild[missionFile](
	participle.Lexer(missionLexer),
	participle.Elide("Whitespace"),
)

// Parse reads a mission in the text format. name is used in error positions.
func Parse(name, text string) (*engine.Mission, error) {
	file, err := missionParser.ParseString(name, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrMalformedInput, err)
	}

	xMax, err := file.XMax.int("plateau x")
	if err != nil {
		return nil, err
	}
	yMax, err := file.YMax.int("plateau y")
	if err != nil {
		return nil, err
	}
	if xMax < 0 || yMax < 0 {
		return nil, fmt.Errorf("%w: %s: plateau size %d %d must not be negative",
			engine.ErrMalformedInput, file.XMax.Pos, xMax, yMax)
	}

	mission := &engine.Mission{
		Name:   name,
		Bounds: engine.NewBounds(xMax, yMax),
		Rovers: make([]engine.RoverSpec, 0, len(file.Rovers)),
	}

	for i, rec := range file.Rovers {
		spec, err := rec.spec()
		if err != nil {
			return nil, fmt.Errorf("rover %d: %w", i, err)
		}
		mission.Rovers = append(mission.Rovers, spec)
	}

	return mission, nil
}

// ParseReader is Parse for an io.Reader.
func ParseReader(name string, r io.Reader) (*engine.Mission, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission: %w", err)
	}
	return Parse(name, string(data))
}

func (r *roverRecord) spec() (engine.RoverSpec, error) {
	x, err := r.X.int("x")
	if err != nil {
		return engine.RoverSpec{}, err
	}
	y, err := r.Y.int("y")
	if err != nil {
		return engine.RoverSpec{}, err
	}
	heading, err := engine.ParseHeading(r.Heading.Value)
	if err != nil {
		return engine.RoverSpec{}, fmt.Errorf("%s: %w", r.Heading.Pos, err)
	}
	return engine.RoverSpec{X: x, Y: y, Heading: heading, Commands: r.Commands.Value}, nil
}

func (f *field) int(what string) (int, error) {
	v, err := strconv.Atoi(f.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %s %q is not an integer", engine.ErrMalformedInput, f.Pos, what, f.Value)
	}
	return v, nil
}

// Format writes the mission in the text format. Rover names and the
// description are not representable and are dropped.
func Format(w io.Writer, m *engine.Mission) error {
	if m.Bounds.XMin != 0 || m.Bounds.YMin != 0 {
		return fmt.Errorf("%w: text format requires the plateau to start at 0,0", engine.ErrMalformedInput)
	}
	if _, err := fmt.Fprintf(w, "%d %d\n", m.Bounds.XMax, m.Bounds.YMax); err != nil {
		return err
	}
	for i, spec := range m.Rovers {
		if spec.Commands == "" {
			return fmt.Errorf("%w: rover %d has no commands, which the text format cannot express",
				engine.ErrMalformedInput, i)
		}
		if _, err := fmt.Fprintf(w, "%s\n%s\n", spec.Start(), spec.Commands); err != nil {
			return err
		}
	}
	return nil
}

// WriteReports writes one "x y H" line per rover that finished its
// commands, in mission order. Failed rovers are skipped; their errors are
// returned joined so the caller can report them.
func WriteReports(w io.Writer, reports []engine.Report) error {
	var errs []error
	for i := range reports {
		r := &reports[i]
		if !r.OK() {
			err := r.Err()
			if err == nil {
				err = fmt.Errorf("rover %d: %s", r.Index, r.Error)
			}
			errs = append(errs, err)
			continue
		}
		if _, err := fmt.Fprintln(w, r.Final); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
