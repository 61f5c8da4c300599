package engine

import (
	"errors"
	"fmt"
)

// ValidateMission checks everything that must hold before any rover moves:
// non-empty bounds, valid headings and deployments inside the bounds.
// Command strings are not checked here; they fail when executed.
func ValidateMission(m *Mission) error {
	if m == nil {
		return fmt.Errorf("%w: mission cannot be nil", ErrMalformedInput)
	}
	if err := m.Bounds.Validate(); err != nil {
		return err
	}
	for i, spec := range m.Rovers {
		if _, err := NewRover(m.Bounds, spec.Start()); err != nil {
			return &RoverError{Index: i, Name: spec.Name, Err: err}
		}
	}
	return nil
}

// Run processes the rovers of m one after another, each running its full
// command string before the next starts. A rover that hits an invalid
// command is stopped there and the run moves on; its report carries the
// error and the returned error joins every such failure.
//
// Mission-level problems are returned before any rover runs, with nil reports.
func Run(m *Mission) ([]Report, error) {
	if err := ValidateMission(m); err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(m.Rovers))
	var errs []error
	for i, spec := range m.Rovers {
		report := RunRover(m.Bounds, i, spec)
		if report.err != nil {
			errs = append(errs, report.err)
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

// RunRover deploys a single rover and runs its command string.
func RunRover(bounds Bounds, index int, spec RoverSpec) Report {
	report := Report{
		Index:    index,
		Name:     spec.Name,
		Start:    spec.Start(),
		Final:    spec.Start(),
		Commands: len([]rune(spec.Commands)),
	}

	rover, err := NewRover(bounds, spec.Start())
	if err != nil {
		report.fail(&RoverError{Index: index, Name: spec.Name, Err: err})
		return report
	}

	steps, err := rover.Execute(spec.Commands)
	report.Executed = len(steps)
	report.Clamps = CountClamps(steps)
	report.Final = rover.State()
	if err != nil {
		report.fail(&RoverError{Index: index, Name: spec.Name, Err: err})
	}
	return report
}

func (r *Report) fail(err error) {
	r.err = err
	r.Error = err.Error()
	r.ErrorKind = KindOf(err)
}

// CountClamps counts the moves that were stopped by the bounds.
func CountClamps(steps []Step) int {
	count := 0
	for _, s := range steps {
		if s.Clamped {
			count++
		}
	}
	return count
}
