package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHeading = errors.New("invalid heading")
	ErrInvalidCommand = errors.New("invalid command")
	ErrMalformedInput = errors.New("malformed input")
	ErrOutOfBounds    = errors.New("position out of bounds")
)

// ErrorKind is a machine-friendly classification of simulation errors.
type ErrorKind string

const (
	KindInvalidHeading ErrorKind = "invalid_heading"
	KindInvalidCommand ErrorKind = "invalid_command"
	KindMalformedInput ErrorKind = "malformed_input"
	KindOutOfBounds    ErrorKind = "out_of_bounds"
)

// KindOf classifies err. It returns "" for errors that are not simulation errors.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidHeading):
		return KindInvalidHeading
	case errors.Is(err, ErrInvalidCommand):
		return KindInvalidCommand
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrOutOfBounds):
		return KindOutOfBounds
	}
	return ""
}

// CommandError records where in a command string execution stopped.
type CommandError struct {
	Index   int
	Command rune
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%v %q at index %d", ErrInvalidCommand, e.Command, e.Index)
}

func (e *CommandError) Unwrap() error {
	return ErrInvalidCommand
}

// RoverError ties a failure to the rover that produced it.
type RoverError struct {
	Index int
	Name  string
	Err   error
}

func (e *RoverError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("rover %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("rover %d: %v", e.Index, e.Err)
}

func (e *RoverError) Unwrap() error {
	return e.Err
}
