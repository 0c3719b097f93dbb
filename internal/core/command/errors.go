package command

import (
	"errors"
	"fmt"

	"github.com/yndnr/framekv-go/pkg/frame"
)

// ParseError reports a malformed request.
type ParseError struct {
	// Command is the lower-case command name when it was recognized.
	Command string
	Reason  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "protocol error: " + e.Reason
}

// UnsupportedError reports a well-formed request naming an unknown command.
type UnsupportedError struct {
	// Name is the command name as the client sent it.
	Name string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported command '%s'", e.Name)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsUnsupported reports whether err is or wraps an *UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// ErrorFrame converts err to the Error frame sent to clients.
func ErrorFrame(err error) frame.Frame {
	return frame.Error("ERR " + err.Error())
}

func wrongArgs(name string) *ParseError {
	return &ParseError{
		Command: name,
		Reason:  fmt.Sprintf("wrong number of arguments for '%s' command", name),
	}
}
