package domain

import (
	"fmt"
	"strings"
)

// RuntimeError describes a command that failed while building a target.
type RuntimeError struct {
	// Target is the name of the target the command belongs to.
	Target string
	// Command is the description of the failing command.
	Command string
	// Reason is a human-readable explanation.
	Reason string
	// Kind is ErrCommandStart, ErrCommandExit or ErrCommandTerminated.
	Kind error
	// Cause is the underlying process error, if any.
	Cause error
	// ExitCode is the process exit code, or -1 when the process never ran or
	// did not exit on its own.
	ExitCode int
}

// NewStartError creates the RuntimeError raised when cmd cannot be spawned.
func NewStartError(cmd *Command, cause error) *RuntimeError {
	return &RuntimeError{
		Command:  cmd.String(),
		Reason:   ErrCommandStart.Error(),
		Kind:     ErrCommandStart,
		Cause:    cause,
		ExitCode: -1,
	}
}

// NewExitError creates the RuntimeError raised when cmd exits with a non-zero code.
// A negative code means the process never exited on its own and yields a
// terminated error instead.
func NewExitError(cmd *Command, code int, cause error) *RuntimeError {
	if code < 0 {
		return NewTerminatedError(cmd, cause)
	}
	return &RuntimeError{
		Command:  cmd.String(),
		Reason:   fmt.Sprintf("exited with code %d", code),
		Kind:     ErrCommandExit,
		Cause:    cause,
		ExitCode: code,
	}
}

// NewTerminatedError creates the RuntimeError raised when cmd was killed by a
// signal or its wait failed without an exit code.
func NewTerminatedError(cmd *Command, cause error) *RuntimeError {
	return &RuntimeError{
		Command:  cmd.String(),
		Reason:   "was terminated",
		Kind:     ErrCommandTerminated,
		Cause:    cause,
		ExitCode: -1,
	}
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	if e.Target != "" {
		b.WriteString(e.Target)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "`%s` %s", e.Command, e.Reason)
	if e.Cause != nil && e.Kind == ErrCommandStart {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *RuntimeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
