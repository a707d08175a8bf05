package liquibase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCallSignature is returned by the forwarding CLI when it receives no arguments.
	ErrCallSignature = errors.New("liquibase: CLI call signature does not match the expected format. Please verify you have passed required arguments and parameters")

	// ErrUnknownCommand is returned for a command outside the Liquibase vocabulary.
	ErrUnknownCommand = errors.New("liquibase: unknown command")

	// ErrUnknownParameter is returned when a parameter is not accepted by the command.
	ErrUnknownParameter = errors.New("liquibase: unknown parameter")
)

// LaunchError reports that the executable could not be started at all.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("liquibase: failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExecutionError reports that Liquibase started but exited with a failure.
// Stderr carries the raw diagnostic output of the process.
type ExecutionError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("liquibase: %s exited with code %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ExitCode extracts the child exit code from err, if it carries one.
func ExitCode(err error) (int, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.ExitCode, true
	}
	return 0, false
}
