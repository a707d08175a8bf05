package liquibase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Runner executes an assembled command line and returns the captured stdout.
type Runner interface {
	Run(ctx context.Context, cl CommandLine) (string, error)
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context, cl CommandLine) (string, error)

func (f RunnerFunc) Run(ctx context.Context, cl CommandLine) (string, error) { return f(ctx, cl) }

// ProcessRunner launches Liquibase as a child process. The argument vector
// is passed directly to the OS; no shell is involved.
type ProcessRunner struct {
	// Logger receives stdout chunks at log level and stderr chunks at
	// error level, as they arrive.
	Logger *Logger

	// Dir is the working directory of the child. Empty inherits ours.
	Dir string

	// Env replaces the child's environment when non-nil.
	Env []string
}

// Run starts the process and blocks until it exits. On exit code 0 it
// returns everything the child wrote to stdout. A process that cannot be
// started yields a *LaunchError; a non-zero exit yields an *ExecutionError
// carrying the captured stderr. Stderr output alone is not a failure.
//
// Run imposes no timeout of its own; ctx is the only way to stop the child.
func (r *ProcessRunner) Run(ctx context.Context, cl CommandLine) (string, error) {
	r.Logger.Logf("Running %s...", cl.Redacted())

	cmd := exec.CommandContext(ctx, cl.Path, cl.Args...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &chunkWriter{buf: &stdout, emit: r.Logger.Log}
	cmd.Stderr = &chunkWriter{buf: &stderr, emit: r.Logger.Error}

	if err := cmd.Start(); err != nil {
		return "", &LaunchError{Path: cl.Path, Err: err}
	}

	err := cmd.Wait()
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	r.Logger.Logf("Exited with code %d", code)

	if err == nil {
		return stdout.String(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	name := string(cl.Command)
	if name == "" {
		name = cl.Path
	}
	return stdout.String(), &ExecutionError{
		Command:  name,
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Err:      err,
	}
}

// chunkWriter accumulates a stream and forwards every chunk to emit.
// exec copies each stream on its own goroutine, so one chunkWriter is
// only ever written from one goroutine.
type chunkWriter struct {
	buf  *bytes.Buffer
	emit func(string)
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	n, _ := w.buf.Write(p)
	w.emit(string(p))
	return n, nil
}

// Execution is the pending result of an asynchronous invocation.
type Execution struct {
	done   chan struct{}
	stdout string
	err    error
}

func goExecution(fn func() (string, error)) *Execution {
	e := &Execution{done: make(chan struct{})}
	go func() {
		defer close(e.done)
		e.stdout, e.err = fn()
	}()
	return e
}

// Done is closed once the child process has terminated.
func (e *Execution) Done() <-chan struct{} { return e.done }

// Wait blocks until the invocation finishes and returns its result.
func (e *Execution) Wait() (string, error) {
	<-e.done
	return e.stdout, e.err
}
