package liquibase

import (
	"context"
	"errors"
	"time"
)

// Invocation describes one finished Liquibase run.
type Invocation struct {
	ID          string
	Command     Command
	CommandLine string // redacted
	StartedAt   time.Time
	Duration    time.Duration
	ExitCode    int
	Err         string
	// Launched is false when the executable never started.
	Launched bool
}

// Succeeded reports whether the run ended without error.
func (inv Invocation) Succeeded() bool { return inv.Err == "" }

// Recorder receives an Invocation after every facade call.
type Recorder interface {
	Record(ctx context.Context, inv Invocation) error
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, inv Invocation) error

func (f RecorderFunc) Record(ctx context.Context, inv Invocation) error { return f(ctx, inv) }

type multiRecorder []Recorder

// Recorders fans an Invocation out to every non-nil recorder. All of them
// are called; their errors are joined.
func Recorders(rs ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiRecorder) Record(ctx context.Context, inv Invocation) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, inv); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
