package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"

	liquibase "github.com/bcomnes/goliquibase"
)

// newLogger builds the CLI logger. With logFile set, both streams are
// also appended to a rotated file and colour is disabled. The returned
// func releases the file.
func newLogger(stdout, stderr io.Writer, level string, quiet bool, logFile string) (*liquibase.Logger, func()) {
	l := &liquibase.Logger{
		Out:   stdout,
		Err:   stderr,
		Level: liquibase.ResolveLogLevel(level, quiet),
		Color: isTerminal(stdout) && isTerminal(stderr),
	}
	if logFile == "" {
		return l, func() {}
	}

	lj := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50, // megabytes
		MaxBackups: 7,
		MaxAge:     30, // days
	}
	l.Out = io.MultiWriter(stdout, lj)
	l.Err = io.MultiWriter(stderr, lj)
	l.Color = false
	return l, func() { lj.Close() }
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
