package liquibase

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Label prefixes every line written by Logger.
const Label = "[goliquibase]"

// LogLevel mirrors the values Liquibase accepts for --logLevel.
type LogLevel string

const (
	LogLevelOff     LogLevel = "off"
	LogLevelSevere  LogLevel = "severe"
	LogLevelWarning LogLevel = "warning"
	LogLevelInfo    LogLevel = "info"
	LogLevelDebug   LogLevel = "debug"
)

// DefaultLogLevel applies when neither quiet mode nor a configured level is set.
const DefaultLogLevel = LogLevelSevere

// ParseLogLevel converts a level string to a LogLevel.
// "warn" is accepted as an alias for warning.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off":
		return LogLevelOff, nil
	case "severe":
		return LogLevelSevere, nil
	case "warning", "warn":
		return LogLevelWarning, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return "", fmt.Errorf("log level must be one of: off, severe, warning, info, debug (got %q)", s)
	}
}

// ResolveLogLevel picks the effective level: quiet forces off, then the
// configured value, then DefaultLogLevel. Unparseable values fall back to
// DefaultLogLevel.
func ResolveLogLevel(configured string, quiet bool) LogLevel {
	if quiet {
		return LogLevelOff
	}
	if configured == "" {
		return DefaultLogLevel
	}
	lvl, err := ParseLogLevel(configured)
	if err != nil {
		return DefaultLogLevel
	}
	return lvl
}

// Logger writes label-prefixed status lines gated by Level.
// A nil *Logger discards everything.
type Logger struct {
	// Out receives Log and Warn lines. Defaults to os.Stdout.
	Out io.Writer
	// Err receives Error lines. Defaults to os.Stderr.
	Err io.Writer
	// Level gates which calls are emitted.
	Level LogLevel
	// Color wraps Warn lines in yellow and Error lines in red.
	Color bool

	mu sync.Mutex
}

// NewLogger returns a Logger on stdout/stderr with the resolved level.
func NewLogger(configured string, quiet bool) *Logger {
	return &Logger{
		Out:   os.Stdout,
		Err:   os.Stderr,
		Level: ResolveLogLevel(configured, quiet),
	}
}

// Log writes an informational line unless the level is off.
func (l *Logger) Log(message string) {
	if l == nil || !l.permits(l.Level, LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelSevere) {
		return
	}
	l.write(l.out(), "", message)
}

// Warn writes a warning line when the level is warning or severe.
func (l *Logger) Warn(message string) {
	if l == nil || !l.permits(l.Level, LogLevelWarning, LogLevelSevere) {
		return
	}
	l.write(l.out(), "\x1b[33m", message)
}

// Error writes an error line when the level is severe.
func (l *Logger) Error(message string) {
	if l == nil || !l.permits(l.Level, LogLevelSevere) {
		return
	}
	l.write(l.err(), "\x1b[31m", message)
}

// Logf formats according to a format specifier and calls Log.
func (l *Logger) Logf(format string, args ...any) { l.Log(fmt.Sprintf(format, args...)) }

// Warnf formats according to a format specifier and calls Warn.
func (l *Logger) Warnf(format string, args ...any) { l.Warn(fmt.Sprintf(format, args...)) }

// Errorf formats according to a format specifier and calls Error.
func (l *Logger) Errorf(format string, args ...any) { l.Error(fmt.Sprintf(format, args...)) }

func (l *Logger) permits(level LogLevel, allowed ...LogLevel) bool {
	for _, a := range allowed {
		if level == a {
			return true
		}
	}
	return false
}

// write ignores errors: logging never replaces a caller's result.
func (l *Logger) write(w io.Writer, color, message string) {
	line := Label + " " + strings.TrimRight(message, "\n")
	if l.Color && color != "" {
		line = color + line + "\x1b[0m"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(w, line)
}

func (l *Logger) out() io.Writer {
	if l.Out == nil {
		return os.Stdout
	}
	return l.Out
}

func (l *Logger) err() io.Writer {
	if l.Err == nil {
		return os.Stderr
	}
	return l.Err
}
