// Package logger provides leveled logging for the sociallogin CLI and services.
// Output is quiet by default: only warnings and errors are printed. The --verbose
// flag lowers the threshold to debug so users can follow each login step.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers need not import logrus.
type Fields = logrus.Fields

var (
	mu      sync.RWMutex
	verbose bool
	log     = newLogger(os.Stderr, logrus.WarnLevel)
	// flow carries opt-in per-provider logging and is never filtered by verbosity.
	flow = newLogger(os.Stderr, logrus.InfoLevel)
)

func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&lineFormatter{})
	l.SetLevel(level)
	return l
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for all logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log.SetOutput(w)
	flow.SetOutput(w)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	log.Debugf(format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	log.Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	log.Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	log.Errorf(format, args...)
}

// WithFields returns an entry that logs with structured key/value pairs.
func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// Flow logs a login-flow step. When enabled is true the message is printed at
// info level regardless of verbosity; otherwise it is a debug message.
func Flow(enabled bool, fields Fields, format string, args ...any) {
	if enabled {
		flow.WithFields(fields).Infof(format, args...)
		return
	}
	log.WithFields(fields).Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(log.Out, "\n=== %s ===\n", name)
	}
}

// lineFormatter renders "[LEVEL] message key=value" lines.
type lineFormatter struct{}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("[")
	b.WriteString(levelLabel(e.Level))
	b.WriteString("] ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelLabel(l logrus.Level) string {
	if l == logrus.WarnLevel {
		return "WARN"
	}
	return strings.ToUpper(l.String())
}
