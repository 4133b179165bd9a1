// Package logging prints colored, single-line diagnostics without timestamps.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Logger writes warnings, info and debug messages.
// A nil *Logger is valid and discards everything.
type Logger struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	colored bool
}

// Option configures a Logger.
type Option func(*Logger)

// WithWriter sets the destination writer.
func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		l.w = w
	}
}

// WithVerbose enables debug output.
func WithVerbose(verbose bool) Option {
	return func(l *Logger) {
		l.verbose = verbose
	}
}

// WithColor toggles colored output.
func WithColor(colored bool) Option {
	return func(l *Logger) {
		l.colored = colored
	}
}

// New creates a logger writing to stderr.
func New(opts ...Option) *Logger {
	l := &Logger{
		w:       os.Stderr,
		colored: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return New(WithWriter(io.Discard))
}

// Warn reports a recoverable problem.
func (l *Logger) Warn(format string, args ...any) {
	l.print(color.FgYellow, "WARNING: ", format, args...)
}

// Error reports a failure.
func (l *Logger) Error(format string, args ...any) {
	l.print(color.FgRed, "ERROR: ", format, args...)
}

// Info reports progress.
func (l *Logger) Info(format string, args ...any) {
	l.print(color.FgCyan, "", format, args...)
}

// Debug reports detail only shown in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	if l == nil || !l.verbose {
		return
	}
	l.print(color.FgHiBlack, "", format, args...)
}

func (l *Logger) print(attr color.Attribute, prefix, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.colored {
		color.New(attr).Fprintln(l.w, msg)
		return
	}
	fmt.Fprintln(l.w, prefix+msg)
}
