// Package trace prints collection events in a consistent way. It is the
// observability surface of the collector: a leveled, prefix-tagged writer
// that colorizes its tag when the output is a terminal.
package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level selects how much a Logger prints.
type Level int

const (
	// LevelOff suppresses all output.
	LevelOff Level = iota
	// LevelEvent prints one line per collection.
	LevelEvent
	// LevelDebug additionally prints per-phase details.
	LevelDebug
)

// ParseLevel converts a configuration string into a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "", "off":
		return LevelOff, nil
	case "event":
		return LevelEvent, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelOff, fmt.Errorf("trace: unknown level %q (want off, event or debug)", s)
}

// Logger writes gc-prefixed event lines. A nil Logger is valid and silent,
// so callers can thread an optional logger without nil checks.
type Logger struct {
	out   io.Writer
	level Level
	color bool
}

// New returns a logger writing uncolored lines to w.
func New(w io.Writer, level Level) *Logger {
	return &Logger{out: w, level: level}
}

// Console returns a logger writing to standard output, colorized when
// standard output is a terminal.
func Console(level Level) *Logger {
	return &Logger{
		out:   colorable.NewColorableStdout(),
		level: level,
		color: isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// Eventf prints a per-collection event line.
func (l *Logger) Eventf(format string, args ...interface{}) {
	l.printf(LevelEvent, format, args...)
}

// Debugf prints a per-phase detail line.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args...)
}

func (l *Logger) printf(min Level, format string, args ...interface{}) {
	if l == nil || l.level < min || l.out == nil {
		return
	}
	tag := "gc: "
	if l.color {
		tag = "\x1b[32mgc\x1b[0m: "
	}
	fmt.Fprintf(l.out, tag+format+"\n", args...)
}
