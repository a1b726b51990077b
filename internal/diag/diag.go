// Package diag is the structured trace logger SPEC_FULL.md's ambient
// stack calls for: leveled, source-located output modeled on the
// teacher's internal/errors formatting conventions. The teacher has no
// logging dependency of its own (go-dws's internal/errors is plain
// fmt/strings), so this stays on the standard library rather than
// reaching for a third-party logger the example pack never wires in.
package diag

import (
	"fmt"
	"io"

	"github.com/cwbudde/go-asteria/internal/source"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// Level orders trace verbosity, cheapest first.
type Level int

const (
	LevelCall Level = iota
	LevelReturn
	LevelTrap
)

func (l Level) String() string {
	switch l {
	case LevelCall:
		return "call"
	case LevelReturn:
		return "return"
	case LevelTrap:
		return "trap"
	default:
		return "?"
	}
}

// Logger writes leveled, source-located trace lines to an underlying
// writer (os.Stderr for the CLI's --trace flag).
type Logger struct {
	w io.Writer
}

// New creates a Logger writing to w.
func New(w io.Writer) *Logger { return &Logger{w: w} }

// Tracef writes one trace line: level, location, formatted message.
func (l *Logger) Tracef(level Level, loc source.Location, format string, args ...any) {
	fmt.Fprintf(l.w, "[%s] %s: %s\n", level, loc, fmt.Sprintf(format, args...))
}

// Hooks builds a vm.Hooks set that traces declare/call/return/throw/trap
// events through l, for the `run --trace` CLI flag.
func (l *Logger) Hooks() *vm.Hooks {
	return &vm.Hooks{
		OnDeclare: func(loc source.Location, name string) {
			l.Tracef(LevelCall, loc, "declare %s", name)
		},
		OnCall: func(loc source.Location, callee vm.Value) {
			l.Tracef(LevelCall, loc, "call %s", callee)
		},
		OnReturn: func(loc source.Location, ptc bool) {
			l.Tracef(LevelReturn, loc, "return ptc=%t", ptc)
		},
		OnThrow: func(loc source.Location, value vm.Value) {
			l.Tracef(LevelReturn, loc, "throw %s", value)
		},
		OnTrap: func(loc source.Location, ctx *vm.Context) {
			l.Tracef(LevelTrap, loc, "trap")
		},
	}
}
