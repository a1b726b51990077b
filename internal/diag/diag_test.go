package diag

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-asteria/internal/source"
	"github.com/cwbudde/go-asteria/internal/vm"
)

func TestTracefFormatsLevelLocationAndMessage(t *testing.T) {
	var sb strings.Builder
	l := New(&sb)
	loc := source.Location{File: "script.ast", Line: 3, Column: 5}
	l.Tracef(LevelCall, loc, "declare %s", "x")

	out := sb.String()
	if !strings.Contains(out, "[call]") {
		t.Errorf("missing level tag: %q", out)
	}
	if !strings.Contains(out, "script.ast:3:5") {
		t.Errorf("missing location: %q", out)
	}
	if !strings.Contains(out, "declare x") {
		t.Errorf("missing formatted message: %q", out)
	}
}

func TestHooksWireAllFiveCallbacks(t *testing.T) {
	var sb strings.Builder
	hooks := New(&sb).Hooks()
	loc := source.Location{File: "<test>", Line: 1, Column: 1}

	hooks.OnDeclare(loc, "x")
	hooks.OnCall(loc, vm.Integer(1))
	hooks.OnReturn(loc, true)
	hooks.OnThrow(loc, vm.String("boom"))
	hooks.OnTrap(loc, vm.NewGlobalContext(nil))

	out := sb.String()
	for _, want := range []string{"declare x", "call 1", "return ptc=true", "throw", "trap"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
}

func TestLevelStringer(t *testing.T) {
	cases := map[Level]string{LevelCall: "call", LevelReturn: "return", LevelTrap: "trap"}
	for lvl, want := range cases {
		if got := lvl.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", lvl, got, want)
		}
	}
	if Level(99).String() != "?" {
		t.Errorf("out-of-range Level.String() = %q, want ?", Level(99).String())
	}
}
