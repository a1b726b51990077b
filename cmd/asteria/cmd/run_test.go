package cmd

import (
	"testing"

	"github.com/cwbudde/go-asteria/internal/config"
)

func TestApplyRunFlagOverridesOnlyAppliesExplicitlySetFlags(t *testing.T) {
	opts := config.Default()
	if err := runCmd.Flags().Set("opt-level", "0"); err != nil {
		t.Fatalf("Set(opt-level): %v", err)
	}
	if err := runCmd.Flags().Set("no-proper-tail-calls", "true"); err != nil {
		t.Fatalf("Set(no-proper-tail-calls): %v", err)
	}

	applyRunFlagOverrides(runCmd, &opts)

	if opts.OptimizationLevel != 0 {
		t.Errorf("OptimizationLevel = %d, want 0 (flag was explicitly set)", opts.OptimizationLevel)
	}
	if opts.ProperTailCalls {
		t.Error("ProperTailCalls should be false once --no-proper-tail-calls is set")
	}
	// escapable-single-quotes was never Set, so it must keep the default
	// rather than being clobbered by the flag variable's zero value.
	if opts.EscapableSingleQuotes {
		t.Error("EscapableSingleQuotes should remain at its default (flag not explicitly set)")
	}
}

func TestNonEmptySlice(t *testing.T) {
	if got := nonEmptySlice(""); got != nil {
		t.Errorf("nonEmptySlice(\"\") = %v, want nil", got)
	}
	if got := nonEmptySlice("x"); len(got) != 1 || got[0] != "x" {
		t.Errorf("nonEmptySlice(\"x\") = %v, want [x]", got)
	}
}
