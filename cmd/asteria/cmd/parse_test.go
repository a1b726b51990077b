package cmd

import (
	"strings"
	"testing"
)

func TestParseScriptPrintsStatementTree(t *testing.T) {
	c := newBareCmd(t)
	parseEvalExpr = "return 1;"
	parseFormat = "text"
	t.Cleanup(func() { parseEvalExpr = "" })

	out := captureStdout(t, func() {
		if err := parseScript(c, nil); err != nil {
			t.Fatalf("parseScript: %v", err)
		}
	})
	if !strings.Contains(out, "Return") {
		t.Errorf("parseScript text output = %q, want it to mention a return statement", out)
	}
}

func TestParseScriptJSONFormat(t *testing.T) {
	c := newBareCmd(t)
	parseEvalExpr = "return 1;"
	parseFormat = "json"
	t.Cleanup(func() {
		parseEvalExpr = ""
		parseFormat = "text"
	})

	out := captureStdout(t, func() {
		if err := parseScript(c, nil); err != nil {
			t.Fatalf("parseScript: %v", err)
		}
	})
	if !strings.HasPrefix(strings.TrimSpace(out), "{") && !strings.HasPrefix(strings.TrimSpace(out), "[") {
		t.Errorf("parseScript --format json output = %q, want JSON", out)
	}
}

func TestParseScriptRejectsBadSyntax(t *testing.T) {
	c := newBareCmd(t)
	parseEvalExpr = "var = ;"
	parseFormat = "text"
	t.Cleanup(func() { parseEvalExpr = "" })

	_ = captureStdout(t, func() {
		if err := parseScript(c, nil); err == nil {
			t.Fatal("expected a parse error for invalid syntax")
		}
	})
}
