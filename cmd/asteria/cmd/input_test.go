package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestResolveInputPrefersEvalExpr(t *testing.T) {
	text, name, err := resolveInput("1 + 1", nil)
	if err != nil {
		t.Fatalf("resolveInput: %v", err)
	}
	if text != "1 + 1" || name != "<eval>" {
		t.Errorf("got (%q, %q), want (%q, %q)", text, name, "1 + 1", "<eval>")
	}
}

func TestResolveInputReadsFileArgument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.ast")
	if err := os.WriteFile(path, []byte("return 1;"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	text, name, err := resolveInput("", []string{path})
	if err != nil {
		t.Fatalf("resolveInput: %v", err)
	}
	if text != "return 1;" || name != path {
		t.Errorf("got (%q, %q), want (%q, %q)", text, name, "return 1;", path)
	}
}

func TestResolveInputErrorsWithNeitherFileNorEval(t *testing.T) {
	if _, _, err := resolveInput("", nil); err == nil {
		t.Fatal("expected an error when neither a file nor -e is given")
	}
}

func TestResolveInputErrorsOnMissingFile(t *testing.T) {
	if _, _, err := resolveInput("", []string{filepath.Join(t.TempDir(), "missing.ast")}); err == nil {
		t.Fatal("expected an error reading a nonexistent file")
	}
}

func TestLoadOptionsReadsConfigFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", filepath.Join(t.TempDir(), "does-not-exist.yaml"), "")
	opts, err := loadOptions(cmd)
	if err != nil {
		t.Fatalf("loadOptions: %v", err)
	}
	if opts.OptimizationLevel != 1 {
		t.Errorf("OptimizationLevel = %d, want the default of 1 (missing config file)", opts.OptimizationLevel)
	}
}
