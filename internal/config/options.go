// Package config holds Compiler_Options, the configuration consumed by
// both the lexer and the IR lowering pass, and the means to load it from
// a project file or CLI flags.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Options mirrors spec.md §6's Compiler_Options. Every field has a
// defined effect on the lexer or on IR lowering; zero value is the
// language default for that option.
type Options struct {
	// IntegersAsReals: every numeric literal without a radix point is
	// still parsed as real (default off).
	IntegersAsReals bool `yaml:"integers_as_reals"`

	// EscapableSingleQuotes: single-quoted strings honor backslash
	// escapes (default off).
	EscapableSingleQuotes bool `yaml:"escapable_single_quotes"`

	// KeywordsAsIdentifiers: the keyword table is ignored, so all words
	// become identifiers (default off).
	KeywordsAsIdentifiers bool `yaml:"keywords_as_identifiers"`

	// ImplicitGlobalNames: unresolved names compile to global references;
	// if off, they are compile-time errors (default on).
	ImplicitGlobalNames bool `yaml:"implicit_global_names"`

	// ProperTailCalls: if off, all PTC annotations are dropped (default on).
	ProperTailCalls bool `yaml:"proper_tail_calls"`

	// VerboseSingleStepTraps: emit a single-step-trap node before every
	// sub-expression (default off).
	VerboseSingleStepTraps bool `yaml:"verbose_single_step_traps"`

	// OptimizationLevel: 0 = none; >= 1 enables constant folding and the
	// bi32 specialization.
	OptimizationLevel int `yaml:"optimization_level"`
}

// Default returns the language's default option set: implicit global
// names and proper tail calls on, everything else off, optimization
// level 1.
func Default() Options {
	return Options{
		ImplicitGlobalNames: true,
		ProperTailCalls:     true,
		OptimizationLevel:   1,
	}
}

// Load reads a YAML project config (conventionally "asteria.yaml") and
// overlays it on top of Default(). A missing file is not an error; it
// just yields the defaults.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return opts, nil
}
