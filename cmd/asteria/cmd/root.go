// Package cmd is the asteria CLI's cobra command tree, mirroring the
// teacher's cmd/dwscript/cmd layout: a package-level rootCmd, version
// variables set by build flags, and one file per subcommand.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "asteria",
	Short: "Asteria interpreter and compiler",
	Long: `asteria is a Go implementation of the Asteria scripting language.

Asteria is a small dynamically-typed scripting language with:
  - A Pratt-parsed expression grammar lowered to a tree-shaped IR (AIR)
  - Proper tail calls, try/catch/throw/assert, defer, and for-each
  - A stack-based executive context with by-reference bindings

This is a from-scratch Go port of the reference implementation,
following the teacher project's package layout and CLI conventions.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("config", "asteria.yaml", "project config file (compiler options)")
}
