package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-asteria/internal/config"
)

// resolveInput determines the source text and display name for a
// subcommand invoked either with a file-path argument or an `-e`/`--eval`
// inline snippet, matching the teacher's run/lex input-resolution
// pattern.
func resolveInput(evalExpr string, args []string) (text, name string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return string(data), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e flag for inline code")
}

// loadOptions layers the project config file under cmd's persistent
// --config flag over the Compiler_Options defaults (asteria CLI
// precedence: flags > config file > defaults; flag overrides are
// applied by each subcommand after this call).
func loadOptions(cmd *cobra.Command) (config.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
