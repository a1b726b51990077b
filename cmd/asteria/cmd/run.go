package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-asteria/internal/astdump"
	"github.com/cwbudde/go-asteria/internal/config"
	"github.com/cwbudde/go-asteria/internal/diag"
	"github.com/cwbudde/go-asteria/internal/parser"
	"github.com/cwbudde/go-asteria/internal/rod"
	"github.com/cwbudde/go-asteria/internal/vm"
	"github.com/cwbudde/go-asteria/pkg/asteria"
)

var (
	runEvalExpr string
	runDumpAST  bool
	runDumpAIR  bool
	runTrace    bool

	runIntegersAsReals       bool
	runEscapableSingleQuotes bool
	runKeywordsAsIdentifiers bool
	runNoImplicitGlobals     bool
	runNoProperTailCalls     bool
	runVerboseTraps          bool
	runOptLevel              int
)

var runCmd = &cobra.Command{
	Use:   "run file [-- script-args...]",
	Short: "Run an Asteria file or expression",
	Long: `Execute an Asteria program from a file or inline expression. Anything
after a literal "--" is passed through to the script as its variadic
argument list.

Examples:
  # Run a script file
  asteria run script.ast

  # Evaluate an inline expression
  asteria run -e "return 'hello';"

  # Run with an AIR dump (for debugging) and an execution trace
  asteria run --dump-air --trace script.ast

  # Pass arguments through to the script
  asteria run script.ast -- foo bar`,
	Args: cobra.ArbitraryArgs,
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runEvalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&runDumpAST, "dump-ast", false, "dump the parsed statement tree before running")
	runCmd.Flags().BoolVar(&runDumpAIR, "dump-air", false, "dump the lowered AIR/rod tree before running")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "trace declare/call/return/throw/trap events to stderr")

	runCmd.Flags().BoolVar(&runIntegersAsReals, "integers-as-reals", false, "override: parse integer literals as reals")
	runCmd.Flags().BoolVar(&runEscapableSingleQuotes, "escapable-single-quotes", false, "override: honor backslash escapes in single-quoted strings")
	runCmd.Flags().BoolVar(&runKeywordsAsIdentifiers, "keywords-as-identifiers", false, "override: treat keywords as ordinary identifiers")
	runCmd.Flags().BoolVar(&runNoImplicitGlobals, "no-implicit-global-names", false, "override: unresolved names are compile errors instead of global references")
	runCmd.Flags().BoolVar(&runNoProperTailCalls, "no-proper-tail-calls", false, "override: drop proper-tail-call annotations")
	runCmd.Flags().BoolVar(&runVerboseTraps, "verbose-single-step-traps", false, "override: emit a single-step trap before every sub-expression")
	runCmd.Flags().IntVar(&runOptLevel, "opt-level", -1, "override: optimization level (0 disables constant folding)")
}

func runScript(cmd *cobra.Command, args []string) error {
	var scriptPath string
	if runEvalExpr == "" && len(args) > 0 {
		scriptPath = args[0]
		args = args[1:]
	}

	input, filename, err := resolveInput(runEvalExpr, nonEmptySlice(scriptPath))
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	applyRunFlagOverrides(cmd, &opts)

	if runDumpAST {
		stmts, cerr := parser.Parse(filename, input, opts)
		if cerr != nil {
			fmt.Fprintln(os.Stderr, cerr.WithSource(input).Format(true))
			return fmt.Errorf("parsing failed")
		}
		fmt.Println("AST:")
		fmt.Print(astdump.ToString(stmts))
		fmt.Println()
	}

	var hooks *vm.Hooks
	if runTrace {
		hooks = diag.New(os.Stderr).Hooks()
	}

	s := asteria.New(opts, hooks)
	if loadErr := s.ReloadString(filename, input); loadErr != nil {
		fmt.Fprintln(os.Stderr, loadErr)
		return fmt.Errorf("compiling failed")
	}

	if runDumpAIR {
		fmt.Println("AIR:")
		fmt.Print(rod.DisassembleToString(filename, s.Program()))
		fmt.Println()
	}

	scriptArgs := make([]vm.Value, len(args))
	for i, a := range args {
		scriptArgs[i] = vm.String(a)
	}

	result, rerr := s.Execute(scriptArgs)
	if rerr != nil {
		fmt.Fprintln(os.Stderr, rerr)
		return fmt.Errorf("execution failed")
	}
	if !result.IsNull() {
		fmt.Println(result.String())
	}
	return nil
}

func nonEmptySlice(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// applyRunFlagOverrides applies any `run`-specific flags the user set
// explicitly on top of opts (already layered defaults < config file),
// completing the flags > config file > defaults precedence.
func applyRunFlagOverrides(cmd *cobra.Command, opts *config.Options) {
	f := cmd.Flags()
	if f.Changed("integers-as-reals") {
		opts.IntegersAsReals = runIntegersAsReals
	}
	if f.Changed("escapable-single-quotes") {
		opts.EscapableSingleQuotes = runEscapableSingleQuotes
	}
	if f.Changed("keywords-as-identifiers") {
		opts.KeywordsAsIdentifiers = runKeywordsAsIdentifiers
	}
	if f.Changed("no-implicit-global-names") {
		opts.ImplicitGlobalNames = !runNoImplicitGlobals
	}
	if f.Changed("no-proper-tail-calls") {
		opts.ProperTailCalls = !runNoProperTailCalls
	}
	if f.Changed("verbose-single-step-traps") {
		opts.VerboseSingleStepTraps = runVerboseTraps
	}
	if f.Changed("opt-level") {
		opts.OptimizationLevel = runOptLevel
	}
}
