package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-asteria/internal/diag"
	"github.com/cwbudde/go-asteria/internal/vm"
	"github.com/cwbudde/go-asteria/pkg/asteria"
)

var replTrace bool

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start a line-buffered Asteria REPL",
	Long: `Start an interactive read-eval-print loop over stdin, one line at a
time, sharing one global context across lines the way pkg/asteria's
ReloadOneLine (reload_stdin semantics, spec.md §6) is built for.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().BoolVar(&replTrace, "trace", false, "trace declare/call/return/throw/trap events to stderr")
}

func runRepl(cmd *cobra.Command, _ []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	var hooks *vm.Hooks
	if replTrace {
		hooks = diag.New(os.Stderr).Hooks()
	}
	s := asteria.New(opts, hooks)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stderr, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			fmt.Fprint(os.Stderr, "> ")
			continue
		}
		if err := s.ReloadOneLine(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprint(os.Stderr, "> ")
			continue
		}
		result, rerr := s.Execute(nil)
		if rerr != nil {
			fmt.Fprintln(os.Stderr, rerr)
		} else if !result.IsNull() {
			fmt.Println(result.String())
		}
		fmt.Fprint(os.Stderr, "> ")
	}
	fmt.Fprintln(os.Stderr)
	return scanner.Err()
}
