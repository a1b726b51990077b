package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-asteria/internal/astdump"
	"github.com/cwbudde/go-asteria/internal/parser"
)

var (
	parseEvalExpr string
	parseFormat   string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an Asteria file or expression and dump its statement tree",
	Long: `Parse an Asteria program and print the resulting statement tree.

Examples:
  # Dump the statement tree for a script file
  asteria parse script.ast

  # Dump an inline expression's tree as JSON
  asteria parse -e "var x = 1;" --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: parseScript,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseEvalExpr, "eval", "e", "", "parse inline code instead of reading from file")
	parseCmd.Flags().StringVar(&parseFormat, "format", "text", "output format: text or json")
}

func parseScript(cmd *cobra.Command, args []string) error {
	input, filename, err := resolveInput(parseEvalExpr, args)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	stmts, cerr := parser.Parse(filename, input, opts)
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr.WithSource(input).Format(true))
		return fmt.Errorf("parsing failed")
	}

	switch parseFormat {
	case "json":
		doc, err := astdump.DumpJSON(stmts)
		if err != nil {
			return err
		}
		fmt.Println(doc)
	default:
		fmt.Print(astdump.ToString(stmts))
	}
	return nil
}
