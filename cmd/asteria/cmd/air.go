package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-asteria/internal/rod"
	"github.com/cwbudde/go-asteria/pkg/asteria"
)

var (
	airEvalExpr string
	airFormat   string
)

var airCmd = &cobra.Command{
	Use:   "air [file]",
	Short: "Lower an Asteria file or expression and dump its AIR/rod tree",
	Long: `Lex, parse, and lower an Asteria program, then print the resulting
AIR/rod tree.

Examples:
  # Disassemble a script file
  asteria air script.ast

  # Disassemble an inline expression as JSON
  asteria air -e "return 1 + 2;" --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: airScript,
}

func init() {
	rootCmd.AddCommand(airCmd)

	airCmd.Flags().StringVarP(&airEvalExpr, "eval", "e", "", "lower inline code instead of reading from file")
	airCmd.Flags().StringVar(&airFormat, "format", "text", "output format: text or json")
}

func airScript(cmd *cobra.Command, args []string) error {
	input, filename, err := resolveInput(airEvalExpr, args)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	s := asteria.New(opts, nil)
	if loadErr := s.ReloadString(filename, input); loadErr != nil {
		fmt.Fprintln(os.Stderr, loadErr)
		return fmt.Errorf("lowering failed")
	}

	switch airFormat {
	case "json":
		doc, err := rod.DumpJSON(filename, s.Program())
		if err != nil {
			return err
		}
		fmt.Println(doc)
	default:
		fmt.Print(rod.DisassembleToString(filename, s.Program()))
	}
	return nil
}
