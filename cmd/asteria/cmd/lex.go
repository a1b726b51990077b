package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/go-asteria/internal/lexer"
)

var (
	lexEvalExpr  string
	lexShowPos   bool
	lexOnlyFinal bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize an Asteria file or expression",
	Long: `Tokenize (lex) an Asteria program and print the resulting tokens.

Examples:
  # Tokenize a script file
  asteria lex script.ast

  # Tokenize an inline expression
  asteria lex -e "var x = 42;"

  # Show token source positions
  asteria lex --show-pos script.ast`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexScript,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&lexEvalExpr, "eval", "e", "", "tokenize inline code instead of reading from file")
	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show token positions (line:column)")
}

func lexScript(cmd *cobra.Command, args []string) error {
	input, filename, err := resolveInput(lexEvalExpr, args)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Printf("Tokenizing: %s\n", filename)
		fmt.Printf("Input length: %d bytes\n", len(input))
		fmt.Println("---")
	}

	tokens, cerr := lexer.Lex(filename, input, opts)
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr.WithSource(input).Format(true))
		return fmt.Errorf("lexing failed")
	}

	for _, tok := range tokens {
		line := fmt.Sprintf("[%-16s] %s", tok.Kind, tok)
		if lexShowPos {
			line += fmt.Sprintf(" @%d:%d", tok.Loc.Line, tok.Loc.Column)
		}
		fmt.Println(line)
	}

	if verbose {
		fmt.Println("---")
		fmt.Printf("Total tokens: %d\n", len(tokens))
	}

	return nil
}
