// Package errors implements the two error kinds of the core: Compiler_Error
// (lexer, parser, IR lowering) and Runtime_Error (stack machine), along
// with source-context formatting modeled on the teacher's caret-style
// diagnostics.
package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-asteria/internal/source"
)

// Code is a closed enumeration of Compiler_Error mnemonics. Each name
// describes exactly what went wrong so a host can match on it instead of
// parsing the formatted message.
type Code int

const (
	CodeUnknown Code = iota
	CodeNullCharacterDisallowed
	CodeInvalidUTF8
	CodeBlockCommentUnclosed
	CodeStringLiteralUnclosed
	CodeEscapeSequenceInvalid
	CodeConflictMarkerDetected
	CodeNumericLiteralOverflow
	CodeNumericLiteralInexact
	CodeNumericLiteralUnderflow
	CodeNumericLiteralSuffixInvalid
	CodeTokenNotRecognized
	CodeTooManyNestedLevels
	CodeIdentifierExpected
	CodeSemicolonExpected
	CodeClosingParenthesisExpected
	CodeClosingBracketExpected
	CodeClosingBraceExpected
	CodeOpeningParenthesisExpected
	CodeColonExpected
	CodeCommaExpected
	CodeEqualsSignExpected
	CodeStatementExpected
	CodeExpressionExpected
	CodeDuplicateNameInParameterList
	CodeDuplicateNameInStructuredBinding
	CodeEmptyStructuredBinding
	CodeBreakContinueTargetMismatch
	CodeUndeclaredIdentifier
	CodeNameNotDeclarable
	CodeStaticDepthOverflow
	CodeMultipleDefaultInSwitch
	CodeTooManyElements
)

var codeNames = map[Code]string{
	CodeUnknown:                          "unknown",
	CodeNullCharacterDisallowed:          "null_character_disallowed",
	CodeInvalidUTF8:                      "invalid_utf8",
	CodeBlockCommentUnclosed:             "block_comment_unclosed",
	CodeStringLiteralUnclosed:            "string_literal_unclosed",
	CodeEscapeSequenceInvalid:            "escape_sequence_invalid",
	CodeConflictMarkerDetected:           "conflict_marker_detected",
	CodeNumericLiteralOverflow:           "numeric_literal_overflow",
	CodeNumericLiteralInexact:            "numeric_literal_inexact",
	CodeNumericLiteralUnderflow:          "numeric_literal_underflow",
	CodeNumericLiteralSuffixInvalid:      "numeric_literal_suffix_invalid",
	CodeTokenNotRecognized:               "token_not_recognized",
	CodeTooManyNestedLevels:              "too_many_nested_levels",
	CodeIdentifierExpected:               "identifier_expected",
	CodeSemicolonExpected:                "semicolon_expected",
	CodeClosingParenthesisExpected:       "closing_parenthesis_expected",
	CodeClosingBracketExpected:           "closing_bracket_expected",
	CodeClosingBraceExpected:             "closing_brace_expected",
	CodeOpeningParenthesisExpected:       "opening_parenthesis_expected",
	CodeColonExpected:                    "colon_expected",
	CodeCommaExpected:                    "comma_expected",
	CodeEqualsSignExpected:               "equals_sign_expected",
	CodeStatementExpected:                "statement_expected",
	CodeExpressionExpected:               "expression_expected",
	CodeDuplicateNameInParameterList:     "duplicate_name_in_parameter_list",
	CodeDuplicateNameInStructuredBinding: "duplicate_name_in_structured_binding",
	CodeEmptyStructuredBinding:           "empty_structured_binding",
	CodeBreakContinueTargetMismatch:      "break_continue_target_mismatch",
	CodeUndeclaredIdentifier:             "undeclared_identifier",
	CodeNameNotDeclarable:                "name_not_declarable",
	CodeStaticDepthOverflow:              "static_depth_overflow",
	CodeMultipleDefaultInSwitch:          "multiple_default_in_switch",
	CodeTooManyElements:                  "too_many_elements",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

// CompilerError is raised by the lexer, parser, or IR lowering. It aborts
// the whole compile and is returned to the caller of the front-end entry
// point.
type CompilerError struct {
	Code    Code
	Loc     source.Location
	Message string
	// OpenLoc, when non-nil, is the location of an unmatched opening
	// delimiter this error's message refers back to.
	OpenLoc *source.Location
	Source  string // full source text, for context rendering
}

func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format renders the error with a source line and caret, matching the
// teacher's CompilerError.Format. If color is true, ANSI codes highlight
// the caret and message.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder
	if e.Loc.File != "" {
		fmt.Fprintf(&sb, "Error in %s:%d:%d [%s]\n", e.Loc.File, e.Loc.Line, e.Loc.Column, e.Code)
	} else {
		fmt.Fprintf(&sb, "Error at %d:%d [%s]\n", e.Loc.Line, e.Loc.Column, e.Code)
	}
	if line := sourceLine(e.Source, e.Loc.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Loc.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+max(0, e.Loc.Column-1)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}
	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if e.OpenLoc != nil {
		fmt.Fprintf(&sb, " (opened at %d:%d)", e.OpenLoc.Line, e.OpenLoc.Column)
	}
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func sourceLine(src string, line int) string {
	if src == "" || line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// New constructs a CompilerError without source context (filled in later
// by callers that have the full text via WithSource).
func New(code Code, loc source.Location, format string, args ...any) *CompilerError {
	return &CompilerError{Code: code, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// WithOpen attaches the location of an unmatched opening delimiter.
func (e *CompilerError) WithOpen(loc source.Location) *CompilerError {
	e.OpenLoc = &loc
	return e
}

// WithSource attaches the full source text so Format can render a caret.
func (e *CompilerError) WithSource(src string) *CompilerError {
	e.Source = src
	return e
}
