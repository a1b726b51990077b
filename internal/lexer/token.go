package lexer

import "github.com/cwbudde/go-asteria/internal/source"

// Kind discriminates the tagged union of lexical productions described by
// the core: keyword, punctuator, identifier, integer-literal, real-literal,
// string-literal. ILLEGAL marks a byte sequence the lexer could not
// classify; callers never see it in a successfully produced token stream.
type Kind int

const (
	ILLEGAL Kind = iota
	Keyword
	Punctuator
	Identifier
	IntegerLiteral
	RealLiteral
	StringLiteral
)

func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Punctuator:
		return "punctuator"
	case Identifier:
		return "identifier"
	case IntegerLiteral:
		return "integer-literal"
	case RealLiteral:
		return "real-literal"
	case StringLiteral:
		return "string-literal"
	default:
		return "illegal"
	}
}

// Token is the tagged union produced by the lexer. It carries its source
// location and original textual length so diagnostics can underline the
// exact lexeme. Identifier and StringLiteral payloads are interned per
// lexer instance (Text is a handle into the reader's string table).
type Token struct {
	Kind   Kind
	Text   string // keyword/punctuator spelling, identifier name, or string value
	Int    int64
	Real   float64
	Loc    source.Location
	Length int // length of the original lexeme, in runes
}

// IsKeyword reports whether the token is the named keyword.
func (t Token) IsKeyword(name string) bool {
	return t.Kind == Keyword && t.Text == name
}

// IsPunct reports whether the token is the named punctuator.
func (t Token) IsPunct(sym string) bool {
	return t.Kind == Punctuator && t.Text == sym
}

func (t Token) String() string {
	switch t.Kind {
	case IntegerLiteral:
		return t.Text
	case RealLiteral:
		return t.Text
	case StringLiteral:
		return "\"" + t.Text + "\""
	default:
		return t.Text
	}
}
