package lexer

import "sort"

// keywords is the closed keyword table. Identifiers matching an entry here
// become keyword tokens unless Options.KeywordsAsIdentifiers is set. The
// "__xxx" entries are the parenthesized prefix operator forms described by
// spec.md §4.4 (__fma, __vcall, modular/saturating arithmetic) plus
// countof; they parse like keywords because their argument lists are
// committed the moment the keyword is seen.
var keywords = map[string]bool{
	"var": true, "const": true, "func": true, "ref": true,
	"null": true, "true": true, "false": true, "nan": true, "infinity": true,
	"this": true,
	"if":   true, "else": true, "switch": true, "case": true, "default": true, "each": true,
	"for": true, "while": true, "do": true, "break": true, "continue": true,
	"try": true, "catch": true, "throw": true, "assert": true, "defer": true,
	"return": true, "import": true, "countof": true,
	"__fma": true, "__vcall": true,
	"__addm": true, "__subm": true, "__mulm": true,
	"__adds": true, "__subs": true, "__muls": true,
}

// punctuators is the longest-match-first table of punctuator spellings.
var punctuators = sortedPunctuators([]string{
	"<<<=", ">>>=",
	"<<<", ">>>", "<=>", "</>", "??=", "...", "[^]", "[$]", "[?]",
	"<<=", ">>=",
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "??", "::", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "?=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!",
	"<", ">", "=", "(", ")", "[", "]", "{", "}", ",", ";", ":", "?", ".", "#",
})

func sortedPunctuators(syms []string) []string {
	sort.Slice(syms, func(i, j int) bool { return len(syms[i]) > len(syms[j]) })
	return syms
}

// mayPrecedeValue reports whether a token of this kind is immediately
// followed by content that an infix operator may legally trail — i.e.
// whether the token just emitted ends a value. Used to disambiguate
// unary +/- prefixes from the signs of numeric literals.
func mayPrecedeValue(t Token) bool {
	switch t.Kind {
	case IntegerLiteral, RealLiteral, StringLiteral, Identifier:
		return true
	case Keyword:
		switch t.Text {
		case "null", "true", "false", "nan", "infinity", "this":
			return true
		default:
			return false
		}
	case Punctuator:
		switch t.Text {
		case ")", "]", "}":
			return true
		default:
			return false
		}
	default:
		return false
	}
}
