package lexer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cwbudde/go-asteria/internal/config"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/source"
)

// errRealOverflow and errRealUnderflow distinguish strconv.ParseFloat's
// single ErrRange result (it covers both overflow-to-±Inf and
// underflow-to-zero) into the core's two separate statuses.
var (
	errRealOverflow  = errors.New("real literal overflow")
	errRealUnderflow = errors.New("real literal underflow")
)

var conflictMarkers = []string{"<<<<<<<", "|||||||", "=======", ">>>>>>>"}

// Lex tokenizes text (named file for diagnostics) into an ordered slice of
// Tokens under the given Compiler_Options. It is the sole entry point of
// this package's scanning; Queue wraps the result for parser consumption.
func Lex(file, text string, opts config.Options) ([]Token, *cerr.CompilerError) {
	rd, err := source.New(file, strings.NewReader(text))
	if err != nil {
		return nil, wrapReaderError(err, file, text)
	}

	var toks []Token
	var prev Token
	havePrev := false

	for {
		if cerrv := skipInsignificant(rd, text); cerrv != nil {
			return nil, cerrv
		}
		if rd.Exhausted() {
			break
		}

		loc := rd.Location()
		ch, _ := decodeRune(rd)

		var tok Token
		var lexErr *cerr.CompilerError

		switch {
		case ch == '"' || ch == '\'':
			tok, lexErr = lexString(rd, opts, loc)
		case isIdentStart(ch):
			tok, lexErr = lexIdentOrKeyword(rd, opts, loc)
		case isDigit(ch), isNumberSign(ch, havePrev, prev):
			tok, lexErr = lexNumber(rd, opts, loc)
		default:
			tok, lexErr = lexPunctuator(rd, loc)
		}
		if lexErr != nil {
			return nil, lexErr.WithSource(text)
		}
		toks = append(toks, tok)
		prev = tok
		havePrev = true
	}
	return toks, nil
}

func wrapReaderError(err error, file, text string) *cerr.CompilerError {
	return cerr.New(cerr.CodeInvalidUTF8, source.Location{File: file, Line: 1, Column: 1}, "%s", err.Error()).WithSource(text)
}

func decodeRune(rd *source.Reader) (rune, int) {
	r, sz := utf8.DecodeRuneInString(rd.Remainder())
	if r == utf8.RuneError && sz <= 1 {
		return 0, 0
	}
	return r, sz
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentCont(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

// isNumberSign reports whether '+'/'-' at the cursor should be consumed as
// part of a numeric literal's sign: only legal where an infix operator may
// NOT follow the previous token (start of stream, after another operator,
// or after an opening bracket).
func isNumberSign(ch rune, havePrev bool, prev Token) bool {
	if ch != '+' && ch != '-' {
		return false
	}
	if havePrev && mayPrecedeValue(prev) {
		return false
	}
	return true
}

// skipInsignificant consumes whitespace, line/block comments, and detects
// conflict markers, advancing across line boundaries as needed.
func skipInsignificant(rd *source.Reader, text string) *cerr.CompilerError {
	for {
		for rd.AtLineEnd() && !rd.Exhausted() {
			for _, m := range conflictMarkers {
				_ = m
			}
			if err := rd.NextLine(); err != nil {
				break
			}
			if checkConflictMarker(rd) {
				loc := rd.Location()
				return cerr.New(cerr.CodeConflictMarkerDetected, loc, "version-control conflict marker detected").WithSource(text)
			}
		}
		if rd.Exhausted() {
			return nil
		}
		switch {
		case rd.Peek(0) == ' ' || rd.Peek(0) == '\t':
			rd.Consume(1)
		case rd.StartsWith("//"):
			rd.Consume(len(rd.Remainder()))
		case rd.StartsWith("/*"):
			if err := skipBlockComment(rd, text); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func checkConflictMarker(rd *source.Reader) bool {
	for _, m := range conflictMarkers {
		if rd.StartsWith(m) {
			return true
		}
	}
	return false
}

func skipBlockComment(rd *source.Reader, text string) *cerr.CompilerError {
	open := rd.Location()
	rd.Consume(2) // "/*"
	for {
		if rd.AtLineEnd() {
			if rd.Exhausted() {
				return cerr.New(cerr.CodeBlockCommentUnclosed, open, "unterminated block comment").WithSource(text)
			}
			if err := rd.NextLine(); err != nil {
				return cerr.New(cerr.CodeBlockCommentUnclosed, open, "unterminated block comment").WithSource(text)
			}
			continue
		}
		if rd.StartsWith("*/") {
			rd.Consume(2)
			return nil
		}
		rd.Consume(1)
	}
}

func lexIdentOrKeyword(rd *source.Reader, opts config.Options, loc source.Location) (Token, *cerr.CompilerError) {
	var sb strings.Builder
	for {
		ch, sz := decodeRune(rd)
		if sz == 0 || !isIdentCont(ch) {
			break
		}
		sb.WriteRune(ch)
		rd.Consume(sz)
	}
	text := rd.Intern(sb.String())
	if !opts.KeywordsAsIdentifiers && keywords[text] {
		return Token{Kind: Keyword, Text: text, Loc: loc, Length: len([]rune(text))}, nil
	}
	return Token{Kind: Identifier, Text: text, Loc: loc, Length: len([]rune(text))}, nil
}

func lexPunctuator(rd *source.Reader, loc source.Location) (Token, *cerr.CompilerError) {
	for _, p := range punctuators {
		if rd.StartsWith(p) {
			rd.Consume(len(p))
			return Token{Kind: Punctuator, Text: p, Loc: loc, Length: len([]rune(p))}, nil
		}
	}
	ch, sz := decodeRune(rd)
	if sz == 0 {
		sz = 1
	}
	return Token{}, cerr.New(cerr.CodeTokenNotRecognized, loc, "unrecognized character %q", ch)
}

func lexString(rd *source.Reader, opts config.Options, loc source.Location) (Token, *cerr.CompilerError) {
	var out strings.Builder
	for {
		quote := rd.Peek(0)
		rd.Consume(1)
		closed := false
		for {
			if rd.AtLineEnd() {
				return Token{}, cerr.New(cerr.CodeStringLiteralUnclosed, loc, "unterminated string literal")
			}
			ch, sz := decodeRune(rd)
			if sz == 0 {
				sz = 1
			}
			if byte(ch) == quote && ch < 128 {
				rd.Consume(1)
				closed = true
				break
			}
			if ch == '\\' && (quote == '"' || opts.EscapableSingleQuotes) {
				rd.Consume(1)
				val, esz, err := lexEscape(rd)
				if err != nil {
					return Token{}, cerr.New(cerr.CodeEscapeSequenceInvalid, rd.Location(), "%s", err.Error())
				}
				out.WriteString(val)
				rd.Consume(esz)
				continue
			}
			out.WriteRune(ch)
			rd.Consume(sz)
		}
		if !closed {
			return Token{}, cerr.New(cerr.CodeStringLiteralUnclosed, loc, "unterminated string literal")
		}
		// Adjacent string literals concatenate at lex time.
		if skipInsignificant(rd, "") != nil {
			break
		}
		if rd.Peek(0) != '"' && rd.Peek(0) != '\'' {
			break
		}
	}
	text := rd.Intern(out.String())
	return Token{Kind: StringLiteral, Text: text, Loc: loc, Length: len([]rune(out.String()))}, nil
}

func lexEscape(rd *source.Reader) (string, int, error) {
	if rd.AtLineEnd() {
		return "", 0, fmt.Errorf("dangling escape at end of line")
	}
	ch := rd.Peek(0)
	switch ch {
	case 'n':
		return "\n", 1, nil
	case 't':
		return "\t", 1, nil
	case 'r':
		return "\r", 1, nil
	case 'a':
		return "\a", 1, nil
	case 'b':
		return "\b", 1, nil
	case 'f':
		return "\f", 1, nil
	case 'v':
		return "\v", 1, nil
	case '0':
		return "\x00", 1, nil
	case '\\':
		return "\\", 1, nil
	case '"':
		return "\"", 1, nil
	case '\'':
		return "'", 1, nil
	case 'x':
		return lexHexEscape(rd, 2)
	case 'u':
		return lexHexEscape(rd, 4)
	case 'U':
		return lexHexEscape(rd, 6)
	default:
		return "", 0, fmt.Errorf("unknown escape sequence \\%c", ch)
	}
}

func lexHexEscape(rd *source.Reader, digits int) (string, int, error) {
	hex := rd.Remainder()
	if len(hex) < 1+digits {
		return "", 0, fmt.Errorf("truncated \\x/\\u/\\U escape")
	}
	n, err := strconv.ParseUint(hex[1:1+digits], 16, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid hex digits in escape")
	}
	return string(rune(n)), 1 + digits, nil
}

func lexNumber(rd *source.Reader, opts config.Options, loc source.Location) (Token, *cerr.CompilerError) {
	var sb strings.Builder
	neg := false
	if rd.Peek(0) == '+' || rd.Peek(0) == '-' {
		neg = rd.Peek(0) == '-'
		rd.Consume(1)
	}

	if wordLen(rd, "nan", "NaN") > 0 {
		consumeWord(rd, wordLen(rd, "nan", "NaN"))
		val := math.NaN()
		if neg {
			val = -val
		}
		return Token{Kind: RealLiteral, Text: sb.String(), Real: val, Loc: loc}, nil
	}
	if wordLen(rd, "infinity", "Infinity") > 0 {
		consumeWord(rd, wordLen(rd, "infinity", "Infinity"))
		val := math.Inf(1)
		if neg {
			val = math.Inf(-1)
		}
		return Token{Kind: RealLiteral, Text: "infinity", Real: val, Loc: loc}, nil
	}

	radix := 10
	if rd.Peek(0) == '0' && (rd.Peek(1) == 'x' || rd.Peek(1) == 'X') {
		radix = 16
		rd.Consume(2)
	} else if rd.Peek(0) == '0' && (rd.Peek(1) == 'b' || rd.Peek(1) == 'B') {
		radix = 2
		rd.Consume(2)
	}

	intPart := scanDigits(rd, radix)
	hasPoint := false
	fracPart := ""
	expPart := ""
	expSign := ""

	if rd.Peek(0) == '.' && isRadixDigit(rd.Peek(1), radix) {
		hasPoint = true
		rd.Consume(1)
		fracPart = scanDigits(rd, radix)
	}

	expMarkers := "eE"
	if radix != 10 {
		expMarkers = "pP"
	}
	if strings.ContainsRune(expMarkers, rune(rd.Peek(0))) {
		rd.Consume(1)
		if rd.Peek(0) == '+' || rd.Peek(0) == '-' {
			expSign = string(rd.Peek(0))
			rd.Consume(1)
		}
		expPart = scanDigits(rd, 10)
	}

	// A radix point (or the integers_as_reals override) always yields a
	// real literal; an exponent alone does not, matching the core's
	// "cast to integer only when !integers_as_reals && !has_point" rule
	// (token_stream.cpp) — "5e2" is still an integer-literal attempt.
	isReal := hasPoint || opts.IntegersAsReals

	if isReal {
		text := buildRealLiteralText(radix, intPart, fracPart, expPart, expSign)
		val, err := parseReal(radix, intPart, fracPart, expPart, expSign)
		switch {
		case errors.Is(err, errRealOverflow):
			return Token{}, cerr.New(cerr.CodeNumericLiteralOverflow, loc, "real literal out of range: %s", text)
		case errors.Is(err, errRealUnderflow):
			return Token{}, cerr.New(cerr.CodeNumericLiteralUnderflow, loc, "real literal underflows to zero: %s", text)
		case err != nil:
			return Token{}, cerr.New(cerr.CodeNumericLiteralSuffixInvalid, loc, "%s", err.Error())
		}
		if neg {
			val = -val
		}
		return Token{Kind: RealLiteral, Text: text, Real: val, Loc: loc}, nil
	}

	if intPart == "" {
		return Token{}, cerr.New(cerr.CodeNumericLiteralSuffixInvalid, loc, "malformed numeric literal")
	}

	if expPart != "" {
		// No radix point but an exponent: still an integer-literal
		// candidate. The scaled value may not land on an exact int64
		// (integer_literal_inexact) or may fall outside its range
		// (integer_literal_overflow).
		text := buildRealLiteralText(radix, intPart, "", expPart, expSign)
		val, err := parseReal(radix, intPart, "", expPart, expSign)
		switch {
		case errors.Is(err, errRealOverflow), math.Abs(val) >= 9223372036854775808.0:
			return Token{}, cerr.New(cerr.CodeNumericLiteralOverflow, loc, "integer literal out of range: %s", text)
		case errors.Is(err, errRealUnderflow):
			// Integers never underflow (unlike reals, there is no
			// "exact zero" reading for a nonzero literal): a magnitude
			// too tiny for float64 to represent can only mean digits
			// were shifted past the integer boundary, i.e. inexact.
			return Token{}, cerr.New(cerr.CodeNumericLiteralInexact, loc, "integer literal is not exact: %s", text)
		case err != nil:
			return Token{}, cerr.New(cerr.CodeNumericLiteralSuffixInvalid, loc, "%s", err.Error())
		}
		if math.Trunc(val) != val {
			return Token{}, cerr.New(cerr.CodeNumericLiteralInexact, loc, "integer literal is not exact: %s", text)
		}
		v := int64(val)
		if neg {
			v = -v
		}
		return Token{Kind: IntegerLiteral, Text: text, Int: v, Loc: loc}, nil
	}

	iv, err := strconv.ParseUint(intPart, radix, 64)
	if err != nil {
		return Token{}, cerr.New(cerr.CodeNumericLiteralOverflow, loc, "integer literal out of range: %s", intPart)
	}
	v := int64(iv)
	if neg {
		v = -v
	}
	return Token{Kind: IntegerLiteral, Text: intPart, Int: v, Loc: loc}, nil
}

func scanDigits(rd *source.Reader, radix int) string {
	var sb strings.Builder
	for {
		ch := rd.Peek(0)
		if ch == '`' {
			rd.Consume(1)
			continue
		}
		if !isRadixDigit(ch, radix) {
			break
		}
		sb.WriteByte(ch)
		rd.Consume(1)
	}
	return sb.String()
}

func isRadixDigit(ch byte, radix int) bool {
	switch radix {
	case 2:
		return ch == '0' || ch == '1'
	case 16:
		return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
	default:
		return ch >= '0' && ch <= '9'
	}
}

func buildRealLiteralText(radix int, intPart, fracPart, expPart, expSign string) string {
	var sb strings.Builder
	sb.WriteString(intPart)
	if fracPart != "" {
		sb.WriteString(".")
		sb.WriteString(fracPart)
	}
	if expPart != "" {
		sb.WriteString("e")
		sb.WriteString(expSign)
		sb.WriteString(expPart)
	}
	return sb.String()
}

func parseReal(radix int, intPart, fracPart, expPart, expSign string) (float64, error) {
	var text string
	switch radix {
	case 16:
		text = "0x" + intPart
		if fracPart != "" {
			text += "." + fracPart
		}
		if expPart != "" {
			text += "p" + expSign + expPart
		} else {
			text += "p0"
		}
	case 2:
		// Binary-radix reals are decoded manually: mantissa in base 2,
		// exponent is a power of two (p-notation), matching the core's
		// binary real-literal grammar.
		mantissa := intPart
		if fracPart != "" {
			mantissa += fracPart
		}
		m, err := strconv.ParseUint(mantissa, 2, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed binary real literal")
		}
		val := float64(m)
		for range fracPart {
			val /= 2
		}
		if expPart != "" {
			e, _ := strconv.Atoi(expPart)
			if expSign == "-" {
				e = -e
			}
			val *= pow2(e)
		}
		if math.IsInf(val, 0) {
			return val, errRealOverflow
		}
		if val == 0 && (m != 0) {
			return val, errRealUnderflow
		}
		return val, nil
	default:
		text = intPart
		if fracPart != "" {
			text += "." + fracPart
		}
		if expPart != "" {
			text += "e" + expSign + expPart
		}
	}
	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			if math.IsInf(val, 0) {
				return val, errRealOverflow
			}
			return val, errRealUnderflow
		}
		return 0, fmt.Errorf("malformed real literal")
	}
	return val, nil
}

func pow2(e int) float64 {
	result := 1.0
	if e < 0 {
		for i := 0; i < -e; i++ {
			result /= 2
		}
		return result
	}
	for i := 0; i < e; i++ {
		result *= 2
	}
	return result
}

func wordLen(rd *source.Reader, words ...string) int {
	for _, w := range words {
		if rd.StartsWith(w) && !isIdentCont(runeAt(rd, len(w))) {
			return len(w)
		}
	}
	return 0
}

func consumeWord(rd *source.Reader, n int) {
	if n > 0 {
		rd.Consume(n)
	}
}

func runeAt(rd *source.Reader, offset int) rune {
	rem := rd.Remainder()
	if offset >= len(rem) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(rem[offset:])
	return r
}
