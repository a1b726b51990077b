// Package parser implements the recursive-descent statement parser and
// the Pratt-style precedence climber that turns Asteria source into a
// Statement tree of post-order Expression_Unit streams.
package parser

import (
	"github.com/cwbudde/go-asteria/internal/ast"
	"github.com/cwbudde/go-asteria/internal/config"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/lexer"
	"github.com/cwbudde/go-asteria/internal/source"
)

// scopeFlag is the bitmask of enclosing-loop kinds threaded through
// recursive descent so break/continue can validate an optional target
// keyword against what actually lexically encloses them.
type scopeFlag int

const (
	scopeSwitch scopeFlag = 1 << iota
	scopeWhile
	scopeFor
)

// Parser holds the token queue, options, and the scope-flag bitmask for
// the statement currently being parsed.
type Parser struct {
	q      *lexer.Queue
	opts   config.Options
	file   string
	source string
	scopes scopeFlag
}

// Parse lexes and parses a complete source unit, appending an implicit
// `return;` so the top-level script body is a function returning void
// (spec.md §4.4).
func Parse(file, text string, opts config.Options) ([]ast.Statement, *cerr.CompilerError) {
	toks, err := lexer.Lex(file, text, opts)
	if err != nil {
		return nil, err
	}
	p := &Parser{q: lexer.NewQueue(file, toks), opts: opts, file: file, source: text}
	stmts, perr := p.parseStatements()
	if perr != nil {
		return nil, perr
	}
	stmts = append(stmts, &ast.Return{Loc: source.End(file)})
	return stmts, nil
}

// ParseOneLine parses a single expression and synthesizes a by-reference
// return statement from it, for REPL-style one-line entry points.
func ParseOneLine(file, text string, opts config.Options) ([]ast.Statement, *cerr.CompilerError) {
	toks, err := lexer.Lex(file, text, opts)
	if err != nil {
		return nil, err
	}
	p := &Parser{q: lexer.NewQueue(file, toks), opts: opts, file: file, source: text}
	expr, perr := p.parseExpression(precLowest)
	if perr != nil {
		return nil, perr
	}
	return []ast.Statement{&ast.Return{Loc: expr[0].Location(), ByRef: true, Value: expr}}, nil
}

func (p *Parser) fail(code cerr.Code, loc source.Location, format string, args ...any) *cerr.CompilerError {
	return cerr.New(code, loc, format, args...).WithSource(p.source)
}

func (p *Parser) peek() (lexer.Token, bool) {
	return p.q.Peek(0)
}

func (p *Parser) peekAt(k int) (lexer.Token, bool) {
	return p.q.Peek(k)
}

func (p *Parser) advance() lexer.Token {
	return p.q.ShiftOne()
}

func (p *Parser) atEOF() bool {
	return p.q.Empty()
}

func (p *Parser) loc() source.Location {
	return p.q.NextLocation()
}

// isPunct reports whether the next token is the given punctuator.
func (p *Parser) isPunct(sym string) bool {
	t, ok := p.peek()
	return ok && t.IsPunct(sym)
}

// isKeyword reports whether the next token is the given keyword.
func (p *Parser) isKeyword(name string) bool {
	t, ok := p.peek()
	return ok && t.IsKeyword(name)
}

// acceptPunct consumes the next token if it is the given punctuator.
func (p *Parser) acceptPunct(sym string) bool {
	if p.isPunct(sym) {
		p.advance()
		return true
	}
	return false
}

// acceptKeyword consumes the next token if it is the given keyword.
func (p *Parser) acceptKeyword(name string) bool {
	if p.isKeyword(name) {
		p.advance()
		return true
	}
	return false
}

// expectPunct consumes the given punctuator or fails with code, quoting
// openLoc (if non-zero) as the unmatched opening delimiter.
func (p *Parser) expectPunct(sym string, code cerr.Code, openLoc *source.Location) *cerr.CompilerError {
	if p.acceptPunct(sym) {
		return nil
	}
	err := p.fail(code, p.loc(), "expected %q", sym)
	if openLoc != nil {
		err = err.WithOpen(*openLoc)
	}
	return err
}

// expectIdentifier consumes and returns an identifier token or fails.
func (p *Parser) expectIdentifier() (string, *cerr.CompilerError) {
	t, ok := p.peek()
	if !ok || t.Kind != lexer.Identifier {
		return "", p.fail(cerr.CodeIdentifierExpected, p.loc(), "identifier expected")
	}
	p.advance()
	if len(t.Text) >= 2 && t.Text[:2] == "__" {
		return "", p.fail(cerr.CodeNameNotDeclarable, t.Loc, "identifiers beginning with __ are not user-declarable: %s", t.Text)
	}
	return t.Text, nil
}

// borrowSentry acquires the shared recursion guard for a parser path that
// may recurse unboundedly (statement/expression nesting).
func (p *Parser) borrowSentry() (lexer.RecursionSentry, *cerr.CompilerError) {
	s, err := p.q.BorrowRecursionSentry()
	if err != nil {
		return s, p.fail(cerr.CodeTooManyNestedLevels, p.loc(), "%s", err.Error())
	}
	return s, nil
}
