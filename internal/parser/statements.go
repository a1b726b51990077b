package parser

import (
	"github.com/cwbudde/go-asteria/internal/ast"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/lexer"
)

// parseStatements parses a sequence of statements until the queue is
// empty or a block-closing "}" is seen (the caller decides which).
func (p *Parser) parseStatements() ([]ast.Statement, *cerr.CompilerError) {
	var out []ast.Statement
	for !p.atEOF() && !p.isPunct("}") {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

// parseBraceBlock parses a `{ ... }` delimited statement list.
func (p *Parser) parseBraceBlock() ([]ast.Statement, *cerr.CompilerError) {
	openLoc := p.loc()
	if err := p.expectPunct("{", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}
	stmts, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}", cerr.CodeClosingBraceExpected, &openLoc); err != nil {
		return nil, err
	}
	return stmts, nil
}

// parseNonDeclarativeBody parses the body of if/while/do-while/for/
// for-each/switch/try — which may not contain top-level declarations —
// wrapping a single statement implicitly as a block.
func (p *Parser) parseNonDeclarativeBody() (*ast.Block, *cerr.CompilerError) {
	loc := p.loc()
	if p.isPunct("{") {
		stmts, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		return &ast.Block{Loc: loc, Stmts: stmts}, nil
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if isDeclarative(stmt) {
		return nil, p.fail(cerr.CodeStatementExpected, loc, "declarations are not allowed as a single-statement body")
	}
	return &ast.Block{Loc: loc, Stmts: []ast.Statement{stmt}}, nil
}

func isDeclarative(s ast.Statement) bool {
	switch s.(type) {
	case *ast.VarDecl, *ast.RefDecl, *ast.FuncDecl:
		return true
	default:
		return false
	}
}

func (p *Parser) parseStatement() (ast.Statement, *cerr.CompilerError) {
	sentry, err := p.borrowSentry()
	if err != nil {
		return nil, err
	}
	defer sentry.Release()

	tok, ok := p.peek()
	if !ok {
		return nil, p.fail(cerr.CodeStatementExpected, p.loc(), "statement expected")
	}

	if tok.IsPunct("{") {
		loc := tok.Loc
		stmts, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		return &ast.Block{Loc: loc, Stmts: stmts}, nil
	}

	if tok.Kind == lexer.Keyword {
		switch tok.Text {
		case "var", "const":
			return p.parseVarDecl()
		case "ref":
			return p.parseRefDecl()
		case "func":
			if t2, ok2 := p.peekAt(1); ok2 && t2.Kind == lexer.Identifier {
				return p.parseFuncDecl()
			}
		case "if":
			return p.parseIf()
		case "switch":
			return p.parseSwitch()
		case "do":
			return p.parseDoWhile()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseForOrForEach()
		case "try":
			return p.parseTry()
		case "break", "continue":
			return p.parseBreakContinue()
		case "throw":
			return p.parseThrow()
		case "return":
			return p.parseReturn()
		case "assert":
			return p.parseAssert()
		case "defer":
			return p.parseDefer()
		}
	}

	return p.parseExprStatement()
}

func (p *Parser) parseExprStatement() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	expr, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Loc: loc, Expr: expr}, nil
}

// parseDeclarator parses one of the three declarator shapes: a single
// name, `[a,b,c]`, or `{a,b,c}`.
func (p *Parser) parseDeclarator() (ast.Declarator, *cerr.CompilerError) {
	loc := p.loc()
	if p.isPunct("[") || p.isPunct("{") {
		closeSym, kind := "]", ast.PatternArray
		if p.isPunct("{") {
			closeSym, kind = "}", ast.PatternObject
		}
		openLoc := loc
		p.advance()
		var names []string
		seen := make(map[string]bool)
		for !p.isPunct(closeSym) {
			name, err := p.expectIdentifier()
			if err != nil {
				return ast.Declarator{}, err
			}
			if seen[name] {
				return ast.Declarator{}, p.fail(cerr.CodeDuplicateNameInStructuredBinding, loc, "duplicate name %q in structured binding", name)
			}
			seen[name] = true
			names = append(names, name)
			if !p.acceptPunct(",") {
				break
			}
		}
		if len(names) == 0 {
			return ast.Declarator{}, p.fail(cerr.CodeEmptyStructuredBinding, loc, "structured binding requires at least one element")
		}
		code := cerr.CodeClosingBracketExpected
		if closeSym == "}" {
			code = cerr.CodeClosingBraceExpected
		}
		if err := p.expectPunct(closeSym, code, &openLoc); err != nil {
			return ast.Declarator{}, err
		}
		return ast.Declarator{Kind: kind, Names: names, Loc: loc}, nil
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return ast.Declarator{}, err
	}
	return ast.Declarator{Kind: ast.PatternSingle, Name: name, Loc: loc}, nil
}

func (p *Parser) parseVarDecl() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	immutable := p.isKeyword("const")
	p.advance() // "var" / "const"
	var decl ast.VarDecl
	decl.Loc, decl.Immutable = loc, immutable
	for {
		d, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		var init ast.Expression
		if p.acceptPunct("=") {
			init, err = p.parseExpression(precLowest + 1)
			if err != nil {
				return nil, err
			}
		} else if immutable {
			return nil, p.fail(cerr.CodeExpressionExpected, p.loc(), "const declaration requires an initializer")
		}
		decl.Decls = append(decl.Decls, d)
		decl.Initializer = append(decl.Initializer, init)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &decl, nil
}

func (p *Parser) parseRefDecl() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "ref"
	var decl ast.RefDecl
	decl.Loc = loc
	for {
		d, err := p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("=", cerr.CodeEqualsSignExpected, nil); err != nil {
			return nil, err
		}
		init, err := p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
		decl.Decls = append(decl.Decls, d)
		decl.Initializer = append(decl.Initializer, init)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &decl, nil
}

func (p *Parser) parseFuncDecl() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "func"
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	params, variadic, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Loc: loc, Name: name, Params: params, Variadic: variadic, Body: body}, nil
}

func (p *Parser) parseIf() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "if"
	openLoc := p.loc()
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	then, err := p.parseNonDeclarativeBody()
	if err != nil {
		return nil, err
	}
	var els *ast.Block
	if p.acceptKeyword("else") {
		els, err = p.parseNonDeclarativeBody()
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Loc: loc, Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseSwitch() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "switch"
	openLoc := p.loc()
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}
	control, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	braceLoc := p.loc()
	if err := p.expectPunct("{", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}

	p.scopes |= scopeSwitch
	defer func() { p.scopes &^= scopeSwitch }()

	sw := &ast.Switch{Loc: loc, Control: control}
	haveDefault := false
	for !p.isPunct("}") {
		var clause ast.SwitchClause
		switch {
		case p.acceptKeyword("case"):
			v, err := p.parseExpression(precLowest + 1)
			if err != nil {
				return nil, err
			}
			clause.Kind, clause.Value = ast.ClauseCase, v
		case p.acceptKeyword("default"):
			if haveDefault {
				return nil, p.fail(cerr.CodeMultipleDefaultInSwitch, p.loc(), "switch may have at most one default clause")
			}
			haveDefault = true
			clause.Kind = ast.ClauseDefault
		case p.acceptKeyword("each"):
			lowerOpen := p.isPunct("(")
			if !lowerOpen && !p.isPunct("[") {
				return nil, p.fail(cerr.CodeOpeningParenthesisExpected, p.loc(), "expected '(' or '[' to open each-interval")
			}
			p.advance()
			lower, err := p.parseExpression(precLowest + 1)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(",", cerr.CodeCommaExpected, nil); err != nil {
				return nil, err
			}
			upper, err := p.parseExpression(precLowest + 1)
			if err != nil {
				return nil, err
			}
			upperClosed := p.isPunct("]")
			if !upperClosed && !p.isPunct(")") {
				return nil, p.fail(cerr.CodeClosingBracketExpected, p.loc(), "expected ')' or ']' to close each-interval")
			}
			p.advance()
			clause.Kind, clause.Lower, clause.Upper = ast.ClauseEach, lower, upper
			clause.LowerClosed, clause.UpperClosed = !lowerOpen, upperClosed
		default:
			return nil, p.fail(cerr.CodeStatementExpected, p.loc(), "expected case/default/each")
		}
		if err := p.expectPunct(":", cerr.CodeColonExpected, nil); err != nil {
			return nil, err
		}
		for !p.isPunct("}") && !p.isKeyword("case") && !p.isKeyword("default") && !p.isKeyword("each") {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			clause.Body = append(clause.Body, stmt)
		}
		sw.Clauses = append(sw.Clauses, clause)
	}
	if err := p.expectPunct("}", cerr.CodeClosingBraceExpected, &braceLoc); err != nil {
		return nil, err
	}
	return sw, nil
}

func (p *Parser) parseDoWhile() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "do"
	p.scopes |= scopeWhile
	body, err := p.parseNonDeclarativeBody()
	p.scopes &^= scopeWhile
	if err != nil {
		return nil, err
	}
	if err := p.expectKeywordErr("while"); err != nil {
		return nil, err
	}
	openLoc := p.loc()
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}
	cond, cerr2 := p.parseExpression(precLowest + 1)
	if cerr2 != nil {
		return nil, cerr2
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &ast.DoWhile{Loc: loc, Body: body, Cond: cond}, nil
}

func (p *Parser) expectKeywordErr(kw string) *cerr.CompilerError {
	if p.acceptKeyword(kw) {
		return nil
	}
	return p.fail(cerr.CodeStatementExpected, p.loc(), "expected keyword %q", kw)
}

func (p *Parser) parseWhile() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "while"
	openLoc := p.loc()
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	p.scopes |= scopeWhile
	body, err := p.parseNonDeclarativeBody()
	p.scopes &^= scopeWhile
	if err != nil {
		return nil, err
	}
	return &ast.While{Loc: loc, Cond: cond, Body: body}, nil
}

// parseForOrForEach disambiguates `for (init; cond; step)` from
// `for (key, value : range)` / `for (value : range)` by scanning ahead
// for a top-level ':' before a ';'.
func (p *Parser) parseForOrForEach() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "for"
	openLoc := p.loc()
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}

	if p.looksLikeForEach() {
		var key, value string
		first, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if p.acceptPunct(",") {
			key = first
			value, err = p.expectIdentifier()
			if err != nil {
				return nil, err
			}
		} else {
			value = first
		}
		if err := p.expectPunct(":", cerr.CodeColonExpected, nil); err != nil {
			return nil, err
		}
		rangeExpr, err := p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
			return nil, err
		}
		p.scopes |= scopeFor
		body, err := p.parseNonDeclarativeBody()
		p.scopes &^= scopeFor
		if err != nil {
			return nil, err
		}
		return &ast.ForEach{Loc: loc, Key: key, Value: value, Range: rangeExpr, Body: body}, nil
	}

	var init ast.Statement
	if !p.isPunct(";") {
		if p.isKeyword("var") {
			s, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			init = s
		} else {
			s, err := p.parseExprStatementNoSemi()
			if err != nil {
				return nil, err
			}
			init = s
			if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
				return nil, err
			}
		}
	} else {
		p.advance()
	}
	var cond ast.Expression
	if !p.isPunct(";") {
		var err *cerr.CompilerError
		cond, err = p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	var step ast.Expression
	if !p.isPunct(")") {
		var err *cerr.CompilerError
		step, err = p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	p.scopes |= scopeFor
	body, err := p.parseNonDeclarativeBody()
	p.scopes &^= scopeFor
	if err != nil {
		return nil, err
	}
	return &ast.For{Loc: loc, Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseExprStatementNoSemi() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	expr, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Loc: loc, Expr: expr}, nil
}

// looksLikeForEach peeks ahead without consuming: `ident [, ident] :`
// before a `;` or `)` marks a for-each header.
func (p *Parser) looksLikeForEach() bool {
	i := 0
	t, ok := p.peekAt(i)
	if !ok || t.Kind != lexer.Identifier {
		return false
	}
	i++
	if t2, ok2 := p.peekAt(i); ok2 && t2.IsPunct(",") {
		i++
		t3, ok3 := p.peekAt(i)
		if !ok3 || t3.Kind != lexer.Identifier {
			return false
		}
		i++
	}
	t4, ok4 := p.peekAt(i)
	return ok4 && t4.IsPunct(":")
}

func (p *Parser) parseTry() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "try"
	tryBody, err := p.parseNonDeclarativeBody()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeywordErr("catch"); err != nil {
		return nil, err
	}
	name := "e"
	if p.acceptPunct("(") {
		name, err = p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, nil); err != nil {
			return nil, err
		}
	}
	catchBody, err := p.parseNonDeclarativeBody()
	if err != nil {
		return nil, err
	}
	return &ast.TryCatch{Loc: loc, Try: tryBody, Name: name, Catch: catchBody}, nil
}

func (p *Parser) parseBreakContinue() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	tok := p.advance()
	isBreak := tok.Text == "break"
	var target ast.LoopKind
	hasTgt := false
	if t, ok := p.peek(); ok && t.Kind == lexer.Keyword {
		switch t.Text {
		case "switch":
			target, hasTgt = ast.LoopSwitch, true
		case "while":
			target, hasTgt = ast.LoopWhile, true
		case "for":
			target, hasTgt = ast.LoopFor, true
		}
		if hasTgt {
			p.advance()
			if !p.scopePermits(target) {
				return nil, p.fail(cerr.CodeBreakContinueTargetMismatch, loc, "%s target %q does not match an enclosing scope", tok.Text, t.Text)
			}
		}
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &ast.BreakContinue{Loc: loc, IsBreak: isBreak, Target: target, HasTgt: hasTgt}, nil
}

func (p *Parser) scopePermits(k ast.LoopKind) bool {
	switch k {
	case ast.LoopSwitch:
		return p.scopes&scopeSwitch != 0
	case ast.LoopWhile:
		return p.scopes&scopeWhile != 0
	case ast.LoopFor:
		return p.scopes&scopeFor != 0
	default:
		return true
	}
}

func (p *Parser) parseThrow() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "throw"
	val, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &ast.Throw{Loc: loc, Value: val}, nil
}

func (p *Parser) parseReturn() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "return"
	byRef := p.acceptKeyword("ref") || p.acceptPunct("->")
	if p.acceptPunct(";") {
		return &ast.Return{Loc: loc, ByRef: byRef}, nil
	}
	val, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &ast.Return{Loc: loc, ByRef: byRef, Value: val}, nil
}

func (p *Parser) parseAssert() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "assert"
	cond, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	var msg ast.Expression
	if p.acceptPunct(",") {
		msg, err = p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &ast.Assert{Loc: loc, Cond: cond, Message: msg}, nil
}

func (p *Parser) parseDefer() (ast.Statement, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "defer"
	expr, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";", cerr.CodeSemicolonExpected, nil); err != nil {
		return nil, err
	}
	return &ast.Defer{Loc: loc, Expr: expr}, nil
}
