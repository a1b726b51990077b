package parser

import (
	"github.com/cwbudde/go-asteria/internal/ast"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/lexer"
	"github.com/cwbudde/go-asteria/internal/source"
)

// parseExpression implements the precedence climber: acceptInfixElement
// parses a prefix chain, primary, and postfix chain into a flat operand;
// this loop then glues successive (operator, operand) pairs, deferring a
// lower-or-equal-precedence operator to the caller's frame. Recursion
// here plays the role the core gives an explicit Infix_Element stack:
// each recursive call is one pending element whose collapse is deferred
// until an operator of lower-or-equal precedence is seen.
func (p *Parser) parseExpression(minPrec int) (ast.Expression, *cerr.CompilerError) {
	sentry, err := p.borrowSentry()
	if err != nil {
		return nil, err
	}
	defer sentry.Release()

	lhs, err := p.acceptInfixElement()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != lexer.Punctuator {
			break
		}
		info, isOp := binaryOps[tok.Text]
		if !isOp || info.prec < minPrec {
			break
		}
		p.advance()

		switch info.kind {
		case opTernary:
			thenExpr, err := p.parseExpression(precLowest + 1)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(":", cerr.CodeColonExpected, nil); err != nil {
				return nil, err
			}
			elseExpr, err := p.parseExpression(info.prec)
			if err != nil {
				return nil, err
			}
			lhs = append(lhs, &ast.Branch{Loc: tok.Loc, Kind: ast.BranchTernary, Assign: info.assignForm, Then: thenExpr, Else: elseExpr})
		case opBranchAnd, opBranchOr, opBranchCoalesce:
			rhs, err := p.parseExpression(info.prec + 1)
			if err != nil {
				return nil, err
			}
			br := &ast.Branch{Loc: tok.Loc, Assign: info.assignForm}
			switch info.kind {
			case opBranchAnd:
				br.Kind, br.Then = ast.BranchLogicalAnd, rhs
			case opBranchOr:
				br.Kind, br.Else = ast.BranchLogicalOr, rhs
			case opBranchCoalesce:
				br.Kind, br.Then = ast.BranchCoalesce, rhs
			}
			lhs = append(lhs, br)
		default:
			nextMin := info.prec + 1
			if info.rightAssoc {
				nextMin = info.prec
			}
			rhs, err := p.parseExpression(nextMin)
			if err != nil {
				return nil, err
			}
			combined := make(ast.Expression, 0, len(lhs)+len(rhs)+1)
			combined = append(combined, lhs...)
			combined = append(combined, rhs...)
			combined = append(combined, &ast.OperatorRPN{Loc: tok.Loc, Op: info.op, Assign: info.assignForm})
			lhs = combined
		}
	}
	return lhs, nil
}

// prefixUnary maps a prefix punctuator/keyword spelling to its operator.
var prefixUnary = map[string]ast.Operator{
	"-": ast.OpNeg, "+": ast.OpPos, "!": ast.OpNot, "~": ast.OpBitNot,
}

// acceptInfixElement parses prefix operators, a primary expression, and
// postfix operators into a flat post-order unit list (spec.md §4.4's
// accept_infix_element).
func (p *Parser) acceptInfixElement() (ast.Expression, *cerr.CompilerError) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.fail(cerr.CodeExpressionExpected, p.loc(), "expression expected")
	}

	// Prefix increment/decrement.
	if tok.IsPunct("++") || tok.IsPunct("--") {
		p.advance()
		operand, err := p.acceptInfixElement()
		if err != nil {
			return nil, err
		}
		op := ast.OpIncrPre
		if tok.Text == "--" {
			op = ast.OpDecrPre
		}
		return append(operand, &ast.OperatorRPN{Loc: tok.Loc, Op: op}), nil
	}

	if opTag, isUnary := prefixUnary[tok.Text]; isUnary && tok.Kind == lexer.Punctuator {
		p.advance()
		operand, err := p.acceptInfixElement()
		if err != nil {
			return nil, err
		}
		return append(operand, &ast.OperatorRPN{Loc: tok.Loc, Op: opTag}), nil
	}

	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(primary)
}

// parsePostfix consumes call/index/member/increment chains following a
// primary expression.
func (p *Parser) parsePostfix(expr ast.Expression) (ast.Expression, *cerr.CompilerError) {
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != lexer.Punctuator {
			return expr, nil
		}
		switch tok.Text {
		case "(":
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr = append(expr, &ast.Call{Loc: tok.Loc, Kind: ast.CallFunction, Args: args})
		case "[":
			openLoc := p.loc()
			p.advance()
			idx, err := p.parseExpression(precLowest + 1)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]", cerr.CodeClosingBracketExpected, &openLoc); err != nil {
				return nil, err
			}
			expr = append(append(expr, idx...), &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpIndex})
		case "[^]":
			p.advance()
			expr = append(expr, &ast.Literal{Loc: tok.Loc, Value: int64(0)}, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpIndex})
		case "[$]":
			p.advance()
			expr = append(expr, &ast.Literal{Loc: tok.Loc, Value: int64(-1)}, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpIndex})
		case "[?]":
			p.advance()
			expr = append(expr, &ast.Literal{Loc: tok.Loc, Value: nil}, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpIndex})
		case ".":
			p.advance()
			name, err := p.expectIdentifier()
			if err != nil {
				return nil, err
			}
			expr = append(expr, &ast.Literal{Loc: tok.Loc, Value: name}, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpIndex})
		case "++":
			p.advance()
			expr = append(expr, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpIncrPost})
		case "--":
			p.advance()
			expr = append(expr, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpDecrPost})
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Expression, *cerr.CompilerError) {
	openLoc := p.loc()
	p.advance() // "("
	var args []ast.Expression
	if p.acceptPunct(")") {
		return args, nil
	}
	for {
		byRef := p.acceptKeyword("ref")
		arg, err := p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
		if byRef {
			arg = append(arg, &ast.CheckArgument{Loc: arg[0].Location(), ByRef: true})
		}
		args = append(args, arg)
		if p.acceptPunct(",") {
			continue
		}
		break
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expression, *cerr.CompilerError) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.fail(cerr.CodeExpressionExpected, p.loc(), "expression expected")
	}

	switch tok.Kind {
	case lexer.IntegerLiteral:
		p.advance()
		return ast.Expression{&ast.Literal{Loc: tok.Loc, Value: tok.Int}}, nil
	case lexer.RealLiteral:
		p.advance()
		return ast.Expression{&ast.Literal{Loc: tok.Loc, Value: tok.Real}}, nil
	case lexer.StringLiteral:
		p.advance()
		return ast.Expression{&ast.Literal{Loc: tok.Loc, Value: tok.Text}}, nil
	case lexer.Identifier:
		p.advance()
		return ast.Expression{&ast.LocalRef{Loc: tok.Loc, Name: tok.Text}}, nil
	}

	if tok.Kind == lexer.Keyword {
		switch tok.Text {
		case "true":
			p.advance()
			return ast.Expression{&ast.Literal{Loc: tok.Loc, Value: true}}, nil
		case "false":
			p.advance()
			return ast.Expression{&ast.Literal{Loc: tok.Loc, Value: false}}, nil
		case "null":
			p.advance()
			return ast.Expression{&ast.Literal{Loc: tok.Loc, Value: nil}}, nil
		case "this":
			p.advance()
			return ast.Expression{&ast.LocalRef{Loc: tok.Loc, Name: "__this"}}, nil
		case "func":
			return p.parseClosure()
		case "catch":
			return p.parseCatch()
		case "import":
			return p.parseParenArgsCall(ast.CallImport)
		case "countof":
			p.advance()
			inner, err := p.acceptInfixElement()
			if err != nil {
				return nil, err
			}
			return append(inner, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpCountOf}), nil
		case "__fma":
			return p.parseFixedArityIntrinsic(ast.OpFma, 3)
		case "__addm":
			return p.parseFixedArityIntrinsic(ast.OpAddMod, 2)
		case "__subm":
			return p.parseFixedArityIntrinsic(ast.OpSubMod, 2)
		case "__mulm":
			return p.parseFixedArityIntrinsic(ast.OpMulMod, 2)
		case "__adds":
			return p.parseFixedArityIntrinsic(ast.OpAddSat, 2)
		case "__subs":
			return p.parseFixedArityIntrinsic(ast.OpSubSat, 2)
		case "__muls":
			return p.parseFixedArityIntrinsic(ast.OpMulSat, 2)
		case "__vcall":
			return p.parseParenArgsCall(ast.CallVariadic)
		}
	}

	if tok.IsPunct("#") {
		p.advance()
		inner, err := p.acceptInfixElement()
		if err != nil {
			return nil, err
		}
		return append(inner, &ast.OperatorRPN{Loc: tok.Loc, Op: ast.OpCountOf}), nil
	}

	if tok.IsPunct("(") {
		openLoc := tok.Loc
		p.advance()
		inner, err := p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if tok.IsPunct("[") {
		return p.parseArrayLiteral()
	}
	if tok.IsPunct("{") {
		return p.parseObjectLiteral()
	}
	if tok.IsPunct("::") {
		p.advance()
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		return ast.Expression{&ast.GlobalRef{Loc: tok.Loc, Name: name}}, nil
	}

	return nil, p.fail(cerr.CodeExpressionExpected, tok.Loc, "expression expected, found %q", tok.Text)
}

// parseFixedArityIntrinsic parses one of the parenthesized `__xxx(a, b)`
// forms, requiring exactly n arguments, into the n operand expressions
// followed by a single OperatorRPN for op; no Call unit is produced.
func (p *Parser) parseFixedArityIntrinsic(op ast.Operator, n int) (ast.Expression, *cerr.CompilerError) {
	loc := p.loc()
	openLoc := p.peekParenLoc()
	p.advance() // keyword
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}
	var out ast.Expression
	for i := 0; i < n; i++ {
		arg, err := p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, arg...)
		if i < n-1 {
			if err := p.expectPunct(",", cerr.CodeCommaExpected, nil); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	return append(out, &ast.OperatorRPN{Loc: loc, Op: op}), nil
}

func (p *Parser) peekParenLoc() source.Location {
	if t, ok := p.peekAt(1); ok {
		return t.Loc
	}
	return p.loc()
}

func (p *Parser) parseParenArgsCall(kind ast.CallKind) (ast.Expression, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // keyword
	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return ast.Expression{&ast.Call{Loc: loc, Kind: kind, Args: args}}, nil
}

func (p *Parser) parseCatch() (ast.Expression, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "catch"
	openLoc := p.loc()
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, err
	}
	inner, err := p.parseExpression(precLowest + 1)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, err
	}
	return ast.Expression{&ast.Catch{Loc: loc, Inner: inner}}, nil
}

func (p *Parser) parseArrayLiteral() (ast.Expression, *cerr.CompilerError) {
	loc := p.loc()
	openLoc := loc
	p.advance() // "["
	var out ast.Expression
	count := 0
	for !p.isPunct("]") {
		elem, err := p.parseExpression(precLowest + 1)
		if err != nil {
			return nil, err
		}
		out = append(out, elem...)
		count++
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct("]", cerr.CodeClosingBracketExpected, &openLoc); err != nil {
		return nil, err
	}
	return append(out, &ast.UnnamedArray{Loc: loc, Count: count}), nil
}

func (p *Parser) parseObjectLiteral() (ast.Expression, *cerr.CompilerError) {
	loc := p.loc()
	openLoc := loc
	p.advance() // "{"
	var out ast.Expression
	var keys []string
	for !p.isPunct("}") {
		var key string
		var err *cerr.CompilerError
		if kt, ok := p.peek(); ok && kt.Kind == lexer.StringLiteral {
			p.advance()
			key = kt.Text
		} else {
			key, err = p.expectIdentifier()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expectPunct(":", cerr.CodeColonExpected, nil); err != nil {
			return nil, err
		}
		val, verr := p.parseExpression(precLowest + 1)
		if verr != nil {
			return nil, verr
		}
		out = append(out, val...)
		keys = append(keys, key)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct("}", cerr.CodeClosingBraceExpected, &openLoc); err != nil {
		return nil, err
	}
	return append(out, &ast.UnnamedObject{Loc: loc, Keys: keys}), nil
}

func (p *Parser) parseClosure() (ast.Expression, *cerr.CompilerError) {
	loc := p.loc()
	p.advance() // "func"
	name := ""
	if t, ok := p.peek(); ok && t.Kind == lexer.Identifier {
		name = t.Text
		p.advance()
	}
	params, variadic, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBraceBlock()
	if err != nil {
		return nil, err
	}
	return ast.Expression{&ast.ClosureFunc{Loc: loc, Name: name, Params: params, Variadic: variadic, Body: body}}, nil
}

func (p *Parser) parseParamList() ([]string, bool, *cerr.CompilerError) {
	openLoc := p.loc()
	if err := p.expectPunct("(", cerr.CodeOpeningParenthesisExpected, nil); err != nil {
		return nil, false, err
	}
	var params []string
	variadic := false
	seen := make(map[string]bool)
	for !p.isPunct(")") {
		if p.acceptPunct("...") {
			variadic = true
			break
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, false, err
		}
		if seen[name] {
			return nil, false, p.fail(cerr.CodeDuplicateNameInParameterList, p.loc(), "duplicate parameter name %q", name)
		}
		seen[name] = true
		params = append(params, name)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct(")", cerr.CodeClosingParenthesisExpected, &openLoc); err != nil {
		return nil, false, err
	}
	return params, variadic, nil
}
