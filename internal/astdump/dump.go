// Package astdump renders a parsed statement tree to a readable indented
// listing, for the `parse` CLI command. It plays the same role for the
// parser's output that internal/rod plays for the lowered AIR/rod: a
// tree-shaped structure printed with indentation rather than the
// teacher's flat String() reconstruction (spec.md's Expression is a
// post-order RPN stream, not an expression tree, so it cannot be
// re-rendered as source the way the teacher's *ast.BinaryExpression.String
// can).
package astdump

import (
	"fmt"
	"io"
	"strings"

	"github.com/cwbudde/go-asteria/internal/ast"
)

// Dumper renders a statement list to a human-readable tree.
type Dumper struct {
	w      io.Writer
	indent int
}

// NewDumper creates a dumper writing to w.
func NewDumper(w io.Writer) *Dumper { return &Dumper{w: w} }

// ToString is the one-shot convenience form used by tests and the
// `parse` CLI command's default text output.
func ToString(stmts []ast.Statement) string {
	var sb strings.Builder
	NewDumper(&sb).DumpProgram(stmts)
	return sb.String()
}

// DumpProgram renders every top-level statement.
func (d *Dumper) DumpProgram(stmts []ast.Statement) {
	for _, s := range stmts {
		d.DumpStatement(s)
	}
}

func (d *Dumper) line(text string) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", d.indent), text)
}

func (d *Dumper) block(name string, stmts []ast.Statement) {
	d.line(name + ":")
	d.indent++
	for _, s := range stmts {
		d.DumpStatement(s)
	}
	d.indent--
}

func (d *Dumper) blockPtr(name string, b *ast.Block) {
	if b == nil {
		return
	}
	d.block(name, b.Stmts)
}

// DumpStatement renders one statement node, recursing into nested bodies.
func (d *Dumper) DumpStatement(stmt ast.Statement) {
	switch n := stmt.(type) {
	case *ast.ExprStmt:
		d.line("ExprStmt")
		d.expr("expr", n.Expr)
	case *ast.Block:
		d.block("Block", n.Stmts)
	case *ast.VarDecl:
		kind := "var"
		if n.Immutable {
			kind = "const"
		}
		d.line(fmt.Sprintf("VarDecl(%s) %s", kind, declaratorNames(n.Decls)))
		d.indent++
		for i, e := range n.Initializer {
			if e != nil {
				d.expr(fmt.Sprintf("init[%d]", i), e)
			}
		}
		d.indent--
	case *ast.RefDecl:
		d.line("RefDecl " + declaratorNames(n.Decls))
		d.indent++
		for i, e := range n.Initializer {
			if e != nil {
				d.expr(fmt.Sprintf("init[%d]", i), e)
			}
		}
		d.indent--
	case *ast.FuncDecl:
		d.line(fmt.Sprintf("FuncDecl %s(%s) variadic=%t", n.Name, strings.Join(n.Params, ","), n.Variadic))
		d.block("body", n.Body)
	case *ast.If:
		d.line("If")
		d.expr("cond", n.Cond)
		d.blockPtr("then", n.Then)
		d.blockPtr("else", n.Else)
	case *ast.Switch:
		d.line("Switch")
		d.expr("control", n.Control)
		d.indent++
		for i, c := range n.Clauses {
			d.line(fmt.Sprintf("clause[%d] kind=%s", i, switchClauseKindName(c.Kind)))
			d.indent++
			if c.Value != nil {
				d.expr("value", c.Value)
			}
			if c.Lower != nil {
				d.expr("lower", c.Lower)
			}
			if c.Upper != nil {
				d.expr("upper", c.Upper)
			}
			for _, s := range c.Body {
				d.DumpStatement(s)
			}
			d.indent--
		}
		d.indent--
	case *ast.DoWhile:
		d.line("DoWhile")
		d.blockPtr("body", n.Body)
		d.expr("cond", n.Cond)
	case *ast.While:
		d.line("While")
		d.expr("cond", n.Cond)
		d.blockPtr("body", n.Body)
	case *ast.ForEach:
		d.line(fmt.Sprintf("ForEach key=%s value=%s", n.Key, n.Value))
		d.expr("range", n.Range)
		d.blockPtr("body", n.Body)
	case *ast.For:
		d.line("For")
		if n.Init != nil {
			d.indent++
			d.line("init:")
			d.indent++
			d.DumpStatement(n.Init)
			d.indent--
			d.indent--
		}
		if n.Cond != nil {
			d.expr("cond", n.Cond)
		}
		if n.Step != nil {
			d.expr("step", n.Step)
		}
		d.blockPtr("body", n.Body)
	case *ast.TryCatch:
		d.line("TryCatch name=" + n.Name)
		d.blockPtr("try", n.Try)
		d.blockPtr("catch", n.Catch)
	case *ast.BreakContinue:
		kw := "continue"
		if n.IsBreak {
			kw = "break"
		}
		if n.HasTgt {
			d.line(fmt.Sprintf("%s target=%d", kw, n.Target))
		} else {
			d.line(kw)
		}
	case *ast.Throw:
		d.line("Throw")
		d.expr("value", n.Value)
	case *ast.Return:
		d.line(fmt.Sprintf("Return by_ref=%t", n.ByRef))
		if n.Value != nil {
			d.expr("value", n.Value)
		}
	case *ast.Assert:
		d.line("Assert")
		d.expr("cond", n.Cond)
		if n.Message != nil {
			d.expr("message", n.Message)
		}
	case *ast.Defer:
		d.line("Defer")
		d.expr("expr", n.Expr)
	default:
		d.line(fmt.Sprintf("<unknown statement %T>", n))
	}
}

// expr renders an RPN expression stream as one labeled, semicolon-joined
// line: there is no tree to recurse into, just the ordered unit list.
func (d *Dumper) expr(label string, e ast.Expression) {
	d.indent++
	parts := make([]string, len(e))
	for i, u := range e {
		parts[i] = exprUnitString(u)
	}
	d.line(label + ": " + strings.Join(parts, " "))
	d.indent--
}

func exprUnitString(u ast.ExprUnit) string {
	switch n := u.(type) {
	case *ast.Literal:
		return fmt.Sprintf("%v", n.Value)
	case *ast.LocalRef:
		return n.Name
	case *ast.GlobalRef:
		return "::" + n.Name
	case *ast.ClosureFunc:
		return fmt.Sprintf("func %s(%s)", n.Name, strings.Join(n.Params, ","))
	case *ast.Branch:
		return fmt.Sprintf("branch(%s assign=%t)", branchKindName(n.Kind), n.Assign)
	case *ast.Call:
		return fmt.Sprintf("call(%s nargs=%d)", callKindName(n.Kind), len(n.Args))
	case *ast.OperatorRPN:
		return fmt.Sprintf("op(%s assign=%t)", n.Op, n.Assign)
	case *ast.UnnamedArray:
		return fmt.Sprintf("array(count=%d)", n.Count)
	case *ast.UnnamedObject:
		return fmt.Sprintf("object(%s)", strings.Join(n.Keys, ","))
	case *ast.CheckArgument:
		return fmt.Sprintf("check_arg(by_ref=%t)", n.ByRef)
	case *ast.Catch:
		return "catch"
	default:
		return fmt.Sprintf("<unknown unit %T>", n)
	}
}

func declaratorNames(decls []ast.Declarator) string {
	parts := make([]string, len(decls))
	for i, dec := range decls {
		switch dec.Kind {
		case ast.PatternSingle:
			parts[i] = dec.Name
		case ast.PatternArray:
			parts[i] = "[" + strings.Join(dec.Names, ",") + "]"
		case ast.PatternObject:
			parts[i] = "{" + strings.Join(dec.Names, ",") + "}"
		}
	}
	return strings.Join(parts, ", ")
}

func switchClauseKindName(k ast.SwitchClauseKind) string {
	switch k {
	case ast.ClauseCase:
		return "case"
	case ast.ClauseDefault:
		return "default"
	case ast.ClauseEach:
		return "each"
	default:
		return "?"
	}
}

func branchKindName(k ast.BranchKind) string {
	switch k {
	case ast.BranchTernary:
		return "ternary"
	case ast.BranchLogicalAnd:
		return "and"
	case ast.BranchLogicalOr:
		return "or"
	case ast.BranchCoalesce:
		return "coalesce"
	default:
		return "?"
	}
}

func callKindName(k ast.CallKind) string {
	switch k {
	case ast.CallFunction:
		return "function"
	case ast.CallVariadic:
		return "variadic"
	case ast.CallImport:
		return "import"
	default:
		return "?"
	}
}
