// Package compiler lowers the parsed Statement/Expression tree into AIR
// nodes packed into a vm.Rod, resolving names against the Analytic
// Context and propagating proper-tail-call eligibility (spec.md §4).
package compiler

import (
	"github.com/cwbudde/go-asteria/internal/air"
	"github.com/cwbudde/go-asteria/internal/ast"
	"github.com/cwbudde/go-asteria/internal/config"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// Lowerer turns a parsed program into a runnable Rod.
type Lowerer struct {
	opts config.Options
}

// NewLowerer creates a Lowerer bound to a fixed option set.
func NewLowerer(opts config.Options) *Lowerer {
	return &Lowerer{opts: opts}
}

// LowerProgram lowers a whole file's top-level statements into a sealed
// Rod meant to run directly against a vm.NewGlobalContext.
func (lw *Lowerer) LowerProgram(stmts []ast.Statement) (*vm.Rod, *cerr.CompilerError) {
	actx := NewGlobal()
	rod := vm.NewRodBuilder()
	if err := lw.lowerStmtsInto(actx, rod, stmts); err != nil {
		return nil, err
	}
	return rod.Finalize(), nil
}

// lowerFuncBody lowers a function/closure body. The body statements run
// directly in the frame NewFunctionContext builds (no extra scope level),
// so it is lowered with a single func-root child of the declaring scope,
// not a further nested child.
func (lw *Lowerer) lowerFuncBody(declActx *Context, params []string, body []ast.Statement) (*vm.Rod, *cerr.CompilerError) {
	funcActx := NewFuncRoot(declActx, params)
	rod := vm.NewRodBuilder()
	if err := lw.lowerStmtsInto(funcActx, rod, body); err != nil {
		return nil, err
	}
	return rod.Finalize(), nil
}

// lowerBodyRod lowers stmts into a fresh rod executed by a single
// ctx.NewChild() at the call site (ExecuteBlock, and each of If/While/
// DoWhile's Then/Else/Body, which run via runBlock).
func (lw *Lowerer) lowerBodyRod(outerActx *Context, stmts []ast.Statement) (*vm.Rod, *cerr.CompilerError) {
	childActx := outerActx.NewChild()
	rod := vm.NewRodBuilder()
	if err := lw.lowerStmtsInto(childActx, rod, stmts); err != nil {
		return nil, err
	}
	return rod.Finalize(), nil
}

// lowerStmtsInto appends stmts' AIR nodes directly into rod using actx
// (no additional child scope is created here).
func (lw *Lowerer) lowerStmtsInto(actx *Context, rod *vm.Rod, stmts []ast.Statement) *cerr.CompilerError {
	for i, stmt := range stmts {
		tail := i == len(stmts)-1
		if err := lw.lowerStatement(actx, rod, stmt, tail); err != nil {
			return err
		}
	}
	return nil
}

func (lw *Lowerer) lowerStatement(actx *Context, rod *vm.Rod, stmt ast.Statement, tail bool) *cerr.CompilerError {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if err := lw.lowerExpr(actx, rod, s.Expr, false); err != nil {
			return err
		}
		rod.Append(&air.ClearStack{Depth: 0}, s.Loc)
		return nil

	case *ast.Block:
		bodyRod, err := lw.lowerBodyRod(actx, s.Stmts)
		if err != nil {
			return err
		}
		rod.Append(&air.ExecuteBlock{Body: bodyRod}, s.Loc)
		return nil

	case *ast.VarDecl:
		return lw.lowerVarDecl(actx, rod, s)

	case *ast.RefDecl:
		return lw.lowerRefDecl(actx, rod, s)

	case *ast.FuncDecl:
		actx.Declare(s.Name)
		bodyRod, err := lw.lowerFuncBody(actx, s.Params, s.Body)
		if err != nil {
			return err
		}
		rod.Append(&air.DefineFunction{Name: s.Name, Params: s.Params, Variadic: s.Variadic, Body: bodyRod}, s.Loc)
		return nil

	case *ast.If:
		condRod, err := lw.lowerValueRod(actx, s.Cond, false)
		if err != nil {
			return err
		}
		thenRod, err := lw.lowerBodyRod(actx, s.Then.Stmts)
		if err != nil {
			return err
		}
		var elseRod *vm.Rod
		if s.Else != nil {
			elseRod, err = lw.lowerBodyRod(actx, s.Else.Stmts)
			if err != nil {
				return err
			}
		}
		rod.Append(&air.IfStatement{CondRod: condRod, Then: thenRod, Else: elseRod}, s.Loc)
		return nil

	case *ast.Switch:
		return lw.lowerSwitch(actx, rod, s)

	case *ast.DoWhile:
		condRod, err := lw.lowerValueRod(actx, s.Cond, false)
		if err != nil {
			return err
		}
		bodyRod, err := lw.lowerBodyRod(actx, s.Body.Stmts)
		if err != nil {
			return err
		}
		rod.Append(&air.DoWhileStatement{Body: bodyRod, Cond: condRod}, s.Loc)
		return nil

	case *ast.While:
		condRod, err := lw.lowerValueRod(actx, s.Cond, false)
		if err != nil {
			return err
		}
		bodyRod, err := lw.lowerBodyRod(actx, s.Body.Stmts)
		if err != nil {
			return err
		}
		rod.Append(&air.WhileStatement{Cond: condRod, Body: bodyRod}, s.Loc)
		return nil

	case *ast.For:
		return lw.lowerFor(actx, rod, s)

	case *ast.ForEach:
		return lw.lowerForEach(actx, rod, s)

	case *ast.TryCatch:
		return lw.lowerTry(actx, rod, s)

	case *ast.BreakContinue:
		rod.Append(&air.SimpleStatus{Value: breakContinueStatus(s)}, s.Loc)
		return nil

	case *ast.Throw:
		valRod, err := lw.lowerValueRod(actx, s.Value, false)
		if err != nil {
			return err
		}
		rod.Append(&air.ThrowStatement{ValueRod: valRod, Loc: s.Loc}, s.Loc)
		return nil

	case *ast.Return:
		if s.Value == nil {
			rod.Append(&air.ReturnStatement{ByRef: s.ByRef, ValueRod: nil, Loc: s.Loc}, s.Loc)
			return nil
		}
		valRod, err := lw.lowerValueRod(actx, s.Value, tail)
		if err != nil {
			return err
		}
		rod.Append(&air.ReturnStatement{ByRef: s.ByRef, ValueRod: valRod, Loc: s.Loc}, s.Loc)
		return nil

	case *ast.Assert:
		condRod, err := lw.lowerValueRod(actx, s.Cond, false)
		if err != nil {
			return err
		}
		var msgRod *vm.Rod
		if s.Message != nil {
			msgRod, err = lw.lowerValueRod(actx, s.Message, false)
			if err != nil {
				return err
			}
		}
		rod.Append(&air.AssertStatement{CondRod: condRod, MessageRod: msgRod, Loc: s.Loc}, s.Loc)
		return nil

	case *ast.Defer:
		deferRod, err := lw.lowerDiscardedRod(actx, s.Expr)
		if err != nil {
			return err
		}
		rod.Append(&air.DeferExpression{Body: deferRod}, s.Loc)
		return nil

	default:
		return cerr.New(cerr.CodeUnknown, stmt.StmtLocation(), "internal: unhandled statement %T", stmt)
	}
}

func breakContinueStatus(s *ast.BreakContinue) vm.Status {
	if !s.HasTgt {
		if s.IsBreak {
			return vm.StatusBreakAny
		}
		return vm.StatusContinueAny
	}
	switch s.Target {
	case ast.LoopSwitch:
		return vm.StatusBreakSwitch // continue cannot target switch; parser enforces this
	case ast.LoopWhile:
		if s.IsBreak {
			return vm.StatusBreakWhile
		}
		return vm.StatusContinueWhile
	case ast.LoopFor:
		if s.IsBreak {
			return vm.StatusBreakFor
		}
		return vm.StatusContinueFor
	default:
		if s.IsBreak {
			return vm.StatusBreakAny
		}
		return vm.StatusContinueAny
	}
}

func (lw *Lowerer) lowerVarDecl(actx *Context, rod *vm.Rod, s *ast.VarDecl) *cerr.CompilerError {
	for i, decl := range s.Decls {
		var init ast.Expression
		if i < len(s.Initializer) {
			init = s.Initializer[i]
		}
		switch decl.Kind {
		case ast.PatternSingle:
			actx.Declare(decl.Name)
			if init == nil {
				rod.Append(&air.DefineNullVariable{Name: decl.Name}, decl.Loc)
				continue
			}
			rod.Append(&air.DeclareVariable{Name: decl.Name, Immutable: s.Immutable}, decl.Loc)
			if err := lw.lowerExpr(actx, rod, init, false); err != nil {
				return err
			}
			rod.Append(&air.InitializeVariable{Name: decl.Name, Immutable: s.Immutable}, decl.Loc)

		case ast.PatternArray:
			if init == nil {
				return cerr.New(cerr.CodeExpressionExpected, decl.Loc, "structured binding requires an initializer")
			}
			for _, name := range decl.Names {
				actx.Declare(name)
			}
			if err := lw.lowerExpr(actx, rod, init, false); err != nil {
				return err
			}
			rod.Append(&air.UnpackArray{Names: decl.Names}, decl.Loc)

		case ast.PatternObject:
			if init == nil {
				return cerr.New(cerr.CodeExpressionExpected, decl.Loc, "structured binding requires an initializer")
			}
			for _, name := range decl.Names {
				actx.Declare(name)
			}
			if err := lw.lowerExpr(actx, rod, init, false); err != nil {
				return err
			}
			rod.Append(&air.UnpackObject{Names: decl.Names}, decl.Loc)
		}
	}
	return nil
}

func (lw *Lowerer) lowerRefDecl(actx *Context, rod *vm.Rod, s *ast.RefDecl) *cerr.CompilerError {
	for i, decl := range s.Decls {
		if decl.Kind != ast.PatternSingle {
			return cerr.New(cerr.CodeExpressionExpected, decl.Loc, "structured bindings are not supported for ref declarations")
		}
		var init ast.Expression
		if i < len(s.Initializer) {
			init = s.Initializer[i]
		}
		if init == nil {
			return cerr.New(cerr.CodeExpressionExpected, decl.Loc, "ref declaration requires an initializer")
		}
		actx.Declare(decl.Name)
		rod.Append(&air.DeclareReference{Name: decl.Name}, decl.Loc)
		if err := lw.lowerExpr(actx, rod, init, false); err != nil {
			return err
		}
		rod.Append(&air.InitializeReference{Name: decl.Name}, decl.Loc)
	}
	return nil
}

func (lw *Lowerer) lowerSwitch(actx *Context, rod *vm.Rod, s *ast.Switch) *cerr.CompilerError {
	controlRod, err := lw.lowerValueRod(actx, s.Control, false)
	if err != nil {
		return err
	}
	switchActx := actx.NewChild()
	clauses := make([]air.SwitchClauseAIR, 0, len(s.Clauses))
	for _, c := range s.Clauses {
		bodyRod := vm.NewRodBuilder()
		if err := lw.lowerStmtsInto(switchActx, bodyRod, c.Body); err != nil {
			return err
		}
		bodyRod.Finalize()

		clause := air.SwitchClauseAIR{Body: bodyRod, OpenLow: !c.LowerClosed, OpenHigh: !c.UpperClosed}
		switch c.Kind {
		case ast.ClauseDefault:
			clause.Kind = air.ClauseDefault
		case ast.ClauseEach:
			clause.Kind = air.ClauseEach
			clause.LowRod, err = lw.lowerValueRod(switchActx, c.Lower, false)
			if err != nil {
				return err
			}
			if c.Upper != nil {
				clause.HighRod, err = lw.lowerValueRod(switchActx, c.Upper, false)
				if err != nil {
					return err
				}
			}
		default: // ast.ClauseCase
			clause.Kind = air.ClauseCase
			clause.LowRod, err = lw.lowerValueRod(switchActx, c.Value, false)
			if err != nil {
				return err
			}
		}
		clauses = append(clauses, clause)
	}
	rod.Append(&air.SwitchStatement{Control: controlRod, Clauses: clauses}, s.Loc)
	return nil
}

func (lw *Lowerer) lowerFor(actx *Context, rod *vm.Rod, s *ast.For) *cerr.CompilerError {
	forActx := actx.NewChild()
	var initRod *vm.Rod
	if s.Init != nil {
		initBuilder := vm.NewRodBuilder()
		if err := lw.lowerStatement(forActx, initBuilder, s.Init, false); err != nil {
			return err
		}
		initRod = initBuilder.Finalize()
	}
	var condRod *vm.Rod
	if s.Cond != nil {
		var err *cerr.CompilerError
		condRod, err = lw.lowerValueRod(forActx, s.Cond, false)
		if err != nil {
			return err
		}
	}
	bodyChild := forActx.NewChild()
	bodyRod := vm.NewRodBuilder()
	if err := lw.lowerStmtsInto(bodyChild, bodyRod, s.Body.Stmts); err != nil {
		return err
	}
	bodyRod.Finalize()

	var stepRod *vm.Rod
	if s.Step != nil {
		var err *cerr.CompilerError
		stepRod, err = lw.lowerDiscardedRod(forActx, s.Step)
		if err != nil {
			return err
		}
	}
	rod.Append(&air.ForStatement{Init: initRod, Cond: condRod, Step: stepRod, Body: bodyRod}, s.Loc)
	return nil
}

func (lw *Lowerer) lowerForEach(actx *Context, rod *vm.Rod, s *ast.ForEach) *cerr.CompilerError {
	rangeRod, err := lw.lowerValueRod(actx, s.Range, false)
	if err != nil {
		return err
	}
	bodyActx := actx.NewChild()
	if s.Key != "" {
		bodyActx.Declare(s.Key)
	}
	if s.Value != "" {
		bodyActx.Declare(s.Value)
	}
	bodyRod := vm.NewRodBuilder()
	if err := lw.lowerStmtsInto(bodyActx, bodyRod, s.Body.Stmts); err != nil {
		return err
	}
	bodyRod.Finalize()
	rod.Append(&air.ForEachStatement{Key: s.Key, Value: s.Value, RangeRod: rangeRod, Body: bodyRod}, s.Loc)
	return nil
}

func (lw *Lowerer) lowerTry(actx *Context, rod *vm.Rod, s *ast.TryCatch) *cerr.CompilerError {
	tryActx := actx.NewChild()
	tryRod := vm.NewRodBuilder()
	if err := lw.lowerStmtsInto(tryActx, tryRod, s.Try.Stmts); err != nil {
		return err
	}
	tryRod.Finalize()

	catchActx := actx.NewChild()
	name := s.Name
	if name == "" {
		name = "e"
	}
	catchActx.Declare(name)
	catchActx.Declare("__backtrace")
	catchRod := vm.NewRodBuilder()
	if err := lw.lowerStmtsInto(catchActx, catchRod, s.Catch.Stmts); err != nil {
		return err
	}
	catchRod.Finalize()

	rod.Append(&air.TryStatement{Try: tryRod, Name: s.Name, Catch: catchRod}, s.Loc)
	return nil
}
