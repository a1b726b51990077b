package compiler

import (
	"math"

	"github.com/cwbudde/go-asteria/internal/air"
	"github.com/cwbudde/go-asteria/internal/ast"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// bi32Capable is the set of binary operators ApplyOperatorBi32 can carry
// a folded int32 literal for, mirroring internal/air's dispatch table.
var bi32Capable = map[ast.Operator]bool{
	ast.OpAdd: true, ast.OpSub: true, ast.OpMul: true, ast.OpDiv: true, ast.OpMod: true,
	ast.OpBitAnd: true, ast.OpBitOr: true, ast.OpBitXor: true,
	ast.OpShiftLeftLogical: true, ast.OpShiftRightLogical: true,
	ast.OpShiftLeftArith: true, ast.OpShiftRightArith: true,
	ast.OpEq: true, ast.OpNotEq: true,
	ast.OpLess: true, ast.OpLessEq: true, ast.OpGreater: true, ast.OpGreaterEq: true,
	ast.OpCompare3Way: true, ast.OpUnordered: true,
	ast.OpAssign: true, ast.OpIndex: true,
	ast.OpAddMod: true, ast.OpSubMod: true, ast.OpMulMod: true,
	ast.OpAddSat: true, ast.OpSubSat: true, ast.OpMulSat: true,
}

func toVMValue(v any) vm.Value {
	switch val := v.(type) {
	case nil:
		return vm.Null()
	case bool:
		return vm.Bool(val)
	case int64:
		return vm.Integer(val)
	case float64:
		return vm.Real(val)
	case string:
		return vm.String(val)
	default:
		return vm.Null()
	}
}

func mapBranchKind(k ast.BranchKind) air.BranchKind {
	switch k {
	case ast.BranchLogicalAnd:
		return air.BranchLogicalAnd
	case ast.BranchLogicalOr:
		return air.BranchLogicalOr
	case ast.BranchCoalesce:
		return air.BranchCoalesce
	default:
		return air.BranchTernary
	}
}

// lowerExpr appends expr's units into rod in order, resolving names
// against actx. ptcAware, when true, marks the trailing unit (if it is a
// Call or a Branch whose taken side ends in a Call) as a proper tail
// call, provided the option is enabled.
func (lw *Lowerer) lowerExpr(actx *Context, rod *vm.Rod, expr ast.Expression, ptcAware bool) *cerr.CompilerError {
	ptcAware = ptcAware && lw.opts.ProperTailCalls
	for i := 0; i < len(expr); i++ {
		u := expr[i]
		isLast := i == len(expr)-1

		if lw.opts.VerboseSingleStepTraps {
			rod.Append(&air.SingleStepTrap{}, u.Location())
		}

		if lit, ok := u.(*ast.Literal); ok && lw.opts.OptimizationLevel >= 1 && i+1 < len(expr) {
			if iv, isInt := lit.Value.(int64); isInt && iv >= math.MinInt32 && iv <= math.MaxInt32 {
				if opUnit, ok2 := expr[i+1].(*ast.OperatorRPN); ok2 && bi32Capable[opUnit.Op] {
					rod.Append(&air.ApplyOperatorBi32{Op: opUnit.Op, Assign: opUnit.Assign, Literal: int32(iv)}, opUnit.Loc)
					i++
					continue
				}
			}
		}

		switch n := u.(type) {
		case *ast.Literal:
			rod.Append(&air.PushConstant{Value: toVMValue(n.Value)}, n.Loc)

		case *ast.LocalRef:
			if depth, found := actx.Resolve(n.Name); found {
				rod.Append(&air.PushLocalReference{Depth: depth, Name: n.Name}, n.Loc)
			} else if lw.opts.ImplicitGlobalNames {
				rod.Append(&air.PushGlobalReference{Name: n.Name}, n.Loc)
			} else {
				return cerr.New(cerr.CodeUndeclaredIdentifier, n.Loc, "undeclared identifier %q", n.Name)
			}

		case *ast.GlobalRef:
			rod.Append(&air.PushGlobalReference{Name: n.Name}, n.Loc)

		case *ast.ClosureFunc:
			bodyRod, err := lw.lowerFuncBody(actx, n.Params, n.Body)
			if err != nil {
				return err
			}
			rod.Append(&air.PushClosureValue{Name: n.Name, Params: n.Params, Variadic: n.Variadic, Body: bodyRod}, n.Loc)

		case *ast.OperatorRPN:
			if n.Op == ast.OpPos && !n.Assign && lw.opts.OptimizationLevel >= 1 {
				continue // identity; drop entirely
			}
			rod.Append(&air.ApplyOperator{Op: n.Op, Assign: n.Assign}, n.Loc)

		case *ast.UnnamedArray:
			rod.Append(&air.PushUnnamedArray{Count: n.Count}, n.Loc)

		case *ast.UnnamedObject:
			rod.Append(&air.PushUnnamedObject{Keys: n.Keys}, n.Loc)

		case *ast.CheckArgument:
			rod.Append(&air.CheckArgument{ByRef: n.ByRef}, n.Loc)

		case *ast.Branch:
			var thenRod, elseRod *vm.Rod
			var err *cerr.CompilerError
			switch n.Kind {
			case ast.BranchTernary:
				thenRod, err = lw.lowerValueRod(actx, n.Then, isLast && ptcAware)
				if err == nil {
					elseRod, err = lw.lowerValueRod(actx, n.Else, isLast && ptcAware)
				}
			case ast.BranchLogicalAnd, ast.BranchCoalesce:
				thenRod, err = lw.lowerValueRod(actx, n.Then, isLast && ptcAware)
			case ast.BranchLogicalOr:
				elseRod, err = lw.lowerValueRod(actx, n.Else, isLast && ptcAware)
			}
			if err != nil {
				return err
			}
			rod.Append(&air.BranchExpression{Kind: mapBranchKind(n.Kind), Assign: n.Assign, Then: thenRod, Else: elseRod}, n.Loc)

		case *ast.Call:
			for _, argExpr := range n.Args {
				if err := lw.lowerExpr(actx, rod, argExpr, false); err != nil {
					return err
				}
			}
			switch n.Kind {
			case ast.CallVariadic:
				rod.Append(&air.VariadicCall{Loc: n.Loc}, n.Loc)
			case ast.CallImport:
				rod.Append(&air.ImportCall{Nargs: len(n.Args), Loc: n.Loc}, n.Loc)
			default:
				rod.Append(&air.FunctionCall{Nargs: len(n.Args), PTC: isLast && ptcAware, Loc: n.Loc}, n.Loc)
			}

		case *ast.Catch:
			innerRod, err := lw.lowerValueRod(actx, n.Inner, false)
			if err != nil {
				return err
			}
			rod.Append(&air.CatchExpression{Inner: innerRod}, n.Loc)

		default:
			return cerr.New(cerr.CodeUnknown, u.Location(), "internal: unhandled expression unit %T", u)
		}
	}
	return nil
}

// lowerValueRod lowers expr into its own fresh rod that leaves exactly
// one value on the stack, matching how BranchExpression/CatchExpression/
// evalSingle each run a sub-rod in a freshly created child context.
func (lw *Lowerer) lowerValueRod(actx *Context, expr ast.Expression, ptcAware bool) (*vm.Rod, *cerr.CompilerError) {
	child := actx.NewChild()
	rod := vm.NewRodBuilder()
	if err := lw.lowerExpr(child, rod, expr, ptcAware); err != nil {
		return nil, err
	}
	return rod.Finalize(), nil
}

// lowerDiscardedRod lowers expr into its own fresh rod and clears the
// stack afterward, for contexts where the result is unused (for-loop step
// clauses, defer bodies).
func (lw *Lowerer) lowerDiscardedRod(actx *Context, expr ast.Expression) (*vm.Rod, *cerr.CompilerError) {
	rod := vm.NewRodBuilder()
	if err := lw.lowerExpr(actx, rod, expr, false); err != nil {
		return nil, err
	}
	rod.Append(&air.ClearStack{Depth: 0}, expr[len(expr)-1].Location())
	return rod.Finalize(), nil
}
