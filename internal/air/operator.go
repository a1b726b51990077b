package air

import (
	"github.com/cwbudde/go-asteria/internal/ast"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// unaryValueOps are applied directly to a popped value (never addressable).
var unaryValueOps = map[ast.Operator]bool{
	ast.OpNeg: true, ast.OpPos: true, ast.OpNot: true, ast.OpBitNot: true,
}

// compoundCapable is the set of binary operators that may carry the
// Assign (read-modify-write) flag.
var compoundCapable = map[ast.Operator]bool{
	ast.OpAdd: true, ast.OpSub: true, ast.OpMul: true, ast.OpDiv: true, ast.OpMod: true,
	ast.OpBitAnd: true, ast.OpBitOr: true, ast.OpBitXor: true,
	ast.OpShiftLeftLogical: true, ast.OpShiftRightLogical: true,
	ast.OpShiftLeftArith: true, ast.OpShiftRightArith: true,
}

// ApplyOperator is the general apply-operator handler: it dispatches on
// Op to decide how many stack entries to consume and whether they must
// be addressable (spec.md §4.8).
type ApplyOperator struct {
	Op     ast.Operator
	Assign bool
}

func (n *ApplyOperator) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	return execOperator(ctx, n.Op, n.Assign, nil)
}

// ApplyOperatorBi32 is the optimization-level≥1 fast path: the right
// operand is a folded 32-bit signed literal carried inline instead of a
// preceding push-constant + apply-operator pair.
type ApplyOperatorBi32 struct {
	Op      ast.Operator
	Assign  bool
	Literal int32
}

func (n *ApplyOperatorBi32) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	lit := vm.Integer(int64(n.Literal))
	return execOperator(ctx, n.Op, n.Assign, &lit)
}

// execOperator implements both ApplyOperator and ApplyOperatorBi32: bi32
// is nil for the former (rhs comes off the stack) or the folded literal
// for the latter.
func execOperator(ctx *vm.Context, op ast.Operator, assign bool, bi32 *vm.Value) (vm.Status, *cerr.RuntimeError) {
	switch {
	case op == ast.OpIndex:
		return execIndex(ctx, bi32)
	case op == ast.OpIncrPre || op == ast.OpIncrPost || op == ast.OpDecrPre || op == ast.OpDecrPost:
		return execIncrDecr(ctx, op)
	case op == ast.OpCountOf:
		return execCountOf(ctx)
	case op == ast.OpAssign:
		return execAssign(ctx, bi32)
	case unaryValueOps[op]:
		ref := ctx.Pop()
		val, err := ref.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
		result, aerr := vm.ApplyUnary(op, val)
		if aerr != nil {
			return vm.StatusNext, wrap(aerr)
		}
		ctx.Push(vm.Temp(result))
		return vm.StatusNext, nil
	case assign && compoundCapable[op]:
		return execCompoundAssign(ctx, op, bi32)
	default:
		var rhsVal vm.Value
		var err error
		if bi32 != nil {
			rhsVal = *bi32
		} else {
			rhsRef := ctx.Pop()
			rhsVal, err = rhsRef.Read()
			if err != nil {
				return vm.StatusNext, wrap(err)
			}
		}
		lhsRef := ctx.Pop()
		lhsVal, lerr := lhsRef.Read()
		if lerr != nil {
			return vm.StatusNext, wrap(lerr)
		}
		result, aerr := vm.ApplyBinary(op, lhsVal, rhsVal)
		if aerr != nil {
			return vm.StatusNext, wrap(aerr)
		}
		ctx.Push(vm.Temp(result))
		return vm.StatusNext, nil
	}
}

func execIndex(ctx *vm.Context, bi32 *vm.Value) (vm.Status, *cerr.RuntimeError) {
	var idxVal vm.Value
	if bi32 != nil {
		idxVal = *bi32
	} else {
		idxRef := ctx.Pop()
		var err error
		idxVal, err = idxRef.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
	}
	baseRef := ctx.Pop()
	var sub vm.Subscript
	switch {
	case idxVal.IsNull():
		sub = vm.Subscript{Kind: vm.SubArrayRandom}
	case idxVal.Type == vm.ValueString:
		s, _ := idxVal.AsString()
		sub = vm.Subscript{Kind: vm.SubObjectKey, Key: s}
	default:
		i, _ := idxVal.AsInt()
		sub = vm.Subscript{Kind: vm.SubArrayIndex, Idx: i}
	}
	ctx.Push(baseRef.WithSubscript(sub))
	return vm.StatusNext, nil
}

func execIncrDecr(ctx *vm.Context, op ast.Operator) (vm.Status, *cerr.RuntimeError) {
	ref := ctx.Pop()
	old, err := ref.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	delta := ast.OpAdd
	if op == ast.OpDecrPre || op == ast.OpDecrPost {
		delta = ast.OpSub
	}
	updated, aerr := vm.ApplyBinary(delta, old, vm.Integer(1))
	if aerr != nil {
		return vm.StatusNext, wrap(aerr)
	}
	if werr := ref.Write(updated); werr != nil {
		return vm.StatusNext, wrap(werr)
	}
	if op == ast.OpIncrPost || op == ast.OpDecrPost {
		ctx.Push(vm.Temp(old))
	} else {
		ctx.Push(vm.Temp(updated))
	}
	return vm.StatusNext, nil
}

func execCountOf(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ref := ctx.Pop()
	val, err := ref.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	var n int
	switch val.Type {
	case vm.ValueString:
		s, _ := val.AsString()
		n = len(s)
	case vm.ValueArray:
		a, _ := val.AsArray()
		n = len(a.Elems)
	case vm.ValueObject:
		o, _ := val.AsObject()
		n = o.Len()
	case vm.ValueNull:
		n = 0
	default:
		return vm.StatusNext, cerr.NewRuntimeError("countof: value has no length", cerr.Frame{Type: cerr.FrameNative})
	}
	ctx.Push(vm.Temp(vm.Integer(int64(n))))
	return vm.StatusNext, nil
}

func execAssign(ctx *vm.Context, bi32 *vm.Value) (vm.Status, *cerr.RuntimeError) {
	var rhsVal vm.Value
	var err error
	if bi32 != nil {
		rhsVal = *bi32
	} else {
		rhsRef := ctx.Pop()
		rhsVal, err = rhsRef.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
	}
	lhsRef := ctx.Pop()
	if werr := lhsRef.Write(rhsVal); werr != nil {
		return vm.StatusNext, wrap(werr)
	}
	ctx.Push(vm.Temp(rhsVal))
	return vm.StatusNext, nil
}

func execCompoundAssign(ctx *vm.Context, op ast.Operator, bi32 *vm.Value) (vm.Status, *cerr.RuntimeError) {
	var rhsVal vm.Value
	var err error
	if bi32 != nil {
		rhsVal = *bi32
	} else {
		rhsRef := ctx.Pop()
		rhsVal, err = rhsRef.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
	}
	lhsRef := ctx.Pop()
	lhsVal, lerr := lhsRef.Read()
	if lerr != nil {
		return vm.StatusNext, wrap(lerr)
	}
	result, aerr := vm.ApplyBinary(op, lhsVal, rhsVal)
	if aerr != nil {
		return vm.StatusNext, wrap(aerr)
	}
	if werr := lhsRef.Write(result); werr != nil {
		return vm.StatusNext, wrap(werr)
	}
	ctx.Push(vm.Temp(result))
	return vm.StatusNext, nil
}

// BranchKind mirrors ast.BranchKind at the AIR level.
type BranchKind int

const (
	BranchTernary BranchKind = iota
	BranchLogicalAnd
	BranchLogicalOr
	BranchCoalesce
)

// BranchExpression implements ternary, logical-and, logical-or, and
// coalescence: the left operand (already on the stack) is read once,
// and only the taken side's rod is executed, per spec.md §4.6's
// tail-position-preserving short-circuit rule.
type BranchExpression struct {
	Kind   BranchKind
	Assign bool
	Then   *vm.Rod
	Else   *vm.Rod
}

func (n *BranchExpression) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	condRef := ctx.Pop()
	condVal, err := condRef.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}

	runSide := func(rod *vm.Rod) (vm.Value, *cerr.RuntimeError) {
		child := ctx.NewChild()
		status, rerr := vm.Run(rod, child)
		if rerr != nil {
			return vm.Value{}, rerr
		}
		if status != vm.StatusNext {
			return vm.Value{}, cerr.NewRuntimeError("control flow escaped a branch expression", cerr.Frame{Type: cerr.FrameNative})
		}
		v, rerr2 := child.Pop().Read()
		if rerr2 != nil {
			return vm.Value{}, wrap(rerr2)
		}
		return v, nil
	}

	var result vm.Value
	var berr *cerr.RuntimeError
	switch n.Kind {
	case BranchTernary:
		if condVal.AsBool() {
			result, berr = runSide(n.Then)
		} else {
			result, berr = runSide(n.Else)
		}
	case BranchLogicalAnd:
		if !condVal.AsBool() {
			result = condVal
		} else {
			result, berr = runSide(n.Then)
		}
	case BranchLogicalOr:
		if condVal.AsBool() {
			result = condVal
		} else {
			result, berr = runSide(n.Else)
		}
	case BranchCoalesce:
		if !condVal.IsNull() {
			result = condVal
		} else {
			result, berr = runSide(n.Then)
		}
	}
	if berr != nil {
		return vm.StatusNext, berr
	}

	if n.Assign {
		if werr := condRef.Write(result); werr != nil {
			return vm.StatusNext, wrap(werr)
		}
	}
	ctx.Push(vm.Temp(result))
	return vm.StatusNext, nil
}

// CatchExpression evaluates Inner; on a Runtime_Error it yields the
// caught value instead of propagating, otherwise it yields null
// (spec.md §3's Catch unit).
type CatchExpression struct{ Inner *vm.Rod }

func (n *CatchExpression) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	child := ctx.NewChild()
	status, err := vm.Run(n.Inner, child)
	if err != nil {
		if av, ok := err.Value.(vm.Value); ok {
			ctx.Push(vm.Temp(av))
		} else {
			ctx.Push(vm.Temp(vm.String(err.Error())))
		}
		return vm.StatusNext, nil
	}
	if status == vm.StatusNext {
		child.Pop()
	}
	ctx.Push(vm.Temp(vm.Null()))
	return vm.StatusNext, nil
}
