package air

import (
	"testing"

	"github.com/cwbudde/go-asteria/internal/ast"
	"github.com/cwbudde/go-asteria/internal/vm"
)

func TestApplyOperatorBinaryAdd(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(40)))
	ctx.Push(vm.Temp(vm.Integer(2)))
	n := &ApplyOperator{Op: ast.OpAdd}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != 42 {
		t.Errorf("40+2 = %v, want 42", got)
	}
}

func TestApplyOperatorBi32UsesInlineLiteral(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(40)))
	n := &ApplyOperatorBi32{Op: ast.OpAdd, Literal: 2}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if ctx.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1 (bi32 must not pop a second stack operand)", ctx.Depth())
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != 42 {
		t.Errorf("40+2 (bi32) = %v, want 42", got)
	}
}

func TestApplyOperatorUnaryNeg(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(5)))
	n := &ApplyOperator{Op: ast.OpNeg}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != -5 {
		t.Errorf("neg(5) = %v, want -5", got)
	}
}

func TestApplyOperatorAssignWritesThroughVariable(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	cell := ctx.Declare("x", false)
	_ = vm.FromVariable(cell).Initialize(vm.Integer(1), false)
	ref, _ := ctx.Lookup(0, "x")
	ctx.Push(ref)
	ctx.Push(vm.Temp(vm.Integer(9)))

	n := &ApplyOperator{Op: ast.OpAssign}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	result, _ := ctx.Pop().Read()
	if got, _ := result.AsInt(); got != 9 {
		t.Errorf("assign result = %v, want 9", got)
	}
	xRef, _ := ctx.Lookup(0, "x")
	xv, _ := xRef.Read()
	if got, _ := xv.AsInt(); got != 9 {
		t.Errorf("x after assign = %v, want 9", got)
	}
}

func TestApplyOperatorCompoundAssignAddsInPlace(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	cell := ctx.Declare("x", false)
	_ = vm.FromVariable(cell).Initialize(vm.Integer(3), false)
	ref, _ := ctx.Lookup(0, "x")
	ctx.Push(ref)
	ctx.Push(vm.Temp(vm.Integer(4)))

	n := &ApplyOperator{Op: ast.OpAdd, Assign: true}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	xRef, _ := ctx.Lookup(0, "x")
	xv, _ := xRef.Read()
	if got, _ := xv.AsInt(); got != 7 {
		t.Errorf("x after += = %v, want 7", got)
	}
}

func TestApplyOperatorIncrPostReturnsOldValue(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	cell := ctx.Declare("x", false)
	_ = vm.FromVariable(cell).Initialize(vm.Integer(5), false)
	ref, _ := ctx.Lookup(0, "x")
	ctx.Push(ref)

	n := &ApplyOperator{Op: ast.OpIncrPost}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	result, _ := ctx.Pop().Read()
	if got, _ := result.AsInt(); got != 5 {
		t.Errorf("x++ result = %v, want old value 5", got)
	}
	xRef, _ := ctx.Lookup(0, "x")
	xv, _ := xRef.Read()
	if got, _ := xv.AsInt(); got != 6 {
		t.Errorf("x after x++ = %v, want 6", got)
	}
}

func TestApplyOperatorCountOfOnStringAndArray(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.String("hello")))
	n := &ApplyOperator{Op: ast.OpCountOf}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != 5 {
		t.Errorf("#\"hello\" = %v, want 5", got)
	}

	ctx.Push(vm.Temp(vm.ArrayOf(&vm.Array{Elems: []vm.Value{vm.Integer(1), vm.Integer(2), vm.Integer(3)}})))
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v2, _ := ctx.Pop().Read()
	if got, _ := v2.AsInt(); got != 3 {
		t.Errorf("#array = %v, want 3", got)
	}
}

func TestApplyOperatorIndexOnArrayAndObject(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.ArrayOf(&vm.Array{Elems: []vm.Value{vm.Integer(10), vm.Integer(20)}})))
	ctx.Push(vm.Temp(vm.Integer(1)))
	n := &ApplyOperator{Op: ast.OpIndex}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, err := ctx.Pop().Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, _ := v.AsInt(); got != 20 {
		t.Errorf("arr[1] = %v, want 20", got)
	}

	obj := vm.NewObject()
	obj.Set("k", vm.Integer(30))
	ctx.Push(vm.Temp(vm.ObjectOf(obj)))
	ctx.Push(vm.Temp(vm.String("k")))
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, err = ctx.Pop().Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, _ := v.AsInt(); got != 30 {
		t.Errorf("obj[\"k\"] = %v, want 30", got)
	}
}

func TestApplyOperatorBi32IndexUsesInlineLiteral(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.ArrayOf(&vm.Array{Elems: []vm.Value{vm.Integer(10), vm.Integer(20)}})))
	n := &ApplyOperatorBi32{Op: ast.OpIndex, Literal: 1}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if ctx.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1 (bi32 index must not pop a second stack operand)", ctx.Depth())
	}
	v, err := ctx.Pop().Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, _ := v.AsInt(); got != 20 {
		t.Errorf("arr[1] (bi32) = %v, want 20", got)
	}
}

func TestBranchExpressionShortCircuitsLogicalAnd(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Bool(false)))
	thenRod := vm.NewRodBuilder()
	thenRod.Append(&PushConstant{Value: vm.Bool(true)}, srcLoc)
	thenRod.Finalize()

	n := &BranchExpression{Kind: BranchLogicalAnd, Then: thenRod}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if v.AsBool() {
		t.Error("false && <unevaluated> should short-circuit to false")
	}
}

func TestBranchExpressionTernaryEvaluatesTakenSideOnly(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Bool(true)))
	thenRod := vm.NewRodBuilder()
	thenRod.Append(&PushConstant{Value: vm.Integer(1)}, srcLoc)
	thenRod.Finalize()
	elseRod := vm.NewRodBuilder()
	elseRod.Append(&PushConstant{Value: vm.Integer(2)}, srcLoc)
	elseRod.Finalize()

	n := &BranchExpression{Kind: BranchTernary, Then: thenRod, Else: elseRod}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != 1 {
		t.Errorf("ternary(true) = %v, want 1", got)
	}
}

func TestCatchExpressionCatchesRuntimeError(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	inner := vm.NewRodBuilder()
	inner.Append(&PushLocalReference{Depth: 0, Name: "undeclared"}, srcLoc)
	inner.Finalize()

	n := &CatchExpression{Inner: inner}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("CatchExpression.Exec should itself never error: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if v.IsNull() {
		t.Error("catching a runtime error should yield a non-null caught value")
	}
}

func TestCatchExpressionYieldsNullOnSuccess(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	inner := vm.NewRodBuilder()
	inner.Append(&PushConstant{Value: vm.Integer(1)}, srcLoc)
	inner.Finalize()

	n := &CatchExpression{Inner: inner}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if !v.IsNull() {
		t.Errorf("catch of a successful inner rod = %v, want null", v)
	}
}
