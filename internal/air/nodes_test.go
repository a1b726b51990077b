package air

import (
	"testing"

	"github.com/cwbudde/go-asteria/internal/vm"
)

func TestPushConstantPushesTemp(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	n := &PushConstant{Value: vm.Integer(7)}
	status, err := n.Exec(ctx)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if status != vm.StatusNext {
		t.Errorf("status = %v, want StatusNext", status)
	}
	v, rerr := ctx.Pop().Read()
	if rerr != nil {
		t.Fatalf("Read: %v", rerr)
	}
	if got, _ := v.AsInt(); got != 7 {
		t.Errorf("pushed value = %v, want 7", got)
	}
}

func TestPushLocalReferenceResolvesDeclaredName(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	cell := ctx.Declare("x", false)
	_ = vm.FromVariable(cell).Initialize(vm.Integer(5), false)

	n := &PushLocalReference{Depth: 0, Name: "x"}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != 5 {
		t.Errorf("x = %v, want 5", got)
	}
}

func TestPushLocalReferenceUndeclaredErrors(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	n := &PushLocalReference{Depth: 0, Name: "missing"}
	if _, err := n.Exec(ctx); err == nil {
		t.Fatal("expected an undeclared-identifier error")
	}
}

func TestClearStackTruncatesToDepth(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(1)))
	ctx.Push(vm.Temp(vm.Integer(2)))
	ctx.Push(vm.Temp(vm.Integer(3)))
	n := &ClearStack{Depth: 1}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if ctx.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", ctx.Depth())
	}
}

func TestDeclareThenInitializeVariable(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	if _, err := (&DeclareVariable{Name: "x"}).Exec(ctx); err != nil {
		t.Fatalf("DeclareVariable.Exec: %v", err)
	}
	ctx.Push(vm.Temp(vm.Integer(9)))
	if _, err := (&InitializeVariable{Name: "x"}).Exec(ctx); err != nil {
		t.Fatalf("InitializeVariable.Exec: %v", err)
	}
	ref, ok := ctx.Lookup(0, "x")
	if !ok {
		t.Fatal("x should be declared")
	}
	v, _ := ref.Read()
	if got, _ := v.AsInt(); got != 9 {
		t.Errorf("x = %v, want 9", got)
	}
}

func TestInitializeVariableUndeclaredErrors(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(1)))
	if _, err := (&InitializeVariable{Name: "nope"}).Exec(ctx); err == nil {
		t.Fatal("expected an undeclared-identifier error")
	}
}

func TestDefineNullVariableInitializesToNull(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	if _, err := (&DefineNullVariable{Name: "x"}).Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	ref, _ := ctx.Lookup(0, "x")
	v, _ := ref.Read()
	if !v.IsNull() {
		t.Errorf("x = %v, want null", v)
	}
}

func TestUnpackArrayBindsPositionallyWithNullPadding(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.ArrayOf(&vm.Array{Elems: []vm.Value{vm.Integer(1), vm.Integer(2)}})))
	n := &UnpackArray{Names: []string{"a", "b", "c"}}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	aRef, _ := ctx.Lookup(0, "a")
	av, _ := aRef.Read()
	if got, _ := av.AsInt(); got != 1 {
		t.Errorf("a = %v, want 1", got)
	}
	cRef, _ := ctx.Lookup(0, "c")
	cv, _ := cRef.Read()
	if !cv.IsNull() {
		t.Errorf("c (missing element) = %v, want null", cv)
	}
}

func TestUnpackObjectBindsByKeyWithNullForMissing(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	obj := vm.NewObject()
	obj.Set("a", vm.Integer(10))
	ctx.Push(vm.Temp(vm.ObjectOf(obj)))
	n := &UnpackObject{Names: []string{"a", "b"}}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	aRef, _ := ctx.Lookup(0, "a")
	av, _ := aRef.Read()
	if got, _ := av.AsInt(); got != 10 {
		t.Errorf("a = %v, want 10", got)
	}
	bRef, _ := ctx.Lookup(0, "b")
	bv, _ := bRef.Read()
	if !bv.IsNull() {
		t.Errorf("b (missing key) = %v, want null", bv)
	}
}

func TestCheckArgumentByValueCollapsesToTemp(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	cell := ctx.Declare("x", false)
	_ = vm.FromVariable(cell).Initialize(vm.Integer(4), false)
	ref, _ := ctx.Lookup(0, "x")
	ctx.Push(ref)

	if _, err := (&CheckArgument{ByRef: false}).Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	top := ctx.Pop()
	if top.IsVariable() {
		t.Error("by-value argument should be collapsed to a temporary")
	}
}

func TestCheckArgumentByRefRequiresVariable(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(1)))
	if _, err := (&CheckArgument{ByRef: true}).Exec(ctx); err == nil {
		t.Fatal("by-ref argument over a temporary should fail")
	}
}

func TestCheckArgumentRejectsUninitializedVariable(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	cell := ctx.Declare("x", false)
	ctx.Push(vm.FromVariable(cell))
	if _, err := (&CheckArgument{ByRef: false}).Exec(ctx); err == nil {
		t.Fatal("an uninitialized variable argument should fail Dereferenceable check")
	}
}

func TestCheckNullRejectsNullWithoutConsuming(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Null()))
	if _, err := (&CheckNull{}).Exec(ctx); err == nil {
		t.Fatal("expected CheckNull to reject a null top-of-stack value")
	}
	if ctx.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1 (CheckNull must not consume)", ctx.Depth())
	}
}

func TestCheckNullAllowsNonNull(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(1)))
	if _, err := (&CheckNull{}).Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
}

func TestSimpleStatusReturnsFixedValue(t *testing.T) {
	n := &SimpleStatus{Value: vm.StatusBreakFor}
	status, err := n.Exec(vm.NewGlobalContext(nil))
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if status != vm.StatusBreakFor {
		t.Errorf("status = %v, want StatusBreakFor", status)
	}
}

func TestPushUnnamedArrayPreservesSourceOrder(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(1)))
	ctx.Push(vm.Temp(vm.Integer(2)))
	ctx.Push(vm.Temp(vm.Integer(3)))
	if _, err := (&PushUnnamedArray{Count: 3}).Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	arr, _ := v.AsArray()
	for i, want := range []int64{1, 2, 3} {
		if got, _ := arr.Elems[i].AsInt(); got != want {
			t.Errorf("Elems[%d] = %v, want %d", i, got, want)
		}
	}
}

func TestPushUnnamedObjectAssignsKeysInOrder(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.String("x")))
	ctx.Push(vm.Temp(vm.String("y")))
	if _, err := (&PushUnnamedObject{Keys: []string{"a", "b"}}).Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	obj, _ := v.AsObject()
	a, _ := obj.Get("a")
	if s, _ := a.AsString(); s != "x" {
		t.Errorf("a = %v, want x", a)
	}
	b, _ := obj.Get("b")
	if s, _ := b.AsString(); s != "y" {
		t.Errorf("b = %v, want y", b)
	}
}
