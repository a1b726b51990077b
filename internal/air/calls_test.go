package air

import (
	"testing"

	"github.com/cwbudde/go-asteria/internal/vm"
)

func nativeDouble(ctx *vm.Context, args []vm.Value) (vm.Value, error) {
	n, _ := args[0].AsInt()
	return vm.Integer(n * 2), nil
}

func TestFunctionCallInvokesNativeFunction(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	fn := &vm.Function{Name: "double", Native: nativeDouble, Closure: ctx}
	ctx.Push(vm.Temp(vm.FunctionOf(fn)))
	ctx.Push(vm.Temp(vm.Integer(21)))

	n := &FunctionCall{Nargs: 1}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != 42 {
		t.Errorf("double(21) = %v, want 42", got)
	}
}

func TestFunctionCallRejectsNonFunctionCallee(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	ctx.Push(vm.Temp(vm.Integer(1))) // not callable
	n := &FunctionCall{Nargs: 0}
	if _, err := n.Exec(ctx); err == nil {
		t.Fatal("calling a non-function value should fail")
	}
}

func TestFunctionCallPTCPushesPendingMarker(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	fn := &vm.Function{Name: "double", Native: nativeDouble, Closure: ctx}
	ctx.Push(vm.Temp(vm.FunctionOf(fn)))
	ctx.Push(vm.Temp(vm.Integer(5)))

	n := &FunctionCall{Nargs: 1, PTC: true}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	top := ctx.Pop()
	if !top.IsPendingTailCall() {
		t.Error("PTC call should push a pending-tail-call reference instead of invoking immediately")
	}
}

func TestVariadicCallExpandsArrayGenerator(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	sum := &vm.Function{Name: "sum", Closure: ctx, Native: func(ctx *vm.Context, args []vm.Value) (vm.Value, error) {
		var total int64
		for _, a := range args {
			n, _ := a.AsInt()
			total += n
		}
		return vm.Integer(total), nil
	}}
	ctx.Push(vm.Temp(vm.FunctionOf(sum)))
	ctx.Push(vm.Temp(vm.ArrayOf(&vm.Array{Elems: []vm.Value{vm.Integer(1), vm.Integer(2), vm.Integer(3)}})))

	n := &VariadicCall{}
	if _, err := n.Exec(ctx); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	v, _ := ctx.Pop().Read()
	if got, _ := v.AsInt(); got != 6 {
		t.Errorf("sum(...[1,2,3]) = %v, want 6", got)
	}
}

func TestImportCallRequiresPathArgument(t *testing.T) {
	ctx := vm.NewGlobalContext(nil)
	n := &ImportCall{Nargs: 0}
	if _, err := n.Exec(ctx); err == nil {
		t.Fatal("import() with no path argument should fail")
	}
}
