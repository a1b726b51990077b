package air

import (
	"github.com/cwbudde/go-asteria/internal/source"
	"github.com/cwbudde/go-asteria/internal/vm"

	cerr "github.com/cwbudde/go-asteria/internal/errors"
)

// FunctionCall pops Nargs argument references (pushed in source order)
// plus the callee, then either invokes synchronously or — when PTC is
// set — pushes a pending-tail-call marker for the enclosing
// return-statement to materialize (spec.md §5).
type FunctionCall struct {
	Nargs int
	PTC   bool
	Loc   source.Location
}

func (n *FunctionCall) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	args := make([]vm.Value, n.Nargs)
	for i := n.Nargs - 1; i >= 0; i-- {
		ref := ctx.Pop()
		v, err := ref.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
		args[i] = v
	}
	calleeRef := ctx.Pop()
	calleeVal, err := calleeRef.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	if n.PTC {
		ctx.Push(vm.PendingCall(calleeVal, args))
		return vm.StatusNext, nil
	}
	fn, ok := calleeVal.AsFunction()
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("call target is not a function", cerr.Frame{Type: cerr.FrameNative, Loc: n.Loc})
	}
	result, cerr2 := vm.CallFunction(fn, args, n.Loc)
	if cerr2 != nil {
		return vm.StatusNext, cerr2
	}
	ctx.Push(vm.Temp(result))
	return vm.StatusNext, nil
}

// AltFunctionCall is FunctionCall's argument-on-alt-stack variant: the
// callee is still popped off the main stack, but arguments were staged
// on the alt-stack by an AltClearStack + argument-evaluation sequence,
// skipping the transfer step the plain form needs (spec.md §4.6).
type AltFunctionCall struct {
	PTC bool
	Loc source.Location
}

func (n *AltFunctionCall) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	refs := ctx.AltSlice(0)
	ctx.ClearAlt()
	args := make([]vm.Value, len(refs))
	for i, ref := range refs {
		v, err := ref.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
		args[i] = v
	}
	calleeRef := ctx.Pop()
	calleeVal, err := calleeRef.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	if n.PTC {
		ctx.Push(vm.PendingCall(calleeVal, args))
		return vm.StatusNext, nil
	}
	fn, ok := calleeVal.AsFunction()
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("call target is not a function", cerr.Frame{Type: cerr.FrameNative, Loc: n.Loc})
	}
	result, cerr2 := vm.CallFunction(fn, args, n.Loc)
	if cerr2 != nil {
		return vm.StatusNext, cerr2
	}
	ctx.Push(vm.Temp(result))
	return vm.StatusNext, nil
}

// VariadicCall pops a generator reference and a callee reference (in
// that order, callee pushed first) and materializes the callee's
// argument list from the generator: an array supplies arguments
// directly; a function is treated as an index generator, called once
// with no arguments for a count N and then N times with successive
// integer indices (spec.md §4.8).
type VariadicCall struct{ Loc source.Location }

func (n *VariadicCall) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	genRef := ctx.Pop()
	genVal, err := genRef.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	calleeRef := ctx.Pop()
	calleeVal, err := calleeRef.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	fn, ok := calleeVal.AsFunction()
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("variadic-call target is not a function", cerr.Frame{Type: cerr.FrameNative, Loc: n.Loc})
	}

	var args []vm.Value
	if arr, ok := genVal.AsArray(); ok {
		args = append(args, arr.Elems...)
	} else if genFn, ok := genVal.AsFunction(); ok {
		countVal, cerr2 := vm.CallFunction(genFn, nil, n.Loc)
		if cerr2 != nil {
			return vm.StatusNext, cerr2
		}
		count, ok := countVal.AsInt()
		if !ok || count < 0 {
			return vm.StatusNext, cerr.NewRuntimeError("variadic-call generator must return a nonnegative integer count", cerr.Frame{Type: cerr.FrameNative, Loc: n.Loc})
		}
		for i := int64(0); i < count; i++ {
			argVal, cerr3 := vm.CallFunction(genFn, []vm.Value{vm.Integer(i)}, n.Loc)
			if cerr3 != nil {
				return vm.StatusNext, cerr3
			}
			args = append(args, argVal)
		}
	} else {
		return vm.StatusNext, cerr.NewRuntimeError("variadic-call generator must be an array or function", cerr.Frame{Type: cerr.FrameNative, Loc: n.Loc})
	}

	result, cerr4 := vm.CallFunction(fn, args, n.Loc)
	if cerr4 != nil {
		return vm.StatusNext, cerr4
	}
	ctx.Push(vm.Temp(result))
	return vm.StatusNext, nil
}

// ImportCall pops Nargs arguments (the first is the module path) and
// delegates to the host-supplied module loader, which lexes, parses,
// and lowers the target file as a variadic function before invoking it
// with the remaining arguments (spec.md §6).
type ImportCall struct {
	Nargs int
	Loc   source.Location
}

func (n *ImportCall) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	args := make([]vm.Value, n.Nargs)
	for i := n.Nargs - 1; i >= 0; i-- {
		ref := ctx.Pop()
		v, err := ref.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
		args[i] = v
	}
	if len(args) == 0 {
		return vm.StatusNext, cerr.NewRuntimeError("import() requires a path argument", cerr.Frame{Type: cerr.FrameNative, Loc: n.Loc})
	}
	path, ok := args[0].AsString()
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("import() path must be a string", cerr.Frame{Type: cerr.FrameNative, Loc: n.Loc})
	}
	result, cerr2 := ctx.Import(path, args[1:], n.Loc)
	if cerr2 != nil {
		return vm.StatusNext, cerr2
	}
	ctx.Push(vm.Temp(result))
	return vm.StatusNext, nil
}
