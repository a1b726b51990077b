package vm

import (
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/source"
)

// CallFunction invokes fn with args, materializing any chain of proper
// tail calls in place (spec.md §5) so call depth stays bounded instead of
// growing with the Go call stack.
func CallFunction(fn *Function, args []Value, loc source.Location) (Value, *cerr.RuntimeError) {
	for {
		if fn.Native != nil {
			v, err := fn.Native(fn.Closure, args)
			if err != nil {
				return Value{}, cerr.NewRuntimeError(err.Error(), cerr.Frame{Type: cerr.FrameNative, Loc: loc})
			}
			return v, nil
		}
		if fn.Closure.hooks != nil && fn.Closure.hooks.OnCall != nil {
			fn.Closure.hooks.OnCall(loc, FunctionOf(fn))
		}
		ctx := NewFunctionContext(fn, args)
		status, err := Run(fn.Body, ctx)
		if err != nil {
			err.AppendFrame(cerr.Frame{Type: cerr.FrameFunc, Loc: loc, Value: fn.Name})
			outer := ctx.RunDeferred(err)
			return Value{}, outer
		}
		if outer := ctx.RunDeferred(nil); outer != nil {
			return Value{}, outer
		}
		if status == StatusReturnVoid {
			return Null(), nil
		}
		ret := ctx.TakeReturn()
		if ret.IsPendingTailCall() {
			nextFn, ok := ret.tailPtc.Callee.AsFunction()
			if !ok {
				return Value{}, cerr.NewRuntimeError("tail call target is not a function", cerr.Frame{Type: cerr.FrameNative, Loc: loc})
			}
			fn, args = nextFn, ret.tailPtc.Args
			continue
		}
		val, rerr := ret.Read()
		if rerr != nil {
			return Value{}, cerr.NewRuntimeError(rerr.Error(), cerr.Frame{Type: cerr.FrameNative, Loc: loc})
		}
		return val, nil
	}
}
