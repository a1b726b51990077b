// Package air defines the ~40 AIR node variants of spec.md §3 and their
// Exec methods, which double as the rod's per-opcode handlers
// (spec.md §4.7 describes these as a function pointer bound into each
// sealed record; here that binding is simply Go's method dispatch).
// Lowering itself (AST -> these node values) lives in package compiler.
package air

import (
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/source"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// PushConstant pushes a literal value as a temporary reference.
type PushConstant struct{ Value vm.Value }

func (n *PushConstant) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ctx.Push(vm.Temp(n.Value))
	return vm.StatusNext, nil
}

// PushLocalReference walks Depth parents and pushes the named variable's
// reference, erroring if no such frame declares it.
type PushLocalReference struct {
	Depth int
	Name  string
}

func (n *PushLocalReference) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ref, ok := ctx.Lookup(n.Depth, n.Name)
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("undeclared identifier: "+n.Name, cerr.Frame{Type: cerr.FrameNative})
	}
	ctx.Push(ref)
	return vm.StatusNext, nil
}

// PushGlobalReference pushes a name resolved against the global frame.
type PushGlobalReference struct{ Name string }

func (n *PushGlobalReference) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ref, ok := ctx.LookupGlobal(n.Name)
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("undeclared global identifier: "+n.Name, cerr.Frame{Type: cerr.FrameNative})
	}
	ctx.Push(ref)
	return vm.StatusNext, nil
}

// MemberAccess pops a reference and pushes it with a string-key subscript
// appended (the `.name` and constant-string `[key]` forms, per the
// constant-folding rule in spec.md §4.6).
type MemberAccess struct{ Key string }

func (n *MemberAccess) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	base := ctx.Pop()
	ctx.Push(base.WithSubscript(vm.Subscript{Kind: vm.SubObjectKey, Key: n.Key}))
	return vm.StatusNext, nil
}

// PushUnnamedArray pops Count preceding values (in source order) and
// pushes a freshly constructed array.
type PushUnnamedArray struct{ Count int }

func (n *PushUnnamedArray) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	elems := make([]vm.Value, n.Count)
	for i := n.Count - 1; i >= 0; i-- {
		ref := ctx.Pop()
		v, err := ref.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
		elems[i] = v
	}
	ctx.Push(vm.Temp(vm.ArrayOf(&vm.Array{Elems: elems})))
	return vm.StatusNext, nil
}

// PushUnnamedObject pops len(Keys) preceding values (in source order) and
// pushes a freshly constructed object keyed by Keys.
type PushUnnamedObject struct{ Keys []string }

func (n *PushUnnamedObject) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	obj := vm.NewObject()
	vals := make([]vm.Value, len(n.Keys))
	for i := len(n.Keys) - 1; i >= 0; i-- {
		ref := ctx.Pop()
		v, err := ref.Read()
		if err != nil {
			return vm.StatusNext, wrap(err)
		}
		vals[i] = v
	}
	for i, k := range n.Keys {
		obj.Set(k, vals[i])
	}
	ctx.Push(vm.Temp(vm.ObjectOf(obj)))
	return vm.StatusNext, nil
}

// ClearStack truncates the reference stack to Depth (stack-control node
// emitted to discard an expression-statement's leftover value).
type ClearStack struct{ Depth int }

func (n *ClearStack) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ctx.ClearStack(n.Depth)
	return vm.StatusNext, nil
}

// AltClearStack truncates the alt-stack to zero, starting a fresh
// argument frame for an upcoming AltFunctionCall.
type AltClearStack struct{}

func (n *AltClearStack) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ctx.ClearAlt()
	return vm.StatusNext, nil
}

// DeclareVariable inserts an uninitialized variable named Name into the
// current frame; a later InitializeVariable seals its first value.
type DeclareVariable struct {
	Name      string
	Immutable bool
}

func (n *DeclareVariable) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ctx.Declare(n.Name, n.Immutable)
	if h := ctx.Hooks(); h != nil && h.OnDeclare != nil {
		h.OnDeclare(srcLoc, n.Name)
	}
	return vm.StatusNext, nil
}

// InitializeVariable pops the top-of-stack value and seals it as Name's
// first value in the current frame (Name must already be declared there).
type InitializeVariable struct {
	Name      string
	Immutable bool
}

func (n *InitializeVariable) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ref := ctx.Pop()
	val, err := ref.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	target, ok := ctx.Lookup(0, n.Name)
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("undeclared identifier: "+n.Name, cerr.Frame{Type: cerr.FrameNative})
	}
	if ierr := target.Initialize(val, n.Immutable); ierr != nil {
		return vm.StatusNext, wrap(ierr)
	}
	return vm.StatusNext, nil
}

// DefineNullVariable declares and initializes Name to null in one step
// (the fast path for a `var x;` with no initializer expression).
type DefineNullVariable struct{ Name string }

func (n *DefineNullVariable) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	v := ctx.Declare(n.Name, false)
	_ = vm.FromVariable(v).Initialize(vm.Null(), false)
	return vm.StatusNext, nil
}

// DeclareReference inserts an uninitialized reference-binding slot for
// Name in the current frame (paired with InitializeReference).
type DeclareReference struct{ Name string }

func (n *DeclareReference) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ctx.Declare(n.Name, false)
	return vm.StatusNext, nil
}

// InitializeReference pops a reference from the stack and aliases Name to
// whatever variable cell it points at, so later reads/writes through
// either name observe the same storage.
type InitializeReference struct{ Name string }

func (n *InitializeReference) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	aliased := ctx.Pop()
	cell, ok := aliased.Variable()
	if !ok {
		return vm.StatusNext, cerr.NewRuntimeError("ref initializer is not an addressable variable", cerr.Frame{Type: cerr.FrameNative})
	}
	ctx.BindAlias(n.Name, cell)
	return vm.StatusNext, nil
}

// DefineFunction builds a closure over the current frame and binds it to
// Name as a mutable variable, mirroring a named `func` declaration.
type DefineFunction struct {
	Name     string
	Params   []string
	Variadic bool
	Body     *vm.Rod
}

func (n *DefineFunction) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	fn := &vm.Function{Name: n.Name, Params: n.Params, Variadic: n.Variadic, Body: n.Body, Closure: ctx}
	v := ctx.Declare(n.Name, false)
	_ = vm.FromVariable(v).Initialize(vm.FunctionOf(fn), false)
	return vm.StatusNext, nil
}

// PushClosureValue pushes an anonymous function literal's value without
// binding it to any name (the expression form `func(...) {...}`).
type PushClosureValue struct {
	Name     string
	Params   []string
	Variadic bool
	Body     *vm.Rod
}

func (n *PushClosureValue) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	fn := &vm.Function{Name: n.Name, Params: n.Params, Variadic: n.Variadic, Body: n.Body, Closure: ctx}
	ctx.Push(vm.Temp(vm.FunctionOf(fn)))
	return vm.StatusNext, nil
}

// SimpleStatus unconditionally yields Value (a break/continue node).
type SimpleStatus struct{ Value vm.Status }

func (n *SimpleStatus) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	return n.Value, nil
}

// SingleStepTrap fires the on_trap hook, emitted before every
// sub-expression when verbose_single_step_traps is on.
type SingleStepTrap struct{}

func (n *SingleStepTrap) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	if h := ctx.Hooks(); h != nil && h.OnTrap != nil {
		h.OnTrap(srcLoc, ctx)
	}
	return vm.StatusNext, nil
}

// UnpackArray pops an array value and destructures it positionally into
// the given names, declaring each in the current frame, missing elements
// bound to null.
type UnpackArray struct{ Names []string }

func (n *UnpackArray) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ref := ctx.Pop()
	val, err := ref.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	arr, _ := val.AsArray()
	for i, name := range n.Names {
		var elem vm.Value
		if arr != nil && i < len(arr.Elems) {
			elem = arr.Elems[i]
		} else {
			elem = vm.Null()
		}
		v := ctx.Declare(name, false)
		_ = vm.FromVariable(v).Initialize(elem, false)
	}
	return vm.StatusNext, nil
}

// UnpackObject pops an object value and destructures it by key into the
// given names, declaring each in the current frame, absent keys bound to
// null.
type UnpackObject struct{ Names []string }

func (n *UnpackObject) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ref := ctx.Pop()
	val, err := ref.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	obj, _ := val.AsObject()
	for _, name := range n.Names {
		elem := vm.Null()
		if obj != nil {
			if v, ok := obj.Get(name); ok {
				elem = v
			}
		}
		v := ctx.Declare(name, false)
		_ = vm.FromVariable(v).Initialize(elem, false)
	}
	return vm.StatusNext, nil
}

// CheckArgument validates the top-of-stack reference is dereferenceable
// before a call site consumes it; unless ByRef, it is also collapsed to
// a temporary so the callee cannot mutate the caller's variable.
type CheckArgument struct{ ByRef bool }

func (n *CheckArgument) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	top := ctx.Pop()
	if !top.Dereferenceable() {
		return vm.StatusNext, cerr.NewRuntimeError("argument reference is not dereferenceable", cerr.Frame{Type: cerr.FrameNative})
	}
	if n.ByRef {
		if !top.IsVariable() {
			return vm.StatusNext, cerr.NewRuntimeError("ref argument requires an addressable variable", cerr.Frame{Type: cerr.FrameNative})
		}
		ctx.Push(top)
		return vm.StatusNext, nil
	}
	val, err := top.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	ctx.Push(vm.Temp(val))
	return vm.StatusNext, nil
}

// CheckNull rejects a null top-of-stack value without consuming it. The
// lowerer does not emit it; ThrowStatement rejects null on its own.
type CheckNull struct{}

func (n *CheckNull) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	top := ctx.Top()
	val, err := top.Read()
	if err != nil {
		return vm.StatusNext, wrap(err)
	}
	if val.IsNull() {
		return vm.StatusNext, cerr.NewRuntimeError("null is not a valid value here", cerr.Frame{Type: cerr.FrameNative})
	}
	return vm.StatusNext, nil
}

// srcLoc is a placeholder location for hook callbacks fired by nodes
// that do not themselves carry one; the enclosing Record's Loc (see
// vm.Record) is what diagnostics actually render.
var srcLoc source.Location

// wrap lifts a plain Go error (from Reference.Read/Write or arithmetic)
// into a Runtime_Error with a single native frame.
func wrap(err error) *cerr.RuntimeError {
	return cerr.NewRuntimeError(err.Error(), cerr.Frame{Type: cerr.FrameNative})
}
