package vm

import (
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/source"
)

// Hooks are the optional callbacks the global context exposes
// (spec.md §6); any callback left nil is simply not invoked.
type Hooks struct {
	OnDeclare func(loc source.Location, name string)
	OnCall    func(loc source.Location, callee Value)
	OnReturn  func(loc source.Location, ptc bool)
	OnThrow   func(loc source.Location, value Value)
	OnTrap    func(loc source.Location, ctx *Context)
}

// deferredEntry is one registered defer-expression, captured as a rod
// plus the context it must rebind against (its own local references were
// already resolved at lowering time; only the runtime variable cells are
// looked up lazily here).
type deferredEntry struct {
	rod *Rod
	ctx *Context
}

// Context is the Executive_Context: the runtime counterpart of
// compiler.Context. It owns one lexical frame's named variables, its own
// reference/alt stacks and defer list, and chains to a parent; the return
// reference is recorded on the nearest function-root frame (spec.md §4.5).
type Context struct {
	parent *Context
	global *Context
	names  map[string]*variable

	refStack  []Reference
	altStack  []Reference
	deferList []deferredEntry
	status    Status

	hooks       *Hooks
	currentFile string
	importing   map[string]bool // paths currently being parsed (circular-import guard)

	funcRoot *Context // the nearest enclosing function-invocation frame
	retRef   Reference

	importer Importer
}

// Importer loads and runs a module relative to fromFile, returning the
// value the module's top-level body produced. The host (pkg/asteria)
// supplies the concrete implementation, since resolving and lowering
// source lives in internal/compiler, which vm must not import.
type Importer interface {
	Import(fromFile, path string, args []Value, loc source.Location) (Value, error)
}

// NewGlobalContext creates the outermost executive context.
func NewGlobalContext(hooks *Hooks) *Context {
	c := &Context{names: make(map[string]*variable), hooks: hooks, importing: make(map[string]bool)}
	c.global = c
	c.funcRoot = c
	return c
}

// NewChild creates a nested block-scope frame with its own, initially
// empty, reference and alt stacks.
func (c *Context) NewChild() *Context {
	return &Context{parent: c, global: c.global, names: make(map[string]*variable), hooks: c.hooks, importing: c.global.importing, currentFile: c.currentFile, funcRoot: c.funcRoot}
}

// NewFunctionContext creates a fresh function-invocation frame: its own
// funcRoot, parented on closure (the context the function literal
// captured), with __this/__func/__varg and each parameter predeclared.
func NewFunctionContext(fn *Function, args []Value) *Context {
	parent := fn.Closure
	c := &Context{parent: parent, global: parent.global, names: make(map[string]*variable), hooks: parent.hooks, importing: parent.global.importing, currentFile: parent.currentFile}
	c.funcRoot = c
	c.Declare("__this", false).value = Null()
	c.names["__this"].initialized = true
	c.Declare("__func", false)
	fnVar := c.names["__func"]
	fnVar.value, fnVar.initialized = FunctionOf(fn), true
	rest := args
	for _, p := range fn.Params {
		v := c.Declare(p, false)
		if len(rest) > 0 {
			v.value, rest = rest[0], rest[1:]
		} else {
			v.value = Null()
		}
		v.initialized = true
	}
	vargVar := c.Declare("__varg", false)
	vargVar.value, vargVar.initialized = ArrayOf(&Array{Elems: append([]Value(nil), rest...)}), true
	return c
}

// SetReturn records the function's return reference on its funcRoot frame.
func (c *Context) SetReturn(r Reference) { c.funcRoot.retRef = r }

// TakeReturn returns this frame's recorded return reference (valid only
// when called on a funcRoot frame after Run returns StatusReturn).
func (c *Context) TakeReturn() Reference { return c.retRef }

// Global returns the outermost context.
func (c *Context) Global() *Context { return c.global }

// Hooks returns the configured hook set, or nil.
func (c *Context) Hooks() *Hooks { return c.hooks }

// Declare inserts a fresh, uninitialized variable cell named name into
// this frame only, returning it for later Initialize/Write.
func (c *Context) Declare(name string, immutable bool) *variable {
	v := &variable{immutable: immutable}
	c.names[name] = v
	return v
}

// BindAlias binds name in this frame directly to an existing variable
// cell (no new storage), implementing `ref` declarations.
func (c *Context) BindAlias(name string, cell *variable) {
	c.names[name] = cell
}

// Lookup walks depth parents (0 = this frame) and returns the named
// variable's reference, or found=false.
func (c *Context) Lookup(depth int, name string) (Reference, bool) {
	cur := c
	for i := 0; i < depth && cur != nil; i++ {
		cur = cur.parent
	}
	if cur == nil {
		return Reference{}, false
	}
	v, ok := cur.names[name]
	if !ok {
		return Reference{}, false
	}
	return FromVariable(v), true
}

// LookupGlobal resolves name against the global frame only.
func (c *Context) LookupGlobal(name string) (Reference, bool) {
	v, ok := c.global.names[name]
	if !ok {
		return Reference{}, false
	}
	return FromVariable(v), true
}

// GetGlobal reads a global variable's value for the host embedding
// interface (spec.md §6's get/put/erase), returning found=false if
// name was never declared or is still uninitialized.
func (c *Context) GetGlobal(name string) (Value, bool) {
	v, ok := c.global.names[name]
	if !ok || !v.initialized {
		return Value{}, false
	}
	return v.value, true
}

// PutGlobal declares (if needed) and sets a global variable, for host
// embedding.
func (c *Context) PutGlobal(name string, val Value) {
	v, ok := c.global.names[name]
	if !ok {
		v = c.global.Declare(name, false)
	}
	v.value, v.initialized = val, true
}

// EraseGlobal removes a global variable entirely.
func (c *Context) EraseGlobal(name string) {
	delete(c.global.names, name)
}

// Push appends a reference to the reference stack (the operand stack
// expression evaluation pushes results to and pops operands from).
func (c *Context) Push(r Reference) { c.refStack = append(c.refStack, r) }

// Pop removes and returns the top reference stack entry.
func (c *Context) Pop() Reference {
	n := len(c.refStack)
	r := c.refStack[n-1]
	c.refStack = c.refStack[:n-1]
	return r
}

// Top returns the top reference stack entry without removing it.
func (c *Context) Top() Reference { return c.refStack[len(c.refStack)-1] }

// ClearStack truncates the reference stack to depth.
func (c *Context) ClearStack(depth int) { c.refStack = c.refStack[:depth] }

// Depth returns the current reference stack depth.
func (c *Context) Depth() int { return len(c.refStack) }

// PushAlt/PopAlt/ClearAlt mirror Push/Pop/ClearStack for the alt-stack
// argument-frame staging area.
func (c *Context) PushAlt(r Reference) { c.altStack = append(c.altStack, r) }
func (c *Context) PopAlt() Reference {
	n := len(c.altStack)
	r := c.altStack[n-1]
	c.altStack = c.altStack[:n-1]
	return r
}
func (c *Context) ClearAlt()     { c.altStack = c.altStack[:0] }
func (c *Context) AltDepth() int { return len(c.altStack) }
func (c *Context) AltSlice(from int) []Reference {
	out := append([]Reference(nil), c.altStack[from:]...)
	return out
}

// Defer registers rod to run (LIFO) when this frame's scope exits.
func (c *Context) Defer(rod *Rod, ctx *Context) {
	c.deferList = append(c.deferList, deferredEntry{rod: rod, ctx: ctx})
}

// RunDeferred executes this frame's deferred expressions in reverse of
// registration order, as required on both normal and exceptional exit.
// A nested error is caught into outer (if non-nil) so the original
// propagation continues; otherwise the first deferred error wins.
func (c *Context) RunDeferred(outer *cerr.RuntimeError) *cerr.RuntimeError {
	for i := len(c.deferList) - 1; i >= 0; i-- {
		entry := c.deferList[i]
		_, err := Run(entry.rod, entry.ctx)
		if err != nil && outer == nil {
			outer = err
		}
	}
	c.deferList = nil
	return outer
}

// SetFile records the current source file, used to resolve relative
// import() paths.
func (c *Context) SetFile(file string) { c.currentFile = file }

// File returns the current source file.
func (c *Context) File() string { return c.currentFile }

// BeginImport registers path as in-flight; ok is false if it is already
// being parsed (circular import).
func (c *Context) BeginImport(path string) (ok bool) {
	g := c.global
	if g.importing[path] {
		return false
	}
	g.importing[path] = true
	return true
}

// EndImport clears path's in-flight marker.
func (c *Context) EndImport(path string) { delete(c.global.importing, path) }

// SetImporter installs the host's module loader on the global context.
func (c *Context) SetImporter(imp Importer) { c.global.importer = imp }

// Import resolves and runs path (relative to this context's current
// file) through the installed Importer, guarding against circular
// imports via BeginImport/EndImport.
func (c *Context) Import(path string, args []Value, loc source.Location) (Value, *cerr.RuntimeError) {
	imp := c.global.importer
	if imp == nil {
		return Value{}, cerr.NewRuntimeError("import() is not available in this host", cerr.Frame{Type: cerr.FrameNative, Loc: loc})
	}
	key := c.currentFile + "\x00" + path
	if !c.BeginImport(key) {
		return Value{}, cerr.NewRuntimeError("circular import: "+path, cerr.Frame{Type: cerr.FrameNative, Loc: loc})
	}
	defer c.EndImport(key)
	v, err := imp.Import(c.currentFile, path, args, loc)
	if err != nil {
		if rerr, ok := err.(*cerr.RuntimeError); ok {
			return Value{}, rerr
		}
		return Value{}, cerr.NewRuntimeError(err.Error(), cerr.Frame{Type: cerr.FrameNative, Loc: loc})
	}
	return v, nil
}
