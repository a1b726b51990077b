package air

import (
	"github.com/cwbudde/go-asteria/internal/ast"
	"github.com/cwbudde/go-asteria/internal/source"
	"github.com/cwbudde/go-asteria/internal/vm"

	cerr "github.com/cwbudde/go-asteria/internal/errors"
)

// ExecuteBlock runs Body in a fresh child scope and runs that scope's
// deferred expressions on every exit path (spec.md §4.8's Block unit).
type ExecuteBlock struct{ Body *vm.Rod }

func (n *ExecuteBlock) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	child := ctx.NewChild()
	status, err := vm.Run(n.Body, child)
	return status, child.RunDeferred(err)
}

// IfStatement evaluates CondRod's single pushed result and runs Then or
// Else accordingly. Else may be nil for a bare if.
type IfStatement struct {
	CondRod *vm.Rod
	Then    *vm.Rod
	Else    *vm.Rod
}

func (n *IfStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	cond, err := evalSingle(ctx, n.CondRod)
	if err != nil {
		return vm.StatusNext, err
	}
	if cond.AsBool() {
		return runBlock(ctx, n.Then)
	}
	if n.Else != nil {
		return runBlock(ctx, n.Else)
	}
	return vm.StatusNext, nil
}

// SwitchClauseKind tags one clause of a SwitchStatement.
type SwitchClauseKind int

const (
	ClauseCase SwitchClauseKind = iota
	ClauseDefault
	ClauseEach
)

// SwitchClauseAIR is one lowered switch clause. A clause without HighRod
// (every ClauseCase) matches when the value equals LowRod's result; for
// ClauseEach, LowRod/HighRod bound the interval ([Low,High] by default;
// OpenLow/OpenHigh make either end exclusive).
type SwitchClauseAIR struct {
	Kind     SwitchClauseKind
	LowRod   *vm.Rod
	HighRod  *vm.Rod
	OpenLow  bool
	OpenHigh bool
	Body     *vm.Rod
}

// SwitchStatement dispatches Control's value against Clauses in order:
// execution starts at the first matching clause's Body and falls through
// the bodies of all later clauses until a break or another non-Next
// status (spec.md §4.8). Names declared
// in clauses skipped over are still pre-declared, uninitialized, in the
// shared body scope: a later clause reading one trips the
// bypassed-initializer error on use rather than "undeclared identifier".
type SwitchStatement struct {
	Control *vm.Rod
	Clauses []SwitchClauseAIR
}

func (n *SwitchStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	val, err := evalSingle(ctx, n.Control)
	if err != nil {
		return vm.StatusNext, err
	}
	child := ctx.NewChild()
	falling := false
	for _, clause := range n.Clauses {
		matched := falling
		if !matched {
			switch clause.Kind {
			case ClauseDefault:
				matched = true
			case ClauseCase, ClauseEach:
				matched, err = n.clauseMatches(child, val, clause)
				if err != nil {
					return vm.StatusNext, err
				}
			}
		}
		if !matched {
			predeclareBypassedNames(child, clause.Body)
			continue
		}
		falling = true
		status, rerr := vm.Run(clause.Body, child)
		rerr = child.RunDeferred(rerr)
		if rerr != nil {
			return vm.StatusNext, rerr
		}
		if status == vm.StatusBreakSwitch || status == vm.StatusBreakAny {
			return vm.StatusNext, nil
		}
		if status != vm.StatusNext {
			return status, nil
		}
		// fall through to next clause on StatusNext
	}
	return vm.StatusNext, nil
}

func (n *SwitchStatement) clauseMatches(ctx *vm.Context, val vm.Value, clause SwitchClauseAIR) (bool, *cerr.RuntimeError) {
	low, err := evalSingle(ctx, clause.LowRod)
	if err != nil {
		return false, err
	}
	if clause.HighRod == nil {
		eq, cmpErr := vm.ApplyBinary(ast.OpEq, val, low)
		if cmpErr != nil {
			return false, wrap(cmpErr)
		}
		return eq.AsBool(), nil
	}
	high, err := evalSingle(ctx, clause.HighRod)
	if err != nil {
		return false, err
	}
	loOp, hiOp := ast.OpGreaterEq, ast.OpLessEq
	if clause.OpenLow {
		loOp = ast.OpGreater
	}
	if clause.OpenHigh {
		hiOp = ast.OpLess
	}
	loOk, lerr := vm.ApplyBinary(loOp, val, low)
	if lerr != nil {
		return false, wrap(lerr)
	}
	if !loOk.AsBool() {
		return false, nil
	}
	hiOk, herr := vm.ApplyBinary(hiOp, val, high)
	if herr != nil {
		return false, wrap(herr)
	}
	return hiOk.AsBool(), nil
}

// predeclareBypassedNames walks a skipped clause's top-level body and
// declares (uninitialized) every name a DeclareVariable record there would
// have introduced, without running any of the body's other side effects.
// Nested blocks (if/for/switch/closures) get their own scope when actually
// executed, so their declarations are left alone here.
func predeclareBypassedNames(ctx *vm.Context, body *vm.Rod) {
	if body == nil {
		return
	}
	for _, rec := range body.Records() {
		if d, ok := rec.Node.(*DeclareVariable); ok {
			ctx.Declare(d.Name, d.Immutable)
		}
	}
}

// DoWhileStatement runs Body at least once, then loops while Cond holds.
type DoWhileStatement struct {
	Body *vm.Rod
	Cond *vm.Rod
}

func (n *DoWhileStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	for {
		status, err := runBlock(ctx, n.Body)
		if err != nil {
			return vm.StatusNext, err
		}
		if status.IsBreak() {
			if status == vm.StatusBreakWhile || status == vm.StatusBreakAny {
				return vm.StatusNext, nil
			}
			return status, nil
		}
		if status.IsContinue() && status != vm.StatusContinueWhile && status != vm.StatusContinueAny {
			return status, nil
		}
		if status == vm.StatusReturn || status == vm.StatusReturnVoid {
			return status, nil
		}
		cond, err := evalSingle(ctx, n.Cond)
		if err != nil {
			return vm.StatusNext, err
		}
		if !cond.AsBool() {
			return vm.StatusNext, nil
		}
	}
}

// WhileStatement tests Cond before each iteration of Body.
type WhileStatement struct {
	Cond *vm.Rod
	Body *vm.Rod
}

func (n *WhileStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	for {
		cond, err := evalSingle(ctx, n.Cond)
		if err != nil {
			return vm.StatusNext, err
		}
		if !cond.AsBool() {
			return vm.StatusNext, nil
		}
		status, rerr := runBlock(ctx, n.Body)
		if rerr != nil {
			return vm.StatusNext, rerr
		}
		if status.IsBreak() {
			if status == vm.StatusBreakWhile || status == vm.StatusBreakAny {
				return vm.StatusNext, nil
			}
			return status, nil
		}
		if status.IsContinue() {
			if status == vm.StatusContinueWhile || status == vm.StatusContinueAny {
				continue
			}
			return status, nil
		}
		if status != vm.StatusNext {
			return status, nil
		}
	}
}

// ForStatement is the classic three-clause loop; any of Init/Cond/Step
// may be nil.
type ForStatement struct {
	Init *vm.Rod
	Cond *vm.Rod
	Step *vm.Rod
	Body *vm.Rod
}

func (n *ForStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	child := ctx.NewChild()
	if n.Init != nil {
		if status, err := vm.Run(n.Init, child); err != nil {
			return vm.StatusNext, err
		} else if status != vm.StatusNext {
			return status, nil
		}
	}
	for {
		if n.Cond != nil {
			cond, err := evalSingle(child, n.Cond)
			if err != nil {
				return vm.StatusNext, err
			}
			if !cond.AsBool() {
				break
			}
		}
		status, err := runBlock(child, n.Body)
		if err != nil {
			return vm.StatusNext, err
		}
		if status.IsBreak() {
			if status == vm.StatusBreakFor || status == vm.StatusBreakAny {
				break
			}
			return status, nil
		}
		if status.IsContinue() {
			if status != vm.StatusContinueFor && status != vm.StatusContinueAny {
				return status, nil
			}
		} else if status != vm.StatusNext {
			return status, nil
		}
		if n.Step != nil {
			if status, err := vm.Run(n.Step, child); err != nil {
				return vm.StatusNext, err
			} else if status != vm.StatusNext {
				return status, nil
			}
		}
	}
	return vm.StatusNext, child.RunDeferred(nil)
}

// ForEachStatement iterates RangeRod's array (integer-keyed) or object
// (string-keyed) value, binding Key and Value, each only when its name is
// non-empty, on each pass. A null range performs zero iterations
// (spec.md §4.8).
type ForEachStatement struct {
	Key      string
	Value    string
	RangeRod *vm.Rod
	Body     *vm.Rod
}

func (n *ForEachStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	rangeVal, err := evalSingle(ctx, n.RangeRod)
	if err != nil {
		return vm.StatusNext, err
	}
	if rangeVal.IsNull() {
		return vm.StatusNext, nil
	}
	if arr, ok := rangeVal.AsArray(); ok {
		for i, elem := range arr.Elems {
			status, rerr := n.runIteration(ctx, vm.Integer(int64(i)), elem)
			if rerr != nil {
				return vm.StatusNext, rerr
			}
			if done, out, oerr := n.handleLoopStatus(status); done {
				return out, oerr
			}
		}
		return vm.StatusNext, nil
	}
	if obj, ok := rangeVal.AsObject(); ok {
		for _, k := range obj.Keys() {
			v, _ := obj.Get(k)
			status, rerr := n.runIteration(ctx, vm.String(k), v)
			if rerr != nil {
				return vm.StatusNext, rerr
			}
			if done, out, oerr := n.handleLoopStatus(status); done {
				return out, oerr
			}
		}
		return vm.StatusNext, nil
	}
	return vm.StatusNext, cerr.NewRuntimeError("for-each range must be an array, object, or null", cerr.Frame{Type: cerr.FrameNative})
}

func (n *ForEachStatement) runIteration(ctx *vm.Context, key, value vm.Value) (vm.Status, *cerr.RuntimeError) {
	child := ctx.NewChild()
	if n.Key != "" {
		child.Declare(n.Key, false)
		kr, _ := child.Lookup(0, n.Key)
		_ = kr.Initialize(key, false)
	}
	if n.Value != "" {
		child.Declare(n.Value, false)
		vr, _ := child.Lookup(0, n.Value)
		_ = vr.Initialize(value, false)
	}
	status, err := vm.Run(n.Body, child)
	return status, child.RunDeferred(err)
}

func (n *ForEachStatement) handleLoopStatus(status vm.Status) (done bool, out vm.Status, err *cerr.RuntimeError) {
	if status.IsBreak() {
		if status == vm.StatusBreakFor || status == vm.StatusBreakAny {
			return true, vm.StatusNext, nil
		}
		return true, status, nil
	}
	if status.IsContinue() {
		if status == vm.StatusContinueFor || status == vm.StatusContinueAny {
			return false, vm.StatusNext, nil
		}
		return true, status, nil
	}
	if status != vm.StatusNext {
		return true, status, nil
	}
	return false, vm.StatusNext, nil
}

// TryStatement runs Try; on a caught error it binds Name to the error
// value (with a __backtrace array of frame descriptions) and runs Catch.
type TryStatement struct {
	Try   *vm.Rod
	Name  string
	Catch *vm.Rod
}

func (n *TryStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	tryCtx := ctx.NewChild()
	status, err := vm.Run(n.Try, tryCtx)
	err = tryCtx.RunDeferred(err)
	if err == nil {
		return status, nil
	}
	catchCtx := ctx.NewChild()
	name := n.Name
	if name == "" {
		name = "e"
	}
	var errVal vm.Value
	if av, ok := err.Value.(vm.Value); ok {
		errVal = av
	} else {
		errVal = vm.String(err.Error())
	}
	ev := catchCtx.Declare(name, false)
	catchCtx.BindAlias(name, ev)
	r, _ := catchCtx.Lookup(0, name)
	_ = r.Initialize(errVal, false)

	frames := make([]vm.Value, 0, len(err.Frames))
	for _, f := range err.Frames {
		fo := vm.NewObject()
		fo.Set("frame_type", vm.String(f.Type.String()))
		fo.Set("file", vm.String(f.Loc.File))
		fo.Set("line", vm.Integer(int64(f.Loc.Line)))
		fo.Set("column", vm.Integer(int64(f.Loc.Column)))
		fo.Set("value", frameValue(f.Value))
		frames = append(frames, vm.ObjectOf(fo))
	}
	bv := catchCtx.Declare("__backtrace", false)
	catchCtx.BindAlias("__backtrace", bv)
	br, _ := catchCtx.Lookup(0, "__backtrace")
	_ = br.Initialize(vm.ArrayOf(&vm.Array{Elems: frames}), false)

	cstatus, cerr2 := vm.Run(n.Catch, catchCtx)
	return cstatus, catchCtx.RunDeferred(cerr2)
}

// ThrowStatement raises ValueRod's single result as a Runtime_Error.
// Throwing null is rejected.
type ThrowStatement struct {
	ValueRod *vm.Rod
	Loc      source.Location
}

func (n *ThrowStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	val, err := evalSingle(ctx, n.ValueRod)
	if err != nil {
		return vm.StatusNext, err
	}
	if val.IsNull() {
		return vm.StatusNext, cerr.NewRuntimeError("cannot throw null", cerr.Frame{Type: cerr.FrameThrow, Loc: n.Loc})
	}
	if hooks := ctx.Hooks(); hooks != nil && hooks.OnThrow != nil {
		hooks.OnThrow(n.Loc, val)
	}
	return vm.StatusNext, cerr.NewRuntimeError(val, cerr.Frame{Type: cerr.FrameThrow, Loc: n.Loc})
}

// ReturnStatement pops ValueRod's result (or returns void) and records it
// on the enclosing function frame via Context.SetReturn, where
// vm.CallFunction inspects it for a pending tail call (spec.md §5).
type ReturnStatement struct {
	ByRef    bool
	ValueRod *vm.Rod
	Loc      source.Location
}

func (n *ReturnStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	hooks := ctx.Hooks()
	if n.ValueRod == nil {
		if hooks != nil && hooks.OnReturn != nil {
			hooks.OnReturn(n.Loc, false)
		}
		return vm.StatusReturnVoid, nil
	}
	child := ctx.NewChild()
	status, err := vm.Run(n.ValueRod, child)
	if err != nil {
		return vm.StatusNext, err
	}
	if status != vm.StatusNext {
		return status, nil
	}
	ref := child.Pop()
	ptc := ref.IsPendingTailCall()
	if hooks != nil && hooks.OnReturn != nil {
		hooks.OnReturn(n.Loc, ptc)
	}
	ctx.SetReturn(ref)
	return vm.StatusReturn, nil
}

// AssertStatement checks CondRod's result and, if falsy, raises a
// Runtime_Error carrying MessageRod's value (or a default message).
type AssertStatement struct {
	CondRod    *vm.Rod
	MessageRod *vm.Rod
	Loc        source.Location
}

func (n *AssertStatement) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	cond, err := evalSingle(ctx, n.CondRod)
	if err != nil {
		return vm.StatusNext, err
	}
	if cond.AsBool() {
		return vm.StatusNext, nil
	}
	msg := vm.String("assertion failed")
	if n.MessageRod != nil {
		msg, err = evalSingle(ctx, n.MessageRod)
		if err != nil {
			return vm.StatusNext, err
		}
	}
	return vm.StatusNext, cerr.NewRuntimeError(msg, cerr.Frame{Type: cerr.FrameAssert, Loc: n.Loc})
}

// DeferExpression registers Body to run (LIFO) when the enclosing scope
// exits, against the runtime context the node executes in.
type DeferExpression struct{ Body *vm.Rod }

func (n *DeferExpression) Exec(ctx *vm.Context) (vm.Status, *cerr.RuntimeError) {
	ctx.Defer(n.Body, ctx)
	return vm.StatusNext, nil
}

// frameValue converts a Frame's auxiliary payload (set on FrameFunc
// frames to the callee name; nil on most others) to a VM value for
// __backtrace, per SPEC_FULL.md's frame shape.
func frameValue(v any) vm.Value {
	switch val := v.(type) {
	case nil:
		return vm.Null()
	case vm.Value:
		return val
	case string:
		return vm.String(val)
	default:
		return vm.Null()
	}
}

// evalSingle runs rod in a child scope and returns its single pushed
// result, erroring if control flow escaped instead of falling through.
func evalSingle(ctx *vm.Context, rod *vm.Rod) (vm.Value, *cerr.RuntimeError) {
	child := ctx.NewChild()
	status, err := vm.Run(rod, child)
	if err != nil {
		return vm.Value{}, err
	}
	if status != vm.StatusNext {
		return vm.Value{}, cerr.NewRuntimeError("control flow escaped a value expression", cerr.Frame{Type: cerr.FrameNative})
	}
	v, rerr := child.Pop().Read()
	if rerr != nil {
		return vm.Value{}, wrap(rerr)
	}
	return v, nil
}

// runBlock runs rod in a fresh child scope, running its deferred
// expressions on every exit.
func runBlock(ctx *vm.Context, rod *vm.Rod) (vm.Status, *cerr.RuntimeError) {
	child := ctx.NewChild()
	status, err := vm.Run(rod, child)
	return status, child.RunDeferred(err)
}
