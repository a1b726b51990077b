// Package rod provides AIR/rod introspection tooling for the `air` CLI
// command and host diagnostics: a human-readable disassembler in the
// teacher's disasm.go style, and a JSON rendering built with gjson/sjson
// for tools that want to query the tree rather than parse text.
//
// Unlike the teacher's flat byte-array bytecode, a sealed vm.Rod is a
// tree: several air nodes (If, While, Try, function bodies, ...) embed
// child *vm.Rod values rather than jump offsets. Disassemble therefore
// recurses into those children and indents instead of printing jump
// targets.
package rod

import (
	"fmt"
	"io"
	"strings"

	"github.com/cwbudde/go-asteria/internal/air"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// Disassembler renders a sealed rod to a human-readable instruction
// listing, one record per line, nested bodies indented beneath their
// owning record.
type Disassembler struct {
	w      io.Writer
	indent int
}

// NewDisassembler creates a disassembler writing to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// Disassemble renders every record of r, labeled name.
func (d *Disassembler) Disassemble(name string, r *vm.Rod) {
	fmt.Fprintf(d.w, "== %s ==\n", name)
	d.disassembleRod(r)
}

// DisassembleToString is the one-shot convenience form used by tests and
// the `air` CLI command's default text output.
func DisassembleToString(name string, r *vm.Rod) string {
	var sb strings.Builder
	NewDisassembler(&sb).Disassemble(name, r)
	return sb.String()
}

func (d *Disassembler) disassembleRod(r *vm.Rod) {
	if r == nil {
		d.line("<nil>")
		return
	}
	for i, rec := range r.Records() {
		d.DisassembleRecord(i, rec)
	}
}

// DisassembleRecord prints one record (offset, line, mnemonic, operands)
// and recurses into any child rods it owns.
func (d *Disassembler) DisassembleRecord(offset int, rec vm.Record) {
	prefix := fmt.Sprintf("%04d %4d ", offset, rec.Loc.Line)

	switch n := rec.Node.(type) {
	case *air.PushConstant:
		d.op(prefix, "push_const", n.Value.String())
	case *air.PushLocalReference:
		d.op(prefix, "push_local", fmt.Sprintf("depth=%d %s", n.Depth, n.Name))
	case *air.PushGlobalReference:
		d.op(prefix, "push_global", n.Name)
	case *air.MemberAccess:
		d.op(prefix, "member", n.Key)
	case *air.PushUnnamedArray:
		d.op(prefix, "new_array", fmt.Sprintf("count=%d", n.Count))
	case *air.PushUnnamedObject:
		d.op(prefix, "new_object", strings.Join(n.Keys, ","))
	case *air.ClearStack:
		d.op(prefix, "clear_stack", fmt.Sprintf("depth=%d", n.Depth))
	case *air.AltClearStack:
		d.simple(prefix, "clear_alt")
	case *air.DeclareVariable:
		d.op(prefix, "declare", n.Name)
	case *air.InitializeVariable:
		d.op(prefix, "initialize", n.Name)
	case *air.DefineNullVariable:
		d.op(prefix, "define_null", n.Name)
	case *air.DeclareReference:
		d.op(prefix, "declare_ref", n.Name)
	case *air.InitializeReference:
		d.op(prefix, "initialize_ref", n.Name)
	case *air.DefineFunction:
		d.op(prefix, "define_func", fmt.Sprintf("%s(%s)", n.Name, strings.Join(n.Params, ",")))
		d.nested("body", n.Body)
	case *air.PushClosureValue:
		d.op(prefix, "push_closure", fmt.Sprintf("%s(%s)", n.Name, strings.Join(n.Params, ",")))
		d.nested("body", n.Body)
	case *air.SimpleStatus:
		d.op(prefix, "status", fmt.Sprintf("%v", n.Value))
	case *air.SingleStepTrap:
		d.simple(prefix, "trap")
	case *air.UnpackArray:
		d.op(prefix, "unpack_array", strings.Join(n.Names, ","))
	case *air.UnpackObject:
		d.op(prefix, "unpack_object", strings.Join(n.Names, ","))
	case *air.CheckArgument:
		d.op(prefix, "check_arg", fmt.Sprintf("by_ref=%t", n.ByRef))
	case *air.CheckNull:
		d.simple(prefix, "check_null")
	case *air.ApplyOperator:
		d.op(prefix, "apply", fmt.Sprintf("%s assign=%t", n.Op, n.Assign))
	case *air.ApplyOperatorBi32:
		d.op(prefix, "apply_bi32", fmt.Sprintf("%s assign=%t lit=%d", n.Op, n.Assign, n.Literal))
	case *air.BranchExpression:
		d.op(prefix, "branch", fmt.Sprintf("%v assign=%t", n.Kind, n.Assign))
		d.nested("then", n.Then)
		d.nested("else", n.Else)
	case *air.CatchExpression:
		d.simple(prefix, "catch_expr")
		d.nested("inner", n.Inner)
	case *air.ExecuteBlock:
		d.simple(prefix, "block")
		d.nested("body", n.Body)
	case *air.IfStatement:
		d.simple(prefix, "if")
		d.nested("cond", n.CondRod)
		d.nested("then", n.Then)
		d.nested("else", n.Else)
	case *air.SwitchStatement:
		d.simple(prefix, "switch")
		d.nested("control", n.Control)
		d.indent++
		for i, clause := range n.Clauses {
			d.line(fmt.Sprintf("clause[%d] kind=%v open_low=%t open_high=%t", i, clause.Kind, clause.OpenLow, clause.OpenHigh))
			d.nested("low", clause.LowRod)
			d.nested("high", clause.HighRod)
			d.nested("body", clause.Body)
		}
		d.indent--
	case *air.DoWhileStatement:
		d.simple(prefix, "do_while")
		d.nested("body", n.Body)
		d.nested("cond", n.Cond)
	case *air.WhileStatement:
		d.simple(prefix, "while")
		d.nested("cond", n.Cond)
		d.nested("body", n.Body)
	case *air.ForStatement:
		d.simple(prefix, "for")
		d.nested("init", n.Init)
		d.nested("cond", n.Cond)
		d.nested("step", n.Step)
		d.nested("body", n.Body)
	case *air.ForEachStatement:
		d.op(prefix, "for_each", fmt.Sprintf("key=%s value=%s", n.Key, n.Value))
		d.nested("range", n.RangeRod)
		d.nested("body", n.Body)
	case *air.TryStatement:
		d.op(prefix, "try", fmt.Sprintf("name=%s", n.Name))
		d.nested("try", n.Try)
		d.nested("catch", n.Catch)
	case *air.ThrowStatement:
		d.simple(prefix, "throw")
		d.nested("value", n.ValueRod)
	case *air.ReturnStatement:
		d.op(prefix, "return", fmt.Sprintf("by_ref=%t", n.ByRef))
		d.nested("value", n.ValueRod)
	case *air.AssertStatement:
		d.simple(prefix, "assert")
		d.nested("cond", n.CondRod)
		d.nested("message", n.MessageRod)
	case *air.DeferExpression:
		d.simple(prefix, "defer")
		d.nested("body", n.Body)
	case *air.FunctionCall:
		d.op(prefix, "call", fmt.Sprintf("nargs=%d ptc=%t", n.Nargs, n.PTC))
	case *air.AltFunctionCall:
		d.op(prefix, "call_alt", fmt.Sprintf("ptc=%t", n.PTC))
	case *air.VariadicCall:
		d.simple(prefix, "call_variadic")
	case *air.ImportCall:
		d.op(prefix, "import", fmt.Sprintf("nargs=%d", n.Nargs))
	default:
		d.op(prefix, "unknown", fmt.Sprintf("%T", n))
	}
}

func (d *Disassembler) simple(prefix, mnemonic string) {
	fmt.Fprintf(d.w, "%s%s%s\n", prefix, strings.Repeat("  ", d.indent), mnemonic)
}

func (d *Disassembler) op(prefix, mnemonic, operands string) {
	fmt.Fprintf(d.w, "%s%s%-16s %s\n", prefix, strings.Repeat("  ", d.indent), mnemonic, operands)
}

// line prints an indented annotation line with no offset/line prefix
// (used for switch-clause headers, which don't correspond to one record).
func (d *Disassembler) line(text string) {
	fmt.Fprintf(d.w, "         %s%s\n", strings.Repeat("  ", d.indent), text)
}

// nested recurses into a child rod one indent level deeper, labeled name.
// A nil rod (an absent else/step/catch clause) is skipped silently.
func (d *Disassembler) nested(name string, r *vm.Rod) {
	if r == nil {
		return
	}
	d.line(name + ":")
	d.indent++
	d.disassembleRod(r)
	d.indent--
}
