package rod

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cwbudde/go-asteria/internal/air"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/vm"
)

// DumpJSON renders r (labeled name) as a JSON document, for the `air`
// CLI command's `--format json` output and any tool that would rather
// query the tree with gjson than parse the text disassembly.
func DumpJSON(name string, r *vm.Rod) (string, error) {
	doc := "{}"
	doc, err := sjson.Set(doc, "name", name)
	if err != nil {
		return "", err
	}
	records, err := recordsJSON(r)
	if err != nil {
		return "", err
	}
	return sjson.SetRaw(doc, "records", records)
}

// Query runs a gjson path expression against a document produced by
// DumpJSON or BacktraceJSON.
func Query(doc, path string) gjson.Result {
	return gjson.Get(doc, path)
}

func recordsJSON(r *vm.Rod) (string, error) {
	if r == nil {
		return "null", nil
	}
	arr := "[]"
	for _, rec := range r.Records() {
		recJSON, err := recordJSON(rec)
		if err != nil {
			return "", err
		}
		arr, err = sjson.SetRaw(arr, "-1", recJSON)
		if err != nil {
			return "", err
		}
	}
	return arr, nil
}

// recordJSON renders one record's op/operands plus, for nodes that carry
// nested rods, a recursively-rendered child tree.
func recordJSON(rec vm.Record) (string, error) {
	obj, err := sjson.Set("{}", "loc", rec.Loc.String())
	if err != nil {
		return "", err
	}
	set := func(path string, v any) { obj, _ = sjson.Set(obj, path, v) }
	setRaw := func(path, raw string) { obj, _ = sjson.SetRaw(obj, path, raw) }
	child := func(path string, r *vm.Rod) error {
		j, err := recordsJSON(r)
		if err != nil {
			return err
		}
		setRaw(path, j)
		return nil
	}

	switch n := rec.Node.(type) {
	case *air.PushConstant:
		set("op", "push_const")
		set("value", n.Value.String())
	case *air.PushLocalReference:
		set("op", "push_local")
		set("depth", n.Depth)
		set("name", n.Name)
	case *air.PushGlobalReference:
		set("op", "push_global")
		set("name", n.Name)
	case *air.MemberAccess:
		set("op", "member")
		set("key", n.Key)
	case *air.PushUnnamedArray:
		set("op", "new_array")
		set("count", n.Count)
	case *air.PushUnnamedObject:
		set("op", "new_object")
		set("keys", n.Keys)
	case *air.ClearStack:
		set("op", "clear_stack")
		set("depth", n.Depth)
	case *air.AltClearStack:
		set("op", "clear_alt")
	case *air.DeclareVariable:
		set("op", "declare")
		set("name", n.Name)
		set("immutable", n.Immutable)
	case *air.InitializeVariable:
		set("op", "initialize")
		set("name", n.Name)
	case *air.DefineNullVariable:
		set("op", "define_null")
		set("name", n.Name)
	case *air.DeclareReference:
		set("op", "declare_ref")
		set("name", n.Name)
	case *air.InitializeReference:
		set("op", "initialize_ref")
		set("name", n.Name)
	case *air.DefineFunction:
		set("op", "define_func")
		set("name", n.Name)
		set("params", n.Params)
		set("variadic", n.Variadic)
		if err := child("body", n.Body); err != nil {
			return "", err
		}
	case *air.PushClosureValue:
		set("op", "push_closure")
		set("name", n.Name)
		set("params", n.Params)
		set("variadic", n.Variadic)
		if err := child("body", n.Body); err != nil {
			return "", err
		}
	case *air.SimpleStatus:
		set("op", "status")
		set("value", int(n.Value))
	case *air.SingleStepTrap:
		set("op", "trap")
	case *air.UnpackArray:
		set("op", "unpack_array")
		set("names", n.Names)
	case *air.UnpackObject:
		set("op", "unpack_object")
		set("names", n.Names)
	case *air.CheckArgument:
		set("op", "check_arg")
		set("by_ref", n.ByRef)
	case *air.CheckNull:
		set("op", "check_null")
	case *air.ApplyOperator:
		set("op", "apply")
		set("operator", n.Op.String())
		set("assign", n.Assign)
	case *air.ApplyOperatorBi32:
		set("op", "apply_bi32")
		set("operator", n.Op.String())
		set("assign", n.Assign)
		set("literal", n.Literal)
	case *air.BranchExpression:
		set("op", "branch")
		set("kind", int(n.Kind))
		set("assign", n.Assign)
		if err := child("then", n.Then); err != nil {
			return "", err
		}
		if err := child("else", n.Else); err != nil {
			return "", err
		}
	case *air.CatchExpression:
		set("op", "catch_expr")
		if err := child("inner", n.Inner); err != nil {
			return "", err
		}
	case *air.ExecuteBlock:
		set("op", "block")
		if err := child("body", n.Body); err != nil {
			return "", err
		}
	case *air.IfStatement:
		set("op", "if")
		if err := child("cond", n.CondRod); err != nil {
			return "", err
		}
		if err := child("then", n.Then); err != nil {
			return "", err
		}
		if err := child("else", n.Else); err != nil {
			return "", err
		}
	case *air.SwitchStatement:
		set("op", "switch")
		if err := child("control", n.Control); err != nil {
			return "", err
		}
		clauses := "[]"
		for _, clause := range n.Clauses {
			cJSON := "{}"
			cJSON, _ = sjson.Set(cJSON, "kind", int(clause.Kind))
			cJSON, _ = sjson.Set(cJSON, "open_low", clause.OpenLow)
			cJSON, _ = sjson.Set(cJSON, "open_high", clause.OpenHigh)
			lowJSON, err := recordsJSON(clause.LowRod)
			if err != nil {
				return "", err
			}
			cJSON, _ = sjson.SetRaw(cJSON, "low", lowJSON)
			highJSON, err := recordsJSON(clause.HighRod)
			if err != nil {
				return "", err
			}
			cJSON, _ = sjson.SetRaw(cJSON, "high", highJSON)
			bodyJSON, err := recordsJSON(clause.Body)
			if err != nil {
				return "", err
			}
			cJSON, _ = sjson.SetRaw(cJSON, "body", bodyJSON)
			clauses, err = sjson.SetRaw(clauses, "-1", cJSON)
			if err != nil {
				return "", err
			}
		}
		setRaw("clauses", clauses)
	case *air.DoWhileStatement:
		set("op", "do_while")
		if err := child("body", n.Body); err != nil {
			return "", err
		}
		if err := child("cond", n.Cond); err != nil {
			return "", err
		}
	case *air.WhileStatement:
		set("op", "while")
		if err := child("cond", n.Cond); err != nil {
			return "", err
		}
		if err := child("body", n.Body); err != nil {
			return "", err
		}
	case *air.ForStatement:
		set("op", "for")
		if err := child("init", n.Init); err != nil {
			return "", err
		}
		if err := child("cond", n.Cond); err != nil {
			return "", err
		}
		if err := child("step", n.Step); err != nil {
			return "", err
		}
		if err := child("body", n.Body); err != nil {
			return "", err
		}
	case *air.ForEachStatement:
		set("op", "for_each")
		set("key", n.Key)
		set("value", n.Value)
		if err := child("range", n.RangeRod); err != nil {
			return "", err
		}
		if err := child("body", n.Body); err != nil {
			return "", err
		}
	case *air.TryStatement:
		set("op", "try")
		set("name", n.Name)
		if err := child("try", n.Try); err != nil {
			return "", err
		}
		if err := child("catch", n.Catch); err != nil {
			return "", err
		}
	case *air.ThrowStatement:
		set("op", "throw")
		if err := child("value", n.ValueRod); err != nil {
			return "", err
		}
	case *air.ReturnStatement:
		set("op", "return")
		set("by_ref", n.ByRef)
		if err := child("value", n.ValueRod); err != nil {
			return "", err
		}
	case *air.AssertStatement:
		set("op", "assert")
		if err := child("cond", n.CondRod); err != nil {
			return "", err
		}
		if err := child("message", n.MessageRod); err != nil {
			return "", err
		}
	case *air.DeferExpression:
		set("op", "defer")
		if err := child("body", n.Body); err != nil {
			return "", err
		}
	case *air.FunctionCall:
		set("op", "call")
		set("nargs", n.Nargs)
		set("ptc", n.PTC)
	case *air.AltFunctionCall:
		set("op", "call_alt")
		set("ptc", n.PTC)
	case *air.VariadicCall:
		set("op", "call_variadic")
	case *air.ImportCall:
		set("op", "import")
		set("nargs", n.Nargs)
	default:
		set("op", "unknown")
	}
	return obj, nil
}

// BacktraceJSON renders a Runtime_Error's value and unwind trace as a
// JSON document, matching the `__backtrace` frame shape (frame_type,
// file, line, column, value) SPEC_FULL.md requires for host embedding —
// the one difference from the in-script __backtrace array being that
// this is text the host gets back across the embedding boundary rather
// than a VM array the script indexes.
func BacktraceJSON(err *cerr.RuntimeError) (string, error) {
	doc, e := sjson.Set("{}", "value", valuePreview(err.Value))
	if e != nil {
		return "", e
	}
	frames := "[]"
	for _, f := range err.Frames {
		fJSON := "{}"
		fJSON, _ = sjson.Set(fJSON, "frame_type", f.Type.String())
		fJSON, _ = sjson.Set(fJSON, "file", f.Loc.File)
		fJSON, _ = sjson.Set(fJSON, "line", f.Loc.Line)
		fJSON, _ = sjson.Set(fJSON, "column", f.Loc.Column)
		fJSON, _ = sjson.Set(fJSON, "value", valuePreview(f.Value))
		var err2 error
		frames, err2 = sjson.SetRaw(frames, "-1", fJSON)
		if err2 != nil {
			return "", err2
		}
	}
	return sjson.SetRaw(doc, "frames", frames)
}

func valuePreview(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case vm.Value:
		return val.String()
	case string:
		return val
	default:
		return ""
	}
}
