package astdump

import (
	"github.com/tidwall/sjson"

	"github.com/cwbudde/go-asteria/internal/ast"
)

// DumpJSON renders stmts as a JSON array of statement objects, for the
// `parse --dump-ast json` CLI output, built the same way internal/rod
// builds --dump-air json: incremental sjson.SetRaw array construction
// rather than a marshal/unmarshal struct dance.
func DumpJSON(stmts []ast.Statement) (string, error) {
	arr := "[]"
	for _, s := range stmts {
		sJSON, err := statementJSON(s)
		if err != nil {
			return "", err
		}
		arr, err = sjson.SetRaw(arr, "-1", sJSON)
		if err != nil {
			return "", err
		}
	}
	return arr, nil
}

func statementsJSON(stmts []ast.Statement) (string, error) {
	return DumpJSON(stmts)
}

func blockJSON(b *ast.Block) (string, error) {
	if b == nil {
		return "null", nil
	}
	return statementsJSON(b.Stmts)
}

func statementJSON(stmt ast.Statement) (string, error) {
	obj := "{}"
	set := func(path string, v any) { obj, _ = sjson.Set(obj, path, v) }
	setRaw := func(path, raw string) error {
		var err error
		obj, err = sjson.SetRaw(obj, path, raw)
		return err
	}

	switch n := stmt.(type) {
	case *ast.ExprStmt:
		set("kind", "expr_stmt")
		set("expr", exprString(n.Expr))
	case *ast.Block:
		set("kind", "block")
		body, err := statementsJSON(n.Stmts)
		if err != nil {
			return "", err
		}
		if err := setRaw("body", body); err != nil {
			return "", err
		}
	case *ast.VarDecl:
		set("kind", "var_decl")
		set("immutable", n.Immutable)
		set("names", declaratorNames(n.Decls))
	case *ast.RefDecl:
		set("kind", "ref_decl")
		set("names", declaratorNames(n.Decls))
	case *ast.FuncDecl:
		set("kind", "func_decl")
		set("name", n.Name)
		set("params", n.Params)
		set("variadic", n.Variadic)
		body, err := statementsJSON(n.Body)
		if err != nil {
			return "", err
		}
		if err := setRaw("body", body); err != nil {
			return "", err
		}
	case *ast.If:
		set("kind", "if")
		set("cond", exprString(n.Cond))
		then, err := blockJSON(n.Then)
		if err != nil {
			return "", err
		}
		if err := setRaw("then", then); err != nil {
			return "", err
		}
		els, err := blockJSON(n.Else)
		if err != nil {
			return "", err
		}
		if err := setRaw("else", els); err != nil {
			return "", err
		}
	case *ast.Switch:
		set("kind", "switch")
		set("control", exprString(n.Control))
	case *ast.DoWhile:
		set("kind", "do_while")
		set("cond", exprString(n.Cond))
		body, err := blockJSON(n.Body)
		if err != nil {
			return "", err
		}
		if err := setRaw("body", body); err != nil {
			return "", err
		}
	case *ast.While:
		set("kind", "while")
		set("cond", exprString(n.Cond))
		body, err := blockJSON(n.Body)
		if err != nil {
			return "", err
		}
		if err := setRaw("body", body); err != nil {
			return "", err
		}
	case *ast.ForEach:
		set("kind", "for_each")
		set("key", n.Key)
		set("value", n.Value)
		set("range", exprString(n.Range))
		body, err := blockJSON(n.Body)
		if err != nil {
			return "", err
		}
		if err := setRaw("body", body); err != nil {
			return "", err
		}
	case *ast.For:
		set("kind", "for")
		body, err := blockJSON(n.Body)
		if err != nil {
			return "", err
		}
		if err := setRaw("body", body); err != nil {
			return "", err
		}
	case *ast.TryCatch:
		set("kind", "try_catch")
		set("name", n.Name)
		try, err := blockJSON(n.Try)
		if err != nil {
			return "", err
		}
		if err := setRaw("try", try); err != nil {
			return "", err
		}
		catch, err := blockJSON(n.Catch)
		if err != nil {
			return "", err
		}
		if err := setRaw("catch", catch); err != nil {
			return "", err
		}
	case *ast.BreakContinue:
		if n.IsBreak {
			set("kind", "break")
		} else {
			set("kind", "continue")
		}
		set("has_target", n.HasTgt)
	case *ast.Throw:
		set("kind", "throw")
		set("value", exprString(n.Value))
	case *ast.Return:
		set("kind", "return")
		set("by_ref", n.ByRef)
		if n.Value != nil {
			set("value", exprString(n.Value))
		}
	case *ast.Assert:
		set("kind", "assert")
		set("cond", exprString(n.Cond))
	case *ast.Defer:
		set("kind", "defer")
		set("expr", exprString(n.Expr))
	default:
		set("kind", "unknown")
	}
	return obj, nil
}

func exprString(e ast.Expression) string {
	units := make([]string, len(e))
	for i, u := range e {
		units[i] = exprUnitString(u)
	}
	s := ""
	for i, u := range units {
		if i > 0 {
			s += " "
		}
		s += u
	}
	return s
}
