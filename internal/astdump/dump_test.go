package astdump

import (
	"os"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/go-asteria/internal/ast"
	"github.com/cwbudde/go-asteria/internal/source"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func sampleProgram() []ast.Statement {
	loc := source.Location{File: "sample.ast", Line: 1, Column: 1}
	return []ast.Statement{
		&ast.VarDecl{
			Loc:         loc,
			Decls:       []ast.Declarator{{Kind: ast.PatternSingle, Name: "answer", Loc: loc}},
			Initializer: []ast.Expression{{&ast.Literal{Loc: loc, Value: int64(40)}, &ast.Literal{Loc: loc, Value: int64(2)}, &ast.OperatorRPN{Loc: loc, Op: ast.OpAdd}}},
		},
		&ast.Return{
			Loc:   loc,
			Value: ast.Expression{&ast.LocalRef{Loc: loc, Name: "answer"}},
		},
	}
}

func TestToString(t *testing.T) {
	out := ToString(sampleProgram())
	for _, want := range []string{"VarDecl(var) answer", "40 2 op(+", "Return", "answer"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q\n%s", want, out)
		}
	}
	snaps.MatchSnapshot(t, out)
}

func TestDumpJSON(t *testing.T) {
	doc, err := DumpJSON(sampleProgram())
	if err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	snaps.MatchSnapshot(t, doc)
}
