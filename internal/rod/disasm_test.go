package rod

import (
	"os"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/go-asteria/internal/air"
	"github.com/cwbudde/go-asteria/internal/ast"
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/source"
	"github.com/cwbudde/go-asteria/internal/vm"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func sampleRod() *vm.Rod {
	loc := source.Location{File: "sample.ast", Line: 1, Column: 1}
	valueRod := vm.NewRodBuilder()
	valueRod.Append(&air.PushConstant{Value: vm.Integer(40)}, loc)
	valueRod.Append(&air.PushConstant{Value: vm.Integer(2)}, loc)
	valueRod.Append(&air.ApplyOperator{Op: ast.OpAdd}, loc)
	sealedValue := valueRod.Finalize()

	body := vm.NewRodBuilder()
	body.Append(&air.DeclareVariable{Name: "answer"}, loc)
	body.Append(&air.ReturnStatement{ValueRod: sealedValue, Loc: loc}, loc)
	return body.Finalize()
}

func TestDisassembleToString(t *testing.T) {
	out := DisassembleToString("sample", sampleRod())
	for _, want := range []string{"== sample ==", "declare", "answer", "return", "push_const", "40", "apply", "+"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q\n%s", want, out)
		}
	}
	snaps.MatchSnapshot(t, out)
}

func TestDumpJSON(t *testing.T) {
	doc, err := DumpJSON("sample", sampleRod())
	if err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	if got := Query(doc, "records.0.op").String(); got != "declare" {
		t.Errorf("records.0.op = %q, want declare", got)
	}
	if got := Query(doc, "records.1.value.0.value").String(); got != "40" {
		t.Errorf("records.1.value.0.value = %q, want 40", got)
	}
	snaps.MatchSnapshot(t, doc)
}

func TestBacktraceJSON(t *testing.T) {
	loc := source.Location{File: "sample.ast", Line: 3, Column: 5}
	err := cerr.NewRuntimeError(vm.String("oops"), cerr.Frame{Type: cerr.FrameThrow, Loc: loc})
	err.AppendFrame(cerr.Frame{Type: cerr.FrameFunc, Loc: loc, Value: "doIt"})
	doc, jerr := BacktraceJSON(err)
	if jerr != nil {
		t.Fatalf("BacktraceJSON: %v", jerr)
	}
	if got := Query(doc, "frames.0.frame_type").String(); got != "throw" {
		t.Errorf("frames.0.frame_type = %q, want throw", got)
	}
	snaps.MatchSnapshot(t, doc)
}
