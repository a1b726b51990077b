package vm

import (
	"testing"

	"github.com/cwbudde/go-asteria/internal/source"
)

func TestDeclareAndLookupInSameFrame(t *testing.T) {
	ctx := NewGlobalContext(nil)
	cell := ctx.Declare("x", false)
	cell.value, cell.initialized = Integer(1), true

	ref, ok := ctx.Lookup(0, "x")
	if !ok {
		t.Fatal("Lookup should find x in the declaring frame")
	}
	v, err := ref.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, _ := v.AsInt(); got != 1 {
		t.Errorf("x = %v, want 1", got)
	}
}

func TestChildContextSeesParentViaDepth(t *testing.T) {
	parent := NewGlobalContext(nil)
	cell := parent.Declare("x", false)
	cell.value, cell.initialized = Integer(42), true

	child := parent.NewChild()
	if _, ok := child.Lookup(0, "x"); ok {
		t.Error("depth 0 in the child should not see the parent's x")
	}
	ref, ok := child.Lookup(1, "x")
	if !ok {
		t.Fatal("depth 1 should resolve to the parent's x")
	}
	v, _ := ref.Read()
	if got, _ := v.AsInt(); got != 42 {
		t.Errorf("x via parent = %v, want 42", got)
	}
}

func TestGetPutEraseGlobal(t *testing.T) {
	ctx := NewGlobalContext(nil)
	if _, ok := ctx.GetGlobal("g"); ok {
		t.Error("GetGlobal on an undeclared name should report not-found")
	}
	ctx.PutGlobal("g", Integer(5))
	v, ok := ctx.GetGlobal("g")
	if !ok {
		t.Fatal("GetGlobal should find g after PutGlobal")
	}
	if got, _ := v.AsInt(); got != 5 {
		t.Errorf("g = %v, want 5", got)
	}
	ctx.EraseGlobal("g")
	if _, ok := ctx.GetGlobal("g"); ok {
		t.Error("GetGlobal should not find g after EraseGlobal")
	}
}

func TestPushPopClearStack(t *testing.T) {
	ctx := NewGlobalContext(nil)
	ctx.Push(Temp(Integer(1)))
	ctx.Push(Temp(Integer(2)))
	if ctx.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", ctx.Depth())
	}
	top := ctx.Pop()
	v, _ := top.Read()
	if got, _ := v.AsInt(); got != 2 {
		t.Errorf("Pop() = %v, want 2", got)
	}
	ctx.ClearStack(0)
	if ctx.Depth() != 0 {
		t.Errorf("Depth() after ClearStack(0) = %d, want 0", ctx.Depth())
	}
}

func TestBindAliasSharesStorage(t *testing.T) {
	ctx := NewGlobalContext(nil)
	cell := ctx.Declare("orig", false)
	cell.value, cell.initialized = Integer(1), true

	child := ctx.NewChild()
	child.BindAlias("alias", cell)

	aliasRef, ok := child.Lookup(0, "alias")
	if !ok {
		t.Fatal("alias should resolve in the child frame")
	}
	if err := aliasRef.Write(Integer(99)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	origRef, _ := ctx.Lookup(0, "orig")
	v, _ := origRef.Read()
	if got, _ := v.AsInt(); got != 99 {
		t.Errorf("orig via aliased write = %v, want 99", got)
	}
}

func TestImportWithoutImporterFails(t *testing.T) {
	ctx := NewGlobalContext(nil)
	_, err := ctx.Import("missing.ast", nil, source.Location{})
	if err == nil {
		t.Fatal("Import with no installed Importer should fail")
	}
}
