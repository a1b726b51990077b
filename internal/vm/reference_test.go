package vm

import "testing"

func TestTempReferenceReadsWithoutVariable(t *testing.T) {
	ref := Temp(Integer(7))
	v, err := ref.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, _ := v.AsInt(); got != 7 {
		t.Errorf("Read() = %v, want 7", got)
	}
	if err := ref.Write(Integer(8)); err != errAssignToTemporary {
		t.Errorf("Write on a temp ref = %v, want errAssignToTemporary", err)
	}
}

func TestVoidReferenceIsNeverDereferenceable(t *testing.T) {
	ref := Void()
	if ref.Dereferenceable() {
		t.Error("void reference should not be Dereferenceable")
	}
	if _, err := ref.Read(); err != errVoidDereference {
		t.Errorf("Read on void = %v, want errVoidDereference", err)
	}
}

func TestVariableReferenceInitializeThenReadWrite(t *testing.T) {
	cell := &variable{}
	ref := FromVariable(cell)
	if ref.Dereferenceable() {
		t.Error("an uninitialized variable should not be Dereferenceable yet")
	}
	if err := ref.Initialize(Integer(1), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !ref.Dereferenceable() {
		t.Error("an initialized variable should be Dereferenceable")
	}
	if err := ref.Write(Integer(2)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	v, _ := ref.Read()
	if got, _ := v.AsInt(); got != 2 {
		t.Errorf("Read() after Write = %v, want 2", got)
	}
}

func TestImmutableVariableRejectsWriteAfterInit(t *testing.T) {
	cell := &variable{}
	ref := FromVariable(cell)
	if err := ref.Initialize(Integer(1), true); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := ref.Write(Integer(2)); err != errAssignToImmutable {
		t.Errorf("Write on immutable = %v, want errAssignToImmutable", err)
	}
}

func TestArraySubscriptReadWrite(t *testing.T) {
	cell := &variable{}
	ref := FromVariable(cell)
	if err := ref.Initialize(ArrayOf(&Array{Elems: []Value{Integer(1), Integer(2)}}), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	elemRef := ref.WithSubscript(Subscript{Kind: SubArrayIndex, Idx: 1})
	v, err := elemRef.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got, _ := v.AsInt(); got != 2 {
		t.Errorf("Read(index 1) = %v, want 2", got)
	}
	if err := elemRef.Write(Integer(9)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	arr, _ := ref.Read()
	a, _ := arr.AsArray()
	if got, _ := a.Elems[1].AsInt(); got != 9 {
		t.Errorf("element[1] after subscript write = %v, want 9", got)
	}
}

func TestArraySubscriptWriteGrowsOnDemand(t *testing.T) {
	cell := &variable{}
	ref := FromVariable(cell)
	if err := ref.Initialize(ArrayOf(&Array{}), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	elemRef := ref.WithSubscript(Subscript{Kind: SubArrayIndex, Idx: 3})
	if err := elemRef.Write(Integer(5)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	arr, _ := ref.Read()
	a, _ := arr.AsArray()
	if len(a.Elems) != 4 {
		t.Fatalf("array grew to len %d, want 4", len(a.Elems))
	}
	if got, _ := a.Elems[3].AsInt(); got != 5 {
		t.Errorf("element[3] = %v, want 5", got)
	}
}

func TestObjectKeySubscriptReadMissingIsNull(t *testing.T) {
	cell := &variable{}
	ref := FromVariable(cell)
	if err := ref.Initialize(ObjectOf(NewObject()), false); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	keyRef := ref.WithSubscript(Subscript{Kind: SubObjectKey, Key: "missing"})
	v, err := keyRef.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !v.IsNull() {
		t.Errorf("Read of a missing key = %v, want null", v)
	}
}
