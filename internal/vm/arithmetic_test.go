package vm

import (
	"errors"
	"testing"

	"github.com/cwbudde/go-asteria/internal/ast"
)

func TestShiftLogicalIntegerSaturatesAtWordWidth(t *testing.T) {
	v, err := ApplyBinary(ast.OpShiftLeftLogical, Integer(1), Integer(64))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if i, _ := v.AsInt(); i != 0 {
		t.Errorf("1 <<< 64 = %d, want 0", i)
	}
}

func TestShiftLogicalNegativeCountIsRuntimeError(t *testing.T) {
	for _, op := range []ast.Operator{ast.OpShiftLeftLogical, ast.OpShiftRightLogical, ast.OpShiftLeftArith, ast.OpShiftRightArith} {
		if _, err := ApplyBinary(op, Integer(1), Integer(-1)); !errors.Is(err, ErrNegativeShift) {
			t.Errorf("op %v with a negative count: err = %v, want ErrNegativeShift", op, err)
		}
	}
}

func TestShiftLogicalStringFixedWidthPadsWithNull(t *testing.T) {
	v, err := ApplyBinary(ast.OpShiftLeftLogical, String("abcd"), Integer(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	s, _ := v.AsString()
	if s != "bcd\x00" {
		t.Errorf("\"abcd\" <<< 1 = %q, want %q", s, "bcd\x00")
	}

	v, err = ApplyBinary(ast.OpShiftRightLogical, String("abcd"), Integer(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	s, _ = v.AsString()
	if s != "\x00abc" {
		t.Errorf("\"abcd\" >>> 1 = %q, want %q", s, "\x00abc")
	}
}

func TestShiftLogicalArrayFixedWidthPadsWithNull(t *testing.T) {
	arr := ArrayOf(&Array{Elems: []Value{Integer(1), Integer(2), Integer(3)}})
	v, err := ApplyBinary(ast.OpShiftLeftLogical, arr, Integer(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	out, _ := v.AsArray()
	if len(out.Elems) != 3 {
		t.Fatalf("got %+v", out.Elems)
	}
	if i, ok := out.Elems[0].AsInt(); !ok || i != 2 {
		t.Errorf("first element after <<< 1 = %+v, want 2", out.Elems[0])
	}
	if !out.Elems[2].IsNull() {
		t.Errorf("last element after <<< 1 = %+v, want null padding", out.Elems[2])
	}
}

func TestShiftArithStringGrowsOnLeft(t *testing.T) {
	v, err := ApplyBinary(ast.OpShiftLeftArith, String("ab"), Integer(2))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	s, _ := v.AsString()
	if s != "ab\x00\x00" {
		t.Errorf("\"ab\" << 2 = %q, want %q", s, "ab\x00\x00")
	}
}

func TestShiftArithStringShrinksOnRight(t *testing.T) {
	v, err := ApplyBinary(ast.OpShiftRightArith, String("abcd"), Integer(2))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	s, _ := v.AsString()
	if s != "ab" {
		t.Errorf("\"abcd\" >> 2 = %q, want %q", s, "ab")
	}
}

func TestShiftArithArrayGrowsAndShrinks(t *testing.T) {
	arr := ArrayOf(&Array{Elems: []Value{Integer(1), Integer(2)}})
	v, err := ApplyBinary(ast.OpShiftLeftArith, arr, Integer(2))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	out, _ := v.AsArray()
	if len(out.Elems) != 4 {
		t.Fatalf("len after << 2 = %d, want 4", len(out.Elems))
	}

	v, err = ApplyBinary(ast.OpShiftRightArith, arr, Integer(1))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	out, _ = v.AsArray()
	if len(out.Elems) != 1 {
		t.Fatalf("len after >> 1 = %d, want 1", len(out.Elems))
	}
}

func TestShiftArithIntegerLeftOverflows(t *testing.T) {
	if _, err := ApplyBinary(ast.OpShiftLeftArith, Integer(1), Integer(63)); !errors.Is(err, ErrIntegerOverflow) {
		t.Errorf("1 << 63 err = %v, want ErrIntegerOverflow", err)
	}
}

func TestShiftArithIntegerRightIsSignPreserving(t *testing.T) {
	v, err := ApplyBinary(ast.OpShiftRightArith, Integer(-8), Integer(100))
	if err != nil {
		t.Fatalf("ApplyBinary: %v", err)
	}
	if i, _ := v.AsInt(); i != -1 {
		t.Errorf("-8 >> 100 = %d, want -1", i)
	}
}
