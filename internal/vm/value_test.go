package vm

import "testing"

func TestValueConstructorsRoundTrip(t *testing.T) {
	if _, ok := Integer(42).AsInt(); !ok {
		t.Error("Integer(42).AsInt() should succeed")
	}
	if _, ok := Real(1.5).AsReal(); !ok {
		t.Error("Real(1.5).AsReal() should succeed")
	}
	if s, ok := String("hi").AsString(); !ok || s != "hi" {
		t.Errorf("String round trip = %q, %v", s, ok)
	}
	if !Null().IsNull() {
		t.Error("Null() should report IsNull")
	}
	if Integer(1).IsNull() {
		t.Error("Integer(1) should not report IsNull")
	}
}

func TestValueAsIntRejectsWrongType(t *testing.T) {
	if _, ok := String("5").AsInt(); ok {
		t.Error("AsInt on a string value should fail")
	}
	if _, ok := Integer(5).AsReal(); ok {
		t.Error("AsReal on an integer value should fail")
	}
}

func TestValueAsBoolCoercions(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null(), false},
		{Integer(0), false},
		{Integer(1), true},
		{Real(0), false},
		{Real(0.5), true},
		{String(""), false},
		{String("x"), true},
		{ArrayOf(&Array{}), false},
		{ArrayOf(&Array{Elems: []Value{Integer(1)}}), true},
	}
	for _, c := range cases {
		if got := c.v.AsBool(); got != c.want {
			t.Errorf("%v.AsBool() = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestValueStringRendersCollections(t *testing.T) {
	arr := ArrayOf(&Array{Elems: []Value{Integer(1), String("a")}})
	if got, want := arr.String(), `[1,"a"]`; got != want {
		t.Errorf("array String() = %q, want %q", got, want)
	}

	obj := NewObject()
	obj.Set("a", Integer(1))
	obj.Set("b", Integer(2))
	if got, want := ObjectOf(obj).String(), `{"a":1,"b":2}`; got != want {
		t.Errorf("object String() = %q, want %q", got, want)
	}
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("z", Integer(1))
	obj.Set("a", Integer(2))
	obj.Set("z", Integer(3)) // overwrite, should not move position
	keys := obj.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Errorf("Keys() = %v, want [z a]", keys)
	}
	if v, _ := obj.Get("z"); v != Integer(3) {
		t.Errorf("Get(z) = %v, want overwritten value 3", v)
	}
}

func TestTypeNameMatchesStringer(t *testing.T) {
	if Integer(1).TypeName() != "integer" {
		t.Errorf("TypeName() = %q, want integer", Integer(1).TypeName())
	}
	if ValueType(99).String() != "unknown" {
		t.Errorf("out-of-range ValueType.String() = %q, want unknown", ValueType(99).String())
	}
}
