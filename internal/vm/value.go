// Package vm implements the stack machine: runtime values, the
// reference/subscript model, the executive context, and the sealed Rod
// driver loop described by spec.md §4.8.
package vm

import (
	"fmt"
	"strings"
)

// ValueType tags the closed set of runtime value kinds.
type ValueType byte

const (
	ValueNull ValueType = iota
	ValueBool
	ValueInteger
	ValueReal
	ValueString
	ValueArray
	ValueObject
	ValueFunction
)

var valueTypeNames = [...]string{
	ValueNull:     "null",
	ValueBool:     "boolean",
	ValueInteger:  "integer",
	ValueReal:     "real",
	ValueString:   "string",
	ValueArray:    "array",
	ValueObject:   "object",
	ValueFunction: "function",
}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return "unknown"
}

// Value is the dynamically-typed payload carried by every Reference.
// Data holds: nil, bool, int64, float64, string, *Array, *Object, or
// *Function depending on Type.
type Value struct {
	Type ValueType
	Data any
}

// Array is a variable-length, index-addressed value collection.
type Array struct {
	Elems []Value
}

// Object is an insertion-ordered string-keyed value collection.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty, insertion-ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Get returns the value stored at key, or Null if absent.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set inserts or overwrites key, recording insertion order on first use.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string { return o.keys }

// Len reports the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// Function is a callable value: either a rod-backed closure over captured
// parameters and a parent Context, or a native host function.
type Function struct {
	Name     string
	Params   []string
	Variadic bool
	Body     *Rod
	Closure  *Context
	Native   func(ctx *Context, args []Value) (Value, error)
}

func Null() Value                  { return Value{Type: ValueNull} }
func Bool(b bool) Value            { return Value{Type: ValueBool, Data: b} }
func Integer(i int64) Value        { return Value{Type: ValueInteger, Data: i} }
func Real(f float64) Value         { return Value{Type: ValueReal, Data: f} }
func String(s string) Value        { return Value{Type: ValueString, Data: s} }
func ArrayOf(a *Array) Value       { return Value{Type: ValueArray, Data: a} }
func ObjectOf(o *Object) Value     { return Value{Type: ValueObject, Data: o} }
func FunctionOf(f *Function) Value { return Value{Type: ValueFunction, Data: f} }

func (v Value) IsNull() bool { return v.Type == ValueNull }

func (v Value) AsBool() bool {
	switch v.Type {
	case ValueNull:
		return false
	case ValueBool:
		return v.Data.(bool)
	case ValueInteger:
		return v.Data.(int64) != 0
	case ValueReal:
		return v.Data.(float64) != 0
	case ValueString:
		return v.Data.(string) != ""
	case ValueArray:
		return len(v.Data.(*Array).Elems) != 0
	case ValueObject:
		return v.Data.(*Object).Len() != 0
	default:
		return true
	}
}

func (v Value) AsInt() (int64, bool) {
	i, ok := v.Data.(int64)
	return i, ok && v.Type == ValueInteger
}

func (v Value) AsReal() (float64, bool) {
	f, ok := v.Data.(float64)
	return f, ok && v.Type == ValueReal
}

func (v Value) AsString() (string, bool) {
	s, ok := v.Data.(string)
	return s, ok && v.Type == ValueString
}

func (v Value) AsArray() (*Array, bool) {
	a, ok := v.Data.(*Array)
	return a, ok && v.Type == ValueArray
}

func (v Value) AsObject() (*Object, bool) {
	o, ok := v.Data.(*Object)
	return o, ok && v.Type == ValueObject
}

func (v Value) AsFunction() (*Function, bool) {
	f, ok := v.Data.(*Function)
	return f, ok && v.Type == ValueFunction
}

// String renders a preview of the value, used by diagnostics and
// __backtrace frame dumps.
func (v Value) String() string {
	switch v.Type {
	case ValueNull:
		return "null"
	case ValueBool:
		return fmt.Sprintf("%t", v.Data.(bool))
	case ValueInteger:
		return fmt.Sprintf("%d", v.Data.(int64))
	case ValueReal:
		return fmt.Sprintf("%g", v.Data.(float64))
	case ValueString:
		return fmt.Sprintf("%q", v.Data.(string))
	case ValueArray:
		a := v.Data.(*Array)
		parts := make([]string, len(a.Elems))
		for i, e := range a.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case ValueObject:
		o := v.Data.(*Object)
		parts := make([]string, 0, o.Len())
		for _, k := range o.keys {
			val, _ := o.Get(k)
			parts = append(parts, fmt.Sprintf("%q:%s", k, val.String()))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case ValueFunction:
		f := v.Data.(*Function)
		return fmt.Sprintf("function %s(...)", f.Name)
	default:
		return "?"
	}
}

// TypeName reports the runtime type name used in error messages.
func (v Value) TypeName() string { return v.Type.String() }
