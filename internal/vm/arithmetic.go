package vm

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/go-asteria/internal/ast"
)

// Sentinel arithmetic errors, wrapped into Runtime_Errors by the caller.
var (
	ErrIntegerOverflow  = errors.New("integer overflow")
	ErrDivideByZero     = errors.New("division by zero")
	ErrTypeMismatch     = errors.New("operand type mismatch")
	ErrUnorderedCompare = errors.New("operands are unordered")
	ErrNegativeCount    = errors.New("negative repeat count")
	ErrNegativeShift    = errors.New("negative shift count")
)

// ApplyUnary evaluates one of the unary operators (-, +, !, ~) against a.
func ApplyUnary(op ast.Operator, a Value) (Value, error) {
	switch op {
	case ast.OpPos:
		return a, nil
	case ast.OpNeg:
		switch a.Type {
		case ValueInteger:
			i := a.Data.(int64)
			if i == math.MinInt64 {
				return Value{}, ErrIntegerOverflow
			}
			return Integer(-i), nil
		case ValueReal:
			return Real(-a.Data.(float64)), nil
		default:
			return Value{}, ErrTypeMismatch
		}
	case ast.OpNot:
		return Bool(!a.AsBool()), nil
	case ast.OpBitNot:
		i, ok := a.AsInt()
		if !ok {
			return Value{}, ErrTypeMismatch
		}
		return Integer(^i), nil
	default:
		return Value{}, fmt.Errorf("not a unary operator: %v", op)
	}
}

// ApplyBinary evaluates a binary operator over (a, b). Covers standard
// two's-complement arithmetic, modular/saturating variants, shifts,
// comparisons, and string/array duplication (spec.md §4.8).
func ApplyBinary(op ast.Operator, a, b Value) (Value, error) {
	switch op {
	case ast.OpAdd:
		return arithAdd(a, b)
	case ast.OpSub:
		return arithSub(a, b)
	case ast.OpMul:
		return arithMul(a, b)
	case ast.OpDiv:
		return arithDiv(a, b)
	case ast.OpMod:
		return arithMod(a, b)
	case ast.OpBitAnd:
		return intBinary(a, b, func(x, y int64) int64 { return x & y })
	case ast.OpBitOr:
		return intBinary(a, b, func(x, y int64) int64 { return x | y })
	case ast.OpBitXor:
		return intBinary(a, b, func(x, y int64) int64 { return x ^ y })
	case ast.OpShiftLeftLogical:
		return shiftLogical(a, b, true)
	case ast.OpShiftRightLogical:
		return shiftLogical(a, b, false)
	case ast.OpShiftLeftArith:
		return shiftArith(a, b, true)
	case ast.OpShiftRightArith:
		return shiftArith(a, b, false)
	case ast.OpEq:
		return Bool(partialEqual(a, b)), nil
	case ast.OpNotEq:
		return Bool(!partialEqual(a, b)), nil
	case ast.OpLess, ast.OpLessEq, ast.OpGreater, ast.OpGreaterEq:
		return orderedCompare(op, a, b)
	case ast.OpCompare3Way:
		return compare3Way(a, b)
	case ast.OpUnordered:
		_, ordered := totalOrder(a, b)
		return Bool(!ordered), nil
	case ast.OpAddMod:
		return modBinary(a, b, func(x, y int64) int64 { return x + y })
	case ast.OpSubMod:
		return modBinary(a, b, func(x, y int64) int64 { return x - y })
	case ast.OpMulMod:
		return modBinary(a, b, func(x, y int64) int64 { return x * y })
	case ast.OpAddSat:
		return satAdd(a, b)
	case ast.OpSubSat:
		return satSub(a, b)
	case ast.OpMulSat:
		return satMul(a, b)
	default:
		return Value{}, fmt.Errorf("not a binary operator: %v", op)
	}
}

// ApplyFma computes a fused multiply-add over three reals.
func ApplyFma(a, b, c Value) (Value, error) {
	x, ok1 := a.AsReal()
	y, ok2 := b.AsReal()
	z, ok3 := c.AsReal()
	if !ok1 || !ok2 || !ok3 {
		return Value{}, ErrTypeMismatch
	}
	return Real(math.FMA(x, y, z)), nil
}

func bothInt(a, b Value) (int64, int64, bool) {
	x, ok1 := a.AsInt()
	y, ok2 := b.AsInt()
	return x, y, ok1 && ok2
}

func bothReal(a, b Value) (float64, float64, bool) {
	x, ok1 := realOf(a)
	y, ok2 := realOf(b)
	return x, y, ok1 && ok2
}

func realOf(v Value) (float64, bool) {
	if f, ok := v.AsReal(); ok {
		return f, true
	}
	if i, ok := v.AsInt(); ok {
		return float64(i), true
	}
	return 0, false
}

func arithAdd(a, b Value) (Value, error) {
	if sa, ok := a.AsString(); ok {
		if sb, ok2 := b.AsString(); ok2 {
			return String(sa + sb), nil
		}
	}
	if aa, ok := a.AsArray(); ok {
		if ab, ok2 := b.AsArray(); ok2 {
			combined := append(append([]Value(nil), aa.Elems...), ab.Elems...)
			return ArrayOf(&Array{Elems: combined}), nil
		}
	}
	if x, y, ok := bothInt(a, b); ok {
		sum := x + y
		if (y > 0 && sum < x) || (y < 0 && sum > x) {
			return Value{}, ErrIntegerOverflow
		}
		return Integer(sum), nil
	}
	if x, y, ok := bothReal(a, b); ok {
		return Real(x + y), nil
	}
	return Value{}, ErrTypeMismatch
}

func arithSub(a, b Value) (Value, error) {
	if x, y, ok := bothInt(a, b); ok {
		diff := x - y
		if (y < 0 && diff < x) || (y > 0 && diff > x) {
			return Value{}, ErrIntegerOverflow
		}
		return Integer(diff), nil
	}
	if x, y, ok := bothReal(a, b); ok {
		return Real(x - y), nil
	}
	return Value{}, ErrTypeMismatch
}

func arithMul(a, b Value) (Value, error) {
	if s, ok := a.AsString(); ok {
		if n, ok2 := b.AsInt(); ok2 {
			return repeatString(s, n)
		}
	}
	if s, ok := b.AsString(); ok {
		if n, ok2 := a.AsInt(); ok2 {
			return repeatString(s, n)
		}
	}
	if arr, ok := a.AsArray(); ok {
		if n, ok2 := b.AsInt(); ok2 {
			return repeatArray(arr, n)
		}
	}
	if x, y, ok := bothInt(a, b); ok {
		if x != 0 && y != 0 {
			p := x * y
			if p/y != x {
				return Value{}, ErrIntegerOverflow
			}
			return Integer(p), nil
		}
		return Integer(0), nil
	}
	if x, y, ok := bothReal(a, b); ok {
		return Real(x * y), nil
	}
	return Value{}, ErrTypeMismatch
}

func repeatString(s string, n int64) (Value, error) {
	if n < 0 {
		return Value{}, ErrNegativeCount
	}
	if n > 0 && int64(len(s)) > (math.MaxInt32/n) {
		return Value{}, ErrIntegerOverflow
	}
	return String(strings.Repeat(s, int(n))), nil
}

func repeatArray(arr *Array, n int64) (Value, error) {
	if n < 0 {
		return Value{}, ErrNegativeCount
	}
	out := make([]Value, 0, int64(len(arr.Elems))*n)
	for i := int64(0); i < n; i++ {
		out = append(out, arr.Elems...)
	}
	return ArrayOf(&Array{Elems: out}), nil
}

func arithDiv(a, b Value) (Value, error) {
	if x, y, ok := bothInt(a, b); ok {
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		if x == math.MinInt64 && y == -1 {
			return Value{}, ErrIntegerOverflow
		}
		return Integer(x / y), nil
	}
	if x, y, ok := bothReal(a, b); ok {
		return Real(x / y), nil
	}
	return Value{}, ErrTypeMismatch
}

func arithMod(a, b Value) (Value, error) {
	if x, y, ok := bothInt(a, b); ok {
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		if x == math.MinInt64 && y == -1 {
			return Integer(0), nil
		}
		return Integer(x % y), nil
	}
	if x, y, ok := bothReal(a, b); ok {
		return Real(math.Mod(x, y)), nil
	}
	return Value{}, ErrTypeMismatch
}

func intBinary(a, b Value, f func(x, y int64) int64) (Value, error) {
	x, y, ok := bothInt(a, b)
	if !ok {
		return Value{}, ErrTypeMismatch
	}
	return Integer(f(x, y)), nil
}

func modBinary(a, b Value, f func(x, y int64) int64) (Value, error) {
	x, y, ok := bothInt(a, b)
	if !ok {
		return Value{}, ErrTypeMismatch
	}
	return Integer(f(x, y)), nil // Go int64 arithmetic already wraps modularly
}

func satAdd(a, b Value) (Value, error) {
	x, y, ok := bothInt(a, b)
	if !ok {
		return Value{}, ErrTypeMismatch
	}
	sum := x + y
	if y > 0 && sum < x {
		return Integer(math.MaxInt64), nil
	}
	if y < 0 && sum > x {
		return Integer(math.MinInt64), nil
	}
	return Integer(sum), nil
}

func satSub(a, b Value) (Value, error) {
	x, y, ok := bothInt(a, b)
	if !ok {
		return Value{}, ErrTypeMismatch
	}
	diff := x - y
	if y < 0 && diff < x {
		return Integer(math.MaxInt64), nil
	}
	if y > 0 && diff > x {
		return Integer(math.MinInt64), nil
	}
	return Integer(diff), nil
}

func satMul(a, b Value) (Value, error) {
	x, y, ok := bothInt(a, b)
	if !ok {
		return Value{}, ErrTypeMismatch
	}
	if x == 0 || y == 0 {
		return Integer(0), nil
	}
	p := x * y
	if p/y != x {
		if (x > 0) == (y > 0) {
			return Integer(math.MaxInt64), nil
		}
		return Integer(math.MinInt64), nil
	}
	return Integer(p), nil
}

// shiftLogical implements `<<<`/`>>>`: fixed-width shifts. On an integer
// this is a bitwise shift saturating to an all-zero word once the count
// reaches the word width; on a string/array it keeps the operand's
// length, dropping bytes/elements off one end and padding the other
// with nulls (spec.md §4.8).
func shiftLogical(a, b Value, left bool) (Value, error) {
	n, ok := b.AsInt()
	if !ok {
		return Value{}, ErrTypeMismatch
	}
	if n < 0 {
		return Value{}, ErrNegativeShift
	}
	switch a.Type {
	case ValueInteger:
		x := a.Data.(int64)
		if n >= 64 {
			return Integer(0), nil
		}
		if left {
			return Integer(int64(uint64(x) << uint(n))), nil
		}
		return Integer(int64(uint64(x) >> uint(n))), nil
	case ValueString:
		s := a.Data.(string)
		k := clampShift(n, len(s))
		if left {
			return String(s[k:] + strings.Repeat("\x00", k)), nil
		}
		return String(strings.Repeat("\x00", k) + s[:len(s)-k]), nil
	case ValueArray:
		arr := a.Data.(*Array)
		k := clampShift(n, len(arr.Elems))
		if left {
			out := append(append([]Value(nil), arr.Elems[k:]...), make([]Value, k)...)
			return ArrayOf(&Array{Elems: out}), nil
		}
		out := append(make([]Value, k), arr.Elems[:len(arr.Elems)-k]...)
		return ArrayOf(&Array{Elems: out}), nil
	default:
		return Value{}, ErrTypeMismatch
	}
}

// shiftArith implements `<<`/`>>`: variable-width shifts. On an integer
// this is the usual arithmetic shift (left raises on overflow, right is
// sign-preserving); on a string/array the operand's length itself grows
// or shrinks instead of staying fixed (spec.md §4.8).
func shiftArith(a, b Value, left bool) (Value, error) {
	n, ok := b.AsInt()
	if !ok {
		return Value{}, ErrTypeMismatch
	}
	if n < 0 {
		return Value{}, ErrNegativeShift
	}
	switch a.Type {
	case ValueInteger:
		x := a.Data.(int64)
		if left {
			if n >= 64 {
				if x == 0 {
					return Integer(0), nil
				}
				return Value{}, ErrIntegerOverflow
			}
			shifted := x << uint(n)
			if shifted>>uint(n) != x {
				return Value{}, ErrIntegerOverflow
			}
			return Integer(shifted), nil
		}
		if n >= 64 {
			n = 63
		}
		return Integer(x >> uint(n)), nil
	case ValueString:
		s := a.Data.(string)
		if left {
			return String(s + strings.Repeat("\x00", int(n))), nil
		}
		k := clampShift(n, len(s))
		return String(s[:len(s)-k]), nil
	case ValueArray:
		arr := a.Data.(*Array)
		if left {
			out := append(append([]Value(nil), arr.Elems...), make([]Value, n)...)
			return ArrayOf(&Array{Elems: out}), nil
		}
		k := clampShift(n, len(arr.Elems))
		out := append([]Value(nil), arr.Elems[:len(arr.Elems)-k]...)
		return ArrayOf(&Array{Elems: out}), nil
	default:
		return Value{}, ErrTypeMismatch
	}
}

// clampShift caps a non-negative shift count to an operand's length, for
// the fixed-width (logical) and shrinking (arithmetic-right) cases.
func clampShift(n int64, width int) int {
	if n > int64(width) {
		return width
	}
	return int(n)
}

// partialEqual implements ==/!= : unordered operands are simply unequal.
func partialEqual(a, b Value) bool {
	if a.Type != b.Type {
		if x, y, ok := bothReal(a, b); ok {
			return x == y
		}
		return false
	}
	switch a.Type {
	case ValueNull:
		return true
	case ValueBool:
		return a.Data.(bool) == b.Data.(bool)
	case ValueInteger:
		return a.Data.(int64) == b.Data.(int64)
	case ValueReal:
		return a.Data.(float64) == b.Data.(float64)
	case ValueString:
		return a.Data.(string) == b.Data.(string)
	default:
		return false // arrays/objects/functions compare by identity only via ==, never equal here
	}
}

// totalOrder returns -1/0/+1 and ordered=true, or ordered=false when a
// and b cannot be compared (mixed incomparable types, or NaN).
func totalOrder(a, b Value) (int, bool) {
	if x, y, ok := bothReal(a, b); ok {
		if math.IsNaN(x) || math.IsNaN(y) {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, true
		}
	}
	if sa, ok := a.AsString(); ok {
		if sb, ok2 := b.AsString(); ok2 {
			return strings.Compare(sa, sb), true
		}
	}
	if a.Type == ValueBool && b.Type == ValueBool {
		ab, bb := a.Data.(bool), b.Data.(bool)
		if ab == bb {
			return 0, true
		}
		if !ab {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func orderedCompare(op ast.Operator, a, b Value) (Value, error) {
	order, ok := totalOrder(a, b)
	if !ok {
		return Value{}, ErrUnorderedCompare
	}
	switch op {
	case ast.OpLess:
		return Bool(order < 0), nil
	case ast.OpLessEq:
		return Bool(order <= 0), nil
	case ast.OpGreater:
		return Bool(order > 0), nil
	default:
		return Bool(order >= 0), nil
	}
}

func compare3Way(a, b Value) (Value, error) {
	order, ok := totalOrder(a, b)
	if !ok {
		return String("[unordered]"), nil
	}
	return Integer(int64(order)), nil
}
