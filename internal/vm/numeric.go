package vm

import (
	"math"

	"github.com/lucidlang/lucid/internal/errors"
)

// binaryArith implements the numeric promotion table of spec §4.1,
// generalized from original_source/src/vm/instructions.rs's binary_op
// (which only covered Add/Sub/Mult/Div/Mod/Pow over Integer/Float) to also
// cover string concatenation, comparisons, and bitwise reinterpretation.
func binaryArith(op string, left, right Value, line int) (Value, error) {
	left, right = Unwrap(left), Unwrap(right)

	switch op {
	case "Add":
		if ls, ok := left.(String); ok {
			if rs, ok := right.(String); ok {
				return String(string(ls) + string(rs)), nil
			}
			return nil, errors.NewRuntimeError(line, "cannot add string and non-string")
		}
		if _, ok := right.(String); ok {
			return nil, errors.NewRuntimeError(line, "cannot add non-string and string")
		}
	case "BitAnd", "BitOr", "ShiftLeft", "ShiftRight":
		return bitwiseOp(op, left, right, line)
	}

	li, lIsInt := left.(Int)
	ri, rIsInt := right.(Int)
	lf, lIsFloat := left.(Float)
	rf, rIsFloat := right.(Float)

	switch {
	case lIsInt && rIsInt:
		return intOp(op, int64(li), int64(ri), line)
	case (lIsInt || lIsFloat) && (rIsInt || rIsFloat):
		var a, b float64
		if lIsInt {
			a = float64(li)
		} else {
			a = float64(lf)
		}
		if rIsInt {
			b = float64(ri)
		} else {
			b = float64(rf)
		}
		// Integer/float ordering only extends the equality convention when
		// the float side is integral (spec §4.1/§8: "1 < 1.5 is false
		// because 1.5 is not integral"). A non-integral float against an
		// int can never be ordered, so Less/Greater are forced false
		// instead of falling back to plain float comparison.
		if (op == "Less" || op == "Greater") && lIsInt != rIsInt {
			floatSide := a
			if lIsInt {
				floatSide = b
			}
			if floatSide != math.Trunc(floatSide) {
				return Bool(false), nil
			}
		}
		return floatOp(op, a, b, line)
	default:
		return nil, errors.NewRuntimeError(line, "arithmetic on incompatible types")
	}
}

func intOp(op string, l, r int64, line int) (Value, error) {
	switch op {
	case "Add":
		return Int(l + r), nil
	case "Sub":
		return Int(l - r), nil
	case "Mult":
		return Int(l * r), nil
	case "Div":
		if r == 0 {
			return nil, errors.NewRuntimeError(line, "division by zero")
		}
		if l%r == 0 {
			return Int(l / r), nil
		}
		return Float(float64(l) / float64(r)), nil
	case "Mod":
		if r == 0 {
			return nil, errors.NewRuntimeError(line, "division by zero")
		}
		return Int(l % r), nil
	case "Pow":
		if r >= 0 && r <= int64(math.MaxUint32) {
			return Int(intPow(l, r)), nil
		}
		return Float(math.Pow(float64(l), float64(r))), nil
	case "Equal":
		return Bool(l == r), nil
	case "Less":
		return Bool(l < r), nil
	case "Greater":
		return Bool(l > r), nil
	default:
		return nil, errors.NewRuntimeError(line, "unsupported integer operator")
	}
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}

func floatOp(op string, l, r float64, line int) (Value, error) {
	switch op {
	case "Add":
		return Float(l + r), nil
	case "Sub":
		return Float(l - r), nil
	case "Mult":
		return Float(l * r), nil
	case "Div":
		if r == 0 {
			return nil, errors.NewRuntimeError(line, "division by zero")
		}
		return Float(l / r), nil
	case "Mod":
		if r == 0 {
			return nil, errors.NewRuntimeError(line, "division by zero")
		}
		return Float(math.Mod(l, r)), nil
	case "Pow":
		return Float(math.Pow(l, r)), nil
	case "Equal":
		return Bool(l == r), nil
	case "Less":
		return Bool(l < r), nil
	case "Greater":
		return Bool(l > r), nil
	default:
		return nil, errors.NewRuntimeError(line, "unsupported float operator")
	}
}

func bitwiseOp(op string, left, right Value, line int) (Value, error) {
	lu, ok := toBits(left)
	if !ok {
		return nil, errors.NewRuntimeError(line, "bitwise op on non-numeric value")
	}
	ru, ok := toBits(right)
	if !ok {
		return nil, errors.NewRuntimeError(line, "bitwise op on non-numeric value")
	}
	switch op {
	case "BitAnd":
		return Int(int64(lu & ru)), nil
	case "BitOr":
		return Int(int64(lu | ru)), nil
	case "ShiftLeft":
		return Int(int64(lu << (ru & 63))), nil
	case "ShiftRight":
		return Int(int64(lu >> (ru & 63))), nil
	default:
		return nil, errors.NewRuntimeError(line, "unsupported bitwise operator")
	}
}

// toBits reinterprets an Int directly and a Float through its IEEE-754 bit
// pattern (spec §4.1: "Bitwise ops on floats operate on IEEE-754 bit
// patterns reinterpreted as unsigned").
func toBits(v Value) (uint64, bool) {
	switch x := v.(type) {
	case Int:
		return uint64(x), true
	case Float:
		return math.Float64bits(float64(x)), true
	default:
		return 0, false
	}
}

// compareValues implements "Equality between integer and float is true iff
// the float has zero fractional part and integer value matches" (§4.1),
// and falls through to op-specific comparisons for Less/Greater.
func compareValues(op string, left, right Value, line int) (Value, error) {
	left, right = Unwrap(left), Unwrap(right)
	if ls, ok := left.(String); ok {
		if rs, ok := right.(String); ok {
			switch op {
			case "Equal":
				return Bool(ls == rs), nil
			case "Less":
				return Bool(ls < rs), nil
			case "Greater":
				return Bool(ls > rs), nil
			}
		}
		if op == "Equal" {
			return Bool(false), nil
		}
		return nil, errors.NewRuntimeError(line, "cannot compare string and non-string")
	}
	if lb, ok := left.(Bool); ok {
		if rb, ok := right.(Bool); ok && op == "Equal" {
			return Bool(lb == rb), nil
		}
		if op == "Equal" {
			return Bool(false), nil
		}
		return nil, errors.NewRuntimeError(line, "cannot compare booleans with < or >")
	}
	if _, ok := left.(Null); ok {
		if _, ok := right.(Null); ok && op == "Equal" {
			return Bool(true), nil
		}
		if op == "Equal" {
			return Bool(false), nil
		}
	}
	return binaryArith(op, left, right, line)
}
