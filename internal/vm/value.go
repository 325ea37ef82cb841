// Package vm implements the stack machine that executes a compiled Chunk:
// call frames, shared closure cells, heap-allocated lists, and struct
// instances (spec §3/§4.7). Grounded in original_source/src/vm/core.rs's
// Interpreter loop, generalized from its Rust enum Value to a small Go
// interface with concrete wrapper types (SPEC_FULL.md's domain-model note:
// heterogeneous shapes — scalars, shared cells, shared containers — map
// more directly onto a tagged interface than onto sentra's NaN-boxed
// uint64, which exists there to shave allocations sentra's much larger
// corpus needed and Lucid's budget does not).
package vm

import (
	"fmt"
	"math"

	"github.com/dolthub/swiss"
)

// Value is any runtime value a Lucid program can hold on the stack, in a
// global slot, in a list, or in a struct field.
type Value interface {
	isValue()
}

type Int int64

func (Int) isValue() {}

type Float float64

func (Float) isValue() {}

type Bool bool

func (Bool) isValue() {}

type Null struct{}

func (Null) isValue() {}

type String string

func (String) isValue() {}

// Func is a closure: the compiled address to jump to, its declared arity,
// and the upvalue cells it captured at FuncRef time (spec §4.7). Upvalues
// is shared with every other closure created from the same FuncRef site at
// the same capture event — not with other invocations of the same
// function.
type Func struct {
	Address  int
	Arity    int
	Name     string
	Upvalues []*Cell
}

func (*Func) isValue() {}

type NativeFunc struct {
	ID    int
	Arity int
}

func (NativeFunc) isValue() {}

// List is a shared mutable ordered sequence (spec §3: "shared ownership").
// Holding a *List, not a List, is what makes copies alias.
type List struct {
	Elems []Value
}

func (*List) isValue() {}

// StructInstance is a shared mutable ordered sequence of fields plus a
// name→index map; methods are embedded in Fields after the declared
// fields (spec §5 "Lifetime guarantees").
type StructInstance struct {
	StructName string
	Fields     []Value
	Index      *swiss.Map[string, int]
}

func (*StructInstance) isValue() {}

// Cell is the backing store a Shared value wraps: one mutable box held by
// every closure that captured the same local (spec §9 "shared cells").
type Cell struct {
	Value Value
}

// Shared is a value whose storage lives in a Cell rather than inline.
// Equality unwraps it transparently (spec §3).
type Shared struct {
	Cell *Cell
}

func (Shared) isValue() {}

// Unwrap follows through a Shared indirection to the underlying value.
// Plain values are returned as-is.
func Unwrap(v Value) Value {
	if sh, ok := v.(Shared); ok {
		return Unwrap(sh.Cell.Value)
	}
	return v
}

// IsTruthy implements "non-boolean in a boolean context" as a runtime
// error at the caller (§7); this only ever receives a Bool in a correct
// program, callers must check.
func IsTruthy(v Value) (bool, bool) {
	b, ok := Unwrap(v).(Bool)
	if !ok {
		return false, false
	}
	return bool(b), true
}

// ToDisplayString renders a value the way the native print/debug paths do
// (spec §4.9's print, §9's top-level Debug value).
func ToDisplayString(v Value) string {
	v = Unwrap(v)
	switch x := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(x))
	case Float:
		return formatFloat(float64(x))
	case Bool:
		if x {
			return "true"
		}
		return "false"
	case Null:
		return "null"
	case String:
		return string(x)
	case *Func:
		return fmt.Sprintf("<fn %s>", x.Name)
	case NativeFunc:
		return "<native fn>"
	case *List:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = ToDisplayString(e)
		}
		return "[" + joinComma(parts) + "]"
	case *StructInstance:
		return fmt.Sprintf("<struct %s>", x.StructName)
	default:
		return "<unknown>"
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	return fmt.Sprintf("%g", f)
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
