// Package bytecode defines Lucid's instruction set and the Chunk container
// the compiler emits into and the VM executes out of.
package bytecode

import "github.com/dolthub/swiss"

// OpCode identifies a single bytecode operation. Operand shape is
// documented per opcode below; operands live on the owning Instruction,
// not packed into the code stream, since Lucid's operands are
// heterogeneous (slot indices, jump deltas, upvalue specs, field maps).
type OpCode byte

const (
	// Stack
	OpConstant OpCode = iota // Operand: constant pool index
	OpPop                    // Operand: none
	OpDup                    // Operand: n — duplicate the top n stack entries in order

	// Arithmetic / logic / bitwise
	OpAdd
	OpSub
	OpMult
	OpDiv
	OpMod
	OpPow
	OpNegate
	OpNot
	OpEqual
	OpLess
	OpGreater
	OpLogicAnd
	OpLogicOr
	OpBitAnd
	OpBitOr
	OpShiftLeft
	OpShiftRight

	// Globals
	OpDefGlobal // Operand: global slot
	OpGetGlobal // Operand: global slot
	OpSetGlobal // Operand: global slot

	// Locals
	OpGetLocal // Operand: frame-relative offset
	OpSetLocal // Operand: frame-relative offset

	// Upvalues
	OpGetUpvalue // Operand: upvalue index
	OpSetUpvalue // Operand: upvalue index

	// Control flow
	OpJump        // Operand: delta, added to ip after the instruction has advanced past it
	OpJumpIfFalse // Operand: delta, same convention as OpJump
	OpJumpTo      // Operand: absolute ip
	OpJumpRe      // Operand: none — pop one call frame and resume at its return ip
	OpReturn      // Operand: none
	OpDummy       // Operand: none — placeholder for a not-yet-patched jump; must never reach the VM

	// Functions
	OpFuncRef   // Operand: *FuncSpec
	OpNativeRef // Operand: NativeSpec{ID, Arity}
	OpCallFunc  // Operand: argument count n; callee sits at stack depth n

	// Lists
	OpDefList    // Operand: element count n
	OpAccessList // Operand: none — pops index then list, pushes element
	OpSetList    // Operand: none — pops value, index, list; assigns and leaves value

	// Structs
	OpStruct     // Operand: *NameMap — pops len(NameMap.Order) values, pushes a StructInstance
	OpStructGet  // Operand: field/method name
	OpStructSet  // Operand: field name
	OpDefineSelf // Operand: stack depth of the receiver to capture as frame.Self
	OpGetSelf    // Operand: none

	// Debug — emitted by the compiler after every top-level expression
	// statement to track "the last evaluated top-level expression" (spec §9).
	OpDebug
)

var names = map[OpCode]string{
	OpConstant:    "Constant",
	OpPop:         "Pop",
	OpDup:         "Dup",
	OpAdd:         "Add",
	OpSub:         "Sub",
	OpMult:        "Mult",
	OpDiv:         "Div",
	OpMod:         "Mod",
	OpPow:         "Pow",
	OpNegate:      "Negate",
	OpNot:         "Not",
	OpEqual:       "Equal",
	OpLess:        "Less",
	OpGreater:     "Greater",
	OpLogicAnd:    "LogicAnd",
	OpLogicOr:     "LogicOr",
	OpBitAnd:      "BitAnd",
	OpBitOr:       "BitOr",
	OpShiftLeft:   "ShiftLeft",
	OpShiftRight:  "ShiftRight",
	OpDefGlobal:   "DefGlobal",
	OpGetGlobal:   "GetGlobal",
	OpSetGlobal:   "SetGlobal",
	OpGetLocal:    "GetLocal",
	OpSetLocal:    "SetLocal",
	OpGetUpvalue:  "GetUpvalue",
	OpSetUpvalue:  "SetUpvalue",
	OpJump:        "Jump",
	OpJumpIfFalse: "JumpIfFalse",
	OpJumpTo:      "JumpTo",
	OpJumpRe:      "JumpRe",
	OpReturn:      "Return",
	OpDummy:       "Dummy",
	OpFuncRef:     "FuncRef",
	OpNativeRef:   "NativeRef",
	OpCallFunc:    "CallFunc",
	OpDefList:     "DefList",
	OpAccessList:  "AccessList",
	OpSetList:     "SetList",
	OpStruct:      "Struct",
	OpStructGet:   "StructGet",
	OpStructSet:   "StructSet",
	OpDefineSelf:  "DefineSelf",
	OpGetSelf:     "GetSelf",
	OpDebug:       "Debug",
}

func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "Unknown"
}

// UpvalueSource describes where one captured upvalue for a FuncRef comes
// from, per spec §4.5's resolution algorithm.
type UpvalueSource struct {
	// IsLocal is true when Index names a local slot in the *immediately*
	// enclosing frame (promoted to a Shared cell at capture time). When
	// false, Index names a slot in the enclosing function's own upvalue
	// vector (a "Recursive" chain hop through an intermediate frame).
	IsLocal bool
	Index   int
}

// FuncSpec is the operand of OpFuncRef.
type FuncSpec struct {
	Address  int
	Arity    int
	Name     string
	Upvalues []UpvalueSource
}

// NativeSpec is the operand of OpNativeRef.
type NativeSpec struct {
	ID    int
	Arity int
}

// NameMap is the operand of OpStruct: the ordered field/method names and
// the name→index map a StructInstance is constructed with.
type NameMap struct {
	StructName string
	// Order lists field names first, then non-static method names, in
	// declaration order — the order values are popped off the stack to
	// build the instance.
	Order []string
	Index *swiss.Map[string, int]
}
