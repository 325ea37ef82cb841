package bytecode

// Instruction is one decoded bytecode instruction: an opcode plus whatever
// operand that opcode needs (nil for operand-less ops). Line is the
// 1-based source line it was compiled from, used to format runtime error
// messages as "<line>: <kind>(<detail>)" (spec §7).
type Instruction struct {
	Op      OpCode
	Operand interface{}
	Line    int
}

// Chunk is a compiled program: an ordered instruction stream addressed by
// a zero-based instruction pointer, plus the constant pool instructions
// reference by index. Constant pool slots 0, 1, 2 are reserved and
// pre-seeded with true, false, null respectively (spec §3); no other
// code may reuse those slots.
type Chunk struct {
	Code      []Instruction
	Constants []interface{}
}

// NewChunk returns an empty chunk with the three reserved constants
// already pushed, in order.
func NewChunk() *Chunk {
	c := &Chunk{
		Code:      []Instruction{},
		Constants: []interface{}{},
	}
	c.AddConstant(true)
	c.AddConstant(false)
	c.AddConstant(nil)
	return c
}

// PushInstruction appends an instruction and returns the slot it was
// written to, so the compiler can later patch it (e.g. a forward jump
// emitted as OpDummy).
func (c *Chunk) PushInstruction(op OpCode, operand interface{}, line int) int {
	c.Code = append(c.Code, Instruction{Op: op, Operand: operand, Line: line})
	return len(c.Code) - 1
}

// PatchInstruction overwrites an already-emitted instruction in place.
// Used to back-patch OpDummy placeholders once the target address is
// known.
func (c *Chunk) PatchInstruction(slot int, op OpCode, operand interface{}) {
	c.Code[slot].Op = op
	c.Code[slot].Operand = operand
}

// AddConstant appends a value to the constant pool and returns its index.
func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// Len reports the number of instructions emitted so far — the address a
// jump patched "to here" should target.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// HasDummy reports whether any OpDummy instruction survived compilation
// (spec §8 property 1: this must never be true in a finalized chunk).
func (c *Chunk) HasDummy() bool {
	for _, ins := range c.Code {
		if ins.Op == OpDummy {
			return true
		}
	}
	return false
}
