package compiler

import (
	"github.com/lucidlang/lucid/internal/bytecode"
	"github.com/lucidlang/lucid/internal/lexer"
)

// placeKind tags what kind of assignable location the parser is
// currently holding a deferred reference to (spec §4.5's "Identifier
// lookup order" and "Compound assignment" — Get is deferred until the
// parser knows whether an assignment follows).
type placeKind int

const (
	placeNone placeKind = iota
	placeLocal
	placeGlobal
	placeUpvalue
	placeList
	placeStruct
)

type place struct {
	kind placeKind
	slot int
	name string
}

// emitGet finalizes a pending place by emitting its Get instruction. For
// placeList/placeStruct the receiver(s) are already on the stack from
// parsing the postfix chain; for placeLocal/Global/Upvalue nothing has
// been pushed yet.
func (c *Compiler) emitGet(p place, line int) {
	switch p.kind {
	case placeLocal:
		c.emit(bytecode.OpGetLocal, p.slot, line)
	case placeGlobal:
		c.emit(bytecode.OpGetGlobal, p.slot, line)
	case placeUpvalue:
		c.emit(bytecode.OpGetUpvalue, p.slot, line)
	case placeList:
		c.emit(bytecode.OpAccessList, nil, line)
	case placeStruct:
		c.emit(bytecode.OpStructGet, p.name, line)
	}
}

// emitSet finalizes a pending place by consuming the already-computed
// value on top of the stack and storing it, per place kind's stack
// layout described in spec §4.5/§4.7.
func (c *Compiler) emitSet(p place, line int) {
	switch p.kind {
	case placeLocal:
		c.emit(bytecode.OpSetLocal, p.slot, line)
	case placeGlobal:
		c.emit(bytecode.OpSetGlobal, p.slot, line)
	case placeUpvalue:
		c.emit(bytecode.OpSetUpvalue, p.slot, line)
	case placeList:
		c.emit(bytecode.OpSetList, nil, line)
	case placeStruct:
		c.emit(bytecode.OpStructSet, p.name, line)
	}
}

// dupForCompound duplicates whatever receiver(s) a compound assignment
// needs to survive the Get/Set round trip (spec §4.5: "Dup(2) preserves
// the receiver/index pair" for lists; a struct receiver is a single
// value, so it needs only Dup(1)). Local/global/upvalue places need no
// duplication since their Get does not consume backing storage.
func (c *Compiler) dupForCompound(p place, line int) {
	switch p.kind {
	case placeList:
		c.emit(bytecode.OpDup, 2, line)
	case placeStruct:
		c.emit(bytecode.OpDup, 1, line)
	}
}

func isAssignToken(k lexer.Kind) bool {
	switch k {
	case lexer.Assign, lexer.PlusEq, lexer.MinusEq, lexer.StarEq, lexer.SlashEq,
		lexer.PlusPlus, lexer.MinusMinus:
		return true
	}
	return false
}

// compoundOp maps a compound-assignment token to the arithmetic opcode
// that combines the current value with the RHS (spec §4.5).
func compoundOp(k lexer.Kind) bytecode.OpCode {
	switch k {
	case lexer.PlusEq, lexer.PlusPlus:
		return bytecode.OpAdd
	case lexer.MinusEq, lexer.MinusMinus:
		return bytecode.OpSub
	case lexer.StarEq:
		return bytecode.OpMult
	case lexer.SlashEq:
		return bytecode.OpDiv
	}
	return bytecode.OpAdd
}
