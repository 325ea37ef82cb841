// Package compiler implements the single-pass Pratt compiler that turns a
// Lucid token stream directly into a bytecode.Chunk, with no AST
// materialized in between (spec §2). Grounded in
// original_source/src/compiler/{core,locals,globaltable,functions,structs}.rs,
// generalized to the fuller feature set (locals, upvalues, calls, lists,
// structs, for-loops) that original_source's own expressions.rs/
// declarations.rs only partially cover.
package compiler

import (
	"github.com/dolthub/swiss"

	"github.com/lucidlang/lucid/internal/bytecode"
)

// GlobalTable is a name→slot map (spec §3), backed by the same SwissTable
// implementation mna-nenuphar's lang/machine/map.go uses for its runtime
// Map value — Lucid reuses it for every compile-time name table instead of
// a builtin Go map (SPEC_FULL.md domain-stack table). Slot order only ever
// matters at assignment time (each new name gets the next integer), never
// at iteration time, so SwissTable's unordered iteration costs nothing
// here.
type GlobalTable struct {
	slots *swiss.Map[string, int]
	top   int
}

func newGlobalTable() *GlobalTable {
	return &GlobalTable{slots: swiss.NewMap[string, int](8)}
}

func (g *GlobalTable) get(name string) (int, bool) {
	return g.slots.Get(name)
}

func (g *GlobalTable) put(name string) int {
	if slot, ok := g.slots.Get(name); ok {
		return slot
	}
	slot := g.top
	g.slots.Put(name, slot)
	g.top++
	return slot
}

// local is one entry in a function's compile-time locals stack.
type local struct {
	name       string
	scopeDepth int
}

// locals tracks one function's compile-time stack of locals. Every
// function body (including the top-level program) gets its own locals
// table whose slot indices line up directly with the runtime frame's
// stack offsets (spec §3's "Locals table").
type locals struct {
	entries    []local
	scopeDepth int
}

func newLocals() *locals {
	return &locals{}
}

func (l *locals) beginScope() { l.scopeDepth++ }

// endScope pops every local declared at or below the scope being closed
// and reports how many Pop instructions the caller must emit (spec §4.8).
func (l *locals) endScope() int {
	l.scopeDepth--
	popped := 0
	for len(l.entries) > 0 && l.entries[len(l.entries)-1].scopeDepth > l.scopeDepth {
		l.entries = l.entries[:len(l.entries)-1]
		popped++
	}
	return popped
}

func (l *locals) isGlobalScope() bool { return l.scopeDepth == 0 }

func (l *locals) add(name string) int {
	l.entries = append(l.entries, local{name: name, scopeDepth: l.scopeDepth})
	return len(l.entries) - 1
}

func (l *locals) resolve(name string) (int, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// functionData is the function table's per-name metadata (spec §3). Held
// by pointer in functionTable so nested-function compilation can append
// to Upvalues while the enclosing function's own body is still being
// compiled — mirroring original_source's Rc<RefCell<Vec<UpValue>>>.
type functionData struct {
	Address  int
	Arity    int
	Name     string
	IsNative bool
	NativeID int
	Upvalues []bytecode.UpvalueSource
}

type functionTable struct {
	byName      *swiss.Map[string, *functionData]
	lambdaCount int
}

func newFunctionTable() *functionTable {
	return &functionTable{byName: swiss.NewMap[string, *functionData](16)}
}

func (f *functionTable) get(name string) (*functionData, bool) {
	return f.byName.Get(name)
}

func (f *functionTable) declare(name string, address, arity int) *functionData {
	fd := &functionData{Address: address, Arity: arity, Name: name}
	f.byName.Put(name, fd)
	return fd
}

// declareLambda synthesizes a digit-leading name so it can never collide
// with a user identifier (same invariant spec §9 requires of for-loop
// synthetic locals).
func (f *functionTable) declareLambda(address, arity int) *functionData {
	f.lambdaCount++
	name := "0lambda" + itoa(f.lambdaCount)
	return f.declare(name, address, arity)
}

func (f *functionTable) addNative(name string, id, arity int) {
	f.byName.Put(name, &functionData{Name: name, IsNative: true, NativeID: id, Arity: arity})
}

// methodMeta describes one method attached to a struct.
type methodMeta struct {
	Name     string
	IsStatic bool
}

// structDef is a struct's compile-time layout: declared fields in order,
// then non-static methods in declaration order, both folded into one
// name→index map mirroring the runtime StructInstance/NameMap shape
// (spec §4.4's "StructDef computes a map field_name → index").
type structDef struct {
	Name    string
	Fields  []string
	Methods []methodMeta
}

func (s *structDef) order() []string {
	order := make([]string, 0, len(s.Fields)+len(s.Methods))
	order = append(order, s.Fields...)
	for _, m := range s.Methods {
		if !m.IsStatic {
			order = append(order, m.Name)
		}
	}
	return order
}

func (s *structDef) index() *swiss.Map[string, int] {
	order := s.order()
	idx := swiss.NewMap[string, int](uint32(len(order)))
	for i, name := range order {
		idx.Put(name, i)
	}
	return idx
}

func (s *structDef) findMethod(name string) (methodMeta, bool) {
	for _, m := range s.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return methodMeta{}, false
}

type structTable struct {
	byName *swiss.Map[string, *structDef]
}

func newStructTable() *structTable {
	return &structTable{byName: swiss.NewMap[string, *structDef](8)}
}

func (s *structTable) get(name string) (*structDef, bool) {
	return s.byName.Get(name)
}

func (s *structTable) declare(name string, fields []string) *structDef {
	sd := &structDef{Name: name, Fields: fields}
	s.byName.Put(name, sd)
	return sd
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
