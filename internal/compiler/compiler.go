package compiler

import (
	"github.com/lucidlang/lucid/internal/bytecode"
	"github.com/lucidlang/lucid/internal/errors"
	"github.com/lucidlang/lucid/internal/lexer"
	"github.com/lucidlang/lucid/internal/vm"
)

// funcScope is one nesting level of function compilation: its own locals
// table and, for everything but the top-level program, the functionData
// entry its upvalue resolutions get appended to.
type funcScope struct {
	locals  *locals
	fn      *functionData // nil at top level
	forDepth int
}

// Compiler walks the token stream exactly once, emitting instructions
// directly into chunk while consulting and mutating the scope/function/
// struct tables (spec §2). Grounded in
// original_source/src/compiler/core.rs's Compiler struct.
type Compiler struct {
	tokens []lexer.Token
	pos    int

	chunk     *bytecode.Chunk
	globals   *GlobalTable
	functions *functionTable
	structs   *structTable
	scopes    []*funcScope

	hadError bool
	errs     []error
}

// newCompilerCtor constructs a compiler with the native function ids spec
// §4.9 requires already registered.
func newCompilerCtor() *Compiler {
	c := &Compiler{
		chunk:     bytecode.NewChunk(),
		globals:   newGlobalTable(),
		functions: newFunctionTable(),
		structs:   newStructTable(),
	}
	c.scopes = []*funcScope{{locals: newLocals()}}
	registerNatives(c.functions)
	return c
}

func registerNatives(ft *functionTable) {
	ft.addNative("print", vm.NativePrint, vm.NativeArity[vm.NativePrint])
	ft.addNative("read", vm.NativeRead, vm.NativeArity[vm.NativeRead])
	ft.addNative("len", vm.NativeLen, vm.NativeArity[vm.NativeLen])
	ft.addNative("range", vm.NativeRange, vm.NativeArity[vm.NativeRange])
	ft.addNative("sleep", vm.NativeSleep, vm.NativeArity[vm.NativeSleep])
	ft.addNative("now", vm.NativeNow, vm.NativeArity[vm.NativeNow])
	ft.addNative("read_file", vm.NativeReadFile, vm.NativeArity[vm.NativeReadFile])
	ft.addNative("push", vm.NativePush, vm.NativeArity[vm.NativePush])
	ft.addNative("__string_get_at", vm.NativeStringGetAt, vm.NativeArity[vm.NativeStringGetAt])
}

// Compile runs the compiler to completion over the given token stream and
// returns the finished chunk, or the accumulated errors if any declaration
// failed (spec §7: "if any error occurred, no chunk is produced").
func Compile(tokens []lexer.Token) (*bytecode.Chunk, []error) {
	c := newCompilerCtor()
	c.tokens = tokens
	for !c.check(lexer.EOF) {
		c.declaration()
	}
	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return c.chunk, nil
}

// CompileSource lexes and compiles a complete source string in one step,
// the entry point the package's own tests drive end-to-end scenarios
// through (spec §8's test-tooling expansion).
func CompileSource(source string) (*bytecode.Chunk, []error) {
	tokens, err := lexer.New(source).Scan()
	if err != nil {
		return nil, []error{err}
	}
	return Compile(tokens)
}

func (c *Compiler) cur() lexer.Token  { return c.tokens[c.pos] }
func (c *Compiler) check(k lexer.Kind) bool {
	return c.cur().Kind == k
}

func (c *Compiler) advance() lexer.Token {
	t := c.tokens[c.pos]
	if t.Kind != lexer.EOF {
		c.pos++
	}
	return t
}

func (c *Compiler) match(k lexer.Kind) bool {
	if c.check(k) {
		c.advance()
		return true
	}
	return false
}

func (c *Compiler) consume(k lexer.Kind, expected string) {
	if c.check(k) {
		c.advance()
		return
	}
	c.reportConsume(expected)
}

func (c *Compiler) consumeIdentifier() string {
	if !c.check(lexer.Ident) {
		c.reportConsume("identifier")
		return ""
	}
	return c.advance().Lexeme
}

func (c *Compiler) reportError(detail string) {
	c.hadError = true
	c.errs = append(c.errs, errors.NewParseError(c.cur().Line, detail))
	c.synchronize()
}

func (c *Compiler) reportConsume(expected string) {
	c.hadError = true
	c.errs = append(c.errs, errors.NewParseConsumeError(c.cur().Line, expected))
	c.synchronize()
}

// synchronize advances tokens until a semicolon, `let`, or EOF so the
// compiler can keep finding further errors in one run (spec §7).
func (c *Compiler) synchronize() {
	for !c.check(lexer.EOF) && !c.check(lexer.KwLet) {
		if c.cur().Kind == lexer.Semicolon {
			c.advance()
			return
		}
		c.advance()
	}
}

func (c *Compiler) emit(op bytecode.OpCode, operand interface{}, line int) int {
	return c.chunk.PushInstruction(op, operand, line)
}

func (c *Compiler) patchJump(slot int, op bytecode.OpCode) {
	if op == bytecode.OpJumpTo {
		c.chunk.PatchInstruction(slot, op, c.chunk.Len())
		return
	}
	delta := c.chunk.Len() - slot - 1
	c.chunk.PatchInstruction(slot, op, delta)
}

func (c *Compiler) top() *funcScope { return c.scopes[len(c.scopes)-1] }

func (c *Compiler) inFunction() bool { return len(c.scopes) > 1 }
