package vm

import (
	"fmt"
	"io"

	"github.com/lucidlang/lucid/internal/bytecode"
	"github.com/lucidlang/lucid/internal/errors"
)

// VM is the fetch/decode/execute loop over a compiled Chunk (spec §4.7).
// Grounded in original_source/src/vm/core.rs's Interpreter, generalized
// with the list/struct/self opcodes core.rs never implemented.
type VM struct {
	chunk  *bytecode.Chunk
	ip     int
	stack  []Value
	frames []CallFrame

	globals   []Value
	hasGlob   []bool
	lastDebug Value
	halted    bool

	natives *NativeSet
}

func New(chunk *bytecode.Chunk, natives *NativeSet) *VM {
	return &VM{
		chunk:     chunk,
		stack:     make([]Value, 0, 256),
		frames:    []CallFrame{{ReturnIP: 0, StackBase: 0}},
		globals:   make([]Value, 0, 32),
		hasGlob:   make([]bool, 0, 32),
		lastDebug: Null{},
		natives:   natives,
	}
}

func (m *VM) push(v Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() (Value, error) {
	n := len(m.stack)
	if n == 0 {
		return nil, errors.NewRuntimeError(0, "stack underflow")
	}
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v, nil
}

func (m *VM) peek() (Value, error) {
	if len(m.stack) == 0 {
		return nil, errors.NewRuntimeError(0, "stack underflow")
	}
	return m.stack[len(m.stack)-1], nil
}

func (m *VM) peekAt(depth int) (Value, error) {
	idx := len(m.stack) - 1 - depth
	if idx < 0 || idx >= len(m.stack) {
		return nil, errors.NewRuntimeError(0, "stack underflow")
	}
	return m.stack[idx], nil
}

func (m *VM) curFrame() *CallFrame {
	return &m.frames[len(m.frames)-1]
}

func (m *VM) getLocal(idx int, line int) (Value, error) {
	if idx < 0 || idx >= len(m.stack) {
		return nil, errors.NewRuntimeError(line, "local slot out of range")
	}
	return Unwrap(m.stack[idx]), nil
}

func (m *VM) setLocal(idx int, v Value, line int) error {
	if idx < 0 || idx >= len(m.stack) {
		return errors.NewRuntimeError(line, "local slot out of range")
	}
	if sh, ok := m.stack[idx].(Shared); ok {
		sh.Cell.Value = v
		return nil
	}
	m.stack[idx] = v
	return nil
}

// Run executes the chunk to completion. When trace is non-nil it receives
// one "IP: <n>, STACK: [...]" line per instruction (spec §6 --stack),
// formatted after original_source/src/vm/core.rs's `{}: STACK: {:?}` line.
func (m *VM) Run(trace io.Writer) (Value, error) {
	for {
		if m.ip >= m.chunk.Len() {
			break
		}
		ins := m.chunk.Code[m.ip]
		curIP := m.ip
		m.ip++

		if trace != nil {
			fmt.Fprintf(trace, "IP: %d, STACK: %s\n", curIP, m.formatStack())
		}

		if err := m.step(ins); err != nil {
			return nil, err
		}
		if m.halted {
			break
		}
	}
	return m.lastDebug, nil
}

func (m *VM) formatStack() string {
	parts := make([]string, len(m.stack))
	for i, v := range m.stack {
		parts[i] = ToDisplayString(v)
	}
	return "[" + joinComma(parts) + "]"
}
