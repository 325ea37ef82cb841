package vm

import (
	"github.com/lucidlang/lucid/internal/bytecode"
	"github.com/lucidlang/lucid/internal/errors"
)

// step executes one instruction. Split out of Run so the trace/fetch loop
// stays readable, grounded in original_source/src/vm/core.rs's single big
// match over Instruction.
func (m *VM) step(ins bytecode.Instruction) error {
	line := ins.Line
	switch ins.Op {
	case bytecode.OpConstant:
		idx := ins.Operand.(int)
		m.push(cloneConstant(m.chunk.Constants[idx]))

	case bytecode.OpPop:
		if _, err := m.pop(); err != nil {
			return err
		}

	case bytecode.OpDup:
		n := ins.Operand.(int)
		if n > len(m.stack) {
			return errors.NewRuntimeError(line, "stack underflow")
		}
		m.stack = append(m.stack, m.stack[len(m.stack)-n:]...)

	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMult, bytecode.OpDiv, bytecode.OpMod, bytecode.OpPow,
		bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpShiftLeft, bytecode.OpShiftRight:
		right, err := m.pop()
		if err != nil {
			return err
		}
		left, err := m.pop()
		if err != nil {
			return err
		}
		res, err := binaryArith(opName(ins.Op), left, right, line)
		if err != nil {
			return err
		}
		m.push(res)

	case bytecode.OpEqual, bytecode.OpLess, bytecode.OpGreater:
		right, err := m.pop()
		if err != nil {
			return err
		}
		left, err := m.pop()
		if err != nil {
			return err
		}
		res, err := compareValues(opName(ins.Op), left, right, line)
		if err != nil {
			return err
		}
		m.push(res)

	case bytecode.OpLogicAnd, bytecode.OpLogicOr:
		right, err := m.pop()
		if err != nil {
			return err
		}
		left, err := m.pop()
		if err != nil {
			return err
		}
		lb, ok := IsTruthy(left)
		if !ok {
			return errors.NewRuntimeError(line, "non-boolean in expression")
		}
		rb, ok := IsTruthy(right)
		if !ok {
			return errors.NewRuntimeError(line, "non-boolean in expression")
		}
		if ins.Op == bytecode.OpLogicAnd {
			m.push(Bool(lb && rb))
		} else {
			m.push(Bool(lb || rb))
		}

	case bytecode.OpNegate:
		v, err := m.pop()
		if err != nil {
			return err
		}
		switch x := Unwrap(v).(type) {
		case Int:
			m.push(Int(-x))
		case Float:
			m.push(Float(-x))
		default:
			return errors.NewRuntimeError(line, "negate expects a numeric value")
		}

	case bytecode.OpNot:
		v, err := m.pop()
		if err != nil {
			return err
		}
		b, ok := IsTruthy(v)
		if !ok {
			return errors.NewRuntimeError(line, "not expects a boolean value")
		}
		m.push(Bool(!b))

	case bytecode.OpDefGlobal:
		slot := ins.Operand.(int)
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.ensureGlobalSlot(slot)
		m.globals[slot] = v
		m.hasGlob[slot] = true

	case bytecode.OpGetGlobal:
		slot := ins.Operand.(int)
		if slot >= len(m.globals) || !m.hasGlob[slot] {
			return errors.NewRuntimeError(line, "undefined global")
		}
		m.push(Unwrap(m.globals[slot]))

	case bytecode.OpSetGlobal:
		slot := ins.Operand.(int)
		if slot >= len(m.globals) || !m.hasGlob[slot] {
			return errors.NewRuntimeError(line, "undefined global")
		}
		v, err := m.peek()
		if err != nil {
			return err
		}
		m.globals[slot] = v

	case bytecode.OpGetLocal:
		off := ins.Operand.(int)
		idx := m.curFrame().StackBase + off
		v, err := m.getLocal(idx, line)
		if err != nil {
			return err
		}
		m.push(v)

	case bytecode.OpSetLocal:
		off := ins.Operand.(int)
		idx := m.curFrame().StackBase + off
		v, err := m.peek()
		if err != nil {
			return err
		}
		if err := m.setLocal(idx, v, line); err != nil {
			return err
		}

	case bytecode.OpGetUpvalue:
		i := ins.Operand.(int)
		upv := m.curFrame().Upvalues
		if i < 0 || i >= len(upv) {
			return errors.NewRuntimeError(line, "upvalue resolution failed")
		}
		m.push(upv[i].Value)

	case bytecode.OpSetUpvalue:
		i := ins.Operand.(int)
		upv := m.curFrame().Upvalues
		if i < 0 || i >= len(upv) {
			return errors.NewRuntimeError(line, "upvalue resolution failed")
		}
		v, err := m.peek()
		if err != nil {
			return err
		}
		upv[i].Value = v

	case bytecode.OpJump:
		delta := ins.Operand.(int)
		m.ip += delta

	case bytecode.OpJumpIfFalse:
		delta := ins.Operand.(int)
		v, err := m.peek()
		if err != nil {
			return err
		}
		b, ok := IsTruthy(v)
		if !ok {
			return errors.NewRuntimeError(line, "non-boolean in boolean context")
		}
		if !b {
			m.ip += delta
		}

	case bytecode.OpJumpTo:
		m.ip = ins.Operand.(int)

	case bytecode.OpJumpRe:
		if len(m.frames) == 0 {
			return errors.NewRuntimeError(line, "no call frame to resume")
		}
		frame := m.frames[len(m.frames)-1]
		m.frames = m.frames[:len(m.frames)-1]
		m.ip = frame.ReturnIP

	case bytecode.OpReturn:
		result, err := m.pop()
		if err != nil {
			return err
		}
		if len(m.frames) == 0 {
			return errors.NewRuntimeError(line, "return outside of a call frame")
		}
		frame := m.frames[len(m.frames)-1]
		m.frames = m.frames[:len(m.frames)-1]
		truncTo := frame.StackBase - 1
		if _, ok := frame.Self.(*StructInstance); ok {
			truncTo--
		}
		if truncTo < 0 {
			truncTo = 0
		}
		if truncTo > len(m.stack) {
			truncTo = len(m.stack)
		}
		m.stack = m.stack[:truncTo]
		m.ip = frame.ReturnIP
		m.push(result)

	case bytecode.OpDummy:
		return errors.NewRuntimeError(line, "unpatched jump reached at runtime")

	case bytecode.OpFuncRef:
		spec := ins.Operand.(*bytecode.FuncSpec)
		upvals, err := m.resolveUpvalues(spec.Upvalues)
		if err != nil {
			return err
		}
		m.push(&Func{Address: spec.Address, Arity: spec.Arity, Name: spec.Name, Upvalues: upvals})

	case bytecode.OpNativeRef:
		spec := ins.Operand.(bytecode.NativeSpec)
		m.push(NativeFunc{ID: spec.ID, Arity: spec.Arity})

	case bytecode.OpCallFunc:
		n := ins.Operand.(int)
		if err := m.callFunc(n, line); err != nil {
			return err
		}

	case bytecode.OpDefList:
		n := ins.Operand.(int)
		if n > len(m.stack) {
			return errors.NewRuntimeError(line, "stack underflow")
		}
		elems := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := m.pop()
			if err != nil {
				return err
			}
			elems[i] = v
		}
		m.push(&List{Elems: elems})

	case bytecode.OpAccessList:
		idxV, err := m.pop()
		if err != nil {
			return err
		}
		listV, err := m.pop()
		if err != nil {
			return err
		}
		v, err := accessList(listV, idxV, line)
		if err != nil {
			return err
		}
		m.push(v)

	case bytecode.OpSetList:
		value, err := m.pop()
		if err != nil {
			return err
		}
		idxV, err := m.pop()
		if err != nil {
			return err
		}
		listV, err := m.pop()
		if err != nil {
			return err
		}
		if err := setList(listV, idxV, value, line); err != nil {
			return err
		}
		m.push(value)

	case bytecode.OpStruct:
		nm := ins.Operand.(*bytecode.NameMap)
		k := len(nm.Order)
		if k > len(m.stack) {
			return errors.NewRuntimeError(line, "stack underflow")
		}
		fields := make([]Value, k)
		for i := k - 1; i >= 0; i-- {
			v, err := m.pop()
			if err != nil {
				return err
			}
			fields[i] = v
		}
		m.push(&StructInstance{StructName: nm.StructName, Fields: fields, Index: nm.Index})

	case bytecode.OpStructGet:
		name := ins.Operand.(string)
		v, err := m.pop()
		if err != nil {
			return err
		}
		inst, ok := Unwrap(v).(*StructInstance)
		if !ok {
			return errors.NewRuntimeError(line, "field access on a non-struct value")
		}
		idx, ok := inst.Index.Get(name)
		if !ok {
			return errors.NewRuntimeError(line, "undefined field or method '"+name+"'")
		}
		field := inst.Fields[idx]
		if fn, ok := field.(*Func); ok {
			m.push(inst)
			m.push(fn)
		} else {
			m.push(field)
		}

	case bytecode.OpStructSet:
		name := ins.Operand.(string)
		value, err := m.pop()
		if err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		inst, ok := Unwrap(v).(*StructInstance)
		if !ok {
			return errors.NewRuntimeError(line, "field assignment on a non-struct value")
		}
		idx, ok := inst.Index.Get(name)
		if !ok {
			return errors.NewRuntimeError(line, "undefined field '"+name+"'")
		}
		inst.Fields[idx] = value
		m.push(value)

	case bytecode.OpDefineSelf:
		offset := ins.Operand.(int)
		recv, err := m.peekAt(offset)
		if err != nil {
			return err
		}
		m.curFrame().Self = recv

	case bytecode.OpGetSelf:
		m.push(m.curFrame().Self)

	case bytecode.OpDebug:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.lastDebug = v

	default:
		return errors.NewRuntimeError(line, "unknown opcode")
	}
	return nil
}

func (m *VM) ensureGlobalSlot(slot int) {
	for len(m.globals) <= slot {
		m.globals = append(m.globals, Null{})
		m.hasGlob = append(m.hasGlob, false)
	}
}

func (m *VM) resolveUpvalues(sources []bytecode.UpvalueSource) ([]*Cell, error) {
	frame := m.curFrame()
	cells := make([]*Cell, len(sources))
	for i, src := range sources {
		if src.IsLocal {
			idx := frame.StackBase + src.Index
			if idx < 0 || idx >= len(m.stack) {
				return nil, errors.NewRuntimeError(0, "upvalue resolution failed")
			}
			if sh, ok := m.stack[idx].(Shared); ok {
				cells[i] = sh.Cell
			} else {
				cell := &Cell{Value: m.stack[idx]}
				m.stack[idx] = Shared{Cell: cell}
				cells[i] = cell
			}
		} else {
			if src.Index < 0 || src.Index >= len(frame.Upvalues) {
				return nil, errors.NewRuntimeError(0, "upvalue resolution failed")
			}
			cells[i] = frame.Upvalues[src.Index]
		}
	}
	return cells, nil
}

func (m *VM) callFunc(n int, line int) error {
	calleeIdx := len(m.stack) - 1 - n
	if calleeIdx < 0 {
		return errors.NewRuntimeError(line, "perhaps you forgot a return")
	}
	callee := Unwrap(m.stack[calleeIdx])
	switch c := callee.(type) {
	case NativeFunc:
		if n != c.Arity {
			return errors.NewRuntimeError(line, "called native function with wrong number of arguments")
		}
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			v, err := m.pop()
			if err != nil {
				return err
			}
			args[i] = v
		}
		if _, err := m.pop(); err != nil { // the NativeFunc value itself
			return err
		}
		result, err := m.natives.Call(c.ID, args, line)
		if err != nil {
			return err
		}
		m.push(result)
		return nil

	case *Func:
		if n != c.Arity {
			return errors.NewRuntimeError(line, "called function with wrong number of arguments")
		}
		m.frames = append(m.frames, CallFrame{
			ReturnIP:  m.ip,
			StackBase: len(m.stack) - n,
			Upvalues:  c.Upvalues,
			Self:      Null{},
		})
		m.ip = c.Address
		return nil

	default:
		return errors.NewRuntimeError(line, "call of non-callable value")
	}
}

func accessList(listV, idxV Value, line int) (Value, error) {
	list, ok := Unwrap(listV).(*List)
	if !ok {
		return nil, errors.NewRuntimeError(line, "index access on a non-list value")
	}
	idx, ok := Unwrap(idxV).(Int)
	if !ok {
		return nil, errors.NewRuntimeError(line, "list index must be an integer")
	}
	if idx < 0 || int(idx) >= len(list.Elems) {
		return nil, errors.NewRuntimeError(line, "list index out of bounds")
	}
	return list.Elems[idx], nil
}

func setList(listV, idxV, value Value, line int) error {
	list, ok := Unwrap(listV).(*List)
	if !ok {
		return errors.NewRuntimeError(line, "index assignment on a non-list value")
	}
	idx, ok := Unwrap(idxV).(Int)
	if !ok {
		return errors.NewRuntimeError(line, "list index must be an integer")
	}
	if idx < 0 || int(idx) >= len(list.Elems) {
		return errors.NewRuntimeError(line, "list index out of bounds")
	}
	list.Elems[idx] = value
	return nil
}

// cloneConstant copies a constant pool entry into a fresh runtime Value.
// Lists never live in the constant pool so only scalars need conversion.
func cloneConstant(c interface{}) Value {
	switch x := c.(type) {
	case Value:
		return x
	case int64:
		return Int(x)
	case float64:
		return Float(x)
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case nil:
		return Null{}
	default:
		return Null{}
	}
}

func opName(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpAdd:
		return "Add"
	case bytecode.OpSub:
		return "Sub"
	case bytecode.OpMult:
		return "Mult"
	case bytecode.OpDiv:
		return "Div"
	case bytecode.OpMod:
		return "Mod"
	case bytecode.OpPow:
		return "Pow"
	case bytecode.OpBitAnd:
		return "BitAnd"
	case bytecode.OpBitOr:
		return "BitOr"
	case bytecode.OpShiftLeft:
		return "ShiftLeft"
	case bytecode.OpShiftRight:
		return "ShiftRight"
	case bytecode.OpEqual:
		return "Equal"
	case bytecode.OpLess:
		return "Less"
	case bytecode.OpGreater:
		return "Greater"
	default:
		return ""
	}
}
