package vm

// CallFrame is a per-invocation record: where to resume, where this
// invocation's locals begin on the value stack, the upvalue cells it was
// given at call time, and its receiver if it is a method body (spec §3
// "Call frame", §4.7 DefineSelf). Grounded in original_source's
// vm::core::CallFrame, renamed to the field names the rest of this
// package actually reads.
type CallFrame struct {
	ReturnIP  int
	StackBase int
	Upvalues  []*Cell
	Self      Value
}
