package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lucidlang/lucid/internal/errors"
)

// Native ids, fixed at compile time by the function table (spec §4.9).
const (
	NativePrint          = 0
	NativeRead           = 1
	NativeLen            = 2
	NativeRange          = 3
	NativeSleep          = 4
	NativeNow            = 5
	NativeReadFile       = 6
	NativePush           = 7
	NativeStringGetAt    = 8
)

// NativeArity gives each id's fixed declared arity, the contract the
// compiler's function table entries are built from.
var NativeArity = map[int]int{
	NativePrint:       1,
	NativeRead:        0,
	NativeLen:         1,
	NativeRange:       1,
	NativeSleep:       1,
	NativeNow:         0,
	NativeReadFile:    1,
	NativePush:        2,
	NativeStringGetAt: 2,
}

// NativeSet holds the I/O a native function needs. It is an external
// collaborator per spec §1 ("the native-function implementations... are
// specified only at their interfaces"); grounded in
// original_source/src/vm/native.rs's execute_native_function id dispatch,
// extended to the full id space spec §4.9 requires.
type NativeSet struct {
	Out   io.Writer
	In    *bufio.Reader
	Clock func() time.Time
}

func NewNativeSet() *NativeSet {
	return &NativeSet{
		Out:   os.Stdout,
		In:    bufio.NewReader(os.Stdin),
		Clock: time.Now,
	}
}

func (n *NativeSet) Call(id int, args []Value, line int) (Value, error) {
	switch id {
	case NativePrint:
		fmt.Fprintln(n.Out, ToDisplayString(args[0]))
		return Null{}, nil
	case NativeRead:
		text, err := n.In.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.NewRuntimeError(line, "read failed")
		}
		return String(trimNewline(text)), nil
	case NativeLen:
		return nativeLen(args[0], line)
	case NativeRange:
		return nativeRange(args[0], line)
	case NativeSleep:
		return n.nativeSleep(args[0], line)
	case NativeNow:
		return Int(n.Clock().UnixMilli()), nil
	case NativeReadFile:
		return nativeReadFile(args[0], line)
	case NativePush:
		return nativePush(args[0], args[1], line)
	case NativeStringGetAt:
		return nativeStringGetAt(args[0], args[1], line)
	default:
		return nil, errors.NewRuntimeError(line, "unknown native function id")
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func nativeLen(v Value, line int) (Value, error) {
	switch x := Unwrap(v).(type) {
	case *List:
		return Int(len(x.Elems)), nil
	case String:
		return Int(len(string(x))), nil
	default:
		return nil, errors.NewRuntimeError(line, "len expects a list or string")
	}
}

func nativeRange(v Value, line int) (Value, error) {
	n, ok := Unwrap(v).(Int)
	if !ok {
		return nil, errors.NewRuntimeError(line, "range expects an integer")
	}
	elems := make([]Value, 0, n)
	for i := int64(0); i < int64(n); i++ {
		elems = append(elems, Int(i))
	}
	return &List{Elems: elems}, nil
}

func (n *NativeSet) nativeSleep(v Value, line int) (Value, error) {
	var secs float64
	switch x := Unwrap(v).(type) {
	case Int:
		secs = float64(x)
	case Float:
		secs = float64(x)
	default:
		return nil, errors.NewRuntimeError(line, "sleep expects a number")
	}
	time.Sleep(time.Duration(secs * float64(time.Second)))
	return Null{}, nil
}

func nativeReadFile(v Value, line int) (Value, error) {
	path, ok := Unwrap(v).(String)
	if !ok {
		return nil, errors.NewRuntimeError(line, "read_file expects a string path")
	}
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, errors.NewRuntimeError(line, fmt.Sprintf("read_file failed: %v", err))
	}
	return String(string(data)), nil
}

func nativePush(listVal, elemVal Value, line int) (Value, error) {
	list, ok := Unwrap(listVal).(*List)
	if !ok {
		return nil, errors.NewRuntimeError(line, "push expects a list")
	}
	list.Elems = append(list.Elems, elemVal)
	return list, nil
}

func nativeStringGetAt(strVal, idxVal Value, line int) (Value, error) {
	s, ok := Unwrap(strVal).(String)
	if !ok {
		return nil, errors.NewRuntimeError(line, "__string_get_at expects a string")
	}
	idx, ok := Unwrap(idxVal).(Int)
	if !ok {
		return nil, errors.NewRuntimeError(line, "__string_get_at expects an integer index")
	}
	runes := []rune(string(s))
	if idx < 0 || int(idx) >= len(runes) {
		return nil, errors.NewRuntimeError(line, "string index out of bounds")
	}
	return String(string(runes[idx])), nil
}
