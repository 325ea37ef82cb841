package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalTablePutIsIdempotentPerName(t *testing.T) {
	g := newGlobalTable()

	first := g.put("x")
	second := g.put("x")
	require.Equal(t, first, second)

	_, third := g.put("y"), g.put("y")
	require.NotEqual(t, first, third)
}

func TestGlobalTableGetMissing(t *testing.T) {
	g := newGlobalTable()
	_, ok := g.get("missing")
	require.False(t, ok)
}

func TestLocalsResolveFindsMostRecentShadow(t *testing.T) {
	l := newLocals()
	l.add("x")
	l.beginScope()
	l.add("x")

	slot, ok := l.resolve("x")
	require.True(t, ok)
	require.Equal(t, 1, slot)
}

func TestLocalsEndScopePopsOnlyInnerScope(t *testing.T) {
	l := newLocals()
	l.add("outer")
	l.beginScope()
	l.add("inner1")
	l.add("inner2")

	popped := l.endScope()

	require.Equal(t, 2, popped)
	_, ok := l.resolve("inner1")
	require.False(t, ok)
	_, ok = l.resolve("outer")
	require.True(t, ok)
}

func TestFunctionTableDeclareAndLookup(t *testing.T) {
	f := newFunctionTable()
	fd := f.declare("foo", 10, 2)

	got, ok := f.get("foo")
	require.True(t, ok)
	require.Same(t, fd, got)
	require.Equal(t, 10, got.Address)
	require.Equal(t, 2, got.Arity)
}

func TestFunctionTableLambdaNamesAreDigitLeading(t *testing.T) {
	f := newFunctionTable()
	fd := f.declareLambda(0, 1)

	require.Equal(t, byte('0'), fd.Name[0])
	_, ok := f.get(fd.Name)
	require.True(t, ok)
}

// TestStructMethodKeyQualification guards the functionTable collision fix:
// two structs with a same-named method are distinct declare() keys.
func TestStructMethodKeyQualification(t *testing.T) {
	f := newFunctionTable()
	a := f.declare("A::sum", 10, 1)
	b := f.declare("B::sum", 20, 1)

	require.NotSame(t, a, b)
	gotA, _ := f.get("A::sum")
	gotB, _ := f.get("B::sum")
	require.Same(t, a, gotA)
	require.Same(t, b, gotB)
}

func TestStructDefOrderListsFieldsThenNonStaticMethods(t *testing.T) {
	sd := &structDef{
		Name:   "P",
		Fields: []string{"x", "y"},
		Methods: []methodMeta{
			{Name: "sum", IsStatic: false},
			{Name: "make", IsStatic: true},
		},
	}

	require.Equal(t, []string{"x", "y", "sum"}, sd.order())

	idx := sd.index()
	xi, ok := idx.Get("x")
	require.True(t, ok)
	require.Equal(t, 0, xi)
	si, ok := idx.Get("sum")
	require.True(t, ok)
	require.Equal(t, 2, si)
	_, ok = idx.Get("make")
	require.False(t, ok)
}
