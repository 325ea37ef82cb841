package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucidlang/lucid/internal/bytecode"
)

// TestNoDummySurvivesCompilation is spec §8 property 1.
func TestNoDummySurvivesCompilation(t *testing.T) {
	sources := []string{
		`let x = 0; while x < 3 { x += 1; }`,
		`if 1 < 2 { 1; } else { 2; }`,
		`fn fact(n) => if n <= 1 { return 1; } else { return n * fact(n-1); };`,
		`for i in range(3) { i; }`,
	}
	for _, src := range sources {
		chunk, errs := CompileSource(src)
		require.Empty(t, errs, "source: %s", src)
		require.NotNil(t, chunk)
		require.False(t, chunk.HasDummy(), "source: %s", src)
	}
}

// TestReservedConstantsAreFixed is spec §8 property 3.
func TestReservedConstantsAreFixed(t *testing.T) {
	chunk, errs := CompileSource(`let x = 1;`)
	require.Empty(t, errs)
	require.Equal(t, true, chunk.Constants[0])
	require.Equal(t, false, chunk.Constants[1])
	require.Nil(t, chunk.Constants[2])
}

func TestUndefinedVariableIsAParseError(t *testing.T) {
	_, errs := CompileSource(`print(nope);`)
	require.NotEmpty(t, errs)
}

func TestMissingSemicolonIsAParseConsumeError(t *testing.T) {
	_, errs := CompileSource(`let x = 1`)
	require.NotEmpty(t, errs)
}

func TestStructInsideFunctionIsRejected(t *testing.T) {
	_, errs := CompileSource(`fn f() { struct S { a } }`)
	require.NotEmpty(t, errs)
}

func TestImportIsRejectedAsReserved(t *testing.T) {
	_, errs := CompileSource(`import foo;`)
	require.NotEmpty(t, errs)
}

// TestSameNamedMethodsOnDifferentStructsDoNotCollide guards the
// functionTable key-qualification fix: two structs each declaring a
// method named "sum" must resolve independently.
func TestSameNamedMethodsOnDifferentStructsDoNotCollide(t *testing.T) {
	src := `
struct A { x }
struct B { y }
fn A::sum(self) => self.x;
fn B::sum(self) => self.y;
let a = new A(1);
let b = new B(2);
print(a.sum());
print(b.sum());
`
	chunk, errs := CompileSource(src)
	require.Empty(t, errs)
	require.NotNil(t, chunk)
}

func TestMultipleErrorsSurfaceInOneRun(t *testing.T) {
	_, errs := CompileSource(`let x = ; let y = ;`)
	require.True(t, len(errs) >= 2)
}

func TestShortCircuitOrCompilesWithoutEagerOpcode(t *testing.T) {
	chunk, errs := CompileSource(`let x = true or false;`)
	require.Empty(t, errs)
	for _, ins := range chunk.Code {
		require.NotEqual(t, bytecode.OpLogicOr, ins.Op)
		require.NotEqual(t, bytecode.OpLogicAnd, ins.Op)
	}
}
