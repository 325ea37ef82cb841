package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucidlang/lucid/internal/compiler"
	. "github.com/lucidlang/lucid/internal/vm"
)

// runSource compiles and executes src, capturing everything the print
// native wrote, via the package's own public entry points.
func runSource(t *testing.T, src string) (string, Value) {
	t.Helper()
	chunk, errs := compiler.CompileSource(src)
	require.Empty(t, errs)
	require.NotNil(t, chunk)

	var out bytes.Buffer
	natives := NewNativeSet()
	natives.Out = &out

	m := New(chunk, natives)
	result, err := m.Run(nil)
	require.NoError(t, err)
	return out.String(), result
}

func TestWhileLoopPrintsEachIteration(t *testing.T) {
	out, _ := runSource(t, `let x = 0; while x < 3 { print(x); x += 1; }`)
	require.Equal(t, "0\n1\n2\n", out)
}

// TestSharedCellClosureMutation is spec §8 property 5.
func TestSharedCellClosureMutation(t *testing.T) {
	out, _ := runSource(t, `
fn make() { let c = 0; fn inc() { c += 1; return c; } return inc; }
let f = make();
print(f());
print(f());
print(f());
`)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestInstanceMethodSumsFields(t *testing.T) {
	out, _ := runSource(t, `
struct P { x, y }
fn P::sum(self) => self.x + self.y;
let p = new P(3, 4);
print(p.sum());
`)
	require.Equal(t, "7\n", out)
}

// TestForLoopRecomputesLenEachIteration is spec §8 property 6: growing the
// live list inside the loop body extends how many times it runs.
func TestForLoopRecomputesLenEachIteration(t *testing.T) {
	out, _ := runSource(t, `
let xs = [1];
for x in xs {
  print(x);
  if len(xs) < 3 {
    push(xs, x + 1);
  }
}
`)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestForInOverRange(t *testing.T) {
	out, _ := runSource(t, `for i in range(3) { print(i); }`)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestCompoundAssignmentIntoListElement(t *testing.T) {
	out, _ := runSource(t, `let xs = [10, 20, 30]; xs[1] += 5; print(xs[1]); print(len(xs));`)
	require.Equal(t, "25\n3\n", out)
}

func TestRecursiveFactorial(t *testing.T) {
	out, _ := runSource(t, `
fn fact(n) => if n <= 1 { return 1; } else { return n * fact(n-1); };
print(fact(5));
`)
	require.Equal(t, "120\n", out)
}

// TestOrShortCircuits is spec §8 property 7: b must not be evaluated once
// a is already truthy, observed via a side-effecting print inside b.
func TestOrShortCircuits(t *testing.T) {
	out, _ := runSource(t, `
fn sideEffect() { print("evaluated"); return true; }
let r = true or sideEffect();
`)
	require.Equal(t, "", out)
}

func TestAndShortCircuits(t *testing.T) {
	out, _ := runSource(t, `
fn sideEffect() { print("evaluated"); return true; }
let r = false and sideEffect();
`)
	require.Equal(t, "", out)
}

func TestIntFloatEqualityAndComparison(t *testing.T) {
	_, r1 := runSource(t, `1 == 1.0;`)
	require.Equal(t, Bool(true), r1)

	_, r2 := runSource(t, `1 == 1.5;`)
	require.Equal(t, Bool(false), r2)

	// 1.5 is not integral, so the int/float ordering convention forces
	// the comparison false rather than falling back to plain float order.
	_, r3 := runSource(t, `1 < 1.5;`)
	require.Equal(t, Bool(false), r3)

	_, r4 := runSource(t, `2 < 1.5;`)
	require.Equal(t, Bool(false), r4)

	// 2.0 is integral, so ordering falls through to the matching int value.
	_, r5 := runSource(t, `1 < 2.0;`)
	require.Equal(t, Bool(true), r5)

	_, r6 := runSource(t, `1.5 < 2.5;`)
	require.Equal(t, Bool(true), r6)
}

func TestStringConcatenationAndMixedAddFails(t *testing.T) {
	_, r := runSource(t, `"a" + "b";`)
	require.Equal(t, String("ab"), r)

	chunk, errs := compiler.CompileSource(`"a" + 1;`)
	require.Empty(t, errs)
	m := New(chunk, NewNativeSet())
	_, err := m.Run(nil)
	require.Error(t, err)
}

func TestDivisionPromotesToFloatOnlyWhenInexact(t *testing.T) {
	_, r1 := runSource(t, `6 / 3;`)
	require.Equal(t, Int(2), r1)

	_, r2 := runSource(t, `7 / 2;`)
	require.Equal(t, Float(3.5), r2)

	chunk, errs := compiler.CompileSource(`1 / 0;`)
	require.Empty(t, errs)
	m := New(chunk, NewNativeSet())
	_, err := m.Run(nil)
	require.Error(t, err)
}

func TestPowIntegerAndNegativeExponent(t *testing.T) {
	_, r1 := runSource(t, `2 ** 10;`)
	require.Equal(t, Int(1024), r1)

	_, r2 := runSource(t, `2 ** (-1);`)
	require.Equal(t, Float(0.5), r2)
}
