package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEndToEndScenarios drives the six scenarios of spec §8 through the
// full CLI path (lex, compile, run) and asserts exact stdout.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "while loop counts up",
			source: `let x = 0; while x < 3 { print(x); x += 1; }`,
			want:   "0\n1\n2\n",
		},
		{
			name: "closure shares a cell across calls",
			source: `fn make() { let c = 0; fn inc() { c += 1; return c; } return inc; }
let f = make(); print(f()); print(f()); print(f());`,
			want: "1\n2\n3\n",
		},
		{
			name: "instance method sums fields",
			source: `struct P { x, y } fn P::sum(self) => self.x + self.y;
let p = new P(3, 4); print(p.sum());`,
			want: "7\n",
		},
		{
			name:   "for-in over range",
			source: `for i in range(3) { print(i); }`,
			want:   "0\n1\n2\n",
		},
		{
			name:   "compound assignment into a list element",
			source: `let xs = [10, 20, 30]; xs[1] += 5; print(xs[1]); print(len(xs));`,
			want:   "25\n3\n",
		},
		{
			name:   "recursive factorial",
			source: `fn fact(n) => if n <= 1 { return 1; } else { return n * fact(n-1); };
print(fact(5));`,
			want: "120\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "program.lucid")
			require.NoError(t, os.WriteFile(path, []byte(tc.source), 0o644))

			var out bytes.Buffer
			code := run([]string{"lucid", path}, &out)

			require.Equal(t, 0, code)
			require.Equal(t, tc.want, out.String())
		})
	}
}

func TestRejectsBadArgsAndSuffix(t *testing.T) {
	var out bytes.Buffer
	require.Equal(t, 1, run([]string{"lucid"}, &out))

	out.Reset()
	require.Equal(t, 1, run([]string{"lucid", "program.txt"}, &out))
}

func TestPrintResultFlagPrintsLastTopLevelValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.lucid")
	require.NoError(t, os.WriteFile(path, []byte(`1 + 2;`), 0o644))

	var out bytes.Buffer
	code := run([]string{"lucid", path, "--print-result"}, &out)

	require.Equal(t, 0, code)
	require.Equal(t, "3\n", out.String())
}
