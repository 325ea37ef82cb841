package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorWireFormat(t *testing.T) {
	cases := []struct {
		err  *LucidError
		want string
	}{
		{NewLexError(3, "unterminated string"), "3: LexingError(unterminated string)"},
		{NewParseError(7, "undefined variable 'x'"), "7: ParsingError(undefined variable 'x')"},
		{NewParseConsumeError(1, ";"), "1: ParsingConsume(;)"},
		{NewRuntimeError(9, "division by zero"), "9: RuntimeError(division by zero)"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.err.Error())
	}
}
