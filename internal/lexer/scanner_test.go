package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestScanPunctuationAndOperators(t *testing.T) {
	tokens, err := New("+= -- ** == != <= >>").Scan()
	require.NoError(t, err)
	require.Equal(t, []Kind{PlusEq, MinusMinus, StarStar, EqEq, NotEq, LtEq, ShiftRight, EOF}, kinds(tokens))
}

func TestScanIntAndFloatLiterals(t *testing.T) {
	tokens, err := New("42 3.14 0x1A 0b101").Scan()
	require.NoError(t, err)
	require.Equal(t, []Kind{Int, Float, Int, Int, EOF}, kinds(tokens))
	require.Equal(t, "42", tokens[0].Lexeme)
	require.Equal(t, "3.14", tokens[1].Lexeme)
	require.Equal(t, "0x1A", tokens[2].Lexeme)
	require.Equal(t, "0b101", tokens[3].Lexeme)
}

func TestScanStringEscapes(t *testing.T) {
	tokens, err := New(`"a\tb\nc\"d"`).Scan()
	require.NoError(t, err)
	require.Equal(t, String, tokens[0].Kind)
	require.Equal(t, "a\tb\nc\"d", tokens[0].Lexeme)
}

func TestScanUnterminatedStringErrors(t *testing.T) {
	_, err := New(`"abc`).Scan()
	require.Error(t, err)
}

func TestScanBadEscapeErrors(t *testing.T) {
	_, err := New(`"a\qb"`).Scan()
	require.Error(t, err)
}

func TestScanSkipsLineAndBlockComments(t *testing.T) {
	tokens, err := New("1 // trailing\n/* block\ncomment */ 2").Scan()
	require.NoError(t, err)
	require.Equal(t, []Kind{Int, Int, EOF}, kinds(tokens))
}

func TestKeywordsAndWordAliasesForLogicalOps(t *testing.T) {
	tokens, err := New("true false null let struct fn self new in a and b or c").Scan()
	require.NoError(t, err)
	require.Equal(t, []Kind{
		KwTrue, KwFalse, KwNull, KwLet, KwStruct, KwFn, KwSelf, KwNew, KwIn,
		Ident, AmpAmp, Ident, PipePipe, Ident, EOF,
	}, kinds(tokens))
}

func TestScanUnterminatedBlockCommentErrors(t *testing.T) {
	_, err := New("1 /* never closed").Scan()
	require.Error(t, err)
}

func TestUnrecognizedTokenErrors(t *testing.T) {
	_, err := New("a : b").Scan()
	require.Error(t, err)
}

func TestLineTrackingAcrossNewlines(t *testing.T) {
	tokens, err := New("1\n2\n3").Scan()
	require.NoError(t, err)
	require.Equal(t, 1, tokens[0].Line)
	require.Equal(t, 2, tokens[1].Line)
	require.Equal(t, 3, tokens[2].Line)
}
