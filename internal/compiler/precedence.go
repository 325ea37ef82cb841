package compiler

import "github.com/lucidlang/lucid/internal/lexer"

// precedence mirrors spec §4.3's ascending ladder exactly, generalized
// from original_source/src/compiler/expressions.rs's Precedence enum
// (which lacks the New tier spec §4.3 adds between Unary and Call).
type precedence int

const (
	precNone precedence = iota
	precAssign
	precLambda
	precLogicOr
	precLogicAnd
	precBitOr
	precBitAnd
	precEquality
	precCompare
	precShift
	precTerm
	precFactor
	precPower
	precCast
	precUnary
	precNew
	precCall
	precPrimary
)

func (p precedence) higher() precedence {
	if p >= precPrimary {
		return precPrimary
	}
	return p + 1
}

// infixPrecedence returns the binding power of a token when it appears as
// an infix/postfix operator, or precNone if it never does.
func infixPrecedence(k lexer.Kind) precedence {
	switch k {
	case lexer.Assign, lexer.PlusEq, lexer.MinusEq, lexer.StarEq, lexer.SlashEq,
		lexer.PlusPlus, lexer.MinusMinus:
		return precAssign
	case lexer.PipePipe:
		return precLogicOr
	case lexer.AmpAmp:
		return precLogicAnd
	case lexer.Pipe:
		return precBitOr
	case lexer.Amp:
		return precBitAnd
	case lexer.EqEq, lexer.NotEq:
		return precEquality
	case lexer.Lt, lexer.LtEq, lexer.Gt, lexer.GtEq:
		return precCompare
	case lexer.ShiftLeft, lexer.ShiftRight:
		return precShift
	case lexer.Plus, lexer.Minus:
		return precTerm
	case lexer.Star, lexer.Slash, lexer.Percent:
		return precFactor
	case lexer.StarStar:
		return precPower
	case lexer.LParen, lexer.LBracket, lexer.Dot:
		return precCall
	default:
		return precNone
	}
}
