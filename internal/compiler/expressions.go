package compiler

import (
	"strconv"

	"github.com/lucidlang/lucid/internal/bytecode"
	"github.com/lucidlang/lucid/internal/lexer"
)

// expression compiles one full expression at the lowest (assignment)
// precedence, per spec §4.3/§4.5.
func (c *Compiler) expression() {
	c.parsePrecedence(precAssign)
}

// parsePrecedence is the Pratt driver: it resolves one prefix term
// (literal, grouping, unary, identifier/place, self, new, list, lambda),
// then repeatedly folds in infix binary operators whose precedence is at
// least prec. `.`/`[`/`(` postfix chaining and assignment are both
// resolved inside parsePrimary itself, since both need to know the
// complete chain before deciding whether a trailing assignment applies
// (spec §4.5).
func (c *Compiler) parsePrecedence(prec precedence) {
	canAssign := prec <= precAssign
	c.parsePrimary(canAssign)

	for {
		k := c.cur().Kind
		p := infixPrecedence(k)
		if p < prec || p == precCall || isAssignToken(k) {
			break
		}
		c.binary()
	}
}

// parsePrimary resolves one prefix term and its tightly-bound postfix
// chain (call/index/field-access), finishing with either a plain value
// pushed on the stack or, if canAssign and an assignment token follows,
// the result of performing that assignment.
func (c *Compiler) parsePrimary(canAssign bool) {
	line := c.cur().Line
	p := c.parsePrefix()
	p = c.parsePostfixChain(p, line)

	if canAssign && p.kind != placeNone && isAssignToken(c.cur().Kind) {
		c.finishAssignment(p, line)
		return
	}
	if p.kind != placeNone {
		c.emitGet(p, line)
	}
}

func (c *Compiler) parsePostfixChain(p place, line int) place {
	for {
		switch c.cur().Kind {
		case lexer.LParen:
			if p.kind != placeNone {
				c.emitGet(p, line)
				p = place{}
			}
			c.advance()
			argc := 0
			for !c.check(lexer.RParen) {
				c.expression()
				argc++
				if !c.match(lexer.Comma) {
					break
				}
			}
			c.consume(lexer.RParen, ")")
			c.emit(bytecode.OpCallFunc, argc, line)
		case lexer.LBracket:
			if p.kind != placeNone {
				c.emitGet(p, line)
				p = place{}
			}
			c.advance()
			c.expression()
			c.consume(lexer.RBracket, "]")
			p = place{kind: placeList}
		case lexer.Dot:
			if p.kind != placeNone {
				c.emitGet(p, line)
				p = place{}
			}
			c.advance()
			name := c.consumeIdentifier()
			p = place{kind: placeStruct, name: name}
		default:
			return p
		}
		line = c.cur().Line
	}
}

// finishAssignment handles `=`, `+= -= *= /=`, and `++ --` applied to an
// already-resolved place, per spec §4.5's deferred-Get/Dup(2) scheme.
func (c *Compiler) finishAssignment(p place, line int) {
	op := c.advance().Kind
	switch op {
	case lexer.Assign:
		c.expression()
		c.emitSet(p, line)
	case lexer.PlusEq, lexer.MinusEq, lexer.StarEq, lexer.SlashEq:
		c.dupForCompound(p, line)
		c.emitGet(p, line)
		c.expression()
		c.emit(compoundOp(op), nil, line)
		c.emitSet(p, line)
	case lexer.PlusPlus, lexer.MinusMinus:
		c.dupForCompound(p, line)
		c.emitGet(p, line)
		oneConst := c.chunk.AddConstant(int64(1))
		c.emit(bytecode.OpConstant, oneConst, line)
		c.emit(compoundOp(op), nil, line)
		c.emitSet(p, line)
	}
}

// parsePrefix resolves the leading term of an expression and returns a
// pending place when the term is a plain identifier resolved to a
// local/global/upvalue (so assignment can still apply), or placeNone once
// a concrete value has already been pushed.
func (c *Compiler) parsePrefix() place {
	line := c.cur().Line
	tok := c.cur()

	switch tok.Kind {
	case lexer.Int:
		c.advance()
		n, _ := strconv.ParseInt(tok.Lexeme, 0, 64)
		idx := c.chunk.AddConstant(n)
		c.emit(bytecode.OpConstant, idx, line)
		return place{}

	case lexer.Float:
		c.advance()
		f, _ := strconv.ParseFloat(tok.Lexeme, 64)
		idx := c.chunk.AddConstant(f)
		c.emit(bytecode.OpConstant, idx, line)
		return place{}

	case lexer.String:
		c.advance()
		idx := c.chunk.AddConstant(tok.Lexeme)
		c.emit(bytecode.OpConstant, idx, line)
		return place{}

	case lexer.KwTrue:
		c.advance()
		c.emit(bytecode.OpConstant, 0, line)
		return place{}

	case lexer.KwFalse:
		c.advance()
		c.emit(bytecode.OpConstant, 1, line)
		return place{}

	case lexer.KwNull:
		c.advance()
		c.emit(bytecode.OpConstant, 2, line)
		return place{}

	case lexer.LParen:
		c.advance()
		c.expression()
		c.consume(lexer.RParen, ")")
		return place{}

	case lexer.Minus:
		c.advance()
		c.parsePrecedence(precUnary)
		c.emit(bytecode.OpNegate, nil, line)
		return place{}

	case lexer.Bang:
		c.advance()
		c.parsePrecedence(precUnary)
		c.emit(bytecode.OpNot, nil, line)
		return place{}

	case lexer.KwSelf:
		c.advance()
		c.emit(bytecode.OpGetSelf, nil, line)
		return place{}

	case lexer.LBracket:
		return c.listLiteral(line)

	case lexer.KwNew:
		return c.newExpression(line)

	case lexer.KwFn:
		return c.lambdaExpression(line)

	case lexer.Ident:
		c.advance()
		return c.resolveIdentifier(tok.Lexeme, line)

	default:
		c.reportError("unexpected token in expression")
		c.advance()
		return place{}
	}
}

func (c *Compiler) listLiteral(line int) place {
	c.advance() // [
	n := 0
	for !c.check(lexer.RBracket) {
		c.expression()
		n++
		if !c.match(lexer.Comma) {
			break
		}
	}
	c.consume(lexer.RBracket, "]")
	c.emit(bytecode.OpDefList, n, line)
	return place{}
}

// resolveIdentifier implements spec §4.5's lookup order: (a) local in the
// current function, (b) global, (c) named function/native, (d) upvalue in
// an enclosing function, (e) struct name expecting a static method access.
func (c *Compiler) resolveIdentifier(name string, line int) place {
	if slot, ok := c.top().locals.resolve(name); ok {
		return place{kind: placeLocal, slot: slot}
	}
	if slot, ok := c.globals.get(name); ok {
		return place{kind: placeGlobal, slot: slot}
	}
	if fd, ok := c.functions.get(name); ok {
		c.emitNamedFunction(fd, line)
		return place{}
	}
	if idx, ok := c.resolveUpvalue(len(c.scopes)-1, name); ok {
		return place{kind: placeUpvalue, slot: idx}
	}
	if sd, ok := c.structs.get(name); ok {
		return c.staticMethodAccess(sd, line)
	}
	c.reportError("undefined variable '" + name + "'")
	return place{}
}

func (c *Compiler) emitNamedFunction(fd *functionData, line int) {
	if fd.IsNative {
		c.emit(bytecode.OpNativeRef, bytecode.NativeSpec{ID: fd.NativeID, Arity: fd.Arity}, line)
		return
	}
	upvals := append([]bytecode.UpvalueSource(nil), fd.Upvalues...)
	spec := &bytecode.FuncSpec{Address: fd.Address, Arity: fd.Arity, Name: fd.Name, Upvalues: upvals}
	c.emit(bytecode.OpFuncRef, spec, line)
}

func (c *Compiler) staticMethodAccess(sd *structDef, line int) place {
	if !c.match(lexer.Dot) {
		c.reportError("struct name used without a static method access")
		return place{}
	}
	methodName := c.consumeIdentifier()
	meta, ok := sd.findMethod(methodName)
	if !ok {
		c.reportError("calling a method on an unknown struct")
		return place{}
	}
	if !meta.IsStatic {
		c.reportError("instance method called without a receiver")
		return place{}
	}
	fd, ok := c.functions.get(sd.Name + "::" + methodName)
	if !ok {
		c.reportError("calling a method on an unknown struct")
		return place{}
	}
	c.emitNamedFunction(fd, line)
	return place{}
}

// resolveUpvalue walks enclosing scopes looking for name, promoting the
// first matching local to an upvalue chain per spec §4.5's Local(hop==1)/
// Recursive(j) algorithm.
func (c *Compiler) resolveUpvalue(scopeIdx int, name string) (int, bool) {
	if scopeIdx <= 0 {
		return 0, false
	}
	enclosing := c.scopes[scopeIdx-1]
	if slot, ok := enclosing.locals.resolve(name); ok {
		return c.addUpvalue(scopeIdx, bytecode.UpvalueSource{IsLocal: true, Index: slot}), true
	}
	idx, ok := c.resolveUpvalue(scopeIdx-1, name)
	if !ok {
		return 0, false
	}
	return c.addUpvalue(scopeIdx, bytecode.UpvalueSource{IsLocal: false, Index: idx}), true
}

func (c *Compiler) addUpvalue(scopeIdx int, src bytecode.UpvalueSource) int {
	scope := c.scopes[scopeIdx]
	for i, existing := range scope.fn.Upvalues {
		if existing == src {
			return i
		}
	}
	scope.fn.Upvalues = append(scope.fn.Upvalues, src)
	return len(scope.fn.Upvalues) - 1
}

// newExpression compiles `new Name(args...)` / `new Name`, pushing field
// values (args, or null for each field when parens are omitted) followed
// by a FuncRef per non-static method, then OpStruct (spec §4.4 item 8).
func (c *Compiler) newExpression(line int) place {
	c.advance() // new
	name := c.consumeIdentifier()
	sd, ok := c.structs.get(name)
	if !ok {
		c.reportError("constructing an unknown struct '" + name + "'")
		return place{}
	}

	if c.match(lexer.LParen) {
		n := 0
		for !c.check(lexer.RParen) {
			c.expression()
			n++
			if !c.match(lexer.Comma) {
				break
			}
		}
		c.consume(lexer.RParen, ")")
		if n != len(sd.Fields) {
			c.reportError("wrong number of fields for struct '" + name + "'")
		}
	} else {
		for range sd.Fields {
			c.emit(bytecode.OpConstant, 2, line)
		}
	}

	for _, m := range sd.Methods {
		if m.IsStatic {
			continue
		}
		fd, ok := c.functions.get(sd.Name + "::" + m.Name)
		if !ok {
			c.reportError("calling a method on an unknown struct")
			continue
		}
		c.emitNamedFunction(fd, line)
	}

	nm := &bytecode.NameMap{StructName: sd.Name, Order: sd.order(), Index: sd.index()}
	c.emit(bytecode.OpStruct, nm, line)
	return place{}
}

// lambdaExpression compiles an anonymous `fn(params) body` expression,
// pushing its FuncRef directly (spec §4.5's lambda prefix rule).
// Grounded in the same code shape as functionDeclaration, minus naming
// and struct/method wiring.
func (c *Compiler) lambdaExpression(line int) place {
	c.advance() // fn

	jumpOver := c.emit(bytecode.OpDummy, nil, line)
	c.consume(lexer.LParen, "(")

	scope := &funcScope{locals: newLocals()}
	c.scopes = append(c.scopes, scope)

	arity := 0
	for !c.check(lexer.RParen) {
		c.top().locals.add(c.consumeIdentifier())
		arity++
		if !c.match(lexer.Comma) {
			break
		}
	}
	c.consume(lexer.RParen, ")")

	fd := c.functions.declareLambda(jumpOver+1, arity)
	scope.fn = fd

	if c.check(lexer.Arrow) {
		c.functionArrowBody(line)
	} else if c.check(lexer.LBrace) {
		c.block()
	} else {
		c.reportError("expected '{' or '=>'")
	}

	for i := 0; i < arity+1; i++ {
		c.emit(bytecode.OpPop, nil, line)
	}
	c.emit(bytecode.OpConstant, 2, line)
	c.emit(bytecode.OpJumpRe, nil, line)
	c.patchJump(jumpOver, bytecode.OpJumpTo)

	c.scopes = c.scopes[:len(c.scopes)-1]

	c.emitNamedFunction(fd, line)
	return place{}
}

// binary compiles one infix operator at the current token, including the
// jump-based short-circuit desugaring spec §4.5 requires for `and`/`or`
// (aliased to && / || by the lexer) instead of eager OpLogicAnd/OpLogicOr
// evaluation.
func (c *Compiler) binary() {
	opTok := c.advance()
	line := opTok.Line

	switch opTok.Kind {
	case lexer.AmpAmp:
		c.compileShortCircuitAnd(line)
		return
	case lexer.PipePipe:
		c.compileShortCircuitOr(line)
		return
	}

	p := infixPrecedence(opTok.Kind)
	c.parsePrecedence(p.higher())

	switch opTok.Kind {
	case lexer.Plus:
		c.emit(bytecode.OpAdd, nil, line)
	case lexer.Minus:
		c.emit(bytecode.OpSub, nil, line)
	case lexer.Star:
		c.emit(bytecode.OpMult, nil, line)
	case lexer.Slash:
		c.emit(bytecode.OpDiv, nil, line)
	case lexer.Percent:
		c.emit(bytecode.OpMod, nil, line)
	case lexer.StarStar:
		c.emit(bytecode.OpPow, nil, line)
	case lexer.Amp:
		c.emit(bytecode.OpBitAnd, nil, line)
	case lexer.Pipe:
		c.emit(bytecode.OpBitOr, nil, line)
	case lexer.ShiftLeft:
		c.emit(bytecode.OpShiftLeft, nil, line)
	case lexer.ShiftRight:
		c.emit(bytecode.OpShiftRight, nil, line)
	case lexer.EqEq:
		c.emit(bytecode.OpEqual, nil, line)
	case lexer.NotEq:
		c.emit(bytecode.OpEqual, nil, line)
		c.emit(bytecode.OpNot, nil, line)
	case lexer.Lt:
		c.emit(bytecode.OpLess, nil, line)
	case lexer.GtEq:
		c.emit(bytecode.OpLess, nil, line)
		c.emit(bytecode.OpNot, nil, line)
	case lexer.Gt:
		c.emit(bytecode.OpGreater, nil, line)
	case lexer.LtEq:
		c.emit(bytecode.OpGreater, nil, line)
		c.emit(bytecode.OpNot, nil, line)
	}
}

// compileShortCircuitAnd emits `a and b` as: JumpIfFalse over (Pop + b),
// leaving a's falsy value in place on the short-circuit path (spec §4.5).
func (c *Compiler) compileShortCircuitAnd(line int) {
	jump := c.emit(bytecode.OpDummy, nil, line)
	c.emit(bytecode.OpPop, nil, line)
	c.parsePrecedence(precLogicAnd.higher())
	c.patchJump(jump, bytecode.OpJumpIfFalse)
}

// compileShortCircuitOr emits `a or b` as the De Morgan transform
// not(not(a) and not(b)): Not, JumpIfFalse over (Pop + b + Not), final Not
// (spec §4.5).
func (c *Compiler) compileShortCircuitOr(line int) {
	c.emit(bytecode.OpNot, nil, line)
	jump := c.emit(bytecode.OpDummy, nil, line)
	c.emit(bytecode.OpPop, nil, line)
	c.parsePrecedence(precLogicOr.higher())
	c.emit(bytecode.OpNot, nil, line)
	c.patchJump(jump, bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpNot, nil, line)
}
