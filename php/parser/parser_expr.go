package parser

import "strings"

// Binding powers, lowest first.
const (
	bpLowest = iota
	bpLogicalOr
	bpLogicalXor
	bpLogicalAnd
	bpAssign
	bpTernary
	bpCoalesce
	bpOr
	bpAnd
	bpBitOr
	bpBitXor
	bpBitAnd
	bpEquality
	bpCompare
	bpConcat
	bpShift
	bpAdditive
	bpMultiplicative
	bpUnary
	bpInstanceof
	bpPow
)

func binaryPrecedence(kind TokenKind) (bp int, rightAssoc bool, ok bool) {
	switch kind {
	case TokenLogicalOr:
		return bpLogicalOr, false, true
	case TokenLogicalXor:
		return bpLogicalXor, false, true
	case TokenLogicalAnd:
		return bpLogicalAnd, false, true
	case TokenCoalesce:
		return bpCoalesce, true, true
	case TokenOr:
		return bpOr, false, true
	case TokenAnd:
		return bpAnd, false, true
	case TokenBitOr:
		return bpBitOr, false, true
	case TokenBitXor:
		return bpBitXor, false, true
	case TokenBitAnd:
		return bpBitAnd, false, true
	case TokenEQ, TokenNE, TokenIdentical, TokenNotIdentical, TokenSpaceship:
		return bpEquality, false, true
	case TokenLT, TokenLE, TokenGT, TokenGE:
		return bpCompare, false, true
	case TokenDot:
		return bpConcat, false, true
	case TokenShl, TokenShr:
		return bpShift, false, true
	case TokenPlus, TokenMinus:
		return bpAdditive, false, true
	case TokenStar, TokenSlash, TokenPercent:
		return bpMultiplicative, false, true
	case TokenPow:
		return bpPow, true, true
	}
	return 0, false, false
}

func isAssignOp(kind TokenKind) bool {
	switch kind {
	case TokenAssign, TokenPlusAssign, TokenMinusAssign, TokenStarAssign,
		TokenSlashAssign, TokenConcatAssign, TokenPercentAssign, TokenPowAssign,
		TokenAndAssign, TokenOrAssign, TokenXorAssign, TokenShlAssign,
		TokenShrAssign, TokenCoalesceAssign:
		return true
	}
	return false
}

func isAssignable(n *Node) bool {
	switch n.Kind {
	case KindVariable, KindVariableVariable, KindPropertyPostfix, KindIndexPostfix,
		KindListExpr, KindArrayLiteral:
		return true
	}
	return false
}

var castTypes = map[string]bool{
	"int": true, "integer": true, "bool": true, "boolean": true,
	"float": true, "double": true, "real": true, "string": true,
	"array": true, "object": true, "unset": true, "binary": true,
}

func (p *Parser) parseExpression() *Node {
	return p.parseExprBP(bpLowest)
}

func (p *Parser) parseExprBP(minBP int) *Node {
	left := p.parseUnary()
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenQuestion:
			if bpTernary < minBP {
				return left
			}
			left = p.parseTernary(left)
			continue
		case TokenInstanceof:
			if bpInstanceof < minBP {
				return left
			}
			p.advance()
			node := startNodeAt(KindInstanceofExpr, left)
			node.Token = &tok
			node.AddChild(p.parseClassNameReference())
			left = p.finishNode(node)
			continue
		}
		bp, rightAssoc, ok := binaryPrecedence(tok.Kind)
		if !ok || bp < minBP {
			return left
		}
		p.advance()
		next := bp + 1
		if rightAssoc {
			next = bp
		}
		node := startNodeAt(KindBinaryExpr, left)
		node.Token = &tok
		node.AddChild(p.parseExprBP(next))
		left = p.finishNode(node)
	}
}

func (p *Parser) parseTernary(cond *Node) *Node {
	node := startNodeAt(KindTernaryExpr, cond)
	tok := p.advance()
	node.Token = &tok
	if _, short := p.accept(TokenColon); !short {
		node.AddChild(p.parseExpression())
		p.expect(TokenColon)
	}
	node.AddChild(p.parseExprBP(bpTernary + 1))
	return p.finishNode(node)
}

func (p *Parser) parseUnary() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenNot, TokenMinus, TokenPlus, TokenBitNot, TokenAt:
		node := p.startNode(KindUnaryExpr)
		p.advance()
		node.Token = &tok
		node.AddChild(p.parseExprBP(bpUnary))
		return p.finishNode(node)
	case TokenIncrement, TokenDecrement:
		node := p.startNode(KindPreIncDecExpr)
		p.advance()
		node.Token = &tok
		node.AddChild(p.parsePostfixExpr())
		return p.finishNode(node)
	case TokenLParen:
		if cast := p.parseCast(); cast != nil {
			return cast
		}
	case TokenClone:
		node := p.startNode(KindCloneExpr)
		p.advance()
		node.AddChild(p.parseExprBP(bpUnary))
		return p.finishNode(node)
	case TokenPrint:
		node := p.startNode(KindPrintExpr)
		p.advance()
		node.AddChild(p.parseExprBP(bpAssign))
		return p.finishNode(node)
	case TokenInclude, TokenIncludeOnce, TokenRequire, TokenRequireOnce:
		node := p.startNode(KindIncludeExpr)
		p.advance()
		node.Token = &tok
		node.AddChild(p.parseExprBP(bpAssign))
		return p.finishNode(node)
	case TokenThrow:
		node := p.startNode(KindThrowExpr)
		p.advance()
		node.AddChild(p.parseExprBP(bpAssign))
		return p.finishNode(node)
	case TokenYield:
		return p.parseYield()
	case TokenFunction, TokenFn:
		return p.parseClosure()
	case TokenStatic:
		if next := p.peekN(1).Kind; next == TokenFunction || next == TokenFn {
			return p.parseClosure()
		}
	}
	return p.parseOperand()
}

// parseCast recognizes "(type)" casts. It returns nil when the parenthesis
// opens an ordinary expression.
func (p *Parser) parseCast() *Node {
	name := p.peekN(1)
	if (name.Kind != TokenIdent && name.Kind != TokenArray) || p.peekN(2).Kind != TokenRParen {
		return nil
	}
	node := p.startNode(KindCastExpr)
	var castType Token
	ok := p.attempt(ambiguityCast, func() {
		p.expect(TokenLParen)
		castType = p.peek()
		if !castTypes[strings.ToLower(castType.Literal)] {
			p.unexpected("cast type")
		}
		p.advance()
		p.expect(TokenRParen)
	})
	if !ok {
		return nil
	}
	node.Token = &castType
	node.AddChild(p.parseExprBP(bpUnary))
	return p.finishNode(node)
}

func (p *Parser) parseYield() *Node {
	start := p.peek()
	p.advance()
	if from := p.peek(); from.Kind == TokenIdent && strings.EqualFold(from.Literal, "from") {
		p.advance()
		node := &Node{Kind: KindYieldFromExpr, Span: Span{Start: start.Span.Start}}
		node.AddChild(p.parseExprBP(bpAssign))
		return p.finishNode(node)
	}
	node := &Node{Kind: KindYieldExpr, Span: Span{Start: start.Span.Start}}
	if !p.canStartExpression() {
		return p.finishNode(node)
	}
	value := p.parseExprBP(bpTernary)
	if arrow, ok := p.accept(TokenDoubleArrow); ok {
		node.Token = &arrow
		node.AddChild(value)
		node.AddChild(p.parseExprBP(bpTernary))
	} else {
		node.AddChild(value)
	}
	return p.finishNode(node)
}

func (p *Parser) canStartExpression() bool {
	switch p.peek().Kind {
	case TokenSemicolon, TokenRParen, TokenRBracket, TokenComma, TokenCloseTag,
		TokenEOF, TokenDoubleArrow, TokenColon, TokenRBrace:
		return false
	}
	return true
}

// parseOperand parses a primary expression with its postfix chain, then an
// assignment or postfix increment applied to it.
func (p *Parser) parseOperand() *Node {
	left := p.parsePostfixExpr()
	tok := p.peek()
	switch {
	case isAssignOp(tok.Kind) && isAssignable(left):
		if left.Kind == KindArrayLiteral {
			left.Kind = KindListExpr
		}
		p.advance()
		node := startNodeAt(KindAssignExpr, left)
		node.Token = &tok
		if tok.Kind == TokenAssign && p.check(TokenBitAnd) {
			ref := p.startNode(KindByReference)
			p.advance()
			ref.AddChild(p.parseExprBP(bpAssign))
			node.AddChild(p.finishNode(ref))
		} else {
			node.AddChild(p.parseExprBP(bpAssign))
		}
		return p.finishNode(node)
	case (tok.Kind == TokenIncrement || tok.Kind == TokenDecrement) && isAssignable(left):
		p.advance()
		node := startNodeAt(KindPostIncDecExpr, left)
		node.Token = &tok
		return p.finishNode(node)
	}
	return left
}

func (p *Parser) parsePostfixExpr() *Node {
	primary, chainable := p.parsePrimary()
	if !chainable {
		return primary
	}
	return p.parsePostfixChain(primary, true)
}

// parsePostfixChain attaches member accesses, indexes and calls to left.
// Each link takes the expression built so far as its first child.
func (p *Parser) parsePostfixChain(left *Node, allowCalls bool) *Node {
	for {
		tok := p.peek()
		switch tok.Kind {
		case TokenArrow, TokenNullsafeArrow:
			p.advance()
			name := p.parseMemberAccessName()
			if allowCalls && p.check(TokenLParen) {
				node := startNodeAt(KindMethodPostfix, left)
				node.Token = &tok
				node.AddChild(name)
				node.AddChild(p.parseArguments())
				left = p.finishNode(node)
			} else {
				node := startNodeAt(KindPropertyPostfix, left)
				node.Token = &tok
				node.AddChild(name)
				left = p.finishNode(node)
			}
		case TokenDoubleColon:
			p.advance()
			left = p.parseStaticMember(left, tok, allowCalls)
		case TokenLBracket:
			open := p.advance()
			node := startNodeAt(KindIndexPostfix, left)
			node.Token = &open
			if !p.check(TokenRBracket) {
				node.AddChild(p.parseExpression())
			}
			p.expectClose(TokenRBracket, "index", open)
			left = p.finishNode(node)
		case TokenLParen:
			if !allowCalls {
				return left
			}
			node := startNodeAt(KindFunctionPostfix, left)
			node.AddChild(p.parseArguments())
			left = p.finishNode(node)
		default:
			return left
		}
	}
}

func (p *Parser) parseStaticMember(left *Node, op Token, allowCalls bool) *Node {
	tok := p.peek()
	switch {
	case tok.Kind == TokenClass:
		p.advance()
		node := startNodeAt(KindConstantPostfix, left)
		node.Token = &op
		node.AddChild(tokenNode(KindIdentifier, tok))
		return p.finishNode(node)
	case tok.Kind == TokenVariable || tok.Kind == TokenDollar:
		name := p.parseSimpleVariable()
		if allowCalls && p.check(TokenLParen) {
			node := startNodeAt(KindMethodPostfix, left)
			node.Token = &op
			node.AddChild(name)
			node.AddChild(p.parseArguments())
			return p.finishNode(node)
		}
		node := startNodeAt(KindPropertyPostfix, left)
		node.Token = &op
		node.AddChild(name)
		return p.finishNode(node)
	case tok.Kind == TokenLBrace:
		open := p.advance()
		name := p.parseExpression()
		p.expectClose(TokenRBrace, "member name", open)
		node := startNodeAt(KindMethodPostfix, left)
		node.Token = &op
		node.AddChild(name)
		node.AddChild(p.parseArguments())
		return p.finishNode(node)
	case isMemberName(tok.Kind):
		p.advance()
		name := tokenNode(KindIdentifier, tok)
		if allowCalls && p.check(TokenLParen) {
			node := startNodeAt(KindMethodPostfix, left)
			node.Token = &op
			node.AddChild(name)
			node.AddChild(p.parseArguments())
			return p.finishNode(node)
		}
		node := startNodeAt(KindConstantPostfix, left)
		node.Token = &op
		node.AddChild(name)
		return p.finishNode(node)
	}
	p.unexpected("member name")
	return nil
}

func (p *Parser) parseMemberAccessName() *Node {
	tok := p.peek()
	switch {
	case isMemberName(tok.Kind):
		p.advance()
		return tokenNode(KindIdentifier, tok)
	case tok.Kind == TokenVariable || tok.Kind == TokenDollar:
		return p.parseSimpleVariable()
	case tok.Kind == TokenLBrace:
		open := p.advance()
		expr := p.parseExpression()
		p.expectClose(TokenRBrace, "member name", open)
		return expr
	}
	p.unexpected("member name")
	return nil
}

// parseSimpleVariable parses $name, $$name and ${expr}.
func (p *Parser) parseSimpleVariable() *Node {
	tok := p.peek()
	if tok.Kind == TokenVariable {
		p.advance()
		return tokenNode(KindVariable, tok)
	}
	node := p.startNode(KindVariableVariable)
	p.expect(TokenDollar)
	if open, ok := p.accept(TokenLBrace); ok {
		node.AddChild(p.parseExpression())
		p.expectClose(TokenRBrace, "variable", open)
	} else if p.check(TokenVariable) || p.check(TokenDollar) {
		node.AddChild(p.parseSimpleVariable())
	} else {
		p.unexpected("variable")
	}
	return p.finishNode(node)
}

// parsePrimary reports whether postfix operators may follow the result.
func (p *Parser) parsePrimary() (*Node, bool) {
	tok := p.peek()
	switch tok.Kind {
	case TokenVariable, TokenDollar:
		return p.parseSimpleVariable(), true
	case TokenIntLiteral, TokenFloatLiteral:
		p.advance()
		return tokenNode(KindLiteral, tok), false
	case TokenStringLiteral, TokenNowdoc:
		p.advance()
		return tokenNode(KindLiteral, tok), true
	case TokenStringTemplate, TokenHeredoc:
		p.advance()
		return p.parseInterpolated(tok, KindString), true
	case TokenShellCommand:
		p.advance()
		return p.parseInterpolated(tok, KindShellCommand), false
	case TokenTrue, TokenFalse, TokenNull:
		p.advance()
		return tokenNode(KindLiteral, tok), false
	case TokenMagicConst:
		p.advance()
		return tokenNode(KindMagicConstant, tok), true
	case TokenArray:
		if p.peekN(1).Kind != TokenLParen {
			p.unexpected("(")
		}
		return p.parseArrayLiteral(), true
	case TokenLBracket:
		return p.parseArrayLiteral(), true
	case TokenList:
		return p.parseList(), false
	case TokenIsset:
		return p.parseIsset(), false
	case TokenEmpty:
		node := p.startNode(KindEmptyExpr)
		p.advance()
		open := p.expect(TokenLParen)
		node.AddChild(p.parseExpression())
		p.expectClose(TokenRParen, "empty", open)
		return p.finishNode(node), false
	case TokenExit:
		node := p.startNode(KindExitExpr)
		node.Token = &tok
		p.advance()
		if open, ok := p.accept(TokenLParen); ok {
			if !p.check(TokenRParen) {
				node.AddChild(p.parseExpression())
			}
			p.expectClose(TokenRParen, "exit", open)
		}
		return p.finishNode(node), false
	case TokenLParen:
		node := p.startNode(KindParenExpr)
		open := p.advance()
		node.AddChild(p.parseExpression())
		p.expectClose(TokenRParen, "parenthesized expression", open)
		return p.finishNode(node), true
	case TokenNew:
		node := p.parseAllocation()
		return node, len(node.ChildrenOfKind(KindArguments)) > 0
	case TokenMatch:
		return p.parseMatch(), true
	case TokenSelf, TokenParent, TokenStatic:
		ref := p.parseSpecialClassReference()
		if !p.check(TokenDoubleColon) {
			p.unexpected("::")
		}
		return ref, true
	case TokenFunction, TokenFn:
		return p.parseClosure(), false
	}

	if p.atNameStart() {
		name := p.parseName()
		switch p.peek().Kind {
		case TokenLParen:
			node := startNodeAt(KindFunctionPostfix, tokenNode(KindIdentifier, name))
			node.AddChild(p.parseArguments())
			return p.finishNode(node), true
		case TokenDoubleColon:
			return tokenNode(KindClassReference, name), true
		}
		return tokenNode(KindConstant, name), true
	}

	p.unexpected("expression")
	return nil, false
}

func (p *Parser) parseSpecialClassReference() *Node {
	tok := p.advance()
	switch tok.Kind {
	case TokenSelf:
		return tokenNode(KindSelfReference, tok)
	case TokenParent:
		return tokenNode(KindParentReference, tok)
	}
	return tokenNode(KindStaticReference, tok)
}

// parseClassNameReference parses the class operand of new and instanceof:
// a name, a special class, or a variable with property accesses.
func (p *Parser) parseClassNameReference() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenSelf, TokenParent, TokenStatic:
		return p.parseSpecialClassReference()
	case TokenVariable, TokenDollar:
		return p.parsePostfixChain(p.parseSimpleVariable(), false)
	case TokenLParen:
		node := p.startNode(KindParenExpr)
		open := p.advance()
		node.AddChild(p.parseExpression())
		p.expectClose(TokenRParen, "parenthesized expression", open)
		return p.finishNode(node)
	}
	if p.atNameStart() {
		return tokenNode(KindClassReference, p.parseName())
	}
	p.unexpected("class name")
	return nil
}

func (p *Parser) parseAllocation() *Node {
	node := p.startNode(KindAllocationExpr)
	p.expect(TokenNew)
	if p.check(TokenClass) || p.check(TokenAttributeStart) {
		node.AddChild(p.parseAnonymousClass())
		return p.finishNode(node)
	}
	node.AddChild(p.parseClassNameReference())
	if p.check(TokenLParen) {
		node.AddChild(p.parseArguments())
	}
	return p.finishNode(node)
}

func (p *Parser) parseArguments() *Node {
	node := p.startNode(KindArguments)
	open := p.expect(TokenLParen)
	defer p.enter("argument list")()
	named := false
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		tok := p.peek()
		switch {
		case tok.Kind == TokenEllipsis && p.peekN(1).Kind == TokenRParen:
			p.advance()
			node.AddChild(tokenNode(KindCallablePlaceholder, tok))
		case tok.Kind == TokenEllipsis:
			spread := p.startNode(KindSpread)
			p.advance()
			spread.AddChild(p.parseExpression())
			node.AddChild(p.finishNode(spread))
		case isMemberName(tok.Kind) && p.peekN(1).Kind == TokenColon:
			named = true
			arg := p.startNode(KindNamedArgument)
			arg.Token = &tok
			p.advance()
			p.advance()
			arg.AddChild(p.parseExpression())
			node.AddChild(p.finishNode(arg))
		default:
			if named {
				p.syntaxError(tok.Span.Start, "cannot use positional argument after named argument")
			}
			node.AddChild(p.parseExpression())
		}
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectClose(TokenRParen, "argument list", open, TokenComma)
	return p.finishNode(node)
}

func (p *Parser) parseArrayLiteral() *Node {
	node := p.startNode(KindArrayLiteral)
	closing := TokenRBracket
	if p.check(TokenArray) {
		p.advance()
		closing = TokenRParen
	}
	open := p.advance()
	defer p.enter("array")()
	for !p.check(closing) && !p.check(TokenEOF) {
		node.AddChild(p.parseArrayElement(closing))
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectClose(closing, "array", open, TokenComma)
	return p.finishNode(node)
}

func (p *Parser) parseArrayElement(closing TokenKind) *Node {
	elem := p.startNode(KindArrayElement)
	if p.check(TokenComma) || p.check(closing) {
		return p.finishNode(elem)
	}
	if p.check(TokenEllipsis) {
		spread := p.startNode(KindSpread)
		p.advance()
		spread.AddChild(p.parseExpression())
		elem.AddChild(p.finishNode(spread))
		return p.finishNode(elem)
	}
	value := p.parseElementValue()
	if arrow, ok := p.accept(TokenDoubleArrow); ok {
		elem.Token = &arrow
		elem.AddChild(value)
		elem.AddChild(p.parseElementValue())
	} else {
		elem.AddChild(value)
	}
	return p.finishNode(elem)
}

func (p *Parser) parseElementValue() *Node {
	if p.check(TokenBitAnd) {
		ref := p.startNode(KindByReference)
		p.advance()
		ref.AddChild(p.parsePostfixExpr())
		return p.finishNode(ref)
	}
	return p.parseExpression()
}

func (p *Parser) parseList() *Node {
	node := p.startNode(KindListExpr)
	p.expect(TokenList)
	open := p.expect(TokenLParen)
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		node.AddChild(p.parseArrayElement(TokenRParen))
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectClose(TokenRParen, "list", open, TokenComma)
	return p.finishNode(node)
}

func (p *Parser) parseIsset() *Node {
	node := p.startNode(KindIssetExpr)
	p.expect(TokenIsset)
	open := p.expect(TokenLParen)
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		node.AddChild(p.parseExpression())
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectClose(TokenRParen, "isset", open, TokenComma)
	return p.finishNode(node)
}

func (p *Parser) parseMatch() *Node {
	node := p.startNode(KindMatchExpr)
	p.expect(TokenMatch)
	open := p.expect(TokenLParen)
	node.AddChild(p.parseExpression())
	p.expectClose(TokenRParen, "match subject", open)
	brace := p.expect(TokenLBrace)
	defer p.enter("match")()
	hasDefault := false
	for !p.check(TokenRBrace) && !p.check(TokenEOF) {
		arm := p.startNode(KindMatchArm)
		if def, ok := p.accept(TokenDefault); ok {
			if hasDefault {
				p.syntaxError(def.Span.Start, "match expression may only contain one default arm")
			}
			hasDefault = true
			arm.Token = &def
			p.accept(TokenComma)
		} else {
			for !p.check(TokenDoubleArrow) {
				arm.AddChild(p.parseExpression())
				if _, ok := p.accept(TokenComma); !ok {
					break
				}
			}
		}
		p.expect(TokenDoubleArrow)
		arm.AddChild(p.parseExpression())
		node.AddChild(p.finishNode(arm))
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectClose(TokenRBrace, "match", brace, TokenComma)
	return p.finishNode(node)
}

func (p *Parser) parseClosure() *Node {
	start := p.peek()
	var static *Token
	if tok, ok := p.accept(TokenStatic); ok {
		static = &tok
	}
	if p.check(TokenFn) {
		node := &Node{Kind: KindArrowFunction, Span: Span{Start: start.Span.Start}}
		p.advance()
		node.AddChild(p.modifiersOf(static, p.acceptByRef()))
		node.AddChild(p.parseParameters())
		node.AddChild(p.parseReturnType())
		p.expect(TokenDoubleArrow)
		node.AddChild(p.parseExprBP(bpAssign))
		return p.finishNode(node)
	}

	node := &Node{Kind: KindClosure, Span: Span{Start: start.Span.Start}}
	p.expect(TokenFunction)
	node.AddChild(p.modifiersOf(static, p.acceptByRef()))
	node.AddChild(p.parseParameters())
	if p.check(TokenUse) {
		use := p.startNode(KindClosureUse)
		p.advance()
		open := p.expect(TokenLParen)
		for !p.check(TokenRParen) && !p.check(TokenEOF) {
			if p.check(TokenBitAnd) {
				ref := p.startNode(KindByReference)
				p.advance()
				ref.AddChild(tokenNode(KindVariable, p.expect(TokenVariable)))
				use.AddChild(p.finishNode(ref))
			} else {
				use.AddChild(tokenNode(KindVariable, p.expect(TokenVariable)))
			}
			if _, ok := p.accept(TokenComma); !ok {
				break
			}
		}
		p.expectClose(TokenRParen, "closure use list", open, TokenComma)
		node.AddChild(p.finishNode(use))
	}
	node.AddChild(p.parseReturnType())
	node.AddChild(p.parseBlock())
	return p.finishNode(node)
}

func (p *Parser) acceptByRef() *Token {
	if tok, ok := p.accept(TokenBitAnd); ok {
		return &tok
	}
	return nil
}

// modifiersOf builds a Modifiers node from optional tokens, or nil when
// none are present.
func (p *Parser) modifiersOf(tokens ...*Token) *Node {
	var node *Node
	for _, tok := range tokens {
		if tok == nil {
			continue
		}
		if node == nil {
			node = &Node{Kind: KindModifiers, Span: tok.Span}
		}
		node.AddChild(tokenNode(KindIdentifier, *tok))
		node.Span.End = tok.Span.End
	}
	return node
}
