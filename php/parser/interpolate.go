package parser

import "strings"

// parseInterpolated builds a string node whose children are the
// expressions embedded in tok. Positions of the children point into the
// enclosing source.
func (p *Parser) parseInterpolated(tok Token, kind NodeKind) *Node {
	node := tokenNode(kind, tok)
	lit := tok.Literal
	bodyStart, bodyEnd := 1, len(lit)-1
	if tok.Kind == TokenHeredoc {
		bodyStart = strings.IndexByte(lit, '\n') + 1
		bodyEnd = strings.LastIndexByte(lit, '\n')
		if bodyEnd < bodyStart {
			bodyEnd = bodyStart
		}
	}
	if bodyEnd <= bodyStart {
		return node
	}

	c := newFragmentLexer(p.input, tok.Span.Start, tok.Span.Start.Offset+bodyEnd)
	c.advanceN(bodyStart)
	for !c.atEnd() {
		ch := c.peek()
		switch {
		case ch == '\\':
			c.advanceN(2)
		case ch == '$' && isNameStart(c.peekN(1)):
			node.AddChild(p.parseSimpleInterpolation(c))
		case ch == '$' && c.peekN(1) == '{':
			node.AddChild(p.parseDollarBraceInterpolation(c))
		case ch == '{' && c.peekN(1) == '$':
			node.AddChild(p.parseBraceInterpolation(c))
		default:
			c.advance()
		}
	}
	return node
}

func (p *Parser) scanInterpolatedName(c *Lexer) {
	if err := c.scanName(); err != nil {
		p.fail(err)
	}
}

// parseSimpleInterpolation handles "$name", "$name[key]" and
// "$name->prop".
func (p *Parser) parseSimpleInterpolation(c *Lexer) *Node {
	start := c.Position()
	c.advance()
	p.scanInterpolatedName(c)
	variable := tokenNode(KindVariable, c.token(TokenVariable, start))

	switch {
	case c.peek() == '[':
		openPos := c.Position()
		c.advance()
		open := c.token(TokenLBracket, openPos)
		keyStart := c.Position()
		var key *Node
		switch ch := c.peek(); {
		case ch == '$' && isNameStart(c.peekN(1)):
			c.advance()
			p.scanInterpolatedName(c)
			key = tokenNode(KindVariable, c.token(TokenVariable, keyStart))
		case isDigit(ch) || (ch == '-' && isDigit(c.peekN(1))):
			c.advance()
			c.scanDigits(isDigit)
			key = tokenNode(KindLiteral, c.token(TokenIntLiteral, keyStart))
		case isNameStart(ch):
			p.scanInterpolatedName(c)
			key = tokenNode(KindLiteral, c.token(TokenStringLiteral, keyStart))
		default:
			p.syntaxError(keyStart, "invalid array offset in string")
		}
		if c.peek() != ']' {
			p.syntaxError(c.Position(), "expected ] in string offset")
		}
		c.advance()
		node := startNodeAt(KindIndexPostfix, variable)
		node.Token = &open
		node.AddChild(key)
		node.Span.End = c.Position()
		return node
	case c.peek() == '-' && c.peekN(1) == '>' && isNameStart(c.peekN(2)):
		return p.parseInterpolatedProperty(c, variable, 2, TokenArrow)
	case c.peek() == '?' && c.peekN(1) == '-' && c.peekN(2) == '>' && isNameStart(c.peekN(3)):
		return p.parseInterpolatedProperty(c, variable, 3, TokenNullsafeArrow)
	}
	return variable
}

func (p *Parser) parseInterpolatedProperty(c *Lexer, variable *Node, width int, kind TokenKind) *Node {
	opPos := c.Position()
	c.advanceN(width)
	op := c.token(kind, opPos)
	namePos := c.Position()
	p.scanInterpolatedName(c)
	node := startNodeAt(KindPropertyPostfix, variable)
	node.Token = &op
	node.AddChild(tokenNode(KindIdentifier, c.token(TokenIdent, namePos)))
	node.Span.End = c.Position()
	return node
}

// parseDollarBraceInterpolation handles "${name}" and "${expr}".
func (p *Parser) parseDollarBraceInterpolation(c *Lexer) *Node {
	start := c.Position()
	c.advance()
	innerStart := c.Position()
	innerStart.Offset++
	innerStart.Column++
	if err := c.skipEmbeddedExpression(); err != nil {
		p.fail(err)
	}
	end := c.Position()
	inner := string(p.input[innerStart.Offset : end.Offset-1])
	if isPlainName(inner) {
		tok := Token{Kind: TokenVariable, Span: Span{Start: start, End: end}, Literal: "$" + inner}
		return tokenNode(KindVariable, tok)
	}
	node := &Node{Kind: KindVariableVariable, Span: Span{Start: start, End: end}}
	node.AddChild(p.parseFragment(innerStart, end.Offset-1))
	return node
}

// parseBraceInterpolation handles "{$expr}".
func (p *Parser) parseBraceInterpolation(c *Lexer) *Node {
	start := c.Position()
	exprStart := start
	exprStart.Offset++
	exprStart.Column++
	if err := c.skipEmbeddedExpression(); err != nil {
		p.fail(err)
	}
	return p.parseFragment(exprStart, c.Position().Offset-1)
}

func (p *Parser) parseFragment(start Position, end int) *Node {
	sub := &Parser{
		file:          p.file,
		input:         p.input,
		maxBacktracks: p.maxBacktracks,
		attempted:     make(map[attemptKey]bool),
	}
	if err := sub.tokenize(newFragmentLexer(p.input, start, end)); err != nil {
		p.fail(err)
	}
	expr := sub.parseExpression()
	sub.expect(TokenEOF)
	p.backtracks += sub.backtracks
	return expr
}

func isPlainName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}
