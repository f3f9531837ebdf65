package parser

func (p *Parser) parseCompilationUnit() *Node {
	node := p.startNode(KindCompilationUnit)
	for !p.check(TokenEOF) {
		node.AddChild(p.parseTopStatement())
	}
	return p.finishNode(node)
}

func (p *Parser) parseTopStatement() *Node {
	switch p.peek().Kind {
	case TokenNamespace:
		if p.peekN(1).Kind != TokenBackslash {
			return p.parseNamespace()
		}
	case TokenUse:
		return p.parseUseDecl()
	case TokenConst:
		return p.parseConstDecl()
	case TokenHaltCompiler:
		return p.parseHaltCompiler()
	}
	return p.parseStatement()
}

func (p *Parser) parseNamespace() *Node {
	node := p.startNode(KindNamespaceDecl)
	p.expect(TokenNamespace)
	if p.atNameStart() {
		name := p.parseName()
		node.Token = &name
	}
	defer p.enter("namespace")()
	if open, ok := p.accept(TokenLBrace); ok {
		for !p.check(TokenRBrace) {
			if p.check(TokenEOF) {
				p.expectClose(TokenRBrace, "namespace", open)
			}
			node.AddChild(p.parseTopStatement())
		}
		p.advance()
		return p.finishNode(node)
	}
	if node.Token == nil {
		p.unexpected("namespace name", "{")
	}
	p.expectTerminator()
	for !p.check(TokenEOF) {
		if p.check(TokenNamespace) && p.peekN(1).Kind != TokenBackslash {
			break
		}
		node.AddChild(p.parseTopStatement())
	}
	return p.finishNode(node)
}

// parseUseDecl flattens group uses so that each clause carries its full
// name.
func (p *Parser) parseUseDecl() *Node {
	node := p.startNode(KindUseDecl)
	p.expect(TokenUse)
	kind := p.parseUseKind()
	node.Token = kind
	for {
		prefix := p.parseName()
		if p.check(TokenBackslash) && p.peekN(1).Kind == TokenLBrace {
			p.advance()
			open := p.advance()
			for !p.check(TokenRBrace) {
				clauseKind := p.parseUseKind()
				if clauseKind == nil {
					clauseKind = kind
				}
				name := p.parseName()
				name.Literal = prefix.Literal + `\` + name.Literal
				node.AddChild(p.parseUseClause(name, clauseKind))
				if _, ok := p.accept(TokenComma); !ok {
					break
				}
			}
			p.expectClose(TokenRBrace, "group use", open, TokenComma)
		} else {
			node.AddChild(p.parseUseClause(prefix, kind))
		}
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseUseKind() *Token {
	tok := p.peek()
	if tok.Kind == TokenFunction || tok.Kind == TokenConst {
		p.advance()
		return &tok
	}
	return nil
}

func (p *Parser) parseUseClause(name Token, kind *Token) *Node {
	clause := &Node{Kind: KindUseClause, Span: name.Span, Token: kind}
	clause.AddChild(tokenNode(KindIdentifier, name))
	if _, ok := p.accept(TokenAs); ok {
		alias := p.peek()
		if !isIdentifierLike(alias.Kind) {
			p.unexpected("alias")
		}
		p.advance()
		clause.AddChild(tokenNode(KindIdentifier, alias))
	}
	return p.finishNode(clause)
}

func (p *Parser) parseConstDecl() *Node {
	doc := p.docComment()
	node := p.startNode(KindConstDecl)
	node.Doc = doc
	p.expect(TokenConst)
	p.parseConstDeclarators(node)
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseConstDeclarators(parent *Node) {
	for {
		tok := p.peek()
		if !isMemberName(tok.Kind) {
			p.unexpected("constant name")
		}
		decl := p.startNode(KindConstDeclarator)
		p.advance()
		decl.Token = &tok
		p.expect(TokenAssign)
		decl.AddChild(p.parseExpression())
		parent.AddChild(p.finishNode(decl))
		if _, ok := p.accept(TokenComma); !ok {
			return
		}
	}
}

func (p *Parser) parseHaltCompiler() *Node {
	node := p.startNode(KindHaltCompiler)
	p.expect(TokenHaltCompiler)
	open := p.expect(TokenLParen)
	p.expectClose(TokenRParen, "__halt_compiler", open)
	p.expectTerminator()
	if data, ok := p.accept(TokenInlineHTML); ok {
		node.AddChild(tokenNode(KindInlineHTML, data))
	}
	return p.finishNode(node)
}

func (p *Parser) parseStatement() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenLBrace:
		return p.parseBlock()
	case TokenSemicolon, TokenCloseTag:
		node := p.startNode(KindEmptyStmt)
		p.advance()
		return p.finishNode(node)
	case TokenInlineHTML:
		p.advance()
		return tokenNode(KindInlineHTML, tok)
	case TokenOpenTagEcho:
		node := p.startNode(KindEchoStmt)
		p.advance()
		p.parseExpressionList(node)
		p.expectTerminator()
		return p.finishNode(node)
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenDo:
		return p.parseDo()
	case TokenFor:
		return p.parseFor()
	case TokenForeach:
		return p.parseForeach()
	case TokenSwitch:
		return p.parseSwitch()
	case TokenBreak:
		return p.parseJump(KindBreakStmt)
	case TokenContinue:
		return p.parseJump(KindContinueStmt)
	case TokenReturn:
		return p.parseJump(KindReturnStmt)
	case TokenGlobal:
		return p.parseGlobal()
	case TokenEcho:
		node := p.startNode(KindEchoStmt)
		p.advance()
		p.parseExpressionList(node)
		p.expectTerminator()
		return p.finishNode(node)
	case TokenUnset:
		return p.parseUnset()
	case TokenTry:
		return p.parseTry()
	case TokenThrow:
		node := p.startNode(KindThrowStmt)
		p.advance()
		node.AddChild(p.parseExpression())
		p.expectTerminator()
		return p.finishNode(node)
	case TokenGoto:
		node := p.startNode(KindGotoStmt)
		p.advance()
		label := p.peek()
		if !isIdentifierLike(label.Kind) {
			p.unexpected("label")
		}
		p.advance()
		node.Token = &label
		p.expectTerminator()
		return p.finishNode(node)
	case TokenDeclare:
		return p.parseDeclare()
	case TokenStatic:
		if p.peekN(1).Kind == TokenVariable {
			return p.parseStaticVars()
		}
	case TokenFunction:
		next := p.peekN(1)
		if next.Kind == TokenBitAnd {
			next = p.peekN(2)
		}
		if next.Kind != TokenLParen {
			return p.parseFunctionDecl(p.docComment(), nil)
		}
	case TokenAbstract, TokenFinal, TokenClass, TokenInterface, TokenTrait:
		return p.parseClassLike(p.docComment(), nil)
	case TokenReadonly:
		if p.peekN(1).Kind == TokenClass || p.peekN(1).Kind == TokenFinal || p.peekN(1).Kind == TokenAbstract {
			return p.parseClassLike(p.docComment(), nil)
		}
	case TokenEnum:
		if isIdentifierLike(p.peekN(1).Kind) {
			return p.parseClassLike(p.docComment(), nil)
		}
	case TokenAttributeStart:
		return p.parseAttributedStatement()
	case TokenUse:
		return p.parseUseDecl()
	case TokenConst:
		return p.parseConstDecl()
	case TokenIdent:
		if p.peekN(1).Kind == TokenColon {
			node := p.startNode(KindLabelStmt)
			p.advance()
			p.advance()
			node.Token = &tok
			return p.finishNode(node)
		}
	}

	node := p.startNode(KindExprStmt)
	node.AddChild(p.parseExpression())
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseAttributedStatement() *Node {
	doc := p.docComment()
	attrs := p.parseAttributes()
	switch p.peek().Kind {
	case TokenFunction:
		if p.peekN(1).Kind == TokenLParen || (p.peekN(1).Kind == TokenBitAnd && p.peekN(2).Kind == TokenLParen) {
			return p.parseExprStatementWith(attrs)
		}
		return p.parseFunctionDecl(doc, attrs)
	case TokenAbstract, TokenFinal, TokenClass, TokenInterface, TokenTrait, TokenEnum, TokenReadonly:
		return p.parseClassLike(doc, attrs)
	}
	return p.parseExprStatementWith(attrs)
}

// parseExprStatementWith parses an expression statement starting with an
// attributed closure.
func (p *Parser) parseExprStatementWith(attrs []*Node) *Node {
	node := &Node{Kind: KindExprStmt, Span: Span{Start: attrs[0].Span.Start}}
	expr := p.parseExpression()
	expr.Children = append(attrs, expr.Children...)
	node.AddChild(expr)
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseExpressionList(parent *Node) {
	for {
		parent.AddChild(p.parseExpression())
		if _, ok := p.accept(TokenComma); !ok {
			return
		}
	}
}

func (p *Parser) parseBlock() *Node {
	node := p.startNode(KindBlock)
	open := p.expect(TokenLBrace)
	defer p.enter("block")()
	for !p.check(TokenRBrace) {
		if p.check(TokenEOF) {
			p.expectClose(TokenRBrace, "block", open)
		}
		node.AddChild(p.parseStatement())
	}
	p.advance()
	return p.finishNode(node)
}

// parseAltBlock collects statements of the colon syntax until one of the
// terminating keywords.
func (p *Parser) parseAltBlock(open Token, construct string, terminators ...TokenKind) *Node {
	node := p.startNode(KindBlock)
	for !p.match(terminators...) {
		if p.check(TokenEOF) {
			p.expectClose(terminators[len(terminators)-1], construct, open)
		}
		node.AddChild(p.parseStatement())
	}
	return p.finishNode(node)
}

func (p *Parser) parseParenCondition(construct string) *Node {
	open := p.expect(TokenLParen)
	expr := p.parseExpression()
	p.expectClose(TokenRParen, construct+" condition", open)
	return expr
}

func (p *Parser) parseIf() *Node {
	node := p.startNode(KindIfStmt)
	open := p.expect(TokenIf)
	node.AddChild(p.parseParenCondition("if"))
	if _, ok := p.accept(TokenColon); ok {
		node.AddChild(p.parseAltBlock(open, "if", TokenElseIf, TokenElse, TokenEndIf))
		for p.check(TokenElseIf) {
			clause := p.startNode(KindElseIfClause)
			p.advance()
			clause.AddChild(p.parseParenCondition("elseif"))
			p.expect(TokenColon)
			clause.AddChild(p.parseAltBlock(open, "if", TokenElseIf, TokenElse, TokenEndIf))
			node.AddChild(p.finishNode(clause))
		}
		if p.check(TokenElse) {
			clause := p.startNode(KindElseClause)
			p.advance()
			p.expect(TokenColon)
			clause.AddChild(p.parseAltBlock(open, "if", TokenEndIf))
			node.AddChild(p.finishNode(clause))
		}
		p.expect(TokenEndIf)
		p.expectTerminator()
		return p.finishNode(node)
	}

	node.AddChild(p.parseStatement())
	for p.check(TokenElseIf) {
		clause := p.startNode(KindElseIfClause)
		p.advance()
		clause.AddChild(p.parseParenCondition("elseif"))
		clause.AddChild(p.parseStatement())
		node.AddChild(p.finishNode(clause))
	}
	if p.check(TokenElse) {
		clause := p.startNode(KindElseClause)
		p.advance()
		clause.AddChild(p.parseStatement())
		node.AddChild(p.finishNode(clause))
	}
	return p.finishNode(node)
}

func (p *Parser) parseWhile() *Node {
	node := p.startNode(KindWhileStmt)
	open := p.expect(TokenWhile)
	node.AddChild(p.parseParenCondition("while"))
	if _, ok := p.accept(TokenColon); ok {
		node.AddChild(p.parseAltBlock(open, "while", TokenEndWhile))
		p.advance()
		p.expectTerminator()
		return p.finishNode(node)
	}
	node.AddChild(p.parseStatement())
	return p.finishNode(node)
}

func (p *Parser) parseDo() *Node {
	node := p.startNode(KindDoStmt)
	p.expect(TokenDo)
	node.AddChild(p.parseStatement())
	p.expect(TokenWhile)
	node.AddChild(p.parseParenCondition("do-while"))
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseFor() *Node {
	node := p.startNode(KindForStmt)
	keyword := p.expect(TokenFor)
	open := p.expect(TokenLParen)
	for i, kind := range []NodeKind{KindForInit, KindForCondition, KindForUpdate} {
		part := p.startNode(kind)
		closing := TokenSemicolon
		if i == 2 {
			closing = TokenRParen
		}
		if !p.check(closing) {
			p.parseExpressionList(part)
		}
		if i == 2 {
			p.expectClose(TokenRParen, "for header", open)
		} else {
			p.expect(TokenSemicolon)
		}
		node.AddChild(p.finishNode(part))
	}
	if _, ok := p.accept(TokenColon); ok {
		node.AddChild(p.parseAltBlock(keyword, "for", TokenEndFor))
		p.advance()
		p.expectTerminator()
		return p.finishNode(node)
	}
	node.AddChild(p.parseStatement())
	return p.finishNode(node)
}

// parseForeach produces children subject, [key,] value, body.
func (p *Parser) parseForeach() *Node {
	node := p.startNode(KindForeachStmt)
	keyword := p.expect(TokenForeach)
	open := p.expect(TokenLParen)
	node.AddChild(p.parseExpression())
	as := p.expect(TokenAs)
	node.Token = &as
	first := p.parseElementValue()
	if _, ok := p.accept(TokenDoubleArrow); ok {
		node.AddChild(first)
		first = p.parseElementValue()
	}
	if first.Kind == KindArrayLiteral {
		first.Kind = KindListExpr
	}
	node.AddChild(first)
	p.expectClose(TokenRParen, "foreach header", open)
	if _, ok := p.accept(TokenColon); ok {
		node.AddChild(p.parseAltBlock(keyword, "foreach", TokenEndForeach))
		p.advance()
		p.expectTerminator()
		return p.finishNode(node)
	}
	node.AddChild(p.parseStatement())
	return p.finishNode(node)
}

func (p *Parser) parseSwitch() *Node {
	node := p.startNode(KindSwitchStmt)
	keyword := p.expect(TokenSwitch)
	node.AddChild(p.parseParenCondition("switch"))
	closing := TokenRBrace
	var open Token
	if colon, ok := p.accept(TokenColon); ok {
		open = colon
		closing = TokenEndSwitch
	} else {
		open = p.expect(TokenLBrace)
	}
	defer p.enter("switch")()
	hasDefault := false
	for p.check(TokenCase) || p.check(TokenDefault) {
		clause := p.startNode(KindSwitchCase)
		label := p.advance()
		clause.Token = &label
		if label.Kind == TokenCase {
			clause.AddChild(p.parseExpression())
		} else if hasDefault {
			p.syntaxError(label.Span.Start, "switch statement may only contain one default clause")
		} else {
			hasDefault = true
		}
		if _, ok := p.accept(TokenSemicolon); !ok {
			p.expect(TokenColon)
		}
		for !p.match(TokenCase, TokenDefault, closing, TokenEOF) {
			clause.AddChild(p.parseStatement())
		}
		node.AddChild(p.finishNode(clause))
	}
	if closing == TokenEndSwitch {
		if !p.check(TokenEndSwitch) {
			p.expectClose(TokenEndSwitch, "switch", keyword)
		}
		p.advance()
		p.expectTerminator()
	} else {
		p.expectClose(TokenRBrace, "switch", open, TokenCase, TokenDefault)
	}
	return p.finishNode(node)
}

func (p *Parser) parseJump(kind NodeKind) *Node {
	node := p.startNode(kind)
	p.advance()
	if !p.check(TokenSemicolon) && !p.check(TokenCloseTag) {
		node.AddChild(p.parseExpression())
	}
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseGlobal() *Node {
	node := p.startNode(KindGlobalStmt)
	p.expect(TokenGlobal)
	for {
		node.AddChild(p.parseSimpleVariable())
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseStaticVars() *Node {
	node := p.startNode(KindStaticStmt)
	p.expect(TokenStatic)
	for {
		v := p.startNode(KindStaticVar)
		tok := p.expect(TokenVariable)
		v.Token = &tok
		if _, ok := p.accept(TokenAssign); ok {
			v.AddChild(p.parseExpression())
		}
		node.AddChild(p.finishNode(v))
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseUnset() *Node {
	node := p.startNode(KindUnsetStmt)
	p.expect(TokenUnset)
	open := p.expect(TokenLParen)
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		node.AddChild(p.parseExpression())
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectClose(TokenRParen, "unset", open, TokenComma)
	p.expectTerminator()
	return p.finishNode(node)
}

func (p *Parser) parseTry() *Node {
	node := p.startNode(KindTryStmt)
	p.expect(TokenTry)
	node.AddChild(p.parseBlock())
	for p.check(TokenCatch) {
		clause := p.startNode(KindCatchClause)
		p.advance()
		open := p.expect(TokenLParen)
		for {
			clause.AddChild(tokenNode(KindClassReference, p.parseName()))
			if _, ok := p.accept(TokenBitOr); !ok {
				break
			}
		}
		if tok, ok := p.accept(TokenVariable); ok {
			clause.AddChild(tokenNode(KindVariable, tok))
		}
		p.expectClose(TokenRParen, "catch clause", open)
		clause.AddChild(p.parseBlock())
		node.AddChild(p.finishNode(clause))
	}
	if p.check(TokenFinally) {
		clause := p.startNode(KindFinallyClause)
		p.advance()
		clause.AddChild(p.parseBlock())
		node.AddChild(p.finishNode(clause))
	}
	if len(node.Children) == 1 {
		p.unexpected("catch", "finally")
	}
	return p.finishNode(node)
}

func (p *Parser) parseDeclare() *Node {
	node := p.startNode(KindDeclareStmt)
	keyword := p.expect(TokenDeclare)
	open := p.expect(TokenLParen)
	p.parseConstDeclarators(node)
	p.expectClose(TokenRParen, "declare", open, TokenComma)
	switch {
	case p.check(TokenColon):
		p.advance()
		node.AddChild(p.parseAltBlock(keyword, "declare", TokenEndDeclare))
		p.advance()
		p.expectTerminator()
	case p.check(TokenSemicolon) || p.check(TokenCloseTag):
		p.advance()
	default:
		node.AddChild(p.parseStatement())
	}
	return p.finishNode(node)
}
