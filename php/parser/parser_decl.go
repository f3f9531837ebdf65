package parser

import "strings"

var scalarTypes = map[string]bool{
	"int": true, "float": true, "string": true, "bool": true,
	"iterable": true, "object": true, "mixed": true, "void": true,
	"never": true,
}

// startDecl starts a declaration node at its first attribute, if any.
func (p *Parser) startDecl(kind NodeKind, doc *Token, attrs []*Node) *Node {
	node := p.startNode(kind)
	if len(attrs) > 0 {
		node.Span.Start = attrs[0].Span.Start
	}
	node.Doc = doc
	node.Children = append(node.Children, attrs...)
	return node
}

func (p *Parser) parseFunctionDecl(doc *Token, attrs []*Node) *Node {
	node := p.startDecl(KindFunctionDecl, doc, attrs)
	p.expect(TokenFunction)
	byRef := p.acceptByRef()
	name := p.peek()
	if !isIdentifierLike(name.Kind) {
		p.unexpected("function name")
	}
	p.advance()
	node.Token = &name
	defer p.enter("function %s", name.Literal)()
	node.AddChild(p.modifiersOf(byRef))
	node.AddChild(p.parseParameters())
	node.AddChild(p.parseReturnType())
	node.AddChild(p.parseBlock())
	return p.finishNode(node)
}

func (p *Parser) expectClassName() Token {
	tok := p.peek()
	switch tok.Kind {
	case TokenIdent, TokenEnum, TokenReadonly, TokenTrue, TokenFalse, TokenNull:
		p.advance()
		return tok
	}
	p.unexpected("class name")
	return Token{}
}

// parseClassReferenceName accepts a name in extends and implements lists.
// The reserved constants are allowed there as plain class names.
func (p *Parser) parseClassReferenceName() *Node {
	switch tok := p.peek(); tok.Kind {
	case TokenTrue, TokenFalse, TokenNull:
		p.advance()
		return tokenNode(KindClassReference, tok)
	}
	return tokenNode(KindClassReference, p.parseName())
}

func (p *Parser) parseClassReferenceList(kind NodeKind) *Node {
	node := p.startNode(kind)
	p.advance()
	for {
		node.AddChild(p.parseClassReferenceName())
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	return p.finishNode(node)
}

func (p *Parser) parseClassModifiers() *Node {
	var mods []*Token
	for p.match(TokenAbstract, TokenFinal, TokenReadonly) {
		if p.check(TokenReadonly) && p.peekN(1).Kind != TokenClass && p.peekN(1).Kind != TokenFinal && p.peekN(1).Kind != TokenAbstract {
			break
		}
		tok := p.advance()
		mods = append(mods, &tok)
	}
	return p.modifiersOf(mods...)
}

func (p *Parser) parseClassLike(doc *Token, attrs []*Node) *Node {
	start := p.pos
	mods := p.parseClassModifiers()
	keyword := p.peek()
	var kind NodeKind
	switch keyword.Kind {
	case TokenClass:
		kind = KindClassDecl
	case TokenInterface:
		kind = KindInterfaceDecl
	case TokenTrait:
		kind = KindTraitDecl
	case TokenEnum:
		kind = KindEnumDecl
	default:
		p.unexpected("class", "interface", "trait", "enum")
	}
	node := &Node{Kind: kind, Span: Span{Start: p.tokens[start].Span.Start}, Doc: doc}
	if len(attrs) > 0 {
		node.Span.Start = attrs[0].Span.Start
	}
	node.Children = append(node.Children, attrs...)
	p.advance()
	name := p.expectClassName()
	node.Token = &name
	defer p.enter("%s %s", keyword.Literal, name.Literal)()
	node.AddChild(mods)

	switch kind {
	case KindClassDecl:
		if p.check(TokenExtends) {
			ext := p.startNode(KindExtendsClause)
			p.advance()
			ext.AddChild(p.parseClassReferenceName())
			node.AddChild(p.finishNode(ext))
		}
		if p.check(TokenImplements) {
			node.AddChild(p.parseClassReferenceList(KindImplementsClause))
		}
	case KindInterfaceDecl:
		if p.check(TokenExtends) {
			node.AddChild(p.parseClassReferenceList(KindExtendsClause))
		}
	case KindEnumDecl:
		if _, ok := p.accept(TokenColon); ok {
			node.AddChild(p.parseType())
		}
		if p.check(TokenImplements) {
			node.AddChild(p.parseClassReferenceList(KindImplementsClause))
		}
	}
	node.AddChild(p.parseClassBody(kind))
	return p.finishNode(node)
}

func (p *Parser) parseAnonymousClass() *Node {
	attrs := p.parseAttributes()
	node := p.startDecl(KindAnonymousClass, nil, attrs)
	p.expect(TokenClass)
	defer p.enter("anonymous class")()
	if p.check(TokenLParen) {
		node.AddChild(p.parseArguments())
	}
	if p.check(TokenExtends) {
		ext := p.startNode(KindExtendsClause)
		p.advance()
		ext.AddChild(p.parseClassReferenceName())
		node.AddChild(p.finishNode(ext))
	}
	if p.check(TokenImplements) {
		node.AddChild(p.parseClassReferenceList(KindImplementsClause))
	}
	node.AddChild(p.parseClassBody(KindClassDecl))
	return p.finishNode(node)
}

func (p *Parser) parseClassBody(owner NodeKind) *Node {
	node := p.startNode(KindClassBody)
	open := p.expect(TokenLBrace)
	defer p.enter("class body")()
	for !p.check(TokenRBrace) {
		if p.check(TokenEOF) {
			p.expectClose(TokenRBrace, "class body", open)
		}
		node.AddChild(p.parseClassMember(owner))
	}
	p.advance()
	return p.finishNode(node)
}

func isMemberModifier(kind TokenKind) bool {
	switch kind {
	case TokenPublic, TokenProtected, TokenPrivate, TokenStatic, TokenAbstract,
		TokenFinal, TokenVar, TokenReadonly:
		return true
	}
	return false
}

func (p *Parser) parseClassMember(owner NodeKind) *Node {
	doc := p.docComment()
	attrs := p.parseAttributes()

	switch p.peek().Kind {
	case TokenUse:
		return p.parseTraitUse()
	case TokenCase:
		if owner == KindEnumDecl {
			return p.parseEnumCase(doc, attrs)
		}
	}

	start := p.peek()
	var modTokens []*Token
	for isMemberModifier(p.peek().Kind) {
		tok := p.advance()
		modTokens = append(modTokens, &tok)
	}
	mods := p.modifiersOf(modTokens...)

	var node *Node
	switch p.peek().Kind {
	case TokenConst:
		node = p.parseClassConst(mods)
	case TokenFunction:
		node = p.parseMethod(mods)
	default:
		if len(modTokens) == 0 {
			p.unexpected("function", "const", "use", "property")
		}
		node = p.parsePropertyDecl(mods)
	}
	node.Span.Start = start.Span.Start
	if len(attrs) > 0 {
		node.Span.Start = attrs[0].Span.Start
		node.Children = append(attrs, node.Children...)
	}
	node.Doc = doc
	return node
}

func (p *Parser) parseMethod(mods *Node) *Node {
	node := p.startNode(KindMethodDecl)
	p.expect(TokenFunction)
	byRef := p.acceptByRef()
	name := p.peek()
	if !isMemberName(name.Kind) {
		p.unexpected("method name")
	}
	p.advance()
	node.Token = &name
	defer p.enter("method %s", name.Literal)()
	if byRef != nil {
		if mods == nil {
			mods = p.modifiersOf(byRef)
		} else {
			mods.AddChild(tokenNode(KindIdentifier, *byRef))
		}
	}
	node.AddChild(mods)
	node.AddChild(p.parseParameters())
	node.AddChild(p.parseReturnType())
	if _, ok := p.accept(TokenSemicolon); !ok {
		node.AddChild(p.parseBlock())
	}
	return p.finishNode(node)
}

func (p *Parser) parseClassConst(mods *Node) *Node {
	node := p.startNode(KindClassConstDecl)
	p.expect(TokenConst)
	node.AddChild(mods)
	if p.peekN(1).Kind != TokenAssign {
		var typ *Node
		if p.attempt(ambiguityTypedConstant, func() {
			typ = p.parseType()
			if !isMemberName(p.peek().Kind) || p.peekN(1).Kind != TokenAssign {
				p.unexpected("constant name")
			}
		}) {
			node.AddChild(typ)
		}
	}
	p.parseConstDeclarators(node)
	p.expect(TokenSemicolon)
	return p.finishNode(node)
}

func (p *Parser) parsePropertyDecl(mods *Node) *Node {
	node := p.startNode(KindPropertyDecl)
	node.AddChild(mods)
	if !p.check(TokenVariable) {
		node.AddChild(p.parseType())
	}
	for {
		decl := p.startNode(KindPropertyDeclarator)
		tok := p.expect(TokenVariable)
		decl.Token = &tok
		if _, ok := p.accept(TokenAssign); ok {
			decl.AddChild(p.parseExpression())
		}
		node.AddChild(p.finishNode(decl))
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expect(TokenSemicolon)
	return p.finishNode(node)
}

func (p *Parser) parseEnumCase(doc *Token, attrs []*Node) *Node {
	node := p.startDecl(KindEnumCase, doc, attrs)
	p.expect(TokenCase)
	name := p.peek()
	if !isMemberName(name.Kind) {
		p.unexpected("case name")
	}
	p.advance()
	node.Token = &name
	if _, ok := p.accept(TokenAssign); ok {
		node.AddChild(p.parseExpression())
	}
	p.expect(TokenSemicolon)
	return p.finishNode(node)
}

func (p *Parser) parseTraitUse() *Node {
	node := p.startNode(KindTraitUse)
	p.expect(TokenUse)
	for {
		node.AddChild(tokenNode(KindClassReference, p.parseName()))
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	if _, ok := p.accept(TokenSemicolon); ok {
		return p.finishNode(node)
	}
	open := p.expect(TokenLBrace)
	for !p.check(TokenRBrace) {
		if p.check(TokenEOF) {
			p.expectClose(TokenRBrace, "trait adaptation block", open)
		}
		node.AddChild(p.parseTraitAdaptation())
	}
	p.advance()
	return p.finishNode(node)
}

func (p *Parser) parseTraitAdaptation() *Node {
	node := p.startNode(KindTraitAdaptation)
	if p.atNameStart() && (p.peekN(1).Kind == TokenDoubleColon || p.peekN(1).Kind == TokenBackslash || p.check(TokenBackslash)) {
		node.AddChild(tokenNode(KindClassReference, p.parseName()))
		p.expect(TokenDoubleColon)
	}
	method := p.peek()
	if !isMemberName(method.Kind) {
		p.unexpected("method name")
	}
	p.advance()
	node.AddChild(tokenNode(KindIdentifier, method))

	op := p.peek()
	switch op.Kind {
	case TokenInsteadof:
		p.advance()
		node.Token = &op
		for {
			node.AddChild(tokenNode(KindClassReference, p.parseName()))
			if _, ok := p.accept(TokenComma); !ok {
				break
			}
		}
	case TokenAs:
		p.advance()
		node.Token = &op
		if vis := p.peek(); vis.Kind == TokenPublic || vis.Kind == TokenProtected || vis.Kind == TokenPrivate {
			p.advance()
			node.AddChild(p.modifiersOf(&vis))
		}
		if alias := p.peek(); isMemberName(alias.Kind) && alias.Kind != TokenSemicolon {
			p.advance()
			node.AddChild(tokenNode(KindIdentifier, alias))
		}
	default:
		p.unexpected("insteadof", "as")
	}
	p.expect(TokenSemicolon)
	return p.finishNode(node)
}

func (p *Parser) parseParameters() *Node {
	node := p.startNode(KindParameters)
	open := p.expect(TokenLParen)
	defer p.enter("parameter list")()
	for !p.check(TokenRParen) && !p.check(TokenEOF) {
		node.AddChild(p.parseParameter())
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
	}
	p.expectClose(TokenRParen, "parameter list", open, TokenComma)
	return p.finishNode(node)
}

// parseParameter produces children [attributes...] [Modifiers] [Type]
// [default]. By-reference and variadic markers appear among the modifiers.
func (p *Parser) parseParameter() *Node {
	attrs := p.parseAttributes()
	node := p.startDecl(KindParameter, nil, attrs)
	var mods []*Token
	for p.match(TokenPublic, TokenProtected, TokenPrivate, TokenReadonly) {
		tok := p.advance()
		mods = append(mods, &tok)
	}
	var typ *Node
	if p.canStartType() {
		typ = p.parseType()
	}
	if tok, ok := p.accept(TokenBitAnd); ok {
		mods = append(mods, &tok)
	}
	if tok, ok := p.accept(TokenEllipsis); ok {
		mods = append(mods, &tok)
	}
	name := p.peek()
	if name.Kind != TokenVariable {
		p.unexpected("parameter")
	}
	p.advance()
	node.Token = &name
	node.AddChild(p.modifiersOf(mods...))
	node.AddChild(typ)
	if _, ok := p.accept(TokenAssign); ok {
		node.AddChild(p.parseExpression())
	}
	return p.finishNode(node)
}

func (p *Parser) parseReturnType() *Node {
	if _, ok := p.accept(TokenColon); ok {
		return p.parseType()
	}
	return nil
}

func (p *Parser) canStartType() bool {
	switch p.peek().Kind {
	case TokenQuestion, TokenLParen, TokenBackslash, TokenArray, TokenCallable,
		TokenStatic, TokenSelf, TokenParent, TokenNull, TokenFalse, TokenTrue:
		return true
	case TokenNamespace:
		return p.peekN(1).Kind == TokenBackslash
	}
	return isIdentifierLike(p.peek().Kind)
}

// parseType parses nullable, union, intersection and DNF types. The Token
// of a compound type is its first operator.
func (p *Parser) parseType() *Node {
	node := p.startNode(KindType)
	if q, ok := p.accept(TokenQuestion); ok {
		node.Token = &q
		node.AddChild(p.parseTypeAtom())
		return p.finishNode(node)
	}
	node.AddChild(p.parseTypeAtom())
	for {
		op := p.peek()
		switch {
		case op.Kind == TokenBitOr:
		case op.Kind == TokenBitAnd && !p.isByRefMarker():
		default:
			return p.finishNode(node)
		}
		p.advance()
		if node.Token == nil {
			node.Token = &op
		}
		node.AddChild(p.parseTypeAtom())
	}
}

// isByRefMarker reports whether the "&" at the cursor marks a by-reference
// parameter rather than an intersection type.
func (p *Parser) isByRefMarker() bool {
	switch p.peekN(1).Kind {
	case TokenVariable, TokenEllipsis:
		return true
	}
	return false
}

func (p *Parser) parseTypeAtom() *Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenLParen:
		open := p.advance()
		inner := p.parseType()
		p.expectClose(TokenRParen, "type", open)
		return inner
	case TokenSelf, TokenParent, TokenStatic:
		return p.parseSpecialClassReference()
	case TokenArray, TokenCallable, TokenNull, TokenFalse, TokenTrue:
		p.advance()
		return tokenNode(KindScalarType, tok)
	case TokenIdent:
		if scalarTypes[strings.ToLower(tok.Literal)] && p.peekN(1).Kind != TokenBackslash {
			p.advance()
			return tokenNode(KindScalarType, tok)
		}
	}
	if !p.atNameStart() {
		p.unexpected("type")
	}
	return tokenNode(KindClassReference, p.parseName())
}

func (p *Parser) parseAttributes() []*Node {
	var attrs []*Node
	for p.check(TokenAttributeStart) {
		group := p.startNode(KindAttribute)
		open := p.advance()
		for !p.check(TokenRBracket) && !p.check(TokenEOF) {
			group.AddChild(tokenNode(KindClassReference, p.parseName()))
			if p.check(TokenLParen) {
				group.AddChild(p.parseArguments())
			}
			if _, ok := p.accept(TokenComma); !ok {
				break
			}
		}
		p.expectClose(TokenRBracket, "attribute", open, TokenComma)
		attrs = append(attrs, p.finishNode(group))
	}
	return attrs
}
