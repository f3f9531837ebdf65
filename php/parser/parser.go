package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxBacktracks bounds the number of failed speculative parses per
// file.
const DefaultMaxBacktracks = 4096

type Option func(*Parser)

func WithFile(path string) Option {
	return func(p *Parser) {
		p.file = path
	}
}

// WithComments keeps comment tokens; they are available from Comments
// after Finish.
func WithComments() Option {
	return func(p *Parser) {
		p.includeComments = true
	}
}

// WithMaxBacktracks overrides DefaultMaxBacktracks. A value <= 0 removes
// the limit.
func WithMaxBacktracks(n int) Option {
	return func(p *Parser) {
		p.maxBacktracks = n
	}
}

type parseFunc func(*Parser) *Node

// ambiguity names a production where the parser may speculate.
type ambiguity int

const (
	ambiguityCast ambiguity = iota
	ambiguityTypedConstant
)

type attemptKey struct {
	production ambiguity
	pos        int
}

// bailout carries a parse error up the recursive descent.
type bailout struct {
	err error
}

type Parser struct {
	file            string
	includeComments bool
	maxBacktracks   int
	codeMode        bool
	reader          io.Reader
	input           []byte
	tokens          []Token
	comments        []Token
	docs            map[int]Token
	pos             int
	entry           parseFunc
	contexts        []string
	backtracks      int
	attempted       map[attemptKey]bool
	failedIn        []string
}

func newParser(r io.Reader, entry parseFunc, opts []Option) *Parser {
	p := &Parser{
		reader:        r,
		entry:         entry,
		maxBacktracks: DefaultMaxBacktracks,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseCompilationUnit prepares a parser for a whole PHP file. Parsing
// happens in Finish.
func ParseCompilationUnit(r io.Reader, opts ...Option) *Parser {
	return newParser(r, (*Parser).parseCompilationUnit, opts)
}

// ParseExpression prepares a parser for a single expression written
// without an opening tag.
func ParseExpression(r io.Reader, opts ...Option) *Parser {
	p := newParser(r, (*Parser).parseExpressionUnit, opts)
	p.codeMode = true
	return p
}

// Parse parses src as a complete file.
func Parse(src []byte, opts ...Option) (*Node, error) {
	return ParseCompilationUnit(bytes.NewReader(src), opts...).Finish()
}

func (p *Parser) Comments() []Token {
	return p.comments
}

// Backtracks reports how many speculative parses were abandoned.
func (p *Parser) Backtracks() int {
	return p.backtracks
}

func (p *Parser) Finish() (node *Node, err error) {
	if p.input == nil {
		data, err := io.ReadAll(p.reader)
		if err != nil {
			return nil, err
		}
		p.input = data
	}
	lexer := NewLexer(p.input, p.file)
	if p.codeMode {
		lexer = newFragmentLexer(p.input, Position{File: p.file, Line: 1, Column: 1}, len(p.input))
	}
	p.tokens = nil
	p.comments = nil
	p.pos = 0
	p.backtracks = 0
	p.failedIn = nil
	p.attempted = make(map[attemptKey]bool)
	if err := p.tokenize(lexer); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			node, err = nil, b.err
		}
	}()
	return p.entry(p), nil
}

func (p *Parser) tokenize(lexer *Lexer) error {
	p.docs = make(map[int]Token)
	var doc *Token
	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return err
		}
		if tok.Kind.IsTrivia() {
			switch tok.Kind {
			case TokenDocComment:
				d := tok
				doc = &d
				if p.includeComments {
					p.comments = append(p.comments, tok)
				}
			case TokenComment, TokenLineComment:
				if p.includeComments {
					p.comments = append(p.comments, tok)
				}
			}
			continue
		}
		if doc != nil {
			p.docs[len(p.tokens)] = *doc
			doc = nil
		}
		p.tokens = append(p.tokens, tok)
		if tok.Kind == TokenEOF {
			return nil
		}
	}
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return p.eof()
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekN(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.eof()
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) eof() Token {
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1]
	}
	return Token{Kind: TokenEOF}
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kinds ...TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			return true
		}
	}
	return false
}

// accept consumes the next token when it has the given kind.
func (p *Parser) accept(kind TokenKind) (Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	return Token{}, false
}

func (p *Parser) expect(kind TokenKind) Token {
	if p.check(kind) {
		return p.advance()
	}
	p.unexpected(kind.String())
	return Token{}
}

// expectClose consumes the closing delimiter of a construct opened by
// open. Anything else is reported as an unclosed construct.
func (p *Parser) expectClose(kind TokenKind, construct string, open Token, alsoExpected ...TokenKind) Token {
	if p.check(kind) {
		return p.advance()
	}
	expected := []string{kind.String()}
	for _, k := range alsoExpected {
		expected = append(expected, k.String())
	}
	tok := p.peek()
	p.fail(&UnclosedConstructError{
		Construct: construct,
		Open:      open.Span.Start,
		UnexpectedTokenError: UnexpectedTokenError{
			Pos:      tok.Span.Start,
			Expected: expected,
			Found:    tok,
			Context:  p.contextSnapshot(),
		},
	})
	return Token{}
}

// expectTerminator accepts ";" or a closing tag, which ends a statement
// implicitly.
func (p *Parser) expectTerminator() {
	if _, ok := p.accept(TokenSemicolon); ok {
		return
	}
	if _, ok := p.accept(TokenCloseTag); ok {
		return
	}
	p.unexpected(TokenSemicolon.String())
}

func (p *Parser) fail(err error) {
	p.failedIn = p.contextSnapshot()
	panic(bailout{err: err})
}

// Context describes the innermost production active when parsing stopped.
func (p *Parser) Context() string {
	if len(p.failedIn) == 0 {
		return "top-level"
	}
	return p.failedIn[len(p.failedIn)-1]
}

func (p *Parser) unexpected(expected ...string) {
	tok := p.peek()
	p.fail(&UnexpectedTokenError{
		Pos:      tok.Span.Start,
		Expected: expected,
		Found:    tok,
		Context:  p.contextSnapshot(),
	})
}

func (p *Parser) syntaxError(pos Position, format string, args ...any) {
	p.fail(&SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// enter pushes a description of the production being parsed; the returned
// function pops it.
func (p *Parser) enter(format string, args ...any) func() {
	p.contexts = append(p.contexts, fmt.Sprintf(format, args...))
	depth := len(p.contexts)
	return func() {
		p.contexts = p.contexts[:depth-1]
	}
}

func (p *Parser) contextSnapshot() []string {
	if len(p.contexts) == 0 {
		return nil
	}
	return append([]string(nil), p.contexts...)
}

// attempt runs fn speculatively. If fn fails the token position is
// restored and attempt reports false. Each production is tried at most
// once per token position.
func (p *Parser) attempt(production ambiguity, fn func()) (ok bool) {
	key := attemptKey{production: production, pos: p.pos}
	if p.attempted[key] {
		return false
	}
	p.attempted[key] = true

	saved := p.pos
	savedContexts := len(p.contexts)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, isBailout := r.(bailout); !isBailout {
			panic(r)
		}
		p.pos = saved
		p.contexts = p.contexts[:savedContexts]
		p.failedIn = nil
		p.backtracks++
		if p.maxBacktracks > 0 && p.backtracks > p.maxBacktracks {
			tok := p.peek()
			p.fail(&UnexpectedTokenError{
				Pos:     tok.Span.Start,
				Found:   tok,
				Context: p.contextSnapshot(),
				Err:     ErrTooManyBacktracks,
			})
		}
		ok = false
	}()
	fn()
	return true
}

func (p *Parser) startNode(kind NodeKind) *Node {
	return &Node{
		Kind: kind,
		Span: Span{Start: p.peek().Span.Start},
	}
}

// startNodeAt starts a node at an earlier node, as for binary operators and
// postfix links whose first child is already parsed.
func startNodeAt(kind NodeKind, first *Node) *Node {
	n := &Node{Kind: kind, Span: Span{Start: first.Span.Start}}
	n.AddChild(first)
	return n
}

func (p *Parser) finishNode(n *Node) *Node {
	if p.pos > 0 && p.pos <= len(p.tokens) {
		n.Span.End = p.tokens[p.pos-1].Span.End
	} else if len(p.tokens) > 0 {
		n.Span.End = p.tokens[len(p.tokens)-1].Span.End
	}
	if n.Span.End.Offset < n.Span.Start.Offset {
		n.Span.End = n.Span.Start
	}
	return n
}

func tokenNode(kind NodeKind, tok Token) *Node {
	t := tok
	return &Node{Kind: kind, Span: tok.Span, Token: &t}
}

// docComment returns the doc comment directly preceding the next token.
func (p *Parser) docComment() *Token {
	if doc, ok := p.docs[p.pos]; ok {
		return &doc
	}
	return nil
}

func isIdentifierLike(kind TokenKind) bool {
	switch kind {
	case TokenIdent, TokenEnum, TokenReadonly:
		return true
	}
	return false
}

func isMemberName(kind TokenKind) bool {
	return kind == TokenIdent || kind.IsKeyword()
}

// parseName parses an unqualified, qualified, fully qualified or
// namespace-relative name into a single synthesized token.
func (p *Parser) parseName() Token {
	start := p.peek()
	var sb strings.Builder
	switch {
	case start.Kind == TokenBackslash:
		p.advance()
		sb.WriteString(`\`)
		if !isMemberName(p.peek().Kind) {
			p.unexpected("name")
		}
		sb.WriteString(p.advance().Literal)
	case start.Kind == TokenNamespace && p.peekN(1).Kind == TokenBackslash:
		p.advance()
		sb.WriteString("namespace")
	case isIdentifierLike(start.Kind):
		sb.WriteString(p.advance().Literal)
	default:
		p.unexpected("name")
	}
	for p.check(TokenBackslash) && isMemberName(p.peekN(1).Kind) {
		p.advance()
		sb.WriteString(`\`)
		sb.WriteString(p.advance().Literal)
	}
	end := p.tokens[p.pos-1].Span.End
	return Token{Kind: TokenIdent, Span: Span{Start: start.Span.Start, End: end}, Literal: sb.String()}
}

func (p *Parser) atNameStart() bool {
	tok := p.peek()
	switch {
	case tok.Kind == TokenBackslash:
		return isMemberName(p.peekN(1).Kind)
	case tok.Kind == TokenNamespace:
		return p.peekN(1).Kind == TokenBackslash
	}
	return isIdentifierLike(tok.Kind)
}

func (p *Parser) parseExpressionUnit() *Node {
	expr := p.parseExpression()
	p.expect(TokenEOF)
	return expr
}
