package parser

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Lexer converts PHP source into tokens. Whitespace and comments are
// returned as tokens so that concatenating every token literal reproduces
// the input exactly.
type Lexer struct {
	input  []byte
	file   string
	pos    int
	end    int
	line   int
	column int

	inCode  bool
	halting bool
	halted  bool
}

func NewLexer(input []byte, file string) *Lexer {
	return &Lexer{
		input:  input,
		file:   file,
		end:    len(input),
		line:   1,
		column: 1,
	}
}

// newFragmentLexer scans input[start.Offset:end] in code mode. Positions
// continue from start so tokens of embedded expressions point into the
// enclosing file.
func newFragmentLexer(input []byte, start Position, end int) *Lexer {
	return &Lexer{
		input:  input,
		file:   start.File,
		pos:    start.Offset,
		end:    end,
		line:   start.Line,
		column: start.Column,
		inCode: true,
	}
}

// Reset rewinds the lexer to the start of its input in inline HTML mode.
func (l *Lexer) Reset() {
	l.pos = 0
	l.end = len(l.input)
	l.line = 1
	l.column = 1
	l.inCode = false
	l.halting = false
	l.halted = false
}

func (l *Lexer) Position() Position {
	return Position{
		File:   l.file,
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= l.end
}

func (l *Lexer) peek() byte {
	if l.pos >= l.end {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= l.end {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= l.end {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) hasPrefixFold(s string) bool {
	if l.pos+len(s) > l.end {
		return false
	}
	return bytes.EqualFold(l.input[l.pos:l.pos+len(s)], []byte(s))
}

func (l *Lexer) errorf(pos Position, format string, args ...any) error {
	return &LexicalError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Tokenize scans the whole input, trivia included.
func Tokenize(input []byte, file string) ([]Token, error) {
	l := NewLexer(input, file)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) NextToken() (Token, error) {
	startPos := l.Position()

	if l.atEnd() {
		return Token{Kind: TokenEOF, Span: Span{Start: startPos, End: startPos}}, nil
	}
	if l.halted {
		for !l.atEnd() {
			l.advance()
		}
		return l.token(TokenInlineHTML, startPos), nil
	}
	if !l.inCode {
		return l.scanInlineHTML(startPos), nil
	}

	tok, err := l.scanCode(startPos)
	if err != nil {
		return tok, err
	}
	if l.halting && (tok.Kind == TokenSemicolon || tok.Kind == TokenCloseTag) {
		l.halted = true
	}
	if tok.Kind == TokenHaltCompiler {
		l.halting = true
	}
	return tok, nil
}

func (l *Lexer) scanCode(startPos Position) (Token, error) {
	ch := l.peek()

	switch {
	case isWhitespace(ch):
		return l.scanWhitespace(startPos), nil
	case ch == '#' && l.peekN(1) == '[':
		l.advanceN(2)
		return l.token(TokenAttributeStart, startPos), nil
	case ch == '#' || (ch == '/' && l.peekN(1) == '/'):
		return l.scanLineComment(startPos), nil
	case ch == '/' && l.peekN(1) == '*':
		return l.scanBlockComment(startPos)
	case ch == '?' && l.peekN(1) == '>':
		return l.scanCloseTag(startPos), nil
	case ch == '$':
		if isNameStart(l.peekN(1)) {
			l.advance()
			if err := l.scanName(); err != nil {
				return Token{}, err
			}
			return l.token(TokenVariable, startPos), nil
		}
		l.advance()
		return l.token(TokenDollar, startPos), nil
	case isNameStart(ch):
		return l.scanIdentOrKeyword(startPos)
	case isDigit(ch) || (ch == '.' && isDigit(l.peekN(1))):
		return l.scanNumber(startPos), nil
	case ch == '\'':
		return l.scanSingleQuoted(startPos)
	case ch == '"':
		return l.scanDoubleQuoted(startPos)
	case ch == '`':
		return l.scanShellCommand(startPos)
	case ch == '<' && l.peekN(1) == '<' && l.peekN(2) == '<':
		if tok, ok, err := l.scanHeredoc(startPos); ok || err != nil {
			return tok, err
		}
	}

	return l.scanOperator(startPos)
}

func (l *Lexer) scanInlineHTML(start Position) Token {
	if l.scanOpenTag() {
		l.inCode = true
		kind := TokenOpenTag
		if l.input[l.pos-1] == '=' {
			kind = TokenOpenTagEcho
		}
		return l.token(kind, start)
	}
	for !l.atEnd() {
		if l.peek() == '<' && l.peekN(1) == '?' && l.isOpenTag() {
			break
		}
		l.advance()
	}
	return l.token(TokenInlineHTML, start)
}

func (l *Lexer) isOpenTag() bool {
	if l.hasPrefixFold("<?=") {
		return true
	}
	if !l.hasPrefixFold("<?php") {
		return false
	}
	next := l.peekN(5)
	return l.pos+5 >= l.end || isWhitespace(next)
}

func (l *Lexer) scanOpenTag() bool {
	if !l.isOpenTag() {
		return false
	}
	if l.hasPrefixFold("<?=") {
		l.advanceN(3)
	} else {
		l.advanceN(5)
	}
	return true
}

func (l *Lexer) scanCloseTag(start Position) Token {
	l.advanceN(2)
	if l.peek() == '\n' {
		l.advance()
	} else if l.peek() == '\r' && l.peekN(1) == '\n' {
		l.advanceN(2)
	}
	l.inCode = false
	return l.token(TokenCloseTag, start)
}

func (l *Lexer) scanWhitespace(start Position) Token {
	for isWhitespace(l.peek()) && !l.atEnd() {
		l.advance()
	}
	return l.token(TokenWhitespace, start)
}

func (l *Lexer) scanLineComment(start Position) Token {
	for !l.atEnd() {
		ch := l.peek()
		if ch == '\n' {
			l.advance()
			break
		}
		if ch == '?' && l.peekN(1) == '>' {
			break
		}
		l.advance()
	}
	return l.token(TokenLineComment, start)
}

func (l *Lexer) scanBlockComment(start Position) (Token, error) {
	kind := TokenComment
	if l.peekN(2) == '*' && isWhitespace(l.peekN(3)) {
		kind = TokenDocComment
	}
	l.advanceN(2)
	for {
		if l.atEnd() {
			return Token{}, l.errorf(start, "unterminated comment")
		}
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			return l.token(kind, start), nil
		}
		l.advance()
	}
}

func (l *Lexer) scanName() error {
	for !l.atEnd() {
		ch := l.peek()
		if ch < utf8.RuneSelf {
			if !isNameChar(ch) {
				return nil
			}
			l.advance()
			continue
		}
		r, size := utf8.DecodeRune(l.input[l.pos:l.end])
		if r == utf8.RuneError && size <= 1 {
			return l.errorf(l.Position(), "invalid UTF-8 in identifier")
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r) {
			return l.errorf(l.Position(), "unexpected character %q", r)
		}
		l.advanceN(size)
	}
	return nil
}

func (l *Lexer) scanIdentOrKeyword(start Position) (Token, error) {
	if err := l.scanName(); err != nil {
		return Token{}, err
	}
	tok := l.token(TokenIdent, start)
	tok.Kind = LookupKeyword(tok.Literal)
	return tok, nil
}

func (l *Lexer) scanNumber(start Position) Token {
	ch := l.peek()
	next := l.peekN(1) | 0x20
	if ch == '0' && next == 'x' && isHexDigit(l.peekN(2)) {
		l.advanceN(2)
		l.scanDigits(isHexDigit)
		return l.token(TokenIntLiteral, start)
	}
	if ch == '0' && next == 'b' && isBinaryDigit(l.peekN(2)) {
		l.advanceN(2)
		l.scanDigits(isBinaryDigit)
		return l.token(TokenIntLiteral, start)
	}
	if ch == '0' && next == 'o' && isOctalDigit(l.peekN(2)) {
		l.advanceN(2)
		l.scanDigits(isOctalDigit)
		return l.token(TokenIntLiteral, start)
	}

	kind := TokenIntLiteral
	l.scanDigits(isDigit)
	if l.peek() == '.' {
		kind = TokenFloatLiteral
		l.advance()
		l.scanDigits(isDigit)
	}
	if e := l.peek(); e == 'e' || e == 'E' {
		sign := l.peekN(1)
		if isDigit(sign) {
			kind = TokenFloatLiteral
			l.advance()
			l.scanDigits(isDigit)
		} else if (sign == '+' || sign == '-') && isDigit(l.peekN(2)) {
			kind = TokenFloatLiteral
			l.advanceN(2)
			l.scanDigits(isDigit)
		}
	}
	return l.token(kind, start)
}

// scanDigits consumes digits with single underscores between them.
func (l *Lexer) scanDigits(accept func(byte) bool) {
	for !l.atEnd() {
		ch := l.peek()
		if accept(ch) {
			l.advance()
			continue
		}
		if ch == '_' && accept(l.peekN(1)) && l.pos > 0 && accept(l.input[l.pos-1]) {
			l.advance()
			continue
		}
		return
	}
}

func (l *Lexer) scanSingleQuoted(start Position) (Token, error) {
	l.advance()
	for {
		if l.atEnd() {
			return Token{}, l.errorf(start, "unterminated string")
		}
		switch l.peek() {
		case '\\':
			l.advanceN(2)
		case '\'':
			l.advance()
			return l.token(TokenStringLiteral, start), nil
		default:
			l.advance()
		}
	}
}

func (l *Lexer) scanDoubleQuoted(start Position) (Token, error) {
	interpolated, err := l.scanInterpolatedUntil(start, '"')
	if err != nil {
		return Token{}, err
	}
	if interpolated {
		return l.token(TokenStringTemplate, start), nil
	}
	return l.token(TokenStringLiteral, start), nil
}

func (l *Lexer) scanShellCommand(start Position) (Token, error) {
	if _, err := l.scanInterpolatedUntil(start, '`'); err != nil {
		return Token{}, err
	}
	return l.token(TokenShellCommand, start), nil
}

func (l *Lexer) scanInterpolatedUntil(start Position, quote byte) (bool, error) {
	l.advance()
	interpolated := false
	for {
		if l.atEnd() {
			return false, l.errorf(start, "unterminated string")
		}
		ch := l.peek()
		switch {
		case ch == '\\':
			l.advanceN(2)
		case ch == quote:
			l.advance()
			return interpolated, nil
		case ch == '$' && isNameStart(l.peekN(1)):
			interpolated = true
			l.advance()
		case ch == '$' && l.peekN(1) == '{':
			interpolated = true
			l.advance()
			if err := l.skipEmbeddedExpression(); err != nil {
				return false, err
			}
		case ch == '{' && l.peekN(1) == '$':
			interpolated = true
			if err := l.skipEmbeddedExpression(); err != nil {
				return false, err
			}
		default:
			l.advance()
		}
	}
}

// skipEmbeddedExpression consumes a brace-delimited expression inside a
// string, including the closing brace.
func (l *Lexer) skipEmbeddedExpression() error {
	open := l.Position()
	depth := 0
	for !l.atEnd() {
		switch ch := l.peek(); ch {
		case '{':
			depth++
			l.advance()
		case '}':
			depth--
			l.advance()
			if depth == 0 {
				return nil
			}
		case '"', '\'':
			l.advance()
			for !l.atEnd() && l.peek() != ch {
				if l.peek() == '\\' {
					l.advance()
				}
				l.advance()
			}
			l.advance()
		default:
			l.advance()
		}
	}
	return l.errorf(open, "unterminated embedded expression")
}

// heredocLabel inspects a "<<<" header without consuming it.
func (l *Lexer) heredocLabel() (label string, headerLen int, nowdoc bool, ok bool) {
	i := l.pos + 3
	for i < l.end && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	quote := byte(0)
	if i < l.end && (l.input[i] == '\'' || l.input[i] == '"') {
		quote = l.input[i]
		i++
	}
	labelStart := i
	if i >= l.end || !isNameStart(l.input[i]) {
		return "", 0, false, false
	}
	for i < l.end && isNameChar(l.input[i]) {
		i++
	}
	label = string(l.input[labelStart:i])
	if quote != 0 {
		if i >= l.end || l.input[i] != quote {
			return "", 0, false, false
		}
		i++
	}
	switch {
	case i < l.end && l.input[i] == '\n':
		i++
	case i+1 < l.end && l.input[i] == '\r' && l.input[i+1] == '\n':
		i += 2
	default:
		return "", 0, false, false
	}
	return label, i - l.pos, quote == '\'', true
}

func (l *Lexer) scanHeredoc(start Position) (Token, bool, error) {
	label, headerLen, nowdoc, ok := l.heredocLabel()
	if !ok {
		return Token{}, false, nil
	}
	l.advanceN(headerLen)
	for {
		if l.atEnd() {
			return Token{}, true, l.errorf(start, "unterminated heredoc %s", label)
		}
		// at the start of a line
		i := l.pos
		for i < l.end && (l.input[i] == ' ' || l.input[i] == '\t') {
			i++
		}
		if bytes.HasPrefix(l.input[i:l.end], []byte(label)) {
			after := i + len(label)
			if after >= l.end || !isNameChar(l.input[after]) {
				l.advanceN(after - l.pos)
				kind := TokenHeredoc
				if nowdoc {
					kind = TokenNowdoc
				}
				return l.token(kind, start), true, nil
			}
		}
		for !l.atEnd() && l.peek() != '\n' {
			l.advance()
		}
		l.advance()
	}
}

func (l *Lexer) op(kind TokenKind, n int, start Position) (Token, error) {
	l.advanceN(n)
	return l.token(kind, start), nil
}

func (l *Lexer) scanOperator(start Position) (Token, error) {
	ch := l.peek()
	c1 := l.peekN(1)
	c2 := l.peekN(2)

	switch ch {
	case '(':
		return l.op(TokenLParen, 1, start)
	case ')':
		return l.op(TokenRParen, 1, start)
	case '{':
		return l.op(TokenLBrace, 1, start)
	case '}':
		return l.op(TokenRBrace, 1, start)
	case '[':
		return l.op(TokenLBracket, 1, start)
	case ']':
		return l.op(TokenRBracket, 1, start)
	case ';':
		return l.op(TokenSemicolon, 1, start)
	case ',':
		return l.op(TokenComma, 1, start)
	case '@':
		return l.op(TokenAt, 1, start)
	case '~':
		return l.op(TokenBitNot, 1, start)
	case '\\':
		return l.op(TokenBackslash, 1, start)
	case '.':
		if c1 == '.' && c2 == '.' {
			return l.op(TokenEllipsis, 3, start)
		}
		if c1 == '=' {
			return l.op(TokenConcatAssign, 2, start)
		}
		return l.op(TokenDot, 1, start)
	case '?':
		if c1 == '-' && c2 == '>' {
			return l.op(TokenNullsafeArrow, 3, start)
		}
		if c1 == '?' {
			if c2 == '=' {
				return l.op(TokenCoalesceAssign, 3, start)
			}
			return l.op(TokenCoalesce, 2, start)
		}
		return l.op(TokenQuestion, 1, start)
	case ':':
		if c1 == ':' {
			return l.op(TokenDoubleColon, 2, start)
		}
		return l.op(TokenColon, 1, start)
	case '=':
		if c1 == '=' {
			if c2 == '=' {
				return l.op(TokenIdentical, 3, start)
			}
			return l.op(TokenEQ, 2, start)
		}
		if c1 == '>' {
			return l.op(TokenDoubleArrow, 2, start)
		}
		return l.op(TokenAssign, 1, start)
	case '!':
		if c1 == '=' {
			if c2 == '=' {
				return l.op(TokenNotIdentical, 3, start)
			}
			return l.op(TokenNE, 2, start)
		}
		return l.op(TokenNot, 1, start)
	case '<':
		if c1 == '=' {
			if c2 == '>' {
				return l.op(TokenSpaceship, 3, start)
			}
			return l.op(TokenLE, 2, start)
		}
		if c1 == '<' {
			if c2 == '=' {
				return l.op(TokenShlAssign, 3, start)
			}
			return l.op(TokenShl, 2, start)
		}
		if c1 == '>' {
			return l.op(TokenNE, 2, start)
		}
		return l.op(TokenLT, 1, start)
	case '>':
		if c1 == '=' {
			return l.op(TokenGE, 2, start)
		}
		if c1 == '>' {
			if c2 == '=' {
				return l.op(TokenShrAssign, 3, start)
			}
			return l.op(TokenShr, 2, start)
		}
		return l.op(TokenGT, 1, start)
	case '-':
		if c1 == '>' {
			return l.op(TokenArrow, 2, start)
		}
		if c1 == '-' {
			return l.op(TokenDecrement, 2, start)
		}
		if c1 == '=' {
			return l.op(TokenMinusAssign, 2, start)
		}
		return l.op(TokenMinus, 1, start)
	case '+':
		if c1 == '+' {
			return l.op(TokenIncrement, 2, start)
		}
		if c1 == '=' {
			return l.op(TokenPlusAssign, 2, start)
		}
		return l.op(TokenPlus, 1, start)
	case '*':
		if c1 == '*' {
			if c2 == '=' {
				return l.op(TokenPowAssign, 3, start)
			}
			return l.op(TokenPow, 2, start)
		}
		if c1 == '=' {
			return l.op(TokenStarAssign, 2, start)
		}
		return l.op(TokenStar, 1, start)
	case '/':
		if c1 == '=' {
			return l.op(TokenSlashAssign, 2, start)
		}
		return l.op(TokenSlash, 1, start)
	case '%':
		if c1 == '=' {
			return l.op(TokenPercentAssign, 2, start)
		}
		return l.op(TokenPercent, 1, start)
	case '&':
		if c1 == '&' {
			return l.op(TokenAnd, 2, start)
		}
		if c1 == '=' {
			return l.op(TokenAndAssign, 2, start)
		}
		return l.op(TokenBitAnd, 1, start)
	case '|':
		if c1 == '|' {
			return l.op(TokenOr, 2, start)
		}
		if c1 == '=' {
			return l.op(TokenOrAssign, 2, start)
		}
		return l.op(TokenBitOr, 1, start)
	case '^':
		if c1 == '=' {
			return l.op(TokenXorAssign, 2, start)
		}
		return l.op(TokenBitXor, 1, start)
	}

	if ch >= utf8.RuneSelf {
		r, _ := utf8.DecodeRune(l.input[l.pos:l.end])
		if r == utf8.RuneError {
			return Token{}, l.errorf(start, "invalid UTF-8")
		}
		return Token{}, l.errorf(start, "unexpected character %q", r)
	}
	return Token{}, l.errorf(start, "unexpected character %q", rune(ch))
}

func (l *Lexer) token(kind TokenKind, start Position) Token {
	end := l.Position()
	return Token{
		Kind:    kind,
		Span:    Span{Start: start, End: end},
		Literal: string(l.input[start.Offset:end.Offset]),
	}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isOctalDigit(ch byte) bool {
	return ch >= '0' && ch <= '7'
}

func isBinaryDigit(ch byte) bool {
	return ch == '0' || ch == '1'
}

func isNameStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= utf8.RuneSelf
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}
