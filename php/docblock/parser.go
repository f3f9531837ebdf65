package docblock

import (
	"strings"
	"unicode"
)

// Parser is a recursive-descent parser for doc comments.
type Parser struct {
	input []rune
	pos   int
	len   int
}

// Parse parses a doc comment, including its /** and */ delimiters.
func Parse(comment string) *DocBlock {
	p := &Parser{
		input: []rune(comment),
	}
	p.len = len(p.input)
	return p.parseDocBlock()
}

func (p *Parser) parseDocBlock() *DocBlock {
	p.skipCommentStart()

	doc := &DocBlock{}
	doc.Summary, doc.Description = splitSummary(p.parseText())
	doc.Tags = p.parseBlockTags()

	return doc
}

// skipCommentStart skips the leading /** and any whitespace/asterisks.
func (p *Parser) skipCommentStart() {
	p.skipWhitespace()
	if p.match("/**") {
		p.advance(3)
	}
	p.skipLinePrefix()
}

// skipLinePrefix skips leading whitespace and a single asterisk at the start of a line.
func (p *Parser) skipLinePrefix() {
	p.skipHorizontalWhitespace()
	if p.peek() == '*' && p.peekAt(1) != '/' {
		p.advance(1)
		if p.peek() == ' ' {
			p.advance(1)
		}
	}
}

// parseText reads free text up to the first line starting with a tag, or
// the end of the comment.
func (p *Parser) parseText() string {
	var sb strings.Builder
	for p.pos < p.len {
		if p.match("*/") {
			break
		}
		ch := p.peek()
		if ch == '\n' {
			sb.WriteRune('\n')
			p.advance(1)
			p.skipLinePrefix()
			if p.peek() == '@' {
				break
			}
			continue
		}
		if ch == '@' && strings.TrimSpace(lastLine(sb.String())) == "" {
			break
		}
		sb.WriteRune(ch)
		p.advance(1)
	}
	return sb.String()
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// splitSummary separates the first paragraph or sentence from the rest.
func splitSummary(text string) (string, string) {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "\n\n"); i >= 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+2:])
	}
	if i := strings.Index(text, ".\n"); i >= 0 {
		return strings.TrimSpace(text[:i+1]), strings.TrimSpace(text[i+2:])
	}
	return text, ""
}

// parseBlockTags parses block tags until end of comment.
func (p *Parser) parseBlockTags() []Node {
	var tags []Node

	for p.pos < p.len {
		p.skipWhitespace()
		p.skipLinePrefix()

		if p.match("*/") {
			break
		}

		if p.peek() != '@' {
			p.advance(1)
			continue
		}

		p.advance(1)
		tagName := p.readTagName()
		if tagName == "" {
			continue
		}

		p.skipHorizontalWhitespace()

		var tag Node
		switch strings.TrimPrefix(strings.TrimPrefix(tagName, "phpstan-"), "psalm-") {
		case "param":
			tag = p.parseParamTag()
		case "return":
			tag = p.parseReturnTag()
		case "var":
			tag = p.parseVarTag()
		case "throws":
			tag = p.parseThrowsTag()
		default:
			tag = UnknownTag{Name: tagName, Content: p.parseBlockContent()}
		}
		tags = append(tags, tag)
	}

	return tags
}

// parseParamTag parses "@param [Type] [...]$name [description]".
func (p *Parser) parseParamTag() Node {
	var tag Param
	if p.peek() != '$' && !p.match("...$") && !p.match("&$") {
		tag.Type = p.readType()
		p.skipHorizontalWhitespace()
	}
	if p.match("&") {
		p.advance(1)
	}
	if p.match("...") {
		tag.Variadic = true
		p.advance(3)
	}
	if p.peek() == '$' {
		tag.Name = p.readVariable()
	}
	p.skipHorizontalWhitespace()
	tag.Description = p.parseBlockContent()
	return tag
}

func (p *Parser) parseReturnTag() Node {
	typ := p.readType()
	p.skipHorizontalWhitespace()
	return Return{Type: typ, Description: p.parseBlockContent()}
}

func (p *Parser) parseVarTag() Node {
	var tag Var
	tag.Type = p.readType()
	p.skipHorizontalWhitespace()
	if p.peek() == '$' {
		tag.Name = p.readVariable()
		p.skipHorizontalWhitespace()
	}
	tag.Description = p.parseBlockContent()
	return tag
}

func (p *Parser) parseThrowsTag() Node {
	typ := p.readType()
	p.skipHorizontalWhitespace()
	return Throws{Type: typ, Description: p.parseBlockContent()}
}

// parseBlockContent reads the rest of a tag, including continuation lines
// that do not start a new tag.
func (p *Parser) parseBlockContent() string {
	var lines []string
	var sb strings.Builder
	for p.pos < p.len {
		if p.match("*/") {
			break
		}
		ch := p.peek()
		if ch == '\n' {
			lines = append(lines, strings.TrimSpace(sb.String()))
			sb.Reset()
			p.advance(1)
			p.skipLinePrefix()
			if p.peek() == '@' || p.match("*/") {
				break
			}
			continue
		}
		sb.WriteRune(ch)
		p.advance(1)
	}
	if rest := strings.TrimSpace(sb.String()); rest != "" {
		lines = append(lines, rest)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// readType reads a type expression. Whitespace ends it only outside of
// brackets, so generic and shape types may contain spaces.
func (p *Parser) readType() string {
	start := p.pos
	depth := 0
	for p.pos < p.len {
		ch := p.peek()
		if depth == 0 && (isWhitespace(ch) || p.match("*/")) {
			break
		}
		switch ch {
		case '<', '(', '{', '[':
			depth++
		case '>', ')', '}', ']':
			if depth > 0 {
				depth--
			}
		case '\n':
			return strings.TrimSpace(string(p.input[start:p.pos]))
		}
		p.advance(1)
	}
	return string(p.input[start:p.pos])
}

func (p *Parser) readVariable() string {
	start := p.pos
	p.advance(1)
	for p.pos < p.len && isIdentifierPart(p.peek()) {
		p.advance(1)
	}
	return string(p.input[start:p.pos])
}

func (p *Parser) peek() rune {
	if p.pos >= p.len {
		return 0
	}
	return p.input[p.pos]
}

func (p *Parser) peekAt(offset int) rune {
	pos := p.pos + offset
	if pos >= p.len || pos < 0 {
		return 0
	}
	return p.input[pos]
}

func (p *Parser) advance(n int) {
	p.pos += n
	if p.pos > p.len {
		p.pos = p.len
	}
}

func (p *Parser) match(s string) bool {
	i := p.pos
	for _, ch := range s {
		if i >= p.len || p.input[i] != ch {
			return false
		}
		i++
	}
	return true
}

func (p *Parser) skipWhitespace() {
	for p.pos < p.len && isWhitespace(p.peek()) {
		p.advance(1)
	}
}

func (p *Parser) skipHorizontalWhitespace() {
	for p.pos < p.len && (p.peek() == ' ' || p.peek() == '\t') {
		p.advance(1)
	}
}

func (p *Parser) readTagName() string {
	start := p.pos
	for p.pos < p.len && (isIdentifierPart(p.peek()) || p.peek() == '-' || p.peek() == '\\') {
		p.advance(1)
	}
	return string(p.input[start:p.pos])
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isIdentifierStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || ch >= 0x80
}

func isIdentifierPart(ch rune) bool {
	return isIdentifierStart(ch) || unicode.IsDigit(ch)
}
