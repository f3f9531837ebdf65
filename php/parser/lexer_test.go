package parser

import (
	"errors"
	"strings"
	"testing"
)

func significantKinds(t *testing.T, input string) []TokenKind {
	t.Helper()
	tokens, err := Tokenize([]byte(input), "test.php")
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", input, err)
	}
	var kinds []TokenKind
	for _, tok := range tokens {
		if tok.Kind.IsTrivia() {
			continue
		}
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func TestLexer(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"", []TokenKind{TokenEOF}},
		{"<html>", []TokenKind{TokenInlineHTML, TokenEOF}},
		{"<?php class", []TokenKind{TokenClass, TokenEOF}},
		{"<?php CLASS Foo", []TokenKind{TokenClass, TokenIdent, TokenEOF}},
		{"<?php $foo $ $$a", []TokenKind{TokenVariable, TokenDollar, TokenDollar, TokenVariable, TokenEOF}},
		{"<?php 0x1F 0b101 0o17 017 1_000", []TokenKind{TokenIntLiteral, TokenIntLiteral, TokenIntLiteral, TokenIntLiteral, TokenIntLiteral, TokenEOF}},
		{"<?php 1.5 .5 1e10 1.5E-3 1.", []TokenKind{TokenFloatLiteral, TokenFloatLiteral, TokenFloatLiteral, TokenFloatLiteral, TokenFloatLiteral, TokenEOF}},
		{"<?php 'a' \"b\" \"$x\" \"{$x}\" `ls`", []TokenKind{TokenStringLiteral, TokenStringLiteral, TokenStringTemplate, TokenStringTemplate, TokenShellCommand, TokenEOF}},
		{"<?php ?-> ?? ??= <=> ** **= ...", []TokenKind{TokenNullsafeArrow, TokenCoalesce, TokenCoalesceAssign, TokenSpaceship, TokenPow, TokenPowAssign, TokenEllipsis, TokenEOF}},
		{"<?php === !== <> << >>= .=", []TokenKind{TokenIdentical, TokenNotIdentical, TokenNE, TokenShl, TokenShrAssign, TokenConcatAssign, TokenEOF}},
		{"<?php #[Attr]", []TokenKind{TokenAttributeStart, TokenIdent, TokenRBracket, TokenEOF}},
		{"<?php __CLASS__ __dir__", []TokenKind{TokenMagicConst, TokenMagicConst, TokenEOF}},
		{"<?php # comment\nfoo", []TokenKind{TokenIdent, TokenEOF}},
		{"<?php // comment ?>html", []TokenKind{TokenCloseTag, TokenInlineHTML, TokenEOF}},
		{"<?php <<<EOT\nhello $name\nEOT;\n", []TokenKind{TokenHeredoc, TokenSemicolon, TokenEOF}},
		{"<?php <<<\"EOT\"\nhello\nEOT;\n", []TokenKind{TokenHeredoc, TokenSemicolon, TokenEOF}},
		{"<?php <<<'EOT'\nraw $x\n  EOT;\n", []TokenKind{TokenNowdoc, TokenSemicolon, TokenEOF}},
		{"<?php $a << 2", []TokenKind{TokenVariable, TokenShl, TokenIntLiteral, TokenEOF}},
		{"<?= $x ?>", []TokenKind{TokenOpenTagEcho, TokenVariable, TokenCloseTag, TokenEOF}},
		{"<?php __halt_compiler(); <?php garbage", []TokenKind{TokenHaltCompiler, TokenLParen, TokenRParen, TokenSemicolon, TokenInlineHTML, TokenEOF}},
		{"<?phpx", []TokenKind{TokenInlineHTML, TokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := significantKinds(t, tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("got %v, want %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d: got %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLexerRoundTrip(t *testing.T) {
	inputs := []string{
		"<!doctype html>\n<p><?= $title ?></p>\n",
		"<?php\n/** Doc */\nnamespace App;\n\nclass Foo extends Bar {\n\t# hash\n\tpublic function x() { return \"a{$b->c}d\" . 'e' . `ls`; }\n}\n",
		"<?php\n$text = <<<EOT\n  Hello ${name}\n  EOT;\n$raw = <<<'RAW'\nno $interp\nRAW;\n?>\ntrailer",
		"<?php\r\n$a = 0x1F + 1_000 * .5e-3; // end\r\n",
	}
	for _, input := range inputs {
		tokens, err := Tokenize([]byte(input), "test.php")
		if err != nil {
			t.Fatalf("Tokenize(%q): %v", input, err)
		}
		var sb strings.Builder
		for _, tok := range tokens {
			sb.WriteString(tok.Literal)
		}
		if sb.String() != input {
			t.Errorf("round trip mismatch:\n got %q\nwant %q", sb.String(), input)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := Tokenize([]byte("<?php\n  $a"), "f.php")
	if err != nil {
		t.Fatal(err)
	}
	var variable Token
	for _, tok := range tokens {
		if tok.Kind == TokenVariable {
			variable = tok
		}
	}
	want := Position{File: "f.php", Offset: 8, Line: 2, Column: 3}
	if variable.Span.Start != want {
		t.Errorf("got %+v, want %+v", variable.Span.Start, want)
	}
	if variable.Span.End.Offset != 10 {
		t.Errorf("end offset = %d, want 10", variable.Span.End.Offset)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated single quote", "<?php 'abc"},
		{"unterminated double quote", "<?php \"abc"},
		{"unterminated comment", "<?php /* abc"},
		{"unterminated heredoc", "<?php <<<EOT\nabc\n"},
		{"unterminated interpolation", "<?php \"{$a\""},
		{"control character", "<?php \x01"},
		{"invalid utf-8", "<?php $\xff\xfe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize([]byte(tt.input), "test.php")
			var lexErr *LexicalError
			if !errors.As(err, &lexErr) {
				t.Fatalf("got %v, want *LexicalError", err)
			}
		})
	}
}

func TestLexerReset(t *testing.T) {
	l := NewLexer([]byte("<?php $a"), "test.php")
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Kind == TokenEOF {
			break
		}
	}
	l.Reset()
	tok, err := l.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != TokenOpenTag {
		t.Errorf("after Reset got %v, want %v", tok.Kind, TokenOpenTag)
	}
}
