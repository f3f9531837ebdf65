package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a location in a source file. Line and Column are 1-based;
// Column counts bytes.
type Position struct {
	File   string
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a half-open range of source text.
type Span struct {
	Start Position
	End   Position
}

type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenInlineHTML
	TokenOpenTag
	TokenOpenTagEcho
	TokenCloseTag
	TokenWhitespace
	TokenComment
	TokenLineComment
	TokenDocComment

	// Literals and names
	TokenIdent
	TokenVariable
	TokenIntLiteral
	TokenFloatLiteral
	TokenStringLiteral
	TokenStringTemplate
	TokenHeredoc
	TokenNowdoc
	TokenShellCommand
	TokenMagicConst
	TokenTrue
	TokenFalse
	TokenNull

	// Keywords
	TokenAbstract
	TokenLogicalAnd
	TokenArray
	TokenAs
	TokenBreak
	TokenCallable
	TokenCase
	TokenCatch
	TokenClass
	TokenClone
	TokenConst
	TokenContinue
	TokenDeclare
	TokenDefault
	TokenDo
	TokenEcho
	TokenElse
	TokenElseIf
	TokenEmpty
	TokenEndDeclare
	TokenEndFor
	TokenEndForeach
	TokenEndIf
	TokenEndSwitch
	TokenEndWhile
	TokenEnum
	TokenExit
	TokenExtends
	TokenFinal
	TokenFinally
	TokenFn
	TokenFor
	TokenForeach
	TokenFunction
	TokenGlobal
	TokenGoto
	TokenHaltCompiler
	TokenIf
	TokenImplements
	TokenInclude
	TokenIncludeOnce
	TokenInstanceof
	TokenInsteadof
	TokenInterface
	TokenIsset
	TokenList
	TokenMatch
	TokenNamespace
	TokenNew
	TokenLogicalOr
	TokenParent
	TokenPrint
	TokenPrivate
	TokenProtected
	TokenPublic
	TokenReadonly
	TokenRequire
	TokenRequireOnce
	TokenReturn
	TokenSelf
	TokenStatic
	TokenSwitch
	TokenThrow
	TokenTrait
	TokenTry
	TokenUnset
	TokenUse
	TokenVar
	TokenWhile
	TokenLogicalXor
	TokenYield

	// Punctuation
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenSemicolon
	TokenComma
	TokenDot
	TokenEllipsis
	TokenBackslash
	TokenArrow
	TokenNullsafeArrow
	TokenDoubleArrow
	TokenDoubleColon
	TokenQuestion
	TokenColon
	TokenAt
	TokenDollar
	TokenAttributeStart

	// Operators
	TokenAssign
	TokenEQ
	TokenIdentical
	TokenNE
	TokenNotIdentical
	TokenLT
	TokenLE
	TokenGT
	TokenGE
	TokenSpaceship
	TokenAnd
	TokenOr
	TokenNot
	TokenBitAnd
	TokenBitOr
	TokenBitXor
	TokenBitNot
	TokenShl
	TokenShr
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenPow
	TokenIncrement
	TokenDecrement
	TokenCoalesce
	TokenPlusAssign
	TokenMinusAssign
	TokenStarAssign
	TokenSlashAssign
	TokenConcatAssign
	TokenPercentAssign
	TokenPowAssign
	TokenAndAssign
	TokenOrAssign
	TokenXorAssign
	TokenShlAssign
	TokenShrAssign
	TokenCoalesceAssign
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:            "EOF",
	TokenInlineHTML:     "InlineHTML",
	TokenOpenTag:        "<?php",
	TokenOpenTagEcho:    "<?=",
	TokenCloseTag:       "?>",
	TokenWhitespace:     "Whitespace",
	TokenComment:        "Comment",
	TokenLineComment:    "LineComment",
	TokenDocComment:     "DocComment",
	TokenIdent:          "Identifier",
	TokenVariable:       "Variable",
	TokenIntLiteral:     "IntLiteral",
	TokenFloatLiteral:   "FloatLiteral",
	TokenStringLiteral:  "StringLiteral",
	TokenStringTemplate: "StringTemplate",
	TokenHeredoc:        "Heredoc",
	TokenNowdoc:         "Nowdoc",
	TokenShellCommand:   "ShellCommand",
	TokenMagicConst:     "MagicConstant",
	TokenTrue:           "true",
	TokenFalse:          "false",
	TokenNull:           "null",
	TokenAbstract:       "abstract",
	TokenLogicalAnd:     "and",
	TokenArray:          "array",
	TokenAs:             "as",
	TokenBreak:          "break",
	TokenCallable:       "callable",
	TokenCase:           "case",
	TokenCatch:          "catch",
	TokenClass:          "class",
	TokenClone:          "clone",
	TokenConst:          "const",
	TokenContinue:       "continue",
	TokenDeclare:        "declare",
	TokenDefault:        "default",
	TokenDo:             "do",
	TokenEcho:           "echo",
	TokenElse:           "else",
	TokenElseIf:         "elseif",
	TokenEmpty:          "empty",
	TokenEndDeclare:     "enddeclare",
	TokenEndFor:         "endfor",
	TokenEndForeach:     "endforeach",
	TokenEndIf:          "endif",
	TokenEndSwitch:      "endswitch",
	TokenEndWhile:       "endwhile",
	TokenEnum:           "enum",
	TokenExit:           "exit",
	TokenExtends:        "extends",
	TokenFinal:          "final",
	TokenFinally:        "finally",
	TokenFn:             "fn",
	TokenFor:            "for",
	TokenForeach:        "foreach",
	TokenFunction:       "function",
	TokenGlobal:         "global",
	TokenGoto:           "goto",
	TokenHaltCompiler:   "__halt_compiler",
	TokenIf:             "if",
	TokenImplements:     "implements",
	TokenInclude:        "include",
	TokenIncludeOnce:    "include_once",
	TokenInstanceof:     "instanceof",
	TokenInsteadof:      "insteadof",
	TokenInterface:      "interface",
	TokenIsset:          "isset",
	TokenList:           "list",
	TokenMatch:          "match",
	TokenNamespace:      "namespace",
	TokenNew:            "new",
	TokenLogicalOr:      "or",
	TokenParent:         "parent",
	TokenPrint:          "print",
	TokenPrivate:        "private",
	TokenProtected:      "protected",
	TokenPublic:         "public",
	TokenReadonly:       "readonly",
	TokenRequire:        "require",
	TokenRequireOnce:    "require_once",
	TokenReturn:         "return",
	TokenSelf:           "self",
	TokenStatic:         "static",
	TokenSwitch:         "switch",
	TokenThrow:          "throw",
	TokenTrait:          "trait",
	TokenTry:            "try",
	TokenUnset:          "unset",
	TokenUse:            "use",
	TokenVar:            "var",
	TokenWhile:          "while",
	TokenLogicalXor:     "xor",
	TokenYield:          "yield",
	TokenLParen:         "(",
	TokenRParen:         ")",
	TokenLBrace:         "{",
	TokenRBrace:         "}",
	TokenLBracket:       "[",
	TokenRBracket:       "]",
	TokenSemicolon:      ";",
	TokenComma:          ",",
	TokenDot:            ".",
	TokenEllipsis:       "...",
	TokenBackslash:      "\\",
	TokenArrow:          "->",
	TokenNullsafeArrow:  "?->",
	TokenDoubleArrow:    "=>",
	TokenDoubleColon:    "::",
	TokenQuestion:       "?",
	TokenColon:          ":",
	TokenAt:             "@",
	TokenDollar:         "$",
	TokenAttributeStart: "#[",
	TokenAssign:         "=",
	TokenEQ:             "==",
	TokenIdentical:      "===",
	TokenNE:             "!=",
	TokenNotIdentical:   "!==",
	TokenLT:             "<",
	TokenLE:             "<=",
	TokenGT:             ">",
	TokenGE:             ">=",
	TokenSpaceship:      "<=>",
	TokenAnd:            "&&",
	TokenOr:             "||",
	TokenNot:            "!",
	TokenBitAnd:         "&",
	TokenBitOr:          "|",
	TokenBitXor:         "^",
	TokenBitNot:         "~",
	TokenShl:            "<<",
	TokenShr:            ">>",
	TokenPlus:           "+",
	TokenMinus:          "-",
	TokenStar:           "*",
	TokenSlash:          "/",
	TokenPercent:        "%",
	TokenPow:            "**",
	TokenIncrement:      "++",
	TokenDecrement:      "--",
	TokenCoalesce:       "??",
	TokenPlusAssign:     "+=",
	TokenMinusAssign:    "-=",
	TokenStarAssign:     "*=",
	TokenSlashAssign:    "/=",
	TokenConcatAssign:   ".=",
	TokenPercentAssign:  "%=",
	TokenPowAssign:      "**=",
	TokenAndAssign:      "&=",
	TokenOrAssign:       "|=",
	TokenXorAssign:      "^=",
	TokenShlAssign:      "<<=",
	TokenShrAssign:      ">>=",
	TokenCoalesceAssign: "??=",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsKeyword reports whether k is a reserved or semi-reserved word. Keywords
// may be used as method, constant and member names.
func (k TokenKind) IsKeyword() bool {
	return (k >= TokenAbstract && k <= TokenYield) || k == TokenTrue || k == TokenFalse || k == TokenNull
}

// IsTrivia reports whether the parser skips tokens of kind k.
func (k TokenKind) IsTrivia() bool {
	switch k {
	case TokenWhitespace, TokenComment, TokenLineComment, TokenDocComment, TokenOpenTag:
		return true
	}
	return false
}

type Token struct {
	Kind    TokenKind
	Span    Span
	Literal string
}

func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return "end of file"
	case TokenIdent, TokenVariable, TokenIntLiteral, TokenFloatLiteral, TokenMagicConst:
		return fmt.Sprintf("%s %q", t.Kind, t.Literal)
	}
	if t.Kind.IsKeyword() {
		return fmt.Sprintf("keyword %q", t.Literal)
	}
	return fmt.Sprintf("%q", t.Literal)
}

// Value returns the literal value of number and plain string tokens.
func (t Token) Value() (any, error) {
	switch t.Kind {
	case TokenIntLiteral:
		text := strings.ReplaceAll(t.Literal, "_", "")
		lower := strings.ToLower(text)
		switch {
		case strings.HasPrefix(lower, "0x"):
			return strconv.ParseInt(text[2:], 16, 64)
		case strings.HasPrefix(lower, "0b"):
			return strconv.ParseInt(text[2:], 2, 64)
		case strings.HasPrefix(lower, "0o"):
			return strconv.ParseInt(text[2:], 8, 64)
		case len(text) > 1 && text[0] == '0':
			return strconv.ParseInt(text[1:], 8, 64)
		}
		return strconv.ParseInt(text, 10, 64)
	case TokenFloatLiteral:
		return strconv.ParseFloat(strings.ReplaceAll(t.Literal, "_", ""), 64)
	case TokenStringLiteral:
		return unquote(t.Literal), nil
	case TokenTrue:
		return true, nil
	case TokenFalse:
		return false, nil
	case TokenNull:
		return nil, nil
	}
	return nil, fmt.Errorf("token %s has no literal value", t.Kind)
}

func unquote(lit string) string {
	if len(lit) < 2 {
		return lit
	}
	quote := lit[0]
	body := lit[1 : len(lit)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			sb.WriteByte(ch)
			continue
		}
		next := body[i+1]
		if quote == '\'' {
			if next == '\'' || next == '\\' {
				sb.WriteByte(next)
				i++
				continue
			}
			sb.WriteByte(ch)
			continue
		}
		switch next {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'v':
			sb.WriteByte('\v')
		case 'f':
			sb.WriteByte('\f')
		case 'e':
			sb.WriteByte(0x1b)
		case '0':
			sb.WriteByte(0)
		case '\\', '"', '$':
			sb.WriteByte(next)
		default:
			sb.WriteByte(ch)
			sb.WriteByte(next)
		}
		i++
	}
	return sb.String()
}

var keywords = map[string]TokenKind{
	"abstract":        TokenAbstract,
	"and":             TokenLogicalAnd,
	"array":           TokenArray,
	"as":              TokenAs,
	"break":           TokenBreak,
	"callable":        TokenCallable,
	"case":            TokenCase,
	"catch":           TokenCatch,
	"class":           TokenClass,
	"clone":           TokenClone,
	"const":           TokenConst,
	"continue":        TokenContinue,
	"declare":         TokenDeclare,
	"default":         TokenDefault,
	"die":             TokenExit,
	"do":              TokenDo,
	"echo":            TokenEcho,
	"else":            TokenElse,
	"elseif":          TokenElseIf,
	"empty":           TokenEmpty,
	"enddeclare":      TokenEndDeclare,
	"endfor":          TokenEndFor,
	"endforeach":      TokenEndForeach,
	"endif":           TokenEndIf,
	"endswitch":       TokenEndSwitch,
	"endwhile":        TokenEndWhile,
	"enum":            TokenEnum,
	"exit":            TokenExit,
	"extends":         TokenExtends,
	"false":           TokenFalse,
	"final":           TokenFinal,
	"finally":         TokenFinally,
	"fn":              TokenFn,
	"for":             TokenFor,
	"foreach":         TokenForeach,
	"function":        TokenFunction,
	"global":          TokenGlobal,
	"goto":            TokenGoto,
	"__halt_compiler": TokenHaltCompiler,
	"if":              TokenIf,
	"implements":      TokenImplements,
	"include":         TokenInclude,
	"include_once":    TokenIncludeOnce,
	"instanceof":      TokenInstanceof,
	"insteadof":       TokenInsteadof,
	"interface":       TokenInterface,
	"isset":           TokenIsset,
	"list":            TokenList,
	"match":           TokenMatch,
	"namespace":       TokenNamespace,
	"new":             TokenNew,
	"null":            TokenNull,
	"or":              TokenLogicalOr,
	"parent":          TokenParent,
	"print":           TokenPrint,
	"private":         TokenPrivate,
	"protected":       TokenProtected,
	"public":          TokenPublic,
	"readonly":        TokenReadonly,
	"require":         TokenRequire,
	"require_once":    TokenRequireOnce,
	"return":          TokenReturn,
	"self":            TokenSelf,
	"static":          TokenStatic,
	"switch":          TokenSwitch,
	"throw":           TokenThrow,
	"trait":           TokenTrait,
	"true":            TokenTrue,
	"try":             TokenTry,
	"unset":           TokenUnset,
	"use":             TokenUse,
	"var":             TokenVar,
	"while":           TokenWhile,
	"xor":             TokenLogicalXor,
	"yield":           TokenYield,
}

var magicConstants = map[string]bool{
	"__class__":     true,
	"__dir__":       true,
	"__file__":      true,
	"__function__":  true,
	"__line__":      true,
	"__method__":    true,
	"__namespace__": true,
	"__trait__":     true,
}

// LookupKeyword maps an identifier to its keyword kind. Keywords are
// case-insensitive.
func LookupKeyword(ident string) TokenKind {
	lower := strings.ToLower(ident)
	if kind, ok := keywords[lower]; ok {
		return kind
	}
	if magicConstants[lower] {
		return TokenMagicConst
	}
	return TokenIdent
}
