package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTooManyBacktracks is returned when a source file requires more
// speculative parses than the configured limit allows.
var ErrTooManyBacktracks = errors.New("backtracking limit exceeded")

// LexicalError reports source bytes that do not form a token.
type LexicalError struct {
	Pos     Position
	Message string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// UnexpectedTokenError reports a token that no alternative of the active
// production accepts.
type UnexpectedTokenError struct {
	Pos      Position
	Expected []string
	Found    Token
	Context  []string
	// Err is the underlying cause, such as ErrTooManyBacktracks.
	Err error
}

func (e *UnexpectedTokenError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: unexpected %s", e.Pos, e.Found)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&sb, ", expected %s", strings.Join(e.Expected, " or "))
	}
	if len(e.Context) > 0 {
		fmt.Fprintf(&sb, " in %s", e.Context[len(e.Context)-1])
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err)
	}
	return sb.String()
}

func (e *UnexpectedTokenError) Unwrap() error {
	return e.Err
}

// UnclosedConstructError reports a bracketed construct whose closing
// delimiter never appeared.
type UnclosedConstructError struct {
	Construct string
	Open      Position
	UnexpectedTokenError
}

func (e *UnclosedConstructError) Error() string {
	return fmt.Sprintf("%s: unclosed %s opened at %d:%d, found %s",
		e.Pos, e.Construct, e.Open.Line, e.Open.Column, e.Found)
}

func (e *UnclosedConstructError) Unwrap() error {
	return &e.UnexpectedTokenError
}

// SyntaxError reports a well-formed token sequence that the language
// nevertheless rejects, such as assigning to a literal.
type SyntaxError struct {
	Pos     Position
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// ErrorPosition extracts the source position from any error produced by
// this package.
func ErrorPosition(err error) (Position, bool) {
	var lex *LexicalError
	if errors.As(err, &lex) {
		return lex.Pos, true
	}
	var unclosed *UnclosedConstructError
	if errors.As(err, &unclosed) {
		return unclosed.Pos, true
	}
	var unexpected *UnexpectedTokenError
	if errors.As(err, &unexpected) {
		return unexpected.Pos, true
	}
	var syntax *SyntaxError
	if errors.As(err, &syntax) {
		return syntax.Pos, true
	}
	return Position{}, false
}
