package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/pdepend/php/parser"
)

type ASTJSONEncoder struct {
	w         io.Writer
	positions bool
}

type ASTOption func(*ASTJSONEncoder)

// WithPositions includes node spans in the output.
func WithPositions() ASTOption {
	return func(e *ASTJSONEncoder) {
		e.positions = true
	}
}

func NewASTJSONEncoder(w io.Writer, opts ...ASTOption) *ASTJSONEncoder {
	e := &ASTJSONEncoder{w: w}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ASTJSONEncoder) Encode(node *parser.Node) error {
	text, err := e.MarshalText(node)
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *ASTJSONEncoder) MarshalText(node *parser.Node) ([]byte, error) {
	return json.MarshalIndent(e.nodeToJSON(node), "", "  ")
}

type astJSONNode struct {
	Kind     string         `json:"kind"`
	Span     *astJSONSpan   `json:"span,omitempty"`
	Token    string         `json:"token,omitempty"`
	Doc      string         `json:"doc,omitempty"`
	Symbol   string         `json:"symbol,omitempty"`
	Children []*astJSONNode `json:"children,omitempty"`
}

type astJSONSpan struct {
	Start astJSONPosition `json:"start"`
	End   astJSONPosition `json:"end"`
}

type astJSONPosition struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// nodeToJSON keeps nil children as null so child indexes still line up
// with the node shapes the parser documents.
func (e *ASTJSONEncoder) nodeToJSON(n *parser.Node) *astJSONNode {
	if n == nil {
		return nil
	}
	jn := &astJSONNode{
		Kind: n.Kind.String(),
	}

	if e.positions {
		jn.Span = &astJSONSpan{
			Start: astJSONPosition{Offset: n.Span.Start.Offset, Line: n.Span.Start.Line, Column: n.Span.Start.Column},
			End:   astJSONPosition{Offset: n.Span.End.Offset, Line: n.Span.End.Line, Column: n.Span.End.Column},
		}
	}

	if n.Token != nil {
		jn.Token = n.Token.Literal
	}
	if n.Doc != nil {
		jn.Doc = n.Doc.Literal
	}
	if sym := n.Symbol(); sym != nil {
		jn.Symbol = sym.SymbolID()
	}

	if len(n.Children) > 0 {
		jn.Children = make([]*astJSONNode, len(n.Children))
		for i, child := range n.Children {
			jn.Children[i] = e.nodeToJSON(child)
		}
	}

	return jn
}
