package codebase

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/pdepend/php/parser"
)

const lsName = "pdepend"

// LSPServer publishes syntax errors, model errors and unresolved
// references of a workspace as diagnostics.
type LSPServer struct {
	codebase *Codebase
	opts     []Option
	handler  protocol.Handler
	server   *server.Server
	version  string
}

func NewLSPServer(version string, opts ...Option) *LSPServer {
	ls := &LSPServer{
		version: version,
		opts:    opts,
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	c, err := New(rootDir, ls.opts...)
	if err != nil {
		return nil, err
	}
	ls.codebase = c

	capabilities := ls.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	result, err := ls.codebase.ScanAll(context.Background())
	if err != nil {
		ls.codebase.cfg.log.Errorf("scan %s: %s", ls.codebase.RootDir(), err)
		return nil
	}
	ls.publish(ctx, result)
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.publish(ctx, ls.codebase.UpdateFile(context.Background(), path, []byte(params.TextDocument.Text)))
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) == 0 {
		return nil
	}
	var text string
	switch change := params.ContentChanges[len(params.ContentChanges)-1].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		text = change.Text
	case protocol.TextDocumentContentChangeEvent:
		text = change.Text
	default:
		return nil
	}
	ls.publish(ctx, ls.codebase.UpdateFile(context.Background(), path, []byte(text)))
	return nil
}

// textDocumentDidClose drops unsaved edits by rereading the file.
func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	result, err := ls.codebase.Reload(context.Background(), []string{path})
	if err != nil {
		return nil
	}
	ls.publish(ctx, result)
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.publish(ctx, ls.codebase.UpdateFile(context.Background(), path, []byte(*params.Text)))
		return nil
	}
	result, err := ls.codebase.Reload(context.Background(), []string{path})
	if err != nil {
		return nil
	}
	ls.publish(ctx, result)
	return nil
}

// publish sends diagnostics for every known file, so files whose problems
// went away are cleared.
func (ls *LSPServer) publish(ctx *glsp.Context, result *Result) {
	byPath := Diagnostics(result)
	for _, path := range ls.codebase.Paths() {
		diags := byPath[path]
		if diags == nil {
			diags = []protocol.Diagnostic{}
		}
		ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         pathToURI(path),
			Diagnostics: diags,
		})
	}
}

// Diagnostics groups the problems of a build by file path.
func Diagnostics(result *Result) map[string][]protocol.Diagnostic {
	byPath := make(map[string][]protocol.Diagnostic)
	for _, f := range result.Failed() {
		pos, ok := parser.ErrorPosition(f.Err)
		if !ok {
			continue
		}
		byPath[f.Path] = append(byPath[f.Path], protocol.Diagnostic{
			Range:    pointRange(pos),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(lsName),
			Message:  trimPosition(f.Err.Error(), f.Path, pos),
		})
	}
	for _, e := range result.ModelErrors {
		byPath[e.File] = append(byPath[e.File], protocol.Diagnostic{
			Range:    pointRange(e.Pos),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(lsName),
			Message:  trimPosition(e.Error(), e.File, e.Pos),
		})
	}
	for _, w := range result.Warnings {
		ref := w.Reference
		byPath[ref.File] = append(byPath[ref.File], protocol.Diagnostic{
			Range:    spanRange(ref.Span),
			Severity: severity(protocol.DiagnosticSeverityWarning),
			Source:   strPtr(lsName),
			Code:     &protocol.IntegerOrString{Value: string(ref.Kind)},
			Message:  trimPosition(w.Error(), ref.File, ref.Span.Start),
		})
	}
	return byPath
}

// trimPosition drops the leading "file:line:col: " that every error
// message carries; the range already says where.
func trimPosition(msg, file string, pos parser.Position) string {
	if pos.File == "" {
		pos.File = file
	}
	return strings.TrimPrefix(msg, pos.String()+": ")
}

func toLSPPosition(pos parser.Position) protocol.Position {
	line, col := pos.Line-1, pos.Column-1
	if line < 0 {
		line = 0
	}
	if col < 0 {
		col = 0
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

func pointRange(pos parser.Position) protocol.Range {
	start := toLSPPosition(pos)
	end := start
	end.Character++
	return protocol.Range{Start: start, End: end}
}

func spanRange(span parser.Span) protocol.Range {
	if span.End.Line == 0 {
		return pointRange(span.Start)
	}
	return protocol.Range{Start: toLSPPosition(span.Start), End: toLSPPosition(span.End)}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
