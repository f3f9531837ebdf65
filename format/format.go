package format

import (
	"encoding"
	"io"
	"sort"

	"github.com/dhamidi/pdepend/metrics"
	"github.com/dhamidi/pdepend/php"
)

// Analysis is what the analyze command reports: the code model, the
// metrics computed over it and the files that never made it in.
type Analysis struct {
	Model    *php.Model
	Report   *metrics.Report
	Failures []Failure
}

type Failure struct {
	Path string
	Err  error
}

type Encoder interface {
	encoding.TextMarshaler
	Encode(a *Analysis) error
}

// New returns the encoder registered under name, or nil.
func New(name string, w io.Writer) Encoder {
	switch name {
	case "json":
		return NewJSONEncoder(w)
	case "yaml":
		return NewYAMLEncoder(w)
	case "line":
		return NewLineEncoder(w)
	}
	return nil
}

// Names lists the encoders New knows.
var Names = []string{"json", "yaml", "line"}

type document struct {
	RunID        string          `json:"runId,omitempty" yaml:"runId,omitempty"`
	Incomplete   bool            `json:"incomplete" yaml:"incomplete"`
	Files        []string        `json:"files" yaml:"files"`
	Units        []unitDoc       `json:"units" yaml:"units"`
	Dependencies []dependencyDoc `json:"dependencies" yaml:"dependencies"`
	Problems     problemsDoc     `json:"problems" yaml:"problems"`
}

type unitDoc struct {
	ID         string             `json:"id" yaml:"id"`
	Kind       string             `json:"kind" yaml:"kind"`
	Name       string             `json:"name" yaml:"name"`
	Namespace  string             `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	File       string             `json:"file" yaml:"file"`
	Line       int                `json:"line" yaml:"line"`
	Owner      string             `json:"owner,omitempty" yaml:"owner,omitempty"`
	Extends    []string           `json:"extends,omitempty" yaml:"extends,omitempty"`
	Implements []string           `json:"implements,omitempty" yaml:"implements,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

type dependencyDoc struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Kind string `json:"kind" yaml:"kind"`
}

type problemsDoc struct {
	Files     []fileProblem     `json:"files,omitempty" yaml:"files,omitempty"`
	Model     []string          `json:"model,omitempty" yaml:"model,omitempty"`
	Warnings  []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Analyzers []analyzerProblem `json:"analyzers,omitempty" yaml:"analyzers,omitempty"`
}

type fileProblem struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
}

type analyzerProblem struct {
	Analyzer string `json:"analyzer" yaml:"analyzer"`
	Message  string `json:"message" yaml:"message"`
}

func buildDocument(a *Analysis) document {
	doc := document{
		Files:        []string{},
		Units:        []unitDoc{},
		Dependencies: []dependencyDoc{},
	}

	byUnit := make(map[php.UnitID]map[string]float64)
	deps := a.Model.Dependencies()
	if a.Report != nil {
		doc.RunID = a.Report.RunID
		doc.Incomplete = a.Report.Incomplete
		for _, res := range a.Report.Results {
			if byUnit[res.Unit] == nil {
				byUnit[res.Unit] = make(map[string]float64)
			}
			byUnit[res.Unit][res.Metric] = res.Value
		}
		deps = a.Report.Dependencies
		for _, err := range a.Report.Errors {
			doc.Problems.Analyzers = append(doc.Problems.Analyzers, analyzerProblem{
				Analyzer: err.Analyzer,
				Message:  err.Err.Error(),
			})
		}
	}
	doc.Incomplete = doc.Incomplete || a.Model.Incomplete()
	doc.Files = append(doc.Files, a.Model.Files()...)

	for _, u := range a.Model.Units() {
		ud := unitDoc{
			ID:        string(u.ID),
			Kind:      string(u.Kind),
			Name:      u.Name,
			Namespace: u.Namespace,
			File:      u.File,
			Line:      u.Span.Start.Line,
			Owner:     string(u.Owner),
			Metrics:   byUnit[u.ID],
		}
		if u.Parent != nil {
			ud.Extends = append(ud.Extends, refName(u.Parent))
		}
		for _, ref := range u.Interfaces {
			if ref.Kind == php.RefExtends {
				ud.Extends = append(ud.Extends, refName(ref))
			} else {
				ud.Implements = append(ud.Implements, refName(ref))
			}
		}
		doc.Units = append(doc.Units, ud)
	}

	for _, d := range deps {
		doc.Dependencies = append(doc.Dependencies, dependencyDoc{
			From: string(d.From),
			To:   string(d.To),
			Kind: string(d.Kind),
		})
	}

	failures := append([]Failure(nil), a.Failures...)
	sort.SliceStable(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	for _, f := range failures {
		doc.Problems.Files = append(doc.Problems.Files, fileProblem{Path: f.Path, Message: f.Err.Error()})
	}
	for _, err := range a.Model.Errors() {
		doc.Problems.Model = append(doc.Problems.Model, err.Error())
	}
	for _, w := range a.Model.Warnings() {
		doc.Problems.Warnings = append(doc.Problems.Warnings, w.Error())
	}
	return doc
}

// refName prefers the resolved unit so the casing matches its declaration.
func refName(ref *php.Reference) string {
	if ref.Resolved() {
		return string(ref.Target)
	}
	return ref.Name
}
