package format

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dhamidi/pdepend/metrics"
	"github.com/dhamidi/pdepend/metrics/builtin"
	"github.com/dhamidi/pdepend/php/codebase"
	"github.com/dhamidi/pdepend/php/parser"
)

func analyze(t *testing.T, src string) *Analysis {
	t.Helper()
	result := codebase.Build(context.Background(), []codebase.Source{{Path: "a.php", Text: []byte(src)}})
	registry, err := builtin.DefaultRegistry().Select(builtin.InheritanceName)
	require.NoError(t, err)
	report, err := metrics.NewPipeline(registry).Run(context.Background(), result.Model)
	require.NoError(t, err)
	return &Analysis{Model: result.Model, Report: report}
}

const source = `<?php
class A {}
class B extends A implements Missing {}
`

func TestLineEncoder(t *testing.T) {
	a := analyze(t, source)
	a.Failures = []Failure{{Path: "z.php", Err: errors.New("z.php:1:1: boom")}}

	var buf bytes.Buffer
	require.NoError(t, NewLineEncoder(&buf).Encode(a))
	assert.Equal(t, "unit\tclass\tA\ta.php:2\n"+
		"unit\tclass\tB\ta.php:3\n"+
		"metric\tA\tdit\t0\n"+
		"metric\tA\tnocc\t1\n"+
		"metric\tB\tdit\t1\n"+
		"metric\tB\tnocc\t0\n"+
		"dependency\tB\tinherits\tA\n"+
		"error\tz.php:1:1: boom\n"+
		"warning\ta.php:3:30: unresolved implements reference Missing\n", buf.String())
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONEncoder(&buf).Encode(analyze(t, source)))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.NotEmpty(t, doc.RunID)
	assert.False(t, doc.Incomplete)
	assert.Equal(t, []string{"a.php"}, doc.Files)
	require.Len(t, doc.Units, 2)
	assert.Equal(t, unitDoc{
		ID:         "B",
		Kind:       "class",
		Name:       "B",
		File:       "a.php",
		Line:       3,
		Extends:    []string{"A"},
		Implements: []string{"Missing"},
		Metrics:    map[string]float64{"dit": 1, "nocc": 0},
	}, doc.Units[1])
	assert.Equal(t, []dependencyDoc{{From: "B", To: "A", Kind: "inherits"}}, doc.Dependencies)
	assert.Len(t, doc.Problems.Warnings, 1)
}

func TestYAMLEncoder(t *testing.T) {
	a := analyze(t, source)
	var buf bytes.Buffer
	require.NoError(t, NewYAMLEncoder(&buf).Encode(a))

	var doc document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, buildDocument(a), doc)
	assert.Contains(t, buf.String(), "runId: "+a.Report.RunID)
}

func TestNew(t *testing.T) {
	for _, name := range Names {
		assert.NotNil(t, New(name, &bytes.Buffer{}), name)
	}
	assert.Nil(t, New("xml", &bytes.Buffer{}))
}

func TestASTJSONEncoder(t *testing.T) {
	a := analyze(t, source)
	b, ok := a.Model.Unit("B")
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, NewASTJSONEncoder(&buf, WithPositions()).Encode(b.Node))

	var node astJSONNode
	require.NoError(t, json.Unmarshal(buf.Bytes(), &node))
	assert.Equal(t, parser.KindClassDecl.String(), node.Kind)
	assert.Equal(t, "B", node.Token)
	assert.Equal(t, "B", node.Symbol)
	require.NotNil(t, node.Span)
	assert.Equal(t, 3, node.Span.Start.Line)

	var extends *astJSONNode
	for _, child := range node.Children {
		if child != nil && child.Kind == parser.KindExtendsClause.String() {
			extends = child
		}
	}
	require.NotNil(t, extends)
	require.Len(t, extends.Children, 1)
	assert.Equal(t, "A", extends.Children[0].Symbol)

	buf.Reset()
	require.NoError(t, NewASTJSONEncoder(&buf).Encode(b.Node))
	assert.NotContains(t, buf.String(), `"span"`)
}
