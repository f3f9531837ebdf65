package format

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// LineEncoder writes one tab separated record per line, for grep and awk:
//
//	unit	<kind>	<id>	<file>:<line>
//	metric	<id>	<metric>	<value>
//	dependency	<from>	<kind>	<to>
//	error	<message>
//	warning	<message>
type LineEncoder struct {
	w        io.Writer
	analysis *Analysis
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(a *Analysis) error {
	e.analysis = a
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	doc := buildDocument(e.analysis)

	for _, u := range doc.Units {
		fmt.Fprintf(&sb, "unit\t%s\t%s\t%s:%d\n", u.Kind, u.ID, u.File, u.Line)
	}
	for _, u := range doc.Units {
		for _, name := range sortedKeys(u.Metrics) {
			fmt.Fprintf(&sb, "metric\t%s\t%s\t%s\n", u.ID, name, strconv.FormatFloat(u.Metrics[name], 'g', -1, 64))
		}
	}
	for _, d := range doc.Dependencies {
		fmt.Fprintf(&sb, "dependency\t%s\t%s\t%s\n", d.From, d.Kind, d.To)
	}
	for _, f := range doc.Problems.Files {
		fmt.Fprintf(&sb, "error\t%s\n", oneLine(f.Message))
	}
	for _, msg := range doc.Problems.Model {
		fmt.Fprintf(&sb, "error\t%s\n", oneLine(msg))
	}
	for _, a := range doc.Problems.Analyzers {
		fmt.Fprintf(&sb, "error\tanalyzer %s: %s\n", a.Analyzer, oneLine(a.Message))
	}
	for _, msg := range doc.Problems.Warnings {
		fmt.Fprintf(&sb, "warning\t%s\n", oneLine(msg))
	}
	if doc.Incomplete {
		sb.WriteString("incomplete\n")
	}

	return []byte(sb.String()), nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
