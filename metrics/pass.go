package metrics

import (
	"fmt"

	"github.com/dhamidi/pdepend/php"
)

type resultKey struct {
	unit   php.UnitID
	metric string
}

// Pass is the view a running analyzer has of the pipeline.
type Pass struct {
	Analyzer string
	Model    *php.Model

	requires map[string]bool
	provides map[string]bool
	values   map[resultKey]float64
	written  map[resultKey]bool
	results  []Result
	deps     []php.Dependency
	err      error
}

func newPass(a Analyzer, model *php.Model, values map[resultKey]float64) *Pass {
	p := &Pass{
		Analyzer: a.Name(),
		Model:    model,
		requires: make(map[string]bool),
		provides: make(map[string]bool),
		values:   values,
		written:  make(map[resultKey]bool),
	}
	for _, m := range a.Requires() {
		p.requires[m] = true
	}
	for _, m := range a.Provides() {
		p.provides[m] = true
	}
	return p
}

// Value returns a metric computed by an earlier analyzer. Only required
// metrics may be read.
func (p *Pass) Value(unit php.UnitID, metric string) (float64, bool) {
	if !p.requires[metric] {
		p.fail(fmt.Errorf("%w: read of %s, not in requires", ErrUndeclaredMetric, metric))
		return 0, false
	}
	v, ok := p.values[resultKey{unit, metric}]
	return v, ok
}

// Report records a metric value. Each (unit, metric) pair is written once
// and only declared metrics may be written.
func (p *Pass) Report(unit php.UnitID, metric string, value float64) {
	if !p.provides[metric] {
		p.fail(fmt.Errorf("%w: write of %s, not in provides", ErrUndeclaredMetric, metric))
		return
	}
	key := resultKey{unit, metric}
	if p.written[key] {
		p.fail(fmt.Errorf("%w: %s for %s", ErrDuplicateResult, metric, unit))
		return
	}
	p.written[key] = true
	p.results = append(p.results, Result{Unit: unit, Metric: metric, Value: value})
}

// Depend records a dependency edge found by the analyzer.
func (p *Pass) Depend(from, to php.UnitID, kind php.DependencyKind) {
	p.deps = append(p.deps, php.Dependency{From: from, To: to, Kind: kind})
}

func (p *Pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
