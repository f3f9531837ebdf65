// Package metrics runs analyzers over a resolved code model.
package metrics

import (
	"context"
	"fmt"

	"github.com/dhamidi/pdepend/php"
)

// Analyzer computes metrics or dependency facts from a read-only model.
// Requires and Provides name metrics; an analyzer runs after every
// analyzer that provides one of its required metrics.
type Analyzer interface {
	Name() string
	Requires() []string
	Provides() []string
	Analyze(ctx context.Context, pass *Pass) error
}

// Factory produces a fresh analyzer instance for each run.
type Factory func() Analyzer

type Descriptor struct {
	Name string
	New  Factory
}

// Registry is the ordered set of analyzers available to a pipeline.
type Registry struct {
	descriptors []Descriptor
	index       map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) Register(name string, factory Factory) error {
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAnalyzer, name)
	}
	r.index[name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, Descriptor{Name: name, New: factory})
	return nil
}

// Descriptors returns the registered analyzers in registration order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.descriptors...)
}

// Select returns a registry restricted to the named analyzers, keeping
// registration order.
func (r *Registry) Select(names ...string) (*Registry, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAnalyzer, name)
		}
		wanted[name] = true
	}
	selected := NewRegistry()
	for _, d := range r.descriptors {
		if wanted[d.Name] {
			selected.Register(d.Name, d.New)
		}
	}
	return selected, nil
}

// Result is one metric value computed for a unit.
type Result struct {
	Unit   php.UnitID
	Metric string
	Value  float64
}
