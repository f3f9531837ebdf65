// Package builtin holds the analyzers shipped with pdepend.
package builtin

import (
	"github.com/dhamidi/pdepend/metrics"
)

const (
	MetricMethods         = "nom"
	MetricLines           = "loc"
	MetricDepth           = "dit"
	MetricChildren        = "nocc"
	MetricAfferent        = "ca"
	MetricEfferent        = "ce"
	MetricCyclomatic      = "ccn"
	MetricWeightedMethods = "wmc"
)

// Register adds every builtin analyzer to r in a fixed order.
func Register(r *metrics.Registry) error {
	for _, d := range []metrics.Descriptor{
		{Name: NodeCountName, New: NewNodeCount},
		{Name: InheritanceName, New: NewInheritance},
		{Name: CouplingName, New: NewCoupling},
		{Name: CyclomaticName, New: NewCyclomatic},
		{Name: ClassLevelName, New: NewClassLevel},
	} {
		if err := r.Register(d.Name, d.New); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRegistry returns a registry with all builtin analyzers.
func DefaultRegistry() *metrics.Registry {
	r := metrics.NewRegistry()
	Register(r)
	return r
}
