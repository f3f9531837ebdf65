package builtin

import (
	"context"

	"github.com/dhamidi/pdepend/metrics"
)

const ClassLevelName = "classlevel"

// ClassLevel reports the weighted method count of each type: the sum of
// the cyclomatic complexity of its methods.
type ClassLevel struct{}

func NewClassLevel() metrics.Analyzer { return ClassLevel{} }

func (ClassLevel) Name() string       { return ClassLevelName }
func (ClassLevel) Requires() []string { return []string{MetricCyclomatic} }
func (ClassLevel) Provides() []string { return []string{MetricWeightedMethods} }

func (ClassLevel) Analyze(ctx context.Context, pass *metrics.Pass) error {
	for _, u := range pass.Model.Units() {
		if !u.Kind.IsType() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		wmc := 0.0
		for _, id := range u.Methods {
			if v, ok := pass.Value(id, MetricCyclomatic); ok {
				wmc += v
			}
		}
		pass.Report(u.ID, MetricWeightedMethods, wmc)
	}
	return nil
}
