package builtin

import (
	"context"

	"github.com/dhamidi/pdepend/metrics"
)

const NodeCountName = "nodecount"

// NodeCount reports the number of methods of each type and the number of
// source lines spanned by every unit.
type NodeCount struct{}

func NewNodeCount() metrics.Analyzer { return NodeCount{} }

func (NodeCount) Name() string       { return NodeCountName }
func (NodeCount) Requires() []string { return nil }
func (NodeCount) Provides() []string { return []string{MetricMethods, MetricLines} }

func (NodeCount) Analyze(ctx context.Context, pass *metrics.Pass) error {
	for _, u := range pass.Model.Units() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if u.Kind.IsType() {
			pass.Report(u.ID, MetricMethods, float64(len(u.Methods)))
		}
		pass.Report(u.ID, MetricLines, float64(u.Span.End.Line-u.Span.Start.Line+1))
	}
	return nil
}
