package builtin

import (
	"context"

	"github.com/dhamidi/pdepend/metrics"
	"github.com/dhamidi/pdepend/php"
)

const InheritanceName = "inheritance"

// Inheritance reports the depth of inheritance tree and the number of
// direct child classes of every class. An unresolved parent counts as one
// level.
type Inheritance struct{}

func NewInheritance() metrics.Analyzer { return Inheritance{} }

func (Inheritance) Name() string       { return InheritanceName }
func (Inheritance) Requires() []string { return nil }
func (Inheritance) Provides() []string { return []string{MetricDepth, MetricChildren} }

func (Inheritance) Analyze(ctx context.Context, pass *metrics.Pass) error {
	model := pass.Model
	children := make(map[php.UnitID]int)
	var classes []*php.CodeUnit
	for _, u := range model.Units() {
		if u.Kind != php.UnitClass {
			continue
		}
		classes = append(classes, u)
		if u.Parent != nil && u.Parent.Resolved() {
			children[u.Parent.Target]++
		}
	}

	for _, u := range classes {
		if err := ctx.Err(); err != nil {
			return err
		}
		pass.Report(u.ID, MetricDepth, float64(depth(model, u)))
		pass.Report(u.ID, MetricChildren, float64(children[u.ID]))
	}
	return nil
}

// depth follows resolved parents until the chain ends or repeats.
func depth(model *php.Model, u *php.CodeUnit) int {
	seen := map[php.UnitID]bool{u.ID: true}
	d := 0
	for u.Parent != nil {
		d++
		if !u.Parent.Resolved() || seen[u.Parent.Target] {
			break
		}
		seen[u.Parent.Target] = true
		next, ok := model.Unit(u.Parent.Target)
		if !ok {
			break
		}
		u = next
	}
	return d
}
