package builtin

import (
	"context"

	"github.com/dhamidi/pdepend/metrics"
	"github.com/dhamidi/pdepend/php"
)

const CouplingName = "coupling"

// Coupling lifts member dependencies to their declaring types, reports
// the lifted edges, and counts afferent and efferent coupling per type.
type Coupling struct{}

func NewCoupling() metrics.Analyzer { return Coupling{} }

func (Coupling) Name() string       { return CouplingName }
func (Coupling) Requires() []string { return nil }
func (Coupling) Provides() []string { return []string{MetricAfferent, MetricEfferent} }

func (Coupling) Analyze(ctx context.Context, pass *metrics.Pass) error {
	model := pass.Model
	efferent := make(map[php.UnitID]map[php.UnitID]bool)
	afferent := make(map[php.UnitID]map[php.UnitID]bool)

	for _, dep := range model.Dependencies() {
		if err := ctx.Err(); err != nil {
			return err
		}
		from, ok := owningType(model, dep.From)
		if !ok {
			continue
		}
		to, ok := owningType(model, dep.To)
		if !ok || from == to {
			continue
		}
		if dep.From != from || dep.To != to {
			pass.Depend(from, to, dep.Kind)
		}
		if efferent[from] == nil {
			efferent[from] = make(map[php.UnitID]bool)
		}
		efferent[from][to] = true
		if afferent[to] == nil {
			afferent[to] = make(map[php.UnitID]bool)
		}
		afferent[to][from] = true
	}

	for _, u := range model.Units() {
		if !u.Kind.IsType() {
			continue
		}
		pass.Report(u.ID, MetricAfferent, float64(len(afferent[u.ID])))
		pass.Report(u.ID, MetricEfferent, float64(len(efferent[u.ID])))
	}
	return nil
}

func owningType(model *php.Model, id php.UnitID) (php.UnitID, bool) {
	u, ok := model.Unit(id)
	if !ok {
		return "", false
	}
	if u.Kind == php.UnitMethod {
		return u.Owner, true
	}
	return u.ID, u.Kind.IsType()
}
