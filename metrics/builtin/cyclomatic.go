package builtin

import (
	"context"

	"github.com/dhamidi/pdepend/metrics"
	"github.com/dhamidi/pdepend/php"
	"github.com/dhamidi/pdepend/php/parser"
)

const CyclomaticName = "cyclomatic"

// Cyclomatic reports the cyclomatic complexity of functions and methods:
// one plus the number of decision points in the body. Closures count
// towards the enclosing unit; nested declarations do not.
type Cyclomatic struct{}

func NewCyclomatic() metrics.Analyzer { return Cyclomatic{} }

func (Cyclomatic) Name() string       { return CyclomaticName }
func (Cyclomatic) Requires() []string { return nil }
func (Cyclomatic) Provides() []string { return []string{MetricCyclomatic} }

func (Cyclomatic) Analyze(ctx context.Context, pass *metrics.Pass) error {
	for _, u := range pass.Model.Units() {
		if u.Kind != php.UnitFunction && u.Kind != php.UnitMethod {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		pass.Report(u.ID, MetricCyclomatic, float64(Complexity(u.Node)))
	}
	return nil
}

// Complexity computes the cyclomatic complexity of a function-like node.
func Complexity(decl *parser.Node) int {
	ccn := 1
	if decl == nil {
		return ccn
	}
	for _, child := range decl.Children {
		parser.Walk(child, func(n *parser.Node) bool {
			switch n.Kind {
			case parser.KindFunctionDecl, parser.KindClassDecl, parser.KindInterfaceDecl,
				parser.KindTraitDecl, parser.KindEnumDecl, parser.KindAnonymousClass:
				return false
			case parser.KindIfStmt, parser.KindElseIfClause, parser.KindWhileStmt,
				parser.KindDoStmt, parser.KindForStmt, parser.KindForeachStmt,
				parser.KindCatchClause, parser.KindTernaryExpr:
				ccn++
			case parser.KindSwitchCase:
				if n.Token != nil && n.Token.Kind == parser.TokenCase {
					ccn++
				}
			case parser.KindMatchArm:
				if n.Token == nil {
					ccn++
				}
			case parser.KindBinaryExpr:
				switch n.Token.Kind {
				case parser.TokenAnd, parser.TokenOr, parser.TokenLogicalAnd,
					parser.TokenLogicalOr, parser.TokenCoalesce:
					ccn++
				}
			}
			return true
		})
	}
	return ccn
}
