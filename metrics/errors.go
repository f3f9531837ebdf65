package metrics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingProvider   = errors.New("no analyzer provides metric")
	ErrDuplicateProvider = errors.New("metric has more than one provider")
	ErrDuplicateAnalyzer = errors.New("analyzer registered twice")
	ErrUnknownAnalyzer   = errors.New("unknown analyzer")
	ErrDependencyFailed  = errors.New("required analyzer failed")
	ErrUndeclaredMetric  = errors.New("metric not declared")
	ErrDuplicateResult   = errors.New("metric reported twice")
	ErrModelNotFrozen    = errors.New("code model has not been resolved")
)

// CycleError reports analyzers whose declared metric dependencies form a
// cycle. Path starts and ends with the same analyzer.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("analyzer dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// AnalyzerError records the failure of a single analyzer.
type AnalyzerError struct {
	Analyzer string
	Err      error
}

func (e *AnalyzerError) Error() string {
	return fmt.Sprintf("analyzer %s: %v", e.Analyzer, e.Err)
}

func (e *AnalyzerError) Unwrap() error {
	return e.Err
}
