package php

import (
	"errors"
	"fmt"

	"github.com/dhamidi/pdepend/php/parser"
)

var (
	// ErrFrozen is returned when merging into a model after Resolve.
	ErrFrozen = errors.New("code model is read-only")

	// ErrDuplicateDeclaration marks a second declaration of a qualified name.
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
)

// ModelError is a recoverable problem found while merging a file.
type ModelError struct {
	File string
	Pos  parser.Position
	// Name is the qualified name involved, if any.
	Name string
	// Previous is where the kept declaration of Name was found.
	Previous parser.Position
	Err      error
}

func (e *ModelError) Error() string {
	pos := e.Pos
	if pos.File == "" {
		pos.File = e.File
	}
	if errors.Is(e.Err, ErrDuplicateDeclaration) {
		return fmt.Sprintf("%s: duplicate declaration of %s (first declared at %s)", pos, e.Name, e.Previous)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %v", pos, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v", pos, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// UnresolvedReferenceWarning reports a reference that no declared unit
// satisfied after the final resolution pass.
type UnresolvedReferenceWarning struct {
	Reference *Reference
}

func (w *UnresolvedReferenceWarning) Error() string {
	ref := w.Reference
	pos := ref.Span.Start
	if pos.File == "" {
		pos.File = ref.File
	}
	return fmt.Sprintf("%s: unresolved %s reference %s", pos, ref.Kind, ref.DisplayName())
}
