package php

import "github.com/dhamidi/pdepend/php/parser"

type ReferenceKind string

const (
	RefExtends      ReferenceKind = "extends"
	RefImplements   ReferenceKind = "implements"
	RefTrait        ReferenceKind = "trait"
	RefType         ReferenceKind = "type"
	RefNew          ReferenceKind = "new"
	RefInstanceof   ReferenceKind = "instanceof"
	RefCatch        ReferenceKind = "catch"
	RefStatic       ReferenceKind = "static"
	RefAttribute    ReferenceKind = "attribute"
	RefDoc          ReferenceKind = "doc"
	RefFunctionCall ReferenceKind = "function"
	RefStaticCall   ReferenceKind = "static call"
)

func (k ReferenceKind) DependencyKind() DependencyKind {
	switch k {
	case RefExtends:
		return DependencyInherits
	case RefImplements:
		return DependencyImplements
	case RefFunctionCall, RefStaticCall:
		return DependencyCalls
	}
	return DependencyUses
}

// Reference is a symbolic use of a name. It stays unresolved until a
// unit with that qualified name is merged.
type Reference struct {
	Kind ReferenceKind
	// Name is fully qualified, without a leading backslash.
	Name string
	// Fallback is the global name tried for unqualified function calls
	// inside a namespace.
	Fallback string
	From     UnitID
	File     string
	Span     parser.Span
	Target   UnitID

	// parentOf is set for "parent" references; the target is the parent
	// class of that unit.
	parentOf UnitID
	node     *parser.Node
}

func (r *Reference) Resolved() bool {
	return r.Target != ""
}

func (r *Reference) DisplayName() string {
	if r.Kind == RefFunctionCall {
		return r.Name + "()"
	}
	if r.parentOf != "" && r.Name == "" {
		return "parent of " + string(r.parentOf)
	}
	return r.Name
}

func (r *Reference) key() string {
	if r.Kind == RefFunctionCall {
		return nameKey(r.Name) + "()"
	}
	return nameKey(r.Name)
}
