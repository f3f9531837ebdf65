package php

import (
	"sort"
	"strings"
	"sync"

	"github.com/dhamidi/pdepend/php/docblock"
	"github.com/dhamidi/pdepend/php/parser"
)

type UnitKind string

const (
	UnitClass     UnitKind = "class"
	UnitInterface UnitKind = "interface"
	UnitTrait     UnitKind = "trait"
	UnitEnum      UnitKind = "enum"
	UnitFunction  UnitKind = "function"
	UnitMethod    UnitKind = "method"
)

// IsType reports whether units of this kind live in the class namespace.
func (k UnitKind) IsType() bool {
	switch k {
	case UnitClass, UnitInterface, UnitTrait, UnitEnum:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// UnitID identifies a unit in a model. Types use their qualified name,
// functions append "()", and methods are written Class::method.
type UnitID string

type CodeUnit struct {
	ID            UnitID
	Kind          UnitKind
	Name          string
	QualifiedName string
	Namespace     string
	File          string
	Visibility    Visibility
	IsAbstract    bool
	IsFinal       bool
	IsStatic      bool
	IsReadonly    bool
	ByReference   bool
	Parameters    []Parameter
	ReturnType    string
	// BackingType is the scalar type of a backed enum.
	BackingType string
	// Parent is the extended class. Interfaces record their extended
	// interfaces in Interfaces with kind RefExtends.
	Parent     *Reference
	Interfaces []*Reference
	Traits     []*Reference
	Owner      UnitID
	Methods    []UnitID
	Constants  []string
	Properties []Property
	Cases      []string
	Doc        *docblock.DocBlock
	Span       parser.Span
	Node       *parser.Node
}

// SymbolID implements parser.Symbol.
func (u *CodeUnit) SymbolID() string {
	return string(u.ID)
}

type Parameter struct {
	Name       string
	Type       string
	ByRef      bool
	Variadic   bool
	Promoted   bool
	HasDefault bool
}

type Property struct {
	Name       string
	Type       string
	Visibility Visibility
	IsStatic   bool
	IsReadonly bool
}

// Namespace maps lowercased simple names to the units declared in it.
// Functions are keyed with a trailing "()".
type Namespace struct {
	Name  string
	units map[string]UnitID
}

func (n *Namespace) Lookup(name string) (UnitID, bool) {
	id, ok := n.units[strings.ToLower(name)]
	return id, ok
}

func (n *Namespace) Units() []UnitID {
	ids := make([]UnitID, 0, len(n.units))
	for _, id := range n.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type DependencyKind string

const (
	DependencyInherits   DependencyKind = "inherits"
	DependencyImplements DependencyKind = "implements"
	DependencyUses       DependencyKind = "uses"
	DependencyCalls      DependencyKind = "calls"
)

type Dependency struct {
	From UnitID
	To   UnitID
	Kind DependencyKind
}

// Model is the merged code model of a batch of files. It is safe for
// concurrent reads; all writes go through a Builder.
type Model struct {
	mu         sync.RWMutex
	units      map[UnitID]*CodeUnit
	byName     map[string]UnitID
	namespaces map[string]*Namespace
	references []*Reference
	files      []string
	errors     []*ModelError
	warnings   []*UnresolvedReferenceWarning
	incomplete bool
	frozen     bool
}

func newModel() *Model {
	return &Model{
		units:      make(map[UnitID]*CodeUnit),
		byName:     make(map[string]UnitID),
		namespaces: make(map[string]*Namespace),
	}
}

func (m *Model) Unit(id UnitID) (*CodeUnit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[id]
	return u, ok
}

// Lookup finds a unit by name, ignoring case and a leading backslash.
// Use "name()" for functions and "Class::method" for methods.
func (m *Model) Lookup(name string) (*CodeUnit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookup(name)
}

func (m *Model) lookup(name string) (*CodeUnit, bool) {
	id, ok := m.byName[nameKey(name)]
	if !ok {
		return nil, false
	}
	return m.units[id], true
}

// Units returns all units sorted by ID.
func (m *Model) Units() []*CodeUnit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	units := make([]*CodeUnit, 0, len(m.units))
	for _, u := range m.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units
}

func (m *Model) Namespaces() []*Namespace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Namespace, 0, len(m.namespaces))
	for _, ns := range m.namespaces {
		result = append(result, ns)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Children returns the methods declared by a type, in declaration order.
func (m *Model) Children(id UnitID) []*CodeUnit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[id]
	if !ok {
		return nil
	}
	children := make([]*CodeUnit, 0, len(u.Methods))
	for _, mid := range u.Methods {
		children = append(children, m.units[mid])
	}
	return children
}

// Dependencies returns the distinct edges of all resolved references
// between two different units, sorted. A method referring to its own
// class is not an edge.
func (m *Model) Dependencies() []Dependency {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[Dependency]bool)
	var deps []Dependency
	for _, ref := range m.references {
		if ref.From == "" || ref.Target == "" || ref.Target == ref.From {
			continue
		}
		if from, ok := m.units[ref.From]; ok && from.Owner == ref.Target {
			continue
		}
		dep := Dependency{From: ref.From, To: ref.Target, Kind: ref.Kind.DependencyKind()}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		deps = append(deps, dep)
	}
	sortDependencies(deps)
	return deps
}

func sortDependencies(deps []Dependency) {
	sort.Slice(deps, func(i, j int) bool {
		a, b := deps[i], deps[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
}

func (m *Model) References() []*Reference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Reference(nil), m.references...)
}

func (m *Model) Errors() []*ModelError {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*ModelError(nil), m.errors...)
}

func (m *Model) Warnings() []*UnresolvedReferenceWarning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*UnresolvedReferenceWarning(nil), m.warnings...)
}

// Incomplete reports whether the batch that produced the model was cut
// short.
func (m *Model) Incomplete() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.incomplete
}

// Frozen reports whether the final resolution pass has run.
func (m *Model) Frozen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frozen
}

// Files returns the merged files in merge order.
func (m *Model) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.files...)
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}
