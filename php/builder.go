package php

import (
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/pdepend/php/docblock"
	"github.com/dhamidi/pdepend/php/parser"
)

// Builder merges parsed files into a Model. Merges are serialized; the
// order of files does not change the resolved result.
type Builder struct {
	model *Model
	log   commonlog.Logger

	// pending holds unresolved references keyed by lookup key.
	pending map[string][]*Reference
	// parents holds "parent" references, resolved in the final pass.
	parents []*Reference
}

type BuilderOption func(*Builder)

func WithLogger(log commonlog.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = log
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		model:   newModel(),
		log:     commonlog.GetLogger("pdepend.php"),
		pending: make(map[string][]*Reference),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Model() *Model {
	return b.model
}

// MarkIncomplete records that not every file of the batch was merged.
func (b *Builder) MarkIncomplete() {
	b.model.mu.Lock()
	defer b.model.mu.Unlock()
	b.model.incomplete = true
}

// Merge adds the declarations and references of one file. The returned
// errors are also kept in the model.
func (b *Builder) Merge(file string, root *parser.Node) []*ModelError {
	m := b.model
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return []*ModelError{{File: file, Err: ErrFrozen}}
	}
	m.files = append(m.files, file)
	if root == nil {
		return nil
	}

	mg := &merger{b: b, file: file, scope: newScope("")}
	mg.mergeStatements(root.Children)
	m.errors = append(m.errors, mg.errors...)
	b.log.Debugf("merged %s: %d errors, %d pending names", file, len(mg.errors), len(b.pending))
	return mg.errors
}

// Resolve runs the final resolution pass and freezes the model. Function
// calls fall back to global functions, parent references bind to the
// resolved parent class, and everything left over becomes a warning.
func (b *Builder) Resolve() []*UnresolvedReferenceWarning {
	m := b.model
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frozen {
		return append([]*UnresolvedReferenceWarning(nil), m.warnings...)
	}

	var unresolved []*Reference
	for _, refs := range b.pending {
		for _, ref := range refs {
			if ref.Fallback != "" {
				if u, ok := m.byName[nameKey(ref.Fallback)+"()"]; ok {
					b.bind(ref, m.units[u])
					continue
				}
			}
			unresolved = append(unresolved, ref)
		}
	}
	b.pending = make(map[string][]*Reference)

	for _, ref := range b.parents {
		class := m.units[ref.parentOf]
		if class == nil || class.Parent == nil {
			unresolved = append(unresolved, ref)
			continue
		}
		ref.Name = class.Parent.Name
		if parent, ok := m.units[class.Parent.Target]; ok {
			b.bind(ref, parent)
			continue
		}
		unresolved = append(unresolved, ref)
	}
	b.parents = nil

	sort.Slice(unresolved, func(i, j int) bool {
		a, c := unresolved[i], unresolved[j]
		if a.File != c.File {
			return a.File < c.File
		}
		if a.Span.Start.Offset != c.Span.Start.Offset {
			return a.Span.Start.Offset < c.Span.Start.Offset
		}
		if a.Kind != c.Kind {
			return a.Kind < c.Kind
		}
		return a.Name < c.Name
	})
	for _, ref := range unresolved {
		m.warnings = append(m.warnings, &UnresolvedReferenceWarning{Reference: ref})
	}
	m.frozen = true
	b.log.Infof("resolved model: %d units, %d unresolved references", len(m.units), len(unresolved))
	return append([]*UnresolvedReferenceWarning(nil), m.warnings...)
}

func (b *Builder) bind(ref *Reference, u *CodeUnit) {
	ref.Target = u.ID
	if ref.node != nil {
		ref.node.Bind(u)
	}
}

func (b *Builder) addReference(ref *Reference) {
	m := b.model
	m.references = append(m.references, ref)
	if ref.parentOf != "" {
		b.parents = append(b.parents, ref)
		return
	}
	key := ref.key()
	if id, ok := m.byName[key]; ok {
		b.bind(ref, m.units[id])
		return
	}
	b.pending[key] = append(b.pending[key], ref)
}

// register adds u to the model unless its name is taken. Waiting
// references to the name are bound immediately.
func (b *Builder) register(u *CodeUnit) (*CodeUnit, bool) {
	m := b.model
	key := nameKey(string(u.ID))
	if id, ok := m.byName[key]; ok {
		return m.units[id], false
	}
	m.units[u.ID] = u
	m.byName[key] = u.ID

	if u.Kind != UnitMethod {
		nsKey := strings.ToLower(u.Namespace)
		ns, ok := m.namespaces[nsKey]
		if !ok {
			ns = &Namespace{Name: u.Namespace, units: make(map[string]UnitID)}
			m.namespaces[nsKey] = ns
		}
		simple := strings.ToLower(u.Name)
		if u.Kind == UnitFunction {
			simple += "()"
		}
		ns.units[simple] = u.ID
	}

	for _, ref := range b.pending[key] {
		b.bind(ref, u)
	}
	delete(b.pending, key)
	return u, true
}

// merger walks one file. unit is the innermost declaration that
// references are attributed to; class is the innermost type.
type merger struct {
	b      *Builder
	file   string
	scope  *scope
	class  *CodeUnit
	unit   UnitID
	errors []*ModelError
}

func (mg *merger) mergeStatements(stmts []*parser.Node) {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case parser.KindNamespaceDecl:
			saved := mg.scope
			mg.scope = newScope(stmt.Image())
			mg.mergeStatements(stmt.Children)
			mg.scope = saved
		case parser.KindUseDecl:
			mg.scope.addUse(stmt)
		default:
			mg.collect(stmt)
		}
	}
}

// collect records the references below n and merges nested declarations.
func (mg *merger) collect(n *parser.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case parser.KindClassDecl, parser.KindInterfaceDecl, parser.KindTraitDecl, parser.KindEnumDecl:
		mg.mergeType(n)
		return
	case parser.KindFunctionDecl:
		mg.mergeFunction(n)
		return
	case parser.KindType:
		mg.typeRefs(n)
		return
	case parser.KindAllocationExpr:
		mg.classRef(n.Child(0), RefNew)
	case parser.KindInstanceofExpr:
		mg.classRef(n.Child(1), RefInstanceof)
	case parser.KindCatchClause:
		mg.classRefs(n, RefCatch)
	case parser.KindAttribute:
		mg.classRefs(n, RefAttribute)
	case parser.KindAnonymousClass:
		for _, clause := range n.Children {
			if clause.Kind == parser.KindExtendsClause || clause.Kind == parser.KindImplementsClause {
				mg.classRefs(clause, RefType)
			}
		}
		// self and static inside the body name the anonymous class.
		saved := mg.class
		mg.class = nil
		for _, child := range n.Children {
			if child.Kind == parser.KindArguments {
				mg.class = saved
				mg.collect(child)
				mg.class = nil
				continue
			}
			mg.collect(child)
		}
		mg.class = saved
		return
	case parser.KindMethodPostfix:
		if isStaticAccess(n) {
			mg.classRef(n.Child(0), RefStaticCall)
		}
	case parser.KindPropertyPostfix, parser.KindConstantPostfix:
		if isStaticAccess(n) {
			mg.classRef(n.Child(0), RefStatic)
		}
	case parser.KindFunctionPostfix:
		if callee := n.Child(0); callee != nil && callee.Kind == parser.KindIdentifier {
			mg.functionRef(callee)
		}
	}
	for _, child := range n.Children {
		mg.collect(child)
	}
}

func isStaticAccess(n *parser.Node) bool {
	return n.Token != nil && n.Token.Kind == parser.TokenDoubleColon
}

func (mg *merger) add(ref *Reference) *Reference {
	ref.From = mg.unit
	ref.File = mg.file
	mg.b.addReference(ref)
	return ref
}

// classRef records a reference to the class named by n. Dynamic class
// expressions are ignored.
func (mg *merger) classRef(n *parser.Node, kind ReferenceKind) *Reference {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case parser.KindClassReference:
		return mg.add(&Reference{Kind: kind, Name: mg.scope.resolveClass(n.Image()), Span: n.Span, node: n})
	case parser.KindSelfReference, parser.KindStaticReference:
		if mg.class == nil {
			return nil
		}
		return mg.add(&Reference{Kind: kind, Name: mg.class.QualifiedName, Span: n.Span, node: n})
	case parser.KindParentReference:
		if mg.class == nil {
			return nil
		}
		return mg.add(&Reference{Kind: kind, Span: n.Span, parentOf: mg.class.ID, node: n})
	}
	return nil
}

func (mg *merger) classRefs(n *parser.Node, kind ReferenceKind) []*Reference {
	var refs []*Reference
	for _, child := range n.Children {
		if ref := mg.classRef(child, kind); ref != nil {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (mg *merger) typeRefs(typ *parser.Node) {
	parser.Walk(typ, func(n *parser.Node) bool {
		mg.classRef(n, RefType)
		return true
	})
}

func (mg *merger) functionRef(callee *parser.Node) {
	name, fallback := mg.scope.resolveFunction(callee.Image())
	mg.add(&Reference{Kind: RefFunctionCall, Name: name, Fallback: fallback, Span: callee.Span, node: callee})
}

// docRefs parses a doc comment and records the classes named in its
// typed tags.
func (mg *merger) docRefs(doc *parser.Token) *docblock.DocBlock {
	if doc == nil {
		return nil
	}
	block := docblock.Parse(doc.Literal)
	for _, expr := range block.TypeExpressions() {
		for _, name := range docblock.ClassNames(expr) {
			mg.add(&Reference{Kind: RefDoc, Name: mg.scope.resolveClass(name), Span: doc.Span})
		}
	}
	return block
}

func (mg *merger) duplicate(u, kept *CodeUnit) {
	mg.errors = append(mg.errors, &ModelError{
		File:     mg.file,
		Pos:      u.Span.Start,
		Name:     string(u.ID),
		Previous: kept.Span.Start,
		Err:      ErrDuplicateDeclaration,
	})
}

func (mg *merger) enter(u *CodeUnit) func() {
	savedClass, savedUnit := mg.class, mg.unit
	if u.Kind.IsType() {
		mg.class = u
	}
	mg.unit = u.ID
	return func() {
		mg.class, mg.unit = savedClass, savedUnit
	}
}

var typeKinds = map[parser.NodeKind]UnitKind{
	parser.KindClassDecl:     UnitClass,
	parser.KindInterfaceDecl: UnitInterface,
	parser.KindTraitDecl:     UnitTrait,
	parser.KindEnumDecl:      UnitEnum,
}

func (mg *merger) mergeType(node *parser.Node) {
	name := node.Image()
	qn := qualify(mg.scope.namespace, name)
	u := &CodeUnit{
		ID:            UnitID(qn),
		Kind:          typeKinds[node.Kind],
		Name:          name,
		QualifiedName: qn,
		Namespace:     mg.scope.namespace,
		File:          mg.file,
		Visibility:    VisibilityPublic,
		Span:          node.Span,
		Node:          node,
	}
	applyModifiers(u, node.FirstChildOfKind(parser.KindModifiers))

	kept, ok := mg.b.register(u)
	if !ok {
		mg.duplicate(u, kept)
		return
	}
	node.Bind(u)
	defer mg.enter(u)()

	u.Doc = mg.docRefs(node.Doc)
	for _, child := range node.Children {
		switch child.Kind {
		case parser.KindAttribute:
			mg.collect(child)
		case parser.KindExtendsClause:
			if u.Kind == UnitClass {
				u.Parent = mg.classRef(child.Child(0), RefExtends)
			} else {
				u.Interfaces = append(u.Interfaces, mg.classRefs(child, RefExtends)...)
			}
		case parser.KindImplementsClause:
			u.Interfaces = append(u.Interfaces, mg.classRefs(child, RefImplements)...)
		case parser.KindType:
			u.BackingType = typeString(mg.scope, child)
		case parser.KindClassBody:
			mg.mergeClassBody(u, child)
		}
	}
}

func (mg *merger) mergeClassBody(u *CodeUnit, body *parser.Node) {
	for _, member := range body.Children {
		switch member.Kind {
		case parser.KindTraitUse:
			for _, child := range member.Children {
				switch child.Kind {
				case parser.KindClassReference:
					if ref := mg.classRef(child, RefTrait); ref != nil {
						u.Traits = append(u.Traits, ref)
					}
				case parser.KindTraitAdaptation:
					mg.classRefs(child, RefTrait)
				}
			}
		case parser.KindMethodDecl:
			mg.mergeMethod(u, member)
		case parser.KindPropertyDecl:
			mg.mergeProperty(u, member)
			mg.collect(member)
		case parser.KindClassConstDecl:
			for _, decl := range member.ChildrenOfKind(parser.KindConstDeclarator) {
				u.Constants = append(u.Constants, decl.Image())
			}
			mg.collect(member)
		case parser.KindEnumCase:
			u.Cases = append(u.Cases, member.Image())
			mg.collect(member)
		}
	}
}

func (mg *merger) mergeProperty(owner *CodeUnit, decl *parser.Node) {
	mods := modifiers(decl.FirstChildOfKind(parser.KindModifiers))
	typ := ""
	if t := decl.FirstChildOfKind(parser.KindType); t != nil {
		typ = typeString(mg.scope, t)
	}
	mg.docRefs(decl.Doc)
	for _, d := range decl.ChildrenOfKind(parser.KindPropertyDeclarator) {
		owner.Properties = append(owner.Properties, Property{
			Name:       d.Image(),
			Type:       typ,
			Visibility: mods.visibility,
			IsStatic:   mods.static,
			IsReadonly: mods.readonly,
		})
	}
}

func (mg *merger) mergeMethod(owner *CodeUnit, node *parser.Node) {
	name := node.Image()
	id := UnitID(owner.QualifiedName + "::" + name)
	u := &CodeUnit{
		ID:            id,
		Kind:          UnitMethod,
		Name:          name,
		QualifiedName: string(id),
		Namespace:     owner.Namespace,
		File:          mg.file,
		Visibility:    VisibilityPublic,
		Owner:         owner.ID,
		Span:          node.Span,
		Node:          node,
	}
	applyModifiers(u, node.FirstChildOfKind(parser.KindModifiers))
	if owner.Kind == UnitInterface {
		u.IsAbstract = true
	}

	kept, ok := mg.b.register(u)
	if !ok {
		mg.duplicate(u, kept)
		return
	}
	owner.Methods = append(owner.Methods, u.ID)
	node.Bind(u)
	mg.mergeCallable(u, node)

	// Promoted constructor parameters declare properties.
	params := node.FirstChildOfKind(parser.KindParameters)
	if params == nil {
		return
	}
	for _, param := range params.ChildrenOfKind(parser.KindParameter) {
		mods := modifiers(param.FirstChildOfKind(parser.KindModifiers))
		if !mods.promoted {
			continue
		}
		prop := Property{Name: param.Image(), Visibility: mods.visibility, IsReadonly: mods.readonly}
		if t := param.FirstChildOfKind(parser.KindType); t != nil {
			prop.Type = typeString(mg.scope, t)
		}
		owner.Properties = append(owner.Properties, prop)
	}
}

func (mg *merger) mergeFunction(node *parser.Node) {
	name := node.Image()
	qn := qualify(mg.scope.namespace, name)
	u := &CodeUnit{
		ID:            UnitID(qn + "()"),
		Kind:          UnitFunction,
		Name:          name,
		QualifiedName: qn,
		Namespace:     mg.scope.namespace,
		File:          mg.file,
		Visibility:    VisibilityPublic,
		Span:          node.Span,
		Node:          node,
	}
	applyModifiers(u, node.FirstChildOfKind(parser.KindModifiers))

	kept, ok := mg.b.register(u)
	if !ok {
		mg.duplicate(u, kept)
		return
	}
	node.Bind(u)
	mg.mergeCallable(u, node)
}

// mergeCallable fills in the signature of a function or method and
// collects the references of its body.
func (mg *merger) mergeCallable(u *CodeUnit, node *parser.Node) {
	defer mg.enter(u)()
	u.Doc = mg.docRefs(node.Doc)
	for _, child := range node.Children {
		switch child.Kind {
		case parser.KindParameters:
			u.Parameters = parameters(mg.scope, child)
		case parser.KindType:
			u.ReturnType = typeString(mg.scope, child)
		}
		mg.collect(child)
	}
}

func parameters(s *scope, list *parser.Node) []Parameter {
	var params []Parameter
	for _, node := range list.ChildrenOfKind(parser.KindParameter) {
		mods := modifiers(node.FirstChildOfKind(parser.KindModifiers))
		p := Parameter{
			Name:     node.Image(),
			ByRef:    mods.byRef,
			Variadic: mods.variadic,
			Promoted: mods.promoted,
		}
		for _, child := range node.Children {
			switch child.Kind {
			case parser.KindType:
				p.Type = typeString(s, child)
			case parser.KindAttribute, parser.KindModifiers:
			default:
				p.HasDefault = true
			}
		}
		params = append(params, p)
	}
	return params
}

type modifierSet struct {
	visibility Visibility
	abstract   bool
	final      bool
	static     bool
	readonly   bool
	byRef      bool
	variadic   bool
	promoted   bool
}

func modifiers(node *parser.Node) modifierSet {
	set := modifierSet{visibility: VisibilityPublic}
	if node == nil {
		return set
	}
	for _, child := range node.Children {
		switch strings.ToLower(child.Image()) {
		case "public":
			set.visibility = VisibilityPublic
			set.promoted = true
		case "protected":
			set.visibility = VisibilityProtected
			set.promoted = true
		case "private":
			set.visibility = VisibilityPrivate
			set.promoted = true
		case "abstract":
			set.abstract = true
		case "final":
			set.final = true
		case "static":
			set.static = true
		case "readonly":
			set.readonly = true
			set.promoted = true
		case "&":
			set.byRef = true
		case "...":
			set.variadic = true
		}
	}
	return set
}

func applyModifiers(u *CodeUnit, node *parser.Node) {
	set := modifiers(node)
	u.Visibility = set.visibility
	u.IsAbstract = set.abstract
	u.IsFinal = set.final
	u.IsStatic = set.static
	u.IsReadonly = set.readonly
	u.ByReference = set.byRef
}

// typeString renders a type declaration with class names resolved.
func typeString(s *scope, n *parser.Node) string {
	switch n.Kind {
	case parser.KindClassReference:
		return s.resolveClass(n.Image())
	case parser.KindType:
		if n.Token != nil && n.Token.Kind == parser.TokenQuestion {
			return "?" + typeString(s, n.Child(0))
		}
		parts := make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			part := typeString(s, child)
			if child.Kind == parser.KindType && len(child.Children) > 1 {
				part = "(" + part + ")"
			}
			parts = append(parts, part)
		}
		sep := ""
		if n.Token != nil {
			sep = n.Token.Literal
		}
		return strings.Join(parts, sep)
	}
	return strings.ToLower(n.Image())
}
