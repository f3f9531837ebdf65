package parser

import "strings"

type NodeKind int

const (
	KindCompilationUnit NodeKind = iota
	KindInlineHTML
	KindNamespaceDecl
	KindUseDecl
	KindUseClause
	KindConstDecl
	KindConstDeclarator
	KindFunctionDecl
	KindClassDecl
	KindInterfaceDecl
	KindTraitDecl
	KindEnumDecl
	KindEnumCase
	KindAnonymousClass
	KindModifiers
	KindExtendsClause
	KindImplementsClause
	KindClassBody
	KindMethodDecl
	KindPropertyDecl
	KindPropertyDeclarator
	KindClassConstDecl
	KindTraitUse
	KindTraitAdaptation
	KindAttribute
	KindParameters
	KindParameter
	KindType
	KindScalarType

	// Statements
	KindBlock
	KindEmptyStmt
	KindExprStmt
	KindEchoStmt
	KindIfStmt
	KindElseIfClause
	KindElseClause
	KindWhileStmt
	KindDoStmt
	KindForStmt
	KindForInit
	KindForCondition
	KindForUpdate
	KindForeachStmt
	KindSwitchStmt
	KindSwitchCase
	KindBreakStmt
	KindContinueStmt
	KindReturnStmt
	KindGlobalStmt
	KindStaticStmt
	KindStaticVar
	KindUnsetStmt
	KindThrowStmt
	KindTryStmt
	KindCatchClause
	KindFinallyClause
	KindGotoStmt
	KindLabelStmt
	KindDeclareStmt
	KindHaltCompiler

	// Expressions
	KindAssignExpr
	KindTernaryExpr
	KindBinaryExpr
	KindInstanceofExpr
	KindUnaryExpr
	KindCastExpr
	KindPreIncDecExpr
	KindPostIncDecExpr
	KindAllocationExpr
	KindCloneExpr
	KindPrintExpr
	KindYieldExpr
	KindYieldFromExpr
	KindIncludeExpr
	KindIssetExpr
	KindEmptyExpr
	KindExitExpr
	KindThrowExpr
	KindListExpr
	KindArrayLiteral
	KindArrayElement
	KindByReference
	KindSpread
	KindClosure
	KindClosureUse
	KindArrowFunction
	KindMatchExpr
	KindMatchArm
	KindParenExpr
	KindLiteral
	KindString
	KindShellCommand
	KindMagicConstant
	KindConstant
	KindVariable
	KindVariableVariable
	KindIdentifier
	KindClassReference
	KindSelfReference
	KindParentReference
	KindStaticReference
	KindArguments
	KindNamedArgument
	KindCallablePlaceholder

	// Postfix chain links. The first child of each is the operand.
	KindPropertyPostfix
	KindMethodPostfix
	KindConstantPostfix
	KindIndexPostfix
	KindFunctionPostfix
)

var nodeKindNames = map[NodeKind]string{
	KindCompilationUnit:     "CompilationUnit",
	KindInlineHTML:          "InlineHTML",
	KindNamespaceDecl:       "NamespaceDecl",
	KindUseDecl:             "UseDecl",
	KindUseClause:           "UseClause",
	KindConstDecl:           "ConstDecl",
	KindConstDeclarator:     "ConstDeclarator",
	KindFunctionDecl:        "FunctionDecl",
	KindClassDecl:           "ClassDecl",
	KindInterfaceDecl:       "InterfaceDecl",
	KindTraitDecl:           "TraitDecl",
	KindEnumDecl:            "EnumDecl",
	KindEnumCase:            "EnumCase",
	KindAnonymousClass:      "AnonymousClass",
	KindModifiers:           "Modifiers",
	KindExtendsClause:       "ExtendsClause",
	KindImplementsClause:    "ImplementsClause",
	KindClassBody:           "ClassBody",
	KindMethodDecl:          "MethodDecl",
	KindPropertyDecl:        "PropertyDecl",
	KindPropertyDeclarator:  "PropertyDeclarator",
	KindClassConstDecl:      "ClassConstDecl",
	KindTraitUse:            "TraitUse",
	KindTraitAdaptation:     "TraitAdaptation",
	KindAttribute:           "Attribute",
	KindParameters:          "Parameters",
	KindParameter:           "Parameter",
	KindType:                "Type",
	KindScalarType:          "ScalarType",
	KindBlock:               "Block",
	KindEmptyStmt:           "EmptyStmt",
	KindExprStmt:            "ExprStmt",
	KindEchoStmt:            "EchoStmt",
	KindIfStmt:              "IfStmt",
	KindElseIfClause:        "ElseIfClause",
	KindElseClause:          "ElseClause",
	KindWhileStmt:           "WhileStmt",
	KindDoStmt:              "DoStmt",
	KindForStmt:             "ForStmt",
	KindForInit:             "ForInit",
	KindForCondition:        "ForCondition",
	KindForUpdate:           "ForUpdate",
	KindForeachStmt:         "ForeachStmt",
	KindSwitchStmt:          "SwitchStmt",
	KindSwitchCase:          "SwitchCase",
	KindBreakStmt:           "BreakStmt",
	KindContinueStmt:        "ContinueStmt",
	KindReturnStmt:          "ReturnStmt",
	KindGlobalStmt:          "GlobalStmt",
	KindStaticStmt:          "StaticStmt",
	KindStaticVar:           "StaticVar",
	KindUnsetStmt:           "UnsetStmt",
	KindThrowStmt:           "ThrowStmt",
	KindTryStmt:             "TryStmt",
	KindCatchClause:         "CatchClause",
	KindFinallyClause:       "FinallyClause",
	KindGotoStmt:            "GotoStmt",
	KindLabelStmt:           "LabelStmt",
	KindDeclareStmt:         "DeclareStmt",
	KindHaltCompiler:        "HaltCompiler",
	KindAssignExpr:          "AssignExpr",
	KindTernaryExpr:         "TernaryExpr",
	KindBinaryExpr:          "BinaryExpr",
	KindInstanceofExpr:      "InstanceofExpr",
	KindUnaryExpr:           "UnaryExpr",
	KindCastExpr:            "CastExpr",
	KindPreIncDecExpr:       "PreIncDecExpr",
	KindPostIncDecExpr:      "PostIncDecExpr",
	KindAllocationExpr:      "AllocationExpr",
	KindCloneExpr:           "CloneExpr",
	KindPrintExpr:           "PrintExpr",
	KindYieldExpr:           "YieldExpr",
	KindYieldFromExpr:       "YieldFromExpr",
	KindIncludeExpr:         "IncludeExpr",
	KindIssetExpr:           "IssetExpr",
	KindEmptyExpr:           "EmptyExpr",
	KindExitExpr:            "ExitExpr",
	KindThrowExpr:           "ThrowExpr",
	KindListExpr:            "ListExpr",
	KindArrayLiteral:        "ArrayLiteral",
	KindArrayElement:        "ArrayElement",
	KindByReference:         "ByReference",
	KindSpread:              "Spread",
	KindClosure:             "Closure",
	KindClosureUse:          "ClosureUse",
	KindArrowFunction:       "ArrowFunction",
	KindMatchExpr:           "MatchExpr",
	KindMatchArm:            "MatchArm",
	KindParenExpr:           "ParenExpr",
	KindLiteral:             "Literal",
	KindString:              "String",
	KindShellCommand:        "ShellCommand",
	KindMagicConstant:       "MagicConstant",
	KindConstant:            "Constant",
	KindVariable:            "Variable",
	KindVariableVariable:    "VariableVariable",
	KindIdentifier:          "Identifier",
	KindClassReference:      "ClassOrInterfaceReference",
	KindSelfReference:       "SelfReference",
	KindParentReference:     "ParentReference",
	KindStaticReference:     "StaticReference",
	KindArguments:           "Arguments",
	KindNamedArgument:       "NamedArgument",
	KindCallablePlaceholder: "CallablePlaceholder",
	KindPropertyPostfix:     "PropertyPostfix",
	KindMethodPostfix:       "MethodPostfix",
	KindConstantPostfix:     "ConstantPostfix",
	KindIndexPostfix:        "IndexPostfix",
	KindFunctionPostfix:     "FunctionPostfix",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsPostfix reports whether k links a postfix chain.
func (k NodeKind) IsPostfix() bool {
	return k >= KindPropertyPostfix && k <= KindFunctionPostfix
}

// Symbol is a semantic entity a node can be bound to after parsing.
type Symbol interface {
	SymbolID() string
}

type Node struct {
	Kind     NodeKind
	Span     Span
	Children []*Node
	Token    *Token

	// Doc is the doc comment immediately preceding a declaration.
	Doc *Token

	symbol Symbol
}

func (n *Node) AddChild(child *Node) {
	if child != nil {
		n.Children = append(n.Children, child)
	}
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

func (n *Node) FirstChildOfKind(kind NodeKind) *Node {
	for _, child := range n.Children {
		if child.Kind == kind {
			return child
		}
	}
	return nil
}

func (n *Node) ChildrenOfKind(kind NodeKind) []*Node {
	var result []*Node
	for _, child := range n.Children {
		if child.Kind == kind {
			result = append(result, child)
		}
	}
	return result
}

// Image is the node's literal text, or "" when it carries no token.
func (n *Node) Image() string {
	if n.Token != nil {
		return n.Token.Literal
	}
	return ""
}

// Bind attaches a symbol to the node. A node is bound at most once; later
// calls report false and leave the first binding in place.
func (n *Node) Bind(sym Symbol) bool {
	if n.symbol != nil || sym == nil {
		return false
	}
	n.symbol = sym
	return true
}

func (n *Node) Symbol() Symbol {
	return n.symbol
}

func (n *Node) String() string {
	return n.stringIndent(0, false)
}

func (n *Node) StringWithPositions() string {
	return n.stringIndent(0, true)
}

func (n *Node) stringIndent(indent int, showPositions bool) string {
	var sb strings.Builder
	n.writeIndent(&sb, indent, showPositions)
	return sb.String()
}

func (n *Node) writeIndent(sb *strings.Builder, indent int, showPositions bool) {
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(n.Kind.String())
	if showPositions {
		sb.WriteString(" [" + n.Span.Start.String() + "-" + n.Span.End.String() + "]")
	}
	if n.Token != nil {
		sb.WriteString(" " + n.Token.Literal)
	}
	sb.WriteString("\n")
	for _, child := range n.Children {
		child.writeIndent(sb, indent+1, showPositions)
	}
}
