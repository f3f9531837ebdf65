package parser

import "testing"

type testSymbol string

func (s testSymbol) SymbolID() string { return string(s) }

func TestNodeKindString(t *testing.T) {
	tests := []struct {
		kind     NodeKind
		expected string
	}{
		{KindCompilationUnit, "CompilationUnit"},
		{KindClassReference, "ClassOrInterfaceReference"},
		{KindMethodPostfix, "MethodPostfix"},
		{NodeKind(9999), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("NodeKind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}

func TestNodeAddChild(t *testing.T) {
	parent := &Node{Kind: KindBlock}
	parent.AddChild(&Node{Kind: KindEmptyStmt})
	parent.AddChild(nil)
	if len(parent.Children) != 1 {
		t.Errorf("got %d children, want 1", len(parent.Children))
	}
	if parent.Child(5) != nil || parent.Child(-1) != nil {
		t.Error("out of range Child should be nil")
	}
}

func TestNodeBindOnce(t *testing.T) {
	n := &Node{Kind: KindClassDecl}
	if !n.Bind(testSymbol("a")) {
		t.Fatal("first Bind failed")
	}
	if n.Bind(testSymbol("b")) {
		t.Error("second Bind succeeded")
	}
	if got := n.Symbol().SymbolID(); got != "a" {
		t.Errorf("Symbol() = %q, want a", got)
	}
}

func TestNodeSiblings(t *testing.T) {
	a, b, c := &Node{Kind: KindLiteral}, &Node{Kind: KindVariable}, &Node{Kind: KindConstant}
	parent := &Node{Kind: KindArguments, Children: []*Node{a, b, c}}
	if NextSibling(parent, a) != b || PrevSibling(parent, c) != b {
		t.Error("sibling lookup failed")
	}
	if NextSibling(parent, c) != nil || PrevSibling(parent, a) != nil {
		t.Error("expected nil at the ends")
	}
}

func TestEqual(t *testing.T) {
	src := []byte("<?php $a->b($c, 1 + 2);")
	first, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(first, second) {
		t.Error("parsing the same input twice should give equal trees")
	}
	other, err := Parse([]byte("<?php $a->b($c, 1 - 2);"))
	if err != nil {
		t.Fatal(err)
	}
	if Equal(first, other) {
		t.Error("trees with different operators compared equal")
	}
	if !EqualShape(first, first) {
		t.Error("EqualShape must be reflexive")
	}
}

func TestWalk(t *testing.T) {
	root, err := Parse([]byte("<?php function f() { g(); h(); }"))
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	Walk(root, func(n *Node) bool {
		if n.Kind == KindFunctionPostfix {
			calls++
		}
		return true
	})
	if calls != 2 {
		t.Errorf("saw %d calls, want 2", calls)
	}

	depth, maxDepth := 0, 0
	Inspect(root, func(*Node) bool {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		return true
	}, func(*Node) {
		depth--
	})
	if depth != 0 || maxDepth < 4 {
		t.Errorf("depth=%d maxDepth=%d", depth, maxDepth)
	}
}
