package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Node {
	t.Helper()
	root, err := Parse([]byte(src), WithFile("test.php"))
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

func firstExpr(t *testing.T, src string) *Node {
	t.Helper()
	stmt := FirstDescendantOfKind(mustParse(t, src), KindExprStmt)
	require.NotNil(t, stmt, "no expression statement in %q", src)
	return stmt.Child(0)
}

func firstArguments(t *testing.T, src string) *Node {
	t.Helper()
	args := FirstDescendantOfKind(mustParse(t, src), KindArguments)
	require.NotNil(t, args)
	return args
}

func kinds(nodes []*Node) []NodeKind {
	var result []NodeKind
	for _, n := range nodes {
		result = append(result, n.Kind)
	}
	return result
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "BinaryExpr +\n  Literal 1\n  BinaryExpr *\n    Literal 2\n    Literal 3\n"},
		{"$a . $b + 1", "BinaryExpr .\n  Variable $a\n  BinaryExpr +\n    Variable $b\n    Literal 1\n"},
		{"$a ?? $b ?? $c", "BinaryExpr ??\n  Variable $a\n  BinaryExpr ??\n    Variable $b\n    Variable $c\n"},
		{"2 ** 3 ** 4", "BinaryExpr **\n  Literal 2\n  BinaryExpr **\n    Literal 3\n    Literal 4\n"},
		{"-2 ** 2", "UnaryExpr -\n  BinaryExpr **\n    Literal 2\n    Literal 2\n"},
		{"!$a instanceof B", "UnaryExpr !\n  InstanceofExpr instanceof\n    Variable $a\n    ClassOrInterfaceReference B\n"},
		{"$a = $b = 1", "AssignExpr =\n  Variable $a\n  AssignExpr =\n    Variable $b\n    Literal 1\n"},
		{"$a && $b = 1", "BinaryExpr &&\n  Variable $a\n  AssignExpr =\n    Variable $b\n    Literal 1\n"},
		{"$a = 1 or $b", "BinaryExpr or\n  AssignExpr =\n    Variable $a\n    Literal 1\n  Variable $b\n"},
		{"$a ?: $b", "TernaryExpr ?\n  Variable $a\n  Variable $b\n"},
		{"$a++", "PostIncDecExpr ++\n  Variable $a\n"},
		{"(int) $a", "CastExpr int\n  Variable $a\n"},
		{"[$a, $b] = $c", "AssignExpr =\n  ListExpr\n    ArrayElement\n      Variable $a\n    ArrayElement\n      Variable $b\n  Variable $c\n"},
		{"FOO", "Constant FOO\n"},
		{`\Foo\bar()`, "FunctionPostfix\n  Identifier \\Foo\\bar\n  Arguments\n"},
		{"namespace\\foo()", "FunctionPostfix\n  Identifier namespace\\foo\n  Arguments\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := ParseExpression(strings.NewReader(tt.input))
			node, err := p.Finish()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node.String())
		})
	}
}

func TestPostfixChainNesting(t *testing.T) {
	expr := firstExpr(t, "<?php $a->b()->c->d()[0]->e;")
	var chain []NodeKind
	n := expr
	for n.Kind.IsPostfix() {
		chain = append(chain, n.Kind)
		n = n.Child(0)
	}
	assert.Equal(t, []NodeKind{
		KindPropertyPostfix,
		KindIndexPostfix,
		KindMethodPostfix,
		KindPropertyPostfix,
		KindMethodPostfix,
	}, chain)
	assert.Equal(t, KindVariable, n.Kind)
	assert.Equal(t, "$a", n.Image())
}

func TestPostfixChainDepth(t *testing.T) {
	for _, depth := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprint(depth), func(t *testing.T) {
			src := "<?php $o" + strings.Repeat("->m()", depth) + ";"
			n := firstExpr(t, src)
			got := 0
			for n.Kind == KindMethodPostfix {
				got++
				assert.Equal(t, "m", n.Child(1).Image())
				n = n.Child(0)
			}
			assert.Equal(t, depth, got)
			assert.Equal(t, KindVariable, n.Kind)
		})
	}
}

func TestStaticPostfix(t *testing.T) {
	tests := []struct {
		src   string
		kind  NodeKind
		left  NodeKind
		image string
	}{
		{"<?php Foo::bar();", KindMethodPostfix, KindClassReference, "bar"},
		{"<?php Foo::BAR;", KindConstantPostfix, KindClassReference, "BAR"},
		{"<?php Foo::class;", KindConstantPostfix, KindClassReference, "class"},
		{"<?php Foo::$bar;", KindPropertyPostfix, KindClassReference, "$bar"},
		{"<?php static::create();", KindMethodPostfix, KindStaticReference, "create"},
		{"<?php $obj?->name;", KindPropertyPostfix, KindVariable, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n := firstExpr(t, tt.src)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.left, n.Child(0).Kind)
			assert.Equal(t, tt.image, n.Child(1).Image())
		})
	}
}

func TestArgumentShapes(t *testing.T) {
	t.Run("static method postfix", func(t *testing.T) {
		args := firstArguments(t, "<?php foo(Bar::baz());")
		require.Len(t, args.Children, 1)
		call := args.Child(0)
		assert.Equal(t, KindMethodPostfix, call.Kind)
		assert.Equal(t, KindClassReference, call.Child(0).Kind)
		assert.Equal(t, "Bar", call.Child(0).Image())
		assert.Equal(t, KindArguments, call.Child(2).Kind)
	})
	t.Run("method postfix", func(t *testing.T) {
		args := firstArguments(t, "<?php foo($obj->bar());")
		assert.Equal(t, []NodeKind{KindMethodPostfix}, kinds(args.Children))
		assert.Equal(t, KindVariable, args.Child(0).Child(0).Kind)
	})
	t.Run("constant postfix", func(t *testing.T) {
		args := firstArguments(t, "<?php foo(Bar::BAZ);")
		assert.Equal(t, []NodeKind{KindConstantPostfix}, kinds(args.Children))
	})
	t.Run("static property postfix", func(t *testing.T) {
		args := firstArguments(t, "<?php foo(Bar::$baz);")
		prop := args.Child(0)
		assert.Equal(t, KindPropertyPostfix, prop.Kind)
		assert.Equal(t, "::", prop.Image())
		assert.Equal(t, KindVariable, prop.Child(1).Kind)
	})
	t.Run("self property postfix", func(t *testing.T) {
		args := firstArguments(t, "<?php class A { function m() { foo(self::$x); } }")
		assert.Equal(t, KindSelfReference, args.Child(0).Child(0).Kind)
	})
	t.Run("parent method postfix", func(t *testing.T) {
		args := firstArguments(t, "<?php class A extends B { function m() { foo(parent::m()); } }")
		assert.Equal(t, KindMethodPostfix, args.Child(0).Kind)
		assert.Equal(t, KindParentReference, args.Child(0).Child(0).Kind)
	})
	t.Run("allocation expression", func(t *testing.T) {
		args := firstArguments(t, "<?php foo(new Bar());")
		assert.Equal(t, KindAllocationExpr, args.Child(0).Kind)
		assert.Equal(t, "Bar", args.Child(0).Child(0).Image())
	})
	t.Run("function postfix among parameters", func(t *testing.T) {
		args := firstArguments(t, "<?php foo($a, bar(), $c);")
		assert.Equal(t, []NodeKind{KindVariable, KindFunctionPostfix, KindVariable}, kinds(args.Children))
	})
	t.Run("inline comments", func(t *testing.T) {
		args := firstArguments(t, "<?php foo(/* one */ $a /* two */);")
		assert.Equal(t, []NodeKind{KindVariable}, kinds(args.Children))
	})
	t.Run("concat with one method call", func(t *testing.T) {
		args := firstArguments(t, "<?php foo($a . $b->c());")
		assert.Len(t, DescendantsOfKind(args, KindMethodPostfix), 1)
	})
	t.Run("named and spread arguments", func(t *testing.T) {
		args := firstArguments(t, "<?php foo(...$rest, name: 1);")
		assert.Equal(t, []NodeKind{KindSpread, KindNamedArgument}, kinds(args.Children))
		assert.Equal(t, "name", args.Child(1).Image())
	})
	t.Run("first-class callable", func(t *testing.T) {
		args := firstArguments(t, "<?php strlen(...);")
		assert.Equal(t, []NodeKind{KindCallablePlaceholder}, kinds(args.Children))
	})
}

func TestUnclosedArgumentList(t *testing.T) {
	for _, src := range []string{"<?php foo($a, $b;", "<?php foo($a, $b"} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse([]byte(src))
			var unclosed *UnclosedConstructError
			require.ErrorAs(t, err, &unclosed)
			assert.Equal(t, "argument list", unclosed.Construct)
			assert.Equal(t, 9, unclosed.Open.Offset)
			assert.Equal(t, 1, unclosed.Open.Line)
			assert.Equal(t, 10, unclosed.Open.Column)

			var unexpected *UnexpectedTokenError
			assert.ErrorAs(t, err, &unexpected)
			assert.Contains(t, unexpected.Context, "argument list")
		})
	}
}

func TestUnclosedConstructs(t *testing.T) {
	tests := []struct {
		src       string
		construct string
	}{
		{"<?php function f($a, $b { }", "parameter list"},
		{"<?php $x = [1, 2;", "array"},
		{"<?php function f() { echo 1;", "block"},
		{"<?php class A { public $x;", "class body"},
		{"<?php $x = (1 + 2;", "parenthesized expression"},
		{"<?php $x = $a[1;", "index"},
		{"<?php f(", "argument list"},
		{"<?php f($a,", "argument list"},
		{"<?php $o->m(", "argument list"},
		{"<?php function a(", "parameter list"},
		{"<?php function a($x, ", "parameter list"},
		{"<?php $x = [1,", "array"},
		{"<?php $x = array(", "array"},
		{"<?php list($a,", "list"},
		{"<?php isset(", "isset"},
		{"<?php unset($a,", "unset"},
		{"<?php $f = function () use ($a,", "closure use list"},
		{"<?php #[A,", "attribute"},
	}
	for _, tt := range tests {
		t.Run(tt.construct, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			var unclosed *UnclosedConstructError
			require.ErrorAs(t, err, &unclosed, "got %v", err)
			assert.Equal(t, tt.construct, unclosed.Construct)
		})
	}
}

func TestReservedWordsAccepted(t *testing.T) {
	tests := []struct {
		src  string
		kind NodeKind
		name string
	}{
		{"<?php class null {}", KindClassDecl, "null"},
		{"<?php interface true {}", KindInterfaceDecl, "true"},
		{"<?php class False implements null {}", KindClassDecl, "False"},
		{"<?php trait null {}", KindTraitDecl, "null"},
		{"<?php class A { const null = 1; }", KindConstDeclarator, "null"},
		{"<?php class A { function true() {} }", KindMethodDecl, "true"},
		{"<?php class A { public function list() {} }", KindMethodDecl, "list"},
		{"<?php interface I { function print(); }", KindMethodDecl, "print"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			decl := FirstDescendantOfKind(mustParse(t, tt.src), tt.kind)
			require.NotNil(t, decl)
			assert.Equal(t, tt.name, decl.Image())
		})
	}

	impl := FirstDescendantOfKind(mustParse(t, "<?php class Foo implements null {}"), KindImplementsClause)
	require.NotNil(t, impl)
	assert.Equal(t, "null", impl.Child(0).Image())

	call := firstExpr(t, "<?php $a->null()->true;")
	assert.Equal(t, "true", call.Child(1).Image())
	assert.Equal(t, "null", call.Child(0).Child(1).Image())
}

func TestReservedWordsRejected(t *testing.T) {
	tests := []string{
		"<?php function null() {}",
		"<?php function true() {}",
		"<?php true();",
		"<?php new null;",
		"<?php null = 1;",
		"<?php true::x();",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse([]byte(src))
			var unexpected *UnexpectedTokenError
			require.ErrorAs(t, err, &unexpected)
		})
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []string{
		"<?php foo(a: 1, 2);",
		"<?php $x = match($y) { default => 1, default => 2 };",
		"<?php switch ($x) { default: break; default: break; }",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse([]byte(src))
			var syntax *SyntaxError
			require.ErrorAs(t, err, &syntax)
		})
	}
}

func TestCastBacktracking(t *testing.T) {
	p := ParseExpression(strings.NewReader("(int) $a"))
	node, err := p.Finish()
	require.NoError(t, err)
	assert.Equal(t, KindCastExpr, node.Kind)
	assert.Equal(t, 0, p.Backtracks())

	p = ParseExpression(strings.NewReader("(FOO) + 1"))
	node, err = p.Finish()
	require.NoError(t, err)
	assert.Equal(t, KindBinaryExpr, node.Kind)
	assert.Equal(t, KindParenExpr, node.Child(0).Kind)
	assert.Equal(t, 1, p.Backtracks())

	p = ParseExpression(strings.NewReader("(A) + (B)"), WithMaxBacktracks(1))
	_, err = p.Finish()
	assert.True(t, errors.Is(err, ErrTooManyBacktracks), "got %v", err)
	var unexpected *UnexpectedTokenError
	require.ErrorAs(t, err, &unexpected)
	pos, ok := ErrorPosition(err)
	require.True(t, ok)
	assert.Equal(t, unexpected.Pos, pos)
	assert.Equal(t, 1, pos.Line)
}

func TestTypedClassConstant(t *testing.T) {
	root := mustParse(t, "<?php class A { const int X = 1; const Y = 2; }")
	consts := DescendantsOfKind(root, KindClassConstDecl)
	require.Len(t, consts, 2)
	assert.NotNil(t, consts[0].FirstChildOfKind(KindType))
	assert.Nil(t, consts[1].FirstChildOfKind(KindType))
	assert.Equal(t, "X", consts[0].FirstChildOfKind(KindConstDeclarator).Image())
}

func TestInterpolation(t *testing.T) {
	expr := firstExpr(t, `<?php echo_it("Hello {$user->name} and $x[0] ${y} $o->p");`)
	str := FirstDescendantOfKind(expr, KindString)
	require.NotNil(t, str)
	assert.Equal(t, []NodeKind{KindPropertyPostfix, KindIndexPostfix, KindVariable, KindPropertyPostfix}, kinds(str.Children))
	assert.Equal(t, "$y", str.Child(2).Image())

	root := mustParse(t, `<?php echo "a $b";`)
	v := FirstDescendantOfKind(root, KindVariable)
	require.NotNil(t, v)
	assert.Equal(t, 14, v.Span.Start.Offset)
	assert.Equal(t, 15, v.Span.Start.Column)

	heredoc := mustParse(t, "<?php $x = <<<EOT\n  Dear {$name[1]}\n  EOT;\n")
	str = FirstDescendantOfKind(heredoc, KindString)
	require.NotNil(t, str)
	assert.Equal(t, []NodeKind{KindIndexPostfix}, kinds(str.Children))
}

func TestStatements(t *testing.T) {
	t.Run("namespace and group use", func(t *testing.T) {
		root := mustParse(t, "<?php namespace App;\nuse A\\{B, C as D, function f};\nclass X {}\n")
		ns := root.Child(0)
		require.Equal(t, KindNamespaceDecl, ns.Kind)
		assert.Equal(t, "App", ns.Image())
		use := ns.Child(0)
		require.Equal(t, KindUseDecl, use.Kind)
		require.Len(t, use.Children, 3)
		assert.Equal(t, `A\B`, use.Child(0).Child(0).Image())
		assert.Equal(t, "D", use.Child(1).Child(1).Image())
		assert.Equal(t, "function", use.Child(2).Image())
		assert.Equal(t, KindClassDecl, ns.Child(1).Kind)
	})
	t.Run("alternative if syntax", func(t *testing.T) {
		root := mustParse(t, "<?php if ($a): echo 1; elseif ($b): echo 2; else: echo 3; endif;")
		stmt := root.Child(0)
		assert.Equal(t, []NodeKind{KindVariable, KindBlock, KindElseIfClause, KindElseClause}, kinds(stmt.Children))
	})
	t.Run("inline html", func(t *testing.T) {
		root := mustParse(t, "<p><?php echo 1 ?></p>")
		assert.Equal(t, []NodeKind{KindInlineHTML, KindEchoStmt, KindInlineHTML}, kinds(root.Children))
	})
	t.Run("foreach with key and reference", func(t *testing.T) {
		root := mustParse(t, "<?php foreach ($xs as $k => &$v) { }")
		stmt := root.Child(0)
		assert.Equal(t, []NodeKind{KindVariable, KindVariable, KindByReference, KindBlock}, kinds(stmt.Children))
	})
	t.Run("try catch finally", func(t *testing.T) {
		root := mustParse(t, "<?php try { } catch (A | B $e) { } finally { }")
		stmt := root.Child(0)
		assert.Equal(t, []NodeKind{KindBlock, KindCatchClause, KindFinallyClause}, kinds(stmt.Children))
		assert.Len(t, stmt.Child(1).ChildrenOfKind(KindClassReference), 2)
	})
	t.Run("closures", func(t *testing.T) {
		root := mustParse(t, "<?php $f = fn($x) => $x + 1; $g = static function() use (&$a): int { return $a; };")
		assert.NotNil(t, FirstDescendantOfKind(root, KindArrowFunction))
		closure := FirstDescendantOfKind(root, KindClosure)
		require.NotNil(t, closure)
		assert.NotNil(t, closure.FirstChildOfKind(KindClosureUse))
		assert.NotNil(t, closure.FirstChildOfKind(KindType))
	})
	t.Run("match", func(t *testing.T) {
		expr := firstExpr(t, "<?php $r = match($x) { 1, 2 => 'a', default => 'b', };")
		m := expr.Child(1)
		require.Equal(t, KindMatchExpr, m.Kind)
		assert.Len(t, m.ChildrenOfKind(KindMatchArm), 2)
	})
	t.Run("enum", func(t *testing.T) {
		root := mustParse(t, "<?php enum Suit: string implements HasColor { case Hearts = 'H'; case Spades = 'S'; }")
		enum := root.Child(0)
		require.Equal(t, KindEnumDecl, enum.Kind)
		assert.Len(t, DescendantsOfKind(enum, KindEnumCase), 2)
	})
	t.Run("doc comment", func(t *testing.T) {
		root := mustParse(t, "<?php\n/** @return int */\nfunction f() {}")
		fn := root.Child(0)
		require.NotNil(t, fn.Doc)
		assert.Equal(t, "/** @return int */", fn.Doc.Literal)
	})
	t.Run("halt compiler", func(t *testing.T) {
		root := mustParse(t, "<?php __halt_compiler(); raw { data")
		assert.Equal(t, KindHaltCompiler, root.Child(0).Kind)
	})
}

func TestParseContext(t *testing.T) {
	p := ParseCompilationUnit(strings.NewReader("<?php class A { function m( { } }"))
	_, err := p.Finish()
	require.Error(t, err)
	assert.Equal(t, "parameter list", p.Context())
	assert.Contains(t, err.Error(), "parameter list")
}

func TestParseSpans(t *testing.T) {
	root := mustParse(t, "<?php\nclass A {\n}\n")
	class := root.Child(0)
	assert.Equal(t, 2, class.Span.Start.Line)
	assert.Equal(t, 3, class.Span.End.Line)
	assert.Equal(t, 2, class.Span.End.Column)
}
