package php

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/pdepend/php/parser"
)

func parse(t *testing.T, file, src string) *parser.Node {
	t.Helper()
	root, err := parser.Parse([]byte(src), parser.WithFile(file))
	require.NoError(t, err, "parse %s", file)
	return root
}

type sourceFile struct {
	name string
	src  string
}

var orderFiles = []sourceFile{
	{"a.php", `<?php
namespace App;

use Lib\Logger;

class A extends Base implements I {
    public function __construct(private Logger $log) {}

    public function run(): void {
        helper();
        $x = new Widget();
    }
}
`},
	{"b.php", `<?php
namespace App;

interface I {}

abstract class Base {}

function helper() {}
`},
	{"c.php", `<?php
namespace Lib;

class Logger {}
`},
}

func build(t *testing.T, files ...sourceFile) (*Builder, []*UnresolvedReferenceWarning) {
	t.Helper()
	b := NewBuilder()
	for _, f := range files {
		errs := b.Merge(f.name, parse(t, f.name, f.src))
		require.Empty(t, errs)
	}
	return b, b.Resolve()
}

func warningStrings(warnings []*UnresolvedReferenceWarning) []string {
	var result []string
	for _, w := range warnings {
		result = append(result, w.Error())
	}
	return result
}

func TestMergeDeclarations(t *testing.T) {
	b, _ := build(t, orderFiles...)
	m := b.Model()

	a, ok := m.Lookup(`\app\a`)
	require.True(t, ok)
	assert.Equal(t, UnitID(`App\A`), a.ID)
	assert.Equal(t, UnitClass, a.Kind)
	assert.Equal(t, "App", a.Namespace)
	assert.Equal(t, "a.php", a.File)
	require.NotNil(t, a.Parent)
	assert.Equal(t, UnitID(`App\Base`), a.Parent.Target)
	require.Len(t, a.Interfaces, 1)
	assert.Equal(t, UnitID(`App\I`), a.Interfaces[0].Target)

	assert.Equal(t, []UnitID{`App\A::__construct`, `App\A::run`}, a.Methods)
	assert.Equal(t, []Property{{Name: "$log", Type: `Lib\Logger`, Visibility: VisibilityPrivate}}, a.Properties)

	run, ok := m.Lookup(`App\A::RUN`)
	require.True(t, ok)
	assert.Equal(t, UnitMethod, run.Kind)
	assert.Equal(t, a.ID, run.Owner)
	assert.Equal(t, "void", run.ReturnType)

	ctor, ok := m.Unit(`App\A::__construct`)
	require.True(t, ok)
	require.Len(t, ctor.Parameters, 1)
	assert.Equal(t, Parameter{Name: "$log", Type: `Lib\Logger`, Promoted: true}, ctor.Parameters[0])

	base, ok := m.Unit(`App\Base`)
	require.True(t, ok)
	assert.True(t, base.IsAbstract)

	helper, ok := m.Lookup(`App\helper()`)
	require.True(t, ok)
	assert.Equal(t, UnitFunction, helper.Kind)
	assert.Equal(t, `App\helper`, helper.QualifiedName)

	assert.Same(t, a, a.Node.Symbol())
	assert.Len(t, m.Children(a.ID), 2)
	assert.Equal(t, []string{"a.php", "b.php", "c.php"}, m.Files())

	var names []string
	for _, ns := range m.Namespaces() {
		names = append(names, ns.Name)
	}
	assert.Equal(t, []string{"App", "Lib"}, names)
	id, ok := m.Namespaces()[0].Lookup("HELPER()")
	assert.True(t, ok)
	assert.Equal(t, UnitID(`App\helper()`), id)
}

func TestMergeOrderIndependence(t *testing.T) {
	forward, forwardWarnings := build(t, orderFiles[0], orderFiles[1], orderFiles[2])
	backward, backwardWarnings := build(t, orderFiles[2], orderFiles[1], orderFiles[0])

	want := []Dependency{
		{From: `App\A`, To: `App\Base`, Kind: DependencyInherits},
		{From: `App\A`, To: `App\I`, Kind: DependencyImplements},
		{From: `App\A::__construct`, To: `Lib\Logger`, Kind: DependencyUses},
		{From: `App\A::run`, To: `App\helper()`, Kind: DependencyCalls},
	}
	assert.Equal(t, want, forward.Model().Dependencies())
	assert.Equal(t, want, backward.Model().Dependencies())

	assert.Equal(t, warningStrings(forwardWarnings), warningStrings(backwardWarnings))
	require.Len(t, forwardWarnings, 1)
	assert.Equal(t, `App\Widget`, forwardWarnings[0].Reference.Name)
	assert.Equal(t, RefNew, forwardWarnings[0].Reference.Kind)
}

func TestLateInterfaceResolution(t *testing.T) {
	b := NewBuilder()
	require.Empty(t, b.Merge("a.php", parse(t, "a.php", `<?php class A implements I {}`)))

	a, ok := b.Model().Lookup("A")
	require.True(t, ok)
	require.Len(t, a.Interfaces, 1)
	assert.False(t, a.Interfaces[0].Resolved())

	require.Empty(t, b.Merge("i.php", parse(t, "i.php", `<?php interface I {}`)))
	assert.True(t, a.Interfaces[0].Resolved())
	assert.Equal(t, UnitID("I"), a.Interfaces[0].Target)

	ref := a.Node.FirstChildOfKind(parser.KindImplementsClause).Child(0)
	require.NotNil(t, ref.Symbol())
	assert.Equal(t, "I", ref.Symbol().SymbolID())

	assert.Empty(t, b.Resolve())
	assert.Equal(t, []Dependency{{From: "A", To: "I", Kind: DependencyImplements}}, b.Model().Dependencies())
}

func TestDuplicateDeclaration(t *testing.T) {
	b := NewBuilder()
	require.Empty(t, b.Merge("a.php", parse(t, "a.php", `<?php class Foo {}`)))
	errs := b.Merge("b.php", parse(t, "b.php", `<?php class foo { function x() {} }`))

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDuplicateDeclaration)
	assert.Equal(t, "b.php", errs[0].File)
	assert.Contains(t, errs[0].Error(), "duplicate declaration of foo")
	assert.Equal(t, errs, b.Model().Errors())

	foo, ok := b.Model().Lookup("FOO")
	require.True(t, ok)
	assert.Equal(t, "a.php", foo.File)
	assert.Equal(t, "Foo", foo.Name)
	assert.Empty(t, foo.Methods)
	_, ok = b.Model().Lookup("foo::x")
	assert.False(t, ok)
}

func TestUnresolvedWarnings(t *testing.T) {
	b := NewBuilder()
	require.Empty(t, b.Merge("a.php", parse(t, "a.php", `<?php
namespace App;

class A extends Missing {
    public function f(Gone $g) {
        parent::f($g);
    }
}

class Orphan {
    public function f() {
        return parent::f();
    }
}
`)))
	warnings := b.Resolve()
	messages := warningStrings(warnings)
	require.Len(t, messages, 4)
	assert.Contains(t, messages[0], `unresolved extends reference App\Missing`)
	assert.Contains(t, messages[1], `unresolved type reference App\Gone`)
	assert.Contains(t, messages[2], `unresolved static call reference App\Missing`)
	assert.Contains(t, messages[3], `unresolved static call reference parent of App\Orphan`)
	assert.Equal(t, warnings, b.Model().Warnings())

	for _, w := range warnings {
		assert.False(t, w.Reference.Resolved())
	}
}

func TestFunctionFallback(t *testing.T) {
	b, warnings := build(t,
		sourceFile{"a.php", `<?php
namespace App;

function run() {
    helper();
    local();
    \strict();
}
`},
		sourceFile{"b.php", `<?php
function helper() {}
function local() {}
function strict() {}
`},
		sourceFile{"c.php", `<?php
namespace App;

function local() {}
`},
	)
	assert.Empty(t, warnings)
	assert.Equal(t, []Dependency{
		{From: `App\run()`, To: `App\local()`, Kind: DependencyCalls},
		{From: `App\run()`, To: `helper()`, Kind: DependencyCalls},
		{From: `App\run()`, To: `strict()`, Kind: DependencyCalls},
	}, b.Model().Dependencies())
}

func TestSelfAndParent(t *testing.T) {
	b, warnings := build(t, sourceFile{"a.php", `<?php
class Child extends Base {
    public function build() {
        parent::make();
        return self::class;
    }
}

class Base {
    public static function make() {}
}
`})
	assert.Empty(t, warnings)
	assert.Equal(t, []Dependency{
		{From: "Child", To: "Base", Kind: DependencyInherits},
		{From: "Child::build", To: "Base", Kind: DependencyCalls},
	}, b.Model().Dependencies())

	var self *Reference
	for _, ref := range b.Model().References() {
		if ref.Kind == RefStatic {
			self = ref
		}
	}
	require.NotNil(t, self)
	assert.Equal(t, UnitID("Child"), self.Target)
}

func TestAnonymousClassSelf(t *testing.T) {
	b, warnings := build(t, sourceFile{"a.php", `<?php
class Outer {
    public function make() {
        return new class(self::SIZE) extends Base {
            public function copy() {
                return new static();
            }
        };
    }
}

class Base {}
`})
	assert.Empty(t, warnings)
	assert.Equal(t, []Dependency{
		{From: "Outer::make", To: "Base", Kind: DependencyUses},
	}, b.Model().Dependencies())

	var kinds []ReferenceKind
	for _, ref := range b.Model().References() {
		if ref.Target == "Outer" {
			kinds = append(kinds, ref.Kind)
		}
	}
	assert.Equal(t, []ReferenceKind{RefStatic}, kinds)
}

func TestDocBlockReferences(t *testing.T) {
	b, _ := build(t, sourceFile{"a.php", `<?php
namespace App;

use Lib\Logger;

class Service {
    /** @var Logger */
    private $logger;

    /**
     * Handles a request.
     *
     * @param Request $r
     * @return Response|null
     * @throws \RuntimeException
     */
    public function handle($r) {}
}
`})

	got := map[string]UnitID{}
	for _, ref := range b.Model().References() {
		if ref.Kind == RefDoc {
			got[ref.Name] = ref.From
		}
	}
	assert.Equal(t, map[string]UnitID{
		`Lib\Logger`:       `App\Service`,
		`App\Request`:      `App\Service::handle`,
		`App\Response`:     `App\Service::handle`,
		`RuntimeException`: `App\Service::handle`,
	}, got)

	handle, ok := b.Model().Unit(`App\Service::handle`)
	require.True(t, ok)
	require.NotNil(t, handle.Doc)
	assert.Equal(t, "Handles a request.", handle.Doc.Summary)
}

func TestFrozenModel(t *testing.T) {
	b := NewBuilder()
	b.Resolve()
	assert.True(t, b.Model().Frozen())

	errs := b.Merge("a.php", parse(t, "a.php", `<?php class A {}`))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrFrozen)
	_, ok := b.Model().Lookup("A")
	assert.False(t, ok)
}

func TestMarkIncomplete(t *testing.T) {
	b := NewBuilder()
	assert.False(t, b.Model().Incomplete())
	b.MarkIncomplete()
	assert.True(t, b.Model().Incomplete())
}

func TestEnumsAndTraits(t *testing.T) {
	b, warnings := build(t, sourceFile{"a.php", `<?php
trait Greets {
    public function hello() {}
}

interface HasLabel {}

enum Suit: string implements HasLabel {
    use Greets;

    case Hearts = 'H';
    case Spades = 'S';

    const Wild = self::Spades;
}
`})
	assert.Empty(t, warnings)

	suit, ok := b.Model().Lookup("suit")
	require.True(t, ok)
	assert.Equal(t, UnitEnum, suit.Kind)
	assert.Equal(t, "string", suit.BackingType)
	assert.Equal(t, []string{"Hearts", "Spades"}, suit.Cases)
	assert.Equal(t, []string{"Wild"}, suit.Constants)
	require.Len(t, suit.Traits, 1)
	assert.Equal(t, UnitID("Greets"), suit.Traits[0].Target)

	assert.Equal(t, []Dependency{
		{From: "Suit", To: "Greets", Kind: DependencyUses},
		{From: "Suit", To: "HasLabel", Kind: DependencyImplements},
	}, b.Model().Dependencies())
}
