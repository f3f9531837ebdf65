package php

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeResolution(t *testing.T) {
	root := parse(t, "a.php", `<?php
namespace App\Http;

use Lib\Log\Logger, Lib\Util as U;
use function Lib\fmt\format;
use Lib\{Cache, Queue as Q};
`)
	ns := root.Child(0)
	require.NotNil(t, ns)

	s := newScope(ns.Image())
	for _, stmt := range ns.Children {
		s.addUse(stmt)
	}

	classes := []struct {
		name string
		want string
	}{
		{`\Foo`, `Foo`},
		{`Foo`, `App\Http\Foo`},
		{`namespace\Foo`, `App\Http\Foo`},
		{`Logger`, `Lib\Log\Logger`},
		{`logger`, `Lib\Log\Logger`},
		{`U\Str`, `Lib\Util\Str`},
		{`Cache`, `Lib\Cache`},
		{`Q`, `Lib\Queue`},
		{`Sub\Foo`, `App\Http\Sub\Foo`},
	}
	for _, tt := range classes {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.resolveClass(tt.name))
		})
	}

	functions := []struct {
		name     string
		want     string
		fallback string
	}{
		{`strlen`, `App\Http\strlen`, `strlen`},
		{`\strlen`, `strlen`, ""},
		{`format`, `Lib\fmt\format`, ""},
		{`U\trim`, `Lib\Util\trim`, ""},
		{`namespace\run`, `App\Http\run`, ""},
	}
	for _, tt := range functions {
		t.Run(tt.name+"()", func(t *testing.T) {
			name, fallback := s.resolveFunction(tt.name)
			assert.Equal(t, tt.want, name)
			assert.Equal(t, tt.fallback, fallback)
		})
	}
}

func TestGlobalScope(t *testing.T) {
	s := newScope("")
	assert.Equal(t, "Foo", s.resolveClass("Foo"))
	name, fallback := s.resolveFunction("strlen")
	assert.Equal(t, "strlen", name)
	assert.Equal(t, "", fallback)
}
