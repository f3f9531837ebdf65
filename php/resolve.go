package php

import (
	"strings"

	"github.com/dhamidi/pdepend/php/parser"
)

// scope holds the namespace and imports in effect for a part of a file.
type scope struct {
	namespace string
	classes   map[string]string
	functions map[string]string
	constants map[string]string
}

func newScope(namespace string) *scope {
	return &scope{
		namespace: strings.TrimPrefix(namespace, `\`),
		classes:   make(map[string]string),
		functions: make(map[string]string),
		constants: make(map[string]string),
	}
}

func (s *scope) addUse(decl *parser.Node) {
	for _, clause := range decl.ChildrenOfKind(parser.KindUseClause) {
		name := strings.TrimPrefix(clause.Child(0).Image(), `\`)
		alias := lastSegment(name)
		if a := clause.Child(1); a != nil {
			alias = a.Image()
		}
		target := s.classes
		if clause.Token != nil {
			switch strings.ToLower(clause.Token.Literal) {
			case "function":
				target = s.functions
			case "const":
				target = s.constants
			}
		}
		target[strings.ToLower(alias)] = name
	}
}

// resolveClass applies the PHP rules for class names: fully qualified
// names are kept, "namespace\" is relative to the current namespace, the
// first segment may be an imported alias, and anything else is prefixed
// with the current namespace.
func (s *scope) resolveClass(name string) string {
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	if rest, ok := cutPrefixFold(name, `namespace\`); ok {
		return qualify(s.namespace, rest)
	}
	first, rest, qualified := strings.Cut(name, `\`)
	if target, ok := s.classes[strings.ToLower(first)]; ok {
		if qualified {
			return target + `\` + rest
		}
		return target
	}
	return qualify(s.namespace, name)
}

// resolveFunction returns the qualified function name and, for
// unqualified calls inside a namespace, the global fallback.
func (s *scope) resolveFunction(name string) (string, string) {
	if strings.HasPrefix(name, `\`) {
		return name[1:], ""
	}
	if rest, ok := cutPrefixFold(name, `namespace\`); ok {
		return qualify(s.namespace, rest), ""
	}
	if first, rest, qualified := strings.Cut(name, `\`); qualified {
		if target, ok := s.classes[strings.ToLower(first)]; ok {
			return target + `\` + rest, ""
		}
		return qualify(s.namespace, name), ""
	}
	if target, ok := s.functions[strings.ToLower(name)]; ok {
		return target, ""
	}
	if s.namespace == "" {
		return name, ""
	}
	return s.namespace + `\` + name, name
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
