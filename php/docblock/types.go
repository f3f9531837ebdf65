package docblock

import "strings"

var pseudoTypes = map[string]bool{
	"int": true, "integer": true, "float": true, "double": true,
	"string": true, "bool": true, "boolean": true, "array": true,
	"mixed": true, "void": true, "null": true, "false": true, "true": true,
	"callable": true, "iterable": true, "object": true, "resource": true,
	"self": true, "static": true, "parent": true, "$this": true,
	"never": true, "list": true, "scalar": true, "numeric": true,
	"key-of": true, "value-of": true,
}

// ClassNames extracts the names in a type expression that denote classes
// or interfaces. Built-in and pseudo types, array shape keys and literal
// values are skipped.
func ClassNames(expr string) []string {
	var names []string
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		ch := runes[i]
		switch {
		case ch == '\'' || ch == '"':
			i = skipQuoted(runes, i)
			continue
		case ch == '\\' || isIdentifierStart(ch) || ch == '$':
			start := i
			i++
			for i < len(runes) && (isIdentifierPart(runes[i]) || runes[i] == '\\' || runes[i] == '-') {
				i++
			}
			name := string(runes[start:i])
			if isShapeKey(runes, i) || ch == '$' || isConstantName(runes, start) {
				continue
			}
			if !pseudoTypes[strings.ToLower(name)] && !strings.Contains(name, "-") {
				names = append(names, name)
			}
			continue
		}
		i++
	}
	return names
}

// isShapeKey reports whether the name ending before i is followed by a
// single colon, as in array{key: Type}.
func isShapeKey(runes []rune, i int) bool {
	for i < len(runes) && runes[i] == ' ' {
		i++
	}
	return i < len(runes) && runes[i] == ':' && (i+1 >= len(runes) || runes[i+1] != ':')
}

// isConstantName reports whether the name at start follows "::".
func isConstantName(runes []rune, start int) bool {
	return start >= 2 && runes[start-1] == ':' && runes[start-2] == ':'
}

func skipQuoted(runes []rune, i int) int {
	quote := runes[i]
	i++
	for i < len(runes) && runes[i] != quote {
		if runes[i] == '\\' {
			i++
		}
		i++
	}
	return i + 1
}
