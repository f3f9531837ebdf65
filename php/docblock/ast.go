// Package docblock parses PHP doc comments and the type expressions used
// in their tags.
package docblock

// Node is implemented by all block tags.
type Node interface {
	node()
}

// DocBlock is a parsed /** ... */ comment.
type DocBlock struct {
	Summary     string
	Description string
	Tags        []Node
}

func (DocBlock) node() {}

// Param is a @param tag. Type is the raw type expression and may be empty.
type Param struct {
	Type        string
	Name        string
	Variadic    bool
	Description string
}

func (Param) node() {}

// Return is a @return tag.
type Return struct {
	Type        string
	Description string
}

func (Return) node() {}

// Var is a @var tag; Name is empty when the tag documents a property.
type Var struct {
	Type        string
	Name        string
	Description string
}

func (Var) node() {}

// Throws is a @throws tag.
type Throws struct {
	Type        string
	Description string
}

func (Throws) node() {}

// UnknownTag holds any tag this package does not interpret.
type UnknownTag struct {
	Name    string
	Content string
}

func (UnknownTag) node() {}

// TypeExpressions returns the type expression of every typed tag, in
// order.
func (d *DocBlock) TypeExpressions() []string {
	var result []string
	for _, tag := range d.Tags {
		switch t := tag.(type) {
		case Param:
			result = append(result, t.Type)
		case Return:
			result = append(result, t.Type)
		case Var:
			result = append(result, t.Type)
		case Throws:
			result = append(result, t.Type)
		}
	}
	return result
}
