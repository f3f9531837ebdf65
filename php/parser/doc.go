// Package parser tokenizes and parses PHP source files.
//
// The lexer keeps whitespace and comments so that the token stream
// reproduces its input byte for byte. The parser skips them and builds a
// tree of Nodes; the first syntax error aborts the file and is returned as
// one of the error types in this package.
package parser
