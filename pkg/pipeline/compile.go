package pipeline

import (
	"github.com/matzehuels/sparqlviz/pkg/compiler"
	"github.com/matzehuels/sparqlviz/pkg/sparql/parser"
)

// Compile parses text with the given default prefixes and builds its query
// graph. A nil prefix map means [parser.DefaultPrefixes].
//
// Malformed text yields an INVALID_QUERY error wrapping a
// [*parser.ParseError].
func Compile(text string, prefixes map[string]string) (*compiler.Result, error) {
	if prefixes == nil {
		prefixes = parser.DefaultPrefixes
	}
	ast, err := parser.ParseWithPrefixes(text, prefixes)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(ast)
}
