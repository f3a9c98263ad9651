package graph

import (
	"bytes"

	"gopkg.in/yaml.v3"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// MarshalYAML renders the graph document as YAML, for reading by people.
func MarshalYAML(q *querygraph.Query) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromQuery(q)); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInternal, err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInternal, err, "encode yaml")
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML rebuilds a query from a YAML graph document.
func UnmarshalYAML(data []byte) (*querygraph.Query, error) {
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInvalidFormat, err, "decode yaml")
	}
	return ToQuery(g)
}
