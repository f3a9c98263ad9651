package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// MarshalGraph converts a query to indented JSON bytes.
func MarshalGraph(q *querygraph.Query) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(q, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a query as JSON to an io.Writer.
func WriteGraph(q *querygraph.Query, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromQuery(q)); err != nil {
		return sverrors.Wrap(sverrors.ErrCodeInternal, err, "encode graph")
	}
	return nil
}

// WriteGraphFile writes a query to a JSON file.
func WriteGraphFile(q *querygraph.Query, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return sverrors.Wrap(sverrors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return WriteGraph(q, f)
}

// UnmarshalGraph deserializes JSON bytes to a Graph without rebuilding
// the query.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, sverrors.Wrap(sverrors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return g, nil
}

// ReadGraph decodes a JSON graph from an io.Reader and rebuilds the query.
func ReadGraph(r io.Reader) (*querygraph.Query, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return ToQuery(g)
}

// ReadGraphFile reads a JSON file and rebuilds the query.
func ReadGraphFile(path string) (*querygraph.Query, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, sverrors.Wrap(sverrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return ReadGraph(f)
}
