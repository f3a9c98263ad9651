package graph

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// EncodeSnapshot serializes a query as MessagePack, the compact form kept
// in caches. Field names follow the JSON document.
func EncodeSnapshot(q *querygraph.Query) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	if err := enc.Encode(FromQuery(q)); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInternal, err, "encode snapshot")
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot rebuilds a query from EncodeSnapshot output.
func DecodeSnapshot(data []byte) (*querygraph.Query, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var g Graph
	if err := dec.Decode(&g); err != nil {
		return nil, sverrors.Wrap(sverrors.ErrCodeInvalidFormat, err, "decode snapshot")
	}
	return ToQuery(g)
}
