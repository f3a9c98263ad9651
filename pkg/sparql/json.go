package sparql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DecodeJSON reads a query AST in its JSON form, as produced by common
// JavaScript SPARQL parsers.
func DecodeJSON(r io.Reader) (*Query, error) {
	var q Query
	dec := json.NewDecoder(r)
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("decode query ast: %w", err)
	}
	if q.Type != TypeQuery && q.Type != TypeUpdate {
		return nil, fmt.Errorf("decode query ast: unknown request type %q", q.Type)
	}
	if q.Prefixes == nil {
		q.Prefixes = map[string]string{}
	}
	return &q, nil
}

// EncodeJSON writes q in the same JSON form DecodeJSON accepts.
func EncodeJSON(w io.Writer, q *Query) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}

func isJSONString(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '"'
}

// MarshalJSON encodes a plain predicate as a string and a path as an object.
func (p Predicate) MarshalJSON() ([]byte, error) {
	if p.Path == nil {
		return json.Marshal(p.Term)
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		*Path
	}{Type: "path", Path: p.Path})
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	if isJSONString(data) {
		*p = Predicate{}
		return json.Unmarshal(data, &p.Term)
	}
	var raw struct {
		Type string `json:"type"`
		Path
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type != "path" {
		return fmt.Errorf("predicate: unexpected object type %q", raw.Type)
	}
	path := raw.Path
	*p = Predicate{Path: &path}
	return nil
}

type expressionJSON struct {
	Type        string       `json:"type"`
	Operator    string       `json:"operator,omitempty"`
	Function    string       `json:"function,omitempty"`
	Aggregation string       `json:"aggregation,omitempty"`
	Distinct    bool         `json:"distinct,omitempty"`
	Separator   string       `json:"separator,omitempty"`
	Args        []Expression `json:"args,omitempty"`
	Expression  *Expression  `json:"expression,omitempty"`
	Triples     []Triple     `json:"triples,omitempty"`
	Patterns    []Pattern    `json:"patterns,omitempty"`
}

// MarshalJSON encodes a term as a string and everything else as an object.
func (e Expression) MarshalJSON() ([]byte, error) {
	if e.Type == "" {
		return json.Marshal(e.Term)
	}
	return json.Marshal(expressionJSON{
		Type:        e.Type,
		Operator:    e.Operator,
		Function:    e.Function,
		Aggregation: e.Aggregation,
		Distinct:    e.Distinct,
		Separator:   e.Separator,
		Args:        e.Args,
		Expression:  e.Expression,
		Triples:     e.Triples,
		Patterns:    e.Patterns,
	})
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (e *Expression) UnmarshalJSON(data []byte) error {
	if isJSONString(data) {
		*e = Expression{}
		return json.Unmarshal(data, &e.Term)
	}
	var raw expressionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == "" {
		return fmt.Errorf("expression: object without type")
	}
	*e = Expression{
		Type:        raw.Type,
		Operator:    raw.Operator,
		Function:    raw.Function,
		Aggregation: raw.Aggregation,
		Distinct:    raw.Distinct,
		Separator:   raw.Separator,
		Args:        raw.Args,
		Expression:  raw.Expression,
		Triples:     raw.Triples,
		Patterns:    raw.Patterns,
	}
	return nil
}

type projectionJSON struct {
	Expression *Expression `json:"expression"`
	Variable   string      `json:"variable"`
}

// MarshalJSON encodes a plain variable as a string and a computed
// projection as {expression, variable}.
func (p Projection) MarshalJSON() ([]byte, error) {
	if p.Expression == nil {
		return json.Marshal(p.Variable)
	}
	return json.Marshal(projectionJSON{Expression: p.Expression, Variable: p.Variable})
}

// UnmarshalJSON accepts either form written by MarshalJSON.
func (p *Projection) UnmarshalJSON(data []byte) error {
	if isJSONString(data) {
		*p = Projection{}
		return json.Unmarshal(data, &p.Variable)
	}
	var raw projectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Projection{Variable: raw.Variable, Expression: raw.Expression}
	return nil
}
