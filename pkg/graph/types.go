package graph

// Format version written into every document and snapshot.
const Version = 1

// Graph is the canonical serialization format for compiled queries.
// Used for CLI output, API responses and cache snapshots.
//
// Entities are listed in handle order and refer to each other by index,
// so decoding a Graph rebuilds the Query with identical handles.
type Graph struct {
	Version   int          `json:"version" yaml:"version"`
	Nodes     []Node       `json:"nodes" yaml:"nodes"`
	Edges     []Edge       `json:"edges" yaml:"edges"`
	SubGraphs []Container  `json:"subgraphs,omitempty" yaml:"subgraphs,omitempty"`
	Services  []Container  `json:"services,omitempty" yaml:"services,omitempty"`
	Unions    []Union      `json:"unions,omitempty" yaml:"unions,omitempty"`
	Filters   []Annotation `json:"filters,omitempty" yaml:"filters,omitempty"`
	Binds     []Annotation `json:"binds,omitempty" yaml:"binds,omitempty"`
	Order     *Order       `json:"order,omitempty" yaml:"order,omitempty"`
	// Limit is null when the query has no LIMIT.
	Limit *int `json:"limit" yaml:"limit"`
}

// Node is a term of the query.
type Node struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"` // "SELECT" or "REGULAR"

	// Layout state, present once the graph was laid out.
	X      float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y      float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Fixed  bool    `json:"fixed,omitempty" yaml:"fixed,omitempty"`
}

// Edge is a triple pattern, directed from subject to object.
type Edge struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Start    int    `json:"start" yaml:"start"`
	End      int    `json:"end" yaml:"end"`
	Type     string `json:"type" yaml:"type"`
	SubGraph *int   `json:"subgraph,omitempty" yaml:"subgraph,omitempty"`
	Service  *int   `json:"service,omitempty" yaml:"service,omitempty"`

	Curve        string        `json:"curve,omitempty" yaml:"curve,omitempty"`
	Center       *Point        `json:"center,omitempty" yaml:"center,omitempty"`
	Interjection *Interjection `json:"interjection,omitempty" yaml:"interjection,omitempty"`
}

// Point is a position in layout units.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Interjection is an arrowhead anchor with the curve's tangent there and
// the resulting angle in degrees.
type Interjection struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	DX    float64 `json:"dx" yaml:"dx"`
	DY    float64 `json:"dy" yaml:"dy"`
	Angle float64 `json:"angle" yaml:"angle"`
}

// Container is a named graph or a SERVICE clause.
type Container struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Nodes []int  `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges []int  `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Union groups the edges of the branches of one UNION.
type Union struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Edges []int  `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Annotation is a FILTER or BIND with the terms and patterns it mentions.
type Annotation struct {
	ID    int    `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Nodes []int  `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges []int  `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Order lists the ORDER BY keys in clause order.
type Order struct {
	Text  string `json:"text" yaml:"text"`
	Nodes []int  `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Edges []int  `json:"edges,omitempty" yaml:"edges,omitempty"`
}
