package sparql

import "strings"

// Request types.
const (
	TypeQuery  = "query"
	TypeUpdate = "update"
)

// Query forms.
const (
	QuerySelect    = "SELECT"
	QueryConstruct = "CONSTRUCT"
	QueryAsk       = "ASK"
	QueryDescribe  = "DESCRIBE"
)

// Pattern kinds found in WHERE clauses and update quads.
const (
	PatternGroup    = "group"
	PatternGraph    = "graph"
	PatternBGP      = "bgp"
	PatternMinus    = "minus"
	PatternOptional = "optional"
	PatternService  = "service"
	PatternUnion    = "union"
	PatternBind     = "bind"
	PatternFilter   = "filter"
	PatternValues   = "values"
	PatternQuery    = "query"
)

// Expression kinds. A bare term has an empty Type.
const (
	ExprOperation = "operation"
	ExprFunction  = "functionCall"
	ExprAggregate = "aggregate"
)

// Well-known IRIs.
const (
	RDFType     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	XSDBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal  = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble   = "http://www.w3.org/2001/XMLSchema#double"
	wildcardVar = "*"
)

// Query is the root of a parsed SPARQL request. It covers both queries
// (Type == TypeQuery) and updates (Type == TypeUpdate); fields that do not
// apply to the request type are left empty.
type Query struct {
	Type      string              `json:"type"`
	QueryType string              `json:"queryType,omitempty"`
	Distinct  bool                `json:"distinct,omitempty"`
	Variables []Projection        `json:"variables,omitempty"`
	Template  []Triple            `json:"template,omitempty"`
	From      *Dataset            `json:"from,omitempty"`
	Where     []Pattern           `json:"where,omitempty"`
	Updates   []Update            `json:"updates,omitempty"`
	Group     []Grouping          `json:"group,omitempty"`
	Order     []Ordering          `json:"order,omitempty"`
	Limit     *int                `json:"limit,omitempty"`
	Offset    *int                `json:"offset,omitempty"`
	Values    []map[string]string `json:"values,omitempty"`
	Prefixes  map[string]string   `json:"prefixes"`
	Base      string              `json:"base,omitempty"`
}

// IsUpdate reports whether q is an update request.
func (q *Query) IsUpdate() bool { return q.Type == TypeUpdate }

// IsSelectAll reports whether q is a SELECT with the "*" projection.
func (q *Query) IsSelectAll() bool {
	return q.QueryType == QuerySelect && len(q.Variables) == 1 && q.Variables[0].Variable == wildcardVar
}

// Dataset lists FROM and FROM NAMED graphs.
type Dataset struct {
	Default []string `json:"default"`
	Named   []string `json:"named"`
}

// Update is one operation of an update request.
type Update struct {
	UpdateType string    `json:"updateType"`
	Insert     []Pattern `json:"insert,omitempty"`
	Delete     []Pattern `json:"delete,omitempty"`
	Where      []Pattern `json:"where,omitempty"`
}

// Pattern is one entry of a WHERE clause or of an update's quad list.
// Which fields are set depends on Type.
type Pattern struct {
	Type       string      `json:"type"`
	Patterns   []Pattern   `json:"patterns,omitempty"`
	Triples    []Triple    `json:"triples,omitempty"`
	Name       string      `json:"name,omitempty"`
	Silent     bool        `json:"silent,omitempty"`
	Variable   string      `json:"variable,omitempty"`
	Expression *Expression `json:"expression,omitempty"`
	// Values holds one binding map per VALUES row; UNDEF cells are absent.
	Values []map[string]string `json:"values,omitempty"`
	// SubQuery is the nested SELECT of a "query" pattern.
	SubQuery *Query `json:"query,omitempty"`
}

// Triple is a triple pattern.
type Triple struct {
	Subject   string    `json:"subject"`
	Predicate Predicate `json:"predicate"`
	Object    string    `json:"object"`
}

// Predicate is either a plain term or a property path.
type Predicate struct {
	Term string
	Path *Path
}

// IsPath reports whether p is a property path.
func (p Predicate) IsPath() bool { return p.Path != nil }

// Path is a property path: Items combined with PathType ("/", "|", "^",
// "*", "+", "?" or "!").
type Path struct {
	PathType string      `json:"pathType"`
	Items    []Predicate `json:"items"`
}

// Expression is either a bare term (Term set, Type empty) or an
// operation, function call, aggregate or embedded pattern.
type Expression struct {
	Term string

	Type        string
	Operator    string
	Function    string
	Aggregation string
	Distinct    bool
	Separator   string
	Args        []Expression
	Expression  *Expression

	// Embedded patterns appear as EXISTS / NOT EXISTS arguments.
	Triples  []Triple
	Patterns []Pattern
}

// IsTerm reports whether e is a bare term.
func (e Expression) IsTerm() bool { return e.Type == "" && e.Term != "" }

// HasArgs reports whether e carries nested arguments.
func (e Expression) HasArgs() bool { return len(e.Args) > 0 }

// IsPattern reports whether e embeds a graph pattern.
func (e Expression) IsPattern() bool {
	return e.Type == PatternBGP || e.Type == PatternGroup
}

// Projection is one entry of a SELECT clause: a variable, "*", or a
// computed expression bound to a variable.
type Projection struct {
	Variable   string
	Expression *Expression
}

// Ordering is one ORDER BY condition.
type Ordering struct {
	Expression Expression `json:"expression"`
	Descending bool       `json:"descending,omitempty"`
}

// Grouping is one GROUP BY condition.
type Grouping struct {
	Expression Expression `json:"expression"`
}

// Term helpers.

// IsVariable reports whether term is a variable.
func IsVariable(term string) bool {
	return strings.HasPrefix(term, "?") || strings.HasPrefix(term, "$")
}

// IsLiteral reports whether term is a literal.
func IsLiteral(term string) bool { return strings.HasPrefix(term, `"`) }

// IsBlank reports whether term is a blank node.
func IsBlank(term string) bool { return strings.HasPrefix(term, "_:") }

// IsIRI reports whether term is an IRI.
func IsIRI(term string) bool {
	return term != "" && !IsVariable(term) && !IsLiteral(term) && !IsBlank(term)
}

// LiteralValue returns the lexical form of a literal term and true, or
// "" and false when term is not a literal.
func LiteralValue(term string) (string, bool) {
	if !IsLiteral(term) {
		return "", false
	}
	end := closingQuote(term)
	if end < 0 {
		return "", false
	}
	return term[1:end], true
}

// LiteralDatatype returns the datatype IRI of a typed literal, or "".
func LiteralDatatype(term string) string {
	end := closingQuote(term)
	if end < 0 {
		return ""
	}
	rest := term[end+1:]
	if strings.HasPrefix(rest, "^^") {
		return rest[2:]
	}
	return ""
}

// LiteralLanguage returns the language tag of a literal, or "".
func LiteralLanguage(term string) string {
	end := closingQuote(term)
	if end < 0 {
		return ""
	}
	rest := term[end+1:]
	if strings.HasPrefix(rest, "@") {
		return rest[1:]
	}
	return ""
}

// TypedLiteral builds a literal term with a datatype.
func TypedLiteral(value, datatype string) string {
	return `"` + value + `"^^` + datatype
}

func closingQuote(term string) int {
	if !IsLiteral(term) {
		return -1
	}
	for i := 1; i < len(term); i++ {
		switch term[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
