// Package parser turns SPARQL 1.1 query and update text into the
// [sparql.Query] syntax tree.
//
// The grammar covers what the graph compiler interprets: the prologue,
// SELECT / CONSTRUCT / ASK / DESCRIBE forms, FROM clauses, group graph
// patterns with GRAPH, OPTIONAL, MINUS, UNION, SERVICE, FILTER, BIND, VALUES
// and sub-selects, triple abbreviations including blank node property
// lists, property paths, solution modifiers, and the INSERT/DELETE update
// operations. Prefixed names are expanded to full IRIs,
// literals use the quoted-string term convention of the sparql package, and
// numbers and booleans become typed literals.
//
// Malformed text yields an error with code INVALID_QUERY whose cause is a
// [*ParseError] carrying the position.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/sparql"
)

// DefaultPrefixes are injected before every query unless the caller
// supplies its own set.
var DefaultPrefixes = map[string]string{
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"owl":  "http://www.w3.org/2002/07/owl#",
}

// ParseError describes where the text could not be parsed.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// Parse parses text with no default prefixes.
func Parse(text string) (*sparql.Query, error) {
	return ParseWithPrefixes(text, nil)
}

// ParseWithPrefixes parses text as if the given prefix declarations were
// written in front of it. Declarations in the text take precedence.
func ParseWithPrefixes(text string, defaults map[string]string) (*sparql.Query, error) {
	doc, err := sparqlParser.ParseString("query.rq", text)
	if err != nil {
		return nil, wrapParseError(err)
	}
	c := newConverter(defaults)
	q, err := c.document(doc)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func wrapParseError(err error) error {
	pe := &ParseError{Message: err.Error()}
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		pe.Line, pe.Column, pe.Message = pos.Line, pos.Column, perr.Message()
	}
	return sverrors.Wrap(sverrors.ErrCodeInvalidQuery, pe, "parse query")
}

// semanticError reports a problem found after the grammar matched, such as
// an undeclared prefix.
func semanticError(format string, args ...any) error {
	return sverrors.Wrap(sverrors.ErrCodeInvalidQuery, &ParseError{Message: fmt.Sprintf(format, args...)}, "parse query")
}

type converter struct {
	prefixes map[string]string
	base     string
	blanks   int
}

func newConverter(defaults map[string]string) *converter {
	c := &converter{prefixes: make(map[string]string, len(defaults))}
	for k, v := range defaults {
		c.prefixes[k] = v
	}
	return c
}

func (c *converter) prologue(decls []*prologueDecl) {
	for _, d := range decls {
		switch {
		case d.Base != nil:
			c.base = strings.Trim(*d.Base, "<>")
		case d.Prefix != nil:
			name := strings.TrimSuffix(d.Prefix.Name, ":")
			c.prefixes[name] = c.resolve(strings.Trim(d.Prefix.IRI, "<>"))
		}
	}
}

func (c *converter) document(doc *document) (*sparql.Query, error) {
	c.prologue(doc.Prologue)

	var (
		q   *sparql.Query
		err error
	)
	switch {
	case doc.Select != nil:
		q, err = c.selectQuery(doc.Select)
	case doc.Construct != nil:
		q, err = c.constructQuery(doc.Construct)
	case doc.Ask != nil:
		q, err = c.askQuery(doc.Ask)
	case doc.Describe != nil:
		q, err = c.describeQuery(doc.Describe)
	case len(doc.Updates) > 0:
		q, err = c.update(doc.Updates)
	default:
		return nil, semanticError("empty request")
	}
	if err != nil {
		return nil, err
	}
	q.Prefixes = c.prefixes
	q.Base = c.base
	return q, nil
}

func (c *converter) selectQuery(s *selectQuery) (*sparql.Query, error) {
	q := &sparql.Query{
		Type:      sparql.TypeQuery,
		QueryType: sparql.QuerySelect,
		Distinct:  s.Modifier == "DISTINCT",
	}
	if s.Star {
		q.Variables = []sparql.Projection{{Variable: "*"}}
	}
	for _, p := range s.Projections {
		if p.Expr == nil {
			q.Variables = append(q.Variables, sparql.Projection{Variable: p.Var})
			continue
		}
		expr, err := c.expression(p.Expr)
		if err != nil {
			return nil, err
		}
		q.Variables = append(q.Variables, sparql.Projection{Variable: p.As, Expression: &expr})
	}
	var err error
	if q.From, err = c.dataset(s.Dataset); err != nil {
		return nil, err
	}
	if q.Where, err = c.group(s.Where); err != nil {
		return nil, err
	}
	for _, g := range s.Group {
		expr, err := c.primary(g)
		if err != nil {
			return nil, err
		}
		q.Group = append(q.Group, sparql.Grouping{Expression: expr})
	}
	if q.Order, err = c.order(s.Order); err != nil {
		return nil, err
	}
	q.Limit, q.Offset = slice(s.Slice)
	if s.Values != nil {
		if q.Values, err = c.values(s.Values); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (c *converter) constructQuery(s *constructQuery) (*sparql.Query, error) {
	q := &sparql.Query{Type: sparql.TypeQuery, QueryType: sparql.QueryConstruct}
	var err error
	if q.Template, err = c.triples(s.Template); err != nil {
		return nil, err
	}
	if q.From, err = c.dataset(s.Dataset); err != nil {
		return nil, err
	}
	if q.Where, err = c.group(s.Where); err != nil {
		return nil, err
	}
	if q.Order, err = c.order(s.Order); err != nil {
		return nil, err
	}
	q.Limit, q.Offset = slice(s.Slice)
	return q, nil
}

func (c *converter) askQuery(s *askQuery) (*sparql.Query, error) {
	q := &sparql.Query{Type: sparql.TypeQuery, QueryType: sparql.QueryAsk}
	var err error
	if q.From, err = c.dataset(s.Dataset); err != nil {
		return nil, err
	}
	if q.Where, err = c.group(s.Where); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *converter) describeQuery(s *describeQuery) (*sparql.Query, error) {
	q := &sparql.Query{Type: sparql.TypeQuery, QueryType: sparql.QueryDescribe}
	if s.Star {
		q.Variables = []sparql.Projection{{Variable: "*"}}
	}
	for _, t := range s.Targets {
		name, err := c.varOrIRI(t)
		if err != nil {
			return nil, err
		}
		q.Variables = append(q.Variables, sparql.Projection{Variable: name})
	}
	var err error
	if q.From, err = c.dataset(s.Dataset); err != nil {
		return nil, err
	}
	if s.Where != nil {
		if q.Where, err = c.group(s.Where); err != nil {
			return nil, err
		}
	}
	if q.Order, err = c.order(s.Order); err != nil {
		return nil, err
	}
	q.Limit, q.Offset = slice(s.Slice)
	return q, nil
}

func (c *converter) update(ops []*updateOp) (*sparql.Query, error) {
	q := &sparql.Query{Type: sparql.TypeUpdate}
	for _, op := range ops {
		c.prologue(op.Prologue)
		var (
			u   sparql.Update
			err error
		)
		switch {
		case op.InsertData != nil:
			u.UpdateType = "insert"
			u.Insert, err = c.quads(op.InsertData)
		case op.DeleteData != nil:
			u.UpdateType = "delete"
			u.Delete, err = c.quads(op.DeleteData)
		case op.DeleteWhere != nil:
			u.UpdateType = "deletewhere"
			u.Delete, err = c.quads(op.DeleteWhere)
		case op.Modify != nil:
			u, err = c.modify(op.Modify)
		}
		if err != nil {
			return nil, err
		}
		q.Updates = append(q.Updates, u)
	}
	return q, nil
}

func (c *converter) modify(m *modify) (sparql.Update, error) {
	u := sparql.Update{UpdateType: "insertdelete"}
	if m.Delete == nil && m.Insert == nil {
		return u, semanticError("update needs an INSERT or DELETE template")
	}
	var err error
	if m.Delete != nil {
		if u.Delete, err = c.quads(m.Delete); err != nil {
			return u, err
		}
	}
	if m.Insert != nil {
		if u.Insert, err = c.quads(m.Insert); err != nil {
			return u, err
		}
	}
	if u.Where, err = c.group(m.Where); err != nil {
		return u, err
	}
	if m.With != nil {
		graph, err := c.iri(m.With)
		if err != nil {
			return u, err
		}
		u.Where = []sparql.Pattern{{Type: sparql.PatternGraph, Name: graph, Patterns: u.Where}}
	}
	return u, nil
}

// quads converts an update template into bgp and graph patterns. Default
// graph triples that follow each other share one bgp.
func (c *converter) quads(d *quadData) ([]sparql.Pattern, error) {
	var out []sparql.Pattern
	for _, el := range d.Elements {
		if el.Triples != nil {
			ts, err := c.triplesSameSubject(el.Triples)
			if err != nil {
				return nil, err
			}
			if n := len(out); n > 0 && out[n-1].Type == sparql.PatternBGP {
				out[n-1].Triples = append(out[n-1].Triples, ts...)
			} else {
				out = append(out, sparql.Pattern{Type: sparql.PatternBGP, Triples: ts})
			}
			continue
		}
		name, err := c.varOrIRI(el.Graph.Name)
		if err != nil {
			return nil, err
		}
		ts, err := c.triples(el.Graph.Triples)
		if err != nil {
			return nil, err
		}
		out = append(out, sparql.Pattern{Type: sparql.PatternGraph, Name: name, Triples: ts})
	}
	return out, nil
}

func (c *converter) dataset(clauses []*datasetClause) (*sparql.Dataset, error) {
	if len(clauses) == 0 {
		return nil, nil
	}
	ds := &sparql.Dataset{}
	for _, d := range clauses {
		iri, err := c.iri(d.IRI)
		if err != nil {
			return nil, err
		}
		if d.Named {
			ds.Named = append(ds.Named, iri)
		} else {
			ds.Default = append(ds.Default, iri)
		}
	}
	return ds, nil
}

func (c *converter) order(conds []*orderCond) ([]sparql.Ordering, error) {
	var out []sparql.Ordering
	for _, o := range conds {
		var (
			expr sparql.Expression
			err  error
		)
		if o.Expr != nil {
			expr, err = c.expression(o.Expr)
		} else {
			expr, err = c.primary(o.Plain)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sparql.Ordering{Expression: expr, Descending: o.Dir == "DESC"})
	}
	return out, nil
}

func slice(mods []*limitOffset) (limit, offset *int) {
	for _, m := range mods {
		if m.Limit != nil {
			limit = m.Limit
		}
		if m.Offset != nil {
			offset = m.Offset
		}
	}
	return limit, offset
}

// group converts a group graph pattern into its list of patterns.
// Consecutive triple blocks merge into one bgp and filters move to the end
// of the group, matching the scoping rule that a FILTER applies to the
// whole group it appears in.
func (c *converter) group(g *groupPattern) ([]sparql.Pattern, error) {
	if g.SubSelect != nil {
		sub, err := c.selectQuery(g.SubSelect)
		if err != nil {
			return nil, err
		}
		return []sparql.Pattern{{Type: sparql.PatternQuery, SubQuery: sub}}, nil
	}
	var (
		out     []sparql.Pattern
		filters []sparql.Pattern
	)
	for _, el := range g.Elements {
		switch {
		case el.Triples != nil:
			ts, err := c.triplesSameSubject(el.Triples)
			if err != nil {
				return nil, err
			}
			if n := len(out); n > 0 && out[n-1].Type == sparql.PatternBGP {
				out[n-1].Triples = append(out[n-1].Triples, ts...)
			} else {
				out = append(out, sparql.Pattern{Type: sparql.PatternBGP, Triples: ts})
			}
		case el.Optional != nil:
			p, err := c.nested(sparql.PatternOptional, el.Optional)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case el.Minus != nil:
			p, err := c.nested(sparql.PatternMinus, el.Minus)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case el.Graph != nil:
			p, err := c.nested(sparql.PatternGraph, el.Graph.Group)
			if err != nil {
				return nil, err
			}
			if p.Name, err = c.varOrIRI(el.Graph.Name); err != nil {
				return nil, err
			}
			out = append(out, p)
		case el.Service != nil:
			p, err := c.nested(sparql.PatternService, el.Service.Group)
			if err != nil {
				return nil, err
			}
			if p.Name, err = c.varOrIRI(el.Service.Name); err != nil {
				return nil, err
			}
			p.Silent = el.Service.Silent
			out = append(out, p)
		case el.Filter != nil:
			expr, err := c.primary(el.Filter)
			if err != nil {
				return nil, err
			}
			filters = append(filters, sparql.Pattern{Type: sparql.PatternFilter, Expression: &expr})
		case el.Bind != nil:
			expr, err := c.expression(el.Bind.Expr)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.Pattern{Type: sparql.PatternBind, Variable: el.Bind.Var, Expression: &expr})
		case el.Values != nil:
			rows, err := c.values(el.Values)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.Pattern{Type: sparql.PatternValues, Values: rows})
		case el.Union != nil:
			p, err := c.union(el.Union)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	return append(out, filters...), nil
}

// values converts a VALUES block into one binding map per row. UNDEF
// leaves the variable out of the row.
func (c *converter) values(v *valuesClause) ([]map[string]string, error) {
	var rows []map[string]string
	for _, r := range v.Rows {
		cells := r.Tuple
		if r.Single != nil {
			cells = []*dataValue{r.Single}
		}
		if v.Tuple == (r.Single != nil) || len(cells) != len(v.Vars) {
			return nil, semanticError("VALUES row has %d values for %d variables", len(cells), len(v.Vars))
		}
		row := make(map[string]string, len(cells))
		for i, cell := range cells {
			var (
				value string
				err   error
			)
			switch {
			case cell.Undef:
				continue
			case cell.IRI != nil:
				value, err = c.iri(cell.IRI)
			default:
				value, err = c.literal(cell.Literal)
			}
			if err != nil {
				return nil, err
			}
			row[v.Vars[i]] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *converter) nested(kind string, g *groupPattern) (sparql.Pattern, error) {
	patterns, err := c.group(g)
	if err != nil {
		return sparql.Pattern{}, err
	}
	return sparql.Pattern{Type: kind, Patterns: patterns}, nil
}

func (c *converter) union(u *unionPattern) (sparql.Pattern, error) {
	if len(u.Groups) == 1 {
		return c.nested(sparql.PatternGroup, u.Groups[0])
	}
	p := sparql.Pattern{Type: sparql.PatternUnion}
	for _, g := range u.Groups {
		branch, err := c.nested(sparql.PatternGroup, g)
		if err != nil {
			return sparql.Pattern{}, err
		}
		p.Patterns = append(p.Patterns, branch)
	}
	return p, nil
}

func (c *converter) triples(blocks []*triplesSameSubject) ([]sparql.Triple, error) {
	var out []sparql.Triple
	for _, b := range blocks {
		ts, err := c.triplesSameSubject(b)
		if err != nil {
			return nil, err
		}
		out = append(out, ts...)
	}
	return out, nil
}

func (c *converter) triplesSameSubject(b *triplesSameSubject) ([]sparql.Triple, error) {
	if b.Subject == nil {
		return c.propertyList(c.blank(), b.Node)
	}
	subject, nested, err := c.term(b.Subject)
	if err != nil {
		return nil, err
	}
	out, err := c.propertyList(subject, b.Predicates)
	if err != nil {
		return nil, err
	}
	return append(out, nested...), nil
}

// propertyList expands a predicate-object list for subject. Triples of
// blank node property lists used as objects follow the triples that
// reference them.
func (c *converter) propertyList(subject string, list []*predicateObjects) ([]sparql.Triple, error) {
	var out, nested []sparql.Triple
	for _, po := range list {
		if po == nil {
			continue
		}
		pred, err := c.verb(po.Verb)
		if err != nil {
			return nil, err
		}
		for _, o := range po.Objects {
			object, inner, err := c.term(o)
			if err != nil {
				return nil, err
			}
			out = append(out, sparql.Triple{Subject: subject, Predicate: pred, Object: object})
			nested = append(nested, inner...)
		}
	}
	return append(out, nested...), nil
}

func (c *converter) verb(v *verb) (sparql.Predicate, error) {
	if v.Var != "" {
		return sparql.Predicate{Term: v.Var}, nil
	}
	return c.pathAlt(v.Path)
}

func (c *converter) pathAlt(a *pathAlt) (sparql.Predicate, error) {
	if len(a.Seqs) == 1 {
		return c.pathSeq(a.Seqs[0])
	}
	path := &sparql.Path{PathType: "|"}
	for _, s := range a.Seqs {
		item, err := c.pathSeq(s)
		if err != nil {
			return sparql.Predicate{}, err
		}
		path.Items = append(path.Items, item)
	}
	return sparql.Predicate{Path: path}, nil
}

func (c *converter) pathSeq(s *pathSeq) (sparql.Predicate, error) {
	if len(s.Elts) == 1 {
		return c.pathElt(s.Elts[0])
	}
	path := &sparql.Path{PathType: "/"}
	for _, e := range s.Elts {
		item, err := c.pathElt(e)
		if err != nil {
			return sparql.Predicate{}, err
		}
		path.Items = append(path.Items, item)
	}
	return sparql.Predicate{Path: path}, nil
}

func (c *converter) pathElt(e *pathElt) (sparql.Predicate, error) {
	pred, err := c.pathPrimary(e.Primary)
	if err != nil {
		return pred, err
	}
	if e.Mod != "" {
		pred = sparql.Predicate{Path: &sparql.Path{PathType: e.Mod, Items: []sparql.Predicate{pred}}}
	}
	if e.Inverse {
		pred = sparql.Predicate{Path: &sparql.Path{PathType: "^", Items: []sparql.Predicate{pred}}}
	}
	return pred, nil
}

func (c *converter) pathPrimary(p *pathPrimary) (sparql.Predicate, error) {
	switch {
	case p.A:
		return sparql.Predicate{Term: sparql.RDFType}, nil
	case p.IRI != nil:
		iri, err := c.iri(p.IRI)
		return sparql.Predicate{Term: iri}, err
	case p.Group != nil:
		return c.pathAlt(p.Group)
	}
	path := &sparql.Path{PathType: "!"}
	for _, one := range p.Negated {
		item := sparql.Predicate{Term: sparql.RDFType}
		if one.IRI != nil {
			iri, err := c.iri(one.IRI)
			if err != nil {
				return sparql.Predicate{}, err
			}
			item.Term = iri
		}
		if one.Inverse {
			item = sparql.Predicate{Path: &sparql.Path{PathType: "^", Items: []sparql.Predicate{item}}}
		}
		path.Items = append(path.Items, item)
	}
	return sparql.Predicate{Path: path}, nil
}

// term converts a subject or object. A blank node property list becomes a
// fresh blank node plus the triples it describes.
func (c *converter) term(t *term) (string, []sparql.Triple, error) {
	switch {
	case t.Var != "":
		return t.Var, nil, nil
	case t.IRI != nil:
		iri, err := c.iri(t.IRI)
		return iri, nil, err
	case t.Literal != nil:
		lit, err := c.literal(t.Literal)
		return lit, nil, err
	case t.Blank != "":
		return t.Blank, nil, nil
	case len(t.Props) > 0:
		node := c.blank()
		triples, err := c.propertyList(node, t.Props)
		return node, triples, err
	}
	return c.blank(), nil, nil
}

func (c *converter) blank() string {
	c.blanks++
	return "_:b" + strconv.Itoa(c.blanks-1)
}

func (c *converter) varOrIRI(v *varOrIRI) (string, error) {
	if v.Var != "" {
		return v.Var, nil
	}
	return c.iri(v.IRI)
}

func (c *converter) iri(r *iriRef) (string, error) {
	if r.Full != "" {
		return c.resolve(strings.Trim(r.Full, "<>")), nil
	}
	return c.expand(r.Prefixed)
}

func (c *converter) expand(pname string) (string, error) {
	prefix, local, _ := strings.Cut(pname, ":")
	ns, ok := c.prefixes[prefix]
	if !ok {
		return "", semanticError("unknown prefix %q", prefix)
	}
	return ns + unescapeLocal(local), nil
}

// unescapeLocal drops the backslash of reserved-character escapes in the
// local part of a prefixed name. Percent escapes are kept as written.
func unescapeLocal(local string) string {
	if !strings.Contains(local, `\`) {
		return local
	}
	var b strings.Builder
	for i := 0; i < len(local); i++ {
		if local[i] == '\\' && i+1 < len(local) {
			i++
		}
		b.WriteByte(local[i])
	}
	return b.String()
}

// resolve applies BASE to a relative IRI. Only the simple concatenation
// case is handled.
func (c *converter) resolve(iri string) string {
	if c.base == "" || strings.Contains(iri, ":") {
		return iri
	}
	return c.base + iri
}

func (c *converter) literal(l *literal) (string, error) {
	switch {
	case l.Bool != "":
		return sparql.TypedLiteral(strings.ToLower(l.Bool), sparql.XSDBoolean), nil
	case l.Number != "":
		return numberLiteral(l.Number), nil
	}
	value := unquote(l.String.Value)
	switch {
	case l.String.Lang != "":
		return `"` + value + `"` + l.String.Lang, nil
	case l.String.Datatype != nil:
		dt, err := c.iri(l.String.Datatype)
		if err != nil {
			return "", err
		}
		return sparql.TypedLiteral(value, dt), nil
	}
	return `"` + value + `"`, nil
}

func numberLiteral(n string) string {
	lexical := strings.TrimPrefix(n, "+")
	switch {
	case strings.ContainsAny(lexical, "eE"):
		return sparql.TypedLiteral(lexical, sparql.XSDDouble)
	case strings.Contains(lexical, "."):
		return sparql.TypedLiteral(lexical, sparql.XSDDecimal)
	default:
		return sparql.TypedLiteral(lexical, sparql.XSDInteger)
	}
}

// unquote strips the delimiters of a string token and re-escapes bare
// double quotes so the result fits inside the "..." term convention.
func unquote(tok string) string {
	var inner string
	switch {
	case strings.HasPrefix(tok, `"""`), strings.HasPrefix(tok, `'''`):
		inner = tok[3 : len(tok)-3]
	default:
		inner = tok[1 : len(tok)-1]
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		switch {
		case ch == '\\' && i+1 < len(inner):
			next := inner[i+1]
			if next == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(ch)
				b.WriteByte(next)
			}
			i++
		case ch == '"':
			b.WriteString(`\"`)
		case ch == '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// --- Expressions ---

func (c *converter) expression(e *expression) (sparql.Expression, error) {
	left, err := c.andExpr(e.Left)
	if err != nil || len(e.Right) == 0 {
		return left, err
	}
	for _, r := range e.Right {
		right, err := c.andExpr(r)
		if err != nil {
			return left, err
		}
		left = operation("||", left, right)
	}
	return left, nil
}

func (c *converter) andExpr(e *andExpr) (sparql.Expression, error) {
	left, err := c.relExpr(e.Left)
	if err != nil {
		return left, err
	}
	for _, r := range e.Right {
		right, err := c.relExpr(r)
		if err != nil {
			return left, err
		}
		left = operation("&&", left, right)
	}
	return left, nil
}

func (c *converter) relExpr(e *relExpr) (sparql.Expression, error) {
	left, err := c.addExpr(e.Left)
	if err != nil {
		return left, err
	}
	switch {
	case e.Op != "":
		right, err := c.addExpr(e.Right)
		if err != nil {
			return left, err
		}
		return operation(e.Op, left, right), nil
	case e.In:
		list := sparql.Expression{Type: sparql.ExprOperation, Operator: "list"}
		for _, item := range e.List {
			x, err := c.expression(item)
			if err != nil {
				return left, err
			}
			list.Args = append(list.Args, x)
		}
		if e.NotIn {
			return operation("notin", left, list), nil
		}
		return operation("in", left, list), nil
	}
	return left, nil
}

func (c *converter) addExpr(e *addExpr) (sparql.Expression, error) {
	left, err := c.mulExpr(e.Left)
	if err != nil {
		return left, err
	}
	for _, r := range e.Rest {
		right, err := c.mulExpr(r.Right)
		if err != nil {
			return left, err
		}
		left = operation(r.Op, left, right)
	}
	return left, nil
}

func (c *converter) mulExpr(e *mulExpr) (sparql.Expression, error) {
	left, err := c.unaryExpr(e.Left)
	if err != nil {
		return left, err
	}
	for _, r := range e.Rest {
		right, err := c.unaryExpr(r.Right)
		if err != nil {
			return left, err
		}
		left = operation(r.Op, left, right)
	}
	return left, nil
}

func (c *converter) unaryExpr(e *unaryExpr) (sparql.Expression, error) {
	inner, err := c.primary(e.Primary)
	if err != nil || e.Op == "" {
		return inner, err
	}
	op := e.Op
	if op != "!" {
		op = "UMINUS"
		if e.Op == "+" {
			op = "UPLUS"
		}
	}
	return operation(op, inner), nil
}

func (c *converter) primary(p *primaryExpr) (sparql.Expression, error) {
	switch {
	case p.Bracketed != nil:
		return c.expression(p.Bracketed)
	case p.Exists != nil, p.NotExists != nil:
		g, op := p.Exists, "exists"
		if p.NotExists != nil {
			g, op = p.NotExists, "notexists"
		}
		patterns, err := c.group(g)
		if err != nil {
			return sparql.Expression{}, err
		}
		return operation(op, embedded(patterns)), nil
	case p.Call != nil:
		return c.call(p.Call)
	case p.Literal != nil:
		lit, err := c.literal(p.Literal)
		return sparql.Expression{Term: lit}, err
	case p.Var != "":
		return sparql.Expression{Term: p.Var}, nil
	}
	iri, err := c.iri(p.IRI)
	return sparql.Expression{Term: iri}, err
}

// embedded turns the patterns of an EXISTS group into an expression
// argument: a lone bgp becomes {type: bgp, triples}, anything else stays a
// group.
func embedded(patterns []sparql.Pattern) sparql.Expression {
	if len(patterns) == 1 && patterns[0].Type == sparql.PatternBGP {
		return sparql.Expression{Type: sparql.PatternBGP, Triples: patterns[0].Triples}
	}
	return sparql.Expression{Type: sparql.PatternGroup, Patterns: patterns}
}

var aggregates = map[string]bool{
	"count": true, "sum": true, "min": true, "max": true,
	"avg": true, "sample": true, "group_concat": true,
}

func (c *converter) call(f *functionCall) (sparql.Expression, error) {
	var args []sparql.Expression
	for _, a := range f.Args {
		x, err := c.expression(a)
		if err != nil {
			return sparql.Expression{}, err
		}
		args = append(args, x)
	}

	lower := strings.ToLower(f.Name)
	if aggregates[lower] {
		agg := sparql.Expression{Type: sparql.ExprAggregate, Aggregation: lower, Distinct: f.Distinct}
		switch {
		case f.Star:
			agg.Expression = &sparql.Expression{Term: "*"}
		case len(args) == 1:
			agg.Expression = &args[0]
		default:
			return agg, semanticError("aggregate %s takes exactly one argument", f.Name)
		}
		if f.Separator != nil {
			agg.Separator = unquote(*f.Separator)
		}
		return agg, nil
	}
	if f.Star || f.Separator != nil {
		return sparql.Expression{}, semanticError("unexpected aggregate syntax in call to %s", f.Name)
	}

	if strings.HasPrefix(f.Name, "<") || strings.Contains(f.Name, ":") {
		var (
			iri string
			err error
		)
		if strings.HasPrefix(f.Name, "<") {
			iri = c.resolve(strings.Trim(f.Name, "<>"))
		} else {
			iri, err = c.expand(f.Name)
		}
		if err != nil {
			return sparql.Expression{}, err
		}
		return sparql.Expression{Type: sparql.ExprFunction, Function: iri, Distinct: f.Distinct, Args: args}, nil
	}
	return sparql.Expression{Type: sparql.ExprOperation, Operator: lower, Args: args}, nil
}

func operation(op string, args ...sparql.Expression) sparql.Expression {
	return sparql.Expression{Type: sparql.ExprOperation, Operator: op, Args: args}
}
