// Package generator serializes syntax tree fragments back to SPARQL text.
//
// It is used to label FILTER and BIND annotations in the query graph, so
// the output favours readability: prefixed names where a declared prefix
// matches, bare numbers and booleans, and no redundant parentheses around
// the outermost expression.
package generator

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/sparqlviz/pkg/sparql"
)

// Generator renders patterns and expressions. The zero value writes full
// IRIs.
type Generator struct {
	names []string
	iris  map[string]string
}

// New returns a Generator that compacts IRIs using prefixes.
func New(prefixes map[string]string) *Generator {
	g := &Generator{iris: make(map[string]string, len(prefixes))}
	for name, iri := range prefixes {
		if iri == "" {
			continue
		}
		g.names = append(g.names, name)
		g.iris[name] = iri
	}
	// Longest namespace first so nested namespaces pick the most specific
	// prefix; ties broken by name for determinism.
	sort.Slice(g.names, func(i, j int) bool {
		a, b := g.iris[g.names[i]], g.iris[g.names[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return g.names[i] < g.names[j]
	})
	return g
}

// ToPattern renders p with full IRIs.
func ToPattern(p sparql.Pattern) string {
	return (&Generator{}).ToPattern(p)
}

// ToPattern renders a single pattern, e.g. "FILTER(?a > 5)".
func (g *Generator) ToPattern(p sparql.Pattern) string {
	var b strings.Builder
	g.pattern(&b, p)
	return strings.TrimSpace(b.String())
}

// Expression renders an expression without outer parentheses.
func (g *Generator) Expression(e sparql.Expression) string {
	return g.expr(e, false)
}

// Term renders a single term in expression position.
func (g *Generator) Term(term string) string {
	switch {
	case term == "*":
		return term
	case sparql.IsVariable(term), sparql.IsBlank(term):
		return term
	case sparql.IsLiteral(term):
		return g.literal(term)
	}
	return g.iri(term)
}

func (g *Generator) iri(iri string) string {
	for _, name := range g.names {
		ns := g.iris[name]
		if local, ok := strings.CutPrefix(iri, ns); ok && validLocal(local) {
			return name + ":" + local
		}
	}
	return "<" + iri + ">"
}

func validLocal(local string) bool {
	if strings.HasSuffix(local, ".") {
		return false
	}
	for _, r := range local {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '_', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

func (g *Generator) literal(term string) string {
	value, _ := sparql.LiteralValue(term)
	switch dt := sparql.LiteralDatatype(term); dt {
	case "":
		return term
	case sparql.XSDInteger, sparql.XSDDecimal, sparql.XSDDouble, sparql.XSDBoolean:
		return value
	default:
		return `"` + value + `"^^` + g.iri(dt)
	}
}

func (g *Generator) predicate(p sparql.Predicate, nested bool) string {
	if p.Path == nil {
		if p.Term == sparql.RDFType {
			return "a"
		}
		return g.Term(p.Term)
	}
	items := make([]string, len(p.Path.Items))
	for i, item := range p.Path.Items {
		items[i] = g.predicate(item, true)
	}
	var out string
	switch p.Path.PathType {
	case "/", "|":
		out = strings.Join(items, p.Path.PathType)
		if nested {
			out = "(" + out + ")"
		}
	case "^":
		out = "^" + items[0]
	case "!":
		if len(items) == 1 {
			out = "!" + items[0]
		} else {
			out = "!(" + strings.Join(items, "|") + ")"
		}
	default:
		out = items[0] + p.Path.PathType
	}
	return out
}

func (g *Generator) triple(b *strings.Builder, t sparql.Triple) {
	b.WriteString(g.Term(t.Subject))
	b.WriteByte(' ')
	b.WriteString(g.predicate(t.Predicate, false))
	b.WriteByte(' ')
	b.WriteString(g.Term(t.Object))
	b.WriteString(" . ")
}

func (g *Generator) group(b *strings.Builder, patterns []sparql.Pattern) {
	b.WriteString("{ ")
	for _, p := range patterns {
		g.pattern(b, p)
	}
	b.WriteString("} ")
}

func (g *Generator) pattern(b *strings.Builder, p sparql.Pattern) {
	switch p.Type {
	case sparql.PatternBGP:
		for _, t := range p.Triples {
			g.triple(b, t)
		}
	case sparql.PatternGroup:
		g.group(b, p.Patterns)
	case sparql.PatternOptional:
		b.WriteString("OPTIONAL ")
		g.group(b, p.Patterns)
	case sparql.PatternMinus:
		b.WriteString("MINUS ")
		g.group(b, p.Patterns)
	case sparql.PatternGraph:
		b.WriteString("GRAPH " + g.Term(p.Name) + " ")
		if len(p.Triples) > 0 {
			g.group(b, []sparql.Pattern{{Type: sparql.PatternBGP, Triples: p.Triples}})
		} else {
			g.group(b, p.Patterns)
		}
	case sparql.PatternService:
		b.WriteString("SERVICE ")
		if p.Silent {
			b.WriteString("SILENT ")
		}
		b.WriteString(g.Term(p.Name) + " ")
		g.group(b, p.Patterns)
	case sparql.PatternUnion:
		for i, branch := range p.Patterns {
			if i > 0 {
				b.WriteString("UNION ")
			}
			if branch.Type == sparql.PatternGroup {
				g.group(b, branch.Patterns)
			} else {
				g.group(b, []sparql.Pattern{branch})
			}
		}
	case sparql.PatternFilter:
		b.WriteString("FILTER(")
		if p.Expression != nil {
			b.WriteString(g.expr(*p.Expression, false))
		}
		b.WriteString(") ")
	case sparql.PatternBind:
		b.WriteString("BIND(")
		if p.Expression != nil {
			b.WriteString(g.expr(*p.Expression, false))
		}
		b.WriteString(" AS " + p.Variable + ") ")
	case sparql.PatternValues:
		g.values(b, p.Values)
	case sparql.PatternQuery:
		if p.SubQuery != nil {
			b.WriteString("{ ")
			g.subSelect(b, p.SubQuery)
			b.WriteString("} ")
		}
	}
}

// values writes a VALUES block with its variables in name order.
func (g *Generator) values(b *strings.Builder, rows []map[string]string) {
	seen := make(map[string]bool)
	var vars []string
	for _, row := range rows {
		for v := range row {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	sort.Strings(vars)
	b.WriteString("VALUES (" + strings.Join(vars, " ") + ") { ")
	for _, row := range rows {
		cells := make([]string, len(vars))
		for i, v := range vars {
			cells[i] = "UNDEF"
			if value, ok := row[v]; ok {
				cells[i] = g.Term(value)
			}
		}
		b.WriteString("(" + strings.Join(cells, " ") + ") ")
	}
	b.WriteString("} ")
}

func (g *Generator) subSelect(b *strings.Builder, q *sparql.Query) {
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	for _, p := range q.Variables {
		if p.Expression != nil {
			b.WriteString("(" + g.expr(*p.Expression, false) + " AS " + p.Variable + ") ")
		} else {
			b.WriteString(p.Variable + " ")
		}
	}
	b.WriteString("WHERE ")
	g.group(b, q.Where)
	if q.Limit != nil {
		b.WriteString("LIMIT " + strconv.Itoa(*q.Limit) + " ")
	}
	if q.Offset != nil {
		b.WriteString("OFFSET " + strconv.Itoa(*q.Offset) + " ")
	}
}

var infix = map[string]bool{
	"||": true, "&&": true,
	"=": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"+": true, "-": true, "*": true, "/": true,
}

func (g *Generator) args(args []sparql.Expression) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.expr(a, false)
	}
	return strings.Join(parts, ", ")
}

func (g *Generator) expr(e sparql.Expression, nested bool) string {
	switch e.Type {
	case "":
		return g.Term(e.Term)
	case sparql.PatternBGP:
		var b strings.Builder
		g.group(&b, []sparql.Pattern{{Type: sparql.PatternBGP, Triples: e.Triples}})
		return strings.TrimSpace(b.String())
	case sparql.PatternGroup:
		var b strings.Builder
		g.group(&b, e.Patterns)
		return strings.TrimSpace(b.String())
	case sparql.ExprAggregate:
		var b strings.Builder
		b.WriteString(strings.ToUpper(e.Aggregation) + "(")
		if e.Distinct {
			b.WriteString("DISTINCT ")
		}
		if e.Expression != nil {
			b.WriteString(g.expr(*e.Expression, false))
		}
		if e.Separator != "" {
			b.WriteString(`; SEPARATOR = "` + e.Separator + `"`)
		}
		b.WriteString(")")
		return b.String()
	case sparql.ExprFunction:
		prefix := ""
		if e.Distinct {
			prefix = "DISTINCT "
		}
		return g.iri(e.Function) + "(" + prefix + g.args(e.Args) + ")"
	}

	op := e.Operator
	switch {
	case infix[op] && len(e.Args) == 2:
		out := g.expr(e.Args[0], true) + " " + op + " " + g.expr(e.Args[1], true)
		if nested {
			return "(" + out + ")"
		}
		return out
	case op == "!" && len(e.Args) == 1:
		return "!" + g.expr(e.Args[0], true)
	case op == "UMINUS" && len(e.Args) == 1:
		return "-" + g.expr(e.Args[0], true)
	case op == "UPLUS" && len(e.Args) == 1:
		return "+" + g.expr(e.Args[0], true)
	case (op == "in" || op == "notin") && len(e.Args) == 2:
		kw := " IN ("
		if op == "notin" {
			kw = " NOT IN ("
		}
		return g.expr(e.Args[0], true) + kw + g.args(e.Args[1].Args) + ")"
	case op == "exists" || op == "notexists":
		kw := "EXISTS "
		if op == "notexists" {
			kw = "NOT EXISTS "
		}
		if len(e.Args) == 0 {
			return kw + "{ }"
		}
		return kw + g.expr(e.Args[0], false)
	}
	return strings.ToUpper(op) + "(" + g.args(e.Args) + ")"
}
