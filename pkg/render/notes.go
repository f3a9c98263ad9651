package render

import (
	"strconv"

	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

// Notes lists the parts of a query that are not drawn as nodes or edges:
// FILTER and BIND texts, the ORDER BY keys and the LIMIT, in that order.
func Notes(q *querygraph.Query) []string {
	var lines []string
	for _, f := range q.Filters() {
		lines = append(lines, f.Text())
	}
	for _, b := range q.Binds() {
		lines = append(lines, b.Text())
	}
	if _, ok := q.Order(); ok {
		lines = append(lines, "ORDER BY "+q.OrderText())
	}
	if n, ok := q.Limit(); ok {
		lines = append(lines, "LIMIT "+strconv.Itoa(n))
	}
	return lines
}
