// Package querygraph provides the typed graph model a SPARQL request
// compiles into.
//
// # Entities
//
// A [Query] owns every entity of one compiled request:
//
//   - [Node]: a term (variable, IRI or literal) identified by its display
//     name. Nodes carry a position assigned by a layout driver.
//   - [Edge]: one triple pattern from a start node to an end node, with a
//     semantic [EdgeType] (INSERT, DELETE, MINUS, OPTIONAL, CONSTRUCT or
//     REGULAR) and the curve geometry used to draw it.
//   - [SubGraph] and [Service]: named containers for GRAPH and SERVICE
//     clauses.
//   - [Union]: the edges that belong to one UNION.
//   - [Filter] and [Bind]: the serialized expression plus every node and
//     edge it references.
//   - [Order]: the nodes and edges named by ORDER BY.
//
// # Handles
//
// Entities reference each other through typed integer handles ([NodeID],
// [EdgeID], ...) that index the Query's arena slices. Membership is
// recorded on both sides, so a Node lists every SubGraph, Service, Union,
// Filter, Bind, Order and Edge it takes part in, and those entities list
// the node back. Handles are stable for the lifetime of the Query; nothing
// is ever removed.
//
// [Ref] is a tagged union over the eight entity kinds. It is what the
// highlighting [Selection] stores and what renderers pass around when they
// need to name "some entity".
//
// # Mutation
//
// A Query is built once by the compiler and replaced wholesale on the next
// compile. After construction only two kinds of mutation happen: a layout
// driver moves nodes ([Node.SetPosition]) and the geometry engine rewrites
// each edge's derived curve fields ([Edge.SetCenterPoint],
// [Edge.SetInterjection]). Neither is safe for concurrent use.
package querygraph
