// Package graph provides the serialization format for compiled queries.
//
// A [Graph] document lists every entity of a [querygraph.Query] in handle
// order, with relations expressed as indices:
//
//	{
//	  "version": 1,
//	  "nodes": [{"id": 0, "name": "?person", "type": "SELECT"}, ...],
//	  "edges": [{"id": 0, "name": "foaf:name", "start": 0, "end": 1, "type": "REGULAR", "curve": "LINEAR"}],
//	  "unions": [{"id": 0, "name": "U1", "edges": [0, 1]}],
//	  "limit": null
//	}
//
// Layout state (node positions and label bounds, edge control points and
// arrowhead anchors) is included once the query has been laid out, so a
// document can be rendered again without rerunning the simulation.
//
// Three encodings share the document:
//
//   - JSON ([WriteGraph], [ReadGraph]): CLI output and the HTTP API
//   - MessagePack ([EncodeSnapshot], [DecodeSnapshot]): cache entries
//   - YAML ([MarshalYAML]): human-readable dumps
//
// Decoding always goes through [ToQuery], which rebuilds the query with
// the same handles and rejects documents with dangling indices.
package graph
