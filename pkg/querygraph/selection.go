package querygraph

import "slices"

const annotationKinds = int(KindOrder-KindSubGraph) + 1

type slot struct {
	id  int
	set bool
}

// Selection records which annotation entity, if any, is highlighted for
// each annotation kind. It is a value: Select and Clear return a new
// Selection and leave the receiver unchanged. The zero value selects
// nothing, which highlights everything.
type Selection struct {
	slots [annotationKinds]slot
}

// Select returns a Selection with r highlighted. Selecting an annotation
// replaces any earlier selection of the same kind and keeps the others;
// selecting a node or an edge clears everything.
func (s Selection) Select(r Ref) Selection {
	if !r.Kind.IsAnnotation() {
		return Selection{}
	}
	s.slots[r.Kind-KindSubGraph] = slot{id: r.ID, set: true}
	return s
}

// Clear returns an empty Selection.
func (s Selection) Clear() Selection { return Selection{} }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	for _, sl := range s.slots {
		if sl.set {
			return false
		}
	}
	return true
}

// Selected returns the highlighted entity of kind k, if any.
func (s Selection) Selected(k Kind) (Ref, bool) {
	if !k.IsAnnotation() {
		return Ref{}, false
	}
	sl := s.slots[k-KindSubGraph]
	return Ref{Kind: k, ID: sl.id}, sl.set
}

// Refs lists the selected entities in kind order.
func (s Selection) Refs() []Ref {
	var refs []Ref
	for i, sl := range s.slots {
		if sl.set {
			refs = append(refs, Ref{Kind: KindSubGraph + Kind(i), ID: sl.id})
		}
	}
	return refs
}

func (s Selection) has(k Kind, id int) bool {
	sl := s.slots[k-KindSubGraph]
	return sl.set && sl.id == id
}

func (s Selection) anyOf(k Kind, ids []int) bool {
	sl := s.slots[k-KindSubGraph]
	return sl.set && slices.Contains(ids, sl.id)
}

// Highlighted reports whether r should be drawn highlighted in q under s.
// With nothing selected every entity is highlighted. Otherwise an
// annotation is highlighted when it is the selection of its kind, and a
// node or edge when it belongs to any selected annotation.
func (s Selection) Highlighted(q *Query, r Ref) bool {
	if s.Empty() {
		return true
	}
	if !q.Valid(r) {
		return false
	}
	switch r.Kind {
	case KindNode:
		n := q.nodes[r.ID]
		return s.anyOf(KindSubGraph, ints(n.subGraphs)) ||
			s.anyOf(KindService, ints(n.services)) ||
			s.anyOf(KindUnion, ints(n.unions)) ||
			s.anyOf(KindFilter, ints(n.filters)) ||
			s.anyOf(KindBind, ints(n.binds)) ||
			s.anyOf(KindOrder, ints(n.orders))
	case KindEdge:
		e := q.edges[r.ID]
		if sg, ok := e.SubGraph(); ok && s.has(KindSubGraph, int(sg)) {
			return true
		}
		if svc, ok := e.Service(); ok && s.has(KindService, int(svc)) {
			return true
		}
		return s.anyOf(KindUnion, ints(e.unions)) ||
			s.anyOf(KindFilter, ints(e.filters)) ||
			s.anyOf(KindBind, ints(e.binds)) ||
			s.anyOf(KindOrder, ints(e.orders))
	case KindSubGraph, KindService, KindUnion, KindFilter, KindBind, KindOrder:
		return s.has(r.Kind, r.ID)
	}
	return false
}

func ints[T ~int](ids []T) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
