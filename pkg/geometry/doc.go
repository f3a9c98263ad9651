// Package geometry computes the curves used to draw query graph edges.
//
// Edges between the same pair of nodes would overlap if drawn as straight
// lines, so [AssignCurveClasses] gives the first edge of each pair a
// straight line and bends every further one to either side. Each edge is
// drawn as a quadratic Bezier curve whose control point comes from
// [CenterPoint].
//
// Arrowheads sit where the curve meets the end node's ellipse. [Intersect]
// finds that point: exactly for straight edges, and by a few Newton steps
// on the curve/ellipse quartic for curved ones, accepting an error of about
// two layout units.
//
// [Tick] runs both computations for every edge and is meant to be called
// once per layout step.
package geometry
