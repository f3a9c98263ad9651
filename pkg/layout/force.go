package layout

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sparqlviz/pkg/geometry"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
)

const (
	alphaMin        = 0.001
	velocityDecay   = 0.4
	initialRadius   = 10.0
	collideStrength = 1.0
)

var (
	// alphaDecay cools the simulation from 1 to alphaMin in DefaultTicks steps.
	alphaDecay  = 1 - math.Pow(alphaMin, 1.0/DefaultTicks)
	goldenAngle = math.Pi * (3 - math.Sqrt(5))
)

type body struct {
	node   *querygraph.Node
	x, y   float64
	vx, vy float64
}

type link struct {
	source, target int
	bias           float64
}

// Simulation is a deterministic force-directed layout over the nodes of a
// Query. Nodes are pulled towards the canvas center, repel each other,
// keep a minimum distance and are held together by their edges.
type Simulation struct {
	q      *querygraph.Query
	opts   Options
	bodies []body
	links  []link
	alpha  float64
	ticks  int
}

// NewSimulation prepares a simulation. Nodes that have no position yet
// (those at the origin) are spread on a phyllotaxis spiral around the
// canvas center; the others start where they are. Label bounds are
// estimated for every node.
func NewSimulation(q *querygraph.Query, opts Options) *Simulation {
	opts.SetDefaults()
	s := &Simulation{q: q, opts: opts, alpha: 1}

	cx, cy := opts.Width/2, opts.Height/2
	s.bodies = make([]body, len(q.Nodes()))
	for i, n := range q.Nodes() {
		n.SetLabelBounds(LabelBounds(n.Name(), opts.FontSize))
		p := n.Position()
		if p == (querygraph.Point{}) && !n.Fixed() {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * goldenAngle
			p = querygraph.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
			n.SetPosition(p.X, p.Y)
		}
		s.bodies[i] = body{node: n, x: p.X, y: p.Y}
	}

	degree := make([]int, len(s.bodies))
	for _, e := range q.Edges() {
		degree[e.Start()]++
		degree[e.End()]++
	}
	for _, e := range q.Edges() {
		if e.Start() == e.End() {
			continue
		}
		src, dst := int(e.Start()), int(e.End())
		s.links = append(s.links, link{
			source: src,
			target: dst,
			bias:   float64(degree[src]) / float64(degree[src]+degree[dst]),
		})
	}
	geometry.AssignCurveClasses(q)
	return s
}

// Alpha is the current temperature of the simulation.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Ticks is the number of steps taken so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Done reports whether the simulation has cooled down or used up its
// tick budget.
func (s *Simulation) Done() bool {
	return s.alpha < alphaMin || s.ticks >= s.opts.Ticks
}

// Reheat restarts the cooling schedule, e.g. after a node was dragged.
func (s *Simulation) Reheat() {
	s.alpha = 1
	s.ticks = 0
	for i := range s.bodies {
		p := s.bodies[i].node.Position()
		s.bodies[i].x, s.bodies[i].y = p.X, p.Y
	}
}

// Step advances the simulation by one tick, writes the new positions to
// the nodes and recomputes edge geometry.
func (s *Simulation) Step() geometry.Diagnostics {
	s.alpha += (0 - s.alpha) * alphaDecay

	s.center()
	s.charge()
	s.collide()
	s.link()

	for i := range s.bodies {
		b := &s.bodies[i]
		if b.node.Fixed() {
			p := b.node.Position()
			b.x, b.y, b.vx, b.vy = p.X, p.Y, 0, 0
			continue
		}
		b.vx *= 1 - velocityDecay
		b.vy *= 1 - velocityDecay
		b.x += b.vx
		b.y += b.vy
		b.node.SetPosition(b.x, b.y)
	}
	s.ticks++
	return geometry.Tick(s.q)
}

func (s *Simulation) center() {
	if len(s.bodies) == 0 {
		return
	}
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	n := float64(len(s.bodies))
	dx, dy := sx/n-s.opts.Width/2, sy/n-s.opts.Height/2
	for i := range s.bodies {
		s.bodies[i].x -= dx
		s.bodies[i].y -= dy
	}
}

func (s *Simulation) charge() {
	strength := s.opts.ChargeStrength * s.alpha
	for i := range s.bodies {
		bi := &s.bodies[i]
		for j := range s.bodies {
			if i == j {
				continue
			}
			bj := &s.bodies[j]
			x, y := bj.x-bi.x, bj.y-bi.y
			if x == 0 && y == 0 {
				x, y = jiggle(i, j)
			}
			l := x*x + y*y
			if l < 1 {
				l = math.Sqrt(l)
			}
			bi.vx += x * strength / l
			bi.vy += y * strength / l
		}
	}
}

func (s *Simulation) collide() {
	r := 2 * s.opts.CollideRadius
	for i := range s.bodies {
		bi := &s.bodies[i]
		for j := i + 1; j < len(s.bodies); j++ {
			bj := &s.bodies[j]
			x := bi.x + bi.vx - bj.x - bj.vx
			y := bi.y + bi.vy - bj.y - bj.vy
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 && y == 0 {
				x, y = jiggle(i, j)
				l = x*x + y*y
			}
			d := math.Sqrt(l)
			k := (r - d) / d * collideStrength / 2
			x, y = x*k, y*k
			bi.vx += x
			bi.vy += y
			bj.vx -= x
			bj.vy -= y
		}
	}
}

func (s *Simulation) link() {
	for _, l := range s.links {
		src, dst := &s.bodies[l.source], &s.bodies[l.target]
		x := dst.x + dst.vx - src.x - src.vx
		y := dst.y + dst.vy - src.y - src.vy
		if x == 0 && y == 0 {
			x, y = jiggle(l.source, l.target)
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - s.opts.LinkDistance) / d * s.alpha * s.opts.LinkStrength
		x, y = x*k, y*k
		dst.vx -= x * l.bias
		dst.vy -= y * l.bias
		src.vx += x * (1 - l.bias)
		src.vy += y * (1 - l.bias)
	}
}

// jiggle separates coincident bodies by a tiny, reproducible offset.
func jiggle(i, j int) (float64, float64) {
	a := float64(i*31+j*17) * goldenAngle
	return 1e-6 * math.Cos(a), 1e-6 * math.Sin(a)
}

// Result summarizes a layout run.
type Result struct {
	Ticks    int                  `json:"ticks"`
	Alpha    float64              `json:"alpha"`
	Duration time.Duration        `json:"duration"`
	Geometry geometry.Diagnostics `json:"geometry"`
}

// Run lays q out by stepping a new simulation until it settles, the tick
// budget is used up or ctx is cancelled. Geometry diagnostics are those of
// the final step.
func Run(ctx context.Context, q *querygraph.Query, opts Options) (Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	start := time.Now()
	s := NewSimulation(q, opts)
	var diag geometry.Diagnostics
	if len(q.Nodes()) == 0 {
		return Result{Alpha: s.alpha}, nil
	}
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		diag = s.Step()
		if opts.OnTick != nil {
			opts.OnTick(s.ticks)
		}
	}

	res := Result{Ticks: s.ticks, Alpha: s.alpha, Duration: time.Since(start), Geometry: diag}
	logger.Debug("layout settled",
		"nodes", len(q.Nodes()),
		"edges", len(q.Edges()),
		"ticks", res.Ticks,
		"degenerate", diag.DegenerateSegments,
		"unconverged", diag.Unconverged)
	return res, nil
}
