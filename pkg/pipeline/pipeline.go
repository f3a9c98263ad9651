// Package pipeline runs the compile → layout → render sequence shared by
// the CLI and the HTTP server.
//
// # Stages
//
//  1. Compile: parse SPARQL text and build its query graph
//  2. Layout: place the nodes with the force simulation and compute edge
//     geometry
//  3. Render: produce SVG, PNG, PDF, DOT, JSON or YAML output
//
// Each stage can be run on its own. A [Runner] adds caching around every
// stage and reports to the observability hooks.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Query:   "SELECT ?s WHERE { ?s a owl:Class }",
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sparqlviz/pkg/cache"
	"github.com/matzehuels/sparqlviz/pkg/compiler"
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/sparql/parser"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Renderers for the image formats. RendererSVG draws the force layout
// directly; RendererNodelink hands the graph to Graphviz.
const (
	RendererSVG      = "svg"
	RendererNodelink = "nodelink"
)

// Defaults shared by the CLI, the server and the config file.
const (
	DefaultRenderer = RendererSVG
	DefaultScale    = 2.0
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON, FormatYAML}

// Renderers lists every supported renderer.
var Renderers = []string{RendererSVG, RendererNodelink}

// Options configures a pipeline run. It doubles as the request body of the
// HTTP API.
type Options struct {
	// Compile options
	Query string `json:"query"`
	// Prefixes are declared in front of the query text. Nil means
	// parser.DefaultPrefixes; an empty map declares nothing.
	Prefixes map[string]string `json:"prefixes,omitempty"`
	Refresh  bool              `json:"refresh,omitempty"`

	// Layout options; zero values take the layout package defaults.
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
	Ticks          int     `json:"ticks,omitempty"`
	CollideRadius  float64 `json:"collide_radius,omitempty"`
	ChargeStrength float64 `json:"charge_strength,omitempty"`
	LinkStrength   float64 `json:"link_strength,omitempty"`
	LinkDistance   float64 `json:"link_distance,omitempty"`
	FontSize       float64 `json:"font_size,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Renderer string   `json:"renderer,omitempty"`
	// Detailed adds edge types and a legend of filters, binds, ordering
	// and limit.
	Detailed bool `json:"detailed,omitempty"`
	// Select lists entity references such as "filter/0" to highlight.
	Select []string `json:"select,omitempty"`
	// Scale is the PNG resolution multiplier.
	Scale float64 `json:"scale,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Query       *querygraph.Query
	Diagnostics compiler.Diagnostics
	// GraphHash is the content hash of the compiled graph before layout.
	GraphHash string
	Layout    layout.Result
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Graph       querygraph.Stats
	CompileTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	CompileHit bool
	LayoutHit  bool
	RenderHit  bool // all artifacts came from the cache
}

// ValidateAndSetDefaults checks the options of a full run and fills in
// defaults. Calling it again is a no-op.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCompile(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCompile checks the query text and prefix declarations.
func (o *Options) ValidateForCompile() error {
	if err := sverrors.ValidateQueryText(o.Query); err != nil {
		return err
	}
	if o.Prefixes == nil {
		o.Prefixes = parser.DefaultPrefixes
	}
	for name, iri := range o.Prefixes {
		if err := sverrors.ValidatePrefixName(name); err != nil {
			return err
		}
		if err := sverrors.ValidateNamespace(iri); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// ValidateForLayout checks the layout settings.
func (o *Options) ValidateForLayout() error {
	o.setLogger()
	return o.LayoutOptions().Validate()
}

// SetRenderDefaults fills in the render defaults.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Renderer == "" {
		o.Renderer = DefaultRenderer
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender fills in the render defaults and checks formats,
// renderer and selection syntax.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	for i, f := range o.Formats {
		if err := sverrors.ValidateFormat(f, Formats); err != nil {
			return err
		}
		o.Formats[i] = strings.ToLower(f)
	}
	if err := sverrors.ValidateFormat(o.Renderer, Renderers); err != nil {
		return err
	}
	o.Renderer = strings.ToLower(o.Renderer)
	if o.Scale < 0 {
		return sverrors.New(sverrors.ErrCodeInvalidInput, "scale must not be negative")
	}
	for _, s := range o.Select {
		if _, err := querygraph.ParseRef(s); err != nil {
			return sverrors.Wrap(sverrors.ErrCodeInvalidInput, err, "invalid selection")
		}
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions converts the layout fields. Zero fields stay zero and are
// defaulted by the layout package.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Width:          o.Width,
		Height:         o.Height,
		Ticks:          o.Ticks,
		CollideRadius:  o.CollideRadius,
		ChargeStrength: o.ChargeStrength,
		LinkStrength:   o.LinkStrength,
		LinkDistance:   o.LinkDistance,
		FontSize:       o.FontSize,
		Logger:         o.Logger,
	}
}

// Selection builds the highlight state for q. References that do not name
// an entity of q are rejected.
func (o *Options) Selection(q *querygraph.Query) (querygraph.Selection, error) {
	var sel querygraph.Selection
	for _, s := range o.Select {
		ref, err := querygraph.ParseRef(s)
		if err != nil {
			return sel, sverrors.Wrap(sverrors.ErrCodeInvalidInput, err, "invalid selection")
		}
		if !q.Valid(ref) {
			return sel, sverrors.New(sverrors.ErrCodeNotFound, "no entity %s in query", ref)
		}
		sel = sel.Select(ref)
	}
	return sel, nil
}

// CompileKeyOpts returns cache key options for compilation.
func (o *Options) CompileKeyOpts() cache.CompileKeyOpts {
	return cache.CompileKeyOpts{Prefixes: o.Prefixes}
}

// LayoutKeyOpts returns cache key options for layout, with defaults
// applied so that explicit and implicit defaults share entries.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	l := o.LayoutOptions()
	l.SetDefaults()
	return cache.LayoutKeyOpts{
		Width:          l.Width,
		Height:         l.Height,
		Ticks:          l.Ticks,
		CollideRadius:  l.CollideRadius,
		ChargeStrength: l.ChargeStrength,
		LinkStrength:   l.LinkStrength,
		LinkDistance:   l.LinkDistance,
		FontSize:       l.FontSize,
	}
}

// ArtifactKeyOpts returns cache key options for one output format.
// Settings that do not affect the format are left out of the key.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatJSON, FormatYAML:
		return k
	case FormatPNG:
		k.Scale = o.Scale
	}
	if format != FormatDOT {
		k.Renderer = o.Renderer
	}
	k.Detailed = o.Detailed
	sel := slices.Clone(o.Select)
	slices.Sort(sel)
	k.Selection = strings.Join(slices.Compact(sel), ",")
	return k
}
