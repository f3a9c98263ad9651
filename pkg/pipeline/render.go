package pipeline

import (
	"context"
	"fmt"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/graph"
	"github.com/matzehuels/sparqlviz/pkg/querygraph"
	"github.com/matzehuels/sparqlviz/pkg/render"
	"github.com/matzehuels/sparqlviz/pkg/render/nodelink"
	"github.com/matzehuels/sparqlviz/pkg/render/svg"
)

// Render generates the requested formats from a laid-out query. Options
// must have passed ValidateForRender.
func Render(ctx context.Context, q *querygraph.Query, opts Options) (map[string][]byte, error) {
	sel, err := opts.Selection(q)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var image []byte // SVG shared by the svg, png and pdf formats
	for _, format := range opts.Formats {
		var data []byte
		switch format {
		case FormatJSON:
			data, err = graph.MarshalGraph(q)
		case FormatYAML:
			data, err = graph.MarshalYAML(q)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(q, nodelink.Options{Detailed: opts.Detailed, Selection: sel}))
		case FormatSVG, FormatPNG, FormatPDF:
			if image == nil {
				image, err = renderSVG(ctx, q, sel, opts)
				if err != nil {
					return nil, err
				}
			}
			data, err = convert(ctx, image, format, opts.Scale)
		default:
			return nil, sverrors.New(sverrors.ErrCodeInvalidFormat, "unsupported format %q", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderSVG(ctx context.Context, q *querygraph.Query, sel querygraph.Selection, opts Options) ([]byte, error) {
	if opts.Renderer == RendererNodelink {
		dot := nodelink.ToDOT(q, nodelink.Options{Detailed: opts.Detailed, Selection: sel})
		return nodelink.RenderSVG(ctx, dot)
	}
	svgOpts := []svg.Option{svg.WithSelection(sel), svg.WithClusters()}
	if opts.FontSize > 0 {
		svgOpts = append(svgOpts, svg.WithFontSize(opts.FontSize))
	}
	if opts.Detailed {
		svgOpts = append(svgOpts, svg.WithLegend())
	}
	return svg.Render(q, svgOpts...), nil
}

func convert(ctx context.Context, image []byte, format string, scale float64) ([]byte, error) {
	switch format {
	case FormatPNG:
		return render.ToPNG(ctx, image, scale)
	case FormatPDF:
		return render.ToPDF(ctx, image)
	}
	return image, nil
}
