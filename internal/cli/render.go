package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sparqlviz/pkg/pipeline"
)

// renderOpts holds the flags of the render command that are not layout
// or compile flags.
type renderOpts struct {
	output   string   // output file (single format) or base path
	formats  []string // svg, png, pdf, dot, json, yaml
	renderer string   // svg or nodelink
	detailed bool     // edge types and a legend
	selected []string // entity references to highlight
	scale    float64  // PNG resolution multiplier
}

func (o renderOpts) apply(opts *pipeline.Options) {
	opts.Formats = o.formats
	opts.Renderer = o.renderer
	opts.Detailed = o.detailed
	opts.Select = o.selected
	opts.Scale = o.scale
}

// renderCommand creates the render command, which runs the whole pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      compileFlags
		lflags     layoutFlags
		ropts      renderOpts
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "render [query.rq | -]",
		Short: "Render a SPARQL query as SVG, PNG, PDF, DOT, JSON or YAML",
		Long: `Render a SPARQL query.

The query is compiled, laid out and drawn. The svg renderer draws the
force layout with curved edges; the nodelink renderer hands the graph to
Graphviz. PNG and PDF are converted from the SVG. json and yaml write
the laid-out graph document, dot the Graphviz source.

Entities can be highlighted with --select, e.g. --select filter/0 to
show the nodes and edges a FILTER talks about; everything else is dimmed.`,
		Example: `  sparqlviz render query.rq
  sparqlviz render -f svg,png --detailed query.rq
  cat query.rq | sparqlviz render -t nodelink -o out.svg -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ropts.formats = parseFormats(formatsStr)
			return c.runRender(cmd, args[0], flags, lflags, ropts)
		},
	}

	flags.register(cmd)
	lflags.register(cmd)
	cmd.Flags().StringVarP(&ropts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s), comma-separated: svg (default), png, pdf, dot, json, yaml")
	cmd.Flags().StringVarP(&ropts.renderer, "type", "t", "", "renderer: svg (default), nodelink")
	cmd.Flags().BoolVar(&ropts.detailed, "detailed", false, "show edge types and a legend of filters, binds, order and limit")
	cmd.Flags().StringSliceVar(&ropts.selected, "select", nil, "highlight entities, e.g. node/0,filter/1")
	cmd.Flags().Float64Var(&ropts.scale, "scale", 0, "PNG resolution multiplier (default 2)")

	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(pipeline.Formats, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("type", cobra.FixedCompletions(pipeline.Renderers, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, flags compileFlags, lflags layoutFlags, ropts renderOpts) error {
	ctx := cmd.Context()

	text, err := readQuery(cmd, input)
	if err != nil {
		return err
	}
	opts, cfg, err := c.options(flags, text, lflags.apply, ropts.apply)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	formats := sortedFormats(res.Artifacts)
	paths := outputPaths(ropts.output, input, formats)
	for _, format := range formats {
		if err := writeFile(ctx, paths[format], res.Artifacts[format]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", input)
	for _, format := range formats {
		printFile(paths[format])
	}
	printStats(res.Stats.Graph, res.CacheInfo.CompileHit && res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
	printDiagnostics(res.Diagnostics)
	return nil
}

// outputPaths names the file of every format. A single format goes to
// output verbatim when it is given; otherwise each format gets
// <base>.<format>.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := outputBase(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func sortedFormats(artifacts map[string][]byte) []string {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}
