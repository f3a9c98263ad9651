package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/graph"
	"github.com/matzehuels/sparqlviz/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions and edge geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  compileFlags
		lflags layoutFlags
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "layout [query.rq | -]",
		Short: "Compile a query and compute its layout",
		Long: `Compile a query and compute its layout.

The force simulation places every node; edges then get their curve, the
control point of their Bezier and the point where their arrow meets the
target ellipse. The output is the graph document of 'compile' with the
layout fields filled in.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], flags, lflags, output, format)
		},
	}

	flags.register(cmd)
	lflags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatJSON, "output format: json, yaml")

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input string, flags compileFlags, lflags layoutFlags, output, format string) error {
	ctx := cmd.Context()
	format = strings.ToLower(format)
	if format != pipeline.FormatJSON && format != pipeline.FormatYAML {
		return sverrors.New(sverrors.ErrCodeInvalidFormat, "layout writes json or yaml, not %q", format)
	}

	text, err := readQuery(cmd, input)
	if err != nil {
		return err
	}
	opts, cfg, err := c.options(flags, text, lflags.apply)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	compiled, err := runner.Compile(ctx, opts)
	if err != nil {
		return err
	}
	q := compiled.Query

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	res, hit, err := runner.LayoutWithCacheInfo(ctx, q, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	loggerFromContext(ctx).Debug("layout finished", "ticks", res.Ticks, "alpha", res.Alpha, "cached", hit)

	var data []byte
	if format == pipeline.FormatYAML {
		data, err = graph.MarshalYAML(q)
	} else {
		data, err = graph.MarshalGraph(q)
	}
	if err != nil {
		return err
	}

	if output == "" {
		output = outputBase("", input) + ".layout." + format
	}
	if err := writeFile(ctx, output, data); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(q.Stats(), hit)
	if res.Geometry.DegenerateSegments > 0 || res.Geometry.Unconverged > 0 {
		printDetail("%d degenerate segment(s), %d unconverged arrow(s)", res.Geometry.DegenerateSegments, res.Geometry.Unconverged)
	}
	printDiagnostics(compiled.Diagnostics)
	return nil
}
