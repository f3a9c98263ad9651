package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sparqlviz/pkg/config"
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/graph"
	"github.com/matzehuels/sparqlviz/pkg/pipeline"
)

// compileFlags are shared by compile and the commands built on it.
type compileFlags struct {
	prefixes map[string]string
	noCache  bool
	refresh  bool
}

func (f *compileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringToStringVarP(&f.prefixes, "prefix", "p", nil, "declare a prefix, e.g. -p ex=http://example.org/ (repeatable)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached results")
}

// options builds pipeline options from the flags and the config file.
// Prefixes given on the command line are added to the configured ones;
// fields set by the set functions take precedence over the config.
func (c *CLI) options(f compileFlags, text string, set ...func(*pipeline.Options)) (pipeline.Options, config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return pipeline.Options{}, config.Config{}, err
	}
	for name, iri := range f.prefixes {
		if cfg.Prefixes == nil {
			cfg.Prefixes = map[string]string{}
		}
		cfg.Prefixes[name] = iri
	}
	opts := pipeline.Options{Query: text, Refresh: f.refresh, Logger: c.Logger}
	for _, fn := range set {
		fn(&opts)
	}
	cfg.Apply(&opts)
	return opts, cfg, nil
}

// compileCommand creates the compile command, which turns a query into a graph document.
func (c *CLI) compileCommand() *cobra.Command {
	var (
		flags  compileFlags
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "compile [query.rq | -]",
		Short: "Compile a SPARQL query into a graph document",
		Long: `Compile a SPARQL query into a graph document.

The query is read from a file, or from stdin when the argument is "-".
The graph lists the nodes, the edges and the annotations (named graphs,
SERVICE clauses, unions, filters, binds, ordering and limit) as JSON or
YAML. Nothing is laid out yet; see 'layout' and 'render'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompile(cmd, args[0], flags, output, format)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.json, stdout for stdin)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatJSON, "output format: json, yaml")

	return cmd
}

func (c *CLI) runCompile(cmd *cobra.Command, input string, flags compileFlags, output, format string) error {
	ctx := cmd.Context()
	format = strings.ToLower(format)
	if format != pipeline.FormatJSON && format != pipeline.FormatYAML {
		return sverrors.New(sverrors.ErrCodeInvalidFormat, "compile writes json or yaml, not %q", format)
	}

	text, err := readQuery(cmd, input)
	if err != nil {
		return err
	}
	opts, cfg, err := c.options(flags, text)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	res, hit, err := runner.CompileWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("Compiled query", "cached", hit)

	var data []byte
	if format == pipeline.FormatYAML {
		data, err = graph.MarshalYAML(res.Query)
	} else {
		data, err = graph.MarshalGraph(res.Query)
	}
	if err != nil {
		return err
	}

	if output == "" && input == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if output == "" {
		output = outputBase("", input) + "." + format
	}
	if err := writeFile(ctx, output, data); err != nil {
		return err
	}

	printSuccess("Compiled %s", input)
	printFile(output)
	printStats(res.Query.Stats(), hit)
	printDiagnostics(res.Diagnostics)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}

// writeFile writes data unless ctx was cancelled in the meantime.
func writeFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
