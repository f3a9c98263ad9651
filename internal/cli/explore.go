package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sparqlviz/pkg/workspace"
)

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		flags  compileFlags
		lflags layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "explore [query.rq]",
		Short: "Browse the entities of a query interactively",
		Long: `Browse the entities of a query interactively.

Every node, edge, named graph, SERVICE, UNION, FILTER, BIND and the ORDER BY
clause is listed. Highlighting an annotation dims everything it does not
mention; 'w' writes the drawing with the current highlight as SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd, args[0], flags, lflags, output)
		},
	}

	flags.register(cmd)
	lflags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "SVG written by 'w' (default: <input>.svg)")

	return cmd
}

func (c *CLI) runExplore(cmd *cobra.Command, input string, flags compileFlags, lflags layoutFlags, output string) error {
	ctx := cmd.Context()

	text, err := readQuery(cmd, input)
	if err != nil {
		return err
	}
	opts, cfg, err := c.options(flags, "", lflags.apply)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	ws := workspace.New(runner, opts)
	snap, err := ws.Load(ctx, text)
	if err != nil {
		return err
	}
	printDiagnostics(snap.Diagnostics)

	if output == "" {
		output = outputBase("", input) + ".svg"
	}
	// Stage logs would tear the full-screen view.
	c.Logger.SetLevel(max(c.Logger.GetLevel(), log.WarnLevel))
	_, err = tea.NewProgram(NewExploreModel(ctx, ws, output), tea.WithContext(ctx)).Run()
	return err
}
