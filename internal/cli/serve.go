package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sparqlviz/pkg/observability"
	"github.com/matzehuels/sparqlviz/pkg/observability/prom"
	"github.com/matzehuels/sparqlviz/pkg/server"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile and render API over HTTP",
		Long: `Serve the compile and render API over HTTP.

POST /v1/compile and POST /v1/render take a JSON body with the query and
the same options as the command line. Metrics are exported at /metrics.
Results are cached with the backend of the [cache] config section.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr string, noCache bool) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := prom.New(reg)
	observability.SetPipelineHooks(metrics)
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)
	defer observability.Reset()

	srv := server.New(runner, server.Options{Config: cfg, Gatherer: reg, Logger: c.Logger})
	printKeyValue("address", cfg.Server.Addr)
	printKeyValue("cache", cfg.Cache.Backend)
	return srv.ListenAndServe(ctx)
}
