// Package cli implements the sparqlviz command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sparqlviz/pkg/buildinfo"
	"github.com/matzehuels/sparqlviz/pkg/cache"
	"github.com/matzehuels/sparqlviz/pkg/config"
	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "sparqlviz"

	// redisKeyPrefix namespaces every entry in a shared Redis.
	redisKeyPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by --config; empty means config.DefaultPath.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "sparqlviz draws SPARQL queries as graphs",
		Long: `sparqlviz compiles SPARQL queries into graphs of their triple patterns
and draws them: variables and terms become ellipses, patterns become curved
arrows, and named graphs, SERVICE clauses, filters and ordering are kept
as annotations.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/sparqlviz/config.toml)")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the file named by --config, or the default file if it exists.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner on the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.KeyPrefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.KeyPrefix)
	}
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

func newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   redisKeyPrefix,
		})
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/sparqlviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputBase derives the path files are written to, without extension.
// An explicit output keeps its directory and drops a known format
// extension; otherwise the input name is used, or "query" for stdin.
func outputBase(output, input string) string {
	if output == "" {
		if input == "" || input == "-" {
			return "query"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	for _, f := range pipeline.Formats {
		if strings.EqualFold(ext, "."+f) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// =============================================================================
// Input Helpers
// =============================================================================

// readQuery returns the query text from a file, or from stdin for "-".
func readQuery(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), sverrors.MaxQueryLength+1))
	} else {
		data, err = os.ReadFile(path)
		if os.IsNotExist(err) {
			return "", sverrors.New(sverrors.ErrCodeFileNotFound, "query file %s not found", path)
		}
	}
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	return string(data), nil
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string leaves the choice to the config file.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// layoutFlags are shared by every command that lays a graph out.
type layoutFlags struct {
	width, height float64
	ticks         int
	fontSize      float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "canvas height (default from config)")
	cmd.Flags().IntVar(&f.ticks, "ticks", 0, "maximum simulation steps (default from config)")
	cmd.Flags().Float64Var(&f.fontSize, "font-size", 0, "label font size (default from config)")
}

func (f layoutFlags) apply(opts *pipeline.Options) {
	opts.Width, opts.Height = f.width, f.height
	opts.Ticks = f.ticks
	opts.FontSize = f.fontSize
}
