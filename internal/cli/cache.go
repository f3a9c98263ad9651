package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sparqlviz/pkg/cache"
	"github.com/matzehuels/sparqlviz/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInfoCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// fileCache opens the file cache the config points at. Other backends
// are managed with their own tools.
func (c *CLI) fileCache() (*cache.FileCache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend != config.BackendFile {
		return nil, fmt.Errorf("the %s cache backend is not managed by %s", cfg.Cache.Backend, appName)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		if dir, err = cacheDir(); err != nil {
			return nil, fmt.Errorf("get cache dir: %w", err)
		}
	}
	return cache.NewFileCache(dir)
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached graphs, layouts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if n == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the number and size of cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			stats, err := fc.Stats()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			printKeyValue("directory", fc.Dir())
			printKeyValue("entries", fmt.Sprint(stats.Entries))
			printKeyValue("size", formatBytes(stats.Bytes))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fc.Dir())
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
