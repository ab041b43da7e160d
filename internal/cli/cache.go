package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imartinezt/logistica-front/pkg/cache"
	"github.com/imartinezt/logistica-front/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the graph and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached graphs and rendered artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend == config.CacheNone {
				printInfo("Caching is disabled")
				return nil
			}

			ch, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				printInfo("Cache backend cannot be cleared")
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cleared %s cache", c.Config.Cache.Backend)
			printDetail("%s", c.cacheLocation())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.out, c.cacheLocation())
			return nil
		},
	}
}

// cacheLocation describes the configured cache: a directory for the file
// backend, a redis address and prefix otherwise.
func (c *CLI) cacheLocation() string {
	switch c.Config.Cache.Backend {
	case config.CacheRedis:
		return fmt.Sprintf("redis://%s/%d (prefix %q)", c.Config.Cache.RedisAddr, c.Config.Cache.RedisDB, c.Config.Cache.KeyPrefix)
	case config.CacheNone:
		return "disabled"
	}
	dir, err := c.cacheDir()
	if err != nil {
		return "unavailable: " + err.Error()
	}
	return dir
}
