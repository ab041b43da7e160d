// Package cli implements the logistica command-line interface.
//
// The CLI fetches delivery predictions, renders their decision graphs and
// serves the dashboard API. It is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - predict: call the prediction service and print the decision view
//   - render: build a view from a saved result file and write diagrams
//   - browse: explore a saved result interactively
//   - serve: run the HTTP API
//   - cache: manage the artifact cache
//
// # Configuration
//
// Settings come from ~/.config/logistica/config.toml (or --config), a .env
// file and LOGISTICA_* variables; see package config. Flags win over all of
// them.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/imartinezt/logistica-front/pkg/buildinfo"
	"github.com/imartinezt/logistica-front/pkg/cache"
	"github.com/imartinezt/logistica-front/pkg/client"
	"github.com/imartinezt/logistica-front/pkg/config"
	"github.com/imartinezt/logistica-front/pkg/observability"
	"github.com/imartinezt/logistica-front/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "logistica"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	out        io.Writer
	configPath string
	envFile    string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Logistica explains delivery predictions as decision graphs",
		Long:          `Logistica fetches delivery fee and date predictions and turns them into a decision view: metrics, insights and a graph of how the order travels from stores to the customer.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/logistica/config.toml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", "", "dotenv file to load (default .env)")

	root.AddCommand(c.predictCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the root command.
func (c *CLI) Execute(ctx context.Context) error {
	return c.RootCommand().ExecuteContext(ctx)
}

// setup loads the configuration and applies --verbose.
func (c *CLI) setup() error {
	if c.verbose {
		c.SetLogLevel(log.DebugLevel)
		observability.NewLogHooks(c.Logger).Register()
	}
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "api", cfg.API.BaseURL, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if ns := c.Config.Cache.Namespace; ns != "" {
		keyer = cache.NewScopedKeyer(nil, ns+":")
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      c.Config.Cache.RedisAddr,
			Password:  c.Config.Cache.RedisPassword,
			DB:        c.Config.Cache.RedisDB,
			KeyPrefix: c.Config.Cache.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newClient creates a prediction client from the configuration.
func (c *CLI) newClient() *client.Client {
	return client.New(client.Config{
		BaseURL:  c.Config.API.BaseURL,
		Endpoint: c.Config.API.Endpoint,
		Timeout:  c.Config.API.Timeout,
	})
}

// cacheDir returns the configured file cache directory.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cache.DefaultDir()
}
