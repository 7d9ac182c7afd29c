// Package cli implements the knowdes command-line interface.
//
// Commands cover the full document lifecycle: generating a graph from a
// topic, viewing and growing it interactively, expanding from the command
// line, importing and exporting, serving the HTTP API, and managing the
// completion cache. All commands support --verbose (-v) for debug-level
// logging.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/MarkovWon/Knowdes/pkg/buildinfo"
	"github.com/MarkovWon/Knowdes/pkg/cache"
	"github.com/MarkovWon/Knowdes/pkg/config"
	"github.com/MarkovWon/Knowdes/pkg/generate"
	"github.com/MarkovWon/Knowdes/pkg/layout"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "knowdes"

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
	Config config.Config
}

// New creates a new CLI instance with a default logger and the user's
// configuration. A malformed config file surfaces as a warning, not a
// hard failure; defaults are used instead.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level)}

	cfg, err := config.LoadDefault()
	if err != nil {
		c.Logger.Warn("ignoring malformed config", "err", err)
		cfg = config.Default()
	}
	c.Config = cfg
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "knowdes",
		Short:        "Knowdes grows concept graphs interactively",
		Long:         `Knowdes builds a concept graph for any topic, then lets you grow it by selecting the nodes you want explored further. Graphs can be viewed in the terminal, served over HTTP, and exported to DOT, SVG, PNG, HTML, or Markdown.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.expandCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Generator Factory
// =============================================================================

// newGenerator builds the generation client from config and the selected
// cache backend.
func (c *CLI) newGenerator(cmd *cobra.Command, noCache bool) (*generate.Client, error) {
	store, err := c.newCache(cmd, noCache)
	if err != nil {
		return nil, err
	}
	return generate.NewClient(generate.Options{
		BaseURL:  c.Config.LLM.BaseURL,
		Model:    c.Config.LLM.Model,
		APIKey:   c.Config.LLM.APIKey(),
		Timeout:  time.Duration(c.Config.LLM.TimeoutSeconds) * time.Second,
		CacheTTL: time.Duration(c.Config.Cache.TTLHours) * time.Hour,
	}, store, c.Logger), nil
}

// newCache selects the cache backend from config. Backend failures fall
// back to no caching rather than blocking the command.
func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}

	if c.Config.Cache.Backend == "redis" {
		store, err := cache.NewRedisCache(cmd.Context(), c.Config.Cache.RedisAddr, appName)
		if err != nil {
			c.Logger.Warn("redis unreachable, continuing without cache", "addr", c.Config.Cache.RedisAddr, "err", err)
			return cache.NewNullCache(), nil
		}
		return store, nil
	}

	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// layoutConfig maps the physics config onto a layout configuration sized
// for the given viewport.
func (c *CLI) layoutConfig(width, height float64) layout.Config {
	cfg := layout.DefaultConfig()
	cfg.SpringLength = c.Config.Physics.SpringLength
	cfg.SpringStrength = c.Config.Physics.SpringStrength
	cfg.Repulsion = c.Config.Physics.Repulsion
	cfg.CenterStrength = c.Config.Physics.CenterStrength
	cfg.CollideRadius = c.Config.Physics.CollideRadius
	if width > 0 {
		cfg.Width = width
	}
	if height > 0 {
		cfg.Height = height
	}
	return cfg
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/knowdes/).
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
