package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (.yaml or .toml)" default:"sitegen.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build   BuildCmd   `cmd:"" help:"Build the site once"`
	Watch   WatchCmd   `cmd:"" help:"Build the site and rebuild on changes"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Overrides are command line values that replace configuration fields.
type Overrides struct {
	Input  string `short:"i" help:"Input directory (overrides input_directory)"`
	Output string `short:"o" help:"Output directory (overrides output_directory)"`
	Strict bool   `help:"Treat document errors as fatal"`
}

func (o Overrides) apply(cfg *config.Config) {
	if o.Input != "" {
		cfg.InputDirectory = o.Input
	}
	if o.Output != "" {
		cfg.OutputDirectory = o.Output
	}
	if o.Strict {
		cfg.Strict = true
	}
}

// LoadConfig reads the configuration named by --config and applies
// overrides. A missing file at the default path falls back to defaults.
func LoadConfig(path string, o Overrides) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(path); os.IsNotExist(err) && isDefaultPath(path) {
		slog.Info("No configuration file found, using defaults", logfields.Path(path))
		cfg = config.Default()
	} else {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	o.apply(cfg)
	if err := config.Finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isDefaultPath(p string) bool {
	return filepath.Clean(p) == config.DefaultConfigFile
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
