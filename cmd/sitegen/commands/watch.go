package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Overrides `embed:""`
	Debounce  time.Duration `help:"Quiet period after the last change before rebuilding" default:"300ms"`
	Every     time.Duration `help:"Also rebuild on this interval (0 disables)" default:"0s"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config, w.Overrides)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	builder := build.New(cfg)
	watcher := watch.New(cfg.InputDirectory, func(ctx context.Context) error {
		_, err := builder.Build(ctx)
		return err
	}, watch.Options{
		Debounce: w.Debounce,
		Every:    w.Every,
		Ignore:   []string{cfg.OutputDirectory},
	})
	return watcher.Run(ctx)
}
