package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitegen/internal/build"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Overrides   `embed:""`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after the build"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config, b.Overrides)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	_, err = RunBuild(ctx, cfg, b.MetricsFile)
	return err
}

// RunBuild executes one build and prints its summary. Metrics are exported
// when metricsFile is set, also for failed builds.
func RunBuild(ctx context.Context, cfg *config.Config, metricsFile string) (*build.Report, error) {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if metricsFile != "" {
		prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = prom
	}

	report, err := build.New(cfg, build.WithRecorder(recorder)).Build(ctx)
	if report != nil {
		fmt.Println(report.Summary())
	}
	if prom != nil {
		if werr := prom.WriteTextfile(metricsFile); werr != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(metricsFile), logfields.Error(werr))
		}
	}
	return report, err
}
