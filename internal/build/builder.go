package build

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitegen/internal/collection"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/layout"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/observability"
	"git.home.luguber.info/inful/sitegen/internal/output"
)

// Builder runs builds for one configuration. A Builder may run Build
// repeatedly (watch mode) but not concurrently.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder. The default records nothing.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// New returns a Builder for cfg. cfg must be finalized and is not modified.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildState carries the values produced by one stage to the next.
type BuildState struct {
	cfg      *config.Config
	recorder metrics.Recorder

	Report *Report

	transformer *markdown.Transformer
	layouts     *layout.Set
	docs        []*content.Document
	collections collection.Map
	plan        *output.Plan
	stage       *output.Stage
	writer      *output.Writer
}

func (bs *BuildState) workers() int {
	return max(bs.cfg.Workers, 1)
}

// docError records a per-document problem. In strict mode it returns a fatal
// error that aborts the stage; otherwise the build continues.
func (bs *BuildState) docError(stage StageName, err error) error {
	bs.Report.AddIssue(stage, err)
	attrs := []any{logfields.Stage(string(stage)), logfields.Error(err)}
	if ce, ok := errors.AsClassified(err); ok {
		if p, ok := ce.Context().GetString("path"); ok {
			attrs = append(attrs, logfields.Path(p))
		}
	}
	if errors.GetSeverity(err) == errors.SeverityWarning {
		slog.Warn("Document issue", attrs...)
	} else {
		slog.Error("Document issue", attrs...)
	}
	if !bs.cfg.Strict {
		return nil
	}
	return errors.BuildError("strict mode: document error aborts the build").
		WithCause(err).
		Fatal().
		Build()
}

// Build runs every stage and returns the report. The error is non-nil when a
// fatal error aborted the build; the report is always returned.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	if b.cfg == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	bs := &BuildState{
		cfg:      b.cfg,
		recorder: b.recorder,
		Report:   newReport(),
	}
	ctx = observability.WithBuildID(ctx, bs.Report.BuildID)
	observability.InfoContext(ctx, "Starting build",
		logfields.Path(b.cfg.InputDirectory),
		logfields.Output(b.cfg.OutputDirectory))

	err := runStages(ctx, bs, [][]StageDef{
		{{StageLoadLayouts, stageLoadLayouts}},
		{{StageDiscover, stageDiscover}},
		{{StagePlanOutputs, stagePlanOutputs}},
		{{StageRender, stageRender}, {StagePassthrough, stagePassthrough}},
		{{StageFeeds, stageFeeds}},
		{{StagePromote, stagePromote}},
	})
	if err != nil && bs.stage != nil {
		bs.stage.Abort()
	}

	bs.Report.finish(err)
	b.recorder.IncBuildOutcome(string(bs.Report.Outcome))
	b.recorder.ObserveBuildDuration(bs.Report.Duration())

	if b.cfg.ReportFile != "" {
		if perr := bs.Report.Persist(b.cfg.ReportFile); perr != nil {
			slog.Warn("Failed to persist build report", logfields.Path(b.cfg.ReportFile), logfields.Error(perr))
		}
	}

	attrs := []slog.Attr{
		slog.String("outcome", string(bs.Report.Outcome)),
		slog.String("summary", bs.Report.Summary()),
		logfields.DurationMS(float64(bs.Report.Duration().Microseconds()) / 1000),
	}
	if err != nil {
		observability.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
	} else {
		observability.InfoContext(ctx, "Build finished", attrs...)
	}
	return bs.Report, err
}
