package build

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/observability"
)

// StageFunc executes one stage. A returned error aborts the build.
type StageFunc func(ctx context.Context, bs *BuildState) error

// StageDef names a stage function.
type StageDef struct {
	Name StageName
	Fn   StageFunc
}

// runStages executes each step in order. The stages of one step run
// concurrently and the next step starts only when all of them finished.
func runStages(ctx context.Context, bs *BuildState, steps [][]StageDef) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			ce := errors.WrapError(err, errors.CategoryRuntime, "build canceled").
				WithContext("stage", string(step[0].Name)).
				Fatal().
				Build()
			bs.Report.AddIssue(step[0].Name, ce)
			bs.recorder.IncStageResult(string(step[0].Name), metrics.ResultCanceled)
			return ce
		}
		if len(step) == 1 {
			if err := runStage(ctx, bs, step[0]); err != nil {
				return err
			}
			continue
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, st := range step {
			g.Go(func() error { return runStage(gctx, bs, st) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func runStage(ctx context.Context, bs *BuildState, st StageDef) error {
	ctx = observability.WithStage(ctx, string(st.Name))
	t0 := time.Now()
	err := st.Fn(ctx, bs)
	dur := time.Since(t0)
	bs.Report.recordStage(st.Name, dur)
	bs.recorder.ObserveStageDuration(string(st.Name), dur)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFatal
		if ctx.Err() != nil && !errors.IsClassified(err) {
			result = metrics.ResultCanceled
		}
		bs.Report.AddIssue(st.Name, err)
	} else if errs, warns := bs.Report.issueCount(st.Name); errs+warns > 0 {
		result = metrics.ResultWarning
	}
	bs.recorder.IncStageResult(string(st.Name), result)

	ms := logfields.DurationMS(float64(dur.Microseconds()) / 1000)
	if err != nil {
		observability.ErrorContext(ctx, "Stage failed", ms, logfields.Error(err))
		return err
	}
	observability.DebugContext(ctx, "Stage complete", ms)
	return nil
}
