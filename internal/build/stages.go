package build

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitegen/internal/collection"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/feed"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/layout"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
	"git.home.luguber.info/inful/sitegen/internal/observability"
	"git.home.luguber.info/inful/sitegen/internal/output"
	"git.home.luguber.info/inful/sitegen/internal/passthrough"
)

func stageLoadLayouts(ctx context.Context, bs *BuildState) error {
	t, err := markdown.NewFromConfig(bs.cfg)
	if err != nil {
		return err
	}
	bs.transformer = t

	set, err := layout.LoadSet(bs.cfg.LayoutsPath(), layoutExtensions(bs.cfg.TemplateFormats),
		layout.WithSiteURL(bs.cfg.Site.URL))
	if err != nil {
		return err
	}
	if d := bs.cfg.DefaultLayout; d != "" && !set.Has(d) {
		return errors.LayoutNotFound("default layout not found").
			WithContext("layout", d).
			Fatal().
			Build()
	}
	bs.layouts = set
	observability.DebugContext(ctx, "Loaded layouts", logfields.Count(len(set.Names())),
		slog.Any("extensions", t.Extensions()))
	return nil
}

// layoutExtensions returns the template formats usable as layout files.
func layoutExtensions(formats []string) []string {
	exts := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(content.MarkdownExtensions, f) {
			exts = append(exts, f)
		}
	}
	if len(exts) == 0 {
		exts = append(exts, "html")
	}
	return exts
}

func stageDiscover(ctx context.Context, bs *BuildState) error {
	reader, err := content.NewReader(content.ReaderConfigFrom(bs.cfg))
	if err != nil {
		return err
	}
	var docs []*content.Document
	skipped := 0
	for doc, derr := range reader.Documents() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if derr != nil {
			skipped++
			bs.recorder.IncDocuments("skipped")
			if ferr := bs.docError(StageDiscover, derr); ferr != nil {
				return ferr
			}
			continue
		}
		docs = append(docs, doc)
	}
	bs.docs = docs
	bs.Report.update(func(r *Report) {
		r.Documents = len(docs) + skipped
		r.Skipped += skipped
	})
	observability.InfoContext(ctx, "Discovered documents", logfields.Count(len(docs)), slog.Int("skipped", skipped))
	return nil
}

func stagePlanOutputs(ctx context.Context, bs *BuildState) error {
	planner := output.NewPlanner(bs.cfg.Permalink)
	for _, f := range bs.cfg.Feeds {
		for _, p := range []string{f.RSSPath, f.AtomPath} {
			if p == "" {
				continue
			}
			if err := planner.Reserve(outputPath(p), "feed:"+f.Title); err != nil {
				return err
			}
		}
	}
	targets, err := passthroughTargets(bs.cfg.InputDirectory, bs)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if err := planner.Reserve(t.output, t.source); err != nil {
			return err
		}
	}

	plan, err := planner.Plan(bs.docs)
	if err != nil {
		return err
	}
	for _, serr := range plan.Skipped {
		bs.recorder.IncDocuments("skipped")
		bs.Report.update(func(r *Report) { r.Skipped++ })
		if ferr := bs.docError(StagePlanOutputs, serr); ferr != nil {
			return ferr
		}
	}
	bs.plan = plan

	// Documents left out of the plan for an invalid permalink are unpublished.
	published := make([]*content.Document, 0, len(bs.docs))
	for _, d := range bs.docs {
		if d.NoOutput || d.OutputPath != "" {
			published = append(published, d)
		}
	}
	bs.docs = published
	bs.collections = collection.Build(published, bs.cfg.Collections)

	stage, err := output.NewStage(bs.cfg.OutputDirectory)
	if err != nil {
		return err
	}
	bs.stage = stage
	bs.writer = output.NewWriter(stage.FS())
	observability.DebugContext(ctx, "Planned outputs", logfields.Count(len(plan.Entries)), logfields.Path(stage.Dir()))
	return nil
}

type passthroughTarget struct {
	source string
	output string
}

// passthroughTargets lists the output path of every file the passthrough
// rules will copy, so that collisions with documents and feeds are detected
// before anything is written. Missing sources are left to the copier.
func passthroughTargets(root string, bs *BuildState) ([]passthroughTarget, error) {
	var out []passthroughTarget
	for _, rule := range bs.cfg.Passthrough {
		src := filepath.Join(root, filepath.FromSlash(rule.From))
		info, err := os.Stat(src)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			out = append(out, passthroughTarget{source: rule.From, output: outputPath(rule.To)})
			continue
		}
		err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			out = append(out, passthroughTarget{
				source: path.Join(rule.From, rel),
				output: outputPath(path.Join(rule.To, rel)),
			})
			return nil
		})
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryIO, "failed to scan passthrough source").
				WithContext("rule", rule.From).Fatal().Build()
		}
	}
	return out, nil
}

func outputPath(p string) string {
	return path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/"))
}

func stageRender(ctx context.Context, bs *BuildState) error {
	docs := bs.docs
	failed := make([]bool, len(docs))
	headings := make([][]markdown.Heading, len(docs))

	// Markdown conversion completes for every document before any layout
	// runs, so templates listing other documents see their final HTML.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bs.workers())
	for i, doc := range docs {
		if doc.Kind != content.KindMarkdown {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := bs.transformer.Convert(doc.Raw)
			if err != nil {
				failed[i] = true
				if ce, ok := errors.AsClassified(err); ok {
					err = ce.WithContext("path", doc.SourcePath)
				}
				return bs.docError(StageRender, err)
			}
			doc.HTML = res.HTML
			headings[i] = res.Headings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rendered := make([]layout.Rendered, len(docs))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(bs.workers())
	for i, doc := range docs {
		if failed[i] || doc.NoOutput {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data := layout.PageData{
				Page:        layout.NewPage(doc, headings[i]),
				Site:        bs.cfg.Site,
				Collections: bs.collections,
			}
			r, err := bs.layouts.Render(doc, bs.cfg.DefaultLayout, data)
			if err != nil {
				failed[i] = true
				return bs.docError(StageRender, err)
			}
			rendered[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var entries []output.Entry
	var manifest []ManifestEntry
	survivors := make([]*content.Document, 0, len(docs))
	bad := 0
	for i, doc := range docs {
		if failed[i] {
			bad++
			bs.recorder.IncDocuments("failed")
			continue
		}
		survivors = append(survivors, doc)
		if doc.NoOutput {
			continue
		}
		doc.HTML = rendered[i].Body
		doc.Page = rendered[i].Page
		entries = append(entries, output.Entry{Doc: doc, OutputPath: doc.OutputPath})
		manifest = append(manifest, ManifestEntry{Source: doc.SourcePath, Output: doc.OutputPath, Fingerprint: doc.Fingerprint})
	}

	before := bs.writer.Bytes()
	if err := bs.writer.Write(ctx, entries); err != nil {
		return markFatal(err)
	}
	bs.recorder.AddBytesWritten(bs.writer.Bytes() - before)

	// Feeds list only documents that made it through rendering.
	if bad > 0 {
		bs.docs = survivors
		bs.collections = collection.Build(survivors, bs.cfg.Collections)
	}
	for range entries {
		bs.recorder.IncDocuments("rendered")
	}

	bs.Report.update(func(r *Report) {
		r.Rendered = len(entries)
		r.Skipped += bad
		r.Manifest = append(r.Manifest, manifest...)
	})
	observability.InfoContext(ctx, "Rendered documents", logfields.Count(len(entries)), slog.Int("failed", bad))
	return nil
}

func stagePassthrough(ctx context.Context, bs *BuildState) error {
	if len(bs.cfg.Passthrough) == 0 {
		return nil
	}
	copier := passthrough.NewCopier(bs.cfg.InputDirectory, bs.stage.FS(), passthrough.WithWorkers(bs.workers()))
	results, err := copier.Copy(ctx, bs.cfg.Passthrough)
	if err != nil {
		return err
	}
	files, n := 0, int64(0)
	for _, res := range results {
		files += res.Files
		n += res.Bytes
		switch {
		case res.Missing:
			bs.Report.AddIssue(StagePassthrough, errors.NewError(errors.CategoryNotFound, "passthrough source missing").
				WithContext("path", res.Rule.From).
				Warning().
				Build())
		case res.Err != nil:
			if ferr := bs.docError(StagePassthrough, res.Err); ferr != nil {
				return ferr
			}
		}
	}
	bs.recorder.AddBytesCopied(n)
	bs.Report.update(func(r *Report) {
		r.AssetsCopied = files
		r.BytesCopied = n
	})
	observability.InfoContext(ctx, "Copied passthrough files", logfields.Count(files))
	return nil
}

func stageFeeds(ctx context.Context, bs *BuildState) error {
	count := 0
	for _, fc := range bs.cfg.Feeds {
		c := bs.collections.Get(fc.Collection)
		if c == nil {
			bs.Report.AddIssue(StageFeeds, errors.ValidationError("feed collection does not exist").
				WithContext("feed", fc.Title).
				WithContext("collection", fc.Collection).
				Warning().
				Build())
			continue
		}
		f, err := feed.Generate(c, fc, bs.cfg.Site)
		if err != nil {
			if ferr := bs.docError(StageFeeds, err); ferr != nil {
				return ferr
			}
			continue
		}
		outs := f.Outputs()
		paths := make([]string, 0, len(outs))
		for p := range outs {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		for _, p := range paths {
			if err := bs.writer.WriteFile(outputPath(p), []byte(outs[p])); err != nil {
				return markFatal(err)
			}
			bs.recorder.AddBytesWritten(int64(len(outs[p])))
		}
		count++
		observability.InfoContext(ctx, "Generated feed", logfields.Feed(fc.Title), logfields.Collection(fc.Collection),
			logfields.Count(len(f.Items)))
	}
	bs.Report.update(func(r *Report) { r.Feeds = count })
	return nil
}

func stagePromote(_ context.Context, bs *BuildState) error {
	bs.Report.update(func(r *Report) {
		r.FilesWritten = int(bs.writer.Files())
		r.BytesWritten = bs.writer.Bytes()
	})
	return bs.stage.Promote()
}

// markFatal upgrades an output error: a failed write leaves the staged site
// incomplete.
func markFatal(err error) error {
	if ce, ok := errors.AsClassified(err); ok && !ce.IsFatal() {
		return errors.WrapError(ce, ce.Category(), "output write failed").Fatal().Build()
	}
	return err
}
