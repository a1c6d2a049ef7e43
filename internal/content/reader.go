package content

import (
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// MarkdownExtensions are the file extensions converted by the Markdown transform.
var MarkdownExtensions = []string{"md", "markdown"}

// ReaderConfig selects which files under Root are documents.
type ReaderConfig struct {
	Root            string
	LayoutsDir      string   // absolute, or relative to Root
	Exclude         []string // directories relative to Root
	TemplateFormats []string // extensions without dot
	IncludeDrafts   bool
}

// ReaderConfigFrom derives the reader settings from the build configuration.
func ReaderConfigFrom(cfg *config.Config) ReaderConfig {
	exclude := make([]string, 0, len(cfg.Passthrough))
	for _, r := range cfg.Passthrough {
		exclude = append(exclude, r.From)
	}
	return ReaderConfig{
		Root:            cfg.InputDirectory,
		LayoutsDir:      cfg.LayoutsDirectory,
		Exclude:         exclude,
		TemplateFormats: cfg.TemplateFormats,
		IncludeDrafts:   cfg.IncludeDrafts,
	}
}

// Reader enumerates documents below an input root.
type Reader struct {
	root     string
	excluded map[string]struct{} // absolute, cleaned
	kinds    map[string]Kind
	drafts   bool
}

// NewReader validates the input root and prepares classification tables.
func NewReader(cfg ReaderConfig) (*Reader, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid input directory").
			WithContext("path", cfg.Root).Fatal().Build()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.ConfigError("input directory does not exist").
			WithContext("path", cfg.Root).WithCause(err).Build()
	}
	if !info.IsDir() {
		return nil, errors.ConfigError("input path is not a directory").
			WithContext("path", cfg.Root).Build()
	}

	r := &Reader{
		root:     root,
		excluded: make(map[string]struct{}),
		kinds:    make(map[string]Kind),
		drafts:   cfg.IncludeDrafts,
	}
	for _, dir := range cfg.Exclude {
		r.excluded[r.resolve(dir)] = struct{}{}
	}
	if cfg.LayoutsDir != "" {
		r.excluded[r.resolve(cfg.LayoutsDir)] = struct{}{}
	}
	for _, ext := range cfg.TemplateFormats {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if slices.Contains(MarkdownExtensions, ext) {
			r.kinds[ext] = KindMarkdown
			continue
		}
		r.kinds[ext] = KindTemplate
	}
	// "md" enables both Markdown spellings.
	if _, ok := r.kinds["md"]; ok {
		r.kinds["markdown"] = KindMarkdown
	}
	return r, nil
}

func (r *Reader) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(r.root, p)
}

// Documents returns a lazy sequence over the documents below the root in
// lexical order. Each call walks the tree again, and a file is read only when
// its entry is reached. Per-file problems are yielded as errors and the walk
// continues; a consumer may stop at any point.
func (r *Reader) Documents() iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		_ = filepath.WalkDir(r.root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				err := errors.WrapError(walkErr, errors.CategoryIO, "failed to read input").
					WithContext("path", r.rel(p)).Build()
				if !yield(nil, err) {
					return fs.SkipAll
				}
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				if p == r.root {
					return nil
				}
				if r.skipDir(p, d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
				return nil
			}

			kind, ok := r.kinds[strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))]
			if !ok {
				return nil
			}

			doc, err := r.load(p, kind)
			if err != nil {
				if !yield(nil, err) {
					return fs.SkipAll
				}
				return nil
			}
			if doc.Draft && !r.drafts {
				slog.Debug("Skipping draft", logfields.Path(doc.SourcePath))
				return nil
			}
			if !yield(doc, nil) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

func (r *Reader) skipDir(p, name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	_, excluded := r.excluded[p]
	return excluded
}

func (r *Reader) rel(p string) string {
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (r *Reader) load(p string, kind Kind) (*Document, error) {
	rel := r.rel(p)

	info, err := os.Stat(p)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to stat document").
			WithContext("path", rel).Build()
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to read document").
			WithContext("path", rel).Build()
	}

	fields, body, _, err := frontmatter.Parse(data)
	if err != nil {
		return nil, errors.DocumentParseError("invalid front matter").
			WithContext("path", rel).WithCause(err).Build()
	}

	doc := &Document{
		SourcePath: rel,
		AbsPath:    p,
		Kind:       kind,
		ModTime:    info.ModTime(),
		Raw:        body,
		Metadata:   fields,
	}
	if err := applyMetadata(doc); err != nil {
		return nil, errors.DocumentParseError("invalid metadata").
			WithContext("path", rel).WithCause(err).Build()
	}

	fp, err := ComputeFingerprint(fields, body)
	if err != nil {
		return nil, errors.DocumentParseError("failed to fingerprint document").
			WithContext("path", rel).WithCause(err).Build()
	}
	doc.Fingerprint = fp
	return doc, nil
}
