package config

import (
	"runtime"
	"slices"
	"strings"
)

// Default values applied when the configuration omits a field.
const (
	DefaultInputDirectory   = "src"
	DefaultOutputDirectory  = "_site"
	DefaultLayoutsDirectory = "_layouts"
	DefaultPermalink        = "/:path/"
	DefaultFeedLimit        = 20
	DefaultFeedCollection   = "all"
	DefaultFeedRSSPath      = "feed.xml"
)

// DefaultTemplateFormats lists the recognized document extensions.
var DefaultTemplateFormats = []string{"md", "html"}

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type pathsDefaultApplier struct{}

func (pathsDefaultApplier) Domain() string { return "paths" }

func (pathsDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.InputDirectory == "" {
		cfg.InputDirectory = DefaultInputDirectory
	}
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = DefaultOutputDirectory
	}
	if cfg.LayoutsDirectory == "" {
		cfg.LayoutsDirectory = DefaultLayoutsDirectory
	}
	for i := range cfg.Passthrough {
		if cfg.Passthrough[i].To == "" {
			cfg.Passthrough[i].To = cfg.Passthrough[i].From
		}
	}
}

type renderDefaultApplier struct{}

func (renderDefaultApplier) Domain() string { return "render" }

func (renderDefaultApplier) ApplyDefaults(cfg *Config) {
	if len(cfg.TemplateFormats) == 0 {
		cfg.TemplateFormats = slices.Clone(DefaultTemplateFormats)
	}
	if cfg.Permalink == "" {
		cfg.Permalink = DefaultPermalink
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Site.Title == "" {
		cfg.Site.Title = "My Site"
	}
}

type feedsDefaultApplier struct{}

func (feedsDefaultApplier) Domain() string { return "feeds" }

func (feedsDefaultApplier) ApplyDefaults(cfg *Config) {
	for i := range cfg.Feeds {
		f := &cfg.Feeds[i]
		if f.Collection == "" {
			f.Collection = DefaultFeedCollection
		}
		if f.Limit == 0 {
			f.Limit = DefaultFeedLimit
		}
		if f.RSSPath == "" && f.AtomPath == "" {
			f.RSSPath = DefaultFeedRSSPath
		}
		if f.URL == "" {
			f.URL = cfg.Site.URL
		}
		if f.Title == "" {
			f.Title = cfg.Site.Title
		}
		if f.Description == "" {
			f.Description = cfg.Site.Description
		}
	}
}

// defaultAppliers run in order; feeds read site values filled in by render.
var defaultAppliers = []DefaultApplier{
	pathsDefaultApplier{},
	renderDefaultApplier{},
	feedsDefaultApplier{},
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

// normalize lower-cases names and folds duplicate extension entries into the
// position of their first occurrence, keeping the last settings.
func normalize(cfg *Config) {
	for i, f := range cfg.TemplateFormats {
		cfg.TemplateFormats[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
	}
	cfg.TemplateFormats = sortedUnique(cfg.TemplateFormats)

	if len(cfg.MarkdownExtensions) == 0 {
		return
	}
	index := make(map[string]int, len(cfg.MarkdownExtensions))
	out := make([]ExtensionConfig, 0, len(cfg.MarkdownExtensions))
	for _, e := range cfg.MarkdownExtensions {
		e.Name = strings.ToLower(strings.TrimSpace(e.Name))
		if i, ok := index[e.Name]; ok {
			out[i] = e
			continue
		}
		index[e.Name] = len(out)
		out = append(out, e)
	}
	cfg.MarkdownExtensions = out
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
