package markdown

import (
	"slices"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
)

// Built-in extension names.
const (
	NameLinkify         = "linkify"
	NameTypographer     = "typographer"
	NameGFM             = "gfm"
	NameAnchors         = "anchors"
	NameFootnotes       = "footnotes"
	NameTOC             = "toc"
	NameSyntaxHighlight = "syntax-highlight"
)

// Extension is one step of the Markdown pipeline. Extensions are applied in
// list order; Requires names extensions that must appear earlier.
type Extension interface {
	Name() string
	Requires() []string
	Extend(b *Builder) error
}

// Builder collects the goldmark configuration contributed by extensions.
type Builder struct {
	extenders    []goldmark.Extender
	parserOpts   []parser.Option
	rendererOpts []renderer.Option
	applied      []string
}

func newBuilder() *Builder {
	return &Builder{}
}

// Use adds goldmark extenders.
func (b *Builder) Use(ext ...goldmark.Extender) {
	b.extenders = append(b.extenders, ext...)
}

// ParserOptions adds parser options such as AST transformers.
func (b *Builder) ParserOptions(opts ...parser.Option) {
	b.parserOpts = append(b.parserOpts, opts...)
}

// RendererOptions adds renderer options such as node renderers.
func (b *Builder) RendererOptions(opts ...renderer.Option) {
	b.rendererOpts = append(b.rendererOpts, opts...)
}

// Has reports whether an extension with this name was already applied.
func (b *Builder) Has(name string) bool {
	return slices.Contains(b.applied, name)
}

// extenderExtension wraps a plain goldmark extender.
type extenderExtension struct {
	name string
	ext  goldmark.Extender
}

func (e extenderExtension) Name() string       { return e.name }
func (e extenderExtension) Requires() []string { return nil }
func (e extenderExtension) Extend(b *Builder) error {
	b.Use(e.ext)
	return nil
}

// Linkify turns bare URLs into links.
func Linkify() Extension { return extenderExtension{name: NameLinkify, ext: extension.Linkify} }

// Typographer replaces straight quotes and dashes with typographic ones.
func Typographer() Extension {
	return extenderExtension{name: NameTypographer, ext: extension.Typographer}
}

// GFM enables tables, strikethrough and task lists.
func GFM() Extension { return extenderExtension{name: NameGFM, ext: extension.GFM} }

// Footnotes renders footnote definitions as a trailing block with
// back-references. A non-empty prefix is prepended to footnote ids.
func Footnotes(idPrefix string) Extension {
	var opts []extension.FootnoteOption
	if idPrefix != "" {
		opts = append(opts, extension.WithFootnoteIDPrefix([]byte(idPrefix)))
	}
	return extenderExtension{name: NameFootnotes, ext: extension.NewFootnote(opts...)}
}
