// Package markdown converts Markdown documents to HTML fragments through an
// ordered chain of goldmark extensions.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Options are the base renderer switches.
type Options struct {
	HTML        bool // pass raw HTML through
	Linkify     bool
	Typographer bool
}

// Heading describes one heading of a converted document.
type Heading struct {
	Level int
	Text  string
	ID    string
}

// Result is the output of a single conversion.
type Result struct {
	HTML     string
	Headings []Heading
}

// Transformer converts Markdown to HTML. It is safe for concurrent use: all
// per-document state lives in the parser context created for each call.
type Transformer struct {
	md    goldmark.Markdown
	names []string
}

// New assembles the goldmark pipeline. Linkify and Typographer in opts add
// their extensions ahead of the chain unless the chain already lists them.
func New(opts Options, chain []Extension) (*Transformer, error) {
	full := make([]Extension, 0, len(chain)+2)
	if opts.Linkify && !contains(chain, NameLinkify) {
		full = append(full, Linkify())
	}
	if opts.Typographer && !contains(chain, NameTypographer) {
		full = append(full, Typographer())
	}
	full = append(full, chain...)

	b := newBuilder()
	for _, ext := range full {
		name := ext.Name()
		if b.Has(name) {
			return nil, errors.ConfigError("markdown extension listed twice").
				WithContext("extension", name).Build()
		}
		for _, req := range ext.Requires() {
			if !b.Has(req) {
				return nil, errors.ConfigError("markdown extension requires another extension earlier in the chain").
					WithContext("extension", name).
					WithContext("requires", req).
					Build()
			}
		}
		if err := ext.Extend(b); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid markdown extension options").
				WithContext("extension", name).
				Fatal().
				Build()
		}
		b.applied = append(b.applied, name)
	}

	if opts.HTML {
		b.RendererOptions(html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(b.extenders...),
		goldmark.WithParserOptions(b.parserOpts...),
		goldmark.WithRendererOptions(b.rendererOpts...),
	)
	return &Transformer{md: md, names: b.applied}, nil
}

// Extensions returns the applied extension names in order.
func (t *Transformer) Extensions() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Convert renders src. Identical input yields byte-identical output.
func (t *Transformer) Convert(src []byte) (Result, error) {
	ctx := parser.NewContext()
	doc := t.md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	var buf bytes.Buffer
	if err := t.md.Renderer().Render(&buf, src, doc); err != nil {
		return Result{}, errors.WrapError(err, errors.CategoryRender, "markdown render failed").Build()
	}
	return Result{HTML: buf.String(), Headings: collectHeadings(doc, src)}, nil
}

func collectHeadings(doc ast.Node, src []byte) []Heading {
	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		out = append(out, Heading{Level: h.Level, Text: nodeText(h, src), ID: headingID(h)})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// nodeText concatenates the plain text below n.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	switch id := v.(type) {
	case []byte:
		return string(id)
	case string:
		return id
	}
	return ""
}

func contains(chain []Extension, name string) bool {
	for _, e := range chain {
		if e.Name() == name {
			return true
		}
	}
	return false
}
