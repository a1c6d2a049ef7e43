package markdown

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// TOCOptions configure the table of contents extension.
type TOCOptions struct {
	Marker         string
	ListType       string // "ol" or "ul"
	ContainerID    string
	ContainerClass string
	MinLevel       int
	MaxLevel       int
}

// TOC replaces a paragraph consisting only of the marker with a nested list
// of the document's headings. It reads the ids assigned by anchors.
func TOC(opts TOCOptions) Extension {
	return tocExtension{opts: opts}
}

type tocExtension struct {
	opts TOCOptions
}

func (tocExtension) Name() string       { return NameTOC }
func (tocExtension) Requires() []string { return []string{NameAnchors} }

func (e tocExtension) Extend(b *Builder) error {
	opts := e.opts
	if opts.Marker == "" {
		opts.Marker = "[[toc]]"
	}
	if opts.ListType == "" {
		opts.ListType = "ol"
	}
	if opts.ListType != "ol" && opts.ListType != "ul" {
		return fmt.Errorf("list_type must be ol or ul, got %q", opts.ListType)
	}
	if opts.ContainerID == "" {
		opts.ContainerID = "toc"
	}
	if opts.MinLevel == 0 {
		opts.MinLevel = 2
	}
	if opts.MaxLevel == 0 {
		opts.MaxLevel = 4
	}
	if opts.MinLevel < 1 || opts.MaxLevel > 6 || opts.MinLevel > opts.MaxLevel {
		return fmt.Errorf("invalid heading range %d..%d", opts.MinLevel, opts.MaxLevel)
	}

	// Runs after the anchor transformer (priority 100).
	b.ParserOptions(parser.WithASTTransformers(util.Prioritized(&tocTransformer{opts: opts}, 200)))
	b.RendererOptions(renderer.WithNodeRenderers(util.Prioritized(&tocRenderer{opts: opts}, 500)))
	return nil
}

// KindTOC is the node kind of a generated table of contents.
var KindTOC = ast.NewNodeKind("TOC")

// TOCNode holds the heading tree that replaces the marker paragraph.
type TOCNode struct {
	ast.BaseBlock
	Entries []*TOCEntry
}

// TOCEntry is one heading in the table of contents.
type TOCEntry struct {
	Level    int
	ID       string
	Text     string
	Children []*TOCEntry
}

func (n *TOCNode) Kind() ast.NodeKind { return KindTOC }

func (n *TOCNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Entries": fmt.Sprint(len(n.Entries))}, nil)
}

type tocTransformer struct {
	opts TOCOptions
}

func (t *tocTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	marker := strings.TrimSpace(t.opts.Marker)

	var markers []*ast.Paragraph
	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Paragraph:
			if strings.TrimSpace(nodeText(v, src)) == marker {
				markers = append(markers, v)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if v.Level >= t.opts.MinLevel && v.Level <= t.opts.MaxLevel {
				headings = append(headings, Heading{Level: v.Level, Text: nodeText(v, src), ID: headingID(v)})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if len(markers) == 0 {
		return
	}

	entries := buildTOCTree(headings)
	for _, p := range markers {
		parent := p.Parent()
		if parent == nil {
			continue
		}
		parent.ReplaceChild(parent, p, &TOCNode{Entries: entries})
	}
}

// buildTOCTree nests headings under the closest preceding shallower heading.
func buildTOCTree(headings []Heading) []*TOCEntry {
	root := &TOCEntry{}
	stack := []*TOCEntry{root}
	for _, h := range headings {
		e := &TOCEntry{Level: h.Level, ID: h.ID, Text: h.Text}
		for len(stack) > 1 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, e)
		stack = append(stack, e)
	}
	return root.Children
}

type tocRenderer struct {
	opts TOCOptions
}

func (r *tocRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTOC, r.render)
}

func (r *tocRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*TOCNode)
	_, _ = w.WriteString(`<nav id="`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.opts.ContainerID)))
	_ = w.WriteByte('"')
	if r.opts.ContainerClass != "" {
		_, _ = w.WriteString(` class="`)
		_, _ = w.Write(util.EscapeHTML([]byte(r.opts.ContainerClass)))
		_ = w.WriteByte('"')
	}
	_, _ = w.WriteString(">\n")
	if len(n.Entries) > 0 {
		r.writeList(w, n.Entries)
	}
	_, _ = w.WriteString("</nav>\n")
	return ast.WalkSkipChildren, nil
}

func (r *tocRenderer) writeList(w util.BufWriter, entries []*TOCEntry) {
	_, _ = w.WriteString("<" + r.opts.ListType + ">\n")
	for _, e := range entries {
		_, _ = w.WriteString(`<li><a href="#`)
		_, _ = w.Write(util.EscapeHTML([]byte(e.ID)))
		_, _ = w.WriteString(`">`)
		_, _ = w.Write(util.EscapeHTML([]byte(e.Text)))
		_, _ = w.WriteString("</a>")
		if len(e.Children) > 0 {
			_ = w.WriteByte('\n')
			r.writeList(w, e.Children)
		}
		_, _ = w.WriteString("</li>\n")
	}
	_, _ = w.WriteString("</" + r.opts.ListType + ">\n")
}
