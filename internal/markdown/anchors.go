package markdown

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/unicode/norm"
)

// Placement of the permalink symbol relative to the heading text.
const (
	PlacementBefore = "before"
	PlacementAfter  = "after"
)

// AnchorOptions configure the anchors extension.
type AnchorOptions struct {
	Symbol    string // permalink text; empty renders no link
	Class     string
	Placement string
}

const defaultAnchorClass = "header-anchor"

// Anchors assigns every heading an id derived from its text. The first
// heading with a given slug keeps it; later ones get -1, -2 and so on. Ids are
// unique within one document only.
func Anchors(opts AnchorOptions) Extension {
	return anchorsExtension{opts: opts}
}

type anchorsExtension struct {
	opts AnchorOptions
}

func (anchorsExtension) Name() string       { return NameAnchors }
func (anchorsExtension) Requires() []string { return nil }

func (e anchorsExtension) Extend(b *Builder) error {
	opts := e.opts
	if opts.Class == "" {
		opts.Class = defaultAnchorClass
	}
	switch opts.Placement {
	case "":
		opts.Placement = PlacementAfter
	case PlacementBefore, PlacementAfter:
	default:
		return fmt.Errorf("placement must be %q or %q, got %q", PlacementBefore, PlacementAfter, opts.Placement)
	}

	b.ParserOptions(parser.WithASTTransformers(util.Prioritized(anchorTransformer{}, 100)))
	if opts.Symbol != "" {
		b.RendererOptions(renderer.WithNodeRenderers(util.Prioritized(&anchorRenderer{opts: opts}, 100)))
	}
	return nil
}

// Slugify maps heading text to an id: NFKD-normalize, drop combining marks,
// lower-case, keep letters and digits and collapse every other run into one
// hyphen. Text without any letter or digit becomes "section".
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
	}
	if b.Len() == 0 {
		return "section"
	}
	return b.String()
}

// slugSet hands out document-unique ids.
type slugSet struct {
	used map[string]struct{}
	next map[string]int
}

func newSlugSet() *slugSet {
	return &slugSet{used: map[string]struct{}{}, next: map[string]int{}}
}

func (s *slugSet) reserve(id string) {
	s.used[id] = struct{}{}
}

func (s *slugSet) unique(base string) string {
	if _, taken := s.used[base]; !taken {
		s.reserve(base)
		return base
	}
	for i := s.next[base] + 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if _, taken := s.used[candidate]; !taken {
			s.next[base] = i
			s.reserve(candidate)
			return candidate
		}
	}
}

// anchorTransformer runs once per parsed document, so the slug set never
// outlives a single conversion.
type anchorTransformer struct{}

func (anchorTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()
	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			headings = append(headings, h)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	slugs := newSlugSet()
	for _, h := range headings {
		if id := headingID(h); id != "" {
			slugs.reserve(id)
		}
	}
	for _, h := range headings {
		if headingID(h) != "" {
			continue
		}
		h.SetAttributeString("id", []byte(slugs.unique(Slugify(nodeText(h, src)))))
	}
}

type anchorRenderer struct {
	opts AnchorOptions
}

func (r *anchorRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
}

func (r *anchorRenderer) renderHeading(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	id := headingID(n)
	if entering {
		_, _ = w.WriteString("<h")
		_ = w.WriteByte("0123456"[n.Level])
		if n.Attributes() != nil {
			html.RenderAttributes(w, node, html.HeadingAttributeFilter)
		}
		_ = w.WriteByte('>')
		if id != "" && r.opts.Placement == PlacementBefore {
			r.writeLink(w, id)
			_ = w.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	}
	if id != "" && r.opts.Placement == PlacementAfter {
		_ = w.WriteByte(' ')
		r.writeLink(w, id)
	}
	_, _ = w.WriteString("</h")
	_ = w.WriteByte("0123456"[n.Level])
	_, _ = w.WriteString(">\n")
	return ast.WalkContinue, nil
}

func (r *anchorRenderer) writeLink(w util.BufWriter, id string) {
	_, _ = w.WriteString(`<a class="`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.opts.Class)))
	_, _ = w.WriteString(`" href="#`)
	_, _ = w.Write(util.EscapeHTML([]byte(id)))
	_, _ = w.WriteString(`" aria-hidden="true">`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.opts.Symbol)))
	_, _ = w.WriteString("</a>")
}
