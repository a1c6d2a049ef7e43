package layout

import (
	"bytes"
	"html/template"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/collection"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
)

// Page is the .Page value seen by templates.
type Page struct {
	Title      string
	Date       time.Time
	URL        string
	Tags       []string
	Section    string
	SourcePath string
	Params     map[string]any
	Headings   []markdown.Heading
}

// PageData is the complete template context.
type PageData struct {
	Page        Page
	Content     template.HTML
	Site        config.SiteConfig
	Collections collection.Map
}

// NewPage builds the .Page value for a document.
func NewPage(doc *content.Document, headings []markdown.Heading) Page {
	return Page{
		Title:      doc.Title,
		Date:       doc.Date,
		URL:        doc.URL,
		Tags:       doc.Tags,
		Section:    doc.Section(),
		SourcePath: doc.SourcePath,
		Params:     doc.Metadata,
		Headings:   headings,
	}
}

// Rendered is the result of rendering one document. Body is the document's
// own HTML before layouts; Page is the final output.
type Rendered struct {
	Body string
	Page string
}

// Render produces the final page for doc. Template documents execute their
// own body first; Markdown documents start from doc.HTML. The result is then
// wrapped by each layout of the chain from innermost to outermost. A document
// without a layout (and no default) is returned unwrapped. doc is not
// modified, so documents may be rendered concurrently.
func (s *Set) Render(doc *content.Document, defaultLayout string, data PageData) (Rendered, error) {
	body := doc.HTML
	if doc.Kind == content.KindTemplate {
		out, err := s.executeDocument(doc, data)
		if err != nil {
			return Rendered{}, err
		}
		body = out
	}
	r := Rendered{Body: body, Page: body}

	name := doc.Layout
	if name == "" {
		name = defaultLayout
	}
	if name == "" {
		return r, nil
	}

	chain, err := s.Chain(name)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return Rendered{}, ce.WithContext("path", doc.SourcePath)
		}
		return Rendered{}, err
	}

	for _, l := range chain {
		data.Content = template.HTML(body) //nolint:gosec // rendered by our own pipeline
		var buf bytes.Buffer
		if err := l.tmpl.Execute(&buf, data); err != nil {
			return Rendered{}, errors.WrapError(err, errors.CategoryRender, "layout execution failed").
				WithContext("path", doc.SourcePath).
				WithContext("layout", l.Name).
				Build()
		}
		body = buf.String()
	}
	r.Page = body
	return r, nil
}

func (s *Set) executeDocument(doc *content.Document, data PageData) (string, error) {
	tmpl, err := template.New(doc.SourcePath).Funcs(s.funcs).Parse(string(doc.Raw))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "invalid template document").
			WithContext("path", doc.SourcePath).
			Build()
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryRender, "template document execution failed").
			WithContext("path", doc.SourcePath).
			Build()
	}
	return buf.String(), nil
}
