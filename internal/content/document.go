// Package content enumerates source documents below the input root and
// decodes their front matter into typed metadata.
package content

import (
	"path"
	"slices"
	"strings"
	"time"
)

// Kind classifies a source document.
type Kind int

const (
	// KindMarkdown documents are converted to HTML before layout.
	KindMarkdown Kind = iota
	// KindTemplate documents execute their body as a template.
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindMarkdown:
		return "markdown"
	case KindTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Document is a single content file moving from source to output. It is
// created by the Reader, filled in by the render stage and not modified after
// it has been written.
type Document struct {
	SourcePath string // slash-separated, relative to the input root; identity
	AbsPath    string
	Kind       Kind
	ModTime    time.Time

	Raw      []byte         // body without front matter
	Metadata map[string]any // decoded front matter

	Title     string
	Date      time.Time
	Layout    string
	Tags      []string
	Draft     bool
	Slug      string
	Permalink string // explicit permalink from metadata, empty when unset
	NoOutput  bool   // permalink: false

	Fingerprint string

	HTML       string // after the Markdown transform or template execution
	Page       string // after layouts
	OutputPath string // slash-separated, relative to the output root
	URL        string
}

// Ext returns the lower-cased source extension without the dot.
func (d *Document) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(d.SourcePath), "."))
}

// FileName returns the source file name without extension.
func (d *Document) FileName() string {
	base := path.Base(d.SourcePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Dir returns the slash-separated source directory, "" for the root.
func (d *Document) Dir() string {
	dir := path.Dir(d.SourcePath)
	if dir == "." {
		return ""
	}
	return dir
}

// Section returns the top-level directory of the document, "" for root files.
func (d *Document) Section() string {
	dir := d.Dir()
	if i := strings.IndexByte(dir, '/'); i >= 0 {
		return dir[:i]
	}
	return dir
}

// IsIndex reports whether the document is a directory index page.
func (d *Document) IsIndex() bool {
	return d.FileName() == "index"
}

// HasTag reports whether the document carries tag.
func (d *Document) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}
