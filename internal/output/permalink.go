// Package output maps documents to output paths and writes the build result
// into a staging directory that replaces the output root on success.
package output

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/markdown"
)

var tokenPattern = regexp.MustCompile(`:[a-z]+`)

// Permalink expands pattern for doc. A permalink string in the document's
// metadata replaces the pattern. Supported tokens are :year, :month, :day,
// :slug, :title, :section, :path and :filename. The result is a rooted URL
// path; a trailing slash is kept.
func Permalink(pattern string, doc *content.Document) (string, error) {
	if doc.Permalink != "" {
		pattern = doc.Permalink
	}

	var unknown []string
	expanded := tokenPattern.ReplaceAllStringFunc(pattern, func(tok string) string {
		v, ok := tokenValue(tok[1:], doc)
		if !ok {
			unknown = append(unknown, tok)
			return tok
		}
		return v
	})
	if len(unknown) > 0 {
		return "", fmt.Errorf("unknown permalink token %s in %q", strings.Join(unknown, ", "), pattern)
	}

	dir := strings.HasSuffix(expanded, "/")
	cleaned := path.Clean("/" + expanded)
	for _, part := range strings.Split(expanded, "/") {
		if part == ".." {
			return "", fmt.Errorf("permalink %q leaves the output root", expanded)
		}
	}
	if dir && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned, nil
}

func tokenValue(name string, doc *content.Document) (string, bool) {
	switch name {
	case "year":
		return doc.Date.Format("2006"), true
	case "month":
		return doc.Date.Format("01"), true
	case "day":
		return doc.Date.Format("02"), true
	case "slug":
		if doc.Slug != "" {
			return doc.Slug, true
		}
		return fileSlug(doc), true
	case "title":
		return markdown.Slugify(doc.Title), true
	case "section":
		return doc.Section(), true
	case "path":
		if doc.IsIndex() {
			return doc.Dir(), true
		}
		return strings.TrimSuffix(doc.SourcePath, path.Ext(doc.SourcePath)), true
	case "filename":
		return doc.FileName(), true
	}
	return "", false
}

// fileSlug is the file name, or the directory name for index pages.
func fileSlug(doc *content.Document) string {
	if !doc.IsIndex() {
		return doc.FileName()
	}
	if doc.Dir() == "" {
		return ""
	}
	return path.Base(doc.Dir())
}

// FilePath maps a URL path to a file below the output root: directory URLs
// get index.html, URLs with an extension are used as is.
func FilePath(url string) string {
	rel := strings.TrimPrefix(url, "/")
	switch {
	case rel == "" || strings.HasSuffix(rel, "/"):
		return rel + "index.html"
	case path.Ext(rel) != "":
		return rel
	default:
		return rel + "/index.html"
	}
}
