package layout

import (
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// funcMap is the complete set of functions reachable from templates.
func funcMap(siteURL string) template.FuncMap {
	base, _ := url.Parse(strings.TrimSuffix(siteURL, "/"))
	return template.FuncMap{
		"date": func(layout string, t time.Time) string {
			return t.Format(layout)
		},
		"absURL": func(p string) string {
			return absURL(base, p)
		},
		"relURL": func(p string) string {
			return relURL(base, p)
		},
		"limit": func(n int, docs []*content.Document) []*content.Document {
			if n < 0 || n >= len(docs) {
				return docs
			}
			return docs[:n]
		},
		"where": where,
	}
}

func relURL(base *url.URL, p string) string {
	if isAbsolute(p) {
		return p
	}
	prefix := ""
	if base != nil {
		prefix = strings.TrimSuffix(base.Path, "/")
	}
	joined := path.Join("/", prefix, p)
	if strings.HasSuffix(p, "/") && joined != "/" {
		joined += "/"
	}
	return joined
}

func absURL(base *url.URL, p string) string {
	if isAbsolute(p) {
		return p
	}
	rel := relURL(base, p)
	if base == nil || base.Host == "" {
		return rel
	}
	return base.Scheme + "://" + base.Host + rel
}

func isAbsolute(p string) bool {
	u, err := url.Parse(p)
	return err == nil && u.IsAbs()
}

// where filters documents by a field. "tags" matches membership and
// "section" the top-level directory; any other key compares metadata.
func where(key string, value any, docs []*content.Document) []*content.Document {
	want := fmt.Sprint(value)
	var out []*content.Document
	for _, d := range docs {
		var match bool
		switch key {
		case "tags", "tag":
			match = d.HasTag(want)
		case "section":
			match = d.Section() == want
		case "layout":
			match = d.Layout == want
		default:
			v, ok := d.Metadata[key]
			match = ok && fmt.Sprint(v) == want
		}
		if match {
			out = append(out, d)
		}
	}
	return out
}
