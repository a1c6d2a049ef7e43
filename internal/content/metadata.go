package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dateLayouts are tried in order for string dates. Values without a zone are
// interpreted as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var titleCaser = cases.Title(language.English)

// applyMetadata fills the typed fields of doc from its metadata map.
func applyMetadata(doc *Document) error {
	m := doc.Metadata

	doc.Title = stringField(m, "title")
	if doc.Title == "" {
		doc.Title = titleFromName(doc)
	}

	date, err := ParseDate(m["date"])
	if err != nil {
		return err
	}
	if date.IsZero() {
		date = doc.ModTime.UTC()
	}
	doc.Date = date

	doc.Layout = stringField(m, "layout")
	doc.Slug = stringField(m, "slug")
	doc.Tags = stringList(m["tags"])

	if b, ok := m["draft"].(bool); ok {
		doc.Draft = b
	}

	switch v := m["permalink"].(type) {
	case bool:
		doc.NoOutput = !v
	case string:
		doc.Permalink = strings.TrimSpace(v)
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// stringList accepts a list or a single comma-separated string.
func stringList(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch vv := v.(type) {
	case string:
		for _, part := range strings.Split(vv, ",") {
			add(part)
		}
	case []string:
		for _, s := range vv {
			add(s)
		}
	case []any:
		for _, item := range vv {
			if item != nil {
				add(fmt.Sprint(item))
			}
		}
	}
	return out
}

// ParseDate accepts the date values front matter decoders produce: time.Time
// from YAML, TOML local dates and strings in the supported layouts. A nil or
// empty value yields the zero time.
func ParseDate(v any) (time.Time, error) {
	switch vv := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return vv.UTC(), nil
	case toml.LocalDate:
		return vv.AsTime(time.UTC), nil
	case toml.LocalDateTime:
		return vv.AsTime(time.UTC), nil
	case string:
		s := strings.TrimSpace(vv)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v", v)
	}
}

// titleFromName derives a title from the file name, or from the directory
// for index pages.
func titleFromName(doc *Document) string {
	name := doc.FileName()
	if doc.IsIndex() {
		dir := doc.Dir()
		if dir == "" {
			return "Home"
		}
		name = dir[strings.LastIndexByte(dir, '/')+1:]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(strings.TrimSpace(name))
}
