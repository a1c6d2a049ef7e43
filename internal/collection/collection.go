// Package collection groups rendered documents into named, ordered,
// read-only sequences for templates and feeds.
package collection

import (
	"cmp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
)

// All is the collection holding every published document.
const All = "all"

// Collection is a named, ordered sequence of documents.
type Collection struct {
	name string
	docs []*content.Document
}

// New returns a collection over docs in the given order.
func New(name string, docs []*content.Document) *Collection {
	return &Collection{name: name, docs: slices.Clone(docs)}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Docs returns a copy of the documents in order. A nil collection is empty.
func (c *Collection) Docs() []*content.Document {
	if c == nil {
		return nil
	}
	return slices.Clone(c.docs)
}

// Len returns the number of documents.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.docs)
}

// Sorted returns a new collection ordered by key ("date", "title" or "path").
// Ties fall back to the source path so the order is total.
func (c *Collection) Sorted(key string, reverse bool) *Collection {
	docs := c.Docs()
	slices.SortStableFunc(docs, func(a, b *content.Document) int {
		var r int
		switch key {
		case "date":
			r = a.Date.Compare(b.Date)
		case "title":
			r = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
		if r == 0 {
			r = cmp.Compare(a.SourcePath, b.SourcePath)
		}
		if reverse {
			return -r
		}
		return r
	})
	return &Collection{name: c.Name(), docs: docs}
}

// Map is the set of collections exposed to templates.
type Map map[string]*Collection

// Get returns the named collection, or nil.
func (m Map) Get(name string) *Collection {
	return m[name]
}

// Names returns the collection names in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Build groups docs, given in discovery order, into the built-in collections:
// all, one per tag and one per top-level directory. A tag and a directory with
// the same name share one collection. Configured sort specs are applied last.
func Build(docs []*content.Document, sorts map[string]config.SortSpec) Map {
	members := map[string][]*content.Document{All: nil}
	seen := map[string]map[string]struct{}{}
	add := func(name string, d *content.Document) {
		if name == "" {
			return
		}
		if seen[name] == nil {
			seen[name] = map[string]struct{}{}
		}
		if _, dup := seen[name][d.SourcePath]; dup {
			return
		}
		seen[name][d.SourcePath] = struct{}{}
		members[name] = append(members[name], d)
	}

	for _, d := range docs {
		add(All, d)
		for _, tag := range d.Tags {
			add(tag, d)
		}
		add(d.Section(), d)
	}

	out := make(Map, len(members))
	for name, ds := range members {
		c := &Collection{name: name, docs: ds}
		if spec, ok := sorts[name]; ok {
			c = c.Sorted(spec.By, spec.Reverse)
		}
		out[name] = c
	}
	return out
}
