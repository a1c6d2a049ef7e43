// Package feed renders collections as RSS 2.0 and Atom documents.
package feed

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/feeds"

	"git.home.luguber.info/inful/sitegen/internal/collection"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// SummaryLength is the maximum number of runes in an item summary.
const SummaryLength = 280

// Feed is one generated feed. RSS and Atom are empty when their output path
// is not configured.
type Feed struct {
	Config config.FeedConfig
	Items  []*content.Document
	RSS    string
	Atom   string
}

// Outputs maps output paths to encoded documents.
func (f *Feed) Outputs() map[string]string {
	out := make(map[string]string, 2)
	if f.Config.RSSPath != "" {
		out[f.Config.RSSPath] = f.RSS
	}
	if f.Config.AtomPath != "" {
		out[f.Config.AtomPath] = f.Atom
	}
	return out
}

// Select orders docs by descending date, breaking ties by source path, drops
// documents without output and truncates to limit. A limit <= 0 keeps all.
func Select(docs []*content.Document, limit int) []*content.Document {
	items := make([]*content.Document, 0, len(docs))
	for _, d := range docs {
		if d.NoOutput || d.URL == "" {
			continue
		}
		items = append(items, d)
	}
	slices.SortStableFunc(items, func(a, b *content.Document) int {
		if r := b.Date.Compare(a.Date); r != 0 {
			return r
		}
		return cmp.Compare(a.SourcePath, b.SourcePath)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// ItemID returns the stable identifier of the item published at link.
func ItemID(link string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// Generate encodes the documents of c. A nil collection produces an empty feed.
func Generate(c *collection.Collection, cfg config.FeedConfig, site config.SiteConfig) (*Feed, error) {
	items := Select(c.Docs(), cfg.Limit)

	link := cfg.URL
	if link == "" {
		link = site.URL
	}
	f := &feeds.Feed{
		Title:       cfg.Title,
		Link:        &feeds.Link{Href: link},
		Description: cfg.Description,
		Id:          ItemID(link + "#" + cmp.Or(cfg.RSSPath, cfg.AtomPath)),
	}
	if site.Author != "" {
		f.Author = &feeds.Author{Name: site.Author}
	}
	if len(items) > 0 {
		// Items are ordered newest first.
		f.Updated = items[0].Date
		f.Created = items[0].Date
	}

	for _, d := range items {
		href := absolute(link, d.URL)
		item := &feeds.Item{
			Title:       d.Title,
			Link:        &feeds.Link{Href: href},
			Id:          ItemID(href),
			Description: summary(d),
			Created:     d.Date,
			Updated:     updated(d),
		}
		if author, ok := d.Metadata["author"].(string); ok && author != "" {
			item.Author = &feeds.Author{Name: author}
		}
		f.Items = append(f.Items, item)
	}

	out := &Feed{Config: cfg, Items: items}
	var err error
	if cfg.RSSPath != "" {
		if out.RSS, err = f.ToRss(); err != nil {
			return nil, wrap(err, cfg, "rss")
		}
	}
	if cfg.AtomPath != "" {
		if out.Atom, err = f.ToAtom(); err != nil {
			return nil, wrap(err, cfg, "atom")
		}
	}
	return out, nil
}

func wrap(err error, cfg config.FeedConfig, format string) error {
	return errors.WrapError(err, errors.CategoryRender, "failed to encode feed").
		WithContext("feed", cfg.Title).
		WithContext("format", format).
		Build()
}

func absolute(base, u string) string {
	if base == "" || strings.Contains(u, "://") {
		return u
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(u, "/")
}

func updated(d *content.Document) time.Time {
	for _, key := range []string{"updated", "lastmod"} {
		if t, err := content.ParseDate(d.Metadata[key]); err == nil && !t.IsZero() {
			return t
		}
	}
	return d.Date
}

func summary(d *content.Document) string {
	for _, key := range []string{"summary", "description"} {
		if s, ok := d.Metadata[key].(string); ok && strings.TrimSpace(s) != "" {
			return truncate(strings.Join(strings.Fields(s), " "), SummaryLength)
		}
	}
	return truncate(textOf(d.HTML), SummaryLength)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
