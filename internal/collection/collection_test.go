package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
)

func doc(path string, day int, tags ...string) *content.Document {
	return &content.Document{
		SourcePath: path,
		Title:      path,
		Date:       time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Tags:       tags,
	}
}

func names(c *Collection) []string {
	var out []string
	for _, d := range c.Docs() {
		out = append(out, d.SourcePath)
	}
	return out
}

func TestBuild_GroupsByTagAndSection(t *testing.T) {
	docs := []*content.Document{
		doc("index.md", 1),
		doc("posts/b.md", 3, "go"),
		doc("posts/a.md", 2, "go", "posts"),
		doc("notes/n.md", 4, "web"),
	}
	m := Build(docs, nil)

	assert.Equal(t, []string{"all", "go", "notes", "posts", "web"}, m.Names())
	assert.Equal(t, []string{"index.md", "posts/b.md", "posts/a.md", "notes/n.md"}, names(m.Get(All)))
	assert.Equal(t, []string{"posts/b.md", "posts/a.md"}, names(m.Get("go")))
	// The posts tag and the posts directory merge without duplicates.
	assert.Equal(t, []string{"posts/b.md", "posts/a.md"}, names(m.Get("posts")))
	assert.Nil(t, m.Get("missing"))
	assert.Equal(t, 0, m.Get("missing").Len())
}

func TestBuild_AppliesSortSpecs(t *testing.T) {
	docs := []*content.Document{doc("posts/b.md", 3), doc("posts/a.md", 2), doc("posts/c.md", 3)}
	m := Build(docs, map[string]config.SortSpec{"posts": {By: "date", Reverse: true}})
	assert.Equal(t, []string{"posts/c.md", "posts/b.md", "posts/a.md"}, names(m.Get("posts")))
	assert.Equal(t, []string{"posts/b.md", "posts/a.md", "posts/c.md"}, names(m.Get(All)))
}

func TestSorted_DoesNotMutate(t *testing.T) {
	c := New("x", []*content.Document{doc("b.md", 2), doc("a.md", 1)})
	sorted := c.Sorted("date", false)
	assert.Equal(t, []string{"a.md", "b.md"}, names(sorted))
	assert.Equal(t, []string{"b.md", "a.md"}, names(c))

	docs := c.Docs()
	docs[0] = nil
	require.NotNil(t, c.Docs()[0])
}

func TestSorted_ByTitle(t *testing.T) {
	c := New("x", []*content.Document{
		{SourcePath: "1.md", Title: "beta"},
		{SourcePath: "2.md", Title: "Alpha"},
	})
	assert.Equal(t, []string{"2.md", "1.md"}, names(c.Sorted("title", false)))
}
