package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	return root
}

func collect(t *testing.T, r *Reader) ([]*Document, []error) {
	t.Helper()
	var docs []*Document
	var errs []error
	for doc, err := range r.Documents() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

func paths(docs []*Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.SourcePath)
	}
	return out
}

func TestNewReader_MissingRoot_IsConfigError(t *testing.T) {
	_, err := NewReader(ReaderConfig{Root: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNewReader_FileRoot_IsConfigError(t *testing.T) {
	root := writeTree(t, map[string]string{"file.md": "x"})
	_, err := NewReader(ReaderConfig{Root: filepath.Join(root, "file.md")})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestDocuments_ClassifiesAndExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html":          "<h1>home</h1>",
		"b.md":                "# B",
		"a.markdown":          "# A",
		"posts/one.md":        "# One",
		"img/logo.md":         "not a doc",
		"img/logo.png":        "png",
		"_layouts/base.html":  "{{ .Content }}",
		"_drafts/wip.md":      "# wip",
		".hidden/secret.md":   "# secret",
		".dotfile.md":         "# dot",
		"styles/site.css":     "body{}",
		"notes/readme.txt":    "text",
		"templates/page.tmpl": "{{ .Page.Title }}",
	})

	r, err := NewReader(ReaderConfig{
		Root:            root,
		LayoutsDir:      "_layouts",
		Exclude:         []string{"img"},
		TemplateFormats: []string{"md", "html", "tmpl"},
	})
	require.NoError(t, err)

	docs, errs := collect(t, r)
	require.Empty(t, errs)
	assert.Equal(t, []string{"a.markdown", "b.md", "index.html", "posts/one.md", "templates/page.tmpl"}, paths(docs))

	kinds := map[string]Kind{}
	for _, d := range docs {
		kinds[d.SourcePath] = d.Kind
	}
	assert.Equal(t, KindMarkdown, kinds["a.markdown"])
	assert.Equal(t, KindMarkdown, kinds["b.md"])
	assert.Equal(t, KindTemplate, kinds["index.html"])
	assert.Equal(t, KindTemplate, kinds["templates/page.tmpl"])
}

func TestDocuments_IsRestartable(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "# A", "b.md": "# B"})
	r, err := NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}})
	require.NoError(t, err)

	first, _ := collect(t, r)
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.md"), []byte("# C"), 0o600))
	second, _ := collect(t, r)

	assert.Equal(t, []string{"a.md", "b.md"}, paths(first))
	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, paths(second))
}

func TestDocuments_EarlyStop(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "# A", "b.md": "# B", "c.md": "# C"})
	r, err := NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}})
	require.NoError(t, err)

	n := 0
	for range r.Documents() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestDocuments_ParseErrorIsScopedToFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"bad.md":  "---\ntitle: [unclosed\n---\nbody",
		"good.md": "---\ntitle: Good\n---\nbody",
	})
	r, err := NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}})
	require.NoError(t, err)

	docs, errs := collect(t, r)
	require.Len(t, errs, 1)
	assert.True(t, errors.HasCategory(errs[0], errors.CategoryDocumentParse))
	ce, ok := errors.AsClassified(errs[0])
	require.True(t, ok)
	p, _ := ce.Context().GetString("path")
	assert.Equal(t, "bad.md", p)

	require.Len(t, docs, 1)
	assert.Equal(t, "Good", docs[0].Title)
}

func TestDocuments_Drafts(t *testing.T) {
	root := writeTree(t, map[string]string{
		"draft.md":     "---\ndraft: true\n---\nwip",
		"published.md": "done",
	})

	r, err := NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}})
	require.NoError(t, err)
	docs, _ := collect(t, r)
	assert.Equal(t, []string{"published.md"}, paths(docs))

	r, err = NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}, IncludeDrafts: true})
	require.NoError(t, err)
	docs, _ = collect(t, r)
	assert.Equal(t, []string{"draft.md", "published.md"}, paths(docs))
}

func TestDocuments_Metadata(t *testing.T) {
	root := writeTree(t, map[string]string{
		"posts/hello-world.md": "---\ndate: 2024-03-01\ntags: [go, web]\nlayout: post\nslug: hi\n---\n# Hi\n",
		"posts/toml.md":        "+++\ntitle = \"From TOML\"\ndate = 2024-02-01T10:00:00Z\ntags = \"a, b\"\npermalink = false\n+++\nbody\n",
		"guide/index.md":       "guide",
	})
	r, err := NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}})
	require.NoError(t, err)
	docs, errs := collect(t, r)
	require.Empty(t, errs)
	require.Len(t, docs, 3)

	guide, hello, toml := docs[0], docs[1], docs[2]

	assert.Equal(t, "Guide", guide.Title)
	assert.Equal(t, "guide", guide.Section())
	assert.True(t, guide.IsIndex())

	assert.Equal(t, "Hello World", hello.Title)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), hello.Date)
	assert.Equal(t, []string{"go", "web"}, hello.Tags)
	assert.Equal(t, "post", hello.Layout)
	assert.Equal(t, "hi", hello.Slug)
	assert.Equal(t, "posts", hello.Section())
	assert.Equal(t, "# Hi\n", string(hello.Raw))
	assert.NotEmpty(t, hello.Fingerprint)

	assert.Equal(t, "From TOML", toml.Title)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), toml.Date)
	assert.Equal(t, []string{"a", "b"}, toml.Tags)
	assert.True(t, toml.NoOutput)
}

func TestDocuments_InvalidDateIsParseError(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "---\ndate: yesterday\n---\n"})
	r, err := NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}})
	require.NoError(t, err)
	docs, errs := collect(t, r)
	assert.Empty(t, docs)
	require.Len(t, errs, 1)
	assert.True(t, errors.HasCategory(errs[0], errors.CategoryDocumentParse))
}

func TestDocuments_DateDefaultsToModTime(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "x"})
	mod := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(root, "a.md"), mod, mod))

	r, err := NewReader(ReaderConfig{Root: root, TemplateFormats: []string{"md"}})
	require.NoError(t, err)
	docs, _ := collect(t, r)
	require.Len(t, docs, 1)
	assert.True(t, mod.Equal(docs[0].Date))
}

func TestComputeFingerprint_IgnoresStoredFingerprint(t *testing.T) {
	body := []byte("body\n")
	a, err := ComputeFingerprint(map[string]any{"title": "x"}, body)
	require.NoError(t, err)
	b, err := ComputeFingerprint(map[string]any{"title": "x", mdfp.FingerprintField: a}, body)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := ComputeFingerprint(map[string]any{"title": "y"}, body)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
