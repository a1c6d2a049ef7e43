package markdown

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

func convert(t *testing.T, tr *Transformer, src string) Result {
	t.Helper()
	res, err := tr.Convert([]byte(src))
	require.NoError(t, err)
	return res
}

func TestConvert_Plain(t *testing.T) {
	tr, err := New(Options{}, nil)
	require.NoError(t, err)
	res := convert(t, tr, "# Hello\n\nWorld\n")
	assert.Equal(t, "<h1>Hello</h1>\n<p>World</p>\n", res.HTML)
	require.Len(t, res.Headings, 1)
	assert.Equal(t, Heading{Level: 1, Text: "Hello"}, res.Headings[0])
}

func TestConvert_RawHTMLOption(t *testing.T) {
	safe, err := New(Options{}, nil)
	require.NoError(t, err)
	assert.NotContains(t, convert(t, safe, "<div>x</div>\n").HTML, "<div>")

	unsafe, err := New(Options{HTML: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, convert(t, unsafe, "<div>x</div>\n").HTML, "<div>x</div>")
}

func TestConvert_LinkifyAndTypographerOptions(t *testing.T) {
	tr, err := New(Options{Linkify: true, Typographer: true}, []Extension{Linkify()})
	require.NoError(t, err)
	assert.Equal(t, []string{NameTypographer, NameLinkify}, tr.Extensions())

	res := convert(t, tr, "see https://example.com and \"quotes\"\n")
	assert.Contains(t, res.HTML, `<a href="https://example.com">https://example.com</a>`)
	assert.Contains(t, res.HTML, "&ldquo;quotes&rdquo;")
}

func TestAnchors_DocumentScopedIDs(t *testing.T) {
	tr, err := New(Options{}, []Extension{Anchors(AnchorOptions{})})
	require.NoError(t, err)

	a := convert(t, tr, "# Hello\n\nWorld")
	b := convert(t, tr, "# Hello\n\nAgain")
	assert.Contains(t, a.HTML, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, b.HTML, `<h1 id="hello">Hello</h1>`)

	both := convert(t, tr, "# Hello\n\nWorld\n\n# Hello\n\nAgain\n")
	assert.Contains(t, both.HTML, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, both.HTML, `<h1 id="hello-1">Hello</h1>`)
}

func TestAnchors_IDsPairwiseUnique(t *testing.T) {
	tr, err := New(Options{}, []Extension{Anchors(AnchorOptions{})})
	require.NoError(t, err)

	res := convert(t, tr, "# A\n\n## A\n\n# A 1\n\n### A\n\n# !!!\n\n# ???\n")
	seen := map[string]bool{}
	for _, h := range res.Headings {
		require.NotEmpty(t, h.ID)
		assert.False(t, seen[h.ID], "duplicate id %s", h.ID)
		seen[h.ID] = true
	}
	ids := make([]string, 0, len(res.Headings))
	for _, h := range res.Headings {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"a", "a-1", "a-1-1", "a-2", "section", "section-1"}, ids)
}

func TestAnchors_PermalinkSymbol(t *testing.T) {
	after, err := New(Options{}, []Extension{Anchors(AnchorOptions{Symbol: "#"})})
	require.NoError(t, err)
	assert.Contains(t, convert(t, after, "## Intro\n").HTML,
		`<h2 id="intro">Intro <a class="header-anchor" href="#intro" aria-hidden="true">#</a></h2>`)

	before, err := New(Options{}, []Extension{Anchors(AnchorOptions{Symbol: "¶", Class: "anchor", Placement: PlacementBefore})})
	require.NoError(t, err)
	assert.Contains(t, convert(t, before, "## Intro\n").HTML,
		`<h2 id="intro"><a class="anchor" href="#intro" aria-hidden="true">¶</a> Intro</h2>`)
}

func TestAnchors_InvalidPlacement(t *testing.T) {
	_, err := New(Options{}, []Extension{Anchors(AnchorOptions{Placement: "middle"})})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello":            "hello",
		"Héllo Wörld!":     "hello-world",
		"Go 1.24 Release":  "go-1-24-release",
		"  --  ":           "section",
		"already-slugged":  "already-slugged",
		"ﬁle names":        "file-names",
		"Über_Straße":      "uber-straße",
		"trailing ...":     "trailing",
		"--leading dashes": "leading-dashes",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestTOC_RequiresAnchorsEarlier(t *testing.T) {
	_, err := New(Options{}, []Extension{TOC(TOCOptions{})})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = New(Options{}, []Extension{TOC(TOCOptions{}), Anchors(AnchorOptions{})})
	require.Error(t, err)

	_, err = New(Options{}, []Extension{Anchors(AnchorOptions{}), TOC(TOCOptions{})})
	require.NoError(t, err)
}

func TestTOC_RendersNestedList(t *testing.T) {
	tr, err := New(Options{}, []Extension{Anchors(AnchorOptions{}), TOC(TOCOptions{})})
	require.NoError(t, err)

	res := convert(t, tr, "# Title\n\n[[toc]]\n\n## Intro\n\n### Detail\n\n## Usage\n\n##### Too deep\n")
	want := "<nav id=\"toc\">\n" +
		"<ol>\n" +
		"<li><a href=\"#intro\">Intro</a>\n" +
		"<ol>\n" +
		"<li><a href=\"#detail\">Detail</a></li>\n" +
		"</ol>\n" +
		"</li>\n" +
		"<li><a href=\"#usage\">Usage</a></li>\n" +
		"</ol>\n" +
		"</nav>\n"
	assert.Contains(t, res.HTML, want)
	assert.NotContains(t, res.HTML, "[[toc]]")
	assert.NotContains(t, res.HTML, `href="#title"`)
}

func TestTOC_Options(t *testing.T) {
	tr, err := New(Options{}, []Extension{
		Anchors(AnchorOptions{}),
		TOC(TOCOptions{Marker: "[TOC]", ListType: "ul", ContainerID: "contents", ContainerClass: "toc box", MinLevel: 1, MaxLevel: 1}),
	})
	require.NoError(t, err)

	res := convert(t, tr, "[[toc]]\n\n[TOC]\n\n# One\n\n## Two\n")
	assert.Contains(t, res.HTML, "<p>[[toc]]</p>")
	assert.Contains(t, res.HTML, "<nav id=\"contents\" class=\"toc box\">\n<ul>\n<li><a href=\"#one\">One</a></li>\n</ul>\n</nav>\n")
}

func TestTOC_InvalidOptions(t *testing.T) {
	for _, opts := range []TOCOptions{{ListType: "dl"}, {MinLevel: 4, MaxLevel: 2}, {MaxLevel: 7}} {
		_, err := New(Options{}, []Extension{Anchors(AnchorOptions{}), TOC(opts)})
		require.Error(t, err)
	}
}

func TestFootnotes(t *testing.T) {
	tr, err := New(Options{}, []Extension{Footnotes("p-")})
	require.NoError(t, err)
	res := convert(t, tr, "Text[^1]\n\n[^1]: Note\n")
	assert.Contains(t, res.HTML, `class="footnotes"`)
	assert.Contains(t, res.HTML, "p-fn:1")
	assert.Contains(t, res.HTML, "footnote-backref")
}

func TestGFM_Table(t *testing.T) {
	tr, err := New(Options{}, []Extension{GFM()})
	require.NoError(t, err)
	res := convert(t, tr, "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n")
	assert.Contains(t, res.HTML, "<table>")
	assert.Contains(t, res.HTML, "<del>gone</del>")
}

func TestSyntaxHighlight(t *testing.T) {
	tr, err := New(Options{}, []Extension{SyntaxHighlight(HighlightOptions{Style: "monokai"})})
	require.NoError(t, err)

	res := convert(t, tr, "```go\npackage main\n```\n")
	assert.Contains(t, res.HTML, `class="chroma"`)
	assert.Contains(t, res.HTML, "package")

	res = convert(t, tr, "```nosuchlang\nx < y\n```\n")
	assert.Contains(t, res.HTML, `<pre><code class="language-nosuchlang">x &lt; y`)

	res = convert(t, tr, "```\nplain\n```\n")
	assert.Contains(t, res.HTML, "<pre><code>plain")
}

func TestSyntaxHighlight_UnknownStyle(t *testing.T) {
	_, err := New(Options{}, []Extension{SyntaxHighlight(HighlightOptions{Style: "no-such-style"})})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestHighlightCSS(t *testing.T) {
	css, err := HighlightCSS("github")
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")

	_, err = HighlightCSS("no-such-style")
	require.Error(t, err)
}

func TestDuplicateExtension(t *testing.T) {
	_, err := New(Options{}, []Extension{GFM(), GFM()})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestConvert_DeterministicAndConcurrent(t *testing.T) {
	tr, err := New(Options{HTML: true, Linkify: true, Typographer: true}, []Extension{
		GFM(),
		Anchors(AnchorOptions{Symbol: "#"}),
		Footnotes(""),
		TOC(TOCOptions{}),
		SyntaxHighlight(HighlightOptions{}),
	})
	require.NoError(t, err)

	src := "# Doc\n\n[[toc]]\n\n## A\n\nText[^n] \"quoted\" https://example.com\n\n## A\n\n```go\nfunc main() {}\n```\n\n[^n]: note\n"
	want := convert(t, tr, src).HTML

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := tr.Convert([]byte(src))
			if err == nil {
				results[i] = res.HTML
			}
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
	assert.Contains(t, want, `href="#a-1"`)
}

func TestChainFromConfig(t *testing.T) {
	off := false
	chain, err := ChainFromConfig([]config.ExtensionConfig{
		{Name: NameAnchors, Options: map[string]any{"symbol": "#"}},
		{Name: NameFootnotes, Enabled: &off},
		{Name: NameTOC, Options: map[string]any{"max_level": 3}},
	})
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, NameAnchors, chain[0].Name())
	assert.Equal(t, NameTOC, chain[1].Name())

	_, err = ChainFromConfig([]config.ExtensionConfig{{Name: "emoji"}})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MarkdownOptions.Linkify = true
	cfg.MarkdownExtensions = []config.ExtensionConfig{{Name: NameAnchors}}
	tr, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{NameLinkify, NameAnchors}, tr.Extensions())
}
