package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"same input and output", func(c *Config) { c.OutputDirectory = "src/" }, "output_directory"},
		{"permalink without slash", func(c *Config) { c.Permalink = ":slug/" }, "permalink"},
		{"extension with separator", func(c *Config) { c.TemplateFormats = []string{"a/b"} }, "template_formats"},
		{"passthrough escaping root", func(c *Config) { c.Passthrough = []PassthroughRule{{From: "../etc", To: "x"}} }, "passthrough"},
		{"absolute passthrough", func(c *Config) { c.Passthrough = []PassthroughRule{{From: "/img", To: "img"}} }, "passthrough"},
		{"relative site url", func(c *Config) { c.Site.URL = "example.com" }, "site"},
		{"unknown highlight style", func(c *Config) {
			c.MarkdownExtensions = []ExtensionConfig{{Name: "syntax-highlight", Options: map[string]any{"style": "no-such-style"}}}
		}, "markdown_extensions"},
		{"duplicate feed paths", func(c *Config) {
			c.Feeds = []FeedConfig{
				{Title: "a", Collection: "all", Limit: 1, RSSPath: "feed.xml"},
				{Title: "b", Collection: "all", Limit: 1, RSSPath: "./feed.xml"},
			}
		}, "feeds"},
		{"unknown sort key", func(c *Config) { c.Collections = map[string]SortSpec{"posts": {By: "weight"}} }, "collections"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidate_KnownHighlightStyle(t *testing.T) {
	cfg := Default()
	cfg.MarkdownExtensions = []ExtensionConfig{{Name: "syntax-highlight", Options: map[string]any{"style": "monokai"}}}
	require.NoError(t, Validate(cfg))
}
