package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "sitegen.yaml", `
site:
  title: Blog
  url: https://blog.example.com
feeds:
  - collection: posts
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultInputDirectory, cfg.InputDirectory)
	assert.Equal(t, DefaultOutputDirectory, cfg.OutputDirectory)
	assert.Equal(t, filepath.Join("src", "_layouts"), cfg.LayoutsPath())
	assert.Equal(t, []string{"html", "md"}, cfg.TemplateFormats)
	assert.Equal(t, DefaultPermalink, cfg.Permalink)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)

	require.Len(t, cfg.Feeds, 1)
	f := cfg.Feeds[0]
	assert.Equal(t, "Blog", f.Title)
	assert.Equal(t, "https://blog.example.com", f.URL)
	assert.Equal(t, DefaultFeedLimit, f.Limit)
	assert.Equal(t, DefaultFeedRSSPath, f.RSSPath)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "sitegen.toml", `
input_directory = "content"
output_directory = "public"

[markdown_options]
html = true

[[markdown_extensions]]
name = "anchors"
options = { symbol = "#" }

[[markdown_extensions]]
name = "toc"
options = { max_level = 3 }

[[passthrough]]
from = "img"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "content", cfg.InputDirectory)
	assert.Equal(t, "public", cfg.OutputDirectory)
	assert.True(t, cfg.MarkdownOptions.HTML)
	require.Len(t, cfg.MarkdownExtensions, 2)
	assert.Equal(t, "#", cfg.MarkdownExtensions[0].String("symbol", ""))
	assert.Equal(t, 3, cfg.MarkdownExtensions[1].Int("max_level", 4))
	assert.Equal(t, []PassthroughRule{{From: "img", To: "img"}}, cfg.Passthrough)
}

func TestLoad_ExpandsEnvFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SITEGEN_TEST_URL=https://env.example.com\n"), 0o600))
	path := filepath.Join(dir, "sitegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  url: ${SITEGEN_TEST_URL}\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SITEGEN_TEST_URL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.Site.URL)
}

func TestLoad_MissingFile_IsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_UnknownKey_IsConfigError(t *testing.T) {
	path := writeConfig(t, "sitegen.yaml", "inputDirectory: src\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestNormalize_FoldsDuplicateExtensions(t *testing.T) {
	off := false
	cfg := &Config{MarkdownExtensions: []ExtensionConfig{
		{Name: "Anchors"},
		{Name: "toc"},
		{Name: "anchors", Enabled: &off},
	}}
	require.NoError(t, Finalize(cfg))

	require.Len(t, cfg.MarkdownExtensions, 2)
	assert.Equal(t, "anchors", cfg.MarkdownExtensions[0].Name)
	assert.False(t, cfg.MarkdownExtensions[0].IsEnabled())
	assert.Equal(t, "toc", cfg.MarkdownExtensions[1].Name)

	_, ok := cfg.Extension("anchors")
	assert.False(t, ok)
}

func TestNormalize_TemplateFormats(t *testing.T) {
	cfg := &Config{TemplateFormats: []string{".MD", "html", "md"}}
	require.NoError(t, Finalize(cfg))
	assert.Equal(t, []string{"html", "md"}, cfg.TemplateFormats)
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestExtensionOptions(t *testing.T) {
	e := ExtensionConfig{Options: map[string]any{"a": "x", "b": true, "c": int64(7), "d": 2}}
	assert.Equal(t, "x", e.String("a", ""))
	assert.Equal(t, "def", e.String("missing", "def"))
	assert.True(t, e.Bool("b", false))
	assert.True(t, e.Bool("missing", true))
	assert.Equal(t, 7, e.Int("c", 0))
	assert.Equal(t, 2, e.Int("d", 0))
	assert.Equal(t, 4, e.Int("a", 4))
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	for _, name := range []string{"sitegen.yaml", "sitegen.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Init(path, false))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "My Site", cfg.Site.Title)
			_, ok := cfg.Extension("toc")
			assert.True(t, ok)
			assert.Equal(t, []PassthroughRule{{From: "media", To: "media"}, {From: "css", To: "css"}}, cfg.Passthrough)
			assert.Equal(t, []string{"html", "liquid", "md", "njk"}, cfg.TemplateFormats)
			anchors, ok := cfg.Extension("anchors")
			require.True(t, ok)
			assert.Equal(t, "direct-link", anchors.String("class", ""))
			assert.Equal(t, "#", anchors.String("symbol", ""))

			err = Init(path, false)
			require.Error(t, err)
			require.NoError(t, Init(path, true))
		})
	}
}
