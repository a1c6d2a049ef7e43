package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// Init writes an example configuration to configPath. The format follows the
// file extension, as in Load.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Example()

	var (
		data []byte
		err  error
	)
	switch formatFor(configPath) {
	case FormatTOML:
		data, err = toml.Marshal(example)
	default:
		data, err = yaml.Marshal(example)
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	enabled := true
	return &Config{
		InputDirectory:   DefaultInputDirectory,
		OutputDirectory:  DefaultOutputDirectory,
		LayoutsDirectory: DefaultLayoutsDirectory,
		DefaultLayout:    "base",
		Passthrough: []PassthroughRule{
			{From: "media", To: "media"},
			{From: "css", To: "css"},
		},
		MarkdownOptions: MarkdownOptions{HTML: true, Linkify: true, Typographer: true},
		MarkdownExtensions: []ExtensionConfig{
			{Name: "anchors", Enabled: &enabled, Options: map[string]any{"symbol": "#", "class": "direct-link", "placement": "after"}},
			{Name: "footnotes", Enabled: &enabled},
			{Name: "toc", Enabled: &enabled, Options: map[string]any{"list_type": "ol", "container_id": "toc"}},
			{Name: "syntax-highlight", Enabled: &enabled, Options: map[string]any{"style": "github"}},
		},
		TemplateFormats: []string{"md", "njk", "html", "liquid"},
		Feeds: []FeedConfig{
			{
				Title:      "My Site",
				URL:        "https://example.com",
				Collection: "posts",
				Limit:      DefaultFeedLimit,
				RSSPath:    DefaultFeedRSSPath,
				AtomPath:   "atom.xml",
			},
		},
		Site: SiteConfig{
			Title:       "My Site",
			URL:         "https://example.com",
			Description: "A site built with sitegen",
			Author:      "Site Author",
		},
		Permalink: DefaultPermalink,
	}
}
