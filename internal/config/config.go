package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

// DefaultConfigFile is the configuration path used when none is given.
const DefaultConfigFile = "sitegen.yaml"

// Config is the build configuration. It is read-only once Load returns and is
// passed explicitly to every component.
type Config struct {
	InputDirectory     string              `yaml:"input_directory" toml:"input_directory"`
	OutputDirectory    string              `yaml:"output_directory" toml:"output_directory"`
	LayoutsDirectory   string              `yaml:"layouts_directory,omitempty" toml:"layouts_directory,omitempty"`
	DefaultLayout      string              `yaml:"default_layout,omitempty" toml:"default_layout,omitempty"`
	Passthrough        []PassthroughRule   `yaml:"passthrough,omitempty" toml:"passthrough,omitempty"`
	MarkdownOptions    MarkdownOptions     `yaml:"markdown_options" toml:"markdown_options"`
	MarkdownExtensions []ExtensionConfig   `yaml:"markdown_extensions,omitempty" toml:"markdown_extensions,omitempty"`
	TemplateFormats    []string            `yaml:"template_formats,omitempty" toml:"template_formats,omitempty"`
	Feeds              []FeedConfig        `yaml:"feeds,omitempty" toml:"feeds,omitempty"`
	Site               SiteConfig          `yaml:"site" toml:"site"`
	Permalink          string              `yaml:"permalink,omitempty" toml:"permalink,omitempty"`
	IncludeDrafts      bool                `yaml:"include_drafts,omitempty" toml:"include_drafts,omitempty"`
	Strict             bool                `yaml:"strict,omitempty" toml:"strict,omitempty"`
	Workers            int                 `yaml:"workers,omitempty" toml:"workers,omitempty"`
	ReportFile         string              `yaml:"report_file,omitempty" toml:"report_file,omitempty"`
	Collections        map[string]SortSpec `yaml:"collections,omitempty" toml:"collections,omitempty"`
}

// PassthroughRule copies a directory below the input root verbatim to a
// directory below the output root.
type PassthroughRule struct {
	From string `yaml:"from" toml:"from"`
	To   string `yaml:"to,omitempty" toml:"to,omitempty"`
}

// MarkdownOptions are the base renderer switches.
type MarkdownOptions struct {
	HTML        bool `yaml:"html" toml:"html"`
	Linkify     bool `yaml:"linkify" toml:"linkify"`
	Typographer bool `yaml:"typographer" toml:"typographer"`
}

// ExtensionConfig enables one named Markdown extension. Order in the list is
// the order the extensions are applied.
type ExtensionConfig struct {
	Name    string         `yaml:"name" toml:"name"`
	Enabled *bool          `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Options map[string]any `yaml:"options,omitempty" toml:"options,omitempty"`
}

// IsEnabled reports whether the extension is active. Omitting enabled means on.
func (e ExtensionConfig) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// FeedConfig describes one syndication feed.
type FeedConfig struct {
	Title       string `yaml:"title" toml:"title"`
	URL         string `yaml:"url,omitempty" toml:"url,omitempty"`
	Description string `yaml:"description,omitempty" toml:"description,omitempty"`
	Collection  string `yaml:"collection,omitempty" toml:"collection,omitempty"`
	Limit       int    `yaml:"limit,omitempty" toml:"limit,omitempty"`
	RSSPath     string `yaml:"rss_path,omitempty" toml:"rss_path,omitempty"`
	AtomPath    string `yaml:"atom_path,omitempty" toml:"atom_path,omitempty"`
}

// SiteConfig is exposed to templates as .Site.
type SiteConfig struct {
	Title       string         `yaml:"title" toml:"title"`
	URL         string         `yaml:"url,omitempty" toml:"url,omitempty"`
	Description string         `yaml:"description,omitempty" toml:"description,omitempty"`
	Author      string         `yaml:"author,omitempty" toml:"author,omitempty"`
	Params      map[string]any `yaml:"params,omitempty" toml:"params,omitempty"`
}

// SortSpec orders a named collection.
type SortSpec struct {
	By      string `yaml:"by" toml:"by"`
	Reverse bool   `yaml:"reverse,omitempty" toml:"reverse,omitempty"`
}

// LayoutsPath returns the layouts directory resolved against the input root.
func (c *Config) LayoutsPath() string {
	if filepath.IsAbs(c.LayoutsDirectory) {
		return c.LayoutsDirectory
	}
	return filepath.Join(c.InputDirectory, c.LayoutsDirectory)
}

// Extension returns the enabled extension with the given name, if any.
func (c *Config) Extension(name string) (ExtensionConfig, bool) {
	for _, e := range c.MarkdownExtensions {
		if e.Name == name && e.IsEnabled() {
			return e, true
		}
	}
	return ExtensionConfig{}, false
}

// Load reads the configuration file, expands environment variables, applies
// defaults and validates the result. The format follows the file extension:
// .toml is decoded as TOML, anything else as YAML.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(filepath.Dir(configPath)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				WithCause(err).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg, err := Parse(data, formatFor(configPath))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format selects the decoder used by Parse.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes raw configuration bytes and finalizes the result.
func Parse(data []byte, format Format) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(expanded, &cfg)
	default:
		if len(bytes.TrimSpace(expanded)) > 0 {
			dec := yaml.NewDecoder(bytes.NewReader(expanded))
			dec.KnownFields(true)
			err = dec.Decode(&cfg)
		}
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to decode config").
			WithContext("format", string(format)).
			Fatal().
			UserAction().
			Build()
	}

	if err := Finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a finalized configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	normalize(&cfg)
	return &cfg
}

// Finalize applies defaults and normalization, then validates. Callers that
// override fields after Load (CLI flags) run it again.
func Finalize(cfg *Config) error {
	applyDefaults(cfg)
	normalize(cfg)
	return Validate(cfg)
}
