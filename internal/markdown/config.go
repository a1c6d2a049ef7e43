package markdown

import (
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

type factory func(e config.ExtensionConfig) Extension

var registry = map[string]factory{
	NameLinkify:     func(config.ExtensionConfig) Extension { return Linkify() },
	NameTypographer: func(config.ExtensionConfig) Extension { return Typographer() },
	NameGFM:         func(config.ExtensionConfig) Extension { return GFM() },
	NameFootnotes: func(e config.ExtensionConfig) Extension {
		return Footnotes(e.String("id_prefix", ""))
	},
	NameAnchors: func(e config.ExtensionConfig) Extension {
		return Anchors(AnchorOptions{
			Symbol:    e.String("symbol", ""),
			Class:     e.String("class", defaultAnchorClass),
			Placement: e.String("placement", PlacementAfter),
		})
	},
	NameTOC: func(e config.ExtensionConfig) Extension {
		return TOC(TOCOptions{
			Marker:         e.String("marker", "[[toc]]"),
			ListType:       e.String("list_type", "ol"),
			ContainerID:    e.String("container_id", "toc"),
			ContainerClass: e.String("container_class", ""),
			MinLevel:       e.Int("min_level", 2),
			MaxLevel:       e.Int("max_level", 4),
		})
	},
	NameSyntaxHighlight: func(e config.ExtensionConfig) Extension {
		return SyntaxHighlight(HighlightOptions{
			Style:       e.String("style", defaultHighlightStyle),
			LineNumbers: e.Bool("line_numbers", false),
			Inline:      !e.Bool("classes", true),
		})
	},
}

// ChainFromConfig builds the extension chain in configuration order,
// skipping disabled entries.
func ChainFromConfig(exts []config.ExtensionConfig) ([]Extension, error) {
	chain := make([]Extension, 0, len(exts))
	for _, e := range exts {
		if !e.IsEnabled() {
			continue
		}
		f, ok := registry[e.Name]
		if !ok {
			return nil, errors.ConfigError("unknown markdown extension").
				WithContext("extension", e.Name).Build()
		}
		chain = append(chain, f(e))
	}
	return chain, nil
}

// NewFromConfig builds a Transformer from the site configuration.
func NewFromConfig(cfg *config.Config) (*Transformer, error) {
	chain, err := ChainFromConfig(cfg.MarkdownExtensions)
	if err != nil {
		return nil, err
	}
	return New(Options{
		HTML:        cfg.MarkdownOptions.HTML,
		Linkify:     cfg.MarkdownOptions.Linkify,
		Typographer: cfg.MarkdownOptions.Typographer,
	}, chain)
}
