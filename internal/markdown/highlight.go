package markdown

import (
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// HighlightOptions configure fenced code highlighting.
type HighlightOptions struct {
	Style       string
	LineNumbers bool
	Inline      bool // inline styles instead of CSS classes
}

const defaultHighlightStyle = "github"

// SyntaxHighlight tokenizes fenced code blocks by their declared language
// with chroma. Blocks with a missing or unknown language are rendered as plain
// preformatted text.
func SyntaxHighlight(opts HighlightOptions) Extension {
	return highlightExtension{opts: opts}
}

type highlightExtension struct {
	opts HighlightOptions
}

func (highlightExtension) Name() string       { return NameSyntaxHighlight }
func (highlightExtension) Requires() []string { return nil }

func (e highlightExtension) Extend(b *Builder) error {
	style := strings.ToLower(e.opts.Style)
	if style == "" {
		style = defaultHighlightStyle
	}
	if _, ok := styles.Registry[style]; !ok {
		return fmt.Errorf("unknown highlight style %q", e.opts.Style)
	}

	b.Use(highlighting.NewHighlighting(
		highlighting.WithStyle(style),
		highlighting.WithGuessLanguage(false),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(!e.opts.Inline),
			chromahtml.WithLineNumbers(e.opts.LineNumbers),
		),
	))
	return nil
}

// HighlightCSS returns the stylesheet for class-based highlighting.
func HighlightCSS(style string) (string, error) {
	if style == "" {
		style = defaultHighlightStyle
	}
	s, ok := styles.Registry[strings.ToLower(style)]
	if !ok {
		return "", fmt.Errorf("unknown highlight style %q", style)
	}
	var sb strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&sb, s); err != nil {
		return "", err
	}
	return sb.String(), nil
}
