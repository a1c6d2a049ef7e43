// Package frontmatter splits and parses the metadata block at the start of a
// source document. YAML blocks are delimited by `---`, TOML blocks by `+++`.
package frontmatter

import (
	"bytes"
	"errors"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the front matter syntax of a document.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline/trailing newline shape and does not
// attempt to preserve original formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
	Format             Format
}

var delimiters = map[Format]string{
	FormatYAML: "---",
	FormatTOML: "+++",
}

// Split separates front matter from the body.
//
// If the document does not start with a recognized delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline

	for _, format := range []Format{FormatYAML, FormatTOML} {
		delim := delimiters[format]
		open := []byte(delim + nl)
		if !bytes.HasPrefix(content, open) {
			continue
		}
		style.Format = format

		start := len(open)
		if bytes.HasPrefix(content[start:], open) {
			return []byte{}, content[start+len(open):], true, style, nil
		}

		closeSeq := []byte(nl + delim + nl)
		idx := bytes.Index(content[start:], closeSeq)
		if idx < 0 {
			// Closing delimiter on the final line without a trailing newline.
			closeEOF := []byte(nl + delim)
			if bytes.HasSuffix(content, closeEOF) && len(content)-len(closeEOF) >= start {
				end := len(content) - len(closeEOF) + len(nl)
				return content[start:end], []byte{}, true, style, nil
			}
			style.Format = FormatNone
			return nil, nil, false, style, ErrMissingClosingDelimiter
		}

		end := start + idx + len(nl)
		bodyStart := start + idx + len(closeSeq)
		return content[start:end], content[bodyStart:], true, style, nil
	}

	return nil, content, false, style, nil
}

// Parse splits content and decodes its front matter into a map.
//
// Documents without front matter return an empty, non-nil map.
func Parse(content []byte) (fields map[string]any, body []byte, style Style, err error) {
	raw, body, had, style, err := Split(content)
	if err != nil {
		return nil, nil, style, err
	}
	if !had {
		return map[string]any{}, body, style, nil
	}
	switch style.Format {
	case FormatTOML:
		fields, err = ParseTOML(raw)
	default:
		fields, err = ParseYAML(raw)
	}
	if err != nil {
		return nil, nil, style, err
	}
	return fields, body, style, nil
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ParseTOML parses raw TOML front matter (without +++ delimiters) into a map.
func ParseTOML(frontmatter []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return fields, nil
	}
	if err := toml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			break
		}
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
