package frontmatter

import (
	"bytes"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SerializeYAML renders metadata as YAML without delimiters. The encoding is
// canonical so that the same metadata hashes alike whether it came from YAML
// or TOML: map keys are sorted by the encoder, and dates of every flavor are
// written as UTC timestamps.
func SerializeYAML(fields map[string]any) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(canonical(fields)); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func canonical(v any) any {
	switch vv := v.(type) {
	case time.Time:
		return vv.UTC()
	case toml.LocalDate:
		return vv.AsTime(time.UTC)
	case toml.LocalDateTime:
		return vv.AsTime(time.UTC)
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, x := range vv {
			out[k] = canonical(x)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, x := range vv {
			out[i] = canonical(x)
		}
		return out
	default:
		return v
	}
}
