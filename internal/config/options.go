package config

import "fmt"

// String returns a string option or def when unset.
func (e ExtensionConfig) String(key, def string) string {
	v, ok := e.Options[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns a boolean option or def when unset or not a boolean.
func (e ExtensionConfig) Bool(key string, def bool) bool {
	if b, ok := e.Options[key].(bool); ok {
		return b
	}
	return def
}

// Int returns an integer option or def. YAML decodes integers as int, TOML as
// int64; both are accepted.
func (e ExtensionConfig) Int(key string, def int) int {
	switch v := e.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
