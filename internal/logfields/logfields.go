package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyLayout     = "layout"
	KeyRule       = "rule"
	KeyStage      = "stage"
	KeyFeed       = "feed"
	KeyCollection = "collection"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr         { return slog.String(KeyOutput, p) }
func Layout(name string) slog.Attr      { return slog.String(KeyLayout, name) }
func Rule(r string) slog.Attr           { return slog.String(KeyRule, r) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Feed(name string) slog.Attr        { return slog.String(KeyFeed, name) }
func Collection(name string) slog.Attr  { return slog.String(KeyCollection, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
