package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build.id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyDocument   = "document"
	KeyTemplate   = "template"
	KeyOutput     = "output"
	KeyAsset      = "asset"
	KeyKind       = "kind"
	KeyDest       = "dest"
	KeyKey        = "key"
	KeyCount      = "count"
	KeyWorkers    = "workers"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Document(d string) slog.Attr     { return slog.String(KeyDocument, d) }
func Template(p string) slog.Attr     { return slog.String(KeyTemplate, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Asset(p string) slog.Attr        { return slog.String(KeyAsset, p) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Dest(p string) slog.Attr         { return slog.String(KeyDest, p) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
