package logfields

import "log/slog"

// Canonical log field names shared by every package.
const (
	KeyFile       = "file"
	KeyURL        = "url"
	KeyHref       = "href"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyStatus     = "status"
	KeyRunID      = "run_id"
	KeyCount      = "count"
	KeyEndpoint   = "endpoint"
	KeyPath       = "path"
	KeyScore      = "score"
	KeyError      = "error"
)

func File(p string) slog.Attr        { return slog.String(KeyFile, p) }
func URL(u string) slog.Attr         { return slog.String(KeyURL, u) }
func Href(h string) slog.Attr        { return slog.String(KeyHref, h) }
func Stage(name string) slog.Attr    { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Status(code int) slog.Attr      { return slog.Int(KeyStatus, code) }
func RunID(id string) slog.Attr      { return slog.String(KeyRunID, id) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func Endpoint(e string) slog.Attr    { return slog.String(KeyEndpoint, e) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Score(s int) slog.Attr          { return slog.Int(KeyScore, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
