package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyArtifact   = "artifact"
	KeyStage      = "stage"
	KeyTool       = "tool"
	KeyPath       = "path"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyCached     = "cached"
	KeyCommand    = "command"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Artifact(p string) slog.Attr     { return slog.String(KeyArtifact, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Cached(c bool) slog.Attr         { return slog.Bool(KeyCached, c) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
