// Package logfields names the structured log attributes shared across
// doxidize so that log lines stay greppable.
package logfields

import "log/slog"

const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyDir        = "dir"
	KeyFile       = "file"
	KeyName       = "name"
	KeyCommand    = "command"
	KeyArtifacts  = "artifacts"
	KeyOrphans    = "orphans"
	KeyRequest    = "request"
	KeyAddr       = "addr"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyError      = "error"
)

func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr          { return slog.String(KeyDir, d) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Artifacts(n int) slog.Attr       { return slog.Int(KeyArtifacts, n) }
func Orphans(n int) slog.Attr         { return slog.Int(KeyOrphans, n) }
func Request(kind string) slog.Attr   { return slog.String(KeyRequest, kind) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }

// Error renders err as a string attribute; nil becomes "".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
