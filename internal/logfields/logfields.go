package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyProject    = "project"
	KeyTarget     = "target"
	KeySource     = "source"
	KeyObject     = "object"
	KeyOutput     = "output"
	KeyToolchain  = "toolchain"
	KeyKind       = "kind"
	KeyState      = "state"
	KeyPath       = "path"
	KeyExitCode   = "exit_code"
	KeyStderr     = "stderr"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyScheduleID = "schedule_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Project(name string) slog.Attr    { return slog.String(KeyProject, name) }
func Target(name string) slog.Attr     { return slog.String(KeyTarget, name) }
func Source(path string) slog.Attr     { return slog.String(KeySource, path) }
func Object(path string) slog.Attr     { return slog.String(KeyObject, path) }
func Output(path string) slog.Attr     { return slog.String(KeyOutput, path) }
func Toolchain(name string) slog.Attr  { return slog.String(KeyToolchain, name) }
func Kind(k string) slog.Attr          { return slog.String(KeyKind, k) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func ExitCode(code int) slog.Attr      { return slog.Int(KeyExitCode, code) }
func Stderr(s string) slog.Attr        { return slog.String(KeyStderr, s) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func ScheduleID(id string) slog.Attr   { return slog.String(KeyScheduleID, id) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
