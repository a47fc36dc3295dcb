// Package observability carries build identity through a context so log lines
// emitted deep inside a target build can be correlated with the project build
// that triggered them.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// Scope identifies the build a log line belongs to. Empty fields are omitted.
type Scope struct {
	BuildID string
	Project string
	Target  string
}

type scopeKey struct{}

// FromContext returns the scope stored in ctx, or the zero Scope.
func FromContext(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

func with(ctx context.Context, set func(*Scope)) context.Context {
	s := FromContext(ctx)
	set(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

func WithBuildID(ctx context.Context, id string) context.Context {
	return with(ctx, func(s *Scope) { s.BuildID = id })
}

func WithProject(ctx context.Context, name string) context.Context {
	return with(ctx, func(s *Scope) { s.Project = name })
}

// WithTarget narrows the scope to one executable target of the build.
func WithTarget(ctx context.Context, name string) context.Context {
	return with(ctx, func(s *Scope) { s.Target = name })
}

// Attrs renders the non-empty scope fields with the shared log keys.
func (s Scope) Attrs() []slog.Attr {
	var attrs []slog.Attr
	if s.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(s.BuildID))
	}
	if s.Project != "" {
		attrs = append(attrs, logfields.Project(s.Project))
	}
	if s.Target != "" {
		attrs = append(attrs, logfields.Target(s.Target))
	}
	return attrs
}

// Log writes msg to the default logger, prefixed with the scope of ctx.
func Log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, level, msg, append(FromContext(ctx).Attrs(), attrs...)...)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelDebug, msg, attrs...)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelInfo, msg, attrs...)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelWarn, msg, attrs...)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelError, msg, attrs...)
}
