// Package staleness decides whether an object artifact must be recompiled by
// comparing filesystem modification times.
//
// A file that cannot be stat'ed counts as infinitely old (the zero time). A
// missing object is therefore always stale, while a header that was deleted
// since the last build can never force a rebuild. Metadata errors are folded
// into that rule instead of being reported.
package staleness

import (
	"io/fs"
	"log/slog"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// DefaultCacheSize bounds the number of remembered input timestamps.
const DefaultCacheSize = 4096

// StatFunc returns file metadata; os.Stat in production.
type StatFunc func(path string) (fs.FileInfo, error)

// Oracle compares modification times of a source, its headers and its object.
//
// Source and header timestamps are memoized for the lifetime of the Oracle, so
// an Oracle must not outlive a single build invocation. Object timestamps are
// never memoized because compiles rewrite them.
type Oracle struct {
	stat  StatFunc
	cache *lru.Cache[string, time.Time]
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithStat replaces os.Stat.
func WithStat(stat StatFunc) Option {
	return func(o *Oracle) { o.stat = stat }
}

// WithCacheSize sets the memo size; zero or less disables memoization.
func WithCacheSize(n int) Option {
	return func(o *Oracle) {
		if n <= 0 {
			o.cache = nil
			return
		}
		c, err := lru.New[string, time.Time](n)
		if err == nil {
			o.cache = c
		}
	}
}

// New returns an Oracle backed by os.Stat with a DefaultCacheSize memo.
func New(opts ...Option) *Oracle {
	o := &Oracle{stat: os.Stat}
	WithCacheSize(DefaultCacheSize)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IsStale reports whether object must be rebuilt from source and headers.
//
// The object is stale when it is not newer than the source. Otherwise headers
// are checked in order and the first one at least as new as the object makes
// it stale; remaining headers are not examined.
func (o *Oracle) IsStale(source, object string, headers []string) bool {
	objTime := o.modTime(object)
	if !objTime.After(o.inputTime(source)) {
		slog.Debug("Object older than source", logfields.Source(source), logfields.Object(object))
		return true
	}

	for _, h := range headers {
		if !objTime.After(o.inputTime(h)) {
			slog.Debug("Object older than header", logfields.Source(source), logfields.Path(h))
			return true
		}
	}
	return false
}

func (o *Oracle) inputTime(path string) time.Time {
	if o.cache != nil {
		if t, ok := o.cache.Get(path); ok {
			return t
		}
	}
	t := o.modTime(path)
	if o.cache != nil {
		o.cache.Add(path, t)
	}
	return t
}

// modTime returns the modification time of path, or the zero time when it cannot be read.
func (o *Oracle) modTime(path string) time.Time {
	info, err := o.stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
