// Package diagtest captures diagnostics in tests.
//
//	rec := diagtest.Capture(t)
//	computed.Set(99)
//	if rec.Count(errors.CodeReadOnly) != 1 { ... }
package diagtest

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/vango-dev/rex/internal/diag"
)

// Entry is one captured log record.
type Entry struct {
	Level   slog.Level
	Message string
	Code    string
	Attrs   map[string]any
}

// Recorder is a slog.Handler that keeps every record it receives.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	attrs   []slog.Attr
}

// Capture installs a Recorder as the diagnostics logger for the duration of
// the test.
func Capture(t testing.TB) *Recorder {
	t.Helper()
	rec := &Recorder{}
	old := diag.SetLogger(slog.New(rec))
	t.Cleanup(func() { diag.SetLogger(old) })
	return rec
}

// Enabled implements slog.Handler.
func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	e := Entry{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   make(map[string]any),
	}
	collect := func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.Any()
		if a.Key == "code" {
			e.Code = a.Value.String()
		}
		return true
	}
	for _, a := range r.attrs {
		collect(a)
	}
	rec.Attrs(collect)

	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attrs = append(r.attrs, attrs...)
	return r
}

// WithGroup implements slog.Handler.
func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Entries returns a copy of the captured records.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of captured diagnostics with the given code.
func (r *Recorder) Count(code string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Code == code {
			n++
		}
	}
	return n
}

// Warnings returns the number of WARN-level records.
func (r *Recorder) Warnings() int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == slog.LevelWarn {
			n++
		}
	}
	return n
}

// Reset drops all captured records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
