package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder is a slog.Handler that keeps every record in memory. Tests use it
// to assert what a component logged.
type Recorder struct {
	mu      sync.Mutex
	records []slog.Record
}

// NewRecorder returns a logger writing to a fresh Recorder.
func NewRecorder() (*slog.Logger, *Recorder) {
	rec := &Recorder{}
	return slog.New(rec), rec
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec.Clone())
	return nil
}

// Attribute grouping is irrelevant for assertions; the recorder keeps
// records flat.
func (r *Recorder) WithAttrs([]slog.Attr) slog.Handler { return r }

func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Records returns the records at or above level.
func (r *Recorder) Records(level slog.Level) []slog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []slog.Record
	for _, rec := range r.records {
		if rec.Level >= level {
			out = append(out, rec)
		}
	}
	return out
}

// Count returns how many records at exactly level were handled.
func (r *Recorder) Count(level slog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.records {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// Attr returns the value of the named attribute on rec.
func Attr(rec slog.Record, key string) (slog.Value, bool) {
	var (
		val   slog.Value
		found bool
	)
	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			val, found = a.Value, true
			return false
		}
		return true
	})
	return val, found
}
