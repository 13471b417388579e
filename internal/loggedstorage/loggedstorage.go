// Package loggedstorage wraps a Storage backend to emit access events
// (debug log + cache hit/miss metrics) on every Read, asynchronously so
// the install pipeline's hot path never blocks on logging, adapted from
// a-h-depot's loggedstorage package.
package loggedstorage

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jm-dev/jm/internal/metrics"
	"github.com/jm-dev/jm/internal/storage"
)

var _ storage.Storage = (*LoggedStorage)(nil)

// LoggedStorage wraps a Storage backend, tagging every access with tier
// (e.g. "metadata", "tarballs") for cache hit-rate metrics.
type LoggedStorage struct {
	wrapped storage.Storage
	tier    string
	c       chan event
}

// New wraps wrapped, reporting access events under tier.
func New(log *slog.Logger, wrapped storage.Storage, m metrics.Metrics, tier string) (s *LoggedStorage, shutdown func(timeout time.Duration) error) {
	s = &LoggedStorage{wrapped: wrapped, tier: tier}
	s.c, shutdown = newBufferedAccessLog(log, m, 2048)
	return s, shutdown
}

func (ls *LoggedStorage) Stat(ctx context.Context, filename string) (size int64, exists bool, err error) {
	return ls.wrapped.Stat(ctx, filename)
}

func (ls *LoggedStorage) Read(ctx context.Context, filename string) (r io.ReadCloser, exists bool, err error) {
	r, exists, err = ls.wrapped.Read(ctx, filename)
	if err != nil {
		return r, exists, err
	}
	ls.c <- newEvent(filename, eventTypeRead, ls.tier, exists)
	return r, exists, err
}

func (ls *LoggedStorage) Write(ctx context.Context, filename string, data io.Reader) error {
	err := ls.wrapped.Write(ctx, filename, data)
	if err != nil {
		return err
	}
	ls.c <- newEvent(filename, eventTypeWrite, ls.tier, false)
	return nil
}

func (ls *LoggedStorage) Delete(ctx context.Context, filename string) error {
	return ls.wrapped.Delete(ctx, filename)
}
