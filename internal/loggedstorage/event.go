package loggedstorage

import (
	"context"
	"log/slog"
	"time"

	"github.com/jm-dev/jm/internal/jmerrors"
	"github.com/jm-dev/jm/internal/metrics"
)

type eventType string

const (
	eventTypeRead  eventType = "read"
	eventTypeWrite eventType = "write"
)

type event struct {
	Filename string
	Type     eventType
	Tier     string
	Hit      bool
}

func newEvent(filename string, t eventType, tier string, hit bool) event {
	return event{Filename: filename, Type: t, Tier: tier, Hit: hit}
}

// newBufferedAccessLog drains cache access events on a background
// goroutine so Stat/Read/Write never block on metrics bookkeeping,
// grounded on loggedstorage's event.go.
func newBufferedAccessLog(log *slog.Logger, m metrics.Metrics, bufferSize int) (c chan event, shutdown func(timeout time.Duration) error) {
	c = make(chan event, bufferSize)
	shutdownComplete := make(chan struct{}, 1)

	go func() {
		defer func() { shutdownComplete <- struct{}{} }()
		for e := range c {
			log.Debug("storage access", slog.String("filename", e.Filename), slog.String("type", string(e.Type)), slog.String("tier", e.Tier))
			if e.Type == eventTypeRead {
				m.IncrementCacheTier(context.Background(), e.Tier, e.Hit)
			}
		}
	}()

	shutdown = func(timeout time.Duration) error {
		close(c)
		select {
		case <-time.After(timeout):
			return jmerrors.New("timed out waiting for storage access events to drain")
		case <-shutdownComplete:
			return nil
		}
	}

	return c, shutdown
}
