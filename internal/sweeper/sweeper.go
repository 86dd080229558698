// Package sweeper ages out help requests no supervisor has answered.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/tinkerloft/frontdesk/internal/metrics"
	"github.com/tinkerloft/frontdesk/internal/store"
)

// Sweeper periodically marks pending help requests older than the timeout
// as unresolved so the dashboard surfaces them as missed.
type Sweeper struct {
	requests *store.RequestStore
	metrics  *metrics.Metrics // may be nil
	timeout  time.Duration
	interval time.Duration
}

// New creates a Sweeper. m may be nil when metrics are not wired.
func New(requests *store.RequestStore, m *metrics.Metrics, timeout, interval time.Duration) *Sweeper {
	return &Sweeper{requests: requests, metrics: m, timeout: timeout, interval: interval}
}

// Run sweeps once immediately, then on every interval tick until ctx is
// cancelled. It blocks; callers run it in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns how many requests were aged out.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.timeout)
	n, err := s.requests.MarkUnresolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.metrics != nil {
		s.metrics.TimedOutTotal.Add(float64(n))
	}
	return n, nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		slog.WarnContext(ctx, "sweep failed", "err", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "marked stale help requests unresolved", "count", n)
	}
}
