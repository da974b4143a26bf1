package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var reapedCounter = metrics.GetOrCreateCounter(`donation_sessions_total{result="reaped"}`)

// SessionStore is the part of the donation registry the reaper needs.
type SessionStore interface {
	IdleSince(cutoff time.Time) []uuid.UUID
	Close(id uuid.UUID) error
}

// SessionReaper closes donation sessions nobody has touched for ttl, which
// cancels their timers and frees their sandbox state.
type SessionReaper struct {
	sessions SessionStore
	ttl      time.Duration
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

func NewSessionReaper(
	sessions SessionStore,
	ttl time.Duration,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
) *SessionReaper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionReaper{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

func (w *SessionReaper) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Session reaper started", "ttl", w.ttl.String(), "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Session reaper stopped")
			return
		case <-ticker.Chan():
			w.process(ctx)
		}
	}
}

// process closes every session idle since before now - ttl and returns how
// many it closed.
func (w *SessionReaper) process(ctx context.Context) int {
	idle := w.sessions.IdleSince(w.clock.Now().Add(-w.ttl))
	if len(idle) == 0 {
		return 0
	}

	w.logger.InfoContext(ctx, "Found idle sessions", "count", len(idle))

	closed := 0
	for _, id := range idle {
		// a client may have closed it in the meantime
		if err := w.sessions.Close(id); err != nil {
			w.logger.DebugContext(ctx, "Idle session already gone", "sessionId", id.String(), "error", err)
			continue
		}
		reapedCounter.Inc()
		closed++
	}
	return closed
}
