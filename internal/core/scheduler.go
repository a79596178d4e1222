package core

// scheduler.go provides background maintenance for in-process state.
//
// Currently it expires idle import sessions held by MemorySessionStore.
// Redis-backed sessions expire through their TTL and need no sweeping.
// The scheduler is long-running and context-aware for graceful shutdown.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper is implemented by session stores that need periodic cleanup.
type Sweeper interface {
	Sweep() int
}

// StartSessionSweeper periodically removes expired sessions from stores that
// implement Sweeper. It returns immediately for other stores, otherwise it
// runs until ctx is cancelled.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	sweeper, ok := s.sessions.(Sweeper)
	if !ok {
		slog.Debug("session sweeper not needed for this store")
		return
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	slog.Info("session sweeper started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := sweeper.Sweep(); n > 0 {
				slog.Info("expired import sessions removed", "count", n)
			}
		}
	}
}
