// Package workers holds background jobs that run alongside the servers.
package workers

import (
	"context"
	"time"

	"github.com/dmitrijs2005/myplanner/internal/logging"
)

// Sweeper deletes expired refresh tokens. *ledger.Ledger implements it.
type Sweeper interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// TokenCleanup periodically sweeps expired refresh tokens.
type TokenCleanup struct {
	sweeper  Sweeper
	interval time.Duration
	logger   logging.Logger
}

func NewTokenCleanup(s Sweeper, interval time.Duration, l logging.Logger) *TokenCleanup {
	return &TokenCleanup{sweeper: s, interval: interval, logger: l.With("module", "token_cleanup")}
}

// Run sweeps once every interval until ctx is cancelled. A failed sweep is
// logged and retried on the next tick.
func (w *TokenCleanup) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info(ctx, "token cleanup disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Stopping token cleanup...")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *TokenCleanup) sweep(ctx context.Context) {
	n, err := w.sweeper.CleanupExpiredTokens(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error(ctx, "token cleanup failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.logger.Info(ctx, "expired refresh tokens removed", "count", n)
	}
}
