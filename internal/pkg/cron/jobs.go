package cron

import (
	"context"
	"log/slog"
	"time"
)

// RevocationPurger drops revoked tokens that are past their own expiry.
type RevocationPurger interface {
	PurgeExpiredRevocations(now time.Time) int
}

// RegisterTokenJobs schedules the revocation list cleanup.
func RegisterTokenJobs(scheduler *Scheduler, purger RevocationPurger, interval time.Duration) {
	scheduler.AddJob("purge_revoked_tokens", interval, func(ctx context.Context) error {
		if removed := purger.PurgeExpiredRevocations(time.Now()); removed > 0 {
			slog.Info("Purged expired token revocations", "count", removed)
		}
		return nil
	})
}
