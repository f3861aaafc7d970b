package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/riadstay/reservation-service/internal/events"
	"github.com/riadstay/reservation-service/internal/models"
	"github.com/riadstay/reservation-service/internal/repository"
	"github.com/robfig/cron/v3"
)

// ExpirationSweeper periodically moves stale PENDING reservations to EXPIRED.
// It only ever performs the PENDING->EXPIRED transition, guarded by a status
// compare-and-swap, so it cannot clobber a reservation confirmed mid-sweep.
// Re-running is a no-op for already-expired rows: the scan selects PENDING
// rows only.
type ExpirationSweeper struct {
	repo      repository.ReservationRepository
	publisher events.Publisher

	// ExpiryAfter is how long a reservation may stay PENDING.
	ExpiryAfter time.Duration
}

func NewExpirationSweeper(repo repository.ReservationRepository, publisher events.Publisher, expiryAfter time.Duration) *ExpirationSweeper {
	return &ExpirationSweeper{
		repo:        repo,
		publisher:   publisher,
		ExpiryAfter: expiryAfter,
	}
}

// Start registers the sweep with the cron scheduler. The caller owns the
// scheduler's lifecycle (start on boot, stop on shutdown).
func (sw *ExpirationSweeper) Start(c *cron.Cron, every time.Duration) error {
	_, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		count, err := sw.RunOnce(context.Background())
		if err != nil {
			log.Printf("[Sweeper] sweep failed: %v", err)
			return
		}
		if count > 0 {
			log.Printf("[Sweeper] expired %d stale pending reservations", count)
		}
	})
	return err
}

// RunOnce performs a single sweep and returns how many reservations were
// expired. A failure on one row is logged and does not block the others.
func (sw *ExpirationSweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-sw.ExpiryAfter)

	stale, err := sw.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("scan stale pending: %w", err)
	}

	expired := 0
	for i := range stale {
		r := &stale[i]
		err := sw.repo.UpdateStatus(ctx, sw.repo.GetDB(), r.ID, models.StatusPending, models.StatusExpired, nil)
		if err != nil {
			// Row moved on (e.g. confirmed since the scan) or a transient
			// failure: skip it, keep sweeping.
			log.Printf("[Sweeper] skipping reservation %s: %v", r.ReservationNumber, err)
			continue
		}
		expired++

		r.Status = models.StatusExpired
		if sw.publisher != nil {
			if err := sw.publisher.Publish(events.ReservationExpired, events.NewEnvelope(events.ReservationExpired, r)); err != nil {
				log.Printf("[Sweeper] failed to publish expiry for %s: %v", r.ReservationNumber, err)
			}
		}
	}

	return expired, nil
}
