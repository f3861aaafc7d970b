package service

import (
	"context"
	"time"

	"github.com/riadstay/reservation-service/internal/models"
	"github.com/riadstay/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// AvailabilityChecker answers "is riad R free for [checkIn, checkOut)?"
// against the current persisted state. Reservations in CANCELLED, EXPIRED or
// NO_SHOW do not block; equal boundaries (same-day turnover) do not conflict.
//
// The predicate alone is racy across check-then-write sequences; write paths
// must re-run it inside a transaction holding the riad advisory lock.
type AvailabilityChecker struct {
	repo repository.ReservationRepository
}

func NewAvailabilityChecker(repo repository.ReservationRepository) *AvailabilityChecker {
	return &AvailabilityChecker{repo: repo}
}

func (a *AvailabilityChecker) IsAvailable(ctx context.Context, riadID string, checkIn, checkOut time.Time) (bool, error) {
	conflicts, err := a.repo.FindConflicts(ctx, a.repo.GetDB(), riadID, checkIn, checkOut, 0)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// FindConflicts runs the same predicate within the caller's transaction,
// optionally excluding the reservation being modified from its own check.
func (a *AvailabilityChecker) FindConflicts(ctx context.Context, tx *gorm.DB, riadID string, checkIn, checkOut time.Time, excludeID uint) ([]models.Reservation, error) {
	return a.repo.FindConflicts(ctx, tx, riadID, checkIn, checkOut, excludeID)
}
