package service

import (
	"context"
	"time"

	"github.com/riadstay/reservation-service/internal/models"
	"github.com/riadstay/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// --- Mock ReservationRepository ---

type mockReservationRepo struct {
	createFn             func(ctx context.Context, tx *gorm.DB, r *models.Reservation) error
	findByIDFn           func(ctx context.Context, id uint) (*models.Reservation, error)
	findByNumberFn       func(ctx context.Context, number string) (*models.Reservation, error)
	findAllFn            func(ctx context.Context, page, limit int) ([]models.Reservation, int64, error)
	findByUserIDFn       func(ctx context.Context, userID string, page, limit int) ([]models.Reservation, int64, error)
	findByRiadIDFn       func(ctx context.Context, riadID string, page, limit int) ([]models.Reservation, int64, error)
	searchFn             func(ctx context.Context, filter repository.SearchFilter, page, limit int) ([]models.Reservation, int64, error)
	findConflictsFn      func(ctx context.Context, tx *gorm.DB, riadID string, checkIn, checkOut time.Time, excludeID uint) ([]models.Reservation, error)
	saveFn               func(ctx context.Context, tx *gorm.DB, r *models.Reservation) error
	updateStatusFn       func(ctx context.Context, tx *gorm.DB, id uint, from, to models.ReservationStatus, extra map[string]any) error
	deleteFn             func(ctx context.Context, id uint) error
	findStalePendingFn   func(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	findTodayCheckInsFn  func(ctx context.Context, today time.Time) ([]models.Reservation, error)
	findTodayCheckOutsFn func(ctx context.Context, today time.Time) ([]models.Reservation, error)
}

func (m *mockReservationRepo) Create(ctx context.Context, tx *gorm.DB, r *models.Reservation) error {
	if m.createFn != nil {
		return m.createFn(ctx, tx, r)
	}
	return nil
}

func (m *mockReservationRepo) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) FindByNumber(ctx context.Context, number string) (*models.Reservation, error) {
	if m.findByNumberFn != nil {
		return m.findByNumberFn(ctx, number)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) FindAll(ctx context.Context, page, limit int) ([]models.Reservation, int64, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx, page, limit)
	}
	return nil, 0, nil
}

func (m *mockReservationRepo) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Reservation, int64, error) {
	if m.findByUserIDFn != nil {
		return m.findByUserIDFn(ctx, userID, page, limit)
	}
	return nil, 0, nil
}

func (m *mockReservationRepo) FindByRiadID(ctx context.Context, riadID string, page, limit int) ([]models.Reservation, int64, error) {
	if m.findByRiadIDFn != nil {
		return m.findByRiadIDFn(ctx, riadID, page, limit)
	}
	return nil, 0, nil
}

func (m *mockReservationRepo) Search(ctx context.Context, filter repository.SearchFilter, page, limit int) ([]models.Reservation, int64, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, filter, page, limit)
	}
	return nil, 0, nil
}

func (m *mockReservationRepo) FindConflicts(ctx context.Context, tx *gorm.DB, riadID string, checkIn, checkOut time.Time, excludeID uint) ([]models.Reservation, error) {
	if m.findConflictsFn != nil {
		return m.findConflictsFn(ctx, tx, riadID, checkIn, checkOut, excludeID)
	}
	return nil, nil
}

func (m *mockReservationRepo) Save(ctx context.Context, tx *gorm.DB, r *models.Reservation) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, tx, r)
	}
	return nil
}

func (m *mockReservationRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ReservationStatus, extra map[string]any) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, tx, id, from, to, extra)
	}
	return nil
}

func (m *mockReservationRepo) Delete(ctx context.Context, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockReservationRepo) FindStalePending(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	if m.findStalePendingFn != nil {
		return m.findStalePendingFn(ctx, cutoff)
	}
	return nil, nil
}

func (m *mockReservationRepo) FindTodayCheckIns(ctx context.Context, today time.Time) ([]models.Reservation, error) {
	if m.findTodayCheckInsFn != nil {
		return m.findTodayCheckInsFn(ctx, today)
	}
	return nil, nil
}

func (m *mockReservationRepo) FindTodayCheckOuts(ctx context.Context, today time.Time) ([]models.Reservation, error) {
	if m.findTodayCheckOutsFn != nil {
		return m.findTodayCheckOutsFn(ctx, today)
	}
	return nil, nil
}

func (m *mockReservationRepo) AcquireRiadLock(ctx context.Context, tx *gorm.DB, riadID string) error {
	return nil
}

func (m *mockReservationRepo) GetDB() *gorm.DB { return nil }

// --- Mock Publisher ---

type mockPublisher struct {
	published []string
	failWith  error
}

func (m *mockPublisher) Publish(routingKey string, payload any) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.published = append(m.published, routingKey)
	return nil
}
