package repository

import (
	"context"
	"errors"
	"time"

	"github.com/riadstay/reservation-service/internal/models"
	"gorm.io/gorm"
)

// ErrStaleRow is returned when a conditional update matched no rows: the row
// was changed (or its status moved) between read and write.
var ErrStaleRow = errors.New("reservation was modified concurrently")

// SearchFilter carries the optional predicates of POST /reservations/search.
// Nil/zero fields are skipped.
type SearchFilter struct {
	UserID            string
	RiadID            string
	Status            *models.ReservationStatus
	CheckInFrom       *time.Time
	CheckInTo         *time.Time
	GuestName         string
	ReservationNumber string
}

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, r *models.Reservation) error
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindByNumber(ctx context.Context, number string) (*models.Reservation, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Reservation, int64, error)
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Reservation, int64, error)
	FindByRiadID(ctx context.Context, riadID string, page, limit int) ([]models.Reservation, int64, error)
	Search(ctx context.Context, filter SearchFilter, page, limit int) ([]models.Reservation, int64, error)

	// FindConflicts returns the blocking-status reservations for the riad whose
	// [check_in, check_out) interval overlaps the candidate one. excludeID > 0
	// leaves out the reservation being modified.
	FindConflicts(ctx context.Context, tx *gorm.DB, riadID string, checkIn, checkOut time.Time, excludeID uint) ([]models.Reservation, error)

	// Save persists the full row guarded by the optimistic version counter.
	// Returns ErrStaleRow when the version no longer matches.
	Save(ctx context.Context, tx *gorm.DB, r *models.Reservation) error

	// UpdateStatus flips status conditioned on the row still being in `from`
	// (compare-and-swap), bumping version and updated_at. extra columns are
	// written in the same statement. Returns ErrStaleRow when the row already
	// moved on.
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ReservationStatus, extra map[string]any) error

	Delete(ctx context.Context, id uint) error

	FindStalePending(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	FindTodayCheckIns(ctx context.Context, today time.Time) ([]models.Reservation, error)
	FindTodayCheckOuts(ctx context.Context, today time.Time) ([]models.Reservation, error)

	// AcquireRiadLock takes a transaction-scoped advisory lock keyed on the
	// riad id, serializing concurrent check-then-write sequences for the same
	// riad. Released automatically on commit/rollback.
	AcquireRiadLock(ctx context.Context, tx *gorm.DB, riadID string) error

	GetDB() *gorm.DB
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, res *models.Reservation) error {
	return tx.WithContext(ctx).Create(res).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) FindByNumber(ctx context.Context, number string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).
		Where("reservation_number = ?", number).
		First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) FindAll(ctx context.Context, page, limit int) ([]models.Reservation, int64, error) {
	return r.paginate(ctx, r.db.WithContext(ctx).Model(&models.Reservation{}), page, limit)
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Reservation{}).Where("user_id = ?", userID)
	return r.paginate(ctx, q, page, limit)
}

func (r *reservationRepository) FindByRiadID(ctx context.Context, riadID string, page, limit int) ([]models.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Reservation{}).Where("riad_id = ?", riadID)
	return r.paginate(ctx, q, page, limit)
}

func (r *reservationRepository) Search(ctx context.Context, filter SearchFilter, page, limit int) ([]models.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Reservation{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.RiadID != "" {
		q = q.Where("riad_id = ?", filter.RiadID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.CheckInFrom != nil {
		q = q.Where("check_in_date >= ?", *filter.CheckInFrom)
	}
	if filter.CheckInTo != nil {
		q = q.Where("check_in_date <= ?", *filter.CheckInTo)
	}
	if filter.GuestName != "" {
		q = q.Where("guest_name ILIKE ?", "%"+filter.GuestName+"%")
	}
	if filter.ReservationNumber != "" {
		q = q.Where("reservation_number = ?", filter.ReservationNumber)
	}
	return r.paginate(ctx, q, page, limit)
}

func (r *reservationRepository) paginate(ctx context.Context, q *gorm.DB, page, limit int) ([]models.Reservation, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Reservation
	if err := q.Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *reservationRepository) FindConflicts(ctx context.Context, tx *gorm.DB, riadID string, checkIn, checkOut time.Time, excludeID uint) ([]models.Reservation, error) {
	// Half-open overlap: a.in < b.out AND a.out > b.in. Touching boundaries
	// (checkout == next check-in) do not match.
	q := tx.WithContext(ctx).
		Where("riad_id = ?", riadID).
		Where("status IN ?", models.BlockingStatuses).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var conflicts []models.Reservation
	if err := q.Order("check_in_date ASC").Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *reservationRepository) Save(ctx context.Context, tx *gorm.DB, res *models.Reservation) error {
	currentVersion := res.Version
	res.Version++
	result := tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND version = ?", res.ID, currentVersion).
		Select("*").
		Omit("id", "reservation_number", "created_at").
		Updates(res)
	if result.Error != nil {
		res.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		res.Version = currentVersion
		return ErrStaleRow
	}
	return nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.ReservationStatus, extra map[string]any) error {
	updates := map[string]any{
		"status":     to,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	result := tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRow
	}
	return nil
}

func (r *reservationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Reservation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reservationRepository) FindStalePending(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.StatusPending, cutoff).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reservationRepository) FindTodayCheckIns(ctx context.Context, today time.Time) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := r.db.WithContext(ctx).
		Where("check_in_date = ? AND status = ?", models.NormalizeDate(today), models.StatusConfirmed).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reservationRepository) FindTodayCheckOuts(ctx context.Context, today time.Time) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := r.db.WithContext(ctx).
		Where("check_out_date = ? AND status = ?", models.NormalizeDate(today), models.StatusCheckedIn).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reservationRepository) AcquireRiadLock(ctx context.Context, tx *gorm.DB, riadID string) error {
	// hashtext maps the opaque riad id onto the advisory lock keyspace. The
	// lock is xact-scoped: Postgres releases it with the transaction.
	return tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", riadID).Error
}
