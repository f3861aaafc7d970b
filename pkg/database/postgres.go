package database

import (
	"log"

	"github.com/riadstay/reservation-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Reservation{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Supports the overlap scan on the create/update hot path.
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservation_riad_dates
		ON reservations (riad_id, check_in_date, check_out_date)
		WHERE status IN ('PENDING', 'CONFIRMED', 'CHECKED_IN')
	`)

	// Sweeper scan: stale PENDING rows by age.
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservation_pending_created
		ON reservations (created_at)
		WHERE status = 'PENDING'
	`)

	return db
}
