//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/riadstay/reservation-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "reservation_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	// Drop and recreate for clean state
	testDB.Exec("DROP TABLE IF EXISTS reservations")

	if err := testDB.AutoMigrate(&models.Reservation{}); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	testDB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservation_riad_dates
		ON reservations (riad_id, check_in_date, check_out_date)
		WHERE status IN ('PENDING', 'CONFIRMED', 'CHECKED_IN')
	`)

	code := m.Run()

	testDB.Exec("DROP TABLE IF EXISTS reservations")

	os.Exit(code)
}

func cleanTables() {
	testDB.Exec("DELETE FROM reservations")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
