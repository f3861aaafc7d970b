package models

import (
	"crypto/rand"
	"time"
)

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "PENDING"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusCancelled  ReservationStatus = "CANCELLED"
	StatusCheckedIn  ReservationStatus = "CHECKED_IN"
	StatusCheckedOut ReservationStatus = "CHECKED_OUT"
	StatusNoShow     ReservationStatus = "NO_SHOW"
	StatusExpired    ReservationStatus = "EXPIRED"
)

// BlockingStatuses are the statuses that hold the riad's dates. Reservations
// in any other status do not count against availability.
var BlockingStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

type Reservation struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	ReservationNumber  string            `gorm:"type:varchar(12);uniqueIndex;not null" json:"reservation_number"`
	UserID             string            `gorm:"not null;index" json:"user_id"`
	RiadID             string            `gorm:"not null;index" json:"riad_id"`
	CheckInDate        time.Time         `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate       time.Time         `gorm:"type:date;not null" json:"check_out_date"`
	NumberOfGuests     int               `gorm:"not null" json:"number_of_guests"`
	NumberOfRooms      int               `gorm:"not null;default:1" json:"number_of_rooms"`
	TotalPrice         float64           `gorm:"type:numeric(10,2);not null" json:"total_price"`
	DepositAmount      float64           `gorm:"type:numeric(10,2);default:0" json:"deposit_amount"`
	Currency           string            `gorm:"type:varchar(3);not null;default:'MAD'" json:"currency"`
	GuestName          string            `gorm:"not null" json:"guest_name"`
	GuestEmail         string            `gorm:"not null" json:"guest_email"`
	GuestPhone         string            `json:"guest_phone,omitempty"`
	SpecialRequests    string            `gorm:"type:varchar(500)" json:"special_requests,omitempty"`
	Status             ReservationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	PaymentID          string            `json:"payment_id,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Version            int               `gorm:"not null;default:0" json:"version"`
}

const numberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReservationNumber returns a fresh external reservation key in the form
// RES-XXXXXXXX (8 uppercase alphanumerics). Generated once at creation and
// never reassigned; uniqueness is enforced by the DB index.
func NewReservationNumber() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("reservation number entropy unavailable: " + err.Error())
	}
	for i, b := range buf {
		buf[i] = numberCharset[int(b)%len(numberCharset)]
	}
	return "RES-" + string(buf)
}

// NormalizeDate strips the time-of-day component; stay dates are calendar
// dates stored in Postgres date columns.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
