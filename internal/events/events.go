package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/riadstay/reservation-service/internal/models"
)

// Routing keys on the "reservations" topic exchange. The notification and
// payment services consume these out-of-band; nothing here blocks on them.
const (
	ReservationCreated    = "reservation.created"
	ReservationConfirmed  = "reservation.confirmed"
	ReservationCancelled  = "reservation.cancelled"
	ReservationCheckedIn  = "reservation.checked_in"
	ReservationCheckedOut = "reservation.checked_out"
	ReservationNoShow     = "reservation.no_show"
	ReservationExpired    = "reservation.expired"
)

type Publisher interface {
	Publish(routingKey string, payload any) error
}

type Envelope struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	OccurredAt time.Time          `json:"occurred_at"`
	Payload    ReservationPayload `json:"payload"`
}

type ReservationPayload struct {
	ReservationNumber  string                   `json:"reservation_number"`
	RiadID             string                   `json:"riad_id"`
	UserID             string                   `json:"user_id"`
	CheckInDate        string                   `json:"check_in_date"`
	CheckOutDate       string                   `json:"check_out_date"`
	Status             models.ReservationStatus `json:"status"`
	TotalPrice         float64                  `json:"total_price"`
	Currency           string                   `json:"currency"`
	GuestEmail         string                   `json:"guest_email"`
	CancellationReason string                   `json:"cancellation_reason,omitempty"`
}

// NewEnvelope wraps a reservation snapshot for publishing.
func NewEnvelope(eventType string, r *models.Reservation) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload: ReservationPayload{
			ReservationNumber:  r.ReservationNumber,
			RiadID:             r.RiadID,
			UserID:             r.UserID,
			CheckInDate:        r.CheckInDate.Format("2006-01-02"),
			CheckOutDate:       r.CheckOutDate.Format("2006-01-02"),
			Status:             r.Status,
			TotalPrice:         r.TotalPrice,
			Currency:           r.Currency,
			GuestEmail:         r.GuestEmail,
			CancellationReason: r.CancellationReason,
		},
	}
}
