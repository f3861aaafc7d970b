package dto

import (
	"time"

	"github.com/riadstay/reservation-service/internal/models"
)

type ReservationResponse struct {
	ID                 uint                     `json:"id"`
	ReservationNumber  string                   `json:"reservation_number"`
	UserID             string                   `json:"user_id"`
	RiadID             string                   `json:"riad_id"`
	CheckInDate        string                   `json:"check_in_date"`
	CheckOutDate       string                   `json:"check_out_date"`
	NumberOfGuests     int                      `json:"number_of_guests"`
	NumberOfRooms      int                      `json:"number_of_rooms"`
	TotalPrice         float64                  `json:"total_price"`
	DepositAmount      float64                  `json:"deposit_amount"`
	Currency           string                   `json:"currency"`
	GuestName          string                   `json:"guest_name"`
	GuestEmail         string                   `json:"guest_email"`
	GuestPhone         string                   `json:"guest_phone,omitempty"`
	SpecialRequests    string                   `json:"special_requests,omitempty"`
	Status             models.ReservationStatus `json:"status"`
	CancellationReason string                   `json:"cancellation_reason,omitempty"`
	PaymentID          string                   `json:"payment_id,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

type PaginatedReservationsResponse struct {
	Data  []ReservationResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                 r.ID,
		ReservationNumber:  r.ReservationNumber,
		UserID:             r.UserID,
		RiadID:             r.RiadID,
		CheckInDate:        r.CheckInDate.Format(dateLayout),
		CheckOutDate:       r.CheckOutDate.Format(dateLayout),
		NumberOfGuests:     r.NumberOfGuests,
		NumberOfRooms:      r.NumberOfRooms,
		TotalPrice:         r.TotalPrice,
		DepositAmount:      r.DepositAmount,
		Currency:           r.Currency,
		GuestName:          r.GuestName,
		GuestEmail:         r.GuestEmail,
		GuestPhone:         r.GuestPhone,
		SpecialRequests:    r.SpecialRequests,
		Status:             r.Status,
		CancellationReason: r.CancellationReason,
		PaymentID:          r.PaymentID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func ToPaginatedResponse(rows []models.Reservation, total int64, page, limit int) PaginatedReservationsResponse {
	data := make([]ReservationResponse, len(rows))
	for i := range rows {
		data[i] = ToReservationResponse(&rows[i])
	}
	return PaginatedReservationsResponse{Data: data, Total: total, Page: page, Limit: limit}
}
