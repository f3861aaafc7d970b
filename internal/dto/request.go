package dto

import (
	"time"

	"github.com/riadstay/reservation-service/internal/models"
	"github.com/riadstay/reservation-service/internal/repository"
	"github.com/riadstay/reservation-service/internal/service"
)

const dateLayout = "2006-01-02"

type CreateReservationRequest struct {
	UserID          string  `json:"user_id" validate:"required"`
	RiadID          string  `json:"riad_id" validate:"required"`
	CheckInDate     string  `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate    string  `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	NumberOfGuests  int     `json:"number_of_guests" validate:"required,min=1,max=20"`
	NumberOfRooms   int     `json:"number_of_rooms" validate:"omitempty,min=1,max=10"`
	TotalPrice      float64 `json:"total_price" validate:"required,gt=0"`
	DepositAmount   float64 `json:"deposit_amount" validate:"gte=0"`
	Currency        string  `json:"currency" validate:"omitempty,len=3,uppercase"`
	GuestName       string  `json:"guest_name" validate:"required"`
	GuestEmail      string  `json:"guest_email" validate:"required,email"`
	GuestPhone      string  `json:"guest_phone" validate:"omitempty"`
	SpecialRequests string  `json:"special_requests" validate:"omitempty,max=500"`
}

func (r CreateReservationRequest) ToInput() (service.CreateReservationInput, error) {
	checkIn, err := parseDate("check_in_date", r.CheckInDate)
	if err != nil {
		return service.CreateReservationInput{}, err
	}
	checkOut, err := parseDate("check_out_date", r.CheckOutDate)
	if err != nil {
		return service.CreateReservationInput{}, err
	}
	return service.CreateReservationInput{
		UserID:          r.UserID,
		RiadID:          r.RiadID,
		CheckInDate:     checkIn,
		CheckOutDate:    checkOut,
		NumberOfGuests:  r.NumberOfGuests,
		NumberOfRooms:   r.NumberOfRooms,
		TotalPrice:      r.TotalPrice,
		DepositAmount:   r.DepositAmount,
		Currency:        r.Currency,
		GuestName:       r.GuestName,
		GuestEmail:      r.GuestEmail,
		GuestPhone:      r.GuestPhone,
		SpecialRequests: r.SpecialRequests,
	}, nil
}

// UpdateReservationRequest is a patch; absent fields are left untouched.
type UpdateReservationRequest struct {
	CheckInDate     *string `json:"check_in_date" validate:"omitempty,datetime=2006-01-02"`
	CheckOutDate    *string `json:"check_out_date" validate:"omitempty,datetime=2006-01-02"`
	NumberOfGuests  *int    `json:"number_of_guests" validate:"omitempty,min=1,max=20"`
	NumberOfRooms   *int    `json:"number_of_rooms" validate:"omitempty,min=1,max=10"`
	GuestName       *string `json:"guest_name" validate:"omitempty,min=1"`
	GuestEmail      *string `json:"guest_email" validate:"omitempty,email"`
	GuestPhone      *string `json:"guest_phone"`
	SpecialRequests *string `json:"special_requests" validate:"omitempty,max=500"`
}

func (r UpdateReservationRequest) ToInput() (service.UpdateReservationInput, error) {
	patch := service.UpdateReservationInput{
		NumberOfGuests:  r.NumberOfGuests,
		NumberOfRooms:   r.NumberOfRooms,
		GuestName:       r.GuestName,
		GuestEmail:      r.GuestEmail,
		GuestPhone:      r.GuestPhone,
		SpecialRequests: r.SpecialRequests,
	}
	if r.CheckInDate != nil {
		checkIn, err := parseDate("check_in_date", *r.CheckInDate)
		if err != nil {
			return patch, err
		}
		patch.CheckInDate = &checkIn
	}
	if r.CheckOutDate != nil {
		checkOut, err := parseDate("check_out_date", *r.CheckOutDate)
		if err != nil {
			return patch, err
		}
		patch.CheckOutDate = &checkOut
	}
	return patch, nil
}

type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

type CheckAvailabilityRequest struct {
	RiadID       string `json:"riad_id" validate:"required"`
	CheckInDate  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
}

type SearchReservationsRequest struct {
	UserID            string  `json:"user_id"`
	RiadID            string  `json:"riad_id"`
	Status            *string `json:"status"`
	CheckInFrom       *string `json:"check_in_from" validate:"omitempty,datetime=2006-01-02"`
	CheckInTo         *string `json:"check_in_to" validate:"omitempty,datetime=2006-01-02"`
	GuestName         string  `json:"guest_name"`
	ReservationNumber string  `json:"reservation_number"`
	Page              int     `json:"page" validate:"omitempty,min=1"`
	Limit             int     `json:"limit" validate:"omitempty,min=1,max=100"`
}

func (r SearchReservationsRequest) ToFilter() (repository.SearchFilter, error) {
	filter := repository.SearchFilter{
		UserID:            r.UserID,
		RiadID:            r.RiadID,
		GuestName:         r.GuestName,
		ReservationNumber: r.ReservationNumber,
	}
	if r.Status != nil {
		status := models.ReservationStatus(*r.Status)
		filter.Status = &status
	}
	if r.CheckInFrom != nil {
		from, err := parseDate("check_in_from", *r.CheckInFrom)
		if err != nil {
			return filter, err
		}
		filter.CheckInFrom = &from
	}
	if r.CheckInTo != nil {
		to, err := parseDate("check_in_to", *r.CheckInTo)
		if err != nil {
			return filter, err
		}
		filter.CheckInTo = &to
	}
	return filter, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return models.NormalizeDate(t), nil
}
