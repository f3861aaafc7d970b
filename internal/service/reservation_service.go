package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/riadstay/reservation-service/internal/events"
	"github.com/riadstay/reservation-service/internal/models"
	"github.com/riadstay/reservation-service/internal/repository"
	"gorm.io/gorm"
)

// CreateReservationInput carries a validated-shape create request. Dates are
// calendar dates (midnight UTC).
type CreateReservationInput struct {
	UserID          string
	RiadID          string
	CheckInDate     time.Time
	CheckOutDate    time.Time
	NumberOfGuests  int
	NumberOfRooms   int
	TotalPrice      float64
	DepositAmount   float64
	Currency        string
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
}

// UpdateReservationInput is a patch: nil fields are left untouched.
type UpdateReservationInput struct {
	CheckInDate     *time.Time
	CheckOutDate    *time.Time
	NumberOfGuests  *int
	NumberOfRooms   *int
	GuestName       *string
	GuestEmail      *string
	GuestPhone      *string
	SpecialRequests *string
}

type ReservationService interface {
	Create(ctx context.Context, input CreateReservationInput) (*models.Reservation, error)
	GetByID(ctx context.Context, id uint) (*models.Reservation, error)
	GetByNumber(ctx context.Context, number string) (*models.Reservation, error)
	List(ctx context.Context, page, limit int) ([]models.Reservation, int64, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Reservation, int64, error)
	ListByRiad(ctx context.Context, riadID string, page, limit int) ([]models.Reservation, int64, error)
	Search(ctx context.Context, filter repository.SearchFilter, page, limit int) ([]models.Reservation, int64, error)
	Update(ctx context.Context, id uint, patch UpdateReservationInput) (*models.Reservation, error)
	Confirm(ctx context.Context, id uint) (*models.Reservation, error)
	Cancel(ctx context.Context, id uint, reason string) (*models.Reservation, error)
	CheckIn(ctx context.Context, id uint) (*models.Reservation, error)
	CheckOut(ctx context.Context, id uint) (*models.Reservation, error)
	MarkNoShow(ctx context.Context, id uint) (*models.Reservation, error)
	CheckAvailability(ctx context.Context, riadID string, checkIn, checkOut time.Time) (bool, string, error)
	AttachPayment(ctx context.Context, id uint, paymentID string) (*models.Reservation, error)
	AttachPaymentByNumber(ctx context.Context, number, paymentID string) (*models.Reservation, error)
	Delete(ctx context.Context, id uint) error
	TodayCheckIns(ctx context.Context) ([]models.Reservation, error)
	TodayCheckOuts(ctx context.Context) ([]models.Reservation, error)
}

// reservationService coordinates the store, the availability checker and the
// transition table. Riad capacity is NOT re-validated here on guest/room
// changes: capacity lives in the catalog service and this core never calls
// the catalog synchronously; only the static 1-20 / 1-10 ranges are enforced.
type reservationService struct {
	repo         repository.ReservationRepository
	availability *AvailabilityChecker
	publisher    events.Publisher
}

func NewReservationService(repo repository.ReservationRepository, availability *AvailabilityChecker, publisher events.Publisher) ReservationService {
	return &reservationService{
		repo:         repo,
		availability: availability,
		publisher:    publisher,
	}
}

func (s *reservationService) Create(ctx context.Context, input CreateReservationInput) (*models.Reservation, error) {
	input.CheckInDate = models.NormalizeDate(input.CheckInDate)
	input.CheckOutDate = models.NormalizeDate(input.CheckOutDate)

	// Defaults are applied before validation so the stored values are the
	// validated ones.
	if input.Currency == "" {
		input.Currency = "MAD"
	}
	if input.NumberOfRooms == 0 {
		input.NumberOfRooms = 1
	}

	if err := validateCreate(input); err != nil {
		return nil, err
	}

	reservation := &models.Reservation{
		ReservationNumber: models.NewReservationNumber(),
		UserID:            input.UserID,
		RiadID:            input.RiadID,
		CheckInDate:       input.CheckInDate,
		CheckOutDate:      input.CheckOutDate,
		NumberOfGuests:    input.NumberOfGuests,
		NumberOfRooms:     input.NumberOfRooms,
		TotalPrice:        input.TotalPrice,
		DepositAmount:     input.DepositAmount,
		Currency:          input.Currency,
		GuestName:         input.GuestName,
		GuestEmail:        input.GuestEmail,
		GuestPhone:        input.GuestPhone,
		SpecialRequests:   input.SpecialRequests,
		Status:            models.StatusPending,
	}

	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize check-then-insert per riad; the advisory lock is held
		// until commit, so two overlapping creates cannot both pass the
		// conflict check.
		if err := s.repo.AcquireRiadLock(ctx, tx, input.RiadID); err != nil {
			return err
		}

		conflicts, err := s.availability.FindConflicts(ctx, tx, input.RiadID, input.CheckInDate, input.CheckOutDate, 0)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{RiadID: input.RiadID, CheckIn: input.CheckInDate, CheckOut: input.CheckOutDate}
		}

		return s.repo.Create(ctx, tx, reservation)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.ReservationCreated, reservation)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "reservation", Key: fmt.Sprintf("id %d", id)}
		}
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) GetByNumber(ctx context.Context, number string) (*models.Reservation, error) {
	reservation, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "reservation", Key: number}
		}
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) List(ctx context.Context, page, limit int) ([]models.Reservation, int64, error) {
	return s.repo.FindAll(ctx, page, limit)
}

func (s *reservationService) ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Reservation, int64, error) {
	return s.repo.FindByUserID(ctx, userID, page, limit)
}

func (s *reservationService) ListByRiad(ctx context.Context, riadID string, page, limit int) ([]models.Reservation, int64, error) {
	return s.repo.FindByRiadID(ctx, riadID, page, limit)
}

func (s *reservationService) Search(ctx context.Context, filter repository.SearchFilter, page, limit int) ([]models.Reservation, int64, error) {
	return s.repo.Search(ctx, filter, page, limit)
}

func (s *reservationService) Update(ctx context.Context, id uint, patch UpdateReservationInput) (*models.Reservation, error) {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !reservation.Status.AllowsUpdate() {
		return nil, &InvalidOperationError{Operation: "update", Status: reservation.Status}
	}

	datesChanged := applyPatch(reservation, patch)

	if err := validateStay(reservation.CheckInDate, reservation.CheckOutDate, datesChanged); err != nil {
		return nil, err
	}
	if err := validateOccupancy(reservation.NumberOfGuests, reservation.NumberOfRooms); err != nil {
		return nil, err
	}
	if len(reservation.SpecialRequests) > 500 {
		return nil, &ValidationError{Field: "special_requests", Message: "must be at most 500 characters"}
	}

	if datesChanged {
		err = s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.AcquireRiadLock(ctx, tx, reservation.RiadID); err != nil {
				return err
			}
			conflicts, err := s.availability.FindConflicts(ctx, tx, reservation.RiadID,
				reservation.CheckInDate, reservation.CheckOutDate, reservation.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &ConflictError{
					RiadID:   reservation.RiadID,
					CheckIn:  reservation.CheckInDate,
					CheckOut: reservation.CheckOutDate,
				}
			}
			return s.repo.Save(ctx, tx, reservation)
		})
	} else {
		err = s.repo.Save(ctx, s.repo.GetDB(), reservation)
	}
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (s *reservationService) Confirm(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.transition(ctx, id, "confirm", models.StatusConfirmed, nil, events.ReservationConfirmed)
}

func (s *reservationService) Cancel(ctx context.Context, id uint, reason string) (*models.Reservation, error) {
	return s.transition(ctx, id, "cancel", models.StatusCancelled,
		map[string]any{"cancellation_reason": reason}, events.ReservationCancelled)
}

func (s *reservationService) CheckIn(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.transition(ctx, id, "check-in", models.StatusCheckedIn, nil, events.ReservationCheckedIn)
}

func (s *reservationService) CheckOut(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.transition(ctx, id, "check-out", models.StatusCheckedOut, nil, events.ReservationCheckedOut)
}

func (s *reservationService) MarkNoShow(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.transition(ctx, id, "mark no-show", models.StatusNoShow, nil, events.ReservationNoShow)
}

// transition loads the reservation, checks the table and applies the change
// with a status compare-and-swap so a concurrent transition (e.g. the sweeper
// expiring a row mid-confirm) cannot be silently overwritten.
func (s *reservationService) transition(ctx context.Context, id uint, op string, to models.ReservationStatus, extra map[string]any, eventType string) (*models.Reservation, error) {
	// extra columns are written in the same CAS statement and mirrored onto
	// the returned struct below.
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(reservation.Status, to) {
		return nil, &InvalidOperationError{
			Operation: op,
			Status:    reservation.Status,
			Detail:    transitionHint(op),
		}
	}

	err = s.repo.UpdateStatus(ctx, s.repo.GetDB(), id, reservation.Status, to, extra)
	if err != nil {
		if errors.Is(err, repository.ErrStaleRow) {
			// Lost the race; report against whatever the row is now.
			current, readErr := s.GetByID(ctx, id)
			if readErr != nil {
				return nil, readErr
			}
			return nil, &InvalidOperationError{Operation: op, Status: current.Status, Detail: transitionHint(op)}
		}
		return nil, err
	}

	reservation.Status = to
	reservation.Version++
	if reason, ok := extra["cancellation_reason"].(string); ok {
		reservation.CancellationReason = reason
	}
	s.publish(eventType, reservation)
	return reservation, nil
}

func transitionHint(op string) string {
	switch op {
	case "check-in":
		return "can only check-in CONFIRMED reservations"
	case "check-out":
		return "can only check-out CHECKED_IN reservations"
	case "mark no-show":
		return "can only mark CONFIRMED reservations as no-show"
	default:
		return ""
	}
}

func (s *reservationService) CheckAvailability(ctx context.Context, riadID string, checkIn, checkOut time.Time) (bool, string, error) {
	checkIn = models.NormalizeDate(checkIn)
	checkOut = models.NormalizeDate(checkOut)
	if err := validateStay(checkIn, checkOut, false); err != nil {
		return false, "", err
	}

	available, err := s.availability.IsAvailable(ctx, riadID, checkIn, checkOut)
	if err != nil {
		return false, "", err
	}

	window := fmt.Sprintf("from %s to %s", checkIn.Format("2006-01-02"), checkOut.Format("2006-01-02"))
	if available {
		return true, fmt.Sprintf("riad %s is available %s", riadID, window), nil
	}
	return false, fmt.Sprintf("riad %s is already booked %s", riadID, window), nil
}

func (s *reservationService) AttachPayment(ctx context.Context, id uint, paymentID string) (*models.Reservation, error) {
	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attachPayment(ctx, reservation, paymentID)
}

func (s *reservationService) AttachPaymentByNumber(ctx context.Context, number, paymentID string) (*models.Reservation, error) {
	reservation, err := s.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.attachPayment(ctx, reservation, paymentID)
}

func (s *reservationService) attachPayment(ctx context.Context, reservation *models.Reservation, paymentID string) (*models.Reservation, error) {
	if paymentID == "" {
		return nil, &ValidationError{Field: "paymentId", Message: "must not be empty"}
	}
	// A late capture against a cancelled/expired/completed stay is surfaced
	// instead of silently attached.
	if reservation.Status.IsTerminal() {
		return nil, &InvalidOperationError{Operation: "attach payment", Status: reservation.Status}
	}

	err := s.repo.UpdateStatus(ctx, s.repo.GetDB(), reservation.ID, reservation.Status, reservation.Status,
		map[string]any{"payment_id": paymentID})
	if err != nil {
		return nil, err
	}

	reservation.PaymentID = paymentID
	reservation.Version++
	return reservation, nil
}

// Delete is the administrative escape hatch: hard removal, no status check.
func (s *reservationService) Delete(ctx context.Context, id uint) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: "reservation", Key: fmt.Sprintf("id %d", id)}
	}
	return err
}

func (s *reservationService) TodayCheckIns(ctx context.Context) ([]models.Reservation, error) {
	return s.repo.FindTodayCheckIns(ctx, time.Now())
}

func (s *reservationService) TodayCheckOuts(ctx context.Context) ([]models.Reservation, error) {
	return s.repo.FindTodayCheckOuts(ctx, time.Now())
}

func (s *reservationService) publish(eventType string, r *models.Reservation) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, events.NewEnvelope(eventType, r)); err != nil {
		// Event delivery is out-of-band; a publish failure never fails the
		// reservation operation.
		log.Printf("[Events] failed to publish %s for %s: %v", eventType, r.ReservationNumber, err)
	}
}

// --- validation ---

func validateCreate(input CreateReservationInput) error {
	if input.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "is required"}
	}
	if input.RiadID == "" {
		return &ValidationError{Field: "riad_id", Message: "is required"}
	}
	if err := validateStay(input.CheckInDate, input.CheckOutDate, true); err != nil {
		return err
	}
	if err := validateOccupancy(input.NumberOfGuests, input.NumberOfRooms); err != nil {
		return err
	}
	if input.TotalPrice <= 0 {
		return &ValidationError{Field: "total_price", Message: "must be positive"}
	}
	if input.DepositAmount < 0 {
		return &ValidationError{Field: "deposit_amount", Message: "must not be negative"}
	}
	if !isCurrencyCode(input.Currency) {
		return &ValidationError{Field: "currency", Message: "must be a 3-letter uppercase code"}
	}
	if input.GuestName == "" {
		return &ValidationError{Field: "guest_name", Message: "is required"}
	}
	if input.GuestEmail == "" {
		return &ValidationError{Field: "guest_email", Message: "is required"}
	}
	if len(input.SpecialRequests) > 500 {
		return &ValidationError{Field: "special_requests", Message: "must be at most 500 characters"}
	}
	return nil
}

// validateStay enforces checkOut > checkIn, and checkIn >= today when the
// check-in date is being set or moved.
func validateStay(checkIn, checkOut time.Time, enforceFuture bool) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return &ValidationError{Field: "dates", Message: "check-in and check-out dates are required"}
	}
	if !checkOut.After(checkIn) {
		return &ValidationError{Field: "check_out_date", Message: "must be after check-in date"}
	}
	if enforceFuture && checkIn.Before(models.NormalizeDate(time.Now())) {
		return &ValidationError{Field: "check_in_date", Message: "must not be in the past"}
	}
	return nil
}

func validateOccupancy(guests, rooms int) error {
	if guests < 1 || guests > 20 {
		return &ValidationError{Field: "number_of_guests", Message: "must be between 1 and 20"}
	}
	if rooms < 1 || rooms > 10 {
		return &ValidationError{Field: "number_of_rooms", Message: "must be between 1 and 10"}
	}
	return nil
}

// isCurrencyCode accepts exactly three uppercase ASCII letters (ISO 4217).
func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// applyPatch copies non-nil fields onto the reservation and reports whether
// the stay window changed.
func applyPatch(r *models.Reservation, patch UpdateReservationInput) bool {
	datesChanged := false
	if patch.CheckInDate != nil {
		in := models.NormalizeDate(*patch.CheckInDate)
		if !in.Equal(r.CheckInDate) {
			r.CheckInDate = in
			datesChanged = true
		}
	}
	if patch.CheckOutDate != nil {
		out := models.NormalizeDate(*patch.CheckOutDate)
		if !out.Equal(r.CheckOutDate) {
			r.CheckOutDate = out
			datesChanged = true
		}
	}
	if patch.NumberOfGuests != nil {
		r.NumberOfGuests = *patch.NumberOfGuests
	}
	if patch.NumberOfRooms != nil {
		r.NumberOfRooms = *patch.NumberOfRooms
	}
	if patch.GuestName != nil {
		r.GuestName = *patch.GuestName
	}
	if patch.GuestEmail != nil {
		r.GuestEmail = *patch.GuestEmail
	}
	if patch.GuestPhone != nil {
		r.GuestPhone = *patch.GuestPhone
	}
	if patch.SpecialRequests != nil {
		r.SpecialRequests = *patch.SpecialRequests
	}
	return datesChanged
}
