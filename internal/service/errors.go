package service

import (
	"fmt"
	"time"

	"github.com/riadstay/reservation-service/internal/models"
)

// NotFoundError identifies the missing entity by its id or natural key.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// ConflictError reports a date-range collision on a riad.
type ConflictError struct {
	RiadID   string
	CheckIn  time.Time
	CheckOut time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("riad %s is not available from %s to %s",
		e.RiadID, e.CheckIn.Format("2006-01-02"), e.CheckOut.Format("2006-01-02"))
}

// InvalidOperationError reports an operation illegal in the current status.
type InvalidOperationError struct {
	Operation string
	Status    models.ReservationStatus
	Detail    string
}

func (e *InvalidOperationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot %s reservation in status %s: %s", e.Operation, e.Status, e.Detail)
	}
	return fmt.Sprintf("cannot %s reservation in status %s", e.Operation, e.Status)
}

// ValidationError reports malformed input on a named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
