package models

// transitions is the single source of truth for reservation status changes.
// Every mutating operation consults this table instead of re-checking the
// current status ad hoc.
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCancelled, StatusCheckedIn, StatusNoShow},
	StatusCheckedIn: {StatusCheckedOut},
	// CANCELLED, CHECKED_OUT, NO_SHOW and EXPIRED are terminal.
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave the status.
func (s ReservationStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// AllowsUpdate reports whether mutable fields (dates, guest counts, contact
// info, special requests) may still be edited.
func (s ReservationStatus) AllowsUpdate() bool {
	return s == StatusPending || s == StatusConfirmed
}
