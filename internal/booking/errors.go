package booking

import "errors"

var (
	// ErrSlotConflict is returned when the candidate interval overlaps an
	// existing scheduled appointment or live hold.
	ErrSlotConflict = errors.New("booking: slot conflicts with an existing appointment")

	// ErrNoPendingHold is returned when a confirmation arrives and the
	// customer has no live hold to confirm.
	ErrNoPendingHold = errors.New("booking: no pending hold to confirm")

	// ErrCalendarUnavailable wraps transient calendar provider failures.
	// The hold is left untouched when this is returned.
	ErrCalendarUnavailable = errors.New("booking: calendar provider unavailable")

	// ErrAppointmentNotFound is returned by repositories on missing rows.
	ErrAppointmentNotFound = errors.New("booking: appointment not found")
)
