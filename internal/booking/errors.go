// Package booking implements the reservation coordinator: the component
// that turns a seat selection into a race-free, payment-gated,
// cancellable booking, and later consumes it at venue entry.
package booking

import "errors"

// Validation errors, rejected before any state mutation.
var (
	// ErrNoSeats is returned when a reservation names no seats.
	ErrNoSeats = errors.New("at least one seat must be selected")
	// ErrDuplicateSeat is returned when the same seat appears twice in
	// one selection.
	ErrDuplicateSeat = errors.New("duplicate seat in selection")
)

// Conflict and transition errors; the booking (and seat state) is left
// unchanged in every case.
var (
	// ErrShowtimeNotBookable is returned when the showtime has started
	// or has been deactivated.
	ErrShowtimeNotBookable = errors.New("showtime is not open for booking")
	// ErrIllegalTransition is returned when a mutation would move a
	// booking outside the transition table.
	ErrIllegalTransition = errors.New("illegal booking status transition")
	// ErrNotConfirmed is returned by check-in when the booking is not in
	// the Confirmed state.
	ErrNotConfirmed = errors.New("booking is not confirmed")
	// ErrAlreadyCheckedIn is returned when a booking reference is
	// presented at the venue a second time.
	ErrAlreadyCheckedIn = errors.New("booking already checked in")
	// ErrCancelCutoff is returned when a customer cancels a confirmed
	// booking too close to the showtime start.
	ErrCancelCutoff = errors.New("cancellation window has closed")
	// ErrNotOwner is returned when a user operates on a booking that
	// belongs to someone else.
	ErrNotOwner = errors.New("booking belongs to another user")
)

// ErrBookingNotFound is returned when a booking id or reference does not
// resolve to a booking.
var ErrBookingNotFound = errors.New("booking not found")

// ErrStatusConflict is returned by stores when a guarded status update
// matched no row because the booking moved concurrently.  Callers reload
// and decide whether the observed state already satisfies their intent.
var ErrStatusConflict = errors.New("booking status changed concurrently")
