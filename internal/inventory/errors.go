// Package inventory owns the live seat state of every showtime: which
// seats are permanently booked and which are temporarily held pending
// payment.  All mutations run inside a per-showtime critical section so
// that concurrent reservations can never double-sell a seat.
package inventory

import "errors"

// ErrSeatUnavailable is returned when at least one requested seat is
// already booked or held by another booking.  The hold attempt has no
// side effect in that case.
var ErrSeatUnavailable = errors.New("one or more selected seats were just taken")

// ErrInvalidSeat is returned when a requested seat label does not exist
// in the screen layout or the seat is typed UNAVAILABLE.
var ErrInvalidSeat = errors.New("invalid seat selection")

// ErrShowtimeNotFound is returned when the showtime cannot be hydrated
// from durable storage.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrHoldNotFound is returned when an operation references a hold token
// that does not exist or has already expired.
var ErrHoldNotFound = errors.New("hold not found")
