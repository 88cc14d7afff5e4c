// Package payment drives the external payment gateway round-trip: order
// creation before checkout and signed callback verification after it.
package payment

import "errors"

var (
	// ErrNotPayable is returned when an order is requested for a booking
	// that is not awaiting payment or whose total is zero.
	ErrNotPayable = errors.New("booking is not awaiting payment")
	// ErrOrderMismatch is returned when a verification names an order
	// reference that does not belong to the booking.
	ErrOrderMismatch = errors.New("order reference does not match booking")
	// ErrSignatureMismatch is returned when the gateway signature fails
	// verification; the booking is moved to PaymentFailed.
	ErrSignatureMismatch = errors.New("payment signature verification failed")
)
