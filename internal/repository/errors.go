// Package repository implements MySQL persistence for showtimes,
// bookings and promo codes. Sentinel values declared here let handlers
// and services distinguish failure scenarios without inspecting SQL
// errors. Not-found conditions are translated into the owning domain
// package's sentinels (booking.ErrBookingNotFound,
// inventory.ErrShowtimeNotFound) so callers never see sql.ErrNoRows.
package repository

import "errors"

// ErrPromoExhausted is returned when a promo usage increment finds the
// code already at its usage cap. The booking was confirmed on a
// validation snapshot that has since gone stale; callers log and move
// on rather than unwind the confirmation.
var ErrPromoExhausted = errors.New("promo code usage cap reached")
