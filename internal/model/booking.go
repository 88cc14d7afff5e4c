package model

import "time"

// Booking records a user's purchase of one or more seats for a showtime.
// Bookings are never deleted; they only move between statuses (see the
// booking package for the transition table).  BookingRef is assigned when
// the booking reaches Confirmed and is the identifier presented at venue
// entry.
//
// Fields:
//  ID            – primary key identifier.
//  BookingRef    – human-facing reference code (nil until confirmed).
//  UserID        – user who owns the booking.
//  ShowtimeID    – showtime being booked.
//  Status        – current lifecycle status (see status.go).
//  OriginalCents – sum of the per-seat prices before discount.
//  DiscountCents – discount applied via promo code (0 when none).
//  TotalCents    – OriginalCents − DiscountCents, never negative.
//  PromoCode     – applied promo code (nil when none).
//  OrderRef      – external payment order reference (nil until an order
//                  is opened with the gateway).
//  PaymentRef    – external payment reference recorded on verification.
//  IsCheckedIn   – whether the booking was consumed at venue entry.
//  CheckedInAt   – when check-in happened (nil until then).
//  CheckedInBy   – operator who performed the check-in (nil until then).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64     // bookings.id
	BookingRef    *string    // bookings.booking_ref (nullable, unique)
	UserID        uint64     // bookings.user_id
	ShowtimeID    uint64     // bookings.showtime_id
	Status        Status     // bookings.status
	OriginalCents int64      // bookings.original_cents
	DiscountCents int64      // bookings.discount_cents
	TotalCents    int64      // bookings.total_cents
	PromoCode     *string    // bookings.promo_code (nullable)
	OrderRef      *string    // bookings.order_ref (nullable)
	PaymentRef    *string    // bookings.payment_ref (nullable)
	IsCheckedIn   bool       // bookings.is_checked_in
	CheckedInAt   *time.Time // bookings.checked_in_at (nullable)
	CheckedInBy   *uint64    // bookings.checked_in_by (nullable)
	CreatedAt     time.Time  // bookings.created_at
	UpdatedAt     time.Time  // bookings.updated_at
}

// BookingSeat links a booking to a single seat of its showtime, with the
// price charged for that seat.  Together the rows form the booking's
// ordered seat set.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – owning booking.
//  ShowtimeID – showtime of the seat (denormalized for ledger hydration).
//  SeatLabel  – seat identifier within the showtime ("A1").
//  PriceCents – price charged for this seat.
type BookingSeat struct {
	ID         uint64 // booking_seats.id
	BookingID  uint64 // booking_seats.booking_id
	ShowtimeID uint64 // booking_seats.showtime_id
	SeatLabel  string // booking_seats.seat_label
	PriceCents int64  // booking_seats.price_cents
}

// BookingDetail is the read model returned by booking listings.  It joins
// the booking row with showtime display metadata and the seat labels so
// clients do not have to issue follow-up reads.
type BookingDetail struct {
	Booking
	Title      string    // showtimes.title
	ScreenName string    // showtimes.screen_name
	VenueID    uint64    // showtimes.venue_id
	StartsAt   time.Time // showtimes.starts_at
	EndsAt     time.Time // showtimes.ends_at
	Seats      []string  // seat labels ordered by insertion
}
