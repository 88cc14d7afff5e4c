package model

import "time"

// Showtime represents a scheduled screening of a movie or an event on a
// specific screen.  Exactly one of MovieID and EventID is set.  ScreenName
// is denormalized from the screen record for display purposes.  Seat
// availability is not stored here; the inventory ledger owns the live
// held/booked sets and the booking tables own the durable record.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – referenced movie (nil for event showtimes).
//  EventID    – referenced event (nil for movie showtimes).
//  VenueID    – venue where the showtime takes place.
//  ScreenID   – screen within the venue.
//  ScreenName – display name of the screen.
//  Title      – movie or event title (display enrichment only).
//  StartsAt   – when the showtime begins.
//  EndsAt     – when the showtime ends (after StartsAt).
//  TotalSeats – number of sellable seats on the screen.
//  IsActive   – whether the showtime accepts new bookings.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Showtime struct {
	ID         uint64    // showtimes.id
	MovieID    *uint64   // showtimes.movie_id (nullable)
	EventID    *uint64   // showtimes.event_id (nullable)
	VenueID    uint64    // showtimes.venue_id
	ScreenID   uint64    // showtimes.screen_id
	ScreenName string    // showtimes.screen_name
	Title      string    // showtimes.title
	StartsAt   time.Time // showtimes.starts_at
	EndsAt     time.Time // showtimes.ends_at
	TotalSeats uint32    // showtimes.total_seats
	IsActive   bool      // showtimes.is_active
	CreatedAt  time.Time // showtimes.created_at
	UpdatedAt  time.Time // showtimes.updated_at
}

// Bookable reports whether new reservations may be taken for the showtime
// at the given instant.  A showtime stops being bookable once it has
// started or when it has been deactivated by venue management.
func (s *Showtime) Bookable(now time.Time) bool {
	return s.IsActive && s.StartsAt.After(now)
}
