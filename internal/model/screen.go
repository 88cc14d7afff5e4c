package model

import (
	"strconv"
	"time"
)

// Seat type tags as stored in seats.seat_type.  UNAVAILABLE marks seats
// that physically exist in the layout but can never be sold (broken,
// blocked sight line, distancing gap).
const (
	SeatTypeStandard    = "STANDARD"
	SeatTypeVIP         = "VIP"
	SeatTypeAccessible  = "ACCESSIBLE"
	SeatTypeUnavailable = "UNAVAILABLE"
)

// Screen represents an auditorium within a venue.  Its seat layout is
// static; per-showtime availability is derived by the seat-map assembler.
//
// Fields:
//  ID        – primary key identifier.
//  VenueID   – venue to which the screen belongs.
//  Name      – display name (e.g. "Screen 3", "IMAX").
//  IsActive  – whether the screen is in service.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Screen struct {
	ID        uint64    // screens.id
	VenueID   uint64    // screens.venue_id
	Name      string    // screens.name
	IsActive  bool      // screens.is_active
	CreatedAt time.Time // screens.created_at
	UpdatedAt time.Time // screens.updated_at
}

// Seat describes a physical seat on a screen.  Seats are uniquely
// identified within a showtime by their label, the concatenation of row
// label and seat number ("A1", "J12").
//
// Fields:
//  ID         – primary key identifier.
//  ScreenID   – screen to which this seat belongs.
//  RowLabel   – letter(s) designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatType   – one of the SeatType constants above.
type Seat struct {
	ID         uint64 // seats.id
	ScreenID   uint64 // seats.screen_id
	RowLabel   string // seats.row_label
	SeatNumber uint32 // seats.seat_number
	SeatType   string // seats.seat_type
}

// Label returns the seat identifier used throughout the reservation
// engine: row label immediately followed by the seat number.
func (s *Seat) Label() string {
	return SeatLabel(s.RowLabel, s.SeatNumber)
}

// SeatLabel builds a seat identifier from its row label and number.
func SeatLabel(row string, number uint32) string {
	return row + strconv.FormatUint(uint64(number), 10)
}
