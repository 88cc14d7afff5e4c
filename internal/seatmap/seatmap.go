// Package seatmap assembles the per-showtime seat map: the screen's
// static layout merged with the live availability snapshot taken from the
// inventory arena.  Assembly is read-only and works on a snapshot copy,
// so it never blocks concurrent holds beyond the arena's own bounded
// critical section.
package seatmap

import (
	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/model"
)

// Computed seat statuses returned to clients.  HELD means held by some
// other buyer; SELECTED marks seats held by the requesting user's own
// in-flight booking.
const (
	StatusAvailable   = "AVAILABLE"
	StatusHeld        = "HELD"
	StatusBooked      = "BOOKED"
	StatusSelected    = "SELECTED"
	StatusUnavailable = "UNAVAILABLE"
)

// SeatView is one seat in the rendered map.
type SeatView struct {
	Seat   string `json:"seat"`
	Number uint32 `json:"number"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Row groups the seats of one physical row, in seat-number order.
type Row struct {
	Row   string     `json:"row"`
	Seats []SeatView `json:"seats"`
}

// Build merges the ordered screen layout with a live availability
// snapshot.  viewerID identifies the requesting user so their own held
// seats render as SELECTED; pass 0 for guests.  Holds are re-validated at
// reservation time, so a slightly stale snapshot is acceptable here.
func Build(layout []model.Seat, snap inventory.Snapshot, viewerID uint64) []Row {
	var rows []Row
	for _, seat := range layout {
		if len(rows) == 0 || rows[len(rows)-1].Row != seat.RowLabel {
			rows = append(rows, Row{Row: seat.RowLabel})
		}
		label := seat.Label()
		r := &rows[len(rows)-1]
		r.Seats = append(r.Seats, SeatView{
			Seat:   label,
			Number: seat.SeatNumber,
			Type:   seat.SeatType,
			Status: seatStatus(seat, label, snap, viewerID),
		})
	}
	return rows
}

func seatStatus(seat model.Seat, label string, snap inventory.Snapshot, viewerID uint64) string {
	if seat.SeatType == model.SeatTypeUnavailable {
		return StatusUnavailable
	}
	if _, booked := snap.Booked[label]; booked {
		return StatusBooked
	}
	if holder, held := snap.HeldBy[label]; held {
		if viewerID != 0 && holder == viewerID {
			return StatusSelected
		}
		return StatusHeld
	}
	return StatusAvailable
}
