package repository

import (
	"context"
	"database/sql"

	"github.com/seatwise/booking/internal/model"
)

// InventoryLoader hydrates the in-memory seat ledger of a showtime from
// the durable record: the screen's seat layout plus the seats owned by
// bookings that survive a restart (confirmed or checked in). Holds are
// deliberately not persisted; a restart forfeits them and their
// bookings are swept as stale.
type InventoryLoader struct {
	db *sql.DB
}

// NewInventoryLoader returns a loader bound to the given database.
func NewInventoryLoader(db *sql.DB) *InventoryLoader { return &InventoryLoader{db: db} }

// LoadShowtime returns the seat-label to seat-type layout of a showtime
// and the booked seat-label to booking-id assignment.
func (l *InventoryLoader) LoadShowtime(ctx context.Context, showtimeID uint64) (map[string]string, map[string]uint64, error) {
	const layoutQ = `SELECT se.row_label, se.seat_number, se.seat_type
	                 FROM seats se
	                 JOIN showtimes st ON st.screen_id = se.screen_id
	                 WHERE st.id = ?`
	rows, err := l.db.QueryContext(ctx, layoutQ, showtimeID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	layout := make(map[string]string)
	for rows.Next() {
		var rowLabel string
		var seatNumber uint32
		var seatType string
		if err := rows.Scan(&rowLabel, &seatNumber, &seatType); err != nil {
			return nil, nil, err
		}
		layout[model.SeatLabel(rowLabel, seatNumber)] = seatType
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	const bookedQ = `SELECT bs.seat_label, bs.booking_id
	                 FROM booking_seats bs
	                 JOIN bookings b ON b.id = bs.booking_id
	                 WHERE bs.showtime_id = ? AND b.status IN (?, ?)`
	brows, err := l.db.QueryContext(ctx, bookedQ, showtimeID,
		string(model.StatusConfirmed), string(model.StatusCheckedIn))
	if err != nil {
		return nil, nil, err
	}
	defer brows.Close()

	booked := make(map[string]uint64)
	for brows.Next() {
		var label string
		var bookingID uint64
		if err := brows.Scan(&label, &bookingID); err != nil {
			return nil, nil, err
		}
		booked[label] = bookingID
	}
	if err := brows.Err(); err != nil {
		return nil, nil, err
	}
	return layout, booked, nil
}
