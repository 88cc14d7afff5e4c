package repository

import (
	"context"
	"database/sql"

	"github.com/seatwise/booking/internal/model"
)

// ScreenRepo reads the physical seat layout of screens. Layouts are
// immutable once a screen has showtimes, so the rows are safe to cache
// upstream.
type ScreenRepo struct {
	db *sql.DB
}

// NewScreenRepo returns a new ScreenRepo bound to the given database.
func NewScreenRepo(db *sql.DB) *ScreenRepo { return &ScreenRepo{db: db} }

// LayoutForShowtime returns the seats of the screen a showtime plays
// on, ordered by row label then seat number so callers can render the
// seat map deterministically.
func (r *ScreenRepo) LayoutForShowtime(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	const q = `SELECT se.id, se.screen_id, se.row_label, se.seat_number, se.seat_type
	           FROM seats se
	           JOIN showtimes st ON st.screen_id = se.screen_id
	           WHERE st.id = ?
	           ORDER BY se.row_label, se.seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ScreenID, &s.RowLabel, &s.SeatNumber, &s.SeatType); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
