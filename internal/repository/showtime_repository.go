package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/model"
)

// ShowtimeRepo reads showtime metadata and the per-seat-type price
// table. Showtimes reference either a movie or an event and are tied to
// a physical screen. All timestamp columns are stored in UTC.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo returns a new ShowtimeRepo bound to the given database.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// GetByID returns a showtime joined with its screen's name. It returns
// inventory.ErrShowtimeNotFound when no showtime with the given id
// exists.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT st.id, st.movie_id, st.event_id, st.venue_id, st.screen_id, sc.name,
	                  st.title, st.starts_at, st.ends_at, st.total_seats, st.is_active
	           FROM showtimes st
	           JOIN screens sc ON sc.id = st.screen_id
	           WHERE st.id = ?`
	var st model.Showtime
	var movieID, eventID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &movieID, &eventID, &st.VenueID, &st.ScreenID, &st.ScreenName,
		&st.Title, &st.StartsAt, &st.EndsAt, &st.TotalSeats, &st.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	if movieID.Valid {
		v := uint64(movieID.Int64)
		st.MovieID = &v
	}
	if eventID.Valid {
		v := uint64(eventID.Int64)
		st.EventID = &v
	}
	return &st, nil
}

// Prices returns the seat-type to price-in-cents table for a showtime.
// A showtime with no price rows yields an empty map; pricing for a seat
// type missing from the map is a configuration error surfaced by the
// coordinator.
func (r *ShowtimeRepo) Prices(ctx context.Context, showtimeID uint64) (map[string]int64, error) {
	const q = `SELECT seat_type, price_cents FROM showtime_prices WHERE showtime_id = ?`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := make(map[string]int64)
	for rows.Next() {
		var seatType string
		var cents int64
		if err := rows.Scan(&seatType, &cents); err != nil {
			return nil, err
		}
		prices[seatType] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}
