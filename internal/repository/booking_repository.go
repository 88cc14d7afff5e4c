package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/seatwise/booking/internal/booking"
	"github.com/seatwise/booking/internal/model"
)

// BookingRepo provides persistence for bookings and their seat rows.
// Status mutations are guarded: the UPDATE names the expected current
// status in its WHERE clause, and a zero-row result is reported as
// booking.ErrStatusConflict so callers can reload and re-decide. This
// keeps concurrent cancels, sweeps and payment verifications from
// trampling each other without row locks.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, booking_ref, user_id, showtime_id, status,
	original_cents, discount_cents, total_cents, promo_code,
	order_ref, payment_ref, is_checked_in, checked_in_at, checked_in_by,
	created_at, updated_at`

// scanBooking scans one bookings row from any row-shaped source.
func scanBooking(row interface {
	Scan(dest ...interface{}) error
}) (*model.Booking, error) {
	var b model.Booking
	var ref, promoCode, orderRef, paymentRef sql.NullString
	var checkedInAt sql.NullTime
	var checkedInBy sql.NullInt64
	var status string
	err := row.Scan(
		&b.ID, &ref, &b.UserID, &b.ShowtimeID, &status,
		&b.OriginalCents, &b.DiscountCents, &b.TotalCents, &promoCode,
		&orderRef, &paymentRef, &b.IsCheckedIn, &checkedInAt, &checkedInBy,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = model.Status(status)
	if ref.Valid {
		v := ref.String
		b.BookingRef = &v
	}
	if promoCode.Valid {
		v := promoCode.String
		b.PromoCode = &v
	}
	if orderRef.Valid {
		v := orderRef.String
		b.OrderRef = &v
	}
	if paymentRef.Valid {
		v := paymentRef.String
		b.PaymentRef = &v
	}
	if checkedInAt.Valid {
		v := checkedInAt.Time
		b.CheckedInAt = &v
	}
	if checkedInBy.Valid {
		v := uint64(checkedInBy.Int64)
		b.CheckedInBy = &v
	}
	return &b, nil
}

// Create inserts a booking and its seat rows in one transaction. The
// generated id is populated on the provided booking. Seat rows inherit
// the booking id; callers supply showtime, label and price.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking, seats []model.BookingSeat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO bookings
		(user_id, showtime_id, status, original_cents, discount_cents, total_cents, promo_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	var promo interface{}
	if b.PromoCode != nil {
		promo = *b.PromoCode
	}
	result, err := tx.ExecContext(ctx, q,
		b.UserID, b.ShowtimeID, string(b.Status),
		b.OriginalCents, b.DiscountCents, b.TotalCents, promo,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(seats) > 0 {
		query := `INSERT INTO booking_seats (booking_id, showtime_id, seat_label, price_cents) VALUES `
		args := make([]interface{}, 0, len(seats)*4)
		for i, s := range seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, b.ID, s.ShowtimeID, s.SeatLabel, s.PriceCents)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a booking by primary key, or booking.ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	return b, err
}

// GetByRef returns a booking by its human-facing reference, or
// booking.ErrBookingNotFound.
func (r *BookingRepo) GetByRef(ctx context.Context, ref string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_ref = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	return b, err
}

// SeatsOf returns the seat labels of a booking in insertion order.
func (r *BookingRepo) SeatsOf(ctx context.Context, bookingID uint64) ([]string, error) {
	const q = `SELECT seat_label FROM booking_seats WHERE booking_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// UpdateStatus moves a booking from one status to another. The move
// must be legal per the model transition table; it returns
// booking.ErrStatusConflict when the booking is not currently in the
// expected status, and booking.ErrBookingNotFound when the id does not
// exist at all.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.Status) error {
	if !model.CanTransition(from, to) {
		return booking.ErrIllegalTransition
	}
	const q = `UPDATE bookings SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// SetOrderRef attaches the payment gateway's order reference to a
// pending booking. Guarded on PaymentPending so an order is never
// attached to a booking that was cancelled or confirmed meanwhile.
func (r *BookingRepo) SetOrderRef(ctx context.Context, id uint64, orderRef string) error {
	const q = `UPDATE bookings SET order_ref = ?, updated_at = NOW() WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, orderRef, id, string(model.StatusPaymentPending))
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// ConfirmPayment finalizes a pending booking: sets Confirmed, assigns
// the booking reference and records the payment reference. paymentRef
// may be empty for zero-total bookings that never touched the gateway.
func (r *BookingRepo) ConfirmPayment(ctx context.Context, id uint64, bookingRef, paymentRef string) error {
	const q = `UPDATE bookings
		SET status = ?, booking_ref = ?, payment_ref = ?, updated_at = NOW()
		WHERE id = ? AND status = ?`
	var payRef interface{}
	if paymentRef != "" {
		payRef = paymentRef
	}
	result, err := r.db.ExecContext(ctx, q,
		string(model.StatusConfirmed), bookingRef, payRef,
		id, string(model.StatusPaymentPending),
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// MarkCheckedIn consumes a confirmed booking at venue entry. The guard
// covers both the status and the is_checked_in flag so a reference can
// be consumed exactly once even under concurrent gate scans.
func (r *BookingRepo) MarkCheckedIn(ctx context.Context, id, operatorID uint64, at time.Time) error {
	const q = `UPDATE bookings
		SET status = ?, is_checked_in = 1, checked_in_at = ?, checked_in_by = ?, updated_at = NOW()
		WHERE id = ? AND status = ? AND is_checked_in = 0`
	result, err := r.db.ExecContext(ctx, q,
		string(model.StatusCheckedIn), at, operatorID,
		id, string(model.StatusConfirmed),
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// StalePending lists payment-pending bookings created before the given
// instant. The age-based sweep uses it to find bookings whose holds are
// no longer tracked in memory (restart, failed attach).
func (r *BookingRepo) StalePending(ctx context.Context, before time.Time) ([]*model.Booking, error) {
	const q = `SELECT id, user_id, showtime_id FROM bookings WHERE status = ? AND created_at < ?`
	rows, err := r.db.QueryContext(ctx, q, string(model.StatusPaymentPending), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Booking
	for rows.Next() {
		b := &model.Booking{Status: model.StatusPaymentPending}
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowtimeID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// missOrConflict distinguishes a guarded-update miss caused by a
// concurrent status change from one caused by a missing row.
func (r *BookingRepo) missOrConflict(ctx context.Context, id uint64) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.ErrBookingNotFound
	}
	if err != nil {
		return err
	}
	return booking.ErrStatusConflict
}

// ListByUser returns all bookings of a user joined with showtime
// display metadata, newest first, with their seat labels populated.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT b.id, b.booking_ref, b.user_id, b.showtime_id, b.status,
	                  b.original_cents, b.discount_cents, b.total_cents, b.promo_code,
	                  b.order_ref, b.payment_ref, b.is_checked_in, b.checked_in_at, b.checked_in_by,
	                  b.created_at, b.updated_at,
	                  st.title, sc.name, st.venue_id, st.starts_at, st.ends_at
	           FROM bookings b
	           JOIN showtimes st ON st.id = b.showtime_id
	           JOIN screens sc ON sc.id = st.screen_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]model.BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		index[d.ID] = len(details)
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	// Populate seats for all bookings in one query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT booking_id, seat_label FROM booking_seats
	          WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY booking_id, id`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var label string
		if err := srows.Scan(&bid, &label); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].Seats = append(details[idx].Seats, label)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// Detail returns one booking joined with showtime display metadata and
// its seat labels, or booking.ErrBookingNotFound.
func (r *BookingRepo) Detail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	const q = `SELECT b.id, b.booking_ref, b.user_id, b.showtime_id, b.status,
	                  b.original_cents, b.discount_cents, b.total_cents, b.promo_code,
	                  b.order_ref, b.payment_ref, b.is_checked_in, b.checked_in_at, b.checked_in_by,
	                  b.created_at, b.updated_at,
	                  st.title, sc.name, st.venue_id, st.starts_at, st.ends_at
	           FROM bookings b
	           JOIN showtimes st ON st.id = b.showtime_id
	           JOIN screens sc ON sc.id = st.screen_id
	           WHERE b.id = ?`
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	seats, err := r.SeatsOf(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Seats = seats
	return d, nil
}

// scanBookingDetail scans a bookings row followed by the joined
// showtime columns.
func scanBookingDetail(row interface {
	Scan(dest ...interface{}) error
}) (*model.BookingDetail, error) {
	var d model.BookingDetail
	var ref, promoCode, orderRef, paymentRef sql.NullString
	var checkedInAt sql.NullTime
	var checkedInBy sql.NullInt64
	var status string
	err := row.Scan(
		&d.ID, &ref, &d.UserID, &d.ShowtimeID, &status,
		&d.OriginalCents, &d.DiscountCents, &d.TotalCents, &promoCode,
		&orderRef, &paymentRef, &d.IsCheckedIn, &checkedInAt, &checkedInBy,
		&d.CreatedAt, &d.UpdatedAt,
		&d.Title, &d.ScreenName, &d.VenueID, &d.StartsAt, &d.EndsAt,
	)
	if err != nil {
		return nil, err
	}
	d.Status = model.Status(status)
	if ref.Valid {
		v := ref.String
		d.BookingRef = &v
	}
	if promoCode.Valid {
		v := promoCode.String
		d.PromoCode = &v
	}
	if orderRef.Valid {
		v := orderRef.String
		d.OrderRef = &v
	}
	if paymentRef.Valid {
		v := paymentRef.String
		d.PaymentRef = &v
	}
	if checkedInAt.Valid {
		v := checkedInAt.Time
		d.CheckedInAt = &v
	}
	if checkedInBy.Valid {
		v := uint64(checkedInBy.Int64)
		d.CheckedInBy = &v
	}
	return &d, nil
}
