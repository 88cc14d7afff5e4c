package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/booking/internal/booking"
	"github.com/seatwise/booking/internal/model"
)

func newMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

func TestBookingRepoCreateCommitsBookingAndSeats(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(10), uint64(1), "PaymentPending", int64(1500), int64(0), int64(1500), nil).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO booking_seats").
		WithArgs(uint64(42), uint64(1), "A1", int64(500), uint64(42), uint64(1), "B1", int64(1000)).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	b := &model.Booking{
		UserID:        10,
		ShowtimeID:    1,
		Status:        model.StatusPaymentPending,
		OriginalCents: 1500,
		TotalCents:    1500,
	}
	seats := []model.BookingSeat{
		{ShowtimeID: 1, SeatLabel: "A1", PriceCents: 500},
		{ShowtimeID: 1, SeatLabel: "B1", PriceCents: 1000},
	}
	err := repo.Create(context.Background(), b, seats)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoCreateRollsBackOnSeatInsertFailure(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("INSERT INTO booking_seats").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	b := &model.Booking{UserID: 10, ShowtimeID: 1, Status: model.StatusPaymentPending}
	err := repo.Create(context.Background(), b, []model.BookingSeat{{ShowtimeID: 1, SeatLabel: "A1"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoUpdateStatusGuard(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("Cancelled", uint64(5), "PaymentPending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(ctx, 5, model.StatusPaymentPending, model.StatusCancelled))

	// Zero rows against an existing booking means the status moved.
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	err := repo.UpdateStatus(ctx, 5, model.StatusPaymentPending, model.StatusCancelled)
	assert.ErrorIs(t, err, booking.ErrStatusConflict)

	// Zero rows against a missing booking means not found.
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	err = repo.UpdateStatus(ctx, 5, model.StatusPaymentPending, model.StatusCancelled)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoUpdateStatusRejectsIllegalMove(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	// Terminal statuses never move again; the transition table stops the
	// write before it reaches the database.
	err := repo.UpdateStatus(ctx, 5, model.StatusCancelled, model.StatusConfirmed)
	assert.ErrorIs(t, err, booking.ErrIllegalTransition)
	err = repo.UpdateStatus(ctx, 5, model.StatusCheckedIn, model.StatusCancelled)
	assert.ErrorIs(t, err, booking.ErrIllegalTransition)
	err = repo.UpdateStatus(ctx, 5, model.StatusPaymentPending, model.StatusCheckedIn)
	assert.ErrorIs(t, err, booking.ErrIllegalTransition)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoStalePending(t *testing.T) {
	repo, mock := newMock(t)
	cutoff := time.Date(2026, 3, 1, 11, 45, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, user_id, showtime_id FROM bookings").
		WithArgs("PaymentPending", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "showtime_id"}).
			AddRow(5, 10, 1).
			AddRow(9, 11, 2))

	stale, err := repo.StalePending(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, uint64(5), stale[0].ID)
	assert.Equal(t, uint64(1), stale[0].ShowtimeID)
	assert.Equal(t, model.StatusPaymentPending, stale[0].Status)
	assert.Equal(t, uint64(9), stale[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoConfirmPayment(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("Confirmed", "BK-7GQ2M4XC", "pay_1", uint64(5), "PaymentPending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ConfirmPayment(context.Background(), 5, "BK-7GQ2M4XC", "pay_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoMarkCheckedInGuard(t *testing.T) {
	repo, mock := newMock(t)
	at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("CheckedIn", at, uint64(500), uint64(5), "Confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkCheckedIn(context.Background(), 5, 500, at))

	// A second scan matches no row: the is_checked_in guard holds.
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	err := repo.MarkCheckedIn(context.Background(), 5, 500, at)
	assert.ErrorIs(t, err, booking.ErrStatusConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepoGetByRefScansNullables(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "booking_ref", "user_id", "showtime_id", "status",
		"original_cents", "discount_cents", "total_cents", "promo_code",
		"order_ref", "payment_ref", "is_checked_in", "checked_in_at", "checked_in_by",
		"created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE booking_ref").
		WithArgs("BK-7GQ2M4XC").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			5, "BK-7GQ2M4XC", 10, 1, "Confirmed",
			1500, 0, 1500, nil,
			"order_1", "pay_1", false, nil, nil,
			now, now,
		))

	b, err := repo.GetByRef(context.Background(), "BK-7GQ2M4XC")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	require.NotNil(t, b.BookingRef)
	assert.Equal(t, "BK-7GQ2M4XC", *b.BookingRef)
	assert.Nil(t, b.PromoCode)
	assert.Nil(t, b.CheckedInAt)
	require.NotNil(t, b.OrderRef)
	assert.Equal(t, "order_1", *b.OrderRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}
