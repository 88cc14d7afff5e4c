package booking

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seatwise/booking/internal/clock"
	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/model"
	"github.com/seatwise/booking/internal/promo"
)

// BookingStore persists bookings and their seat rows.  Implemented by the
// repository layer; guarded mutations return ErrStatusConflict when the
// booking's status moved concurrently.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking, seats []model.BookingSeat) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	GetByRef(ctx context.Context, ref string) (*model.Booking, error)
	SeatsOf(ctx context.Context, bookingID uint64) ([]string, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.Status) error
	ConfirmPayment(ctx context.Context, id uint64, bookingRef, paymentRef string) error
	MarkCheckedIn(ctx context.Context, id, operatorID uint64, at time.Time) error
	ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	Detail(ctx context.Context, id uint64) (*model.BookingDetail, error)
	StalePending(ctx context.Context, before time.Time) ([]*model.Booking, error)
}

// ShowtimeStore reads showtime metadata and the per-seat-type price table.
type ShowtimeStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	Prices(ctx context.Context, showtimeID uint64) (map[string]int64, error)
}

// PromoStore reads promo codes and accounts their usage.  GetByCode
// returns (nil, nil) when the code does not exist; the evaluator treats a
// nil code as invalid.
type PromoStore interface {
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
	IncrementUse(ctx context.Context, code string) error
}

// Actor is the identity principal on whose behalf an operation runs, as
// supplied by the external auth boundary.
type Actor struct {
	UserID  uint64
	IsAdmin bool
}

// Coordinator owns the booking lifecycle.  All seat mutual exclusion is
// delegated to the inventory arena; the coordinator sequences hold,
// pricing, discount and persistence so that a failure at any step leaves
// no partial state behind.
type Coordinator struct {
	bookings  BookingStore
	showtimes ShowtimeStore
	promos    PromoStore
	arena     *inventory.Arena
	clk       clock.Clock
	log       *logrus.Logger

	holdTTL      time.Duration
	cancelCutoff time.Duration
}

const (
	defaultHoldTTL      = 15 * time.Minute
	defaultCancelCutoff = 2 * time.Hour
)

// Option tunes a Coordinator.
type Option func(*Coordinator)

// WithHoldTTL overrides the default 15-minute hold TTL.
func WithHoldTTL(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.holdTTL = d
		}
	}
}

// WithCancelCutoff overrides the default 2-hour customer cancellation
// cutoff before the showtime start.
func WithCancelCutoff(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.cancelCutoff = d
		}
	}
}

// NewCoordinator constructs the reservation coordinator.  All
// dependencies must be non-nil.
func NewCoordinator(bookings BookingStore, showtimes ShowtimeStore, promos PromoStore, arena *inventory.Arena, clk clock.Clock, log *logrus.Logger, opts ...Option) *Coordinator {
	if bookings == nil || showtimes == nil || promos == nil || arena == nil || clk == nil || log == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	c := &Coordinator{
		bookings:     bookings,
		showtimes:    showtimes,
		promos:       promos,
		arena:        arena,
		clk:          clk,
		log:          log,
		holdTTL:      defaultHoldTTL,
		cancelCutoff: defaultCancelCutoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HoldTTL exposes the configured hold TTL (the sweeper and handlers
// report it to clients).
func (c *Coordinator) HoldTTL() time.Duration { return c.holdTTL }

// CreateBooking converts a seat selection into a held, payment-pending
// booking.  The operation is all-or-nothing: a failed hold never produces
// a booking, and a failed promo validation releases the hold already
// taken.  A zero total (fully discounted) confirms the booking
// immediately, promoting the hold atomically.
func (c *Coordinator) CreateBooking(ctx context.Context, actor Actor, showtimeID uint64, seats []string, promoCode string) (*model.Booking, error) {
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}
	seen := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		if _, dup := seen[seat]; dup {
			return nil, ErrDuplicateSeat
		}
		seen[seat] = struct{}{}
	}

	showtime, err := c.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	now := c.clk.Now()
	if !showtime.Bookable(now) {
		return nil, ErrShowtimeNotBookable
	}

	token, err := c.arena.TryHold(ctx, showtimeID, seats, actor.UserID, c.holdTTL)
	if err != nil {
		return nil, err
	}
	// Every failure past this point must give the seats back.
	release := func() {
		if relErr := c.arena.ReleaseHold(ctx, showtimeID, token); relErr != nil {
			c.log.WithError(relErr).WithField("showtime_id", showtimeID).Error("failed to release hold after aborted booking")
		}
	}

	prices, err := c.showtimes.Prices(ctx, showtimeID)
	if err != nil {
		release()
		return nil, err
	}
	seatRows := make([]model.BookingSeat, 0, len(seats))
	var original int64
	for _, seat := range seats {
		seatType, ok, typeErr := c.arena.SeatType(ctx, showtimeID, seat)
		if typeErr != nil || !ok {
			release()
			if typeErr != nil {
				return nil, typeErr
			}
			return nil, inventory.ErrInvalidSeat
		}
		price, priced := prices[seatType]
		if !priced {
			release()
			return nil, errors.New("no price configured for seat type " + seatType)
		}
		original += price
		seatRows = append(seatRows, model.BookingSeat{
			ShowtimeID: showtimeID,
			SeatLabel:  seat,
			PriceCents: price,
		})
	}

	var discount int64
	var appliedCode *string
	if promoCode != "" {
		code := promo.NormalizeCode(promoCode)
		pc, promoErr := c.promos.GetByCode(ctx, code)
		if promoErr != nil {
			release()
			return nil, promoErr
		}
		discount, promoErr = promo.Discount(pc, original, now)
		if promoErr != nil {
			release()
			return nil, promoErr
		}
		appliedCode = &code
	}

	b := &model.Booking{
		UserID:        actor.UserID,
		ShowtimeID:    showtimeID,
		Status:        model.StatusPaymentPending,
		OriginalCents: original,
		DiscountCents: discount,
		TotalCents:    original - discount,
		PromoCode:     appliedCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.bookings.Create(ctx, b, seatRows); err != nil {
		release()
		return nil, err
	}
	if err := c.arena.AttachBooking(ctx, showtimeID, token, b.ID); err != nil {
		// The hold expired between creation and attach; CancelOverdue
		// will cancel the booking row on the next sweep.
		c.log.WithError(err).WithField("booking_id", b.ID).Warn("hold vanished before booking could be attached")
	}

	if b.TotalCents == 0 {
		if err := c.confirmZeroTotal(ctx, b, seats); err != nil {
			return nil, err
		}
	}

	c.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"showtime_id": showtimeID,
		"user_id":     actor.UserID,
		"seats":       len(seats),
		"total_cents": b.TotalCents,
		"status":      b.Status,
	}).Info("booking created")
	return b, nil
}

// confirmZeroTotal finalizes a fully discounted booking without a
// payment round-trip.  Once the hold is promoted, any later failure must
// demote the seats again or they stay booked under a pending row forever.
func (c *Coordinator) confirmZeroTotal(ctx context.Context, b *model.Booking, seats []string) error {
	if err := c.arena.Promote(ctx, b.ShowtimeID, b.ID, seats); err != nil {
		return err
	}
	ref, err := NewBookingRef()
	if err != nil {
		c.demoteBooked(ctx, b)
		return err
	}
	if err := c.bookings.ConfirmPayment(ctx, b.ID, ref, ""); err != nil {
		c.demoteBooked(ctx, b)
		return err
	}
	b.Status = model.StatusConfirmed
	b.BookingRef = &ref
	if b.PromoCode != nil {
		if err := c.promos.IncrementUse(ctx, *b.PromoCode); err != nil {
			c.log.WithError(err).WithField("code", *b.PromoCode).Error("failed to record promo use")
		}
	}
	return nil
}

// demoteBooked returns a booking's promoted seats to the pool after a
// confirmation that could not be persisted.
func (c *Coordinator) demoteBooked(ctx context.Context, b *model.Booking) {
	if _, err := c.arena.ReleaseBooked(ctx, b.ShowtimeID, b.ID); err != nil {
		c.log.WithError(err).WithField("booking_id", b.ID).Error("failed to release seats after aborted confirmation")
	}
}

// Cancel cancels a booking on behalf of an actor.  Pending bookings are
// released immediately; confirmed bookings honour the customer cutoff
// before the showtime start, while admins may cancel unconditionally.
// Cancelling an already-cancelled booking is a no-op, not an error.
func (c *Coordinator) Cancel(ctx context.Context, bookingID uint64, actor Actor) (*model.Booking, error) {
	b, err := c.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && b.UserID != actor.UserID {
		return nil, ErrNotOwner
	}

	if b.Status == model.StatusCancelled {
		return b, nil
	}
	if !model.CanTransition(b.Status, model.StatusCancelled) {
		return nil, ErrIllegalTransition
	}
	if b.Status == model.StatusPaymentPending {
		return c.cancelPending(ctx, b)
	}
	return c.cancelConfirmed(ctx, b, actor)
}

func (c *Coordinator) cancelPending(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	err := c.bookings.UpdateStatus(ctx, b.ID, model.StatusPaymentPending, model.StatusCancelled)
	if errors.Is(err, ErrStatusConflict) {
		// Lost a race with the sweeper or a concurrent cancel; a booking
		// that ended up Cancelled anyway satisfies the caller's intent.
		current, getErr := c.bookings.GetByID(ctx, b.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == model.StatusCancelled {
			return current, nil
		}
		return nil, ErrIllegalTransition
	}
	if err != nil {
		return nil, err
	}
	if err := c.arena.ReleaseHoldByBooking(ctx, b.ShowtimeID, b.ID); err != nil {
		c.log.WithError(err).WithField("booking_id", b.ID).Error("failed to release hold on cancellation")
	}
	b.Status = model.StatusCancelled
	c.log.WithField("booking_id", b.ID).Info("pending booking cancelled")
	return b, nil
}

func (c *Coordinator) cancelConfirmed(ctx context.Context, b *model.Booking, actor Actor) (*model.Booking, error) {
	if !actor.IsAdmin {
		showtime, err := c.showtimes.GetByID(ctx, b.ShowtimeID)
		if err != nil {
			return nil, err
		}
		if c.clk.Now().Add(c.cancelCutoff).After(showtime.StartsAt) {
			return nil, ErrCancelCutoff
		}
	}
	err := c.bookings.UpdateStatus(ctx, b.ID, model.StatusConfirmed, model.StatusCancelled)
	if errors.Is(err, ErrStatusConflict) {
		current, getErr := c.bookings.GetByID(ctx, b.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == model.StatusCancelled {
			return current, nil
		}
		return nil, ErrIllegalTransition
	}
	if err != nil {
		return nil, err
	}
	freed, err := c.arena.ReleaseBooked(ctx, b.ShowtimeID, b.ID)
	if err != nil {
		c.log.WithError(err).WithField("booking_id", b.ID).Error("failed to release booked seats on cancellation")
	}
	b.Status = model.StatusCancelled
	c.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"seats":      len(freed),
		"by_admin":   actor.IsAdmin,
	}).Info("confirmed booking cancelled")
	return b, nil
}

// CancelStale is the sweeper callback: it cancels the pending bookings
// whose holds just expired.  Bookings that were confirmed or cancelled in
// the meantime are skipped via the guarded status update.
func (c *Coordinator) CancelStale(ctx context.Context, expired []inventory.ExpiredHold) error {
	var firstErr error
	for _, eh := range expired {
		if eh.BookingID == 0 {
			continue
		}
		err := c.bookings.UpdateStatus(ctx, eh.BookingID, model.StatusPaymentPending, model.StatusCancelled)
		switch {
		case err == nil:
			c.log.WithFields(logrus.Fields{
				"booking_id":  eh.BookingID,
				"showtime_id": eh.ShowtimeID,
			}).Info("pending booking cancelled after hold expiry")
		case errors.Is(err, ErrStatusConflict):
			// Already confirmed or cancelled; nothing to do.
		default:
			if firstErr == nil {
				firstErr = err
			}
			c.log.WithError(err).WithField("booking_id", eh.BookingID).Error("failed to cancel stale booking")
		}
	}
	return firstErr
}

// CancelOverdue cancels payment-pending bookings older than the hold
// TTL.  The TTL sweep only sees in-memory holds, so bookings orphaned by
// a restart or by a hold that vanished before it could be attached need
// this age-based pass to reach Cancelled.
func (c *Coordinator) CancelOverdue(ctx context.Context) error {
	stale, err := c.bookings.StalePending(ctx, c.clk.Now().Add(-c.holdTTL))
	if err != nil {
		return err
	}
	var firstErr error
	for _, b := range stale {
		err := c.bookings.UpdateStatus(ctx, b.ID, model.StatusPaymentPending, model.StatusCancelled)
		switch {
		case err == nil:
			// Any hold still tracked for the booking goes too.
			if relErr := c.arena.ReleaseHoldByBooking(ctx, b.ShowtimeID, b.ID); relErr != nil {
				c.log.WithError(relErr).WithField("booking_id", b.ID).Error("failed to release hold of overdue booking")
			}
			c.log.WithFields(logrus.Fields{
				"booking_id":  b.ID,
				"showtime_id": b.ShowtimeID,
			}).Info("overdue pending booking cancelled")
		case errors.Is(err, ErrStatusConflict):
			// Confirmed or cancelled since the listing; nothing to do.
		default:
			if firstErr == nil {
				firstErr = err
			}
			c.log.WithError(err).WithField("booking_id", b.ID).Error("failed to cancel overdue booking")
		}
	}
	return firstErr
}

// GetBooking returns a booking detail, enforcing ownership for
// non-admin actors.
func (c *Coordinator) GetBooking(ctx context.Context, bookingID uint64, actor Actor) (*model.BookingDetail, error) {
	detail, err := c.bookings.Detail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && detail.UserID != actor.UserID {
		return nil, ErrNotOwner
	}
	return detail, nil
}

// ListBookings returns all bookings owned by a user, newest first.
func (c *Coordinator) ListBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return c.bookings.ListByUser(ctx, userID)
}
