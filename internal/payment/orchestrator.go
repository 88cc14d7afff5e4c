package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/seatwise/booking/internal/booking"
	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/model"
)

// Store is the slice of booking persistence the orchestrator needs.
// Guarded mutations return booking.ErrStatusConflict when the booking's
// status moved concurrently.
type Store interface {
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	SeatsOf(ctx context.Context, bookingID uint64) ([]string, error)
	SetOrderRef(ctx context.Context, id uint64, orderRef string) error
	ConfirmPayment(ctx context.Context, id uint64, bookingRef, paymentRef string) error
	UpdateStatus(ctx context.Context, id uint64, from, to model.Status) error
}

// PromoStore accounts promo usage once payment succeeds.
type PromoStore interface {
	IncrementUse(ctx context.Context, code string) error
}

// Publisher emits the confirmation event consumed by downstream workers
// (ticket mail, analytics). A nil publisher disables publishing.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, b *model.Booking, seats []string) error
}

// Orchestrator sequences the two payment legs: order creation before the
// client pays, and signed verification after. Verification is the only
// path that promotes a paid hold into a booked seat.
type Orchestrator struct {
	bookings  Store
	promos    PromoStore
	arena     *inventory.Arena
	gateway   Gateway
	publisher Publisher
	secret    string
	log       *logrus.Logger
}

// NewOrchestrator constructs the payment orchestrator. publisher may be
// nil; every other dependency must be non-nil.
func NewOrchestrator(bookings Store, promos PromoStore, arena *inventory.Arena, gateway Gateway, publisher Publisher, secret string, log *logrus.Logger) *Orchestrator {
	if bookings == nil || promos == nil || arena == nil || gateway == nil || log == nil {
		panic("nil dependency passed to NewOrchestrator")
	}
	return &Orchestrator{
		bookings:  bookings,
		promos:    promos,
		arena:     arena,
		gateway:   gateway,
		publisher: publisher,
		secret:    secret,
		log:       log,
	}
}

// CreateOrder registers a gateway order for a payment-pending booking.
// Repeating the call returns the order already attached to the booking
// instead of opening a second one.
func (o *Orchestrator) CreateOrder(ctx context.Context, bookingID uint64, actor booking.Actor) (*Order, error) {
	b, err := o.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && b.UserID != actor.UserID {
		return nil, booking.ErrNotOwner
	}
	if b.Status != model.StatusPaymentPending || b.TotalCents <= 0 {
		return nil, ErrNotPayable
	}
	if b.OrderRef != nil {
		return &Order{ID: *b.OrderRef, AmountCents: b.TotalCents, Currency: o.gateway.Currency()}, nil
	}

	receipt := uuid.NewString()
	order, err := o.gateway.CreateOrder(ctx, b.TotalCents, receipt)
	if err != nil {
		return nil, err
	}
	if err := o.bookings.SetOrderRef(ctx, b.ID, order.ID); err != nil {
		if errors.Is(err, booking.ErrStatusConflict) {
			return nil, ErrNotPayable
		}
		return nil, err
	}

	o.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"order_ref":   order.ID,
		"total_cents": b.TotalCents,
	}).Info("payment order created")
	return order, nil
}

// VerifyPayment checks the gateway callback signature and finalizes the
// booking. Success promotes the hold to booked, assigns the booking
// reference and records promo usage; a bad signature moves the booking
// to PaymentFailed and frees the seats. Re-verifying an already
// confirmed payment is a no-op returning the confirmed booking.
func (o *Orchestrator) VerifyPayment(ctx context.Context, bookingID uint64, actor booking.Actor, orderRef, paymentRef, signature string) (*model.Booking, error) {
	b, err := o.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && b.UserID != actor.UserID {
		return nil, booking.ErrNotOwner
	}
	if b.Status == model.StatusConfirmed && b.PaymentRef != nil && *b.PaymentRef == paymentRef {
		return b, nil
	}
	if b.Status != model.StatusPaymentPending {
		return nil, ErrNotPayable
	}
	if b.OrderRef == nil || *b.OrderRef != orderRef {
		return nil, ErrOrderMismatch
	}

	if !VerifySignature(orderRef, paymentRef, signature, o.secret) {
		o.log.WithFields(logrus.Fields{
			"booking_id": b.ID,
			"order_ref":  orderRef,
			"user_id":    actor.UserID,
		}).Warn("payment signature rejected")
		o.failPayment(ctx, b)
		return nil, ErrSignatureMismatch
	}

	seats, err := o.bookings.SeatsOf(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if err := o.arena.Promote(ctx, b.ShowtimeID, b.ID, seats); err != nil {
		if errors.Is(err, inventory.ErrSeatUnavailable) {
			// The hold expired mid-checkout and someone else took a seat.
			o.log.WithField("booking_id", b.ID).Warn("seats lost during payment; marking payment failed")
			o.failPayment(ctx, b)
		}
		return nil, err
	}

	ref, err := booking.NewBookingRef()
	if err != nil {
		return nil, err
	}
	err = o.bookings.ConfirmPayment(ctx, b.ID, ref, paymentRef)
	if errors.Is(err, booking.ErrStatusConflict) {
		// A concurrent verification already confirmed the booking; its
		// winner did the promo accounting and publishing.
		current, getErr := o.bookings.GetByID(ctx, b.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == model.StatusConfirmed {
			return current, nil
		}
		// The booking was cancelled or failed while the promotion ran.
		// The seats just booked belong to nobody now; demote them or no
		// later path ever frees them.
		o.demoteBooked(ctx, b)
		return nil, ErrNotPayable
	}
	if err != nil {
		o.demoteBooked(ctx, b)
		return nil, err
	}

	b.Status = model.StatusConfirmed
	b.BookingRef = &ref
	b.PaymentRef = &paymentRef
	if b.PromoCode != nil {
		if err := o.promos.IncrementUse(ctx, *b.PromoCode); err != nil {
			o.log.WithError(err).WithField("code", *b.PromoCode).Error("failed to record promo use")
		}
	}
	o.publishConfirmed(ctx, b, seats)

	o.log.WithFields(logrus.Fields{
		"booking_id":  b.ID,
		"booking_ref": ref,
		"order_ref":   orderRef,
	}).Info("payment verified, booking confirmed")
	return b, nil
}

// demoteBooked returns a booking's promoted seats to the pool after a
// confirmation that could not be persisted.
func (o *Orchestrator) demoteBooked(ctx context.Context, b *model.Booking) {
	if _, err := o.arena.ReleaseBooked(ctx, b.ShowtimeID, b.ID); err != nil {
		o.log.WithError(err).WithField("booking_id", b.ID).Error("failed to release seats after aborted confirmation")
	}
}

// failPayment moves a pending booking to PaymentFailed and gives its
// seats back. Conflicts mean another actor already settled the booking.
func (o *Orchestrator) failPayment(ctx context.Context, b *model.Booking) {
	err := o.bookings.UpdateStatus(ctx, b.ID, model.StatusPaymentPending, model.StatusPaymentFailed)
	if err != nil && !errors.Is(err, booking.ErrStatusConflict) {
		o.log.WithError(err).WithField("booking_id", b.ID).Error("failed to mark payment failed")
		return
	}
	if err == nil {
		if relErr := o.arena.ReleaseHoldByBooking(ctx, b.ShowtimeID, b.ID); relErr != nil {
			o.log.WithError(relErr).WithField("booking_id", b.ID).Error("failed to release hold after payment failure")
		}
		b.Status = model.StatusPaymentFailed
	}
}

func (o *Orchestrator) publishConfirmed(ctx context.Context, b *model.Booking, seats []string) {
	if o.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := o.publisher.PublishBookingConfirmed(pubCtx, b, seats); err != nil {
		o.log.WithError(err).WithField("booking_id", b.ID).Error("failed to publish booking confirmation")
	}
}
