package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/seatwise/booking/internal/model"
)

const bookingQueueName = "booking.confirmed"

// Publisher emits BookingConfirmedEvent messages to the
// booking.confirmed queue. Each publish opens a short-lived connection;
// confirmation volume is low enough that connection reuse is not worth
// the reconnect bookkeeping. Messages are marked persistent so they
// survive a broker restart.
type Publisher struct {
	url string
	log *logrus.Logger
}

// NewPublisher returns a publisher targeting the broker at url.
func NewPublisher(url string, log *logrus.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// PublishBookingConfirmed publishes the confirmation of a booking.
// Errors are logged and returned so callers can treat publishing as
// best-effort without interrupting the request flow.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, b *model.Booking, seats []string) error {
	event := BookingConfirmedEvent{
		BookingID:     b.ID,
		UserID:        b.UserID,
		ShowtimeID:    b.ShowtimeID,
		Seats:         seats,
		OriginalCents: b.OriginalCents,
		DiscountCents: b.DiscountCents,
		TotalCents:    b.TotalCents,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if b.BookingRef != nil {
		event.BookingRef = *b.BookingRef
	}
	if b.PromoCode != nil {
		event.PromoCode = *b.PromoCode
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.WithError(err).Error("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Error("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		p.log.WithError(err).Error("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(err).Error("rabbitmq: marshal event failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", bookingQueueName, false, false, pub); err != nil {
		p.log.WithError(err).Error("rabbitmq: publish failed")
		return err
	}
	return nil
}
