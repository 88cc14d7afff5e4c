// Package queue publishes and consumes booking events over RabbitMQ.
package queue

// BookingConfirmedEvent is published when a booking reaches Confirmed,
// whether through payment verification or a fully discounted total.
// Downstream consumers (ticket delivery, analytics) receive the seat
// labels and amounts so the common cases need no follow-up query.
type BookingConfirmedEvent struct {
	BookingID     uint64   `json:"booking_id"`
	BookingRef    string   `json:"booking_ref"`
	UserID        uint64   `json:"user_id"`
	ShowtimeID    uint64   `json:"showtime_id"`
	Seats         []string `json:"seats"`
	OriginalCents int64    `json:"original_cents"`
	DiscountCents int64    `json:"discount_cents"`
	TotalCents    int64    `json:"total_cents"`
	PromoCode     string   `json:"promo_code,omitempty"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
