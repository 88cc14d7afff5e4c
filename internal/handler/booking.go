package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/booking/internal/booking"
	"github.com/seatwise/booking/internal/model"
)

// BookingHandler exposes the booking lifecycle to customers: create,
// list, inspect and cancel.
type BookingHandler struct {
	Coordinator *booking.Coordinator
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(coordinator *booking.Coordinator) *BookingHandler {
	if coordinator == nil {
		panic("nil coordinator passed to NewBookingHandler")
	}
	return &BookingHandler{Coordinator: coordinator}
}

// Create handles POST /v1/bookings.  The request body names the
// showtime, the seat labels to reserve and an optional promo code.  On
// success the seats are held and a PaymentPending booking is returned;
// a fully discounted booking comes back already Confirmed.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShowtimeID uint64   `json:"showtime_id"`
		Seats      []string `json:"seats"`
		PromoCode  string   `json:"promo_code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShowtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime_id is required"})
	}

	b, err := h.Coordinator.CreateBooking(c.Request().Context(), actor, body.ShowtimeID, body.Seats, body.PromoCode)
	if err != nil {
		return respondError(c, err)
	}
	resp := bookingJSON(b)
	resp["seats"] = body.Seats
	resp["hold_expires_in_sec"] = int(h.Coordinator.HoldTTL() / time.Second)
	return c.JSON(http.StatusCreated, resp)
}

// List handles GET /v1/my-bookings, returning the caller's bookings
// newest first.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Coordinator.ListBookings(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]echo.Map, 0, len(details))
	for i := range details {
		out = append(out, detailJSON(&details[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get handles GET /v1/bookings/:id.  Customers can only read their own
// bookings; admins can read any.
func (h *BookingHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	detail, err := h.Coordinator.GetBooking(c.Request().Context(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detailJSON(detail))
}

// Cancel handles POST /v1/bookings/:id/cancel.  Pending bookings are
// released immediately; confirmed ones honour the cancellation cutoff
// unless the caller is an admin.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Coordinator.Cancel(c.Request().Context(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, bookingJSON(b))
}

// bookingJSON renders the client-visible view of a booking row.
func bookingJSON(b *model.Booking) echo.Map {
	m := echo.Map{
		"id":             b.ID,
		"showtime_id":    b.ShowtimeID,
		"status":         b.Status,
		"original_cents": b.OriginalCents,
		"discount_cents": b.DiscountCents,
		"total_cents":    b.TotalCents,
		"created_at":     b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.BookingRef != nil {
		m["booking_ref"] = *b.BookingRef
	}
	if b.PromoCode != nil {
		m["promo_code"] = *b.PromoCode
	}
	return m
}

// detailJSON renders a booking joined with its showtime metadata.
func detailJSON(d *model.BookingDetail) echo.Map {
	m := bookingJSON(&d.Booking)
	m["seats"] = d.Seats
	m["title"] = d.Title
	m["screen_name"] = d.ScreenName
	m["venue_id"] = d.VenueID
	m["starts_at"] = d.StartsAt.UTC().Format(time.RFC3339)
	m["ends_at"] = d.EndsAt.UTC().Format(time.RFC3339)
	if d.IsCheckedIn && d.CheckedInAt != nil {
		m["checked_in_at"] = d.CheckedInAt.UTC().Format(time.RFC3339)
	}
	return m
}
