package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/booking/internal/booking"
)

// CheckinHandler exposes venue-entry verification to staff.
type CheckinHandler struct {
	Coordinator *booking.Coordinator
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(coordinator *booking.Coordinator) *CheckinHandler {
	if coordinator == nil {
		panic("nil coordinator passed to NewCheckinHandler")
	}
	return &CheckinHandler{Coordinator: coordinator}
}

// CheckIn handles POST /v1/checkin.  Staff present a booking reference
// scanned at the gate; a confirmed booking is consumed exactly once and
// a second presentation yields 409.
func (h *CheckinHandler) CheckIn(c echo.Context) error {
	operatorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		BookingRef string `json:"booking_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BookingRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_ref is required"})
	}

	b, err := h.Coordinator.CheckIn(c.Request().Context(), body.BookingRef, operatorID)
	if err != nil {
		return respondError(c, err)
	}
	resp := bookingJSON(b)
	if b.CheckedInAt != nil {
		resp["checked_in_at"] = b.CheckedInAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}
