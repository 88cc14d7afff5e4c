// Package handler defines the HTTP handlers of the reservation API.
// Handlers translate between the HTTP surface and the booking, payment
// and inventory services; all business rules live in those packages.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/booking/internal/booking"
	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/middleware"
	"github.com/seatwise/booking/internal/payment"
	"github.com/seatwise/booking/internal/promo"
)

// getUserID extracts the authenticated user's id from the context.
func getUserID(c echo.Context) (uint64, error) {
	if id := middleware.UserID(c); id != 0 {
		return id, nil
	}
	return 0, errors.New("missing user_id in context")
}

// actorFrom builds the service-layer principal for the current request.
func actorFrom(c echo.Context) (booking.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return booking.Actor{}, err
	}
	return booking.Actor{UserID: id, IsAdmin: middleware.Role(c) == middleware.RoleAdmin}, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// respondError maps service errors onto HTTP responses.  Validation
// failures are 400, ownership failures 403, unknown resources 404 and
// state conflicts 409; anything unmapped is a 500 with a generic body so
// internals never leak to clients.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrNoSeats),
		errors.Is(err, booking.ErrDuplicateSeat),
		errors.Is(err, inventory.ErrInvalidSeat),
		errors.Is(err, promo.ErrInvalidPromoCode),
		errors.Is(err, payment.ErrSignatureMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, inventory.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, inventory.ErrSeatUnavailable),
		errors.Is(err, booking.ErrShowtimeNotBookable),
		errors.Is(err, booking.ErrIllegalTransition),
		errors.Is(err, booking.ErrCancelCutoff),
		errors.Is(err, booking.ErrNotConfirmed),
		errors.Is(err, booking.ErrAlreadyCheckedIn),
		errors.Is(err, payment.ErrNotPayable),
		errors.Is(err, payment.ErrOrderMismatch):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
