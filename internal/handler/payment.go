package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/booking/internal/payment"
)

// PaymentHandler exposes the two payment legs: opening a gateway order
// and verifying the signed callback after checkout.
type PaymentHandler struct {
	Orchestrator *payment.Orchestrator
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(orchestrator *payment.Orchestrator) *PaymentHandler {
	if orchestrator == nil {
		panic("nil orchestrator passed to NewPaymentHandler")
	}
	return &PaymentHandler{Orchestrator: orchestrator}
}

// CreateOrder handles POST /v1/bookings/:id/payment/order.  Repeating
// the call returns the order already attached to the booking.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	order, err := h.Orchestrator.CreateOrder(c.Request().Context(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_ref":    order.ID,
		"amount_cents": order.AmountCents,
		"currency":     order.Currency,
	})
}

// VerifyPayment handles POST /v1/bookings/:id/payment/verify.  The body
// carries the gateway's order reference, payment reference and
// signature; a valid signature confirms the booking and returns it with
// its booking reference assigned.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		OrderRef   string `json:"order_ref"`
		PaymentRef string `json:"payment_ref"`
		Signature  string `json:"signature"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.OrderRef == "" || body.PaymentRef == "" || body.Signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_ref, payment_ref and signature are required"})
	}

	b, err := h.Orchestrator.VerifyPayment(c.Request().Context(), id, actor, body.OrderRef, body.PaymentRef, body.Signature)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, bookingJSON(b))
}
