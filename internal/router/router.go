// Package router wires the HTTP surface: which handler serves each
// route and which middleware guards it.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/seatwise/booking/internal/config"
	"github.com/seatwise/booking/internal/handler"
	"github.com/seatwise/booking/internal/middleware"
)

// Handlers bundles the constructed handlers for registration.
type Handlers struct {
	Showtime *handler.ShowtimeHandler
	Booking  *handler.BookingHandler
	Payment  *handler.PaymentHandler
	Checkin  *handler.CheckinHandler
}

// Register registers every route of the reservation API on e.
//
// Route groups:
//   - /healthz is open.
//   - showtime details are public and response-cached; the seat map is
//     public with optional authentication (the viewer's own holds are
//     marked SELECTED) and deliberately not cached.
//   - the booking and payment lifecycle requires a CUSTOMER or ADMIN
//     token; booking creation additionally runs the rate limiter since
//     it is the endpoint seat-grabbing bots hammer.
//   - check-in requires a STAFF or ADMIN token.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	pub := e.Group("/v1")
	pub.GET("/showtimes/:id", h.Showtime.Get, cache)
	pub.GET("/showtimes/:id/seat-map", h.Showtime.SeatMap, middleware.JWTAuthOptional(cfg.JWTSecret))

	cust := e.Group(
		"/v1",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(middleware.RoleCustomer, middleware.RoleAdmin),
	)
	cust.POST("/bookings", h.Booking.Create, limiter)
	cust.GET("/my-bookings", h.Booking.List)
	cust.GET("/bookings/:id", h.Booking.Get)
	cust.POST("/bookings/:id/cancel", h.Booking.Cancel)
	cust.POST("/bookings/:id/payment/order", h.Payment.CreateOrder, limiter)
	cust.POST("/bookings/:id/payment/verify", h.Payment.VerifyPayment, limiter)

	staff := e.Group(
		"/v1",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin),
	)
	staff.POST("/checkin", h.Checkin.CheckIn)
}
