package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/seatwise/booking/internal/booking"
	"github.com/seatwise/booking/internal/clock"
	"github.com/seatwise/booking/internal/config"
	"github.com/seatwise/booking/internal/database"
	"github.com/seatwise/booking/internal/handler"
	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/payment"
	"github.com/seatwise/booking/internal/queue"
	"github.com/seatwise/booking/internal/repository"
	"github.com/seatwise/booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	// Redis is optional: without it, rate limiting and response caching
	// degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and response caching disabled")
	}

	clk := clock.NewSystem()
	arena := inventory.NewArena(repository.NewInventoryLoader(db), clk)

	bookings := repository.NewBookingRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	promos := repository.NewPromoRepo(db)

	coordinator := booking.NewCoordinator(bookings, showtimes, promos, arena, clk, log,
		booking.WithHoldTTL(time.Duration(cfg.HoldTTLMin)*time.Minute),
		booking.WithCancelCutoff(time.Duration(cfg.CancelCutoffHours)*time.Hour),
	)

	gateway := payment.NewHTTPGateway(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret, cfg.Currency)
	publisher := queue.NewPublisher(cfg.RabbitURL, log)
	orchestrator := payment.NewOrchestrator(bookings, promos, arena, gateway, publisher, cfg.PaymentKeySecret, log)

	sweeper := inventory.NewSweeper(arena, coordinator, clk, log,
		time.Duration(cfg.HoldSweepIntervalSec)*time.Second)
	sweeper.Start()
	defer sweeper.Stop()

	go queue.StartBookingConsumer(cfg.RabbitURL, log)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Showtime: handler.NewShowtimeHandler(showtimes, repository.NewScreenRepo(db), arena),
		Booking:  handler.NewBookingHandler(coordinator),
		Payment:  handler.NewPaymentHandler(orchestrator),
		Checkin:  handler.NewCheckinHandler(coordinator),
	}, cfg, rdb)

	go func() {
		addr := ":" + cfg.Port
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
