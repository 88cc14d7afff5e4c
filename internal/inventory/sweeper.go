package inventory

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seatwise/booking/internal/clock"
)

// StaleCanceller cancels PaymentPending bookings whose hold TTL has
// elapsed.  It is implemented by the reservation coordinator so the
// sweeper does not need to know booking semantics.  CancelOverdue covers
// the bookings no in-memory hold tracks anymore, such as those orphaned
// by a restart.
type StaleCanceller interface {
	CancelStale(ctx context.Context, expired []ExpiredHold) error
	CancelOverdue(ctx context.Context) error
}

// Sweeper is the background job that enforces hold TTLs.  The arena also
// purges expired holds lazily on every access, so the sweeper is the
// correctness backstop for bookings whose clients simply disappeared;
// the client-sent cancel call is only a hint.
type Sweeper struct {
	arena    *Arena
	bookings StaleCanceller
	clk      clock.Clock
	log      *logrus.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper constructs a sweeper that runs every interval.
func NewSweeper(arena *Arena, bookings StaleCanceller, clk clock.Clock, log *logrus.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		arena:    arena,
		bookings: bookings,
		clk:      clk,
		log:      log,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	s.log.WithField("interval", s.interval.String()).Info("hold sweeper started")
	go s.run()
}

// Stop terminates the sweep loop and waits for the current pass to finish.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.log.Info("hold sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)
	// Sweep once at startup to clear anything left over from a restart.
	s.Sweep(context.Background())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep performs a single expiry pass: free the seats of every hold past
// its TTL, cancel the pending bookings those holds belonged to, then
// cancel pending bookings old enough that their hold must have lapsed
// even when no in-memory hold remembers them.
func (s *Sweeper) Sweep(ctx context.Context) {
	expired := s.arena.ExpireDue(s.clk.Now())
	if len(expired) > 0 {
		s.log.WithField("count", len(expired)).Info("released expired seat holds")
		if err := s.bookings.CancelStale(ctx, expired); err != nil {
			s.log.WithError(err).Error("failed to cancel bookings for expired holds")
		}
	}
	if err := s.bookings.CancelOverdue(ctx); err != nil {
		s.log.WithError(err).Error("failed to cancel overdue pending bookings")
	}
}
