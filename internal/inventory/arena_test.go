package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/booking/internal/model"
)

// stubLoader serves a fixed layout and booked set for every showtime.
type stubLoader struct {
	layout map[string]string
	booked map[string]uint64
	err    error
}

func (s *stubLoader) LoadShowtime(_ context.Context, _ uint64) (map[string]string, map[string]uint64, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	layout := make(map[string]string, len(s.layout))
	for k, v := range s.layout {
		layout[k] = v
	}
	booked := make(map[string]uint64, len(s.booked))
	for k, v := range s.booked {
		booked[k] = v
	}
	return layout, booked, nil
}

// stepClock is a manually advanced clock for expiry tests.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func rowLayout(rows ...string) map[string]string {
	layout := make(map[string]string)
	for _, r := range rows {
		for n := uint32(1); n <= 10; n++ {
			layout[model.SeatLabel(r, n)] = model.SeatTypeStandard
		}
	}
	return layout
}

func newTestArena(t *testing.T, loader *stubLoader) (*Arena, *stepClock) {
	t.Helper()
	clk := &stepClock{now: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
	return NewArena(loader, clk), clk
}

func TestTryHoldAllOrNothing(t *testing.T) {
	a, _ := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	_, err := a.TryHold(ctx, 1, []string{"A1", "A2"}, 10, 15*time.Minute)
	require.NoError(t, err)

	// Overlapping request fails entirely and leaves A3 free.
	_, err = a.TryHold(ctx, 1, []string{"A2", "A3"}, 11, 15*time.Minute)
	require.ErrorIs(t, err, ErrSeatUnavailable)

	snap, err := a.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, snap.HeldBy, "A1")
	assert.Contains(t, snap.HeldBy, "A2")
	assert.NotContains(t, snap.HeldBy, "A3")
}

func TestTryHoldRejectsUnknownAndUnavailableSeats(t *testing.T) {
	layout := rowLayout("A")
	layout["A5"] = model.SeatTypeUnavailable
	a, _ := newTestArena(t, &stubLoader{layout: layout})
	ctx := context.Background()

	_, err := a.TryHold(ctx, 1, []string{"Z9"}, 10, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidSeat)

	_, err = a.TryHold(ctx, 1, []string{"A5"}, 10, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidSeat)

	// A failed validation must not leave any seat held.
	snap, err := a.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, snap.HeldBy)
}

func TestTryHoldRetrySameSeatSetIsNoOp(t *testing.T) {
	a, _ := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	tok1, err := a.TryHold(ctx, 1, []string{"A1", "A2"}, 10, 15*time.Minute)
	require.NoError(t, err)
	tok2, err := a.TryHold(ctx, 1, []string{"A1", "A2"}, 10, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, tok1, tok2)
}

func TestConcurrentOverlappingHoldsSingleWinner(t *testing.T) {
	a, _ := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			if tok, err := a.TryHold(ctx, 1, []string{"A1", "A2"}, user, time.Minute); err == nil {
				wins <- tok
			}
		}(uint64(100 + i))
	}
	wg.Wait()
	close(wins)

	var tokens []string
	for tok := range wins {
		tokens = append(tokens, tok)
	}
	require.Len(t, tokens, 1, "exactly one overlapping hold may win")
}

func TestConcurrentDisjointHoldsAllSucceed(t *testing.T) {
	a, _ := newTestArena(t, &stubLoader{layout: rowLayout("A", "B", "C", "D")})
	ctx := context.Background()

	seatSets := [][]string{
		{"A1", "A2"}, {"A3"}, {"B1", "B2", "B3"}, {"C1"}, {"C2", "C3"}, {"D1", "D2"},
	}
	var wg sync.WaitGroup
	errs := make([]error, len(seatSets))
	for i, seats := range seatSets {
		wg.Add(1)
		go func(i int, seats []string) {
			defer wg.Done()
			_, errs[i] = a.TryHold(ctx, 1, seats, uint64(200+i), time.Minute)
		}(i, seats)
	}
	wg.Wait()

	held := 0
	for i, err := range errs {
		require.NoError(t, err, "disjoint hold %d must succeed", i)
		held += len(seatSets[i])
	}
	snap, err := a.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snap.HeldBy, held, "held set must equal the union of all requests")
}

func TestRaceOnSharedSeatFinalState(t *testing.T) {
	// A1 vs A1+A2: one request wins, the other fails entirely, and after
	// promotion the booked set is exactly the winner's.
	a, _ := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	type result struct {
		token string
		seats []string
		err   error
	}
	requests := [][]string{{"A1"}, {"A1", "A2"}}
	results := make([]result, len(requests))
	var wg sync.WaitGroup
	for i, seats := range requests {
		wg.Add(1)
		go func(i int, seats []string) {
			defer wg.Done()
			tok, err := a.TryHold(ctx, 1, seats, uint64(300+i), time.Minute)
			results[i] = result{token: tok, seats: seats, err: err}
		}(i, seats)
	}
	wg.Wait()

	var winner *result
	failures := 0
	for i := range results {
		if results[i].err == nil {
			winner = &results[i]
		} else {
			require.ErrorIs(t, results[i].err, ErrSeatUnavailable)
			failures++
		}
	}
	require.NotNil(t, winner)
	require.Equal(t, 1, failures)

	require.NoError(t, a.AttachBooking(ctx, 1, winner.token, 77))
	require.NoError(t, a.Promote(ctx, 1, 77, winner.seats))

	snap, err := a.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snap.Booked, len(winner.seats))
	assert.Empty(t, snap.HeldBy, "loser must leave no residual hold")
}

func TestReleaseHoldRestoresAvailability(t *testing.T) {
	a, _ := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	before, err := a.Snapshot(ctx, 1)
	require.NoError(t, err)

	tok, err := a.TryHold(ctx, 1, []string{"A1", "A2"}, 10, time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.ReleaseHold(ctx, 1, tok))
	// Releasing twice is a no-op.
	require.NoError(t, a.ReleaseHold(ctx, 1, tok))

	after, err := a.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = a.TryHold(ctx, 1, []string{"A1"}, 11, time.Minute)
	assert.NoError(t, err)
}

func TestHoldExpiryFreesSeats(t *testing.T) {
	a, clk := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	tok, err := a.TryHold(ctx, 1, []string{"A1"}, 10, 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.AttachBooking(ctx, 1, tok, 41))

	// Before the TTL the seat stays held.
	_, err = a.TryHold(ctx, 1, []string{"A1"}, 11, time.Minute)
	require.ErrorIs(t, err, ErrSeatUnavailable)

	clk.Advance(16 * time.Minute)
	expired := a.ExpireDue(clk.Now())
	require.Len(t, expired, 1)
	assert.Equal(t, uint64(41), expired[0].BookingID)
	assert.Equal(t, []string{"A1"}, expired[0].Seats)

	_, err = a.TryHold(ctx, 1, []string{"A1"}, 11, time.Minute)
	assert.NoError(t, err, "expired hold must free the seat")
}

func TestPromoteAfterExpiryReclaimsFreeSeats(t *testing.T) {
	a, clk := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	tok, err := a.TryHold(ctx, 1, []string{"A1", "A2"}, 10, 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.AttachBooking(ctx, 1, tok, 55))

	clk.Advance(20 * time.Minute)

	// Seats still free: promotion re-claims them.
	require.NoError(t, a.Promote(ctx, 1, 55, []string{"A1", "A2"}))
	snap, err := a.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snap.Booked, 2)

	// Promoting again is a no-op.
	require.NoError(t, a.Promote(ctx, 1, 55, []string{"A1", "A2"}))
	snap, err = a.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snap.Booked, 2)
}

func TestPromoteAfterExpiryFailsWhenSeatTaken(t *testing.T) {
	a, clk := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	tok, err := a.TryHold(ctx, 1, []string{"A1"}, 10, 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.AttachBooking(ctx, 1, tok, 60))

	clk.Advance(20 * time.Minute)

	// Another user grabs the seat after the hold lapsed.
	tok2, err := a.TryHold(ctx, 1, []string{"A1"}, 11, 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.AttachBooking(ctx, 1, tok2, 61))

	err = a.Promote(ctx, 1, 60, []string{"A1"})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestReleaseBookedReturnsSeatsToPool(t *testing.T) {
	a, _ := newTestArena(t, &stubLoader{
		layout: rowLayout("A"),
		booked: map[string]uint64{"A1": 90, "A2": 90, "A3": 91},
	})
	ctx := context.Background()

	freed, err := a.ReleaseBooked(ctx, 1, 90)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, freed)

	// Idempotent second release.
	freed, err = a.ReleaseBooked(ctx, 1, 90)
	require.NoError(t, err)
	assert.Empty(t, freed)

	_, err = a.TryHold(ctx, 1, []string{"A1", "A2"}, 12, time.Minute)
	assert.NoError(t, err)
	_, err = a.TryHold(ctx, 1, []string{"A3"}, 12, time.Minute)
	assert.ErrorIs(t, err, ErrSeatUnavailable, "other booking's seat stays booked")
}

func TestLoaderErrorSurfacesAndIsNotCached(t *testing.T) {
	loader := &stubLoader{err: ErrShowtimeNotFound}
	a, _ := newTestArena(t, loader)
	ctx := context.Background()

	_, err := a.TryHold(ctx, 1, []string{"A1"}, 10, time.Minute)
	require.ErrorIs(t, err, ErrShowtimeNotFound)

	// Storage recovered: the ledger hydrates on the next access.
	loader.err = nil
	loader.layout = rowLayout("A")
	_, err = a.TryHold(ctx, 1, []string{"A1"}, 10, time.Minute)
	assert.NoError(t, err)
}
