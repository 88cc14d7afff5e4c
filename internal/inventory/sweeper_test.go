package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCanceller struct {
	calls   [][]ExpiredHold
	overdue int
}

func (r *recordingCanceller) CancelStale(_ context.Context, expired []ExpiredHold) error {
	r.calls = append(r.calls, expired)
	return nil
}

func (r *recordingCanceller) CancelOverdue(_ context.Context) error {
	r.overdue++
	return nil
}

func TestSweepCancelsBookingsOfExpiredHolds(t *testing.T) {
	a, clk := newTestArena(t, &stubLoader{layout: rowLayout("A")})
	ctx := context.Background()

	tok, err := a.TryHold(ctx, 1, []string{"A1", "A2"}, 10, 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, a.AttachBooking(ctx, 1, tok, 7))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	canceller := &recordingCanceller{}
	sweeper := NewSweeper(a, canceller, clk, log, time.Minute)

	// Nothing due yet, but the age-based pass still runs so bookings
	// with no tracked hold are caught too.
	sweeper.Sweep(ctx)
	assert.Empty(t, canceller.calls)
	assert.Equal(t, 1, canceller.overdue)

	clk.Advance(16 * time.Minute)
	sweeper.Sweep(ctx)
	require.Len(t, canceller.calls, 1)
	require.Len(t, canceller.calls[0], 1)
	assert.Equal(t, uint64(7), canceller.calls[0][0].BookingID)

	// The freed seats can be held again straight away.
	_, err = a.TryHold(ctx, 1, []string{"A1"}, 11, time.Minute)
	assert.NoError(t, err)
}
