package booking

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/seatwise/booking/internal/model"
)

// CheckIn validates a confirmed booking's reference at venue entry and
// marks attendance.  A reference can be consumed exactly once; repeated
// presentation fails with ErrAlreadyCheckedIn even under concurrent
// scans thanks to the guarded store update.
func (c *Coordinator) CheckIn(ctx context.Context, bookingRef string, operatorID uint64) (*model.Booking, error) {
	b, err := c.bookings.GetByRef(ctx, bookingRef)
	if err != nil {
		return nil, err
	}
	if b.IsCheckedIn || b.Status == model.StatusCheckedIn {
		return nil, ErrAlreadyCheckedIn
	}
	if b.Status != model.StatusConfirmed {
		return nil, ErrNotConfirmed
	}

	now := c.clk.Now()
	err = c.bookings.MarkCheckedIn(ctx, b.ID, operatorID, now)
	if errors.Is(err, ErrStatusConflict) {
		// Two gates scanned the same ticket at once; only the first wins.
		return nil, ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, err
	}

	b.Status = model.StatusCheckedIn
	b.IsCheckedIn = true
	b.CheckedInAt = &now
	b.CheckedInBy = &operatorID
	c.log.WithFields(logrus.Fields{
		"booking_ref": bookingRef,
		"operator_id": operatorID,
	}).Info("booking checked in")
	return b, nil
}
