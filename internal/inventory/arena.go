package inventory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seatwise/booking/internal/clock"
	"github.com/seatwise/booking/internal/model"
)

// Loader hydrates a showtime ledger from durable storage on first access.
// The layout maps seat labels to their seat type; booked maps seat labels
// to the booking that owns them (confirmed and checked-in bookings only).
type Loader interface {
	LoadShowtime(ctx context.Context, showtimeID uint64) (layout map[string]string, booked map[string]uint64, err error)
}

// hold is a TTL-bounded claim on a set of seats.  BookingID is zero until
// the coordinator has created the booking row and attached it.
type hold struct {
	token     string
	userID    uint64
	bookingID uint64
	seats     []string
	expiresAt time.Time
}

// ledger is the live seat state of a single showtime.  Every mutation and
// snapshot takes the ledger mutex, which is held only for the duration of
// the check-and-mark step, never across payment or any other I/O.
type ledger struct {
	mu       sync.Mutex
	hydrated bool
	layout   map[string]string // seat label -> seat type
	booked   map[string]uint64 // seat label -> booking id
	holds    map[string]*hold  // token -> hold
	seatHold map[string]string // seat label -> token
}

func newLedger() *ledger {
	return &ledger{
		layout:   make(map[string]string),
		booked:   make(map[string]uint64),
		holds:    make(map[string]*hold),
		seatHold: make(map[string]string),
	}
}

// Arena is the in-memory seat ledger keyed by showtime id.  It is the
// single authority for hold/booked seat-set mutations; the repositories
// persist the durable outcome (bookings) but never decide availability.
type Arena struct {
	mu      sync.Mutex // guards the ledgers map only
	ledgers map[uint64]*ledger
	loader  Loader
	clk     clock.Clock
}

// NewArena constructs an arena backed by the given loader and clock.
func NewArena(loader Loader, clk clock.Clock) *Arena {
	if loader == nil || clk == nil {
		panic("nil dependency passed to NewArena")
	}
	return &Arena{
		ledgers: make(map[uint64]*ledger),
		loader:  loader,
		clk:     clk,
	}
}

// ledger returns the ledger for a showtime, hydrating it from the loader
// on first access.  Hydration errors are not cached so a transient storage
// failure does not poison the showtime.
func (a *Arena) ledger(ctx context.Context, showtimeID uint64) (*ledger, error) {
	a.mu.Lock()
	l, ok := a.ledgers[showtimeID]
	if !ok {
		l = newLedger()
		a.ledgers[showtimeID] = l
	}
	a.mu.Unlock()

	l.mu.Lock()
	if l.hydrated {
		l.mu.Unlock()
		return l, nil
	}
	layout, booked, err := a.loader.LoadShowtime(ctx, showtimeID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.layout = layout
	for seat, bookingID := range booked {
		l.booked[seat] = bookingID
	}
	l.hydrated = true
	l.mu.Unlock()
	return l, nil
}

// purgeExpired drops every hold past its expiry and returns them.  The
// caller must hold the ledger lock.
func (l *ledger) purgeExpired(now time.Time) []*hold {
	var expired []*hold
	for token, h := range l.holds {
		if !h.expiresAt.After(now) {
			for _, seat := range h.seats {
				if l.seatHold[seat] == token {
					delete(l.seatHold, seat)
				}
			}
			delete(l.holds, token)
			expired = append(expired, h)
		}
	}
	return expired
}

// TryHold atomically claims the requested seats for ttl.  It is
// all-or-nothing: when any seat is missing from the layout or typed
// UNAVAILABLE it fails with ErrInvalidSeat, and when any seat is already
// booked or held it fails with ErrSeatUnavailable, in both cases without
// touching any seat.  Retrying the identical seat set for the same user
// while the original hold is live returns the existing token instead of
// conflicting with it.
func (a *Arena) TryHold(ctx context.Context, showtimeID uint64, seats []string, userID uint64, ttl time.Duration) (string, error) {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return "", err
	}
	now := a.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeExpired(now)

	for _, seat := range seats {
		seatType, ok := l.layout[seat]
		if !ok || seatType == model.SeatTypeUnavailable {
			return "", fmt.Errorf("%w: %s", ErrInvalidSeat, seat)
		}
	}
	if token, ok := l.sameHold(seats, userID); ok {
		return token, nil
	}
	for _, seat := range seats {
		if _, booked := l.booked[seat]; booked {
			return "", ErrSeatUnavailable
		}
		if _, held := l.seatHold[seat]; held {
			return "", ErrSeatUnavailable
		}
	}

	token, err := newHoldToken()
	if err != nil {
		return "", err
	}
	h := &hold{
		token:     token,
		userID:    userID,
		seats:     append([]string(nil), seats...),
		expiresAt: now.Add(ttl),
	}
	l.holds[token] = h
	for _, seat := range h.seats {
		l.seatHold[seat] = token
	}
	return token, nil
}

// sameHold reports whether the user already owns a live hold over exactly
// the requested seat set, making a retried hold a no-op.  Caller must hold
// the ledger lock.
func (l *ledger) sameHold(seats []string, userID uint64) (string, bool) {
	for token, h := range l.holds {
		if h.userID != userID || len(h.seats) != len(seats) {
			continue
		}
		match := true
		for i := range seats {
			if l.seatHold[seats[i]] != token {
				match = false
				break
			}
		}
		if match {
			return token, true
		}
	}
	return "", false
}

// AttachBooking binds a hold to the booking row created for it so that
// expiry and payment promotion can find the hold by booking id.
func (a *Arena) AttachBooking(ctx context.Context, showtimeID uint64, token string, bookingID uint64) error {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holds[token]
	if !ok {
		return ErrHoldNotFound
	}
	h.bookingID = bookingID
	return nil
}

// Promote converts a booking's hold into permanently booked seats.  When
// the hold has already expired, the exact seats are re-claimed as long as
// every one of them is still free; if any was taken in the meantime the
// promotion fails with ErrSeatUnavailable and the booking must move to
// PaymentFailed.  Promoting a booking whose seats are already booked under
// its own id is a no-op.
func (a *Arena) Promote(ctx context.Context, showtimeID, bookingID uint64, seats []string) error {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return err
	}
	now := a.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeExpired(now)

	if h := l.holdByBooking(bookingID); h != nil {
		for _, seat := range h.seats {
			l.booked[seat] = bookingID
			delete(l.seatHold, seat)
		}
		delete(l.holds, h.token)
		return nil
	}

	// No live hold: either the seats are already booked by this booking
	// (repeated promote) or the hold expired and the seats must be free.
	alreadyOurs := true
	for _, seat := range seats {
		if l.booked[seat] != bookingID {
			alreadyOurs = false
			break
		}
	}
	if alreadyOurs && len(seats) > 0 {
		return nil
	}
	for _, seat := range seats {
		if owner, booked := l.booked[seat]; booked && owner != bookingID {
			return ErrSeatUnavailable
		}
		if _, held := l.seatHold[seat]; held {
			return ErrSeatUnavailable
		}
	}
	for _, seat := range seats {
		l.booked[seat] = bookingID
	}
	return nil
}

// holdByBooking finds the live hold attached to a booking.  Caller must
// hold the ledger lock.
func (l *ledger) holdByBooking(bookingID uint64) *hold {
	if bookingID == 0 {
		return nil
	}
	for _, h := range l.holds {
		if h.bookingID == bookingID {
			return h
		}
	}
	return nil
}

// ReleaseHold frees the seats claimed by a hold token.  Releasing an
// unknown or already-expired token is a no-op.
func (a *Arena) ReleaseHold(ctx context.Context, showtimeID uint64, token string) error {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.release(token)
	return nil
}

// ReleaseHoldByBooking frees the seats held for a booking.  Unknown
// bookings are a no-op so cancellation stays idempotent under repeated or
// concurrent invocation.
func (a *Arena) ReleaseHoldByBooking(ctx context.Context, showtimeID, bookingID uint64) error {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if h := l.holdByBooking(bookingID); h != nil {
		l.release(h.token)
	}
	return nil
}

// release drops a hold and its seat index entries.  Caller must hold the
// ledger lock.
func (l *ledger) release(token string) {
	h, ok := l.holds[token]
	if !ok {
		return
	}
	for _, seat := range h.seats {
		if l.seatHold[seat] == token {
			delete(l.seatHold, seat)
		}
	}
	delete(l.holds, token)
}

// ReleaseBooked returns a cancelled booking's seats to the available pool
// and reports which seats were freed.  Idempotent.
func (a *Arena) ReleaseBooked(ctx context.Context, showtimeID, bookingID uint64) ([]string, error) {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var freed []string
	for seat, owner := range l.booked {
		if owner == bookingID {
			delete(l.booked, seat)
			freed = append(freed, seat)
		}
	}
	sort.Strings(freed)
	return freed, nil
}

// Snapshot is a point-in-time view of a showtime's live seat state used
// by the seat-map assembler.  HeldBy maps each held seat to the user who
// owns the hold so the viewer's own seats can be marked Selected.
type Snapshot struct {
	Booked map[string]struct{}
	HeldBy map[string]uint64
}

// Snapshot returns the current booked and held seat sets, purging expired
// holds on the way.  The copy is taken inside the critical section so
// readers never observe a torn state, but the caller works on the copy and
// never blocks writers.
func (a *Arena) Snapshot(ctx context.Context, showtimeID uint64) (Snapshot, error) {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return Snapshot{}, err
	}
	now := a.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeExpired(now)

	snap := Snapshot{
		Booked: make(map[string]struct{}, len(l.booked)),
		HeldBy: make(map[string]uint64, len(l.seatHold)),
	}
	for seat := range l.booked {
		snap.Booked[seat] = struct{}{}
	}
	for seat, token := range l.seatHold {
		if h, ok := l.holds[token]; ok {
			snap.HeldBy[seat] = h.userID
		}
	}
	return snap, nil
}

// ExpiredHold reports a hold dropped by the TTL sweep so the owning
// pending booking can be cancelled.
type ExpiredHold struct {
	ShowtimeID uint64
	BookingID  uint64
	Seats      []string
}

// ExpireDue walks every hydrated ledger and drops holds past their
// expiry, returning them for booking cleanup.  Seats are freed
// immediately; cancelling the associated bookings is the sweeper's job.
func (a *Arena) ExpireDue(now time.Time) []ExpiredHold {
	a.mu.Lock()
	ids := make([]uint64, 0, len(a.ledgers))
	ledgers := make([]*ledger, 0, len(a.ledgers))
	for id, l := range a.ledgers {
		ids = append(ids, id)
		ledgers = append(ledgers, l)
	}
	a.mu.Unlock()

	var out []ExpiredHold
	for i, l := range ledgers {
		l.mu.Lock()
		for _, h := range l.purgeExpired(now) {
			out = append(out, ExpiredHold{
				ShowtimeID: ids[i],
				BookingID:  h.bookingID,
				Seats:      h.seats,
			})
		}
		l.mu.Unlock()
	}
	return out
}

// SeatType returns the layout type of a seat, hydrating the ledger when
// needed.  The second result is false for labels outside the layout.
func (a *Arena) SeatType(ctx context.Context, showtimeID uint64, seat string) (string, bool, error) {
	l, err := a.ledger(ctx, showtimeID)
	if err != nil {
		return "", false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.layout[seat]
	return t, ok, nil
}

// newHoldToken generates the opaque hold token returned to the
// coordinator.  crypto/rand keeps tokens unguessable.
func newHoldToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
