package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/middleware"
	"github.com/seatwise/booking/internal/model"
	"github.com/seatwise/booking/internal/seatmap"
)

// ShowtimeReader reads showtime display metadata.
type ShowtimeReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
}

// LayoutReader reads the ordered screen layout serving a showtime.
type LayoutReader interface {
	LayoutForShowtime(ctx context.Context, showtimeID uint64) ([]model.Seat, error)
}

// ShowtimeHandler serves the public read side: showtime details with
// live availability counts, and the per-viewer seat map.
type ShowtimeHandler struct {
	Showtimes ShowtimeReader
	Screens   LayoutReader
	Arena     *inventory.Arena
}

// NewShowtimeHandler constructs a ShowtimeHandler.  All dependencies
// must be non-nil.
func NewShowtimeHandler(showtimes ShowtimeReader, screens LayoutReader, arena *inventory.Arena) *ShowtimeHandler {
	if showtimes == nil || screens == nil || arena == nil {
		panic("nil dependency passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{Showtimes: showtimes, Screens: screens, Arena: arena}
}

// Get handles GET /v1/showtimes/:id.  It returns the showtime's display
// metadata together with a live seat availability summary taken from
// the in-memory ledger.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	ctx := c.Request().Context()

	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	layout, err := h.Screens.LayoutForShowtime(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := h.Arena.Snapshot(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	sellable := 0
	for i := range layout {
		if layout[i].SeatType != model.SeatTypeUnavailable {
			sellable++
		}
	}
	held := len(snap.HeldBy)
	booked := len(snap.Booked)

	return c.JSON(http.StatusOK, echo.Map{
		"id":          st.ID,
		"title":       st.Title,
		"screen_name": st.ScreenName,
		"venue_id":    st.VenueID,
		"starts_at":   st.StartsAt.UTC().Format(time.RFC3339),
		"ends_at":     st.EndsAt.UTC().Format(time.RFC3339),
		"is_active":   st.IsActive,
		"availability": echo.Map{
			"total":     sellable,
			"booked":    booked,
			"held":      held,
			"available": sellable - booked - held,
		},
	})
}

// SeatMap handles GET /v1/showtimes/:id/seat-map.  The response is the
// row-grouped seat map; seats held by the requesting viewer are marked
// SELECTED, which is why this route runs behind optional authentication
// and must never be response-cached.
func (h *ShowtimeHandler) SeatMap(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	ctx := c.Request().Context()

	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	layout, err := h.Screens.LayoutForShowtime(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	snap, err := h.Arena.Snapshot(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	rows := seatmap.Build(layout, snap, middleware.UserID(c))
	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id": st.ID,
		"screen_id":   st.ScreenID,
		"screen_name": st.ScreenName,
		"rows":        rows,
	})
}
