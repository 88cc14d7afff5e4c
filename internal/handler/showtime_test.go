package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/booking/internal/clock"
	"github.com/seatwise/booking/internal/inventory"
	"github.com/seatwise/booking/internal/model"
)

type fakeShowtimes struct {
	st *model.Showtime
}

func (f *fakeShowtimes) GetByID(_ context.Context, id uint64) (*model.Showtime, error) {
	if f.st == nil || f.st.ID != id {
		return nil, inventory.ErrShowtimeNotFound
	}
	cp := *f.st
	return &cp, nil
}

type fakeScreens struct {
	layout []model.Seat
}

func (f *fakeScreens) LayoutForShowtime(_ context.Context, _ uint64) ([]model.Seat, error) {
	return f.layout, nil
}

type mapLoader struct {
	layout map[string]string
}

func (l mapLoader) LoadShowtime(_ context.Context, _ uint64) (map[string]string, map[string]uint64, error) {
	layout := make(map[string]string, len(l.layout))
	for k, v := range l.layout {
		layout[k] = v
	}
	return layout, map[string]uint64{}, nil
}

func newShowtimeFixture(t *testing.T) (*ShowtimeHandler, *inventory.Arena) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	showtimes := &fakeShowtimes{st: &model.Showtime{
		ID:         1,
		VenueID:    4,
		ScreenID:   3,
		ScreenName: "IMAX",
		Title:      "Interstellar",
		StartsAt:   now.Add(6 * time.Hour),
		EndsAt:     now.Add(9 * time.Hour),
		IsActive:   true,
	}}
	screens := &fakeScreens{layout: []model.Seat{
		{ScreenID: 3, RowLabel: "A", SeatNumber: 1, SeatType: model.SeatTypeStandard},
		{ScreenID: 3, RowLabel: "A", SeatNumber: 2, SeatType: model.SeatTypeStandard},
	}}
	arena := inventory.NewArena(
		mapLoader{layout: map[string]string{"A1": model.SeatTypeStandard, "A2": model.SeatTypeStandard}},
		clock.NewFixed(now),
	)
	return NewShowtimeHandler(showtimes, screens, arena), arena
}

func seatMapRequest(t *testing.T, h *ShowtimeHandler, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/showtimes/:id/seat-map")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.SeatMap(c))
	return rec
}

func TestSeatMapIncludesScreenMetadata(t *testing.T) {
	h, arena := newShowtimeFixture(t)
	_, err := arena.TryHold(context.Background(), 1, []string{"A1"}, 42, 15*time.Minute)
	require.NoError(t, err)

	rec := seatMapRequest(t, h, "1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ShowtimeID uint64 `json:"showtime_id"`
		ScreenID   uint64 `json:"screen_id"`
		ScreenName string `json:"screen_name"`
		Rows       []struct {
			Row   string `json:"row"`
			Seats []struct {
				Seat   string `json:"seat"`
				Status string `json:"status"`
			} `json:"seats"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, uint64(1), body.ShowtimeID)
	assert.Equal(t, uint64(3), body.ScreenID)
	assert.Equal(t, "IMAX", body.ScreenName)
	require.Len(t, body.Rows, 1)
	require.Len(t, body.Rows[0].Seats, 2)
	// The viewer is a guest, so the hold renders as HELD, not SELECTED.
	assert.Equal(t, "HELD", body.Rows[0].Seats[0].Status)
	assert.Equal(t, "AVAILABLE", body.Rows[0].Seats[1].Status)
}

func TestSeatMapUnknownShowtime(t *testing.T) {
	h, _ := newShowtimeFixture(t)
	rec := seatMapRequest(t, h, "404")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
