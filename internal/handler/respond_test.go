package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, writeDomainError(c, err))
	return rec
}

func TestWriteDomainErrorInsufficientInventory(t *testing.T) {
	rec := respond(t, &repository.InsufficientInventoryError{
		EpisodeID: 100,
		SlotType:  model.SlotMidRoll,
		Requested: 3,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient inventory", body["error"])
	assert.Equal(t, float64(100), body["episode_id"])
	assert.Equal(t, "midRoll", body["slot_type"])
	assert.Equal(t, float64(3), body["requested"])
}

func TestWriteDomainErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"already confirmed", repository.ErrAlreadyConfirmed, http.StatusConflict},
		{"already expired", repository.ErrAlreadyExpired, http.StatusConflict},
		{"not held", repository.ErrNotHeld, http.StatusConflict},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden},
		{"reservation not found", repository.ErrReservationNotFound, http.StatusNotFound},
		{"campaign not found", repository.ErrCampaignNotFound, http.StatusNotFound},
		{"episode not found", repository.ErrEpisodeNotFound, http.StatusNotFound},
		{"show not found", repository.ErrShowNotFound, http.StatusNotFound},
		{"invariant violation", &repository.InvariantViolationError{Op: "release", Quantity: 1}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := respond(t, tc.err)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestWriteDomainErrorHidesInvariantDetail(t *testing.T) {
	rec := respond(t, &repository.InvariantViolationError{
		EpisodeID: 100, SlotType: model.SlotPreRoll, Op: "confirm", Quantity: 2,
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "inventory invariant violation", body["error"])
	assert.NotContains(t, rec.Body.String(), "episode")
}
