package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/middleware"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/service"
)

// AvailabilityHandler serves the scheduling query: live per-episode
// slot availability ahead of a hold attempt.  Deliberately not placed
// behind the response cache; callers decide what to hold based on it.
type AvailabilityHandler struct {
	Service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	if svc == nil {
		panic("nil service passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Service: svc}
}

// GetAvailability handles GET /v1/availability?show_ids=1,2&from=...&to=...
// Dates are YYYY-MM-DD, inclusive; the range defaults to the next 30
// days when omitted.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	raw := c.QueryParam("show_ids")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_ids is required"})
	}
	var showIDs []uint64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id", "show_id": part})
		}
		showIDs = append(showIDs, id)
	}
	if len(showIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_ids is required"})
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.Add(30 * 24 * time.Hour)
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
		}
		to = t
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not precede from"})
	}

	result, err := h.Service.GetAvailability(c.Request().Context(), actor, showIDs, from, to)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": result})
}
