package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/middleware"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/service"
)

// ReservationHandler exposes the hold/confirm/cancel lifecycle over
// HTTP.  JWT authentication and role validation have already been
// performed by middleware; methods return 401 when no usable identity
// is present in the context.
type ReservationHandler struct {
	Service *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.  The service
// must be non-nil.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Service: svc}
}

type holdItemRequest struct {
	EpisodeID uint64 `json:"episode_id"`
	SlotType  string `json:"slot_type"`
	Rate      string `json:"rate"`
	Quantity  int    `json:"quantity"`
}

type holdRequest struct {
	CampaignID uint64            `json:"campaign_id"`
	TTLMinutes int               `json:"ttl_minutes"`
	Items      []holdItemRequest `json:"items"`
}

// CreateHold handles POST /v1/reservations/hold.  The body names the
// campaign and the episode/slot lines to claim; on success it returns
// 201 with the held reservation and its expiry.  When any line cannot
// be satisfied the response is 409 naming the failing episode and
// slot type, and no inventory is left reserved.
func (h *ReservationHandler) CreateHold(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.CampaignID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "campaign_id is required"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
	}
	inputs := make([]service.HoldItemInput, 0, len(body.Items))
	for _, it := range body.Items {
		slot, ok := model.ParseSlotType(it.SlotType)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot_type", "slot_type": it.SlotType})
		}
		rate, err := decimal.NewFromString(it.Rate)
		if err != nil || rate.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rate", "rate": it.Rate})
		}
		inputs = append(inputs, service.HoldItemInput{
			EpisodeID: it.EpisodeID,
			SlotType:  slot,
			Rate:      rate,
			Quantity:  it.Quantity,
		})
	}
	ttl := time.Duration(body.TTLMinutes) * time.Minute

	res, items, err := h.Service.CreateHold(c.Request().Context(), actor, body.CampaignID, inputs, ttl)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation": res,
		"items":       items,
		"expires_at":  res.ExpiresAt.Format(time.RFC3339),
	})
}

// Confirm handles POST /v1/reservations/:id/confirm.  It finalizes a
// hold into a campaign update, an order and its items.  Reservations
// that are no longer held, or whose hold has lapsed even if not yet
// swept, are rejected with 409.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	result, err := h.Service.Confirm(c.Request().Context(), id, actor)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// Cancel handles DELETE /v1/reservations/:id.  It releases a held
// reservation's slots and marks it cancelled.  Returns 409 when the
// reservation has already reached a terminal state.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Service.Cancel(c.Request().Context(), id, actor)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, items, err := h.Service.Get(c.Request().Context(), id, actor)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": res, "items": items})
}

// List handles GET /v1/reservations.  Returns the organization's
// reservations, newest first; ?limit caps the page size.
func (h *ReservationHandler) List(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, err := h.Service.List(c.Request().Context(), actor, limit)
	if err != nil {
		return writeDomainError(c, err)
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
