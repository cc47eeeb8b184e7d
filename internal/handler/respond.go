package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

// writeDomainError maps engine errors onto HTTP responses.  Business
// and state-machine errors carry enough detail for the caller to act;
// invariant violations and unknown failures surface as opaque 500s.
func writeDomainError(c echo.Context, err error) error {
	var insufficient *repository.InsufficientInventoryError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":      "insufficient inventory",
			"episode_id": insufficient.EpisodeID,
			"slot_type":  string(insufficient.SlotType),
			"requested":  insufficient.Requested,
		})
	}
	switch {
	case errors.Is(err, repository.ErrAlreadyConfirmed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already confirmed"})
	case errors.Is(err, repository.ErrAlreadyExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already expired"})
	case errors.Is(err, repository.ErrNotHeld):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not held"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrCampaignNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "campaign not found"})
	case errors.Is(err, repository.ErrEpisodeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "episode not found"})
	case errors.Is(err, repository.ErrShowNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
	}
	var invariant *repository.InvariantViolationError
	if errors.As(err, &invariant) {
		// Counters would go negative: abort loudly, never guess.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "inventory invariant violation"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
