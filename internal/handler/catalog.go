package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/middleware"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
)

// CatalogHandler serves the show/episode browse endpoints the schedule
// builder reads before querying availability.  These are plain catalog
// reads and sit behind the redis response cache.
type CatalogHandler struct {
	ShowRepo    *repository.ShowRepo
	EpisodeRepo *repository.EpisodeRepo
}

// NewCatalogHandler constructs a CatalogHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewCatalogHandler(showRepo *repository.ShowRepo, episodeRepo *repository.EpisodeRepo) *CatalogHandler {
	if showRepo == nil || episodeRepo == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{ShowRepo: showRepo, EpisodeRepo: episodeRepo}
}

// ListShows handles GET /v1/shows: the organization's active shows
// with their default slot counts.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	shows, err := h.ShowRepo.ListByOrg(c.Request().Context(), actor.OrgID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if shows == nil {
		shows = []model.Show{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}

// ListEpisodes handles GET /v1/shows/:id/episodes with optional
// from/to date filters (defaults to the next 90 days).
func (h *CatalogHandler) ListEpisodes(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	show, err := h.ShowRepo.GetByID(c.Request().Context(), showID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if !actor.CanAccessOrg(show.OrgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.Add(90 * 24 * time.Hour)
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

	episodes, err := h.EpisodeRepo.ListForShows(c.Request().Context(), []uint64{showID}, from, to)
	if err != nil {
		return writeDomainError(c, err)
	}
	if episodes == nil {
		episodes = []model.Episode{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": episodes})
}
