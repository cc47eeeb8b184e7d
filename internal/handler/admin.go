package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/service"
)

// AdminHandler exposes operator-only triggers.  Routes using it are
// registered behind the master/admin role gate.
type AdminHandler struct {
	Expirer *service.Expirer
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(expirer *service.Expirer) *AdminHandler {
	if expirer == nil {
		panic("nil expirer passed to NewAdminHandler")
	}
	return &AdminHandler{Expirer: expirer}
}

// ExpireReservations handles POST /v1/admin/reservations/expire: an
// on-demand run of the same sweep the background ticker performs.
// Safe to invoke while the ticker is running.
func (h *AdminHandler) ExpireReservations(c echo.Context) error {
	expired, err := h.Expirer.ExpireDue(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "expiry sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": expired})
}
