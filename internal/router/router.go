package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/handler"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/middleware"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers to
// verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers every authenticated endpoint.  All routes live
// under /v1 behind JWT validation; reservation lifecycle routes
// additionally require a sales/admin/master role and the expiry
// trigger is restricted to admin/master.  The redis response cache is
// applied to the catalog browse endpoints only; availability must
// always reflect the live ledger, so it is deliberately uncached.
func RegisterAPI(e *echo.Echo, jwtSecret string, rdb *redis.Client,
	catalog *handler.CatalogHandler, availability *handler.AvailabilityHandler,
	reservations *handler.ReservationHandler, admin *handler.AdminHandler) {

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	// Catalog browse, cacheable.
	cached := v1.Group("")
	cached.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	cached.GET("/shows", catalog.ListShows)
	cached.GET("/shows/:id/episodes", catalog.ListEpisodes)

	// Live availability ahead of a hold attempt.
	v1.GET("/availability", availability.GetAvailability)

	// Reservation lifecycle.
	res := v1.Group("/reservations")
	res.Use(middleware.RequireRole(model.RoleMaster, model.RoleAdmin, model.RoleSales))
	res.POST("/hold", reservations.CreateHold)
	res.POST("/:id/confirm", reservations.Confirm)
	res.DELETE("/:id", reservations.Cancel)
	res.GET("", reservations.List)
	res.GET("/:id", reservations.Get)

	// Operator triggers.
	adm := v1.Group("/admin")
	adm.Use(middleware.RequireRole(model.RoleMaster, model.RoleAdmin))
	adm.POST("/reservations/expire", admin.ExpireReservations)
}
