package main // Entry point package

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/config"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/database"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/handler"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/logger"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/middleware"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/queue"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/repository"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/router"
	"github.com/ebfarnell/podcastflow-pro-sub021/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env vars win

	cfg := config.Load() // Load environment config
	lg := logger.New(logger.Options{
		ServiceName: "adserver",
		Level:       logger.ParseLevel(os.Getenv("LOG_LEVEL")),
	})

	discountPct, err := decimal.NewFromString(cfg.DiscountPct)
	if err != nil {
		log.Fatalf("invalid ORDER_DISCOUNT_PCT %q: %v", cfg.DiscountPct, err)
	}
	commissionPct, err := decimal.NewFromString(cfg.CommissionPct)
	if err != nil {
		log.Fatalf("invalid ORDER_COMMISSION_PCT %q: %v", cfg.CommissionPct, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Repositories over the shared connection pool.
	inventoryRepo := repository.NewInventoryRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	showRepo := repository.NewShowRepo(db)
	episodeRepo := repository.NewEpisodeRepo(db)
	campaignRepo := repository.NewCampaignRepo(db)
	orderRepo := repository.NewOrderRepo(db)

	// Redis is optional: when unreachable the client is nil and both the
	// rate limiter and the response cache degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Warn().Msg("redis unavailable; rate limiting and response cache disabled")
	}

	publisher := queue.NewPublisher()

	converter := service.NewBookingConverter(inventoryRepo, orderRepo, campaignRepo,
		discountPct, commissionPct, lg)
	reservationSvc := service.NewReservationService(inventoryRepo, reservationRepo,
		campaignRepo, episodeRepo, converter, publisher,
		time.Duration(cfg.HoldTTLMin)*time.Minute, lg)
	availabilitySvc := service.NewAvailabilityService(inventoryRepo, episodeRepo, showRepo)
	expirer := service.NewExpirer(inventoryRepo, reservationRepo, publisher,
		time.Duration(cfg.ExpireSweepSec)*time.Second, cfg.ExpireBatchSize, lg)

	// Background workers: the expiry sweep ticker and the activity log
	// consumer.  Both run for the lifetime of the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go expirer.Run(ctx)
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			lg.Error().Err(err).Msg("activity consumer stopped")
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAPI(e, cfg.JWTSecret, rdb,
		handler.NewCatalogHandler(showRepo, episodeRepo),
		handler.NewAvailabilityHandler(availabilitySvc),
		handler.NewReservationHandler(reservationSvc),
		handler.NewAdminHandler(expirer),
	)

	addr := ":" + cfg.Port
	lg.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
