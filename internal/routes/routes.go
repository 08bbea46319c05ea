package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mudasirkk/Tabbd-sub000/internal/cache"
	"github.com/mudasirkk/Tabbd-sub000/internal/config"
	"github.com/mudasirkk/Tabbd-sub000/internal/handlers"
	"github.com/mudasirkk/Tabbd-sub000/internal/middleware"
	"github.com/mudasirkk/Tabbd-sub000/internal/repository"
	"github.com/mudasirkk/Tabbd-sub000/internal/services"
)

const liveBoardTTL = 24 * time.Hour

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, redisClient *redis.Client, logger *zap.Logger) {
	stationRepo := repository.NewStationRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	sessionItemRepo := repository.NewSessionItemRepository(db)
	menuItemRepo := repository.NewMenuItemRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	var board *cache.LiveBoard
	if redisClient != nil {
		board = cache.NewLiveBoard(redisClient, liveBoardTTL)
	}

	sessionService := services.NewSessionService(db, stationRepo, sessionRepo, segmentRepo, sessionItemRepo, board, logger)
	tabService := services.NewTabService(db, menuItemRepo)
	loyaltyService := services.NewLoyaltyService(customerRepo, cfg.LoyaltyThresholdSeconds)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	tabHandler := handlers.NewTabHandler(tabService)
	loyaltyHandler := handlers.NewLoyaltyHandler(loyaltyService)
	stationHandler := handlers.NewStationHandler(stationRepo, board)

	api := app.Group("/api/v1", middleware.AuthRequired(cfg.JWTSecret))

	stations := api.Group("/stations")
	stations.Get("", stationHandler.List)
	stations.Get("/live", stationHandler.LiveBoard)

	sessions := api.Group("/sessions")
	sessions.Post("/start", sessionHandler.Start)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Post("/:id/pause", sessionHandler.Pause)
	sessions.Post("/:id/resume", sessionHandler.Resume)
	sessions.Post("/:id/transfer", sessionHandler.Transfer)
	sessions.Post("/:id/close", sessionHandler.Close)
	sessions.Post("/:id/items", tabHandler.AddItem)
	sessions.Delete("/:id/items/:menuItemId", tabHandler.RemoveItem)

	api.Get("/menu-items", tabHandler.ListMenu)

	loyalty := api.Group("/loyalty")
	loyalty.Post("/check", loyaltyHandler.Check)
	loyalty.Post("/apply", loyaltyHandler.Apply)
	loyalty.Post("/add-seconds", loyaltyHandler.AddSeconds)
}
