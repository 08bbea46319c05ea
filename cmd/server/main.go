package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mudasirkk/Tabbd-sub000/internal/config"
	"github.com/mudasirkk/Tabbd-sub000/internal/database"
	"github.com/mudasirkk/Tabbd-sub000/internal/logging"
	"github.com/mudasirkk/Tabbd-sub000/internal/routes"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	// 3. Redis is optional; the live board degrades to empty without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("invalid REDIS_URL, live board disabled", zap.Error(err))
		} else {
			redisClient = redis.NewClient(opts)
			if err := redisClient.Ping(context.Background()).Err(); err != nil {
				logger.Warn("redis unreachable, live board disabled", zap.Error(err))
				redisClient = nil
			}
		}
	}

	// 4. Setup Fiber
	app := fiber.New()

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, database.DB, redisClient, logger)

	// 5. Start Server
	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
