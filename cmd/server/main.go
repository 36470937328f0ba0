package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shg-finance/internal/adapters/cache"
	"shg-finance/internal/adapters/http/middleware"
	"shg-finance/internal/adapters/http/routes"
	"shg-finance/internal/adapters/messaging"
	"shg-finance/internal/adapters/persistence/memory"
	"shg-finance/internal/adapters/persistence/models"
	"shg-finance/internal/adapters/persistence/repositories"
	"shg-finance/internal/config"
	"shg-finance/internal/core/services"
	"shg-finance/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "shg-finance/docs" // Swagger docs
)

// @title SHG Finance API
// @version 1.0
// @description Savings, loans and governance for Self-Help Groups

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.AppMode); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	repos, err := openRepositories(cfg)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer config.CloseDatabase()

	if err := config.NewSeeder(repos, cfg.SeedDemoData).Run(context.Background()); err != nil {
		logger.Fatal("failed to seed reference data", zap.Error(err))
	}

	rdb, err := cache.Connect(cfg.Redis)
	if err != nil {
		// the denylist is optional; logout then only revokes refresh tokens
		logger.Warn("redis unavailable, access token denylist disabled", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	producer := messaging.NewLoanEventProducer(cfg.Kafka)
	defer producer.Close()

	svc := services.New(repos, cfg, denylistFor(rdb), publisherFor(producer))

	svc.Cron.Start()
	defer svc.Cron.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SHG Finance API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, svc, cfg, rdb)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

// openRepositories connects the configured store. DB_DRIVER=memory keeps
// everything in process and skips migrations.
func openRepositories(cfg *config.Config) (*repositories.Repositories, error) {
	if cfg.Database.Driver == "memory" {
		logger.Info("using in-memory store")
		return memory.NewRepositories(), nil
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}
	logger.Info("database migration completed")

	return repositories.NewGormRepositories(db), nil
}

// denylistFor and publisherFor keep a disabled adapter out of the services as
// a nil interface rather than a typed nil pointer
func denylistFor(rdb *redis.Client) services.TokenDenylist {
	if rdb == nil {
		return nil
	}
	return cache.NewTokenDenylist(rdb)
}

func publisherFor(p *messaging.LoanEventProducer) services.LoanEventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}
