package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/adapters/http/routes"
	"libraryhub/internal/adapters/notify"
	"libraryhub/internal/adapters/persistence/memory"
	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/adapters/queue"
	"libraryhub/internal/config"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/logger"

	_ "libraryhub/docs" // Swagger docs
)

// @title libraryhub API
// @version 1.0
// @description Library backend: catalog, members, reviews and the borrowal lifecycle.

// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	ctx := context.Background()
	log := logger.GetLogger(ctx)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	env := "development"
	if cfg.IsProd() {
		env = "production"
	}
	logger.Init(env, cfg.LogLevel)

	// Storage
	repos, db, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open storage: %v", err)
	}
	defer func() {
		if err := config.CloseDatabase(db); err != nil {
			log.WithError(err).Error("❌ Failed to close database")
		}
	}()

	if err := config.NewSeeder(repos, cfg.Seed).Run(ctx); err != nil {
		log.WithError(err).Warn("⚠️ Warning: Failed to seed data")
	}

	// Notifications
	jobQueue, closeQueue, err := openQueue(ctx, cfg.Queue)
	if err != nil {
		log.Fatalf("❌ Failed to open notification queue: %v", err)
	}
	notifications := services.NewNotificationService(newMailer(cfg.Mail), jobQueue, services.NotificationOptions{
		Workers:      cfg.Queue.Workers,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		RetryBackoff: cfg.Queue.RetryBackoff,
	})
	notifications.Start()

	// Services
	authService := services.NewAuthService(repos.Users, repos.RefreshTokens, cfg.JWT)
	borrowalService := services.NewBorrowalService(repos, notifications, cfg.Library.LoanDays)
	svc := &routes.Services{
		Auth:      authService,
		Users:     services.NewUserService(repos.Users, notifications),
		Catalog:   services.NewCatalogService(repos),
		Borrowals: borrowalService,
		Reviews:   services.NewReviewService(repos),
		Dashboard: services.NewDashboardService(repos),
		Ping:      repos.Ping,
	}

	// Start Cron Service for overdue sweeps and token cleanup
	cronService, err := services.NewCronService(borrowalService, authService, cfg.Library.OverdueCron, cfg.Library.TokenCleanupCron)
	if err != nil {
		log.Fatalf("❌ Failed to schedule jobs: %v", err)
	}
	cronService.Start()

	// Create Fiber app
	app := fiber.New(middleware.AppConfig(cfg))

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, svc, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Infof("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Errorf("❌ Failed to start server: %v", err)
	}

	cronService.Stop()
	notifications.Stop()
	if err := closeQueue(); err != nil {
		log.WithError(err).Error("❌ Failed to close notification queue")
	}
	log.Info("✅ Background workers stopped")
}

// openStorage connects the configured datastore. The memory driver keeps
// everything in process and returns a nil *gorm.DB.
func openStorage(cfg *config.Config) (*repositories.Set, *gorm.DB, error) {
	if cfg.Database.Driver == "memory" {
		logger.GetLogger(context.Background()).Warn("⚠️ Using in-memory storage, data is lost on restart")
		return memory.NewSet(), nil, nil
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		_ = config.CloseDatabase(db)
		return nil, nil, err
	}
	logger.GetLogger(context.Background()).Info("✅ Database migration completed")

	return repositories.NewGormSet(db), db, nil
}

// openQueue returns the job queue and a func that releases its connection
// once the workers have stopped
func openQueue(ctx context.Context, cfg config.QueueConfig) (services.JobQueue, func() error, error) {
	if cfg.RedisAddr == "" {
		q := queue.NewMemoryQueue(cfg.Buffer)
		return q, q.Close, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q, err := queue.NewRedisQueue(pingCtx, &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.Key)
	if err != nil {
		return nil, nil, err
	}
	return q, q.Shutdown, nil
}

func newMailer(cfg config.MailConfig) services.Mailer {
	if cfg.Host == "" {
		logger.GetLogger(context.Background()).Info("📪 SMTP not configured, mails are logged")
		return notify.NewLogMailer()
	}
	return notify.NewSMTPMailer(cfg)
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log := logger.GetLogger(context.Background())
	log.Info("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("❌ Error during shutdown: %v", err)
	}
	log.Info("✅ Server stopped gracefully")
}
