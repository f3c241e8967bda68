package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cineplex/api/routes"
	_ "cineplex/docs"
	"cineplex/internal/bookings"
	"cineplex/internal/notifications"
	"cineplex/internal/shared/config"
	"cineplex/internal/shared/database"
	"cineplex/internal/shared/middleware"
	"cineplex/internal/shared/validation"
	"cineplex/pkg/lock"
	"cineplex/pkg/logger"
	"cineplex/pkg/ratelimit"
	"cineplex/pkg/telemetry"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	appLogger := logger.NewWithWriter(os.Stdout, cfg.LogLevel, !cfg.IsDevelopment())
	logger.SetDefault(appLogger)

	if envErr != nil {
		appLogger.Info("No .env file found, using system environment variables")
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}
	appLogger.Info("starting cineplex api", "version", Version, "build_time", BuildTime, "commit", GitCommit)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := telemetry.Init(rootCtx, telemetry.Config{
		Enabled:       cfg.Telemetry.Enabled,
		ServiceName:   cfg.Telemetry.ServiceName,
		CollectorAddr: cfg.Telemetry.CollectorAddr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	if err := validation.RegisterWithGin(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	locker := newLocker(cfg, db)

	publisher, consumer, err := setupNotifications(rootCtx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer publisher.Close()
	if consumer != nil {
		defer func() {
			if err := consumer.Stop(); err != nil {
				appLogger.Error("error stopping notification consumer", slog.Any("error", err))
			}
		}()
	}

	engine := gin.New()
	appRouter := routes.NewRouter(cfg, db, locker, publisher, appLogger)
	setupMiddleware(engine, cfg, db, appLogger)
	appRouter.SetupRoutes(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sweeper := bookings.NewJobProcessor(appRouter.BookingService(), cfg.Booking.SweepInterval, appLogger)
	sweeper.Start(rootCtx)
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port)),
			slog.String("lock_backend", cfg.Lock.Backend),
			slog.Bool("kafka", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-rootCtx.Done():
	}
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
	return nil
}

func newLocker(cfg *config.Config, db *database.DB) lock.Locker {
	opts := lock.Options{
		TTL:         cfg.Lock.TTL,
		WaitTimeout: cfg.Lock.WaitTimeout,
		RetryDelay:  cfg.Lock.RetryDelay,
	}
	if cfg.Lock.Backend == "local" {
		return lock.NewLocalLocker(opts)
	}
	return lock.NewRedisLocker(db.Redis, opts)
}

// setupNotifications picks the mail transport and the delivery path. With
// Kafka enabled booking events go through the topic; otherwise they are
// delivered in-process.
func setupNotifications(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (notifications.Publisher, *notifications.Consumer, error) {
	var emailService notifications.EmailService = notifications.NewLogEmailService(appLogger)
	if cfg.Email.SMTPHost != "" {
		smtpService, err := notifications.NewSMTPEmailService(cfg.Email)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid SMTP configuration: %w", err)
		}
		emailService = smtpService
	}

	deliverer := notifications.NewDeliverer(emailService, 3, time.Second, appLogger)
	if !cfg.Kafka.Enabled {
		return notifications.NewDirectPublisher(deliverer, appLogger), nil, nil
	}

	publisher, err := notifications.NewKafkaPublisher(cfg.Kafka, appLogger)
	if err != nil {
		return nil, nil, err
	}
	consumer, err := notifications.NewConsumer(cfg.Kafka, deliverer, appLogger)
	if err != nil {
		publisher.Close()
		return nil, nil, err
	}
	consumer.Start(ctx)
	return publisher, consumer, nil
}

func setupMiddleware(engine *gin.Engine, cfg *config.Config, db *database.DB, appLogger *logger.Logger) {
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		telemetry.TracingMiddleware(),
		middleware.RequestLogger(appLogger),
	)

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit.Enabled {
		rateLimiter := ratelimit.NewRateLimiter(db.Redis, &ratelimit.Config{
			Enabled:         cfg.RateLimit.Enabled,
			WindowDuration:  cfg.RateLimit.WindowDuration,
			DefaultRequests: cfg.RateLimit.DefaultRequests,
			PublicRequests:  cfg.RateLimit.PublicRequests,
			AuthRequests:    cfg.RateLimit.AuthRequests,
			BookingRequests: cfg.RateLimit.BookingRequests,
			AdminRequests:   cfg.RateLimit.AdminRequests,
			WhitelistedIPs:  cfg.RateLimit.WhitelistedIPs,
		})
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("booking_requests", cfg.RateLimit.BookingRequests),
		)
	}
}
