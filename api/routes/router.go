package routes

import (
	"net/http"
	"time"

	"cineplex/internal/analytics"
	"cineplex/internal/auth"
	"cineplex/internal/bookings"
	"cineplex/internal/movies"
	"cineplex/internal/notifications"
	"cineplex/internal/payments"
	"cineplex/internal/promotions"
	"cineplex/internal/reservations"
	"cineplex/internal/seats"
	"cineplex/internal/shared/config"
	"cineplex/internal/shared/database"
	"cineplex/internal/shared/middleware"
	"cineplex/internal/showtimes"
	"cineplex/internal/theaters"
	"cineplex/internal/users"
	"cineplex/pkg/cache"
	"cineplex/pkg/lock"
	"cineplex/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	locker    lock.Locker
	publisher notifications.Publisher
	log       *logger.Logger

	bookingService bookings.Service
}

func NewRouter(cfg *config.Config, db *database.DB, locker lock.Locker, publisher notifications.Publisher, log *logger.Logger) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		locker:    locker,
		publisher: publisher,
		log:       log,
	}
}

// BookingService is available once SetupRoutes has run. The sweeper shares it.
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	pg := r.db.PostgreSQL
	cacheService := cache.NewService(r.db.Redis, r.log.Logger)
	loc := r.config.Booking.Location()

	requireAuth := middleware.JWTAuth(r.config.JWT.Secret)
	adminOnly := []gin.HandlerFunc{requireAuth, middleware.RequireAdmin()}

	userRepo := users.NewRepository(pg)
	movieRepo := movies.NewRepository(pg)
	theaterRepo := theaters.NewRepository(pg)
	showtimeRepo := showtimes.NewRepository(pg)
	bookingRepo := bookings.NewRepository(pg, r.config.Database.LockTimeout)

	movieService := movies.NewService(movieRepo, cacheService, r.log.Logger)
	seatStore := seats.NewStore(seats.NewRepository(pg), theaterRepo, showtimeRepo, cacheService)

	notifier := notifications.NewNotifier(r.publisher, auth.NewUserDirectory(userRepo), movieService, loc, r.log)
	guard := bookings.NewGuard(bookingRepo, r.locker)
	r.bookingService = bookings.NewService(bookingRepo, guard, r.config.Booking, r.log, notifier)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		auth.SetupAuthRoutes(api, auth.NewController(auth.NewService(userRepo, r.config.JWT)), requireAuth)

		movies.SetupMovieRoutes(api, movies.NewController(movieService), adminOnly...)
		theaters.SetupTheaterRoutes(api, theaters.NewController(theaters.NewService(theaterRepo)), adminOnly...)
		showtimes.SetupShowtimeRoutes(api,
			showtimes.NewController(showtimes.NewService(showtimeRepo, movieRepo, theaterRepo, loc)), adminOnly...)
		seats.SetupSeatRoutes(api, seats.NewController(seatStore))
		promotions.SetupPromotionRoutes(api,
			promotions.NewController(promotions.NewService(promotions.NewRepository(pg))), adminOnly...)

		coordinator := reservations.NewCoordinator(guard, showtimeRepo, seatStore, r.config.Booking, r.log)
		reservations.SetupReservationRoutes(api, reservations.NewController(coordinator), requireAuth)
		bookings.SetupBookingRoutes(api, bookings.NewController(r.bookingService), requireAuth, adminOnly...)

		client := payments.NewClient(r.config.Payment.HTTPTimeout, r.config.Payment.RequestsPerSec, r.config.Payment.Burst)
		gateway := payments.NewGateway(r.bookingService, payments.NewRepository(pg), r.config.Payment, r.log,
			payments.NewMoMo(r.config.Payment.MoMo, client),
			payments.NewZaloPay(r.config.Payment.ZaloPay, client),
		)
		payments.SetupPaymentRoutes(api, payments.NewController(gateway), requireAuth)

		analytics.SetupAnalyticsRoutes(api,
			analytics.NewController(analytics.NewService(analytics.NewRepository(pg), cacheService)), adminOnly...)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "cineplex-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "cineplex-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "operational",
			"api_version":  r.config.APIVersion,
			"lock_backend": r.config.Lock.Backend,
			"kafka":        r.config.Kafka.Enabled,
			"timestamp":    time.Now(),
		})
	})
}
