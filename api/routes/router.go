// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/hackload-kz/rorobotics/internal/admin"
	"github.com/hackload-kz/rorobotics/internal/analytics"
	"github.com/hackload-kz/rorobotics/internal/bookings"
	"github.com/hackload-kz/rorobotics/internal/events"
	"github.com/hackload-kz/rorobotics/internal/notifications"
	"github.com/hackload-kz/rorobotics/internal/payments"
	"github.com/hackload-kz/rorobotics/internal/seats"
	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/internal/shared/database"
	"github.com/hackload-kz/rorobotics/internal/shared/middleware"
	"github.com/hackload-kz/rorobotics/internal/users"
	"github.com/hackload-kz/rorobotics/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier *notifications.Producer

	// Shared plumbing built once and reused across route groups. The
	// reaper in main reuses the same payment core, so these are kept
	// on the struct instead of being rebuilt there.
	cacheService cache.Service
	seatLocker   seats.SeatLocker
	gateway      payments.Gateway
	paymentsRepo payments.Repository
	lifecycle    *payments.Lifecycle
	eventService events.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, notifier *notifications.Producer) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.cacheService = cache.NewService(r.db.GetRedisClient())
	r.seatLocker = seats.NewRedisSeatLocker(r.db.GetRedisClient())

	breaker := payments.NewCircuitBreaker(r.config.Payment.FailureThreshold, r.config.Payment.OpenTimeout)
	r.gateway = payments.NewClient(r.config, breaker)
	r.paymentsRepo = payments.NewRepository(r.db.GetPostgreSQL())
	r.lifecycle = payments.NewLifecycle(
		r.db.GetPostgreSQL(),
		r.paymentsRepo,
		r.gateway,
		r.seatLocker,
		r.cacheService,
		r.notifier,
	)

	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	auth := r.buildAuth()

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupEventRoutes(api)
		r.setupSeatRoutes(api, auth)
		r.setupBookingRoutes(api, auth)
		r.setupPaymentRoutes(api)
		r.setupAnalyticsRoutes(api)
		r.setupAdminRoutes(api)
	}
}

// Lifecycle exposes the payment lifecycle for the background reaper.
func (r *Router) Lifecycle() *payments.Lifecycle {
	return r.lifecycle
}

// Gateway exposes the payment gateway client for the background reaper.
func (r *Router) Gateway() payments.Gateway {
	return r.gateway
}

// PaymentsRepo exposes the payment repository for the background reaper.
func (r *Router) PaymentsRepo() payments.Repository {
	return r.paymentsRepo
}

// CacheService exposes the cache facade for the background reaper.
func (r *Router) CacheService() cache.Service {
	return r.cacheService
}

// WarmEventCache primes the events listing cache. Called once at startup.
func (r *Router) WarmEventCache(ctx context.Context) {
	if r.eventService != nil {
		r.eventService.WarmCache(ctx)
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
				"service":   "rorobotics-ticketing",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "rorobotics-ticketing",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// buildAuth wires HTTP Basic authentication backed by the users table
// with a redis credential cache in front.
func (r *Router) buildAuth() gin.HandlerFunc {
	usersRepo := users.NewRepository(r.db.GetPostgreSQL())
	basicAuth := middleware.NewBasicAuth(
		usersRepo,
		r.cacheService,
		r.db.GetRedisClient(),
		r.config.Redis.AuthCacheTTL,
	)
	return basicAuth.Handler()
}

// setupEventRoutes configures event browsing and search routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	eventRepo := events.NewRepository(r.db.GetPostgreSQL())
	r.eventService = events.NewService(eventRepo, r.config, r.cacheService)
	eventController := events.NewController(r.eventService)

	events.SetupEventRoutes(rg, eventController)
}

// setupSeatRoutes configures seat listing and selection routes
func (r *Router) setupSeatRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	seatRepo := seats.NewRepository(r.db.GetPostgreSQL())
	seatService := seats.NewService(seatRepo, r.seatLocker, r.config, r.cacheService)
	seatController := seats.NewController(seatService)

	seats.SetupSeatRoutes(rg, seatController, auth)
}

// setupBookingRoutes configures booking lifecycle routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(
		r.db.GetPostgreSQL(),
		bookingRepo,
		r.paymentsRepo,
		r.gateway,
		r.seatLocker,
		r.cacheService,
		r.config,
	)
	bookingController := bookings.NewController(bookingService)

	bookings.SetupBookingRoutes(rg, bookingController, auth)
}

// setupPaymentRoutes configures the gateway webhook and landing routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	paymentController := payments.NewController(r.lifecycle, r.gateway, r.config)

	payments.SetupPaymentRoutes(rg, paymentController)
}

// setupAnalyticsRoutes configures event analytics routes
func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	analyticsRepo := analytics.NewRepository(r.db.GetPostgreSQL())
	analyticsService := analytics.NewService(analyticsRepo)
	analyticsController := analytics.NewController(analyticsService)

	analytics.SetupAnalyticsRoutes(rg, analyticsController)
}

// setupAdminRoutes configures the test data reset route
func (r *Router) setupAdminRoutes(rg *gin.RouterGroup) {
	adminService := admin.NewService(r.db.GetPostgreSQL(), r.cacheService)
	adminController := admin.NewController(adminService)

	admin.SetupAdminRoutes(rg, adminController)
}
