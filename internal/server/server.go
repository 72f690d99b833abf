// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	"resourcehub/internal/config"
	"resourcehub/internal/dashboard"
	"resourcehub/internal/engine"
	"resourcehub/internal/featureflags"
	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/notifications"
	"resourcehub/internal/recommend"
	"resourcehub/internal/repository"
	"resourcehub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	engine       *engine.Engine
	sessions     *dashboard.Registry
	catalog      *service.CatalogService
	lookup       *recommend.Lookup
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
}

// NewServer wires the HTTP layer over a started engine. redisClient may be
// nil; notifications then go straight to local websocket clients and the
// suggestion cache is skipped.
func NewServer(cfg *config.Config, e *engine.Engine, redisClient *redis.Client) *Server {
	s := &Server{
		config:         cfg,
		redis:          redisClient,
		engine:         e,
		promMiddleware: middleware.InitMetrics("resourcehub-api"),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.sessions = dashboard.NewRegistry(e, s.notifier, s.hub, cfg.SessionIdle())
	s.catalog = service.NewCatalogService(
		repository.NewResourceRepository(e.Store()),
		repository.NewActivityLogRepository(e.Store()),
		e.Resource,
	)
	if cfg.SearchAPIKey != "" {
		client := recommend.NewHTTPSearchClient(cfg.SearchAPIURL, cfg.SearchAPIKey, cfg.SearchEngineID)
		s.lookup = recommend.NewLookup(client, redisClient, cfg.SearchCacheTTL())
	}
	return s
}

func (s *Server) shutdownContext() context.Context {
	if s.shutdownCtx != nil {
		return s.shutdownCtx
	}
	return context.Background()
}

// Sessions exposes the dashboard registry for background jobs.
func (s *Server) Sessions() *dashboard.Registry { return s.sessions }

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// The websocket route authenticates from the query string before the upgrade.
	api.Get("/ws", middleware.WebSocketAuthRequired, s.WebSocketUpgrade, s.WebSocketHandler())

	protected := api.Group("", middleware.AuthRequired)

	me := protected.Group("/me")
	me.Get("/views/:view", s.GetMyView)
	me.Get("/recommendations", s.GetRecommendations)
	me.Get("/features", s.GetFeatures)

	protected.Post("/requests", middleware.RateLimit(s.redis, 30, time.Minute, "create_request"), s.CreateRequest)
	protected.Delete("/requests/:id", s.CancelRequest)
	protected.Post("/resources/:id/download", s.DownloadResource)

	notif := protected.Group("/notifications")
	notif.Get("/", s.GetNotifications)
	notif.Post("/panel", s.TogglePanel)
	notif.Delete("/:id", s.DismissNotification)

	admin := protected.Group("/admin", middleware.AdminRequired(s.engine.IsAdmin))
	admin.Get("/views/:view", s.GetAdminView)
	admin.Get("/analytics", s.GetAnalytics)
	admin.Post("/resources", s.CreateResource)
	admin.Put("/resources/:id", s.UpdateResource)
	admin.Patch("/resources/:id/status", s.SetResourceStatus)
	admin.Delete("/resources/:id", s.DeleteResource)
	admin.Post("/requests/:id/approve", s.ApproveRequest)
	admin.Post("/requests/:id/reject", s.RejectRequest)
	admin.Get("/suggestions", middleware.RateLimit(s.redis, 20, time.Minute, "suggestions"), s.GetSuggestions)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessCheck reports whether every collection has loaded and Redis answers.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	storeStatus := "healthy"
	banners := s.engine.Banners()
	switch {
	case s.engine.Loading():
		storeStatus = "loading"
	case len(banners) > 0:
		storeStatus = "degraded"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional; without it pushes stay on this node.
		redisStatus = "disabled"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus == "loading" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"banners":     banners,
		"connections": len(s.hub.OnlineUsers()),
		"time":        time.Now(),
	})
}

// App builds the fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Resource Hub API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the wiring goroutine
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if payload, err := (notifications.Event{Type: notifications.EventShutdown}).Encode(); err == nil {
		s.hub.BroadcastAll(payload)
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub",
			slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
	}

	s.engine.Close()

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
