package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/kanban/docs"
	httpadapter "github.com/taskmaster/kanban/internal/adapters/http"
	"github.com/taskmaster/kanban/internal/adapters/ratelimit"
	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
	app    *App
	stop   context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, app *App, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()
	e.Validator = httpadapter.NewValidator()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.App.Debug && cfg.App.IsDevelopment()
	e.HTTPErrorHandler = httpadapter.ErrorHandler(appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger.WithComponent("http"),
		db:     db,
		app:    app,
	}

	server.setupMiddleware()
	if cfg.Metrics.Enabled && app.Metrics != nil {
		server.setupMetrics()
	}
	server.setupRoutes()

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.allowedOrigins(),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/ws"
		},
		Store: s.rateLimiterStore(),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			s.logger.LogSecurityEvent("rate_limited", "", identifier, map[string]interface{}{
				"endpoint": context.Request().URL.Path,
			})
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	s.echo.Use(middleware.RequestID())

	// The socket endpoint is long-lived and must not be cut by the timeout.
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/ws"
		},
		Timeout: 30 * time.Second,
	}))
}

func (s *Server) allowedOrigins() []string {
	return strings.Split(s.config.Security.CORSAllowedOrigins, ",")
}

// rateLimiterStore shares counters through Redis when it is available and
// falls back to a per-process token bucket.
func (s *Server) rateLimiterStore() middleware.RateLimiterStore {
	sec := s.config.Security
	if s.app.Redis != nil {
		return ratelimit.NewRedisStore(s.app.Redis, sec.RateLimitRequests, sec.RateLimitWindow, s.logger)
	}
	// Requests per window, refilled evenly.
	perSecond := rate.Limit(float64(sec.RateLimitRequests) / sec.RateLimitWindow.Seconds())
	return middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{Rate: perSecond, Burst: sec.RateLimitRequests, ExpiresIn: sec.RateLimitWindow},
	)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/docs/*", echoSwagger.WrapHandler)

	s.echo.GET("/ws", s.app.Hub.ServeWS(s.app.Auth, s.allowedOrigins()))

	httpadapter.Register(s.echo, httpadapter.Handlers{
		Auth:   httpadapter.NewAuthHandler(s.app.Auth, s.logger),
		Boards: httpadapter.NewBoardHandler(s.app.Boards, s.app.Invitations, s.app.Labels, s.logger),
		Lists:  httpadapter.NewListHandler(s.app.Lists, s.app.Tasks, s.logger),
		Tasks:  httpadapter.NewTaskHandler(s.app.Tasks, s.app.Comments, s.app.Items, s.logger),
		Inbox:  httpadapter.NewInboxHandler(s.app.Invitations, s.app.Notifications, s.logger),
	}, httpadapter.Authenticate(s.app.Auth, s.logger))
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.echo.Use(s.app.Metrics.Middleware())
	s.echo.GET("/metrics", echo.WrapHandler(s.app.Metrics.Handler()))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(ctx); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	if s.app.Redis != nil {
		if err := s.app.Redis.Ping(ctx).Err(); err != nil {
			status = "error"
			checks["redis"] = map[string]interface{}{"status": "error", "error": err.Error()}
		} else {
			checks["redis"] = map[string]interface{}{"status": "ok"}
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the push hub and then the HTTP server. It blocks until the
// server stops.
func (s *Server) Start(address string) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.app.StartPush(ctx, s.config.Push.Backend)

	srv := &http.Server{
		Addr:         address,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	s.logger.Infow("Starting server", "address", address)
	if err := s.echo.StartServer(srv); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, closes the sockets and drains pending
// notification deliveries.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	err := s.echo.Shutdown(ctx)
	if s.stop != nil {
		s.stop()
	}
	if cerr := s.app.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
