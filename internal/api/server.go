package api

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/api/handlers"
	"github.com/amaumene/tritonevents/internal/api/middleware"
	"github.com/amaumene/tritonevents/internal/config"
	"github.com/amaumene/tritonevents/internal/models"
)

// Server represents the HTTP server
type Server struct {
	app    *fiber.App
	addr   string
	logger zerolog.Logger
}

// NewServer creates a new HTTP server. A nil sink disables the board webhook routes.
func NewServer(cfg *config.Config, store models.Store, requeuer handlers.Requeuer, sink handlers.NotificationSink, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api").Logger()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})
	app.Use(middleware.Logging(logger))

	s := &Server{
		app:    app,
		addr:   ":" + cfg.ServerPort,
		logger: logger,
	}
	s.setupRoutes(store, requeuer, sink)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(store models.Store, requeuer handlers.Requeuer, sink handlers.NotificationSink) {
	// Health check
	s.app.Get("/v1/health", handlers.NewHealthHandler().Handle)

	// Metrics
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Pipeline summary
	s.app.Get("/v1/status", handlers.NewStatusHandler(store, s.logger).Handle)

	// Media
	media := handlers.NewMediaHandler(store, requeuer, s.logger)
	s.app.Get("/v1/media", media.List)
	s.app.Get("/v1/media/:id", media.Get)
	s.app.Post("/v1/queue/:id", media.Requeue)

	// Trello webhook
	if sink != nil {
		webhook := handlers.NewWebhookHandler(sink, s.logger)
		for _, path := range []string{"/webhook", "/trello/webhook"} {
			s.app.Head(path, webhook.Handle)
			s.app.Post(path, webhook.Handle)
		}
	}
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve runs the HTTP server until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info().Str("addr", s.addr).Msg("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down HTTP server")
		if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return ctx.Err()
	}
}
