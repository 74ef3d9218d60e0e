package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Paperlens/internal/api/middlewares"
	"github.com/markdave123-py/Paperlens/internal/config"
	"github.com/markdave123-py/Paperlens/internal/core/streaming"
	"github.com/markdave123-py/Paperlens/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, logger *zap.Logger, reports *services.ReportService, streams *services.StreamService, b *streaming.Broadcaster) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, logger, reports, streams, b),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter mounts the report API. The websocket route sits outside the
// request timeout and token check since listeners hold the socket for the
// whole stream and browsers cannot set headers on it.
func NewRouter(cfg *config.Config, logger *zap.Logger, reports handlers.ReportAPI, streams handlers.StreamStarter, b *streaming.Broadcaster) http.Handler {
	chatHandler := handlers.NewChatHandler(reports, streams, logger.Named("chat"))
	reportHandler := handlers.NewReportHandler(reports, logger.Named("reports"))
	socketHandler := handlers.NewStreamSocketHandler(b, cfg.CorsOrigins, logger.Named("ws"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/stream/ws", socketHandler.Listen)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Use(middleware.Timeout(cfg.GenTimeout + 30*time.Second))
			protected.Post("/chat/ask", chatHandler.Ask)
			protected.Post("/chat/stream", chatHandler.Stream)
			protected.Post("/reports", reportHandler.Create)
			protected.Get("/reports/{id}", reportHandler.GetPage)
		})
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
