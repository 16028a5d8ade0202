package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chatproxy-backend/internal/handlers"
	"chatproxy-backend/internal/middleware"
)

type Options struct {
	FrontendURL string
	Dev         bool
}

func New(
	logger zerolog.Logger,
	jwtAuth *middleware.JWTAuth,
	aiLimiter *middleware.RateLimiter,
	chatHandler *handlers.ChatHandler,
	wsHandler http.HandlerFunc,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger, opts.Dev))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(opts.FrontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/create", chatHandler.Create)
			r.Get("/get", chatHandler.List)
			r.Post("/rename", chatHandler.Rename)
			r.Post("/delete", chatHandler.Delete)

			r.With(aiLimiter.Middleware).Post("/ai", chatHandler.Ask)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHandler)
	})

	return r
}
