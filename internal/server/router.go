package server

import (
	"net/http"

	"github.com/cloo-solutions/pageoracle/internal/api"
	"github.com/cloo-solutions/pageoracle/internal/api/handlers"
	"github.com/cloo-solutions/pageoracle/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	UIHandler     *handlers.UIHandler
	AskHandler    *handlers.AskHandler
	HealthHandler *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 << 20

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/health", cfg.HealthHandler.Health)
	r.Get("/", cfg.UIHandler.Index)
	r.Post("/ask", cfg.AskHandler.Ask)

	return r
}
