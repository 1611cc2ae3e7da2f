package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(dev Device, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{dev: dev, events: bus}

	// Device state
	r.Get("/api", h.getStatus)
	r.Get("/api/", h.getStatus)

	// Controls
	r.Get("/api/controls", h.getControls)
	r.Get("/api/controls/{name}", h.getControl)
	r.Patch("/api/controls/{name}", h.setControl)

	// Format and modes
	r.Get("/api/format", h.getFormat)
	r.Post("/api/format", h.setFormat)
	r.Get("/api/modes", h.getModes)

	// Streaming
	r.Post("/api/stream/start", h.startStream)
	r.Post("/api/stream/stop", h.stopStream)

	// SSE
	r.Get("/api/subscribe", h.subscribeEvents)

	// Register I/O counters
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
