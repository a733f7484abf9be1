package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coursehub/wishlist/pkg/health"
	"github.com/coursehub/wishlist/pkg/middleware"
)

const serviceName = "wishlist"

// NewRouter creates a chi router with all wishlist service routes registered.
func NewRouter(
	wishlistHandler *WishlistHandler,
	pageHandler *PageHandler,
	healthHandler *health.Handler,
	jwtSecret string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	auth := Authenticate(jwtSecret, logger)

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/static/wishlist.css", pageHandler.Stylesheet)

	// Server-rendered page
	r.Route("/wishlist", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", pageHandler.Show)
		r.Post("/dialog", pageHandler.Open)
		r.Post("/dialog/cancel", pageHandler.Cancel)
		r.Post("/dialog/confirm", pageHandler.Confirm)
	})

	// Wishlist API endpoints
	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth)

		r.Post("/view", wishlistHandler.MountView)
		r.Get("/view", wishlistHandler.GetView)
		r.Delete("/view", wishlistHandler.UnmountView)

		r.Post("/view/dialog", wishlistHandler.OpenDialog)
		r.Delete("/view/dialog", wishlistHandler.CloseDialog)
		r.Post("/view/dialog/confirm", wishlistHandler.ConfirmDelete)

		r.Get("/items", wishlistHandler.ListItems)
		r.Post("/items", wishlistHandler.AddItem)
		r.Get("/count", wishlistHandler.Count)
		r.Get("/export", wishlistHandler.Export)
	})

	return r
}
