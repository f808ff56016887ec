package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/cart-store/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	RequestTimeout time.Duration
	Logger         *zap.Logger
	// Health is pinged by GET /health; nil reports ok unconditionally.
	Health Pinger
}

func NewRouter(svc *service.CartService, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	cartHandler := NewCartHandler(cfg.RequestTimeout, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))

	r.Get("/health", healthHandler(cfg.Health, cfg.RequestTimeout))

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(CartProvider(svc))

		// streams outlive the request timeout
		r.Get("/events", cartHandler.Events)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/items/{product_id}/increment", cartHandler.Increment)
			r.Post("/items/{product_id}/decrement", cartHandler.Decrement)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})
	})

	return otelhttp.NewHandler(r, "cart-api")
}

func healthHandler(p Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
