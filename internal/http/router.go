package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the cart API used by the product and checkout pages.
func NewRouter(cartHandler *CartHandler, log *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", cartHandler.Health)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(SessionMiddleware)
		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Get("/badge", cartHandler.GetBadge)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items/{index}", cartHandler.UpdateQuantity)
		r.Delete("/items/{index}", cartHandler.RemoveItem)
	})

	return r
}
