package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avelarde/storefront/internal/telemetry"
)

// NewRouter wires the HTTP surface. Checkout is the only route behind auth;
// carts themselves may be anonymous, matching the storefront's guest flow.
func NewRouter(h *Handler, authSecret string, metricsHandler http.Handler, log *telemetry.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{pid}", h.GetProduct)
		r.Put("/{pid}", h.UpdateProduct)
		r.Delete("/{pid}", h.DeleteProduct)
	})

	r.Route("/api/carts", func(r chi.Router) {
		r.Post("/", h.CreateCart)
		r.Get("/{cid}", h.GetCart)
		r.Put("/{cid}", h.ReplaceCartItems)
		r.Delete("/{cid}", h.ClearCart)
		r.Post("/{cid}/items/{pid}", h.AddCartItem)
		r.Put("/{cid}/items/{pid}", h.SetCartItemQuantity)
		r.Delete("/{cid}/items/{pid}", h.RemoveCartItem)
		r.With(Auth(authSecret)).Post("/{cid}/checkout", h.Checkout)
	})

	r.Route("/api/tickets", func(r chi.Router) {
		r.Get("/", h.ListTickets)
		r.Get("/{code}", h.GetTicket)
	})

	return r
}

func requestLogger(log *telemetry.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
