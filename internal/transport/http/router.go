package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает chi-роутер API магазина.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/carts", func(r chi.Router) {
			r.Get("/", handler.ListCarts)
			r.Get("/my", handler.GetMyCart)
			r.Post("/products/{productID}/quantity/{qty}", handler.withIdempotency(handler.AddProduct))
			r.Patch("/products/{productID}", handler.UpdateQuantity)
			r.Delete("/{cartID}/products/{productID}", handler.RemoveProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handler.withIdempotency(handler.PlaceOrder))
			r.Get("/", handler.ListOrders)
			r.Get("/{orderID}", handler.GetOrder)
		})
	})

	return r
}
