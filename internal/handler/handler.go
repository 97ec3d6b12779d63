// Package handler exposes the order and catalog APIs over HTTP.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/orderlane/orderlane/internal/domain/auth"
	"github.com/orderlane/orderlane/internal/domain/order"
	"github.com/orderlane/orderlane/internal/domain/product"
)

// Handler routes API requests to the order service and catalog repository.
type Handler struct {
	orders   *order.Service
	products product.Repository
	policy   auth.Policy
}

func New(orders *order.Service, products product.Repository, policy auth.Policy) *Handler {
	return &Handler{
		orders:   orders,
		products: products,
		policy:   policy,
	}
}

// Routes builds the authenticated API router. Key authentication runs before
// every route; per-operation authorization happens in the handlers and the
// order service.
func (h *Handler) Routes(sec *APIKeyAuth) chi.Router {
	r := chi.NewRouter()
	r.Use(sec.Middleware)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}", h.editOrder)
		r.Post("/{id}/cancel", h.cancelOrder)
		r.Post("/{id}/complete", h.completeOrder)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Patch("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})

	return r
}
