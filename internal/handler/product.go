package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orderlane/orderlane/internal/domain/auth"
	"github.com/orderlane/orderlane/internal/domain/product"
)

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.List(r.Context())
	if err != nil {
		h.productError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range list {
				encodeProduct(e, &list[i])
			}
		})
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed product id")
		return
	}
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		h.productError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, auth.CapManageProducts) {
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, r, http.StatusBadRequest, "bad_request", "price must be a non-negative decimal")
		return
	}
	if req.Stock < 0 {
		writeError(w, r, http.StatusBadRequest, "bad_request", "stock must not be negative")
		return
	}

	category := req.Category
	if category == "" {
		category = product.DefaultCategory
	}
	p := &product.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		SKU:         product.GenerateSKU(req.Name, category),
		Description: req.Description,
		Category:    category,
		Price:       price,
		Stock:       req.Stock,
		IsActive:    req.Stock > 0,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		h.productError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, auth.CapManageProducts) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed product id")
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	upd := product.Update{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Stock:       req.Stock,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			writeError(w, r, http.StatusBadRequest, "bad_request", "price must be a non-negative decimal")
			return
		}
		upd.Price = &price
	}
	if req.Stock != nil && *req.Stock < 0 {
		writeError(w, r, http.StatusBadRequest, "bad_request", "stock must not be negative")
		return
	}

	p, err := h.products.Update(r.Context(), id, upd)
	if err != nil {
		h.productError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) { encodeProduct(e, p) })
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireCapability(w, r, auth.CapManageProducts) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed product id")
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		h.productError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireCapability(w http.ResponseWriter, r *http.Request, c auth.Capability) bool {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing principal")
		return false
	}
	if !h.policy.Allows(p.Role, c) {
		writeError(w, r, http.StatusForbidden, "forbidden", "operation not permitted")
		return false
	}
	return true
}

func (h *Handler) productError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, product.ErrSKUConflict):
		writeError(w, r, http.StatusConflict, "sku_conflict", "a product with this sku already exists")
	case errors.Is(err, product.ErrReferenced):
		writeError(w, r, http.StatusConflict, "product_referenced", "product is referenced by existing orders")
	default:
		zctx.From(r.Context()).Error("product operation failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}
