package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orderlane/orderlane/internal/domain/auth"
	"github.com/orderlane/orderlane/internal/domain/order"
	"github.com/orderlane/orderlane/internal/domain/product"
)

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type createOrderRequest struct {
	ClientID *uuid.UUID         `json:"client_id"`
	Lines    []orderLineRequest `json:"lines"`
}

type editOrderRequest struct {
	Lines []orderLineRequest `json:"lines"`
}

func lineInputs(lines []orderLineRequest) []order.LineInput {
	inputs := make([]order.LineInput, len(lines))
	for i, l := range lines {
		inputs[i] = order.LineInput{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return inputs
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing principal")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	o, err := h.orders.Create(r.Context(), p, order.CreateRequest{
		ClientID: req.ClientID,
		Lines:    lineInputs(req.Lines),
	})
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	var req editOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	o, err := h.orders.Edit(r.Context(), p, id, lineInputs(req.Lines))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Cancel(r.Context(), p, id)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Complete(r.Context(), p, id)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), p, id)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing principal")
		return
	}

	var status *order.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := order.Status(s)
		if !st.Valid() {
			writeError(w, r, http.StatusBadRequest, "bad_request", "unknown status "+s)
			return
		}
		status = &st
	}

	list, err := h.orders.List(r.Context(), p, status)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range list {
				encodeOrder(e, &list[i])
			}
		})
	})
}

// principalAndID pulls the principal and the {id} route parameter, writing
// the error response itself on failure.
func (h *Handler) principalAndID(w http.ResponseWriter, r *http.Request) (auth.Principal, uuid.UUID, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing principal")
		return auth.Principal{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", "malformed order id")
		return auth.Principal{}, uuid.Nil, false
	}
	return p, id, true
}

// orderError maps domain errors to HTTP responses. Unknown errors are logged
// and masked as 500.
func (h *Handler) orderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		insufficient *product.InsufficientStockError
		unavailable  *product.ProductUnavailableError
		badQty       *order.InvalidQuantityError
	)
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, order.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden", "operation not permitted")
	case errors.Is(err, order.ErrIllegalTransition):
		writeError(w, r, http.StatusConflict, "illegal_transition", "order state does not allow this operation")
	case errors.Is(err, order.ErrEmptyOrder):
		writeError(w, r, http.StatusBadRequest, "empty_order", "order must have at least one line")
	case errors.Is(err, order.ErrMissingClient):
		writeError(w, r, http.StatusBadRequest, "missing_client", "client_id is required")
	case errors.As(err, &badQty):
		writeError(w, r, http.StatusBadRequest, "invalid_quantity", badQty.Error())
	case errors.As(err, &insufficient):
		writeError(w, r, http.StatusUnprocessableEntity, "insufficient_stock", insufficient.Error())
	case errors.As(err, &unavailable):
		writeError(w, r, http.StatusUnprocessableEntity, "product_unavailable", unavailable.Error())
	case errors.Is(err, order.ErrConflict):
		w.Header().Set("Retry-After", "1")
		writeError(w, r, http.StatusServiceUnavailable, "conflict", "too much contention, retry")
	default:
		zctx.From(r.Context()).Error("order operation failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}
