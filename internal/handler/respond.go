package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/orderlane/orderlane/internal/domain/order"
	"github.com/orderlane/orderlane/internal/domain/product"
)

// writeJSON encodes a body built by fill and writes it with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, fill func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	fill(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		zctx.From(r.Context()).Debug("write response", zap.Error(err))
	}
}

// writeError writes the uniform error body {"code": ..., "message": ...}.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID.String()) })
		e.Field("client_id", func(e *jx.Encoder) { e.Str(o.ClientID.String()) })
		if o.SellerID != nil {
			e.Field("seller_id", func(e *jx.Encoder) { e.Str(o.SellerID.String()) })
		}
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("total", func(e *jx.Encoder) { e.Str(o.Total.StringFixed(2)) })
		if o.Lines != nil {
			e.Field("lines", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range o.Lines {
						encodeLine(e, &o.Lines[i])
					}
				})
			})
		}
		e.Field("created_at", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(timeFormat)) })
	})
}

func encodeLine(e *jx.Encoder, l *order.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(l.ProductID.String()) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("price", func(e *jx.Encoder) { e.Str(l.Price.StringFixed(2)) })
	})
}

func encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID.String()) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price.StringFixed(2)) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("is_active", func(e *jx.Encoder) { e.Bool(p.IsActive) })
	})
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"
