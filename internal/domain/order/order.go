package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orderlane/orderlane/internal/domain/product"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is the aggregate root: header plus its lines. Orders are never
// deleted; cancellation is a status transition.
type Order struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	SellerID  *uuid.UUID // staff member who sold on behalf of the client; nil if self-service
	Status    Status
	Total     decimal.Decimal
	Lines     []Line
	CreatedAt time.Time
}

// Line is one order line. Price is a snapshot of the product price at the
// time the line was written and does not follow later catalog changes.
type Line struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// Subtotal returns price × quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the line subtotals and rounds ONCE at the end, so per-line
// rounding drift cannot accumulate.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum.Round(2)
}

// LineInput is a validated inbound order line. The validation collaborator
// guarantees shape; the core only checks business legality.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// ListQuery narrows a listing. Nil fields mean no constraint. Results are
// ordered by creation time, most recent first.
type ListQuery struct {
	ClientID *uuid.UUID
	SellerID *uuid.UUID
	Status   *Status
}

// Store is the order aggregate store. Within a transaction it is the only
// writer of order and line rows.
type Store interface {
	// Create persists the header and all lines atomically, computing the
	// total from the lines.
	Create(ctx context.Context, o *Order) error

	// ReplaceLines deletes the existing lines, inserts the new set wholesale
	// and persists the recomputed total.
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []Line) error

	// Get loads an order with its lines. Returns ErrNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*Order, error)

	// GetForUpdate is Get under a row-level lock; used whenever the caller
	// intends to mutate.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	SetStatus(ctx context.Context, id uuid.UUID, status Status) error

	List(ctx context.Context, q ListQuery) ([]Order, error)
}

// Stores bundles the repositories participating in one transaction.
type Stores interface {
	Orders() Store
	Inventory() product.Ledger
}

// TxRunner executes fn inside one atomic unit of work: commit on nil return,
// rollback on any error, on every exit path. Implementations retry a small
// bounded number of times on serialization conflicts before surfacing
// ErrConflict.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
