package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrSKUConflict is returned when a create or update would duplicate a SKU.
var ErrSKUConflict = errors.New("a product with this SKU already exists")

// ErrReferenced is returned when deleting a product that order lines still
// reference.
var ErrReferenced = errors.New("product is referenced by existing orders")

// Product is a catalog item available for sale. Stock is owned by the
// inventory ledger: it changes only through Reserve and Release, never by
// direct assignment.
type Product struct {
	ID          uuid.UUID
	Name        string
	SKU         string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Update carries a partial catalog update. Nil fields keep the current value.
type Update struct {
	Name        *string
	SKU         *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
}

// Repository defines catalog operations. Stock mutation is deliberately
// absent here; it belongs to the Ledger.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id uuid.UUID, upd Update) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Ledger owns product stock counts. Implementations must execute both
// operations under a row-level lock held for the duration of the enclosing
// transaction, so a check-and-decrement is serialized per product.
type Ledger interface {
	// Reserve decrements stock by qty and deactivates the product when the
	// resulting stock is exactly 0. It returns the locked row snapshot, so
	// price capture and the stock check come from one read. Fails with
	// ProductUnavailableError when the product is missing or inactive and
	// with InsufficientStockError when qty exceeds the available stock.
	Reserve(ctx context.Context, id uuid.UUID, qty int) (*Product, error)

	// Release increments stock by qty and reactivates the product. It always
	// succeeds on an existing id.
	Release(ctx context.Context, id uuid.UUID, qty int) error
}

// InsufficientStockError indicates a reservation asked for more units than
// the product has available.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ProductUnavailableError indicates the product was missing or inactive at
// reservation time.
type ProductUnavailableError struct {
	ProductID uuid.UUID
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s not found or inactive", e.ProductID)
}
