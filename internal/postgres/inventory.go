package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orderlane/orderlane/internal/domain/product"
)

const (
	// The FOR UPDATE lock is the oversell guard: two concurrent
	// reservations of the same product serialize here, and the second one
	// re-reads the stock the first one left behind.
	lockProductSQL = `SELECT id, name, sku, description, category, price, stock, is_active, created_at, updated_at
		FROM products WHERE id = $1 FOR UPDATE`

	adjustStockSQL = `UPDATE products SET stock = $2, is_active = $3, updated_at = now() WHERE id = $1`

	releaseStockSQL = `UPDATE products SET stock = stock + $2, is_active = TRUE, updated_at = now() WHERE id = $1`
)

var _ product.Ledger = (*InventoryLedger)(nil)

// InventoryLedger owns product stock counts. All mutations run on the
// caller's transaction so the row locks are held until commit or rollback.
type InventoryLedger struct {
	db DBTX
}

// NewInventoryLedger returns a ledger bound to db, typically an open
// transaction.
func NewInventoryLedger(db DBTX) *InventoryLedger {
	return &InventoryLedger{db: db}
}

// Reserve locks the product row, checks availability and decrements stock in
// one serialized step. The returned snapshot carries the price from the same
// locked read, so callers never re-read it.
func (l *InventoryLedger) Reserve(ctx context.Context, id uuid.UUID, qty int) (*product.Product, error) {
	rows, err := l.db.Query(ctx, lockProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "locking product %s", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &product.ProductUnavailableError{ProductID: id}
		}
		return nil, errors.Wrapf(err, "locking product %s", id)
	}

	if !p.IsActive {
		return nil, &product.ProductUnavailableError{ProductID: id}
	}
	if qty > p.Stock {
		return nil, &product.InsufficientStockError{
			ProductID: id,
			Name:      p.Name,
			Requested: qty,
			Available: p.Stock,
		}
	}

	newStock := p.Stock - qty
	if _, err := l.db.Exec(ctx, adjustStockSQL, id, newStock, newStock > 0); err != nil {
		return nil, errors.Wrapf(err, "reserving %d of product %s", qty, id)
	}

	p.Stock = newStock
	p.IsActive = newStock > 0
	return &p, nil
}

// Release returns qty units to the product and reactivates it. The UPDATE
// itself acquires the row lock, so release participates in the same
// ascending-id lock order as Reserve.
func (l *InventoryLedger) Release(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := l.db.Exec(ctx, releaseStockSQL, id, qty)
	if err != nil {
		return errors.Wrapf(err, "releasing %d of product %s", qty, id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Description, &p.Category,
		&p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
