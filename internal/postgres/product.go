package postgres

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orderlane/orderlane/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, sku, description, category, price, stock, is_active, created_at, updated_at
		FROM products ORDER BY name`

	getProductSQL = `SELECT id, name, sku, description, category, price, stock, is_active, created_at, updated_at
		FROM products WHERE id = $1`

	insertProductSQL = `INSERT INTO products (id, name, sku, description, category, price, stock, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository is the catalog store. Stock on existing rows is never
// touched here; reservations go through the InventoryLedger.
type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %s", id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %s", id)
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.db.QueryRow(ctx, insertProductSQL,
		p.ID, p.Name, p.SKU, p.Description, p.Category, p.Price, p.Stock, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return product.ErrSKUConflict
		}
		return errors.Wrapf(err, "creating product %s", p.ID)
	}
	return nil
}

// Update applies the non-nil fields of upd and returns the updated row.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, upd product.Update) (*product.Product, error) {
	query := `UPDATE products SET updated_at = now()`
	args := []any{id}

	set := func(column string, v any) {
		args = append(args, v)
		query += `, ` + column + ` = $` + strconv.Itoa(len(args))
	}
	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.SKU != nil {
		set("sku", *upd.SKU)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Category != nil {
		set("category", *upd.Category)
	}
	if upd.Price != nil {
		set("price", *upd.Price)
	}
	if upd.Stock != nil {
		set("stock", *upd.Stock)
		set("is_active", *upd.Stock > 0)
	}
	query += ` WHERE id = $1
		RETURNING id, name, sku, description, category, price, stock, is_active, created_at, updated_at`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "updating product %s", id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, product.ErrSKUConflict
		}
		return nil, errors.Wrapf(err, "updating product %s", id)
	}
	return &p, nil
}

// Delete removes a product. Rows referenced by order lines are protected by
// the foreign key and surface as ErrReferenced.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return product.ErrReferenced
		}
		return errors.Wrapf(err, "deleting product %s", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
