package postgres

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/orderlane/orderlane/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, client_id, seller_id, status, total)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	insertLineSQL = `INSERT INTO order_lines (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)`

	deleteLinesSQL = `DELETE FROM order_lines WHERE order_id = $1`

	setTotalSQL = `UPDATE orders SET total = $2 WHERE id = $1`

	getOrderSQL = `SELECT id, client_id, seller_id, status, total, created_at
		FROM orders WHERE id = $1`

	getOrderForUpdateSQL = getOrderSQL + ` FOR UPDATE`

	getLinesSQL = `SELECT order_id, product_id, quantity, price
		FROM order_lines WHERE order_id = $1 ORDER BY product_id`

	setStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore is the order aggregate store backed by PostgreSQL. Orders and
// their lines are read and written together; lines are only ever replaced
// wholesale.
type OrderStore struct {
	db DBTX
}

// NewOrderStore returns an OrderStore bound to db — the pool for plain
// reads, an open transaction for anything that mutates.
func NewOrderStore(db DBTX) *OrderStore {
	return &OrderStore{db: db}
}

// Create persists the header and all lines. The total is recomputed from the
// lines here so a header can never disagree with its lines.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	o.Total = order.Total(o.Lines)

	err := s.db.QueryRow(ctx, insertOrderSQL,
		o.ID, o.ClientID, o.SellerID, o.Status, o.Total,
	).Scan(&o.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "creating order %s", o.ID)
	}

	if err := s.insertLines(ctx, o.ID, o.Lines); err != nil {
		return err
	}
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
	}
	return nil
}

// ReplaceLines deletes the existing lines, inserts the new set and persists
// the recomputed total.
func (s *OrderStore) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []order.Line) error {
	if _, err := s.db.Exec(ctx, deleteLinesSQL, orderID); err != nil {
		return errors.Wrapf(err, "deleting lines of order %s", orderID)
	}
	if err := s.insertLines(ctx, orderID, lines); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, setTotalSQL, orderID, order.Total(lines)); err != nil {
		return errors.Wrapf(err, "updating total of order %s", orderID)
	}
	return nil
}

func (s *OrderStore) insertLines(ctx context.Context, orderID uuid.UUID, lines []order.Line) error {
	for _, l := range lines {
		if _, err := s.db.Exec(ctx, insertLineSQL, orderID, l.ProductID, l.Quantity, l.Price); err != nil {
			return errors.Wrapf(err, "inserting line %s of order %s", l.ProductID, orderID)
		}
	}
	return nil
}

// Get loads an order with its lines.
func (s *OrderStore) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.get(ctx, id, getOrderSQL)
}

// GetForUpdate loads the order under a row-level lock held until the
// enclosing transaction ends.
func (s *OrderStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.get(ctx, id, getOrderForUpdateSQL)
}

func (s *OrderStore) get(ctx context.Context, id uuid.UUID, query string) (*order.Order, error) {
	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %s", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %s", id)
	}

	lineRows, err := s.db.Query(ctx, getLinesSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting lines of order %s", id)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanLine)
	if err != nil {
		return nil, errors.Wrapf(err, "getting lines of order %s", id)
	}
	return &o, nil
}

// SetStatus updates the order status only.
func (s *OrderStore) SetStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	tag, err := s.db.Exec(ctx, setStatusSQL, id, status)
	if err != nil {
		return errors.Wrapf(err, "setting status of order %s", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// List returns order headers matching q, most recent first. Lines are not
// loaded for listings.
func (s *OrderStore) List(ctx context.Context, q order.ListQuery) ([]order.Order, error) {
	query := `SELECT id, client_id, seller_id, status, total, created_at FROM orders WHERE TRUE`
	args := make([]any, 0, 3)

	if q.ClientID != nil {
		args = append(args, *q.ClientID)
		query += ` AND client_id = $` + strconv.Itoa(len(args))
	}
	if q.SellerID != nil {
		args = append(args, *q.SellerID)
		query += ` AND seller_id = $` + strconv.Itoa(len(args))
	}
	if q.Status != nil {
		args = append(args, *q.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.ClientID, &o.SellerID, &o.Status, &o.Total, &o.CreatedAt)
	return o, err
}

func scanLine(row pgx.CollectableRow) (order.Line, error) {
	var l order.Line
	err := row.Scan(&l.OrderID, &l.ProductID, &l.Quantity, &l.Price)
	return l, err
}
