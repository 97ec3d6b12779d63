package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderlane/orderlane/internal/domain/order"
	"github.com/orderlane/orderlane/internal/domain/product"
)

const (
	// maxTxAttempts bounds transparent retries of serialization conflicts.
	maxTxAttempts = 3
	retryBackoff  = 25 * time.Millisecond
)

var _ order.TxRunner = (*TxRunner)(nil)

// TxRunner runs a unit of work inside one database transaction: commit on
// nil return, rollback on any error or panic. SQLSTATE 40001 (serialization
// failure) and 40P01 (deadlock detected) are retried up to maxTxAttempts
// times before surfacing as order.ErrConflict; every other error keeps its
// kind.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner returns a TxRunner backed by the given pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// InTx implements order.TxRunner.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, s order.Stores) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff << attempt):
			}
		}

		err := r.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return errors.Wrap(order.ErrConflict, lastErr.Error())
}

func (r *TxRunner) attempt(ctx context.Context, fn func(ctx context.Context, s order.Stores) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(ctx, txStores{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// retryable reports whether err is a transient conflict worth retrying with
// a fresh transaction.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// txStores binds the repositories to one open transaction.
type txStores struct {
	tx pgx.Tx
}

func (s txStores) Orders() order.Store {
	return NewOrderStore(s.tx)
}

func (s txStores) Inventory() product.Ledger {
	return NewInventoryLedger(s.tx)
}
