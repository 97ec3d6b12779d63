package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/orderlane/orderlane/internal/domain/auth"
)

const findAPIKeySQL = `SELECT id, key_hash, name, user_id, role, active
	FROM api_keys WHERE key_hash = $1`

var _ auth.KeyRepository = (*APIKeyRepository)(nil)

// APIKeyRepository looks up API keys by their hash. Raw keys are never
// stored.
type APIKeyRepository struct {
	db DBTX
}

func NewAPIKeyRepository(db DBTX) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	rows, err := r.db.Query(ctx, findAPIKeySQL, hash)
	if err != nil {
		return nil, errors.Wrap(err, "finding api key")
	}
	info, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (auth.APIKeyInfo, error) {
		var k auth.APIKeyInfo
		err := row.Scan(&k.ID, &k.KeyHash, &k.Name, &k.UserID, &k.Role, &k.Active)
		return k, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "finding api key")
	}
	return &info, nil
}
