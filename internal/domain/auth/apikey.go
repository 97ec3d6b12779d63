package auth

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrKeyNotFound is returned when no key matches the presented hash.
var ErrKeyNotFound = errors.New("auth: api key not found")

// APIKeyInfo holds the identity data for a validated API key. Each key belongs
// to exactly one user and carries that user's role.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	UserID  uuid.UUID
	Role    Role
	Active  bool
}

// Principal returns the principal this key authenticates as.
func (k *APIKeyInfo) Principal() Principal {
	return Principal{ID: k.UserID, Role: k.Role}
}

// KeyRepository provides lookup of API keys by their HMAC hash.
type KeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
