package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/orderlane/orderlane/internal/domain/auth"
)

type principalKey struct{}

// PrincipalFromContext returns the authenticated principal set by
// APIKeyAuth.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

// APIKeyAuth authenticates requests by the X-API-Key header. The presented
// key is HMAC-SHA256 hashed with the server pepper and looked up by hash, so
// raw keys never touch the database. The matched principal is stored in the
// request context.
type APIKeyAuth struct {
	keys   auth.KeyRepository
	pepper []byte
}

func NewAPIKeyAuth(keys auth.KeyRepository, pepper []byte) *APIKeyAuth {
	return &APIKeyAuth{keys: keys, pepper: pepper}
}

// Middleware rejects requests without a valid, active API key with 401.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing api key")
			return
		}

		mac := hmac.New(sha256.New, a.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := a.keys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid api key")
			return
		}

		// Constant-time compare guards against a repository returning a
		// stale or wrong row.
		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 || !info.Active {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "invalid api key")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, info.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
