package order

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Sentinel errors for lifecycle operations. Kinds are preserved across the
// transaction boundary so the API layer can map them to responses.
var (
	// ErrNotFound means the referenced order does not exist (or is not
	// visible to the caller).
	ErrNotFound = errors.New("order not found")

	// ErrForbidden means the principal lacks ownership or role permission
	// for the requested action.
	ErrForbidden = errors.New("forbidden")

	// ErrIllegalTransition means the transition table rejects the
	// status/action pair; terminal statuses reject everything.
	ErrIllegalTransition = errors.New("illegal order status transition")

	// ErrEmptyOrder means no lines were provided.
	ErrEmptyOrder = errors.New("order has no lines")

	// ErrMissingClient means a staff or admin principal did not name the
	// client the order is for.
	ErrMissingClient = errors.New("client id required")

	// ErrConflict is a transient serialization failure; the whole operation
	// may be retried.
	ErrConflict = errors.New("transaction conflict, retry")
)

// InvalidQuantityError indicates a line with a non-positive quantity slipped
// past the boundary validator.
type InvalidQuantityError struct {
	ProductID uuid.UUID
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}
