package order

import (
	"bytes"
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/orderlane/orderlane/internal/domain/auth"
	"github.com/orderlane/orderlane/internal/domain/product"
)

// Service orchestrates the order lifecycle. Every mutating operation runs as
// one atomic unit of work: stock reservations, line writes and status changes
// either all commit or all roll back.
type Service struct {
	tx     TxRunner
	orders Store // pool-backed store for read paths outside a transaction
}

// NewService creates the lifecycle service.
func NewService(tx TxRunner, orders Store) *Service {
	return &Service{tx: tx, orders: orders}
}

// CreateRequest is the input for placing an order. ClientID is required when
// the principal is staff or admin ordering on behalf of a client; clients
// always order for themselves.
type CreateRequest struct {
	ClientID *uuid.UUID
	Lines    []LineInput
}

// demand is a merged, per-product quantity request.
type demand struct {
	productID uuid.UUID
	quantity  int
}

// mergeDemands folds duplicate product ids together and sorts by ascending
// product id. The sort fixes the lock acquisition order for the whole
// request, which is what prevents deadlock cycles between two transactions
// touching overlapping product sets.
func mergeDemands(lines []LineInput) ([]demand, error) {
	merged := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: l.ProductID}
		}
		merged[l.ProductID] += l.Quantity
	}

	demands := make([]demand, 0, len(merged))
	for id, qty := range merged {
		demands = append(demands, demand{productID: id, quantity: qty})
	}
	sortByProductID(demands)
	return demands, nil
}

func sortByProductID(demands []demand) {
	slices.SortFunc(demands, func(a, b demand) int {
		return bytes.Compare(a.productID[:], b.productID[:])
	})
}

// Create places a new order: resolves the effective client, reserves stock
// for every line under per-product row locks, and persists the aggregate with
// the total rounded once. On any failure nothing is left behind — no partial
// order, no partially decremented stock.
func (s *Service) Create(ctx context.Context, p auth.Principal, req CreateRequest) (*Order, error) {
	clientID, sellerID, err := resolveParties(p, req.ClientID)
	if err != nil {
		return nil, err
	}

	if len(req.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	demands, err := mergeDemands(req.Lines)
	if err != nil {
		return nil, err
	}

	var out *Order
	err = s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		lines, err := reserveAll(ctx, st.Inventory(), demands)
		if err != nil {
			return err
		}

		o := &Order{
			ID:       uuid.New(),
			ClientID: clientID,
			SellerID: sellerID,
			Status:   StatusPending,
			Lines:    lines,
		}
		if err := st.Orders().Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Edit replaces an order's lines wholesale. Old reservations are returned to
// inventory before the new lines are evaluated, so an edit can shrink then
// grow a quantity without failing a stock check against its own prior
// reservation. For each product the release happens before the reserve, and
// products are visited in ascending id order across the union of old and new
// lines, keeping the global lock order intact.
func (s *Service) Edit(ctx context.Context, p auth.Principal, orderID uuid.UUID, newLines []LineInput) (*Order, error) {
	var out *Order
	err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		o, err := st.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := authorizeTransition(o, ActionEdit, p); err != nil {
			return err
		}
		// Defense in depth: edit's only legal source state is pending.
		if o.Status != StatusPending {
			return ErrIllegalTransition
		}

		// Line validation comes after the existence and authorization
		// gates, so a bad body against a missing order still reports
		// not found.
		if len(newLines) == 0 {
			return ErrEmptyOrder
		}
		demands, err := mergeDemands(newLines)
		if err != nil {
			return err
		}

		lines, err := exchangeReservations(ctx, st.Inventory(), o.Lines, demands)
		if err != nil {
			return err
		}

		if err := st.Orders().ReplaceLines(ctx, o.ID, lines); err != nil {
			return errors.Wrap(err, "replace lines")
		}

		o.Lines = lines
		o.Total = Total(lines)
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel returns every reserved unit to inventory and moves the order to
// cancelled. Clients cancel their own orders, staff their own sales, admins
// any order.
func (s *Service) Cancel(ctx context.Context, p auth.Principal, orderID uuid.UUID) (*Order, error) {
	var out *Order
	err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		o, err := st.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := authorizeTransition(o, ActionCancel, p); err != nil {
			return err
		}
		if o.Status != StatusPending {
			return ErrIllegalTransition
		}

		for _, l := range sortedLines(o.Lines) {
			if err := st.Inventory().Release(ctx, l.ProductID, l.Quantity); err != nil {
				return errors.Wrapf(err, "release product %s", l.ProductID)
			}
		}

		next, _ := NextStatus(o.Status, ActionCancel)
		if err := st.Orders().SetStatus(ctx, o.ID, next); err != nil {
			return errors.Wrap(err, "set status")
		}

		o.Status = next
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Complete moves a pending order to completed. Only admins may complete;
// stock was already committed at creation or edit time and is not touched.
func (s *Service) Complete(ctx context.Context, p auth.Principal, orderID uuid.UUID) (*Order, error) {
	var out *Order
	err := s.tx.InTx(ctx, func(ctx context.Context, st Stores) error {
		o, err := st.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := authorizeTransition(o, ActionComplete, p); err != nil {
			return err
		}

		next, _ := NextStatus(o.Status, ActionComplete)
		if err := st.Orders().SetStatus(ctx, o.ID, next); err != nil {
			return errors.Wrap(err, "set status")
		}

		o.Status = next
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get loads one order the principal may see. Orders outside the caller's
// visibility are reported as not found rather than forbidden, so existence
// does not leak.
func (s *Service) Get(ctx context.Context, p auth.Principal, orderID uuid.UUID) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwnership(o, p); err != nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// List returns the orders visible to the principal: admins see all, staff
// their own sales, clients their own orders. An optional status filter
// narrows further.
func (s *Service) List(ctx context.Context, p auth.Principal, status *Status) ([]Order, error) {
	q := ListQuery{Status: status}
	switch p.Role {
	case auth.RoleAdmin:
	case auth.RoleStaff:
		id := p.ID
		q.SellerID = &id
	case auth.RoleClient:
		id := p.ID
		q.ClientID = &id
	default:
		return nil, ErrForbidden
	}
	return s.orders.List(ctx, q)
}

// resolveParties determines the effective client and seller for a new order.
func resolveParties(p auth.Principal, requested *uuid.UUID) (clientID uuid.UUID, sellerID *uuid.UUID, err error) {
	switch p.Role {
	case auth.RoleClient:
		return p.ID, nil, nil
	case auth.RoleStaff:
		if requested == nil {
			return uuid.Nil, nil, ErrMissingClient
		}
		id := p.ID
		return *requested, &id, nil
	case auth.RoleAdmin:
		if requested == nil {
			return uuid.Nil, nil, ErrMissingClient
		}
		return *requested, nil, nil
	default:
		return uuid.Nil, nil, ErrForbidden
	}
}

// authorizeTransition runs the two gate checks for a mutating action: the
// transition table (status legality first, then role), and per-row ownership.
func authorizeTransition(o *Order, action Action, p auth.Principal) error {
	if _, ok := NextStatus(o.Status, action); !ok {
		return ErrIllegalTransition
	}
	if !CanPerform(o.Status, action, p.Role) {
		return ErrForbidden
	}
	return authorizeOwnership(o, p)
}

// authorizeOwnership enforces per-row ownership: clients own orders they
// placed, staff own orders they sold, admins bypass.
func authorizeOwnership(o *Order, p auth.Principal) error {
	switch p.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleStaff:
		if o.SellerID != nil && *o.SellerID == p.ID {
			return nil
		}
	case auth.RoleClient:
		if o.ClientID == p.ID {
			return nil
		}
	}
	return ErrForbidden
}

// reserveAll locks and reserves each demanded product in ascending id order,
// snapshotting the price from the same locked read that checked the stock.
func reserveAll(ctx context.Context, ledger product.Ledger, demands []demand) ([]Line, error) {
	lines := make([]Line, 0, len(demands))
	for _, d := range demands {
		snap, err := ledger.Reserve(ctx, d.productID, d.quantity)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			ProductID: d.productID,
			Quantity:  d.quantity,
			Price:     snap.Price,
		})
	}
	return lines, nil
}

// exchangeReservations swaps the old lines' reservations for the new
// demands'. It walks the sorted union of old and new product ids, releasing
// the old quantity before reserving the new one for each product, so lock
// acquisition stays globally ascending and the new check sees the returned
// stock.
func exchangeReservations(ctx context.Context, ledger product.Ledger, old []Line, demands []demand) ([]Line, error) {
	oldQty := make(map[uuid.UUID]int, len(old))
	for _, l := range old {
		oldQty[l.ProductID] += l.Quantity
	}
	newQty := make(map[uuid.UUID]int, len(demands))
	for _, d := range demands {
		newQty[d.productID] = d.quantity
	}

	union := make([]demand, 0, len(oldQty)+len(newQty))
	for id := range oldQty {
		union = append(union, demand{productID: id})
	}
	for id := range newQty {
		if _, seen := oldQty[id]; !seen {
			union = append(union, demand{productID: id})
		}
	}
	sortByProductID(union)

	lines := make([]Line, 0, len(demands))
	for _, u := range union {
		if qty := oldQty[u.productID]; qty > 0 {
			if err := ledger.Release(ctx, u.productID, qty); err != nil {
				return nil, errors.Wrapf(err, "release product %s", u.productID)
			}
		}
		if qty := newQty[u.productID]; qty > 0 {
			snap, err := ledger.Reserve(ctx, u.productID, qty)
			if err != nil {
				return nil, err
			}
			lines = append(lines, Line{
				ProductID: u.productID,
				Quantity:  qty,
				Price:     snap.Price,
			})
		}
	}
	return lines, nil
}

// sortedLines returns a copy of lines in ascending product id order.
func sortedLines(lines []Line) []Line {
	out := slices.Clone(lines)
	slices.SortFunc(out, func(a, b Line) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return out
}
