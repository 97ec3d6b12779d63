package order

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderlane/orderlane/internal/domain/auth"
	"github.com/orderlane/orderlane/internal/domain/product"
)

// --- Fakes ---

// fakeWorld holds in-memory products and orders and plays the role of both
// the transaction runner and the per-transaction stores. InTx snapshots the
// state before running fn and restores it on error, mirroring the rollback
// guarantee of the real runner.
type fakeWorld struct {
	products map[uuid.UUID]*product.Product
	orders   map[uuid.UUID]*Order
}

func newFakeWorld(products ...*product.Product) *fakeWorld {
	w := &fakeWorld{
		products: make(map[uuid.UUID]*product.Product),
		orders:   make(map[uuid.UUID]*Order),
	}
	for _, p := range products {
		cp := *p
		w.products[p.ID] = &cp
	}
	return w
}

func (w *fakeWorld) InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	savedProducts := make(map[uuid.UUID]*product.Product, len(w.products))
	for id, p := range w.products {
		cp := *p
		savedProducts[id] = &cp
	}
	savedOrders := make(map[uuid.UUID]*Order, len(w.orders))
	for id, o := range w.orders {
		savedOrders[id] = copyOrder(o)
	}

	if err := fn(ctx, w); err != nil {
		w.products = savedProducts
		w.orders = savedOrders
		return err
	}
	return nil
}

func (w *fakeWorld) Orders() Store             { return (*fakeOrderStore)(w) }
func (w *fakeWorld) Inventory() product.Ledger { return (*fakeLedger)(w) }

type fakeLedger fakeWorld

func (l *fakeLedger) Reserve(_ context.Context, id uuid.UUID, qty int) (*product.Product, error) {
	p, ok := l.products[id]
	if !ok || !p.IsActive {
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
	p.Stock -= qty
	p.IsActive = p.Stock > 0
	snap := *p
	return &snap, nil
}

func (l *fakeLedger) Release(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := l.products[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Stock += qty
	p.IsActive = true
	return nil
}

type fakeOrderStore fakeWorld

func (s *fakeOrderStore) Create(_ context.Context, o *Order) error {
	o.Total = Total(o.Lines)
	o.CreatedAt = time.Now()
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *fakeOrderStore) ReplaceLines(_ context.Context, orderID uuid.UUID, lines []Line) error {
	o, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Lines = copyLines(lines)
	o.Total = Total(lines)
	return nil
}

func (s *fakeOrderStore) Get(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *fakeOrderStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.Get(ctx, id)
}

func (s *fakeOrderStore) SetStatus(_ context.Context, id uuid.UUID, status Status) error {
	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (s *fakeOrderStore) List(_ context.Context, q ListQuery) ([]Order, error) {
	var out []Order
	for _, o := range s.orders {
		if q.ClientID != nil && o.ClientID != *q.ClientID {
			continue
		}
		if q.SellerID != nil && (o.SellerID == nil || *o.SellerID != *q.SellerID) {
			continue
		}
		if q.Status != nil && o.Status != *q.Status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	return out, nil
}

func copyOrder(o *Order) *Order {
	cp := *o
	cp.Lines = copyLines(o.Lines)
	if o.SellerID != nil {
		id := *o.SellerID
		cp.SellerID = &id
	}
	return &cp
}

func copyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// --- Helpers ---

func newTestProduct(name string, price string, stock int) *product.Product {
	return &product.Product{
		ID:       uuid.New(),
		Name:     name,
		SKU:      product.GenerateSKU(name, "test"),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: stock > 0,
	}
}

func client() auth.Principal { return auth.Principal{ID: uuid.New(), Role: auth.RoleClient} }
func staff() auth.Principal  { return auth.Principal{ID: uuid.New(), Role: auth.RoleStaff} }
func admin() auth.Principal  { return auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin} }

func lineOf(p *product.Product, qty int) LineInput {
	return LineInput{ProductID: p.ID, Quantity: qty}
}

// --- Create ---

func TestCreate_ClientOrdersForSelf(t *testing.T) {
	pA := newTestProduct("Widget", "10.50", 5)
	pB := newTestProduct("Gadget", "3.25", 8)
	w := newFakeWorld(pA, pB)
	svc := NewService(w, w.Orders())
	cl := client()

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 2), lineOf(pB, 1)},
	})

	require.NoError(t, err)
	assert.Equal(t, cl.ID, o.ClientID)
	assert.Nil(t, o.SellerID)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, decimal.RequireFromString("24.25").Equal(o.Total), "got %s", o.Total)
	assert.Equal(t, 3, w.products[pA.ID].Stock)
	assert.Equal(t, 7, w.products[pB.ID].Stock)
}

func TestCreate_EmptyLines(t *testing.T) {
	w := newFakeWorld()
	svc := NewService(w, w.Orders())

	_, err := svc.Create(context.Background(), client(), CreateRequest{})
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreate_StaffRequiresClient(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())

	_, err := svc.Create(context.Background(), staff(), CreateRequest{
		Lines: []LineInput{lineOf(pA, 1)},
	})
	require.ErrorIs(t, err, ErrMissingClient)
}

func TestCreate_StaffSellsOnBehalf(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	seller := staff()
	buyer := uuid.New()

	o, err := svc.Create(context.Background(), seller, CreateRequest{
		ClientID: &buyer,
		Lines:    []LineInput{lineOf(pA, 1)},
	})

	require.NoError(t, err)
	assert.Equal(t, buyer, o.ClientID)
	require.NotNil(t, o.SellerID)
	assert.Equal(t, seller.ID, *o.SellerID)
}

func TestCreate_AdminOrdersWithoutSeller(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	buyer := uuid.New()

	o, err := svc.Create(context.Background(), admin(), CreateRequest{
		ClientID: &buyer,
		Lines:    []LineInput{lineOf(pA, 1)},
	})

	require.NoError(t, err)
	assert.Equal(t, buyer, o.ClientID)
	assert.Nil(t, o.SellerID)

	_, err = svc.Create(context.Background(), admin(), CreateRequest{
		Lines: []LineInput{lineOf(pA, 1)},
	})
	require.ErrorIs(t, err, ErrMissingClient)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())

	_, err := svc.Create(context.Background(), client(), CreateRequest{
		Lines: []LineInput{{ProductID: pA.ID, Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, pA.ID, iqErr.ProductID)
}

func TestCreate_InsufficientStockRollsBack(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	pB := newTestProduct("Gadget", "4.00", 1)
	w := newFakeWorld(pA, pB)
	svc := NewService(w, w.Orders())

	_, err := svc.Create(context.Background(), client(), CreateRequest{
		Lines: []LineInput{lineOf(pA, 2), lineOf(pB, 3)},
	})

	var isErr *product.InsufficientStockError
	require.ErrorAs(t, err, &isErr)
	assert.Equal(t, pB.ID, isErr.ProductID)
	assert.Equal(t, 3, isErr.Requested)
	assert.Equal(t, 1, isErr.Available)

	// Nothing persisted, no partially decremented stock.
	assert.Equal(t, 5, w.products[pA.ID].Stock)
	assert.Equal(t, 1, w.products[pB.ID].Stock)
	assert.Empty(t, w.orders)
}

func TestCreate_InactiveProductUnavailable(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 0)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())

	_, err := svc.Create(context.Background(), client(), CreateRequest{
		Lines: []LineInput{lineOf(pA, 1)},
	})

	var puErr *product.ProductUnavailableError
	require.ErrorAs(t, err, &puErr)
	assert.Equal(t, pA.ID, puErr.ProductID)
}

func TestCreate_UnknownProductUnavailable(t *testing.T) {
	w := newFakeWorld()
	svc := NewService(w, w.Orders())

	_, err := svc.Create(context.Background(), client(), CreateRequest{
		Lines: []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})

	var puErr *product.ProductUnavailableError
	require.ErrorAs(t, err, &puErr)
}

func TestCreate_MergesDuplicateLines(t *testing.T) {
	pA := newTestProduct("Widget", "2.00", 10)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())

	o, err := svc.Create(context.Background(), client(), CreateRequest{
		Lines: []LineInput{lineOf(pA, 1), lineOf(pA, 2)},
	})

	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 3, o.Lines[0].Quantity)
	assert.Equal(t, 7, w.products[pA.ID].Stock)
}

func TestCreate_ExhaustingStockDeactivatesProduct(t *testing.T) {
	pA := newTestProduct("Widget", "2.00", 3)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())

	_, err := svc.Create(context.Background(), client(), CreateRequest{
		Lines: []LineInput{lineOf(pA, 3)},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, w.products[pA.ID].Stock)
	assert.False(t, w.products[pA.ID].IsActive)
}

// --- Edit ---

func TestEdit_RoundTripRestoresAndReserves(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	pB := newTestProduct("Gadget", "4.00", 5)
	w := newFakeWorld(pA, pB)
	svc := NewService(w, w.Orders())
	cl := client()

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 2)},
	})
	require.NoError(t, err)
	require.Equal(t, 3, w.products[pA.ID].Stock)

	edited, err := svc.Edit(context.Background(), cl, o.ID, []LineInput{
		lineOf(pA, 1), lineOf(pB, 1),
	})

	require.NoError(t, err)
	// A: released 2, reserved 1 — net +1 against the pre-edit value.
	assert.Equal(t, 4, w.products[pA.ID].Stock)
	assert.Equal(t, 4, w.products[pB.ID].Stock)
	assert.Len(t, edited.Lines, 2)
	assert.True(t, decimal.RequireFromString("14.00").Equal(edited.Total), "got %s", edited.Total)
}

func TestEdit_CanGrowWithinOwnReservation(t *testing.T) {
	// Stock 5, order holds 4; growing to 5 only works if the old
	// reservation is released before the new check.
	pA := newTestProduct("Widget", "1.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	cl := client()

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 4)},
	})
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), cl, o.ID, []LineInput{lineOf(pA, 5)})
	require.NoError(t, err)
	assert.Equal(t, 0, w.products[pA.ID].Stock)
	assert.False(t, w.products[pA.ID].IsActive)
}

func TestEdit_FailureRestoresPreEditState(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	pB := newTestProduct("Gadget", "4.00", 1)
	w := newFakeWorld(pA, pB)
	svc := NewService(w, w.Orders())
	cl := client()

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 2)},
	})
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), cl, o.ID, []LineInput{
		lineOf(pA, 1), lineOf(pB, 2),
	})

	var isErr *product.InsufficientStockError
	require.ErrorAs(t, err, &isErr)

	// Old lines and old stock levels restored.
	assert.Equal(t, 3, w.products[pA.ID].Stock)
	assert.Equal(t, 1, w.products[pB.ID].Stock)
	stored, err := svc.Get(context.Background(), cl, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, 2, stored.Lines[0].Quantity)
}

func TestEdit_OwnershipEnforced(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	owner := client()

	o, err := svc.Create(context.Background(), owner, CreateRequest{
		Lines: []LineInput{lineOf(pA, 1)},
	})
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), client(), o.ID, []LineInput{lineOf(pA, 2)})
	require.ErrorIs(t, err, ErrForbidden)

	// Staff who did not sell the order are rejected too.
	_, err = svc.Edit(context.Background(), staff(), o.ID, []LineInput{lineOf(pA, 2)})
	require.ErrorIs(t, err, ErrForbidden)

	// Admin bypasses ownership.
	_, err = svc.Edit(context.Background(), admin(), o.ID, []LineInput{lineOf(pA, 2)})
	require.NoError(t, err)
}

func TestEdit_StaffEditsOwnSale(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	seller := staff()
	buyer := uuid.New()

	o, err := svc.Create(context.Background(), seller, CreateRequest{
		ClientID: &buyer,
		Lines:    []LineInput{lineOf(pA, 1)},
	})
	require.NoError(t, err)

	edited, err := svc.Edit(context.Background(), seller, o.ID, []LineInput{lineOf(pA, 3)})
	require.NoError(t, err)
	assert.Equal(t, 3, edited.Lines[0].Quantity)
}

func TestEdit_NotFound(t *testing.T) {
	w := newFakeWorld()
	svc := NewService(w, w.Orders())

	pA := newTestProduct("Widget", "10.00", 5)
	_, err := svc.Edit(context.Background(), client(), uuid.New(), []LineInput{lineOf(pA, 1)})
	require.ErrorIs(t, err, ErrNotFound)
}

// Existence is checked before the body: an empty edit of a missing order is
// not found, an empty edit of a live order is an empty-order error.
func TestEdit_EmptyLinesAfterExistenceCheck(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 5)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	cl := client()

	_, err := svc.Edit(context.Background(), cl, uuid.New(), nil)
	require.ErrorIs(t, err, ErrNotFound)

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 1)},
	})
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), cl, o.ID, nil)
	require.ErrorIs(t, err, ErrEmptyOrder)

	// The rejected edit must not have touched the reservation.
	require.Equal(t, 4, w.products[pA.ID].Stock)
}

// --- Cancel ---

func TestCancel_ReleasesStockAndSetsStatus(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 10)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	cl := client()

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 3)},
	})
	require.NoError(t, err)
	require.Equal(t, 7, w.products[pA.ID].Stock)

	cancelled, err := svc.Cancel(context.Background(), cl, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, w.products[pA.ID].Stock)
	assert.True(t, w.products[pA.ID].IsActive)
}

func TestCancel_SecondCallIsIllegalAndDoesNotDoubleRelease(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 10)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	cl := client()

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 3)},
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), cl, o.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), cl, o.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 10, w.products[pA.ID].Stock)
}

func TestCancel_OwnershipEnforced(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 10)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())

	o, err := svc.Create(context.Background(), client(), CreateRequest{
		Lines: []LineInput{lineOf(pA, 1)},
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), client(), o.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 9, w.products[pA.ID].Stock)
}

// --- Complete ---

func TestComplete_AdminOnly(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 10)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	cl := client()

	o, err := svc.Create(context.Background(), cl, CreateRequest{
		Lines: []LineInput{lineOf(pA, 2)},
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), cl, o.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Complete(context.Background(), staff(), o.ID)
	require.ErrorIs(t, err, ErrForbidden)

	done, err := svc.Complete(context.Background(), admin(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	// Stock was committed at creation time and is not touched here.
	assert.Equal(t, 8, w.products[pA.ID].Stock)
}

func TestComplete_TerminalStatesRejectEverything(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 10)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	adm := admin()
	buyer := uuid.New()

	o, err := svc.Create(context.Background(), adm, CreateRequest{
		ClientID: &buyer,
		Lines:    []LineInput{lineOf(pA, 2)},
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), adm, o.ID)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), adm, o.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)

	_, err = svc.Cancel(context.Background(), adm, o.ID)
	require.ErrorIs(t, err, ErrIllegalTransition)

	_, err = svc.Edit(context.Background(), adm, o.ID, []LineInput{lineOf(pA, 1)})
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 8, w.products[pA.ID].Stock)
}

// --- Read paths ---

func TestGet_VisibilityReportsNotFound(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 10)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	owner := client()

	o, err := svc.Create(context.Background(), owner, CreateRequest{
		Lines: []LineInput{lineOf(pA, 1)},
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = svc.Get(context.Background(), client(), o.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), admin(), o.ID)
	require.NoError(t, err)
}

func TestList_VisibilityByRole(t *testing.T) {
	pA := newTestProduct("Widget", "10.00", 100)
	w := newFakeWorld(pA)
	svc := NewService(w, w.Orders())
	ctx := context.Background()

	cl := client()
	seller := staff()
	otherBuyer := uuid.New()

	_, err := svc.Create(ctx, cl, CreateRequest{Lines: []LineInput{lineOf(pA, 1)}})
	require.NoError(t, err)
	sold, err := svc.Create(ctx, seller, CreateRequest{
		ClientID: &otherBuyer,
		Lines:    []LineInput{lineOf(pA, 1)},
	})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, seller, sold.ID)
	require.NoError(t, err)

	all, err := svc.List(ctx, admin(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, cl, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, cl.ID, mine[0].ClientID)

	sales, err := svc.List(ctx, seller, nil)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, seller.ID, *sales[0].SellerID)

	cancelled := StatusCancelled
	filtered, err := svc.List(ctx, admin(), &cancelled)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, StatusCancelled, filtered[0].Status)
}

// --- Full scenario ---

func TestLifecycle_CreateCancelEdit(t *testing.T) {
	pP := newTestProduct("Widget", "5.00", 10)
	w := newFakeWorld(pP)
	svc := NewService(w, w.Orders())
	cl := client()
	ctx := context.Background()

	o, err := svc.Create(ctx, cl, CreateRequest{Lines: []LineInput{lineOf(pP, 3)}})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15.00").Equal(o.Total))
	assert.Equal(t, 7, w.products[pP.ID].Stock)

	_, err = svc.Cancel(ctx, cl, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, w.products[pP.ID].Stock)

	got, err := svc.Get(ctx, cl, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	_, err = svc.Edit(ctx, cl, o.ID, []LineInput{lineOf(pP, 1)})
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestTotal_RoundsOnceAtTheEnd(t *testing.T) {
	lines := []Line{
		{Quantity: 3, Price: decimal.RequireFromString("0.115")},
		{Quantity: 1, Price: decimal.RequireFromString("0.115")},
	}
	// Per-line rounding would give 0.35 + 0.12 = 0.47; a single final
	// rounding of 0.460 gives 0.46.
	assert.True(t, decimal.RequireFromString("0.46").Equal(Total(lines)))
}
