package procurement

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

type stockRow struct {
	owner    int64
	name     string
	quantity int64
}

type memoryRepo struct {
	orders    map[int64]PurchaseOrder
	products  map[int64]*stockRow
	suppliers map[int64]int64 // id -> owner
	movements []ledger.Movement
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:    make(map[int64]PurchaseOrder),
		products:  make(map[int64]*stockRow),
		suppliers: make(map[int64]int64),
	}
}

func (r *memoryRepo) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]PurchaseOrder, int, error) {
	var out []PurchaseOrder
	for _, o := range r.orders {
		if o.UserID != scope.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (PurchaseOrder, error) {
	o, ok := r.orders[id]
	if !ok || o.UserID != scope.UserID {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	return o, nil
}

func (r *memoryRepo) Create(ctx context.Context, scope tenancy.Scope, order PurchaseOrder) (PurchaseOrder, error) {
	r.nextID++
	order.ID = r.nextID
	order.UserID = scope.UserID
	r.orders[order.ID] = order
	return order, nil
}

func (r *memoryRepo) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	o, ok := r.orders[id]
	if !ok || o.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *memoryRepo) ProductExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error) {
	p, ok := r.products[id]
	return ok && p.owner == scope.UserID, nil
}

func (r *memoryRepo) SupplierExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error) {
	return r.suppliers[id] == scope.UserID, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) OrderForUpdate(ctx context.Context, scope tenancy.Scope, id int64) (PurchaseOrder, error) {
	return r.Get(ctx, scope, id)
}

func (r *memoryRepo) UpdateOrder(ctx context.Context, scope tenancy.Scope, id int64, order PurchaseOrder) error {
	current, ok := r.orders[id]
	if !ok || current.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	order.ID = id
	order.UserID = current.UserID
	r.orders[id] = order
	return nil
}

func (r *memoryRepo) ProductForUpdate(ctx context.Context, scope tenancy.Scope, productID int64) (ledger.ProductRow, error) {
	p, ok := r.products[productID]
	if !ok || p.owner != scope.UserID {
		return ledger.ProductRow{}, shared.ErrNotFound
	}
	return ledger.ProductRow{ID: productID, Name: p.name, Quantity: p.quantity}, nil
}

func (r *memoryRepo) InsertMovement(ctx context.Context, scope tenancy.Scope, movement ledger.Movement) (int64, error) {
	movement.ID = int64(len(r.movements) + 1)
	r.movements = append(r.movements, movement)
	return movement.ID, nil
}

func (r *memoryRepo) SetProductQuantity(ctx context.Context, scope tenancy.Scope, productID, quantity int64) error {
	p, ok := r.products[productID]
	if !ok || p.owner != scope.UserID {
		return shared.ErrNotFound
	}
	p.quantity = quantity
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(slog.Default(), repo, nil, nil)
}

func pendingOrder(t *testing.T, svc *Service, repo *memoryRepo, scope tenancy.Scope, qty int64) PurchaseOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), scope, CreateInput{ProductID: 1, QuantityOrdered: qty})
	require.NoError(t, err)
	return order
}

func statusPtr(s Status) *Status { return &s }

func TestCompleteOrderRestocksOnce(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 5}
	svc := newTestService(repo)
	scope := tenancy.Scope{UserID: 1}
	order := pendingOrder(t, svc, repo, scope, 20)

	updated, err := svc.Update(context.Background(), scope, order.ID, UpdateInput{Status: statusPtr(StatusCompleted)})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	require.EqualValues(t, 25, repo.products[1].quantity)
	require.Len(t, repo.movements, 1)
	require.Equal(t, ledger.MovementRestock, repo.movements[0].Type)
	require.EqualValues(t, order.ID, repo.movements[0].ReferenceID)

	// Completing again must not touch stock.
	again, err := svc.Update(context.Background(), scope, order.ID, UpdateInput{Status: statusPtr(StatusCompleted)})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, again.Status)
	require.EqualValues(t, 25, repo.products[1].quantity)
	require.Len(t, repo.movements, 1)
}

func TestCancelOnlyFromPending(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 5}
	svc := newTestService(repo)
	scope := tenancy.Scope{UserID: 1}
	ctx := context.Background()

	order := pendingOrder(t, svc, repo, scope, 10)
	cancelled, err := svc.Update(ctx, scope, order.ID, UpdateInput{Status: statusPtr(StatusCancelled)})
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Empty(t, repo.movements)

	// Terminal states accept no further transitions.
	_, err = svc.Update(ctx, scope, order.ID, UpdateInput{Status: statusPtr(StatusCompleted)})
	require.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = svc.Update(ctx, scope, order.ID, UpdateInput{Status: statusPtr(StatusPending)})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRatingsRequireCompletion(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 0}
	svc := newTestService(repo)
	scope := tenancy.Scope{UserID: 1}
	ctx := context.Background()

	order := pendingOrder(t, svc, repo, scope, 10)
	score := int32(4)

	_, err := svc.Update(ctx, scope, order.ID, UpdateInput{OverallRating: &score})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// Rating alongside the completing update is accepted.
	updated, err := svc.Update(ctx, scope, order.ID, UpdateInput{Status: statusPtr(StatusCompleted), OverallRating: &score})
	require.NoError(t, err)
	require.EqualValues(t, 4, updated.OverallRating)

	quality := int32(5)
	rated, err := svc.Update(ctx, scope, order.ID, UpdateInput{QualityScore: &quality})
	require.NoError(t, err)
	require.EqualValues(t, 5, rated.QualityScore)
	require.Len(t, repo.movements, 1)
}

func TestRatingOutOfRange(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 0}
	svc := newTestService(repo)
	scope := tenancy.Scope{UserID: 1}
	order := pendingOrder(t, svc, repo, scope, 1)

	score := int32(6)
	_, err := svc.Update(context.Background(), scope, order.ID, UpdateInput{Status: statusPtr(StatusCompleted), OverallRating: &score})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateUnknownReferencesNotFound(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 0}
	repo.suppliers[3] = 2 // other tenant
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, tenancy.Scope{UserID: 1}, CreateInput{ProductID: 99, QuantityOrdered: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Create(ctx, tenancy.Scope{UserID: 1}, CreateInput{ProductID: 1, SupplierID: 3, QuantityOrdered: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateSupplier(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 0}
	repo.suppliers[2] = 1
	repo.suppliers[3] = 2 // other tenant
	svc := newTestService(repo)
	scope := tenancy.Scope{UserID: 1}
	ctx := context.Background()

	order := pendingOrder(t, svc, repo, scope, 10)
	require.Zero(t, order.SupplierID)

	supplier := int64(2)
	updated, err := svc.Update(ctx, scope, order.ID, UpdateInput{SupplierID: &supplier})
	require.NoError(t, err)
	require.EqualValues(t, 2, updated.SupplierID)

	foreign := int64(3)
	_, err = svc.Update(ctx, scope, order.ID, UpdateInput{SupplierID: &foreign})
	require.ErrorIs(t, err, shared.ErrNotFound)

	// Zero detaches the supplier again.
	none := int64(0)
	cleared, err := svc.Update(ctx, scope, order.ID, UpdateInput{SupplierID: &none})
	require.NoError(t, err)
	require.Zero(t, cleared.SupplierID)
}

func TestDeleteCompletedOrderKeepsMovements(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 0}
	svc := newTestService(repo)
	scope := tenancy.Scope{UserID: 1}
	ctx := context.Background()

	order := pendingOrder(t, svc, repo, scope, 10)
	_, err := svc.Update(ctx, scope, order.ID, UpdateInput{Status: statusPtr(StatusCompleted)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, scope, order.ID))
	require.Len(t, repo.movements, 1)
	require.EqualValues(t, 10, repo.products[1].quantity)
}
