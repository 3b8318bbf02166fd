package sales

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
	price    int64
}

type memoryRepo struct {
	products  map[int64]*stockRow
	sales     map[int64]Sale
	movements []ledger.Movement
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]*stockRow), sales: make(map[int64]Sale)}
}

func (r *memoryRepo) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Sale, int, error) {
	var out []Sale
	for _, s := range r.sales {
		if s.UserID == scope.UserID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (Sale, error) {
	s, ok := r.sales[id]
	if !ok || s.UserID != scope.UserID {
		return Sale{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryRepo) InsertSale(ctx context.Context, scope tenancy.Scope, sale Sale) (Sale, error) {
	r.nextID++
	sale.ID = r.nextID
	sale.UserID = scope.UserID
	r.sales[sale.ID] = sale
	return sale, nil
}

func (r *memoryRepo) ProductPrice(ctx context.Context, scope tenancy.Scope, productID int64) (int64, error) {
	p, ok := r.products[productID]
	if !ok || p.owner != scope.UserID {
		return 0, shared.ErrNotFound
	}
	return p.price, nil
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

func TestRecordSalePostsMovement(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 10, price: 250}
	svc := NewService(slog.Default(), repo, nil)
	scope := tenancy.Scope{UserID: 1}

	sale, err := svc.Record(context.Background(), scope, RecordInput{ProductID: 1, Quantity: 3})
	require.NoError(t, err)
	require.EqualValues(t, 250, sale.UnitPriceCents)
	require.EqualValues(t, 750, sale.TotalCents)

	require.EqualValues(t, 7, repo.products[1].quantity)
	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	require.Equal(t, ledger.MovementSale, m.Type)
	require.EqualValues(t, -3, m.QuantityChange)
	require.EqualValues(t, sale.ID, m.ReferenceID)
	require.Equal(t, "sale", m.ReferenceType)
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 2, price: 100}
	svc := NewService(slog.Default(), repo, nil)

	_, err := svc.Record(context.Background(), tenancy.Scope{UserID: 1}, RecordInput{ProductID: 1, Quantity: 5})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.EqualValues(t, 2, repo.products[1].quantity)
}

func TestRecordSaleForeignProduct(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 2, name: "Widget", quantity: 10, price: 100}
	svc := NewService(slog.Default(), repo, nil)

	_, err := svc.Record(context.Background(), tenancy.Scope{UserID: 1}, RecordInput{ProductID: 1, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordSaleRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = &stockRow{owner: 1, name: "Widget", quantity: 10, price: 100}
	svc := NewService(slog.Default(), repo, nil)

	_, err := svc.Record(context.Background(), tenancy.Scope{UserID: 1}, RecordInput{ProductID: 1, Quantity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
}
