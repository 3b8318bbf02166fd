package suppliers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

type memoryRepo struct {
	nextID    int64
	suppliers map[int64]Supplier
	products  map[int64]int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, suppliers: map[int64]Supplier{}, products: map[int64]int{}}
}

func (m *memoryRepo) List(ctx context.Context, scope tenancy.Scope) ([]Supplier, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		if s.UserID == scope.UserID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok || s.UserID != scope.UserID {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) FindByName(ctx context.Context, scope tenancy.Scope, name string) (Supplier, error) {
	for _, s := range m.suppliers {
		if s.UserID == scope.UserID && strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return Supplier{}, shared.ErrNotFound
}

func (m *memoryRepo) Create(ctx context.Context, scope tenancy.Scope, supplier Supplier) (Supplier, error) {
	supplier.ID = m.nextID
	supplier.UserID = scope.UserID
	m.nextID++
	m.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (m *memoryRepo) Update(ctx context.Context, scope tenancy.Scope, id int64, supplier Supplier) error {
	current, ok := m.suppliers[id]
	if !ok || current.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	supplier.ID = id
	supplier.UserID = scope.UserID
	m.suppliers[id] = supplier
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	s, ok := m.suppliers[id]
	if !ok || s.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	delete(m.suppliers, id)
	return nil
}

func (m *memoryRepo) CountProducts(ctx context.Context, scope tenancy.Scope, id int64) (int, error) {
	return m.products[id], nil
}

func TestCreateDuplicateNamePerTenant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	alice := tenancy.Scope{UserID: 1}
	bob := tenancy.Scope{UserID: 2}

	_, err := svc.Create(context.Background(), alice, CreateInput{Name: "Acme Wholesale"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), alice, CreateInput{Name: "acme wholesale"})
	require.ErrorIs(t, err, shared.ErrDuplicateName)

	// Another tenant may reuse the name.
	_, err = svc.Create(context.Background(), bob, CreateInput{Name: "Acme Wholesale"})
	require.NoError(t, err)
}

func TestDeleteBlockedByProducts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	scope := tenancy.Scope{UserID: 1}

	s, err := svc.Create(context.Background(), scope, CreateInput{Name: "Acme"})
	require.NoError(t, err)

	repo.products[s.ID] = 3
	require.ErrorIs(t, svc.Delete(context.Background(), scope, s.ID), shared.ErrHasDependents)

	repo.products[s.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), scope, s.ID))
}

func TestUpdateScopedToTenant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	s, err := svc.Create(context.Background(), tenancy.Scope{UserID: 1}, CreateInput{Name: "Acme"})
	require.NoError(t, err)

	name := "Intruder"
	_, err = svc.Update(context.Background(), tenancy.Scope{UserID: 2}, s.ID, UpdateInput{Name: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)

	contact := "Jo Vendor"
	updated, err := svc.Update(context.Background(), tenancy.Scope{UserID: 1}, s.ID, UpdateInput{ContactName: &contact})
	require.NoError(t, err)
	require.Equal(t, "Jo Vendor", updated.ContactName)
	require.Equal(t, "Acme", updated.Name)
}
