package categories

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

type memoryRepo struct {
	categories map[int64]Category
	productRef map[int64]int
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{categories: make(map[int64]Category), productRef: make(map[int64]int)}
}

func (r *memoryRepo) List(ctx context.Context, scope tenancy.Scope) ([]Category, error) {
	var out []Category
	for _, c := range r.categories {
		if c.UserID == scope.UserID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (Category, error) {
	c, ok := r.categories[id]
	if !ok || c.UserID != scope.UserID {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) FindByName(ctx context.Context, scope tenancy.Scope, name string) (Category, error) {
	for _, c := range r.categories {
		if c.UserID == scope.UserID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Category{}, shared.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, scope tenancy.Scope, category Category) (Category, error) {
	if _, err := r.FindByName(ctx, scope, category.Name); err == nil {
		return Category{}, shared.ErrDuplicateName
	}
	r.nextID++
	category.ID = r.nextID
	category.UserID = scope.UserID
	r.categories[category.ID] = category
	return category, nil
}

func (r *memoryRepo) Update(ctx context.Context, scope tenancy.Scope, id int64, category Category) error {
	current, ok := r.categories[id]
	if !ok || current.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	category.ID = id
	category.UserID = current.UserID
	r.categories[id] = category
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	c, ok := r.categories[id]
	if !ok || c.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *memoryRepo) CountProducts(ctx context.Context, scope tenancy.Scope, id int64) (int, error) {
	return r.productRef[id], nil
}

func TestCreateDuplicatePerTenant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, tenancy.Scope{UserID: 1}, CreateInput{Name: "Beverages"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, tenancy.Scope{UserID: 1}, CreateInput{Name: "beverages"})
	require.ErrorIs(t, err, shared.ErrDuplicateName)

	// Same name is free for another tenant.
	_, err = svc.Create(ctx, tenancy.Scope{UserID: 2}, CreateInput{Name: "Beverages"})
	require.NoError(t, err)
}

func TestDeleteBlockedByProducts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	scope := tenancy.Scope{UserID: 1}

	cat, err := svc.Create(ctx, scope, CreateInput{Name: "Snacks"})
	require.NoError(t, err)
	repo.productRef[cat.ID] = 3

	err = svc.Delete(ctx, scope, cat.ID)
	require.ErrorIs(t, err, shared.ErrHasDependents)

	repo.productRef[cat.ID] = 0
	require.NoError(t, svc.Delete(ctx, scope, cat.ID))
}

func TestGetScopedToTenant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	cat, err := svc.Create(ctx, tenancy.Scope{UserID: 1}, CreateInput{Name: "Tools"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, tenancy.Scope{UserID: 2}, cat.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
