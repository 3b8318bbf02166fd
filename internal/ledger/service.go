package ledger

import (
	"context"

	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// RepositoryPort describes the read operations used by Service.
type RepositoryPort interface {
	ListMovements(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Movement, int, error)
	ProductExists(ctx context.Context, scope tenancy.Scope, productID int64) (bool, error)
}

// Service exposes the movement log to callers. All writes go through
// Apply inside the writing package's transaction; Service is read-only.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListMovements returns the movement history of one product.
func (s *Service) ListMovements(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Movement, int, error) {
	if filter.ProductID <= 0 {
		return nil, 0, shared.ErrNotFound
	}
	ok, err := s.repo.ProductExists(ctx, scope, filter.ProductID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, shared.ErrNotFound
	}
	return s.repo.ListMovements(ctx, scope, filter)
}
