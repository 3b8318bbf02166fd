package categories

import (
	"context"
	"errors"
	"strings"

	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Service wraps category business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope) ([]Category, error) {
	return s.repo.List(ctx, scope)
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, scope, id)
}

// ResolveByName maps a category name to its row within the tenant.
// Used by the batch importer for name-based references.
func (s *Service) ResolveByName(ctx context.Context, scope tenancy.Scope, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, shared.ErrNotFound
	}
	return s.repo.FindByName(ctx, scope, name)
}

// Create inserts a category. Name uniqueness is checked optimistically
// first; a concurrent winner surfaces as the same ErrDuplicateName via
// the unique-constraint translation in the repository.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, input CreateInput) (Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Category{}, shared.ErrValidation
	}
	if _, err := s.repo.FindByName(ctx, scope, name); err == nil {
		return Category{}, shared.ErrDuplicateName
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Category{}, err
	}
	return s.repo.Create(ctx, scope, Category{Name: name, Description: strings.TrimSpace(input.Description)})
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id int64, input UpdateInput) (Category, error) {
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return Category{}, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Category{}, shared.ErrValidation
		}
		if !strings.EqualFold(name, current.Name) {
			if _, err := s.repo.FindByName(ctx, scope, name); err == nil {
				return Category{}, shared.ErrDuplicateName
			} else if !errors.Is(err, shared.ErrNotFound) {
				return Category{}, err
			}
		}
		current.Name = name
	}
	if input.Description != nil {
		current.Description = strings.TrimSpace(*input.Description)
	}
	if err := s.repo.Update(ctx, scope, id, current); err != nil {
		return Category{}, err
	}
	return s.repo.Get(ctx, scope, id)
}

// Delete removes a category unless products still reference it.
func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	count, err := s.repo.CountProducts(ctx, scope, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrHasDependents
	}
	return s.repo.Delete(ctx, scope, id)
}
