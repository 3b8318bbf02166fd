package suppliers

import (
	"context"
	"errors"
	"strings"

	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Service wraps supplier business rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope) ([]Supplier, error) {
	return s.repo.List(ctx, scope)
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, scope, id)
}

// ResolveByName maps a supplier name to its row within the tenant.
// Used by the batch importer for name-based references.
func (s *Service) ResolveByName(ctx context.Context, scope tenancy.Scope, name string) (Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Supplier{}, shared.ErrNotFound
	}
	return s.repo.FindByName(ctx, scope, name)
}

// Create inserts a supplier. Name uniqueness is checked optimistically
// first; a concurrent winner surfaces as the same ErrDuplicateName via
// the unique-constraint translation in the repository.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, input CreateInput) (Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Supplier{}, shared.ErrValidation
	}
	if _, err := s.repo.FindByName(ctx, scope, name); err == nil {
		return Supplier{}, shared.ErrDuplicateName
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, scope, Supplier{
		Name:        name,
		ContactName: strings.TrimSpace(input.ContactName),
		Email:       strings.TrimSpace(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Address:     strings.TrimSpace(input.Address),
	})
}

func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id int64, input UpdateInput) (Supplier, error) {
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return Supplier{}, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Supplier{}, shared.ErrValidation
		}
		if !strings.EqualFold(name, current.Name) {
			if _, err := s.repo.FindByName(ctx, scope, name); err == nil {
				return Supplier{}, shared.ErrDuplicateName
			} else if !errors.Is(err, shared.ErrNotFound) {
				return Supplier{}, err
			}
		}
		current.Name = name
	}
	if input.ContactName != nil {
		current.ContactName = strings.TrimSpace(*input.ContactName)
	}
	if input.Email != nil {
		current.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		current.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		current.Address = strings.TrimSpace(*input.Address)
	}
	if err := s.repo.Update(ctx, scope, id, current); err != nil {
		return Supplier{}, err
	}
	return s.repo.Get(ctx, scope, id)
}

// Delete removes a supplier unless products still reference it.
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
