package restock

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Service serves the restock dashboard through the versioned cache.
type Service struct {
	logger *slog.Logger
	repo   Repository
	cache  *Cache
}

// NewService constructs a Service. cache may be nil.
func NewService(logger *slog.Logger, repo Repository, cache *Cache) *Service {
	return &Service{logger: logger, repo: repo, cache: cache}
}

func (s *Service) LowStock(ctx context.Context, scope tenancy.Scope) ([]StockItem, error) {
	var out []StockItem
	err := s.cached(ctx, scope, "low_stock", &out, func(ctx context.Context) (interface{}, error) {
		items, err := s.repo.LowStock(ctx, scope)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []StockItem{}
		}
		return items, nil
	})
	return out, err
}

func (s *Service) OutOfStock(ctx context.Context, scope tenancy.Scope) ([]StockItem, error) {
	var out []StockItem
	err := s.cached(ctx, scope, "out_of_stock", &out, func(ctx context.Context) (interface{}, error) {
		items, err := s.repo.OutOfStock(ctx, scope)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []StockItem{}
		}
		return items, nil
	})
	return out, err
}

func (s *Service) Summary(ctx context.Context, scope tenancy.Scope) (Summary, error) {
	var out Summary
	err := s.cached(ctx, scope, "summary", &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.Summary(ctx, scope)
	})
	return out, err
}

// InvalidateTenant drops the tenant's cached views. Called whenever a
// movement posts or an order changes.
func (s *Service) InvalidateTenant(ctx context.Context, userID int64) error {
	return s.cache.Bump(ctx, userID)
}

func (s *Service) cached(ctx context.Context, scope tenancy.Scope, view string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return assign(value, dest)
	}
	key, err := s.cache.BuildKey(ctx, scope.UserID, view)
	if err != nil {
		// A broken cache never blocks the dashboard.
		s.logger.Warn("restock cache unavailable", slog.Any("error", err))
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return assign(value, dest)
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func assign(value, dest interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
