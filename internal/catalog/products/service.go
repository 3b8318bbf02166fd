package products

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Service wraps product business rules. All quantity changes flow
// through the ledger inside the repository transaction.
type Service struct {
	logger *slog.Logger
	repo   Repository
	hooks  ledger.IntegrationHandler
}

// NewService constructs a Service. hooks may be nil.
func NewService(logger *slog.Logger, repo Repository, hooks ledger.IntegrationHandler) *Service {
	return &Service{logger: logger, repo: repo, hooks: hooks}
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Product, int, error) {
	return s.repo.List(ctx, scope, filter)
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, scope, id)
}

// ResolveBySKU maps a SKU to its product within the tenant. Used by
// the batch importer for name-based references.
func (s *Service) ResolveBySKU(ctx context.Context, scope tenancy.Scope, sku string) (Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, shared.ErrNotFound
	}
	return s.repo.FindBySKU(ctx, scope, sku)
}

// Create inserts a product. A positive initial quantity is recorded as
// an opening movement in the same transaction, so the counter and the
// movement log never diverge even on the first write.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, input CreateInput) (Product, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" {
		return Product{}, shared.ErrValidation
	}
	if input.InitialQuantity < 0 || input.PriceCents < 0 || input.LowStockThreshold < 0 {
		return Product{}, shared.ErrValidation
	}
	// SKU is optional; uniqueness applies only when one is set. Products
	// without a SKU may coexist, the column stays NULL.
	if sku != "" {
		if _, err := s.repo.FindBySKU(ctx, scope, sku); err == nil {
			return Product{}, shared.ErrDuplicateSKU
		} else if !errors.Is(err, shared.ErrNotFound) {
			return Product{}, err
		}
	}
	if err := s.checkReferences(ctx, scope, input.CategoryID, input.SupplierID); err != nil {
		return Product{}, err
	}

	var (
		created Product
		posted  *ledger.Result
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.InsertProduct(ctx, scope, Product{
			Name:              name,
			SKU:               sku,
			Description:       strings.TrimSpace(input.Description),
			PriceCents:        input.PriceCents,
			Quantity:          0,
			LowStockThreshold: input.LowStockThreshold,
			CategoryID:        input.CategoryID,
			SupplierID:        input.SupplierID,
		})
		if err != nil {
			return err
		}
		created = p
		if input.InitialQuantity > 0 {
			res, err := ledger.Apply(ctx, tx, scope, ledger.ApplyInput{
				ProductID: p.ID,
				Type:      ledger.MovementInitial,
				Delta:     input.InitialQuantity,
				Notes:     "initial stock",
			})
			if err != nil {
				return err
			}
			created.Quantity = res.Product.Quantity
			posted = &res
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	if posted != nil {
		s.dispatch(ctx, *posted)
	}
	return created, nil
}

// Update patches a product. A quantity change is posted as an
// adjustment movement in the same transaction as the field update.
func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id int64, input UpdateInput) (Product, error) {
	current, err := s.Get(ctx, scope, id)
	if err != nil {
		return Product{}, err
	}

	if input.SKU != nil {
		// Empty clears the SKU; the uniqueness check runs only when a
		// new non-empty value is set.
		sku := strings.TrimSpace(*input.SKU)
		if sku != "" && !strings.EqualFold(sku, current.SKU) {
			if _, err := s.repo.FindBySKU(ctx, scope, sku); err == nil {
				return Product{}, shared.ErrDuplicateSKU
			} else if !errors.Is(err, shared.ErrNotFound) {
				return Product{}, err
			}
		}
		current.SKU = sku
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Product{}, shared.ErrValidation
		}
		current.Name = name
	}
	if input.Description != nil {
		current.Description = strings.TrimSpace(*input.Description)
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return Product{}, shared.ErrValidation
		}
		current.PriceCents = *input.PriceCents
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return Product{}, shared.ErrValidation
		}
		current.LowStockThreshold = *input.LowStockThreshold
	}

	categoryID, supplierID := current.CategoryID, current.SupplierID
	if input.CategoryID != nil {
		categoryID = *input.CategoryID
	}
	if input.SupplierID != nil {
		supplierID = *input.SupplierID
	}
	if categoryID != current.CategoryID || supplierID != current.SupplierID {
		if err := s.checkReferences(ctx, scope, categoryID, supplierID); err != nil {
			return Product{}, err
		}
	}
	current.CategoryID = categoryID
	current.SupplierID = supplierID

	var posted *ledger.Result
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateProduct(ctx, scope, id, current); err != nil {
			return err
		}
		if input.Quantity != nil {
			if *input.Quantity < 0 {
				return shared.ErrValidation
			}
			// Delta is computed against the locked row, not the value
			// read before the transaction began.
			row, err := tx.ProductForUpdate(ctx, scope, id)
			if err != nil {
				return err
			}
			delta := *input.Quantity - row.Quantity
			if delta != 0 {
				res, err := ledger.Apply(ctx, tx, scope, ledger.ApplyInput{
					ProductID: id,
					Type:      ledger.MovementAdjustment,
					Delta:     delta,
					Notes:     "manual quantity edit",
				})
				if err != nil {
					return err
				}
				posted = &res
			}
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	if posted != nil {
		s.dispatch(ctx, *posted)
	}
	return s.repo.Get(ctx, scope, id)
}

// Delete removes a product along with its movement log and sale rows.
func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteProduct(ctx, scope, id)
	})
}

func (s *Service) checkReferences(ctx context.Context, scope tenancy.Scope, categoryID, supplierID int64) error {
	if categoryID > 0 {
		ok, err := s.repo.CategoryExists(ctx, scope, categoryID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrInvalidReference
		}
	}
	if supplierID > 0 {
		ok, err := s.repo.SupplierExists(ctx, scope, supplierID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.ErrInvalidReference
		}
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, res ledger.Result) {
	if s.hooks == nil {
		return
	}
	if err := s.hooks.HandleMovementPosted(ctx, ledger.EventFromResult(res)); err != nil {
		s.logger.Warn("movement hook failed",
			slog.Int64("product_id", res.Movement.ProductID),
			slog.Any("error", err))
	}
}
