package procurement

import (
	"context"
	"log/slog"
	"time"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Notifier delivers order lifecycle notifications. Implementations
// enqueue work; failures are logged and never fail the order.
type Notifier interface {
	OrderCompleted(ctx context.Context, order PurchaseOrder) error
}

// CacheInvalidator drops a tenant's cached dashboard views. Pending
// counts and pending value change on every order mutation, not only
// when stock moves.
type CacheInvalidator interface {
	InvalidateTenant(ctx context.Context, userID int64) error
}

// Service wraps purchase order business rules.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	hooks    ledger.IntegrationHandler
	notifier Notifier
	cache    CacheInvalidator
}

// NewService constructs a Service. hooks and notifier may be nil.
func NewService(logger *slog.Logger, repo Repository, hooks ledger.IntegrationHandler, notifier Notifier) *Service {
	return &Service{logger: logger, repo: repo, hooks: hooks, notifier: notifier}
}

// WithCache enables dashboard cache invalidation on order changes.
func (s *Service) WithCache(cache CacheInvalidator) *Service {
	s.cache = cache
	return s
}

func (s *Service) bumpCache(ctx context.Context, scope tenancy.Scope) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTenant(ctx, scope.UserID); err != nil {
		s.logger.Warn("dashboard cache invalidation failed",
			slog.Int64("user_id", scope.UserID),
			slog.Any("error", err))
	}
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]PurchaseOrder, int, error) {
	return s.repo.List(ctx, scope, filter)
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (PurchaseOrder, error) {
	if id <= 0 {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, scope, id)
}

// Create opens a pending order. The product and the optional supplier
// must resolve within the tenant; an unknown id is not found, the same
// answer a direct lookup would give.
func (s *Service) Create(ctx context.Context, scope tenancy.Scope, input CreateInput) (PurchaseOrder, error) {
	if input.QuantityOrdered <= 0 || input.UnitCostCents < 0 {
		return PurchaseOrder{}, shared.ErrValidation
	}
	ok, err := s.repo.ProductExists(ctx, scope, input.ProductID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if !ok {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	if input.SupplierID > 0 {
		ok, err := s.repo.SupplierExists(ctx, scope, input.SupplierID)
		if err != nil {
			return PurchaseOrder{}, err
		}
		if !ok {
			return PurchaseOrder{}, shared.ErrNotFound
		}
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}
	order, err := s.repo.Create(ctx, scope, PurchaseOrder{
		SupplierID:      input.SupplierID,
		ProductID:       input.ProductID,
		QuantityOrdered: input.QuantityOrdered,
		UnitCostCents:   input.UnitCostCents,
		Status:          StatusPending,
		Notes:           input.Notes,
		OrderDate:       orderDate,
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.bumpCache(ctx, scope)
	return order, nil
}

// Update applies a patch in one transaction. The transition decision
// is made against the stored status re-read under lock, so completing
// an already completed order never restocks twice: the second request
// sees `completed` and changes nothing.
func (s *Service) Update(ctx context.Context, scope tenancy.Scope, id int64, input UpdateInput) (PurchaseOrder, error) {
	if err := validatePatch(input); err != nil {
		return PurchaseOrder{}, err
	}
	if input.SupplierID != nil && *input.SupplierID > 0 {
		ok, err := s.repo.SupplierExists(ctx, scope, *input.SupplierID)
		if err != nil {
			return PurchaseOrder{}, err
		}
		if !ok {
			return PurchaseOrder{}, shared.ErrNotFound
		}
	}

	var (
		updated   PurchaseOrder
		posted    *ledger.Result
		completed bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.OrderForUpdate(ctx, scope, id)
		if err != nil {
			return err
		}

		completing := false
		if input.Status != nil && *input.Status != order.Status {
			if order.Status.Terminal() {
				return shared.ErrInvalidState
			}
			switch *input.Status {
			case StatusCompleted:
				completing = true
			case StatusCancelled:
				// pending only, no stock effect
			default:
				return shared.ErrInvalidState
			}
			order.Status = *input.Status
		}

		if input.QuantityOrdered != nil && *input.QuantityOrdered != order.QuantityOrdered {
			// The ordered quantity is frozen once it has moved stock or
			// the order is closed.
			if order.Status.Terminal() && !completing {
				return shared.ErrInvalidState
			}
			if completing {
				return shared.ErrInvalidState
			}
			order.QuantityOrdered = *input.QuantityOrdered
		}
		if input.UnitCostCents != nil {
			order.UnitCostCents = *input.UnitCostCents
		}
		if input.Notes != nil {
			order.Notes = *input.Notes
		}
		if input.SupplierID != nil {
			// Zero detaches the supplier.
			order.SupplierID = *input.SupplierID
		}

		if hasRating(input) {
			if order.Status != StatusCompleted {
				return shared.ErrInvalidState
			}
			applyRating(&order, input)
		}

		if completing {
			now := time.Now().UTC()
			order.CompletedAt = &now
			res, err := ledger.Apply(ctx, tx, scope, ledger.ApplyInput{
				ProductID:     order.ProductID,
				Type:          ledger.MovementRestock,
				Delta:         order.QuantityOrdered,
				ReferenceID:   order.ID,
				ReferenceType: "purchase_order",
			})
			if err != nil {
				return err
			}
			posted = &res
			completed = true
		}

		if err := tx.UpdateOrder(ctx, scope, id, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	if posted != nil && s.hooks != nil {
		if err := s.hooks.HandleMovementPosted(ctx, ledger.EventFromResult(*posted)); err != nil {
			s.logger.Warn("movement hook failed",
				slog.Int64("order_id", id),
				slog.Any("error", err))
		}
	}
	if completed && s.notifier != nil {
		if err := s.notifier.OrderCompleted(ctx, updated); err != nil {
			s.logger.Warn("order completion notification failed",
				slog.Int64("order_id", id),
				slog.Any("error", err))
		}
	}
	s.bumpCache(ctx, scope)
	return s.repo.Get(ctx, scope, id)
}

// Delete removes an order at any status. Movements already posted by a
// completion stay in the ledger; deletion is bookkeeping, not a
// reversal.
func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		return err
	}
	s.bumpCache(ctx, scope)
	return nil
}

func validatePatch(input UpdateInput) error {
	if input.QuantityOrdered != nil && *input.QuantityOrdered <= 0 {
		return shared.ErrValidation
	}
	if input.UnitCostCents != nil && *input.UnitCostCents < 0 {
		return shared.ErrValidation
	}
	if input.Status != nil && !input.Status.Valid() {
		return shared.ErrValidation
	}
	for _, score := range []*int32{input.OnTimeDelivery, input.QualityScore, input.CostEfficiency, input.OverallRating} {
		if score != nil && (*score < 1 || *score > 5) {
			return shared.ErrValidation
		}
	}
	return nil
}

func hasRating(input UpdateInput) bool {
	return input.OnTimeDelivery != nil || input.QualityScore != nil || input.CostEfficiency != nil || input.OverallRating != nil
}

func applyRating(order *PurchaseOrder, input UpdateInput) {
	if input.OnTimeDelivery != nil {
		order.OnTimeDelivery = *input.OnTimeDelivery
	}
	if input.QualityScore != nil {
		order.QualityScore = *input.QualityScore
	}
	if input.CostEfficiency != nil {
		order.CostEfficiency = *input.CostEfficiency
	}
	if input.OverallRating != nil {
		order.OverallRating = *input.OverallRating
	}
}
