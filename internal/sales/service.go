package sales

import (
	"context"
	"log/slog"
	"time"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Service wraps sale business rules.
type Service struct {
	logger *slog.Logger
	repo   Repository
	hooks  ledger.IntegrationHandler
}

// NewService constructs a Service. hooks may be nil.
func NewService(logger *slog.Logger, repo Repository, hooks ledger.IntegrationHandler) *Service {
	return &Service{logger: logger, repo: repo, hooks: hooks}
}

func (s *Service) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Sale, int, error) {
	return s.repo.List(ctx, scope, filter)
}

func (s *Service) Get(ctx context.Context, scope tenancy.Scope, id int64) (Sale, error) {
	if id <= 0 {
		return Sale{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, scope, id)
}

// Record writes the sale and posts the matching movement in one
// transaction. The ledger re-reads the quantity under lock, so an
// oversell is rejected even when two sales race on the same product.
func (s *Service) Record(ctx context.Context, scope tenancy.Scope, input RecordInput) (Sale, error) {
	if input.ProductID <= 0 {
		return Sale{}, shared.ErrNotFound
	}
	if input.Quantity <= 0 || input.UnitPriceCents < 0 {
		return Sale{}, shared.ErrValidation
	}

	saleDate := input.SaleDate
	if saleDate.IsZero() {
		saleDate = time.Now().UTC()
	}

	var (
		recorded Sale
		posted   ledger.Result
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		unitPrice := input.UnitPriceCents
		if unitPrice == 0 {
			price, err := tx.ProductPrice(ctx, scope, input.ProductID)
			if err != nil {
				return err
			}
			unitPrice = price
		}

		sale, err := tx.InsertSale(ctx, scope, Sale{
			ProductID:      input.ProductID,
			Quantity:       input.Quantity,
			UnitPriceCents: unitPrice,
			TotalCents:     unitPrice * input.Quantity,
			SaleDate:       saleDate,
			Notes:          input.Notes,
		})
		if err != nil {
			return err
		}

		res, err := ledger.Apply(ctx, tx, scope, ledger.ApplyInput{
			ProductID:       input.ProductID,
			Type:            ledger.MovementSale,
			Delta:           -input.Quantity,
			ReferenceID:     sale.ID,
			ReferenceType:   "sale",
			TransactionDate: saleDate,
		})
		if err != nil {
			return err
		}

		recorded = sale
		posted = res
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	if s.hooks != nil {
		if err := s.hooks.HandleMovementPosted(ctx, ledger.EventFromResult(posted)); err != nil {
			s.logger.Warn("movement hook failed",
				slog.Int64("product_id", posted.Movement.ProductID),
				slog.Any("error", err))
		}
	}
	return recorded, nil
}
