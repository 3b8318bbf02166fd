package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// TxStore exposes the row operations a movement needs. Implementations
// are bound to an open transaction; callers embed this interface in
// their own transactional repositories so the movement commits or rolls
// back together with the row that triggered it.
type TxStore interface {
	// ProductForUpdate locks and returns the product row within the
	// caller's tenant. Returns shared.ErrNotFound when the id does not
	// resolve inside the scope.
	ProductForUpdate(ctx context.Context, scope tenancy.Scope, productID int64) (ProductRow, error)
	InsertMovement(ctx context.Context, scope tenancy.Scope, movement Movement) (int64, error)
	SetProductQuantity(ctx context.Context, scope tenancy.Scope, productID, quantity int64) error
}

// Apply posts one movement inside the caller's transaction. It is the
// only write path for a product's quantity: the current quantity is
// re-read under lock, the movement row is written with before/after
// values, and the counter is set to the new total.
func Apply(ctx context.Context, store TxStore, scope tenancy.Scope, input ApplyInput) (Result, error) {
	if err := validateInput(input); err != nil {
		return Result{}, err
	}

	product, err := store.ProductForUpdate(ctx, scope, input.ProductID)
	if err != nil {
		return Result{}, err
	}

	before := product.Quantity
	after := before + input.Delta
	if after < 0 {
		return Result{}, fmt.Errorf("ledger: product %d: %w", input.ProductID, shared.ErrInsufficientStock)
	}

	txDate := input.TransactionDate
	if txDate.IsZero() {
		txDate = time.Now().UTC()
	}

	movement := Movement{
		UserID:          scope.UserID,
		ProductID:       input.ProductID,
		Type:            input.Type,
		QuantityChange:  input.Delta,
		QuantityBefore:  before,
		QuantityAfter:   after,
		ReferenceID:     input.ReferenceID,
		ReferenceType:   input.ReferenceType,
		Notes:           input.Notes,
		TransactionDate: txDate,
	}

	id, err := store.InsertMovement(ctx, scope, movement)
	if err != nil {
		return Result{}, err
	}
	movement.ID = id

	if err := store.SetProductQuantity(ctx, scope, input.ProductID, after); err != nil {
		return Result{}, err
	}

	product.Quantity = after
	return Result{Movement: movement, Product: product}, nil
}

func validateInput(input ApplyInput) error {
	if input.ProductID <= 0 {
		return shared.ErrNotFound
	}
	switch input.Type {
	case MovementSale:
		if input.Delta >= 0 {
			return ErrInvalidQuantity
		}
	case MovementRestock, MovementInitial:
		if input.Delta <= 0 {
			return ErrInvalidQuantity
		}
	case MovementAdjustment:
		if input.Delta == 0 {
			return ErrInvalidQuantity
		}
	default:
		return fmt.Errorf("ledger: unknown movement type %q", input.Type)
	}
	return nil
}
