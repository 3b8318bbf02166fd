package ledger

import (
	"context"
	"time"
)

// MovementPostedEvent is emitted after a movement has committed.
type MovementPostedEvent struct {
	UserID            int64
	ProductID         int64
	ProductName       string
	Type              MovementType
	QuantityChange    int64
	QuantityAfter     int64
	LowStockThreshold int64
	PostedAt          time.Time
}

// IntegrationHandler receives ledger events for cache invalidation and
// stock alerting. Handlers run after commit; their errors never undo
// the movement.
type IntegrationHandler interface {
	HandleMovementPosted(ctx context.Context, evt MovementPostedEvent) error
}

// EventFromResult builds the post-commit event for a committed movement.
func EventFromResult(res Result) MovementPostedEvent {
	return MovementPostedEvent{
		UserID:            res.Movement.UserID,
		ProductID:         res.Movement.ProductID,
		ProductName:       res.Product.Name,
		Type:              res.Movement.Type,
		QuantityChange:    res.Movement.QuantityChange,
		QuantityAfter:     res.Movement.QuantityAfter,
		LowStockThreshold: res.Product.LowStockThreshold,
		PostedAt:          res.Movement.TransactionDate,
	}
}
