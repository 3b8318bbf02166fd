package ledger

import (
	"errors"
	"time"
)

// MovementType enumerates the causes of a quantity change.
type MovementType string

const (
	// MovementSale is a quantity decrease caused by a recorded sale.
	MovementSale MovementType = "sale"
	// MovementRestock is a quantity increase caused by a completed purchase order.
	MovementRestock MovementType = "restock"
	// MovementAdjustment is a manual quantity edit not tied to a sale or restock.
	MovementAdjustment MovementType = "adjustment"
	// MovementInitial records the starting quantity of a new product.
	MovementInitial MovementType = "initial"
)

// Movement is one immutable record of a quantity change and its cause.
// quantity_after always equals quantity_before + quantity_change, and
// equals the product's quantity at the moment the row was written.
type Movement struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	ProductID       int64        `json:"product_id"`
	Type            MovementType `json:"movement_type"`
	QuantityChange  int64        `json:"quantity_change"`
	QuantityBefore  int64        `json:"quantity_before"`
	QuantityAfter   int64        `json:"quantity_after"`
	ReferenceID     int64        `json:"reference_id,omitempty"`
	ReferenceType   string       `json:"reference_type,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	TransactionDate time.Time    `json:"transaction_date"`
	CreatedAt       time.Time    `json:"created_at"`
}

// ProductRow is the slice of a product the ledger reads under lock.
type ProductRow struct {
	ID                int64
	Name              string
	Quantity          int64
	LowStockThreshold int64
}

// ApplyInput describes one requested movement.
type ApplyInput struct {
	ProductID       int64
	Type            MovementType
	Delta           int64
	ReferenceID     int64
	ReferenceType   string
	Notes           string
	TransactionDate time.Time
}

// Result carries the committed movement plus the product state after it.
type Result struct {
	Movement Movement
	Product  ProductRow
}

// ListFilter narrows movement listings.
type ListFilter struct {
	ProductID int64
	Type      MovementType
	Limit     int
	Offset    int
}

// ErrInvalidQuantity indicates a zero delta or a delta whose sign does
// not match the movement type.
var ErrInvalidQuantity = errors.New("ledger: invalid quantity change")
