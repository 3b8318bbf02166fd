package sales

import "time"

// Sale records one completed product sale. The matching stock movement
// is written in the same transaction, so a sale row always has a
// ledger entry and the quantity counter reflects both or neither.
type Sale struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ProductID      int64     `json:"product_id"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`
	SaleDate       time.Time `json:"sale_date"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordInput describes a sale to record. UnitPriceCents falls back to
// the product's current price when zero. SaleDate falls back to now.
type RecordInput struct {
	ProductID      int64
	Quantity       int64
	UnitPriceCents int64
	SaleDate       time.Time
	Notes          string
}

// ListFilter narrows sale listings.
type ListFilter struct {
	ProductID int64
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}
