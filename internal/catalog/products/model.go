package products

import "time"

// Product is the central catalog record. Name is unique within the
// owning tenant; SKU is optional but unique per tenant when set.
// Quantity is derived from the movement log and is never written
// directly outside a ledger transaction.
type Product struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku,omitempty"`
	Description       string    `json:"description,omitempty"`
	PriceCents        int64     `json:"price_cents"`
	Quantity          int64     `json:"quantity"`
	LowStockThreshold int64     `json:"low_stock_threshold"`
	CategoryID        int64     `json:"category_id,omitempty"`
	SupplierID        int64     `json:"supplier_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateInput describes a product creation payload. InitialQuantity,
// when positive, is posted as an opening movement in the same
// transaction as the insert.
type CreateInput struct {
	Name              string
	SKU               string
	Description       string
	PriceCents        int64
	InitialQuantity   int64
	LowStockThreshold int64
	CategoryID        int64
	SupplierID        int64
}

// UpdateInput patches a product. Nil fields are left unchanged. A
// Quantity value that differs from the stored one is recorded as an
// adjustment movement rather than a bare counter write.
type UpdateInput struct {
	Name              *string
	SKU               *string
	Description       *string
	PriceCents        *int64
	Quantity          *int64
	LowStockThreshold *int64
	CategoryID        *int64
	SupplierID        *int64
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search     string
	CategoryID int64
	SupplierID int64
	LowStock   bool
	Limit      int
	Offset     int
}
