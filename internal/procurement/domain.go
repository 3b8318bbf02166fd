package procurement

import "time"

// Status is a purchase order's lifecycle state. Orders start pending;
// completed and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s accepts no further status change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PurchaseOrder restocks one product, optionally from a known
// supplier. Rating fields score the supplier 1..5; zero means unrated.
type PurchaseOrder struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	SupplierID      int64      `json:"supplier_id,omitempty"`
	ProductID       int64      `json:"product_id"`
	QuantityOrdered int64      `json:"quantity_ordered"`
	UnitCostCents   int64      `json:"unit_cost_cents"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	OrderDate       time.Time  `json:"order_date"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	OnTimeDelivery  int32      `json:"on_time_delivery,omitempty"`
	QualityScore    int32      `json:"quality_score,omitempty"`
	CostEfficiency  int32      `json:"cost_efficiency,omitempty"`
	OverallRating   int32      `json:"overall_rating,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateInput describes a new purchase order. OrderDate falls back to
// now.
type CreateInput struct {
	SupplierID      int64
	ProductID       int64
	QuantityOrdered int64
	UnitCostCents   int64
	Notes           string
	OrderDate       time.Time
}

// UpdateInput patches a purchase order. Nil fields are left unchanged.
// SupplierID zero detaches the supplier.
type UpdateInput struct {
	SupplierID      *int64
	QuantityOrdered *int64
	UnitCostCents   *int64
	Status          *Status
	Notes           *string
	OnTimeDelivery  *int32
	QualityScore    *int32
	CostEfficiency  *int32
	OverallRating   *int32
}

// ListFilter narrows purchase order listings.
type ListFilter struct {
	Status     Status
	SupplierID int64
	ProductID  int64
	Limit      int
	Offset     int
}
