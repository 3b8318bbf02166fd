package categories

import "time"

// Category groups products inside one tenant. Name is unique per tenant.
type Category struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput describes a category creation payload.
type CreateInput struct {
	Name        string
	Description string
}

// UpdateInput patches a category. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
}
