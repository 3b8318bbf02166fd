package suppliers

import "time"

// Supplier is a tenant-owned vendor record. Name is unique per tenant.
type Supplier struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput describes a supplier creation payload.
type CreateInput struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
}

// UpdateInput patches a supplier. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
}
