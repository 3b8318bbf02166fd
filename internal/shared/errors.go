package shared

import "errors"

var (
	// ErrNotFound indicates the entity is missing or owned by another tenant.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateName indicates a per-tenant name uniqueness violation.
	ErrDuplicateName = errors.New("name already exists")
	// ErrDuplicateSKU indicates a per-tenant SKU uniqueness violation.
	ErrDuplicateSKU = errors.New("sku already exists")
	// ErrInvalidReference indicates a reference that does not resolve within the tenant.
	ErrInvalidReference = errors.New("referenced entity not found")
	// ErrInsufficientStock indicates a movement that would drive quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrHasDependents indicates a delete blocked by referencing rows.
	ErrHasDependents = errors.New("entity is referenced by other records")
	// ErrInvalidState indicates a state transition the entity's lifecycle forbids.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("validation failed")
)
