package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Repository describes supplier persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope) ([]Supplier, error)
	Get(ctx context.Context, scope tenancy.Scope, id int64) (Supplier, error)
	FindByName(ctx context.Context, scope tenancy.Scope, name string) (Supplier, error)
	Create(ctx context.Context, scope tenancy.Scope, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, scope tenancy.Scope, id int64, supplier Supplier) error
	Delete(ctx context.Context, scope tenancy.Scope, id int64) error
	CountProducts(ctx context.Context, scope tenancy.Scope, id int64) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const supplierColumns = `id, user_id, name, COALESCE(contact_name, ''), COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.ContactName, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, scope tenancy.Scope) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE user_id = $1 ORDER BY name`, scope.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, scope tenancy.Scope, id int64) (Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1 AND user_id = $2`, id, scope.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *repository) FindByName(ctx context.Context, scope tenancy.Scope, name string) (Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE user_id = $1 AND LOWER(name) = LOWER($2)`, scope.UserID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *repository) Create(ctx context.Context, scope tenancy.Scope, supplier Supplier) (Supplier, error) {
	const query = `INSERT INTO suppliers (user_id, name, contact_name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NOW(), NOW())
		RETURNING ` + supplierColumns
	s, err := scanSupplier(r.pool.QueryRow(ctx, query,
		scope.UserID, supplier.Name, supplier.ContactName, supplier.Email, supplier.Phone, supplier.Address))
	if err != nil {
		if db.IsUniqueViolation(err, "name") {
			return Supplier{}, shared.ErrDuplicateName
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *repository) Update(ctx context.Context, scope tenancy.Scope, id int64, supplier Supplier) error {
	const query = `UPDATE suppliers SET name = $1, contact_name = NULLIF($2, ''), email = NULLIF($3, ''),
		phone = NULLIF($4, ''), address = NULLIF($5, ''), updated_at = NOW()
		WHERE id = $6 AND user_id = $7`
	tag, err := r.pool.Exec(ctx, query,
		supplier.Name, supplier.ContactName, supplier.Email, supplier.Phone, supplier.Address, id, scope.UserID)
	if err != nil {
		if db.IsUniqueViolation(err, "name") {
			return shared.ErrDuplicateName
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1 AND user_id = $2`, id, scope.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountProducts(ctx context.Context, scope tenancy.Scope, id int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE supplier_id = $1 AND user_id = $2`, id, scope.UserID).Scan(&count)
	return count, err
}
