package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Repository describes category persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope) ([]Category, error)
	Get(ctx context.Context, scope tenancy.Scope, id int64) (Category, error)
	FindByName(ctx context.Context, scope tenancy.Scope, name string) (Category, error)
	Create(ctx context.Context, scope tenancy.Scope, category Category) (Category, error)
	Update(ctx context.Context, scope tenancy.Scope, id int64, category Category) error
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

const categoryColumns = `id, user_id, name, COALESCE(description, ''), created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, scope tenancy.Scope) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM product_categories WHERE user_id = $1 ORDER BY name`, scope.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) Get(ctx context.Context, scope tenancy.Scope, id int64) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM product_categories WHERE id = $1 AND user_id = $2`, id, scope.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) FindByName(ctx context.Context, scope tenancy.Scope, name string) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM product_categories WHERE user_id = $1 AND LOWER(name) = LOWER($2)`, scope.UserID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, scope tenancy.Scope, category Category) (Category, error) {
	const query = `INSERT INTO product_categories (user_id, name, description, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NOW(), NOW())
		RETURNING ` + categoryColumns
	c, err := scanCategory(r.pool.QueryRow(ctx, query, scope.UserID, category.Name, category.Description))
	if err != nil {
		if db.IsUniqueViolation(err, "name") {
			return Category{}, shared.ErrDuplicateName
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, scope tenancy.Scope, id int64, category Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE product_categories SET name = $1, description = NULLIF($2, ''), updated_at = NOW() WHERE id = $3 AND user_id = $4`,
		category.Name, category.Description, id, scope.UserID)
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_categories WHERE id = $1 AND user_id = $2`, id, scope.UserID)
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
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1 AND user_id = $2`, id, scope.UserID).Scan(&count)
	return count, err
}
