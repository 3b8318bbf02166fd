package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// TxRepository is the transactional view of product persistence. It
// embeds the ledger store so a product write and its movement commit
// or roll back together.
type TxRepository interface {
	ledger.TxStore
	InsertProduct(ctx context.Context, scope tenancy.Scope, product Product) (Product, error)
	UpdateProduct(ctx context.Context, scope tenancy.Scope, id int64, product Product) error
	DeleteProduct(ctx context.Context, scope tenancy.Scope, id int64) error
}

// Repository describes product persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Product, int, error)
	Get(ctx context.Context, scope tenancy.Scope, id int64) (Product, error)
	FindBySKU(ctx context.Context, scope tenancy.Scope, sku string) (Product, error)
	CategoryExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error)
	SupplierExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, user_id, name, COALESCE(sku, ''), COALESCE(description, ''), price_cents, quantity, low_stock_threshold,
	COALESCE(category_id, 0), COALESCE(supplier_id, 0), created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.SKU, &p.Description, &p.PriceCents, &p.Quantity, &p.LowStockThreshold,
		&p.CategoryID, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Product, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{scope.UserID}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += ` AND (name ILIKE $` + itoa(len(args)) + ` OR sku ILIKE $` + itoa(len(args)) + `)`
	}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		where += ` AND category_id = $` + itoa(len(args))
	}
	if filter.SupplierID > 0 {
		args = append(args, filter.SupplierID)
		where += ` AND supplier_id = $` + itoa(len(args))
	}
	if filter.LowStock {
		where += ` AND quantity <= low_stock_threshold`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY name LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, scope tenancy.Scope, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND user_id = $2`, id, scope.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) FindBySKU(ctx context.Context, scope tenancy.Scope, sku string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE user_id = $1 AND LOWER(sku) = LOWER($2)`, scope.UserID, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) CategoryExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM product_categories WHERE id = $1 AND user_id = $2)`, id, scope.UserID).Scan(&exists)
	return exists, err
}

func (r *repository) SupplierExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1 AND user_id = $2)`, id, scope.UserID).Scan(&exists)
	return exists, err
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxStore: ledger.NewTxStore(tx), tx: tx})
	})
}

type txRepository struct {
	ledger.TxStore
	tx pgx.Tx
}

func (t *txRepository) InsertProduct(ctx context.Context, scope tenancy.Scope, product Product) (Product, error) {
	const query = `INSERT INTO products
		(user_id, name, sku, description, price_cents, quantity, low_stock_threshold, category_id, supplier_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, 0), NULLIF($9, 0), NOW(), NOW())
		RETURNING ` + productColumns
	p, err := scanProduct(t.tx.QueryRow(ctx, query,
		scope.UserID, product.Name, product.SKU, product.Description, product.PriceCents,
		product.Quantity, product.LowStockThreshold, product.CategoryID, product.SupplierID))
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "sku"):
			return Product{}, shared.ErrDuplicateSKU
		case db.IsUniqueViolation(err, "name"):
			return Product{}, shared.ErrDuplicateName
		}
		return Product{}, err
	}
	return p, nil
}

func (t *txRepository) UpdateProduct(ctx context.Context, scope tenancy.Scope, id int64, product Product) error {
	const query = `UPDATE products SET name = $1, sku = NULLIF($2, ''), description = NULLIF($3, ''), price_cents = $4,
		low_stock_threshold = $5, category_id = NULLIF($6, 0), supplier_id = NULLIF($7, 0), updated_at = NOW()
		WHERE id = $8 AND user_id = $9`
	tag, err := t.tx.Exec(ctx, query,
		product.Name, product.SKU, product.Description, product.PriceCents,
		product.LowStockThreshold, product.CategoryID, product.SupplierID, id, scope.UserID)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "sku"):
			return shared.ErrDuplicateSKU
		case db.IsUniqueViolation(err, "name"):
			return shared.ErrDuplicateName
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteProduct(ctx context.Context, scope tenancy.Scope, id int64) error {
	// Dependent rows go first so the delete never trips FK constraints.
	if _, err := t.tx.Exec(ctx, `DELETE FROM stock_movements WHERE product_id = $1 AND user_id = $2`, id, scope.UserID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM product_sales WHERE product_id = $1 AND user_id = $2`, id, scope.UserID); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM products WHERE id = $1 AND user_id = $2`, id, scope.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
