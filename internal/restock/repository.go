package restock

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Repository reads dashboard aggregates straight from the catalog and
// order tables.
type Repository interface {
	LowStock(ctx context.Context, scope tenancy.Scope) ([]StockItem, error)
	OutOfStock(ctx context.Context, scope tenancy.Scope) ([]StockItem, error)
	Summary(ctx context.Context, scope tenancy.Scope) (Summary, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const stockItemColumns = `id, name, sku, quantity, low_stock_threshold, COALESCE(supplier_id, 0)`

func scanItems(rows pgx.Rows) ([]StockItem, error) {
	defer rows.Close()
	var out []StockItem
	for rows.Next() {
		var it StockItem
		if err := rows.Scan(&it.ID, &it.Name, &it.SKU, &it.Quantity, &it.LowStockThreshold, &it.SupplierID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repository) LowStock(ctx context.Context, scope tenancy.Scope) ([]StockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+stockItemColumns+` FROM products
		WHERE user_id = $1 AND quantity > 0 AND quantity <= low_stock_threshold
		ORDER BY quantity, name`, scope.UserID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *repository) OutOfStock(ctx context.Context, scope tenancy.Scope) ([]StockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+stockItemColumns+` FROM products
		WHERE user_id = $1 AND quantity = 0
		ORDER BY name`, scope.UserID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *repository) Summary(ctx context.Context, scope tenancy.Scope) (Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `SELECT
			(SELECT COUNT(*) FROM purchase_orders WHERE user_id = $1 AND status = 'pending'),
			(SELECT COUNT(*) FROM products WHERE user_id = $1 AND quantity > 0 AND quantity <= low_stock_threshold),
			(SELECT COUNT(*) FROM products WHERE user_id = $1 AND quantity = 0),
			(SELECT COALESCE(SUM(quantity_ordered * unit_cost_cents), 0) FROM purchase_orders WHERE user_id = $1 AND status = 'pending')`,
		scope.UserID).Scan(&s.PendingOrders, &s.LowStockCount, &s.OutOfStockCount, &s.PendingValueCents)
	return s, err
}
