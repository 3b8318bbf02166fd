package procurement

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// TxRepository is the transactional view of order persistence. The
// embedded ledger store ties the restock movement to the same
// transaction that flips the order's status.
type TxRepository interface {
	ledger.TxStore
	// OrderForUpdate locks and returns the order row. The stored status
	// read here, not the one the caller saw earlier, decides the
	// transition.
	OrderForUpdate(ctx context.Context, scope tenancy.Scope, id int64) (PurchaseOrder, error)
	UpdateOrder(ctx context.Context, scope tenancy.Scope, id int64, order PurchaseOrder) error
}

// Repository describes purchase order persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]PurchaseOrder, int, error)
	Get(ctx context.Context, scope tenancy.Scope, id int64) (PurchaseOrder, error)
	Create(ctx context.Context, scope tenancy.Scope, order PurchaseOrder) (PurchaseOrder, error)
	Delete(ctx context.Context, scope tenancy.Scope, id int64) error
	ProductExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error)
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

const orderColumns = `id, user_id, COALESCE(supplier_id, 0), product_id, quantity_ordered, unit_cost_cents, status,
	COALESCE(notes, ''), order_date, completed_at,
	COALESCE(on_time_delivery, 0), COALESCE(quality_score, 0), COALESCE(cost_efficiency, 0), COALESCE(overall_rating, 0),
	created_at, updated_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var (
		o      PurchaseOrder
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.SupplierID, &o.ProductID, &o.QuantityOrdered, &o.UnitCostCents, &status,
		&o.Notes, &o.OrderDate, &o.CompletedAt,
		&o.OnTimeDelivery, &o.QualityScore, &o.CostEfficiency, &o.OverallRating,
		&o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

func (r *repository) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]PurchaseOrder, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{scope.UserID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.SupplierID > 0 {
		args = append(args, filter.SupplierID)
		where += ` AND supplier_id = $` + strconv.Itoa(len(args))
	}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		where += ` AND product_id = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + orderColumns + ` FROM purchase_orders` + where +
		` ORDER BY order_date DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, scope tenancy.Scope, id int64) (PurchaseOrder, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 AND user_id = $2`, id, scope.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, shared.ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return o, nil
}

func (r *repository) Create(ctx context.Context, scope tenancy.Scope, order PurchaseOrder) (PurchaseOrder, error) {
	const query = `INSERT INTO purchase_orders
		(user_id, supplier_id, product_id, quantity_ordered, unit_cost_cents, status, notes, order_date, created_at, updated_at)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, NULLIF($7, ''), $8, NOW(), NOW())
		RETURNING ` + orderColumns
	return scanOrder(r.pool.QueryRow(ctx, query,
		scope.UserID, order.SupplierID, order.ProductID, order.QuantityOrdered, order.UnitCostCents,
		string(order.Status), order.Notes, order.OrderDate))
}

func (r *repository) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1 AND user_id = $2`, id, scope.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ProductExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND user_id = $2)`, id, scope.UserID).Scan(&exists)
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

func (t *txRepository) OrderForUpdate(ctx context.Context, scope tenancy.Scope, id int64) (PurchaseOrder, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, scope.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, shared.ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return o, nil
}

func (t *txRepository) UpdateOrder(ctx context.Context, scope tenancy.Scope, id int64, order PurchaseOrder) error {
	const query = `UPDATE purchase_orders SET
		supplier_id = NULLIF($1, 0), quantity_ordered = $2, unit_cost_cents = $3, status = $4, notes = NULLIF($5, ''), completed_at = $6,
		on_time_delivery = NULLIF($7, 0), quality_score = NULLIF($8, 0), cost_efficiency = NULLIF($9, 0), overall_rating = NULLIF($10, 0),
		updated_at = NOW()
		WHERE id = $11 AND user_id = $12`
	var completedAt pgtype.Timestamptz
	if order.CompletedAt != nil {
		completedAt = pgtype.Timestamptz{Time: *order.CompletedAt, Valid: true}
	}
	tag, err := t.tx.Exec(ctx, query,
		order.SupplierID, order.QuantityOrdered, order.UnitCostCents, string(order.Status), order.Notes, completedAt,
		order.OnTimeDelivery, order.QualityScore, order.CostEfficiency, order.OverallRating,
		id, scope.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
