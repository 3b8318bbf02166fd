package sales

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

// TxRepository is the transactional view of sale persistence. It
// embeds the ledger store so the sale row and its movement share one
// transaction.
type TxRepository interface {
	ledger.TxStore
	InsertSale(ctx context.Context, scope tenancy.Scope, sale Sale) (Sale, error)
	ProductPrice(ctx context.Context, scope tenancy.Scope, productID int64) (int64, error)
}

// Repository describes sale persistence.
type Repository interface {
	List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Sale, int, error)
	Get(ctx context.Context, scope tenancy.Scope, id int64) (Sale, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const saleColumns = `id, user_id, product_id, quantity, unit_price_cents, total_cents, sale_date, COALESCE(notes, ''), created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.UserID, &s.ProductID, &s.Quantity, &s.UnitPriceCents, &s.TotalCents, &s.SaleDate, &s.Notes, &s.CreatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Sale, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{scope.UserID}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		where += ` AND product_id = $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += ` AND sale_date >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += ` AND sale_date <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM product_sales`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := `SELECT ` + saleColumns + ` FROM product_sales` + where +
		` ORDER BY sale_date DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, scope tenancy.Scope, id int64) (Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM product_sales WHERE id = $1 AND user_id = $2`, id, scope.UserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}
	return s, nil
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

func (t *txRepository) InsertSale(ctx context.Context, scope tenancy.Scope, sale Sale) (Sale, error) {
	const query = `INSERT INTO product_sales
		(user_id, product_id, quantity, unit_price_cents, total_cents, sale_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NOW())
		RETURNING ` + saleColumns
	return scanSale(t.tx.QueryRow(ctx, query,
		scope.UserID, sale.ProductID, sale.Quantity, sale.UnitPriceCents, sale.TotalCents, sale.SaleDate, sale.Notes))
}

func (t *txRepository) ProductPrice(ctx context.Context, scope tenancy.Scope, productID int64) (int64, error) {
	var price int64
	err := t.tx.QueryRow(ctx, `SELECT price_cents FROM products WHERE id = $1 AND user_id = $2`, productID, scope.UserID).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return price, err
}
