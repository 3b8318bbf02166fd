package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// txStore implements TxStore over an open pgx transaction.
type txStore struct {
	tx pgx.Tx
}

// NewTxStore binds the ledger row operations to an open transaction.
func NewTxStore(tx pgx.Tx) TxStore {
	return &txStore{tx: tx}
}

func (s *txStore) ProductForUpdate(ctx context.Context, scope tenancy.Scope, productID int64) (ProductRow, error) {
	const query = `SELECT id, name, quantity, low_stock_threshold FROM products WHERE id = $1 AND user_id = $2 FOR UPDATE`
	var row ProductRow
	err := s.tx.QueryRow(ctx, query, productID, scope.UserID).Scan(&row.ID, &row.Name, &row.Quantity, &row.LowStockThreshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductRow{}, shared.ErrNotFound
		}
		return ProductRow{}, err
	}
	return row, nil
}

func (s *txStore) InsertMovement(ctx context.Context, scope tenancy.Scope, movement Movement) (int64, error) {
	const query = `INSERT INTO stock_movements
		(user_id, product_id, movement_type, quantity_change, quantity_before, quantity_after, reference_id, reference_type, notes, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id`
	var refID pgtype.Int8
	if movement.ReferenceID != 0 {
		refID = pgtype.Int8{Int64: movement.ReferenceID, Valid: true}
	}
	var refType pgtype.Text
	if movement.ReferenceType != "" {
		refType = pgtype.Text{String: movement.ReferenceType, Valid: true}
	}
	var id int64
	err := s.tx.QueryRow(ctx, query,
		scope.UserID,
		movement.ProductID,
		string(movement.Type),
		movement.QuantityChange,
		movement.QuantityBefore,
		movement.QuantityAfter,
		refID,
		refType,
		movement.Notes,
		movement.TransactionDate,
	).Scan(&id)
	return id, err
}

func (s *txStore) SetProductQuantity(ctx context.Context, scope tenancy.Scope, productID, quantity int64) error {
	tag, err := s.tx.Exec(ctx, `UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`, quantity, productID, scope.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Repository provides read access to the movement log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListMovements returns movements for one product, newest first.
func (r *Repository) ListMovements(ctx context.Context, scope tenancy.Scope, filter ListFilter) ([]Movement, int, error) {
	countQuery := `SELECT COUNT(*) FROM stock_movements WHERE user_id = $1 AND product_id = $2`
	countArgs := []any{scope.UserID, filter.ProductID}
	if filter.Type != "" {
		countQuery += ` AND movement_type = $3`
		countArgs = append(countArgs, string(filter.Type))
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, product_id, movement_type, quantity_change, quantity_before, quantity_after,
			COALESCE(reference_id, 0), COALESCE(reference_type, ''), notes, transaction_date, created_at
		FROM stock_movements
		WHERE user_id = $1 AND product_id = $2`
	args := []any{scope.UserID, filter.ProductID}
	argNum := 3
	if filter.Type != "" {
		query += ` AND movement_type = $` + itoa(argNum)
		args = append(args, string(filter.Type))
		argNum++
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY transaction_date DESC, id DESC LIMIT $` + itoa(argNum) + ` OFFSET $` + itoa(argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		var movementType string
		if err := rows.Scan(&m.ID, &m.UserID, &m.ProductID, &movementType, &m.QuantityChange, &m.QuantityBefore, &m.QuantityAfter,
			&m.ReferenceID, &m.ReferenceType, &m.Notes, &m.TransactionDate, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		m.Type = MovementType(movementType)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// ProductExists reports whether the product resolves within the tenant.
func (r *Repository) ProductExists(ctx context.Context, scope tenancy.Scope, productID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND user_id = $2)`, productID, scope.UserID).Scan(&exists)
	return exists, err
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
