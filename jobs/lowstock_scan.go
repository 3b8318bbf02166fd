package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskLowStockScan triggers the nightly low-stock digest.
const TaskLowStockScan = "restock:lowstock_scan"

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs the cron task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// NewLowStockScanHandler walks every tenant's low-stock products and
// enqueues one digest email per affected tenant.
func NewLowStockScanHandler(pool *pgxpool.Pool, client *Client, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		rows, err := pool.Query(ctx, `SELECT u.id, u.email, p.name, p.quantity, p.low_stock_threshold
			FROM products p
			JOIN users u ON u.id = p.user_id
			WHERE p.quantity <= p.low_stock_threshold
			ORDER BY u.id, p.quantity`)
		if err != nil {
			return err
		}
		defer rows.Close()

		type digest struct {
			email string
			lines []string
		}
		digests := make(map[int64]*digest)
		var order []int64
		for rows.Next() {
			var (
				userID    int64
				email     string
				name      string
				qty       int64
				threshold int64
			)
			if err := rows.Scan(&userID, &email, &name, &qty, &threshold); err != nil {
				return err
			}
			d, ok := digests[userID]
			if !ok {
				d = &digest{email: email}
				digests[userID] = d
				order = append(order, userID)
			}
			d.lines = append(d.lines, fmt.Sprintf("- %s: %d on hand (threshold %d)", name, qty, threshold))
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, userID := range order {
			d := digests[userID]
			_, err := client.EnqueueSendEmail(ctx, SendEmailPayload{
				To:      d.email,
				Subject: "Low stock digest",
				Body:    "The following products are at or below their low-stock threshold:\n\n" + strings.Join(d.lines, "\n"),
			})
			if err != nil {
				logger.Warn("low stock digest enqueue failed",
					slog.Int64("user_id", userID),
					slog.Any("error", err))
			}
		}
		logger.Info("low stock scan finished", slog.Int("tenants", len(order)))
		return nil
	}
}
