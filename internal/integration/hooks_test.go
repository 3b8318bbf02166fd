package integration

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/procurement"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/jobs"
)

type fakeCache struct {
	bumped []int64
}

func (f *fakeCache) InvalidateTenant(ctx context.Context, userID int64) error {
	f.bumped = append(f.bumped, userID)
	return nil
}

type fakeEnqueuer struct {
	sent []jobs.SendEmailPayload
}

func (f *fakeEnqueuer) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error {
	f.sent = append(f.sent, payload)
	return nil
}

type fakeEmails struct{}

func (fakeEmails) EmailByID(ctx context.Context, userID int64) (string, error) {
	return "owner@example.com", nil
}

type fakeAudit struct {
	records []shared.AuditLog
}

func (f *fakeAudit) Record(ctx context.Context, log shared.AuditLog) error {
	f.records = append(f.records, log)
	return nil
}

func newTestHooks(cache *fakeCache, enqueuer *fakeEnqueuer) *Hooks {
	h := NewHooks(slog.Default(), cache, nil, fakeEmails{})
	h.enqueuer = enqueuer
	return h
}

func TestMovementBumpsCache(t *testing.T) {
	cache := &fakeCache{}
	enqueuer := &fakeEnqueuer{}
	h := newTestHooks(cache, enqueuer)

	err := h.HandleMovementPosted(context.Background(), ledger.MovementPostedEvent{
		UserID:            7,
		ProductName:       "Widget",
		QuantityChange:    5,
		QuantityAfter:     50,
		LowStockThreshold: 10,
	})
	require.NoError(t, err)
	require.Equal(t, []int64{7}, cache.bumped)
	require.Empty(t, enqueuer.sent)
}

func TestLowStockAlertOnDecreaseBelowThreshold(t *testing.T) {
	cache := &fakeCache{}
	enqueuer := &fakeEnqueuer{}
	h := newTestHooks(cache, enqueuer)

	err := h.HandleMovementPosted(context.Background(), ledger.MovementPostedEvent{
		UserID:            7,
		ProductName:       "Widget",
		QuantityChange:    -3,
		QuantityAfter:     4,
		LowStockThreshold: 5,
	})
	require.NoError(t, err)
	require.Len(t, enqueuer.sent, 1)
	require.Equal(t, "owner@example.com", enqueuer.sent[0].To)
	require.Contains(t, enqueuer.sent[0].Subject, "Widget")
}

func TestAuditTrailOnMovementAndCompletion(t *testing.T) {
	audit := &fakeAudit{}
	h := newTestHooks(&fakeCache{}, &fakeEnqueuer{}).WithAudit(audit)

	err := h.HandleMovementPosted(context.Background(), ledger.MovementPostedEvent{
		UserID:         7,
		ProductID:      42,
		QuantityChange: -3,
		QuantityAfter:  12,
	})
	require.NoError(t, err)

	err = h.OrderCompleted(context.Background(), procurement.PurchaseOrder{
		ID:              9,
		UserID:          7,
		QuantityOrdered: 25,
	})
	require.NoError(t, err)

	require.Len(t, audit.records, 2)
	require.Equal(t, "stock.movement", audit.records[0].Action)
	require.Equal(t, "42", audit.records[0].EntityID)
	require.Equal(t, "purchase_order.completed", audit.records[1].Action)
	require.Equal(t, "9", audit.records[1].EntityID)
}

func TestNoAlertOnRestock(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	h := newTestHooks(&fakeCache{}, enqueuer)

	// Quantity is still under the threshold, but the movement added
	// stock; alerting here would nag on every partial restock.
	err := h.HandleMovementPosted(context.Background(), ledger.MovementPostedEvent{
		UserID:            7,
		QuantityChange:    2,
		QuantityAfter:     4,
		LowStockThreshold: 5,
	})
	require.NoError(t, err)
	require.Empty(t, enqueuer.sent)
}
