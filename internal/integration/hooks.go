package integration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/procurement"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/jobs"
)

// UserEmails resolves a tenant's notification address.
type UserEmails interface {
	EmailByID(ctx context.Context, userID int64) (string, error)
}

// CacheInvalidator drops a tenant's cached dashboard views.
type CacheInvalidator interface {
	InvalidateTenant(ctx context.Context, userID int64) error
}

// Enqueuer submits email tasks to the job queue.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error
}

// Auditor persists audit trail entries.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MovementCounter records posted movements in the metrics registry.
type MovementCounter interface {
	CountMovement(movementType string)
}

// enqueueAdapter narrows jobs.Client to the Enqueuer interface.
type enqueueAdapter struct {
	client *jobs.Client
}

func (a enqueueAdapter) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error {
	_, err := a.client.EnqueueSendEmail(ctx, payload)
	return err
}

// Hooks reacts to committed ledger movements and order completions:
// it bumps the tenant's restock cache and enqueues alert mail. All
// methods run after commit and never fail the triggering operation;
// callers log returned errors and move on.
type Hooks struct {
	logger   *slog.Logger
	cache    CacheInvalidator
	enqueuer Enqueuer
	emails   UserEmails
	audit    Auditor
	counter  MovementCounter
}

// NewHooks constructs integration hooks. cache, client, and emails may
// each be nil; the matching behavior is skipped.
func NewHooks(logger *slog.Logger, cache CacheInvalidator, client *jobs.Client, emails UserEmails) *Hooks {
	h := &Hooks{logger: logger, cache: cache, emails: emails}
	if client != nil {
		h.enqueuer = enqueueAdapter{client: client}
	}
	return h
}

// WithAudit enables audit trail writes for committed events.
func (h *Hooks) WithAudit(audit Auditor) *Hooks {
	h.audit = audit
	return h
}

// WithMetrics enables movement counting.
func (h *Hooks) WithMetrics(counter MovementCounter) *Hooks {
	h.counter = counter
	return h
}

var _ ledger.IntegrationHandler = (*Hooks)(nil)
var _ procurement.Notifier = (*Hooks)(nil)

// HandleMovementPosted invalidates cached stock views and, when the
// movement leaves the product at or below its threshold, enqueues a
// low-stock alert for the owning tenant.
func (h *Hooks) HandleMovementPosted(ctx context.Context, evt ledger.MovementPostedEvent) error {
	if h == nil {
		return nil
	}
	if h.cache != nil {
		if err := h.cache.InvalidateTenant(ctx, evt.UserID); err != nil {
			h.logger.Warn("restock cache invalidation failed",
				slog.Int64("user_id", evt.UserID),
				slog.Any("error", err))
		}
	}
	if h.counter != nil {
		h.counter.CountMovement(string(evt.Type))
	}
	if h.audit != nil {
		if err := h.audit.Record(ctx, shared.AuditLog{
			UserID:   evt.UserID,
			Action:   "stock.movement",
			Entity:   "product",
			EntityID: strconv.FormatInt(evt.ProductID, 10),
			Meta: map[string]any{
				"type":           string(evt.Type),
				"change":         evt.QuantityChange,
				"quantity_after": evt.QuantityAfter,
			},
			At: evt.PostedAt,
		}); err != nil {
			h.logger.Warn("audit write failed",
				slog.Int64("user_id", evt.UserID),
				slog.Any("error", err))
		}
	}

	if h.enqueuer == nil || h.emails == nil {
		return nil
	}
	if evt.QuantityChange >= 0 || evt.QuantityAfter > evt.LowStockThreshold {
		return nil
	}
	email, err := h.emails.EmailByID(ctx, evt.UserID)
	if err != nil {
		return fmt.Errorf("integration: resolve tenant email: %w", err)
	}
	return h.enqueuer.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("Low stock: %s", evt.ProductName),
		Body: fmt.Sprintf("%s is down to %d units (threshold %d). Consider restocking.",
			evt.ProductName, evt.QuantityAfter, evt.LowStockThreshold),
	})
}

// OrderCompleted records the completion and enqueues the confirmation email.
func (h *Hooks) OrderCompleted(ctx context.Context, order procurement.PurchaseOrder) error {
	if h == nil {
		return nil
	}
	if h.audit != nil {
		if err := h.audit.Record(ctx, shared.AuditLog{
			UserID:   order.UserID,
			Action:   "purchase_order.completed",
			Entity:   "purchase_order",
			EntityID: strconv.FormatInt(order.ID, 10),
			Meta:     map[string]any{"quantity_ordered": order.QuantityOrdered},
		}); err != nil {
			h.logger.Warn("audit write failed",
				slog.Int64("user_id", order.UserID),
				slog.Any("error", err))
		}
	}
	if h.enqueuer == nil || h.emails == nil {
		return nil
	}
	email, err := h.emails.EmailByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("integration: resolve tenant email: %w", err)
	}
	return h.enqueuer.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("Purchase order #%d received", order.ID),
		Body: fmt.Sprintf("Order #%d was marked completed: %d units added to stock.",
			order.ID, order.QuantityOrdered),
	})
}
