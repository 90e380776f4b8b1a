// Package worker delivers committed notifications. The ledger appends a
// notification atomically with its operation and publishes it best-effort;
// this worker consumes the events, marks the rows delivered, and
// periodically re-publishes rows whose publish was lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bankx/internal/amqp"
	"bankx/internal/core"
)

// NotificationStore is the slice of the sqlite repository the worker needs.
type NotificationStore interface {
	PendingNotifications(ctx context.Context, limit int) ([]core.Notification, error)
	MarkNotificationDelivered(ctx context.Context, id int64) error
}

// Publisher pushes a notification back onto the delivery queue.
type Publisher interface {
	PublishNotification(ctx context.Context, n core.Notification) error
}

// DeliveryWorker handles notification delivery and the pending sweep.
type DeliveryWorker struct {
	store     NotificationStore
	publisher Publisher
	batchSize int
}

func NewDeliveryWorker(store NotificationStore, publisher Publisher, batchSize int) *DeliveryWorker {
	return &DeliveryWorker{
		store:     store,
		publisher: publisher,
		batchSize: batchSize,
	}
}

// HandleNotification processes one consumed notification event. Delivery
// here is the customer-facing dispatch; once dispatched the row is stamped
// so the sweep stops picking it up. Returning an error requeues the event.
func (w *DeliveryWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	slog.InfoContext(ctx, "Delivering notification",
		"notification_id", msg.ID,
		"customer_id", msg.CustomerID,
		"message", msg.Message)

	if err := w.store.MarkNotificationDelivered(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return nil
}

// SweepPending re-publishes undelivered notifications, oldest first. It
// returns the number of rows re-published.
func (w *DeliveryWorker) SweepPending(ctx context.Context) (int, error) {
	pending, err := w.store.PendingNotifications(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending notifications: %w", err)
	}

	published := 0
	for _, n := range pending {
		if err := w.publisher.PublishNotification(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Failed to re-publish notification",
				"notification_id", n.ID,
				"error", err)
			continue
		}
		published++
	}

	if published > 0 {
		slog.InfoContext(ctx, "Swept pending notifications",
			"pending", len(pending),
			"published", published)
	}
	return published, nil
}

// RunSweep runs SweepPending on a fixed interval until ctx is done.
func (w *DeliveryWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.SweepPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Sweep failed", "error", err)
			}
		}
	}
}
