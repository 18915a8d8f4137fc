package worker

import (
	"context"
	"time"

	"checkout-gateway/internal/broker"
	"checkout-gateway/internal/models"
	"checkout-gateway/internal/util"

	"go.uber.org/zap"
)

// processedTTL bounds how long a consumed event id is remembered in Redis.
const processedTTL = 24 * time.Hour

// MessageSource is the consuming side of the broker.
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// AuditStore persists checkout events.
type AuditStore interface {
	RecordCheckoutEvent(ctx context.Context, rec *models.CheckoutEventRecord) (bool, error)
}

// IdempotencyStore remembers which events were already handled.
type IdempotencyStore interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AuditWorker writes every checkout event to the audit table
type AuditWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	audit        AuditStore
	idempotency  IdempotencyStore
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer MessageSource, audit AuditStore, idempotency IdempotencyStore) *AuditWorker {
	w := &AuditWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		audit:        audit,
		idempotency:  idempotency,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnCheckoutEvent(w.recordEvent)
	return w
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting checkout audit worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping checkout audit worker")
	return w.consumer.Close()
}

func (w *AuditWorker) recordEvent(ctx context.Context, rec *models.CheckoutEventRecord) error {
	ctx, span := util.StartSpan(ctx, "AuditWorker.recordEvent")
	defer span.End()

	key := "checkout-event:" + rec.EventID

	// Redis is a fast path only; the table's unique event id is the real guard.
	seen, err := w.idempotency.CheckIdempotencyKey(ctx, key)
	if err != nil {
		w.logger.Warn("Idempotency check failed", zap.String("event_id", rec.EventID), zap.Error(err))
	}
	if seen {
		w.logger.Debug("Event already recorded", zap.String("event_id", rec.EventID))
		return nil
	}

	inserted, err := w.audit.RecordCheckoutEvent(ctx, rec)
	if err != nil {
		util.RecordError(span, err)
		return err
	}

	if err := w.idempotency.SetIdempotencyKey(ctx, key, "1", processedTTL); err != nil {
		w.logger.Warn("Failed to set idempotency key", zap.String("event_id", rec.EventID), zap.Error(err))
	}

	if inserted {
		util.CheckoutEventsRecordedTotal.WithLabelValues(rec.EventType).Inc()
		w.logger.Info("Checkout event recorded",
			zap.String("event_id", rec.EventID),
			zap.String("event_type", rec.EventType),
			zap.Int64("order_id", rec.OrderID))
	}
	return nil
}
