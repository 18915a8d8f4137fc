package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"checkout-gateway/internal/models"
	"checkout-gateway/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is anything that can publish a keyed event; *Producer in production.
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing checkout events
type EventPublisher struct {
	producer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer EventWriter) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// PublishPaymentStarted publishes PaymentStarted event
func (ep *EventPublisher) PublishPaymentStarted(ctx context.Context, event *models.PaymentStartedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishPaymentStartFailed publishes PaymentStartFailed event
func (ep *EventPublisher) PublishPaymentStartFailed(ctx context.Context, event *models.PaymentStartFailedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishPaymentReturned publishes PaymentReturned event
func (ep *EventPublisher) PublishPaymentReturned(ctx context.Context, event *models.PaymentReturnedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// EventHandler turns incoming checkout events into audit records.
type EventHandler struct {
	onCheckoutEvent func(context.Context, *models.CheckoutEventRecord) error
	logger          *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnCheckoutEvent registers the handler for every known checkout event
func (eh *EventHandler) OnCheckoutEvent(handler func(context.Context, *models.CheckoutEventRecord) error) {
	eh.onCheckoutEvent = handler
}

// HandleMessage routes messages to the registered handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var envelope struct {
		models.BaseEvent
		OrderID int64 `json:"order_id"`
	}
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", envelope.EventType),
		zap.String("id", envelope.EventID))

	switch envelope.EventType {
	case models.EventTypePaymentStarted,
		models.EventTypePaymentStartFailed,
		models.EventTypePaymentReturned,
		models.EventTypeOrderCancelled:
		if envelope.EventID == "" {
			return fmt.Errorf("event %s has no id", envelope.EventType)
		}
		if eh.onCheckoutEvent == nil {
			return nil
		}
		return eh.onCheckoutEvent(ctx, &models.CheckoutEventRecord{
			EventID:   envelope.EventID,
			EventType: envelope.EventType,
			OrderID:   envelope.OrderID,
			Payload:   json.RawMessage(msg.Value),
			CreatedAt: envelope.Timestamp,
		})

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", envelope.EventType))
	}

	return nil
}
