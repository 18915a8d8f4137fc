package service

import (
	"context"

	"checkout-gateway/internal/gateway"
	"checkout-gateway/internal/models"
	"checkout-gateway/internal/payment"
)

// OrderRepository is the commerce back-end's order store.
type OrderRepository interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIncrementID(ctx context.Context, incrementID string) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
}

// QuoteRepository is the commerce back-end's quote store.
type QuoteRepository interface {
	GetQuote(ctx context.Context, id int64) (*models.Quote, error)
	SaveQuote(ctx context.Context, quote *models.Quote) error
}

// TransactionReader reads authoritative payment state from the gateway.
type TransactionReader interface {
	GetTransaction(ctx context.Context, transactionID string) (*gateway.Transaction, error)
	GetTerminalStatus(ctx context.Context, hash string) (*gateway.TerminalStatus, error)
}

// MethodRegistry resolves payment method tags.
type MethodRegistry interface {
	Resolve(tag string) (payment.Handler, error)
	KindOf(tag string) payment.Kind
}

// DestinationConfig supplies the per-method storefront destinations.
type DestinationConfig interface {
	SuccessPage(method string) string
	CancelURL(method string) string
}

// EventPublisher publishes checkout events.
type EventPublisher interface {
	PublishPaymentStarted(ctx context.Context, event *models.PaymentStartedEvent) error
	PublishPaymentStartFailed(ctx context.Context, event *models.PaymentStartFailedEvent) error
	PublishPaymentReturned(ctx context.Context, event *models.PaymentReturnedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
}
