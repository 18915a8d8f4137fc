package models

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypePaymentStarted     = "PAYMENT_STARTED"
	EventTypePaymentStartFailed = "PAYMENT_START_FAILED"
	EventTypePaymentReturned    = "PAYMENT_RETURNED"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
)

// Return outcomes carried by PaymentReturnedEvent
const (
	ReturnOutcomeSuccess = "success"
	ReturnOutcomeCancel  = "cancel"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentStartedEvent published when a gateway transaction was created
type PaymentStartedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	IncrementID   string `json:"increment_id"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

// PaymentStartFailedEvent published when starting a payment failed
type PaymentStartFailedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id,omitempty"`
	Reason  string `json:"reason"`
}

// PaymentReturnedEvent published after a customer return was reconciled
type PaymentReturnedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	GatewayStatus string `json:"gateway_status"`
	TerminalState string `json:"terminal_state,omitempty"`
	Outcome       string `json:"outcome"`
}

// OrderCancelledEvent published when checkout cancelled an order itself
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// CheckoutEventRecord is the audit row written for every checkout event.
type CheckoutEventRecord struct {
	EventID   string          `db:"event_id" json:"event_id"`
	EventType string          `db:"event_type" json:"event_type"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
