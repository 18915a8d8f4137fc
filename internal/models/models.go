package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Order statuses
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPending        = "pending"
	OrderStatusProcessing     = "processing"
	OrderStatusCanceled       = "canceled"
)

// Order is the commerce back-end order as seen by checkout.
type Order struct {
	ID            int64     `db:"id" json:"id"`
	IncrementID   string    `db:"increment_id" json:"increment_id"`
	QuoteID       int64     `db:"quote_id" json:"quote_id"`
	Status        string    `db:"status" json:"status"`
	GrandTotal    int64     `db:"grand_total" json:"grand_total"`
	Currency      string    `db:"currency" json:"currency"`
	CustomerEmail string    `db:"customer_email" json:"customer_email"`
	Payment       *Payment  `db:"-" json:"payment,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CanCancel reports whether the order is still open.
func (o *Order) CanCancel() bool {
	return o.Status != OrderStatusCanceled && o.Status != OrderStatusProcessing
}

// Cancel moves the order to canceled. Closed orders are left untouched.
func (o *Order) Cancel() bool {
	if !o.CanCancel() {
		return false
	}
	o.Status = OrderStatusCanceled
	return true
}

// Payment is the order's payment record.
type Payment struct {
	Method string      `json:"method"`
	Info   PaymentInfo `json:"additional_information"`
}

// PaymentInfo carries the gateway values recorded on a payment.
type PaymentInfo struct {
	TerminalHash  string `json:"terminal_hash,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
}

// Value implements driver.Valuer so the struct can be stored as jsonb.
func (pi PaymentInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(pi)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (pi *PaymentInfo) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*pi = PaymentInfo{}
		return nil
	case []byte:
		if len(v) == 0 {
			*pi = PaymentInfo{}
			return nil
		}
		return json.Unmarshal(v, pi)
	case string:
		if v == "" {
			*pi = PaymentInfo{}
			return nil
		}
		return json.Unmarshal([]byte(v), pi)
	default:
		return fmt.Errorf("unsupported payment info type %T", src)
	}
}

// Quote is the shopping cart backing an order.
type Quote struct {
	ID              int64     `db:"id" json:"id"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	ReservedOrderID *string   `db:"reserved_order_id" json:"reserved_order_id,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Message types shown to the customer on the next page
const (
	MessageNotice = "notice"
	MessageError  = "error"
)

// Message is a flash message queued for the storefront.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CheckoutSession is the per-browser checkout state.
type CheckoutSession struct {
	ID                 string    `json:"-"`
	QuoteID            int64     `json:"quote_id,omitempty"`
	LastQuoteID        int64     `json:"last_quote_id,omitempty"`
	LastSuccessQuoteID int64     `json:"last_success_quote_id,omitempty"`
	LastOrderID        int64     `json:"last_order_id,omitempty"`
	LastRealOrderID    string    `json:"last_real_order_id,omitempty"`
	Messages           []Message `json:"messages,omitempty"`
}

// AddNotice queues a notice message.
func (s *CheckoutSession) AddNotice(text string) {
	s.Messages = append(s.Messages, Message{Type: MessageNotice, Text: text})
}

// AddError queues an error message.
func (s *CheckoutSession) AddError(text string) {
	s.Messages = append(s.Messages, Message{Type: MessageError, Text: text})
}

// TakeMessages returns and clears the queued messages.
func (s *CheckoutSession) TakeMessages() []Message {
	msgs := s.Messages
	s.Messages = nil
	return msgs
}

// ReplaceQuote makes q the session's current quote.
func (s *CheckoutSession) ReplaceQuote(q *Quote) {
	s.QuoteID = q.ID
}

// SeedFromOrder points the session's last-order fields at order.
func (s *CheckoutSession) SeedFromOrder(order *Order) {
	s.LastQuoteID = order.QuoteID
	s.LastSuccessQuoteID = order.QuoteID
	s.LastOrderID = order.ID
	s.LastRealOrderID = order.IncrementID
}
