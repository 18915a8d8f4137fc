package gateway

import "fmt"

// Status is the classification of a gateway transaction state.
type Status string

const (
	StatusPaid       Status = "paid"
	StatusAuthorized Status = "authorized"
	StatusPending    Status = "pending"
	StatusCancelled  Status = "cancelled"
	StatusOther      Status = "other"
)

// Gateway state codes
const (
	StatePaid       = 100
	StateAuthorized = 95
	StateDenied     = -63
	StateExpired    = -80
	StateCancelled  = -90
)

// ClassifyState maps a numeric gateway state code to a Status.
func ClassifyState(code int) Status {
	switch {
	case code == StatePaid:
		return StatusPaid
	case code == StateAuthorized:
		return StatusAuthorized
	case code == 20, code == 25, code == 40, code == 50, code == 85, code == 90:
		return StatusPending
	case code < 0:
		return StatusCancelled
	default:
		return StatusOther
	}
}

// Terminal states that mean the in-store payment will never complete
const (
	TerminalCancelled = "cancelled"
	TerminalExpired   = "expired"
	TerminalError     = "error"
)

// IsBlockingTerminalState reports whether a terminal state ends the payment.
func IsBlockingTerminalState(state string) bool {
	switch state {
	case TerminalCancelled, TerminalExpired, TerminalError:
		return true
	}
	return false
}

// Transaction is the gateway's record of one payment attempt.
type Transaction struct {
	ID        string `json:"transactionId"`
	State     int    `json:"state"`
	StateName string `json:"stateName"`
	Extra1    string `json:"extra1"`
	Extra2    string `json:"extra2"`
	Extra3    string `json:"extra3"`
}

// Status classifies the transaction state.
func (t *Transaction) Status() Status {
	return ClassifyState(t.State)
}

func (t *Transaction) IsPaid() bool       { return t.Status() == StatusPaid }
func (t *Transaction) IsAuthorized() bool { return t.Status() == StatusAuthorized }
func (t *Transaction) IsPending() bool    { return t.Status() == StatusPending }

// TerminalStatus is the state of an in-store terminal payment.
type TerminalStatus struct {
	Hash  string `json:"hash"`
	State string `json:"transactionState"`
}

// CreateTransactionRequest starts a hosted payment.
type CreateTransactionRequest struct {
	ServiceID       string `json:"serviceId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	ReturnURL       string `json:"returnUrl"`
	ExchangeURL     string `json:"exchangeUrl,omitempty"`
	PaymentOptionID int    `json:"paymentMethodId,omitempty"`
	TerminalID      string `json:"terminalId,omitempty"`
	Extra1          string `json:"extra1,omitempty"`
	Extra2          string `json:"extra2,omitempty"`
	Extra3          string `json:"extra3,omitempty"`
}

// CreateTransactionResponse is returned when a transaction was created.
type CreateTransactionResponse struct {
	TransactionID string `json:"transactionId"`
	PaymentURL    string `json:"paymentUrl"`
	TerminalHash  string `json:"terminalHash,omitempty"`
}

// APIError is returned for non-2xx gateway responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}
