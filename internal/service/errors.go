package service

import "errors"

var (
	ErrMissingCorrelationID = errors.New("invalid return, no transactionId specified")
	ErrGatewayLookup        = errors.New("failed to check the transaction status")
	ErrNoOrderInSession     = errors.New("no order found in session, please try again")
	ErrMissingPayment       = errors.New("order has no payment")
	ErrNotAGatewayMethod    = errors.New("method is not a gateway payment method")
	ErrTransactionCreate    = errors.New("failed to start gateway transaction")
)

// Customer-facing messages
const (
	msgStartFailed       = "Something went wrong, please try again later"
	msgInvalidReturn     = "Invalid return, no transactionId specified"
	msgStatusCheckFailed = "There was an error checking the transaction status"
	msgPaymentDenied     = "Payment denied"
	msgPaymentCanceled   = "Payment canceled"
)
