package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"checkout-gateway/internal/gateway"
	"checkout-gateway/internal/models"
	"checkout-gateway/internal/util"

	"go.uber.org/zap"
)

// TransactionCreator is the part of the gateway client used to start payments.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, req *gateway.CreateTransactionRequest) (*gateway.CreateTransactionResponse, error)
}

// OrderSaver persists the transaction data recorded on the order's payment.
type OrderSaver interface {
	SaveOrder(ctx context.Context, order *models.Order) error
}

// URLs are the callback URLs handed to the gateway.
type URLs struct {
	ReturnURL   string
	ExchangeURL string
}

// GatewayHandler starts hosted gateway payments for one payment option.
type GatewayHandler struct {
	kind       Kind
	optionID   int
	terminalID string
	gateway    TransactionCreator
	orders     OrderSaver
	urls       URLs
	logger     *zap.Logger
}

// NewGatewayHandler creates a gateway handler. terminalID is only used by in-store methods.
func NewGatewayHandler(kind Kind, optionID int, gw TransactionCreator, orders OrderSaver, urls URLs, terminalID string) *GatewayHandler {
	return &GatewayHandler{
		kind:       kind,
		optionID:   optionID,
		terminalID: terminalID,
		gateway:    gw,
		orders:     orders,
		urls:       urls,
		logger:     util.GetLogger(),
	}
}

func (h *GatewayHandler) Kind() Kind { return h.kind }

// StartTransaction creates the gateway transaction for order, records its id on
// the payment and returns the URL the customer must be sent to.
func (h *GatewayHandler) StartTransaction(ctx context.Context, order *models.Order) (string, error) {
	ctx, span := util.StartSpan(ctx, "GatewayHandler.StartTransaction")
	defer span.End()

	if order.Payment == nil {
		return "", errors.New("order has no payment")
	}

	req := &gateway.CreateTransactionRequest{
		Amount:          order.GrandTotal,
		Currency:        order.Currency,
		Description:     order.IncrementID,
		ReturnURL:       h.urls.ReturnURL,
		ExchangeURL:     h.urls.ExchangeURL,
		PaymentOptionID: h.optionID,
		Extra1:          order.IncrementID,
		Extra2:          order.CustomerEmail,
		Extra3:          strconv.FormatInt(order.ID, 10),
	}
	if h.kind == KindInstore {
		req.TerminalID = h.terminalID
	}

	resp, err := h.gateway.CreateTransaction(ctx, req)
	if err != nil {
		util.RecordError(span, err)
		return "", err
	}

	order.Payment.Info.TransactionID = resp.TransactionID
	if h.kind == KindInstore && resp.TerminalHash != "" {
		order.Payment.Info.TerminalHash = resp.TerminalHash
	}

	if err := h.orders.SaveOrder(ctx, order); err != nil {
		util.RecordError(span, err)
		return "", fmt.Errorf("failed to record transaction on order: %w", err)
	}

	h.logger.Info("Gateway transaction created",
		zap.Int64("order_id", order.ID),
		zap.String("transaction_id", resp.TransactionID),
		zap.String("kind", h.kind.String()))

	return resp.PaymentURL, nil
}

// Payment option ids of the gateway
const (
	optionIdeal      = 10
	optionPaypal     = 138
	optionBancontact = 436
	optionCreditCard = 706
	optionPaylink    = 961
	optionInstore    = 1729
)

// DefaultRegistry registers every method the storefront offers.
func DefaultRegistry(gw TransactionCreator, orders OrderSaver, urls URLs, terminalID string) *Registry {
	r := NewRegistry()
	r.Register(MethodIdeal, NewGatewayHandler(KindStandard, optionIdeal, gw, orders, urls, ""))
	r.Register(MethodCreditCard, NewGatewayHandler(KindStandard, optionCreditCard, gw, orders, urls, ""))
	r.Register(MethodPaypal, NewGatewayHandler(KindStandard, optionPaypal, gw, orders, urls, ""))
	r.Register(MethodBancontact, NewGatewayHandler(KindStandard, optionBancontact, gw, orders, urls, ""))
	r.Register(MethodPaylink, NewGatewayHandler(KindPaylink, optionPaylink, gw, orders, urls, ""))
	r.Register(MethodInstore, NewGatewayHandler(KindInstore, optionInstore, gw, orders, urls, terminalID))
	r.Register(MethodCheckMoneyOrder, offlineHandler{})
	r.Register(MethodCashOnDelivery, offlineHandler{})
	return r
}
