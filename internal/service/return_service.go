package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"checkout-gateway/internal/gateway"
	"checkout-gateway/internal/models"
	"checkout-gateway/internal/payment"
	"checkout-gateway/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Return outcomes
const (
	OutcomeSuccess      = models.ReturnOutcomeSuccess
	OutcomeCancel       = models.ReturnOutcomeCancel
	OutcomeInvalid      = "invalid"
	OutcomeLookupFailed = "lookup_failed"
)

// orderStatusDenied is the orderStatusId the gateway sends for a refused payment.
const orderStatusDenied = -63

// ReturnParams are the callback parameters of a customer returning from the gateway.
type ReturnParams struct {
	OrderID       string
	OrderIDLower  string
	OrderStatusID string
	Raw           map[string]string
}

// CorrelationID returns the transaction id from orderId, falling back to orderid.
func (p ReturnParams) CorrelationID() string {
	if id := strings.TrimSpace(p.OrderID); id != "" {
		return id
	}
	return strings.TrimSpace(p.OrderIDLower)
}

// Denied reports whether the gateway flagged the payment as denied.
func (p ReturnParams) Denied() bool {
	code, err := strconv.Atoi(strings.TrimSpace(p.OrderStatusID))
	return err == nil && code == orderStatusDenied
}

// ReturnResult is the outcome of Reconcile. Err carries the classified
// failure for the invalid and lookup-failed outcomes.
type ReturnResult struct {
	Redirect Redirect
	Outcome  string
	OrderID  int64
	Err      error
}

// ReturnService reconciles orders when customers come back from the gateway.
type ReturnService struct {
	orders       OrderRepository
	quotes       QuoteRepository
	gateway      TransactionReader
	methods      MethodRegistry
	destinations DestinationConfig
	publisher    EventPublisher
	logger       *zap.Logger
}

// NewReturnService creates a new return service
func NewReturnService(
	orders OrderRepository,
	quotes QuoteRepository,
	gw TransactionReader,
	methods MethodRegistry,
	destinations DestinationConfig,
	publisher EventPublisher,
) *ReturnService {
	return &ReturnService{
		orders:       orders,
		quotes:       quotes,
		gateway:      gw,
		methods:      methods,
		destinations: destinations,
		publisher:    publisher,
		logger:       util.GetLogger(),
	}
}

// Reconcile decides between the success and cancel paths for a returning
// customer. A returned error means the order or quote could not be read or
// persisted after the gateway already reported the payment state.
func (s *ReturnService) Reconcile(ctx context.Context, sess *models.CheckoutSession, params ReturnParams) (*ReturnResult, error) {
	ctx, span := util.StartSpan(ctx, "ReturnService.Reconcile")
	defer span.End()

	transactionID := params.CorrelationID()
	if transactionID == "" {
		sess.AddNotice(msgInvalidReturn)
		s.logger.Error(msgInvalidReturn, zap.Any("params", params.Raw))
		util.PaymentReturnsTotal.WithLabelValues(OutcomeInvalid).Inc()
		return &ReturnResult{Redirect: CartRedirect(), Outcome: OutcomeInvalid, Err: ErrMissingCorrelationID}, nil
	}

	tx, err := s.gateway.GetTransaction(ctx, transactionID)
	if err != nil {
		s.logger.Error("Failed to fetch gateway transaction",
			zap.String("transaction_id", transactionID),
			zap.Any("params", params.Raw),
			zap.Error(err))
		sess.AddError(msgStatusCheckFailed)
		util.PaymentReturnsTotal.WithLabelValues(OutcomeLookupFailed).Inc()
		return &ReturnResult{
			Redirect: CartRedirect(),
			Outcome:  OutcomeLookupFailed,
			Err:      fmt.Errorf("%w: %w", ErrGatewayLookup, err),
		}, nil
	}

	// The order is only ever located through the gateway's copy of the order id.
	orderID, err := strconv.ParseInt(strings.TrimSpace(tx.Extra3), 10, 64)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("transaction %s carries invalid order reference %q: %w", tx.ID, tx.Extra3, err)
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.Payment == nil {
		return nil, fmt.Errorf("order %d has no payment", order.ID)
	}

	terminalState := ""
	if hash := order.Payment.Info.TerminalHash; hash != "" {
		status, err := s.gateway.GetTerminalStatus(ctx, hash)
		if err != nil {
			util.RecordError(span, err)
			return nil, fmt.Errorf("failed to load terminal status: %w", err)
		}
		terminalState = status.State
	}

	kind := s.methods.KindOf(order.Payment.Method)

	// Pending only counts as done when no terminal is involved; terminals
	// report pending while they wait for the card.
	if tx.IsPaid() || tx.IsAuthorized() || (tx.IsPending() && terminalState == "") {
		return s.complete(ctx, sess, transactionID, order, tx, terminalState, kind)
	}
	return s.cancel(ctx, sess, params, order, tx, terminalState, kind)
}

func (s *ReturnService) complete(
	ctx context.Context,
	sess *models.CheckoutSession,
	transactionID string,
	order *models.Order,
	tx *gateway.Transaction,
	terminalState string,
	kind payment.Kind,
) (*ReturnResult, error) {
	destination := successDestination(s.destinations, order.Payment.Method, kind)

	s.checkSession(sess, order, transactionID)

	quote, err := s.quotes.GetQuote(ctx, order.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	quote.IsActive = false
	if err := s.quotes.SaveQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to deactivate quote: %w", err)
	}

	util.PaymentReturnsTotal.WithLabelValues(OutcomeSuccess).Inc()
	s.logger.Info("Payment return completed",
		zap.Int64("order_id", order.ID),
		zap.String("transaction_id", transactionID),
		zap.String("gateway_status", string(tx.Status())))

	s.publishReturned(ctx, order, tx, terminalState, OutcomeSuccess)

	return &ReturnResult{
		Redirect: Redirect{Path: destination, Query: url.Values{"utm_nooverride": {"1"}}},
		Outcome:  OutcomeSuccess,
		OrderID:  order.ID,
	}, nil
}

// checkSession re-seeds a session that lost track of the order, but only when
// the callback id is the transaction recorded on the order at initiation.
// The comparison uses the raw callback id, not extra3.
func (s *ReturnService) checkSession(sess *models.CheckoutSession, order *models.Order, transactionID string) {
	if sess.LastOrderID == order.ID {
		return
	}
	if transactionID != order.Payment.Info.TransactionID {
		s.logger.Warn("Return does not match the order's transaction, session left untouched",
			zap.Int64("order_id", order.ID),
			zap.String("transaction_id", transactionID))
		return
	}
	sess.SeedFromOrder(order)
}

func (s *ReturnService) cancel(
	ctx context.Context,
	sess *models.CheckoutSession,
	params ReturnParams,
	order *models.Order,
	tx *gateway.Transaction,
	terminalState string,
	kind payment.Kind,
) (*ReturnResult, error) {
	if params.Denied() {
		sess.AddNotice(msgPaymentDenied)
	} else {
		sess.AddNotice(msgPaymentCanceled)
	}

	redirect := cancelDestination(s.destinations, order.Payment.Method, kind)

	// Terminals never send a cancel exchange, so the order is closed here.
	if gateway.IsBlockingTerminalState(terminalState) {
		order.Cancel()
		if err := s.orders.SaveOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to cancel order: %w", err)
		}

		util.OrdersCancelledByTerminalTotal.Inc()
		s.logger.Info("Order cancelled after terminal payment ended",
			zap.Int64("order_id", order.ID),
			zap.String("terminal_state", terminalState))

		event := &models.OrderCancelledEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderCancelled,
				Timestamp: time.Now(),
			},
			OrderID: order.ID,
			Reason:  "terminal_" + terminalState,
		}
		if err := s.publisher.PublishOrderCancelled(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
		}
	}

	util.PaymentReturnsTotal.WithLabelValues(OutcomeCancel).Inc()
	s.publishReturned(ctx, order, tx, terminalState, OutcomeCancel)

	return &ReturnResult{Redirect: redirect, Outcome: OutcomeCancel, OrderID: order.ID}, nil
}

func (s *ReturnService) publishReturned(ctx context.Context, order *models.Order, tx *gateway.Transaction, terminalState, outcome string) {
	event := &models.PaymentReturnedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentReturned,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		TransactionID: tx.ID,
		GatewayStatus: string(tx.Status()),
		TerminalState: terminalState,
		Outcome:       outcome,
	}
	if err := s.publisher.PublishPaymentReturned(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentReturned event", zap.Error(err))
	}
}
