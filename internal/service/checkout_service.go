package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-gateway/internal/models"
	"checkout-gateway/internal/store"
	"checkout-gateway/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService sends customers with a pending order to the gateway.
type CheckoutService struct {
	orders    OrderRepository
	quotes    QuoteRepository
	methods   MethodRegistry
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	orders OrderRepository,
	quotes QuoteRepository,
	methods MethodRegistry,
	publisher EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		quotes:    quotes,
		methods:   methods,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// StartResult is the outcome of StartPayment. Err is nil when the customer
// is sent to the gateway.
type StartResult struct {
	Redirect Redirect
	OrderID  int64
	Err      error
}

// StartPayment reactivates the cart of the session's last order and starts a
// gateway transaction for it. Every failure ends in a cart redirect.
func (s *CheckoutService) StartPayment(ctx context.Context, sess *models.CheckoutSession) *StartResult {
	ctx, span := util.StartSpan(ctx, "CheckoutService.StartPayment")
	defer span.End()

	redirectURL, order, err := s.startPayment(ctx, sess)

	var orderID int64
	if order != nil {
		orderID = order.ID
	}

	if errors.Is(err, ErrMissingPayment) {
		util.PaymentStartsTotal.WithLabelValues("missing_payment").Inc()
		s.logger.Warn("Order has no payment, returning to cart", zap.Int64("order_id", orderID))
		return &StartResult{Redirect: CartRedirect(), OrderID: orderID, Err: err}
	}

	if err != nil {
		util.RecordError(span, err)
		return s.failStart(ctx, sess, orderID, err)
	}

	util.PaymentStartsTotal.WithLabelValues("started").Inc()

	event := &models.PaymentStartedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentStarted,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		IncrementID:   order.IncrementID,
		Method:        order.Payment.Method,
		TransactionID: order.Payment.Info.TransactionID,
	}
	if err := s.publisher.PublishPaymentStarted(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentStarted event", zap.Error(err))
	}

	return &StartResult{
		Redirect: Redirect{Path: redirectURL, NoCache: true},
		OrderID:  order.ID,
	}
}

func (s *CheckoutService) startPayment(ctx context.Context, sess *models.CheckoutSession) (string, *models.Order, error) {
	order, err := s.lastRealOrder(ctx, sess)
	if err != nil {
		return "", nil, err
	}

	// The cart must be usable again before the gateway is contacted.
	quote, err := s.quotes.GetQuote(ctx, order.QuoteID)
	if err != nil {
		return "", order, fmt.Errorf("failed to load quote: %w", err)
	}
	quote.IsActive = true
	quote.ReservedOrderID = nil
	sess.ReplaceQuote(quote)
	if err := s.quotes.SaveQuote(ctx, quote); err != nil {
		return "", order, fmt.Errorf("failed to reactivate quote: %w", err)
	}

	if order.Payment == nil {
		return "", order, ErrMissingPayment
	}

	handler, err := s.methods.Resolve(order.Payment.Method)
	if err != nil || !handler.Kind().GatewayBacked() {
		return "", order, fmt.Errorf("%w: %s", ErrNotAGatewayMethod, order.Payment.Method)
	}

	s.logger.Info("Start new payment for order",
		zap.Int64("order_id", order.ID),
		zap.String("method", order.Payment.Method))

	redirectURL, err := handler.StartTransaction(ctx, order)
	if err != nil {
		return "", order, fmt.Errorf("%w: %w", ErrTransactionCreate, err)
	}

	return redirectURL, order, nil
}

func (s *CheckoutService) lastRealOrder(ctx context.Context, sess *models.CheckoutSession) (*models.Order, error) {
	if sess.LastRealOrderID == "" {
		return nil, ErrNoOrderInSession
	}

	order, err := s.orders.GetOrderByIncrementID(ctx, sess.LastRealOrderID)
	if errors.Is(err, store.ErrOrderNotFound) {
		return nil, ErrNoOrderInSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last order: %w", err)
	}
	return order, nil
}

func (s *CheckoutService) failStart(ctx context.Context, sess *models.CheckoutSession, orderID int64, cause error) *StartResult {
	lastRealOrderID := sess.LastRealOrderID
	if _, err := s.RestoreQuote(ctx, sess); err != nil {
		s.logger.Error("Failed to restore quote", zap.Error(err))
	}

	sess.AddError(msgStartFailed)
	sess.AddError(cause.Error())

	s.logger.Error("Failed to start payment",
		zap.String("last_real_order_id", lastRealOrderID),
		zap.Int64("order_id", orderID),
		zap.Error(cause))

	util.PaymentStartsTotal.WithLabelValues("failed").Inc()

	event := &models.PaymentStartFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentStartFailed,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		Reason:  cause.Error(),
	}
	if err := s.publisher.PublishPaymentStartFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentStartFailed event", zap.Error(err))
	}

	return &StartResult{Redirect: CartRedirect(), OrderID: orderID, Err: cause}
}

// RestoreQuote reactivates the quote of the session's last real order and
// makes it the current quote again. It reports whether a quote was restored.
func (s *CheckoutService) RestoreQuote(ctx context.Context, sess *models.CheckoutSession) (bool, error) {
	if sess.LastRealOrderID == "" {
		return false, nil
	}

	order, err := s.orders.GetOrderByIncrementID(ctx, sess.LastRealOrderID)
	if errors.Is(err, store.ErrOrderNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	quote, err := s.quotes.GetQuote(ctx, order.QuoteID)
	if errors.Is(err, store.ErrQuoteNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	quote.IsActive = true
	quote.ReservedOrderID = nil
	if err := s.quotes.SaveQuote(ctx, quote); err != nil {
		return false, err
	}

	sess.ReplaceQuote(quote)
	sess.LastRealOrderID = ""
	return true, nil
}
