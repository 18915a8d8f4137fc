package service

import (
	"context"
	"errors"
	"testing"

	"checkout-gateway/internal/models"
	"checkout-gateway/internal/payment"
	"checkout-gateway/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func pendingOrder(method string) *models.Order {
	order := &models.Order{
		ID:          42,
		IncrementID: "100000042",
		QuoteID:     420,
		Status:      models.OrderStatusPendingPayment,
		GrandTotal:  1999,
		Currency:    "EUR",
	}
	if method != "" {
		order.Payment = &models.Payment{Method: method}
	}
	return order
}

func spentQuote() *models.Quote {
	reserved := "100000042"
	return &models.Quote{ID: 420, IsActive: false, ReservedOrderID: &reserved}
}

func messageTexts(msgs []models.Message, typ string) []string {
	var out []string
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m.Text)
		}
	}
	return out
}

func TestStartPayment_RedirectsToGateway(t *testing.T) {
	order := pendingOrder(payment.MethodIdeal)
	quote := spentQuote()
	handler := &fakeHandler{kind: payment.KindStandard, redirectURL: "https://pay.example.com/tx/1"}
	pub := &fakePublisher{}
	quotes := newFakeQuotes(quote)

	svc := NewCheckoutService(newFakeOrders(order), quotes, fakeMethods{payment.MethodIdeal: handler}, pub)
	sess := &models.CheckoutSession{LastRealOrderID: order.IncrementID, QuoteID: 1}

	result := svc.StartPayment(context.Background(), sess)

	require.NoError(t, result.Err)
	assert.Equal(t, "https://pay.example.com/tx/1", result.Redirect.Path)
	assert.True(t, result.Redirect.NoCache)
	assert.Equal(t, order.ID, result.OrderID)
	assert.Equal(t, []int64{42}, handler.started)

	require.Len(t, quotes.saved, 1)
	assert.True(t, quotes.saved[0].IsActive)
	assert.Nil(t, quotes.saved[0].ReservedOrderID)
	assert.Equal(t, int64(420), sess.QuoteID)
	assert.Empty(t, sess.Messages)

	require.Len(t, pub.started, 1)
	assert.Equal(t, "TX-NEW", pub.started[0].TransactionID)
	assert.Equal(t, models.EventTypePaymentStarted, pub.started[0].EventType)
}

func TestStartPayment_NoOrderInSession(t *testing.T) {
	handler := &fakeHandler{kind: payment.KindStandard}
	pub := &fakePublisher{}
	quotes := newFakeQuotes()

	svc := NewCheckoutService(newFakeOrders(), quotes, fakeMethods{payment.MethodIdeal: handler}, pub)
	sess := &models.CheckoutSession{}

	result := svc.StartPayment(context.Background(), sess)

	assert.ErrorIs(t, result.Err, ErrNoOrderInSession)
	assert.Equal(t, CartRedirect(), result.Redirect)
	assert.Empty(t, handler.started)
	assert.Empty(t, quotes.saved)
	assert.Equal(t,
		[]string{msgStartFailed, ErrNoOrderInSession.Error()},
		messageTexts(sess.Messages, models.MessageError))
	require.Len(t, pub.failed, 1)
}

func TestStartPayment_UnknownIncrementIDIsNoOrder(t *testing.T) {
	svc := NewCheckoutService(newFakeOrders(), newFakeQuotes(), fakeMethods{}, &fakePublisher{})
	sess := &models.CheckoutSession{LastRealOrderID: "100000999"}

	result := svc.StartPayment(context.Background(), sess)

	assert.ErrorIs(t, result.Err, ErrNoOrderInSession)
	assert.Equal(t, CartRedirect(), result.Redirect)
}

func TestStartPayment_MissingPaymentIsSilent(t *testing.T) {
	order := pendingOrder("")
	quotes := newFakeQuotes(spentQuote())
	pub := &fakePublisher{}

	svc := NewCheckoutService(newFakeOrders(order), quotes, fakeMethods{}, pub)
	sess := &models.CheckoutSession{LastRealOrderID: order.IncrementID}

	result := svc.StartPayment(context.Background(), sess)

	assert.ErrorIs(t, result.Err, ErrMissingPayment)
	assert.Equal(t, CartRedirect(), result.Redirect)
	assert.Empty(t, sess.Messages)
	assert.Empty(t, pub.failed)

	// the cart was already reactivated before the payment check
	require.Len(t, quotes.saved, 1)
	assert.True(t, quotes.saved[0].IsActive)
}

func TestStartPayment_NotAGatewayMethod(t *testing.T) {
	order := pendingOrder(payment.MethodCheckMoneyOrder)
	offline := &fakeHandler{kind: payment.KindOffline}
	quotes := newFakeQuotes(spentQuote())

	svc := NewCheckoutService(newFakeOrders(order), quotes,
		fakeMethods{payment.MethodCheckMoneyOrder: offline}, &fakePublisher{})
	sess := &models.CheckoutSession{LastRealOrderID: order.IncrementID}

	result := svc.StartPayment(context.Background(), sess)

	assert.ErrorIs(t, result.Err, ErrNotAGatewayMethod)
	assert.Empty(t, offline.started)
	assert.Equal(t, CartRedirect(), result.Redirect)
}

func TestStartPayment_UnregisteredMethod(t *testing.T) {
	order := pendingOrder("bitcoin")

	svc := NewCheckoutService(newFakeOrders(order), newFakeQuotes(spentQuote()), fakeMethods{}, &fakePublisher{})
	sess := &models.CheckoutSession{LastRealOrderID: order.IncrementID}

	result := svc.StartPayment(context.Background(), sess)

	assert.ErrorIs(t, result.Err, ErrNotAGatewayMethod)
}

func TestStartPayment_GatewayFailureRestoresQuote(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	util.SetLogger(zap.New(core))
	t.Cleanup(func() { util.SetLogger(nil) })

	order := pendingOrder(payment.MethodCreditCard)
	quotes := newFakeQuotes(spentQuote())
	handler := &fakeHandler{kind: payment.KindStandard, err: errors.New("gateway down")}
	pub := &fakePublisher{}

	svc := NewCheckoutService(newFakeOrders(order), quotes,
		fakeMethods{payment.MethodCreditCard: handler}, pub)
	sess := &models.CheckoutSession{LastRealOrderID: order.IncrementID}

	result := svc.StartPayment(context.Background(), sess)

	assert.ErrorIs(t, result.Err, ErrTransactionCreate)
	assert.Equal(t, CartRedirect(), result.Redirect)
	assert.Equal(t, int64(42), result.OrderID)

	errs := messageTexts(sess.Messages, models.MessageError)
	require.Len(t, errs, 2)
	assert.Equal(t, msgStartFailed, errs[0])
	assert.Contains(t, errs[1], "gateway down")

	// restore consumed the last real order and left the cart active
	assert.Empty(t, sess.LastRealOrderID)
	assert.Equal(t, int64(420), sess.QuoteID)
	require.NotEmpty(t, quotes.saved)
	assert.True(t, quotes.saved[len(quotes.saved)-1].IsActive)

	entries := logs.FilterMessage("Failed to start payment").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "100000042", entries[0].ContextMap()["last_real_order_id"])

	require.Len(t, pub.failed, 1)
	assert.Equal(t, int64(42), pub.failed[0].OrderID)
}

func TestRestoreQuote(t *testing.T) {
	order := pendingOrder(payment.MethodIdeal)

	t.Run("reactivates last real order quote", func(t *testing.T) {
		quotes := newFakeQuotes(spentQuote())
		svc := NewCheckoutService(newFakeOrders(order), quotes, fakeMethods{}, &fakePublisher{})
		sess := &models.CheckoutSession{LastRealOrderID: order.IncrementID}

		restored, err := svc.RestoreQuote(context.Background(), sess)

		require.NoError(t, err)
		assert.True(t, restored)
		assert.Equal(t, int64(420), sess.QuoteID)
		assert.Empty(t, sess.LastRealOrderID)
		require.Len(t, quotes.saved, 1)
		assert.True(t, quotes.saved[0].IsActive)
	})

	t.Run("nothing to restore", func(t *testing.T) {
		svc := NewCheckoutService(newFakeOrders(order), newFakeQuotes(), fakeMethods{}, &fakePublisher{})
		sess := &models.CheckoutSession{}

		restored, err := svc.RestoreQuote(context.Background(), sess)

		require.NoError(t, err)
		assert.False(t, restored)
	})

	t.Run("quote gone", func(t *testing.T) {
		svc := NewCheckoutService(newFakeOrders(order), newFakeQuotes(), fakeMethods{}, &fakePublisher{})
		sess := &models.CheckoutSession{LastRealOrderID: order.IncrementID}

		restored, err := svc.RestoreQuote(context.Background(), sess)

		require.NoError(t, err)
		assert.False(t, restored)
		assert.Equal(t, order.IncrementID, sess.LastRealOrderID)
	})
}
