package service

import (
	"context"

	"checkout-gateway/internal/gateway"
	"checkout-gateway/internal/models"
	"checkout-gateway/internal/payment"
	"checkout-gateway/internal/store"
)

type fakeOrders struct {
	byID        map[int64]*models.Order
	byIncrement map[string]*models.Order
	saved       []models.Order
	getErr      error
	saveErr     error
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{
		byID:        make(map[int64]*models.Order),
		byIncrement: make(map[string]*models.Order),
	}
	for _, o := range orders {
		f.byID[o.ID] = o
		f.byIncrement[o.IncrementID] = o
	}
	return f
}

func (f *fakeOrders) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.byID[id]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) GetOrderByIncrementID(_ context.Context, incrementID string) (*models.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.byIncrement[incrementID]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrders) SaveOrder(_ context.Context, order *models.Order) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *order)
	return nil
}

type fakeQuotes struct {
	quotes  map[int64]*models.Quote
	saved   []models.Quote
	saveErr error
}

func newFakeQuotes(quotes ...*models.Quote) *fakeQuotes {
	f := &fakeQuotes{quotes: make(map[int64]*models.Quote)}
	for _, q := range quotes {
		f.quotes[q.ID] = q
	}
	return f
}

func (f *fakeQuotes) GetQuote(_ context.Context, id int64) (*models.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, store.ErrQuoteNotFound
	}
	return q, nil
}

func (f *fakeQuotes) SaveQuote(_ context.Context, quote *models.Quote) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *quote)
	return nil
}

type fakeGateway struct {
	tx          *gateway.Transaction
	txErr       error
	terminal    *gateway.TerminalStatus
	terminalErr error

	requestedID   string
	requestedHash string
}

func (f *fakeGateway) GetTransaction(_ context.Context, transactionID string) (*gateway.Transaction, error) {
	f.requestedID = transactionID
	return f.tx, f.txErr
}

func (f *fakeGateway) GetTerminalStatus(_ context.Context, hash string) (*gateway.TerminalStatus, error) {
	f.requestedHash = hash
	return f.terminal, f.terminalErr
}

type fakeHandler struct {
	kind        payment.Kind
	redirectURL string
	err         error
	started     []int64
}

func (h *fakeHandler) Kind() payment.Kind { return h.kind }

func (h *fakeHandler) StartTransaction(_ context.Context, order *models.Order) (string, error) {
	h.started = append(h.started, order.ID)
	if h.err != nil {
		return "", h.err
	}
	order.Payment.Info.TransactionID = "TX-NEW"
	return h.redirectURL, nil
}

type fakeMethods map[string]*fakeHandler

func (m fakeMethods) Resolve(tag string) (payment.Handler, error) {
	h, ok := m[tag]
	if !ok {
		return nil, payment.ErrUnknownMethod
	}
	return h, nil
}

func (m fakeMethods) KindOf(tag string) payment.Kind {
	if h, ok := m[tag]; ok {
		return h.kind
	}
	return payment.KindStandard
}

type fakeDestinations struct {
	success map[string]string
	cancel  map[string]string
}

func (d fakeDestinations) SuccessPage(method string) string {
	return d.success[method]
}

func (d fakeDestinations) CancelURL(method string) string {
	if u, ok := d.cancel[method]; ok {
		return u
	}
	return "checkout/cart"
}

type fakePublisher struct {
	started   []*models.PaymentStartedEvent
	failed    []*models.PaymentStartFailedEvent
	returned  []*models.PaymentReturnedEvent
	cancelled []*models.OrderCancelledEvent
}

func (p *fakePublisher) PublishPaymentStarted(_ context.Context, e *models.PaymentStartedEvent) error {
	p.started = append(p.started, e)
	return nil
}

func (p *fakePublisher) PublishPaymentStartFailed(_ context.Context, e *models.PaymentStartFailedEvent) error {
	p.failed = append(p.failed, e)
	return nil
}

func (p *fakePublisher) PublishPaymentReturned(_ context.Context, e *models.PaymentReturnedEvent) error {
	p.returned = append(p.returned, e)
	return nil
}

func (p *fakePublisher) PublishOrderCancelled(_ context.Context, e *models.OrderCancelledEvent) error {
	p.cancelled = append(p.cancelled, e)
	return nil
}
