package payment

import (
	"context"
	"errors"
	"fmt"

	"checkout-gateway/internal/models"
)

// Kind is the closed set of payment-method families the checkout knows.
type Kind int

const (
	KindStandard Kind = iota
	KindPaylink
	KindInstore
	KindOffline
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindPaylink:
		return "paylink"
	case KindInstore:
		return "instore"
	case KindOffline:
		return "offline"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// GatewayBacked reports whether methods of this kind pay through the gateway.
func (k Kind) GatewayBacked() bool {
	return k != KindOffline
}

// Method tags
const (
	MethodIdeal           = "ideal"
	MethodCreditCard      = "creditcard"
	MethodPaypal          = "paypal"
	MethodBancontact      = "bancontact"
	MethodPaylink         = "paylink"
	MethodInstore         = "instore"
	MethodCheckMoneyOrder = "checkmo"
	MethodCashOnDelivery  = "cashondelivery"
)

var ErrUnknownMethod = errors.New("unknown payment method")

// Handler starts payments for one method tag.
type Handler interface {
	Kind() Kind
	StartTransaction(ctx context.Context, order *models.Order) (string, error)
}

// Registry maps method tags to their handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a method tag to a handler, replacing any previous binding
func (r *Registry) Register(tag string, h Handler) {
	r.handlers[tag] = h
}

// Resolve returns the handler for a method tag
func (r *Registry) Resolve(tag string) (Handler, error) {
	h, ok := r.handlers[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, tag)
	}
	return h, nil
}

// KindOf returns the kind of a method tag; unregistered tags are treated as standard
func (r *Registry) KindOf(tag string) Kind {
	if h, ok := r.handlers[tag]; ok {
		return h.Kind()
	}
	return KindStandard
}

// offlineHandler stands for payment methods settled outside the gateway.
type offlineHandler struct{}

func (offlineHandler) Kind() Kind { return KindOffline }

func (offlineHandler) StartTransaction(context.Context, *models.Order) (string, error) {
	return "", errors.New("offline payment methods do not start gateway transactions")
}
