package service

import (
	"net/url"

	"checkout-gateway/config"
	"checkout-gateway/internal/payment"
)

// Redirect is where the customer's browser is sent next. Path is either a
// storefront-relative path or an absolute URL.
type Redirect struct {
	Path    string
	Query   url.Values
	NoCache bool
}

// CartRedirect sends the customer back to the cart.
func CartRedirect() Redirect {
	return Redirect{Path: config.CartPath}
}

func successDestination(cfg DestinationConfig, method string, kind payment.Kind) string {
	if page := cfg.SuccessPage(method); page != "" {
		return page
	}
	if kind == payment.KindPaylink {
		return config.FinishPaylink
	}
	return config.FinishStandard
}

func cancelDestination(cfg DestinationConfig, method string, kind payment.Kind) Redirect {
	if kind == payment.KindPaylink {
		return Redirect{Path: config.FinishPaylink, Query: url.Values{"cancel": {"1"}}}
	}
	return Redirect{Path: cfg.CancelURL(method)}
}
