// Package checkout forwards purchase requests to the payment provider and
// hands back the hosted checkout URL.
package checkout

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Mode is the billing mode of a checkout session.
type Mode string

const (
	// ModePayment is a one-time purchase.
	ModePayment Mode = "payment"
	// ModeSubscription starts a recurring plan.
	ModeSubscription Mode = "subscription"
)

// Valid reports whether m is a supported billing mode.
func (m Mode) Valid() bool {
	return m == ModePayment || m == ModeSubscription
}

const (
	msgNotConfigured = "Payment provider is not configured. Set STRIPE_SECRET_KEY."
	msgMissingFields = "priceId and mode are required."
	msgInvalidMode   = "mode must be \"payment\" or \"subscription\"."
)

// SessionRequest is what the provider needs to open a hosted checkout page.
type SessionRequest struct {
	PriceID    string
	Mode       Mode
	SuccessURL string
	CancelURL  string
}

// SessionCreator opens a checkout session at the payment provider and
// returns its redirect URL.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error)
}

// Session is the result handed back to the client.
type Session struct {
	URL string `json:"url"`
}

// Bridge validates checkout requests and forwards them to the provider.
// Each call makes exactly one provider request: there is no retry and no
// idempotency key, so repeated calls open distinct sessions.
type Bridge struct {
	provider SessionCreator
	log      zerolog.Logger
}

// NewBridge creates a bridge. A nil provider leaves the bridge unconfigured
// and every CreateSession call fails with a ConfigurationError.
func NewBridge(provider SessionCreator, log zerolog.Logger) *Bridge {
	return &Bridge{
		provider: provider,
		log:      log,
	}
}

// Configured reports whether a provider client is available.
func (b *Bridge) Configured() bool {
	return b.provider != nil
}

// CheckConfigured returns a ConfigurationError when no provider is set.
func (b *Bridge) CheckConfigured() error {
	if !b.Configured() {
		return &ConfigurationError{Message: msgNotConfigured}
	}
	return nil
}

// CreateSession opens one checkout session for priceID. Success and cancel
// callbacks point back at originURL.
func (b *Bridge) CreateSession(ctx context.Context, priceID string, mode Mode, originURL string) (*Session, error) {
	if err := b.CheckConfigured(); err != nil {
		return nil, err
	}

	if priceID == "" || mode == "" {
		return nil, &ValidationError{Message: msgMissingFields}
	}
	if !mode.Valid() {
		return nil, &ValidationError{Message: msgInvalidMode}
	}

	origin := strings.TrimRight(originURL, "/")
	req := SessionRequest{
		PriceID:    priceID,
		Mode:       mode,
		SuccessURL: origin + "/?checkout=success",
		CancelURL:  origin + "/?checkout=cancel",
	}

	url, err := b.provider.CreateCheckoutSession(ctx, req)
	if err != nil {
		b.log.Error().
			Err(err).
			Str("price_id", priceID).
			Str("mode", string(mode)).
			Msg("Checkout session creation failed")
		return nil, &ProviderError{Message: providerMessage(err), Err: err}
	}

	b.log.Info().
		Str("price_id", priceID).
		Str("mode", string(mode)).
		Msg("Checkout session created")

	return &Session{URL: url}, nil
}
