package checkout

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeClient is the SessionCreator backed by the Stripe API.
type StripeClient struct {
	api *client.API
}

// NewStripeClient creates a Stripe client authenticated with secretKey.
func NewStripeClient(secretKey string) *StripeClient {
	return newStripeClient(secretKey, "")
}

// newStripeClient allows pointing the client at a different API host.
// Network retries are disabled so every call is a single attempt.
func newStripeClient(secretKey, baseURL string) *StripeClient {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
	}
	if baseURL != "" {
		cfg.URL = stripe.String(baseURL)
	}

	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackend(stripe.ConnectBackend),
		Uploads: stripe.GetBackend(stripe.UploadsBackend),
	})
	return &StripeClient{api: api}
}

// CreateCheckoutSession opens a Stripe Checkout session for a single unit of the price.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(req.Mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// providerMessage extracts the human-readable message of a provider error.
// stripe.Error renders itself as JSON, so its Msg field is used instead.
func providerMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}

var _ SessionCreator = (*StripeClient)(nil)
