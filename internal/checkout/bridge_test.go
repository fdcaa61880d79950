package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider is a SessionCreator with a swappable implementation.
type mockProvider struct {
	CreateCheckoutSessionFunc func(ctx context.Context, req SessionRequest) (string, error)
	calls                     []SessionRequest
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, req)
	}
	return "https://checkout.example/session/" + fmt.Sprint(len(m.calls)), nil
}

func TestBridge_CreateSession(t *testing.T) {
	tests := []struct {
		name      string
		provider  SessionCreator
		priceID   string
		mode      Mode
		wantURL   string
		wantErrAs interface{}
	}{
		{
			name:      "unconfigured provider",
			provider:  nil,
			priceID:   "price_123",
			mode:      ModeSubscription,
			wantErrAs: new(*ConfigurationError),
		},
		{
			name:      "missing mode",
			provider:  &mockProvider{},
			priceID:   "price_123",
			wantErrAs: new(*ValidationError),
		},
		{
			name:      "missing price",
			provider:  &mockProvider{},
			mode:      ModePayment,
			wantErrAs: new(*ValidationError),
		},
		{
			name:      "unknown mode",
			provider:  &mockProvider{},
			priceID:   "price_123",
			mode:      Mode("setup"),
			wantErrAs: new(*ValidationError),
		},
		{
			name: "provider failure",
			provider: &mockProvider{
				CreateCheckoutSessionFunc: func(ctx context.Context, req SessionRequest) (string, error) {
					return "", errors.New("No such price: 'price_123'")
				},
			},
			priceID:   "price_123",
			mode:      ModePayment,
			wantErrAs: new(*ProviderError),
		},
		{
			name:     "success",
			provider: &mockProvider{},
			priceID:  "price_123",
			mode:     ModeSubscription,
			wantURL:  "https://checkout.example/session/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(tt.provider, zerolog.Nop())
			got, err := b.CreateSession(context.Background(), tt.priceID, tt.mode, "http://localhost:3000")

			if tt.wantErrAs != nil {
				require.Error(t, err)
				assert.ErrorAs(t, err, tt.wantErrAs)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got.URL)
		})
	}
}

func TestBridge_ConfigurationErrorRegardlessOfInput(t *testing.T) {
	b := NewBridge(nil, zerolog.Nop())
	assert.False(t, b.Configured())

	_, err := b.CreateSession(context.Background(), "", "", "")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, msgNotConfigured, cfgErr.Error())
	assert.ErrorAs(t, b.CheckConfigured(), &cfgErr)

	configured := NewBridge(&mockProvider{}, zerolog.Nop())
	assert.NoError(t, configured.CheckConfigured())
}

func TestBridge_CallbackURLs(t *testing.T) {
	p := &mockProvider{}
	b := NewBridge(p, zerolog.Nop())

	_, err := b.CreateSession(context.Background(), "price_1", ModePayment, "https://app.example/")
	require.NoError(t, err)

	require.Len(t, p.calls, 1)
	assert.Equal(t, "https://app.example/?checkout=success", p.calls[0].SuccessURL)
	assert.Equal(t, "https://app.example/?checkout=cancel", p.calls[0].CancelURL)
}

func TestBridge_NoDeduplication(t *testing.T) {
	p := &mockProvider{}
	b := NewBridge(p, zerolog.Nop())

	first, err := b.CreateSession(context.Background(), "price_1", ModePayment, "http://x")
	require.NoError(t, err)
	second, err := b.CreateSession(context.Background(), "price_1", ModePayment, "http://x")
	require.NoError(t, err)

	assert.Len(t, p.calls, 2)
	assert.NotEqual(t, first.URL, second.URL)
}

func TestBridge_ProviderMessageVerbatim(t *testing.T) {
	p := &mockProvider{
		CreateCheckoutSessionFunc: func(ctx context.Context, req SessionRequest) (string, error) {
			return "", errors.New("card declined")
		},
	}
	_, err := NewBridge(p, zerolog.Nop()).CreateSession(context.Background(), "price_1", ModePayment, "http://x")

	assert.EqualError(t, err, "card declined")
	assert.Len(t, p.calls, 1)
}

func TestStripeClient_CreateCheckoutSession(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = map[string]string{
			"mode":        r.PostForm.Get("mode"),
			"price":       r.PostForm.Get("line_items[0][price]"),
			"quantity":    r.PostForm.Get("line_items[0][quantity]"),
			"success_url": r.PostForm.Get("success_url"),
			"cancel_url":  r.PostForm.Get("cancel_url"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
	}))
	defer srv.Close()

	c := newStripeClient("sk_test_123", srv.URL)
	url, err := c.CreateCheckoutSession(context.Background(), SessionRequest{
		PriceID:    "price_abc",
		Mode:       ModeSubscription,
		SuccessURL: "http://x/?checkout=success",
		CancelURL:  "http://x/?checkout=cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", url)
	assert.Equal(t, map[string]string{
		"mode":        "subscription",
		"price":       "price_abc",
		"quantity":    "1",
		"success_url": "http://x/?checkout=success",
		"cancel_url":  "http://x/?checkout=cancel",
	}, form)
}

func TestStripeClient_ErrorMessage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"No such price: 'price_missing'","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	b := NewBridge(newStripeClient("sk_test_123", srv.URL), zerolog.Nop())
	_, err := b.CreateSession(context.Background(), "price_missing", ModePayment, "http://x")

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "No such price: 'price_missing'", provErr.Message)
	assert.Equal(t, 1, calls)
}
