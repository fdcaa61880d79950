package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/decision-ease/internal/api/middleware"
	"github.com/dvloznov/decision-ease/internal/checkout"
	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/rs/zerolog"
)

// CheckoutHandler serves the payment endpoints.
type CheckoutHandler struct {
	bridge *checkout.Bridge
	prices config.StripeConfig
	log    zerolog.Logger
}

// NewCheckoutHandler creates a checkout handler. Only the price IDs of
// prices are exposed; the secret key never leaves the server.
func NewCheckoutHandler(bridge *checkout.Bridge, prices config.StripeConfig, log zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		bridge: bridge,
		prices: prices,
		log:    log,
	}
}

// CreateSession handles POST /api/checkout-session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if err := h.bridge.CheckConfigured(); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req struct {
		PriceID string        `json:"priceId"`
		Mode    checkout.Mode `json:"mode"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.bridge.CreateSession(r.Context(), req.PriceID, req.Mode, originURL(r))
	if err != nil {
		var validationErr *checkout.ValidationError
		status := http.StatusInternalServerError
		if errors.As(err, &validationErr) {
			status = http.StatusBadRequest
		}
		middleware.WriteError(w, status, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, session)
}

// Status handles GET /api/billing-status
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{
		"configured": h.bridge.Configured(),
	})
}

// PublicConfig handles GET /api/config
func (h *CheckoutHandler) PublicConfig(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"priceIds": map[string]string{
			"premiumSubscription": h.prices.PricePremium,
			"oneTimePurchase":     h.prices.PriceOneTime,
		},
	})
}

// originURL is where checkout sends the browser back to: the Origin header
// when the browser sent one, otherwise this server.
func originURL(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
