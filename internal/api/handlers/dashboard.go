package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/decision-ease/internal/api/middleware"
	"github.com/dvloznov/decision-ease/internal/dashboard"
	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/rs/zerolog"
)

// DashboardHandler exposes the state container over HTTP.
type DashboardHandler struct {
	service *dashboard.Service
	now     func() time.Time
	log     zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service *dashboard.Service, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		now:     time.Now,
		log:     log,
	}
}

// GetState handles GET /api/state
func (h *DashboardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.State(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to load state")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, st)
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), h.now())
	if err != nil {
		h.fail(w, err, "Failed to build summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// CompleteOnboarding handles POST /api/onboarding
func (h *DashboardHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	st, err := h.service.CompleteOnboarding(r.Context(), profile)
	if err != nil {
		h.fail(w, err, "Failed to save onboarding")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, st)
}

// AddSubscription handles POST /api/subscriptions
func (h *DashboardHandler) AddSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Amount     int64  `json:"amount"`
		RenewalDay int    `json:"renewalDay"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.service.AddSubscription(r.Context(), req.Name, req.Amount, req.RenewalDay)
	if err != nil {
		h.fail(w, err, "Failed to add subscription")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, sub)
}

// UpdateSubscription handles PUT /api/subscriptions/{id}
func (h *DashboardHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request, id string) {
	var edit dashboard.SubscriptionEdit
	if err := decodeJSON(w, r, &edit); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.service.UpdateSubscription(r.Context(), id, edit)
	if err != nil {
		h.fail(w, err, "Failed to update subscription")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sub)
}

// Redetect handles POST /api/subscriptions/redetect
func (h *DashboardHandler) Redetect(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.Redetect(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to detect subscriptions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// ActivatePremium handles POST /api/premium/activate
func (h *DashboardHandler) ActivatePremium(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.ActivatePremium(r.Context())
	if err != nil {
		h.fail(w, err, "Failed to activate premium")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, st)
}

// CancelPremium handles POST /api/premium/cancel
func (h *DashboardHandler) CancelPremium(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action dashboard.CancelAction `json:"action"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	st, err := h.service.CancelFlow(r.Context(), req.Action)
	if err != nil {
		h.fail(w, err, "Failed to apply cancel step")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, st)
}

// ToggleIntegration handles POST /api/integrations/{name}/toggle
func (h *DashboardHandler) ToggleIntegration(w http.ResponseWriter, r *http.Request, name string) {
	enabled, err := h.service.ToggleIntegration(r.Context(), name)
	if err != nil {
		h.fail(w, err, "Failed to toggle integration")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"integration": name,
		"enabled":     enabled,
	})
}

// SetFontScale handles PUT /api/settings/font-scale
func (h *DashboardHandler) SetFontScale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FontScale *float64 `json:"fontScale"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.FontScale == nil {
		middleware.WriteError(w, http.StatusBadRequest, "fontScale is required")
		return
	}

	st, err := h.service.SetFontScale(r.Context(), *req.FontScale)
	if err != nil {
		h.fail(w, err, "Failed to save font scale")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, st)
}

// RequestExport handles POST /api/exports
func (h *DashboardHandler) RequestExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	target, err := domain.ParseIntegration(req.Target)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.service.RequestExport(r.Context(), target, jobs.TriggerUser)
	if err != nil {
		h.fail(w, err, "Failed to enqueue export")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"target": string(job.Target),
		"status": string(job.Status),
	})
}

// fail maps service errors onto HTTP statuses. Unexpected errors are logged
// and reported with fallback.
func (h *DashboardHandler) fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, dashboard.ErrSubscriptionNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dashboard.ErrInvalidSubscription),
		errors.Is(err, dashboard.ErrUnknownIntegration),
		errors.Is(err, dashboard.ErrInvalidFontScale),
		errors.Is(err, dashboard.ErrUnknownCancelAction),
		errors.Is(err, dashboard.ErrNotExportTarget):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, dashboard.ErrIntegrationDisabled):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dashboard.ErrExportsUnavailable):
		middleware.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error().Err(err).Msg(fallback)
		middleware.WriteError(w, http.StatusInternalServerError, fallback)
	}
}
