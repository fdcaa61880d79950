package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/decision-ease/internal/api/middleware"
)

// Router groups the handlers served by the API.
type Router struct {
	Checkout  *CheckoutHandler
	Dashboard *DashboardHandler
	Jobs      *JobsHandler
	// StaticDir is served at / when set.
	StaticDir string
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// only wraps h so that it answers just one method.
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

// Mux registers every route on a new ServeMux.
func (rt *Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	// Checkout endpoints
	checkoutSession := only(http.MethodPost, rt.Checkout.CreateSession)
	mux.HandleFunc("/api/checkout-session", checkoutSession)
	mux.HandleFunc("/api/create-checkout-session", checkoutSession)

	billingStatus := only(http.MethodGet, rt.Checkout.Status)
	mux.HandleFunc("/api/billing-status", billingStatus)
	mux.HandleFunc("/api/stripe-status", billingStatus)
	mux.HandleFunc("/api/config", only(http.MethodGet, rt.Checkout.PublicConfig))

	// State endpoints
	mux.HandleFunc("/api/state", only(http.MethodGet, rt.Dashboard.GetState))
	mux.HandleFunc("/api/summary", only(http.MethodGet, rt.Dashboard.GetSummary))
	mux.HandleFunc("/api/onboarding", only(http.MethodPost, rt.Dashboard.CompleteOnboarding))
	mux.HandleFunc("/api/subscriptions", only(http.MethodPost, rt.Dashboard.AddSubscription))

	mux.HandleFunc("/api/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/subscriptions/")
		switch {
		case id == "redetect" && r.Method == http.MethodPost:
			rt.Dashboard.Redetect(w, r)
		case id == "":
			middleware.WriteError(w, http.StatusBadRequest, "Subscription ID is required")
		case r.Method == http.MethodPut:
			rt.Dashboard.UpdateSubscription(w, r, id)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/premium/activate", only(http.MethodPost, rt.Dashboard.ActivatePremium))
	mux.HandleFunc("/api/premium/cancel", only(http.MethodPost, rt.Dashboard.CancelPremium))

	mux.HandleFunc("/api/integrations/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/integrations/")
		name, ok := strings.CutSuffix(rest, "/toggle")
		if !ok || name == "" || strings.Contains(name, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		rt.Dashboard.ToggleIntegration(w, r, name)
	})

	mux.HandleFunc("/api/settings/font-scale", only(http.MethodPut, rt.Dashboard.SetFontScale))
	mux.HandleFunc("/api/exports", only(http.MethodPost, rt.Dashboard.RequestExport))

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", only(http.MethodGet, rt.Jobs.ListJobs))
	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		rt.Jobs.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", Health)

	if rt.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(rt.StaticDir)))
	}

	return mux
}
