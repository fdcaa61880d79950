// Package dashboard owns the state container. Every mutation loads the
// snapshot, changes it and saves it back whole.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/decision-ease/internal/detector"
	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/dvloznov/decision-ease/internal/state"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidSubscription  = errors.New("invalid subscription")
	ErrUnknownIntegration   = errors.New("unknown integration")
	ErrInvalidFontScale     = errors.New("font scale out of range")
	ErrUnknownCancelAction  = errors.New("unknown cancel action")
	ErrNotExportTarget      = errors.New("integration does not accept exports")
	ErrIntegrationDisabled  = errors.New("integration is switched off")
	ErrExportsUnavailable   = errors.New("exports are not available")
)

// CancelAction is a step of the premium cancellation flow.
type CancelAction string

const (
	// CancelPause turns premium off without cancelling the plan.
	CancelPause CancelAction = "pause"
	// CancelReduceNotice keeps premium but silences notices.
	CancelReduceNotice CancelAction = "reduce-notice"
	// CancelConfirm ends premium.
	CancelConfirm CancelAction = "confirm"
)

// SubscriptionEdit holds the fields to change; nil fields are left alone.
type SubscriptionEdit struct {
	Name       *string                    `json:"name,omitempty"`
	Amount     *int64                     `json:"amount,omitempty"`
	RenewalDay *int                       `json:"renewalDay,omitempty"`
	Status     *domain.SubscriptionStatus `json:"status,omitempty"`
}

// Service serializes access to the state store. net/http serves requests
// concurrently, so every load-mutate-save cycle runs under one mutex.
type Service struct {
	mu        sync.Mutex
	store     state.Store
	publisher jobs.Publisher
	balance   int64
	newID     func() string
	log       zerolog.Logger
}

// NewService creates a service. publisher may be nil, in which case export
// requests fail with ErrExportsUnavailable. initialBalance seeds a fresh state.
func NewService(store state.Store, publisher jobs.Publisher, initialBalance int64, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		balance:   initialBalance,
		newID:     func() string { return uuid.New().String() },
		log:       log,
	}
}

// SeedState builds the first-run state: the sample ledger, classified, with
// detection already applied.
func SeedState(balance int64) *domain.State {
	st := domain.NewState(balance)
	st.Transactions = detector.Classify(domain.SampleTransactions())
	st.Subscriptions = detector.Detect(st.Transactions)
	return st
}

// load must be called with s.mu held.
func (s *Service) load(ctx context.Context) (*domain.State, error) {
	st, err := s.store.Load(ctx)
	if errors.Is(err, state.ErrNotFound) {
		st = SeedState(s.balance)
		if err := s.store.Save(ctx, st); err != nil {
			return nil, fmt.Errorf("load: save seed: %w", err)
		}
		s.log.Info().
			Int("transactions", len(st.Transactions)).
			Int("subscriptions", len(st.Subscriptions)).
			Msg("Seeded dashboard state")
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return st, nil
}

// update runs fn on the current state and saves the result. Nothing is saved
// when fn fails.
func (s *Service) update(ctx context.Context, fn func(st *domain.State) error) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return st, nil
}

// State returns the current snapshot, seeding it on first use.
func (s *Service) State(ctx context.Context) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("State: %w", err)
	}
	return st, nil
}

// CompleteOnboarding stores the onboarding answers.
func (s *Service) CompleteOnboarding(ctx context.Context, profile domain.Profile) (*domain.State, error) {
	st, err := s.update(ctx, func(st *domain.State) error {
		st.User = &profile
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("CompleteOnboarding: %w", err)
	}
	return st, nil
}

// AddSubscription records a subscription the user entered by hand.
func (s *Service) AddSubscription(ctx context.Context, name string, amount int64, renewalDay int) (domain.Subscription, error) {
	sub := domain.Subscription{
		ID:         "manual-" + s.newID(),
		Name:       strings.TrimSpace(name),
		Amount:     amount,
		RenewalDay: renewalDay,
		Status:     domain.StatusActive,
		Category:   domain.CategoryUncategorized,
	}
	if err := validateSubscription(sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("AddSubscription: %w", err)
	}

	_, err := s.update(ctx, func(st *domain.State) error {
		st.Subscriptions = append(st.Subscriptions, sub)
		return nil
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("AddSubscription: %w", err)
	}

	s.log.Info().Str("subscription_id", sub.ID).Str("name", sub.Name).Msg("Subscription added")
	return sub, nil
}

// UpdateSubscription applies edit to the subscription with id. Subscriptions
// are never deleted; set the status to cancelled instead.
func (s *Service) UpdateSubscription(ctx context.Context, id string, edit SubscriptionEdit) (domain.Subscription, error) {
	var updated domain.Subscription
	_, err := s.update(ctx, func(st *domain.State) error {
		for i := range st.Subscriptions {
			if st.Subscriptions[i].ID != id {
				continue
			}
			sub := st.Subscriptions[i]
			if edit.Name != nil {
				sub.Name = strings.TrimSpace(*edit.Name)
			}
			if edit.Amount != nil {
				sub.Amount = *edit.Amount
			}
			if edit.RenewalDay != nil {
				sub.RenewalDay = *edit.RenewalDay
			}
			if edit.Status != nil {
				sub.Status = *edit.Status
			}
			if err := validateSubscription(sub); err != nil {
				return err
			}
			st.Subscriptions[i] = sub
			updated = sub
			return nil
		}
		return fmt.Errorf("%q: %w", id, ErrSubscriptionNotFound)
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("UpdateSubscription: %w", err)
	}
	return updated, nil
}

func validateSubscription(sub domain.Subscription) error {
	switch {
	case sub.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidSubscription)
	case sub.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidSubscription)
	case sub.RenewalDay < 1 || sub.RenewalDay > 31:
		return fmt.Errorf("%w: renewal day must be between 1 and 31", ErrInvalidSubscription)
	case !sub.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSubscription, sub.Status)
	}
	return nil
}

// ActivatePremium is called when checkout reports success.
func (s *Service) ActivatePremium(ctx context.Context) (*domain.State, error) {
	st, err := s.update(ctx, func(st *domain.State) error {
		st.PremiumActive = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ActivatePremium: %w", err)
	}
	s.log.Info().Msg("Premium activated")
	return st, nil
}

// CancelFlow applies one step of the cancellation flow.
func (s *Service) CancelFlow(ctx context.Context, action CancelAction) (*domain.State, error) {
	st, err := s.update(ctx, func(st *domain.State) error {
		switch action {
		case CancelPause, CancelConfirm:
			st.PremiumActive = false
		case CancelReduceNotice:
			st.NoticeLevel = domain.NoticeOff
		default:
			return fmt.Errorf("%q: %w", action, ErrUnknownCancelAction)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("CancelFlow: %w", err)
	}
	s.log.Info().Str("action", string(action)).Msg("Cancel flow step applied")
	return st, nil
}

// ToggleIntegration flips an integration and returns its new setting.
func (s *Service) ToggleIntegration(ctx context.Context, name string) (bool, error) {
	integration, err := domain.ParseIntegration(name)
	if err != nil {
		return false, fmt.Errorf("ToggleIntegration: %w: %w", ErrUnknownIntegration, err)
	}

	var enabled bool
	_, err = s.update(ctx, func(st *domain.State) error {
		enabled = !st.Integrations[integration]
		st.Integrations[integration] = enabled
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ToggleIntegration: %w", err)
	}
	return enabled, nil
}

// SetFontScale stores the text size multiplier.
func (s *Service) SetFontScale(ctx context.Context, scale float64) (*domain.State, error) {
	if scale < domain.MinFontScale || scale > domain.MaxFontScale {
		return nil, fmt.Errorf("SetFontScale: %w: %.2f not in [%.1f, %.1f]",
			ErrInvalidFontScale, scale, domain.MinFontScale, domain.MaxFontScale)
	}

	st, err := s.update(ctx, func(st *domain.State) error {
		st.FontScale = scale
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("SetFontScale: %w", err)
	}
	return st, nil
}

// Redetect reruns detection over the stored transactions. Subscriptions the
// user added by hand are kept, and detected ones keep the status the user
// gave them.
func (s *Service) Redetect(ctx context.Context) ([]domain.Subscription, error) {
	st, err := s.update(ctx, func(st *domain.State) error {
		previous := make(map[string]domain.SubscriptionStatus)
		var manual []domain.Subscription
		for _, sub := range st.Subscriptions {
			if sub.Detected {
				previous[sub.ID] = sub.Status
				continue
			}
			manual = append(manual, sub)
		}

		st.Transactions = detector.Classify(st.Transactions)
		detected := detector.Detect(st.Transactions)
		for i := range detected {
			if status, ok := previous[detected[i].ID]; ok {
				detected[i].Status = status
			}
		}
		st.Subscriptions = append(detected, manual...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Redetect: %w", err)
	}
	return st.Subscriptions, nil
}

// RequestExport enqueues an export to target after checking it is switched on.
func (s *Service) RequestExport(ctx context.Context, target domain.Integration, trigger jobs.Trigger) (*jobs.ExportJob, error) {
	if !jobs.IsExportTarget(target) {
		return nil, fmt.Errorf("RequestExport: %q: %w", target, ErrNotExportTarget)
	}
	if s.publisher == nil {
		return nil, fmt.Errorf("RequestExport: %w", ErrExportsUnavailable)
	}

	st, err := s.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("RequestExport: %w", err)
	}
	if !st.Integrations.Enabled(target) {
		return nil, fmt.Errorf("RequestExport: %s: %w", target, ErrIntegrationDisabled)
	}

	job := &jobs.ExportJob{Target: target, Trigger: trigger}
	if err := s.publisher.PublishExport(ctx, job); err != nil {
		return nil, fmt.Errorf("RequestExport: %w", err)
	}

	s.log.Info().
		Str("job_id", job.JobID).
		Str("target", string(target)).
		Str("trigger", string(trigger)).
		Msg("Export requested")
	return job, nil
}

// Summary derives every notice for the current state as of today.
func (s *Service) Summary(ctx context.Context, today time.Time) (*Summary, error) {
	st, err := s.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}
	return BuildSummary(st, today), nil
}
