// Package scheduler runs the periodic notice sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/decision-ease/internal/dashboard"
	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/dvloznov/decision-ease/internal/notice"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const sweepTimeout = time.Minute

// Dashboard is what the sweep needs from the dashboard service.
type Dashboard interface {
	State(ctx context.Context) (*domain.State, error)
	RequestExport(ctx context.Context, target domain.Integration, trigger jobs.Trigger) (*jobs.ExportJob, error)
}

// SweepResult is what one sweep found.
type SweepResult struct {
	Status         notice.Status
	BalanceWarning string
	ExportJobID    string
}

// NoticeScheduler evaluates the credit status and balance warning on a cron
// schedule and keeps the calendar in sync for premium users.
type NoticeScheduler struct {
	cronEngine *cron.Cron
	spec       string
	dashboard  Dashboard
	now        func() time.Time
	log        zerolog.Logger
}

// NewNoticeScheduler creates a scheduler using the standard five-field cron
// spec, e.g. "0 9 * * *" for 09:00 every day in server local time.
func NewNoticeScheduler(dash Dashboard, spec string, log zerolog.Logger) *NoticeScheduler {
	return &NoticeScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		spec:       spec,
		dashboard:  dash,
		now:        time.Now,
		log:        log,
	}
}

// Start registers the sweep and starts the cron engine.
func (s *NoticeScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error().Err(err).Msg("Notice sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("Start: add notice sweep %q: %w", s.spec, err)
	}

	s.cronEngine.Start()
	s.log.Info().Str("spec", s.spec).Msg("Notice scheduler started")
	return nil
}

// Stop stops the engine and waits for a running sweep to finish.
func (s *NoticeScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Notice scheduler stopped")
}

// Sweep runs one evaluation immediately.
func (s *NoticeScheduler) Sweep(ctx context.Context) (*SweepResult, error) {
	st, err := s.dashboard.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("Sweep: %w", err)
	}

	today := s.now()
	result := &SweepResult{
		Status: notice.CreditStatus(st.Transactions, st.Subscriptions, st.Balance),
	}

	s.log.Info().
		Str("label", string(result.Status.Label)).
		Str("reason", result.Status.Reason).
		Int64("balance", st.Balance).
		Msg("Credit status evaluated")

	if warning, ok := notice.BalanceWarning(st.Subscriptions, st.Balance, today); ok {
		result.BalanceWarning = warning
		event := s.log.Warn()
		if st.NoticeLevel == domain.NoticeOff {
			event = s.log.Debug()
		}
		event.Msg(warning)
	}

	if st.PremiumActive && st.Integrations.Enabled(domain.IntegrationCalendar) {
		job, err := s.dashboard.RequestExport(ctx, domain.IntegrationCalendar, jobs.TriggerScheduler)
		switch {
		case errors.Is(err, dashboard.ErrExportsUnavailable):
			s.log.Debug().Msg("Calendar sync skipped: exports unavailable")
		case err != nil:
			return result, fmt.Errorf("Sweep: request calendar export: %w", err)
		default:
			result.ExportJobID = job.JobID
		}
	}

	return result, nil
}

var _ Dashboard = (*dashboard.Service)(nil)
