// Package integrations pushes dashboard data to the external services the
// user has switched on: Google Calendar, Google Drive and Notion.
package integrations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/rs/zerolog"
)

var (
	// ErrDisabled is returned when the target integration is switched off.
	ErrDisabled = errors.New("integration is switched off")
	// ErrUnavailable is returned when no exporter is configured for the target.
	ErrUnavailable = errors.New("integration is not configured")
)

// Exporter writes the current state to one integration and reports how
// many items it wrote.
type Exporter interface {
	Target() domain.Integration
	Export(ctx context.Context, st *domain.State, today time.Time) (int, error)
}

// StateLoader reads the current dashboard snapshot.
type StateLoader interface {
	Load(ctx context.Context) (*domain.State, error)
}

// StateLoaderFunc adapts a function to StateLoader.
type StateLoaderFunc func(ctx context.Context) (*domain.State, error)

// Load calls f(ctx).
func (f StateLoaderFunc) Load(ctx context.Context) (*domain.State, error) {
	return f(ctx)
}

// Dispatcher routes export jobs to the exporter for their target.
type Dispatcher struct {
	exporters map[domain.Integration]Exporter
	states    StateLoader
	now       func() time.Time
	log       zerolog.Logger
}

// NewDispatcher creates a dispatcher. Nil exporters are skipped so callers can
// pass whatever they managed to configure.
func NewDispatcher(states StateLoader, log zerolog.Logger, exporters ...Exporter) *Dispatcher {
	d := &Dispatcher{
		exporters: make(map[domain.Integration]Exporter),
		states:    states,
		now:       time.Now,
		log:       log,
	}
	for _, e := range exporters {
		if e == nil {
			continue
		}
		d.exporters[e.Target()] = e
	}
	return d
}

// Available reports whether an exporter is configured for target.
func (d *Dispatcher) Available(target domain.Integration) bool {
	_, ok := d.exporters[target]
	return ok
}

// Handle runs an export job. It satisfies jobs.JobHandler.
func (d *Dispatcher) Handle(ctx context.Context, job jobs.Job) error {
	exportJob, ok := job.(*jobs.ExportJob)
	if !ok {
		return fmt.Errorf("Handle: unexpected job type %T: %w", job, jobs.ErrNoRetry)
	}

	exporter, ok := d.exporters[exportJob.Target]
	if !ok {
		return fmt.Errorf("Handle: %s: %w: %w", exportJob.Target, ErrUnavailable, jobs.ErrNoRetry)
	}

	st, err := d.states.Load(ctx)
	if err != nil {
		return fmt.Errorf("Handle: load state: %w", err)
	}

	if !st.Integrations.Enabled(exportJob.Target) {
		return fmt.Errorf("Handle: %s: %w: %w", exportJob.Target, ErrDisabled, jobs.ErrNoRetry)
	}

	log := d.log.With().
		Str("job_id", exportJob.JobID).
		Str("target", string(exportJob.Target)).
		Logger()
	log.Info().Str("trigger", string(exportJob.Trigger)).Msg("Running export")

	n, err := exporter.Export(ctx, st, d.now())
	if err != nil {
		return fmt.Errorf("Handle: export to %s: %w", exportJob.Target, err)
	}

	log.Info().Int("items", n).Msg("Export completed")
	return nil
}

// activeSubscriptions drops paused and cancelled subscriptions.
func activeSubscriptions(subs []domain.Subscription) []domain.Subscription {
	out := make([]domain.Subscription, 0, len(subs))
	for _, s := range subs {
		if s.Status == domain.StatusActive {
			out = append(out, s)
		}
	}
	return out
}
