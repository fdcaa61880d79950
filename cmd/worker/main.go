// Command worker runs the notice sweep and the exports it triggers without
// serving HTTP. With --once it sweeps a single time, waits for the queued
// export and exits, for use from an external cron.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/dvloznov/decision-ease/internal/dashboard"
	"github.com/dvloznov/decision-ease/internal/integrations"
	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/dvloznov/decision-ease/internal/jobs/inmemory"
	"github.com/dvloznov/decision-ease/internal/logger"
	"github.com/dvloznov/decision-ease/internal/scheduler"
	"github.com/dvloznov/decision-ease/internal/state"
	"github.com/rs/zerolog"
)

const drainTimeout = 2 * time.Minute

func main() {
	configFile := flag.String("config", "", "Path to a YAML config file (optional)")
	once := flag.Bool("once", false, "Run one sweep, drain the export queue and exit")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithOptions(logger.Options{
		Level:  cfg.LogLevel,
		Format: logger.Format(cfg.LogFormat),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := state.Open(ctx, cfg.State)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.State.Backend).Msg("Failed to open state store")
	}
	defer store.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Export.QueueSize, cfg.Export.Workers, jobStore, log)
	service := dashboard.NewService(store, jobQueue, cfg.InitialBalance, log)

	exporters, err := integrations.FromConfig(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure integrations")
	}
	dispatcher := integrations.NewDispatcher(integrations.StateLoaderFunc(service.State), log, exporters...)

	if err := jobQueue.Start(ctx, dispatcher.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	notices := scheduler.NewNoticeScheduler(service, cfg.NoticeCron, log)

	if *once {
		result, err := notices.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Notice sweep failed")
		} else {
			log.Info().
				Str("credit_status", string(result.Status.Label)).
				Str("export_job_id", result.ExportJobID).
				Msg("Notice sweep finished")
			if result.ExportJobID != "" {
				waitForJob(ctx, jobStore, result.ExportJobID, log)
			}
		}
		shutdown(jobQueue, log)
		if err != nil {
			os.Exit(1)
		}
		return
	}

	if err := notices.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start notice scheduler")
	}
	log.Info().Str("schedule", cfg.NoticeCron).Msg("Worker service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	notices.Stop()
	shutdown(jobQueue, log)
	log.Info().Msg("Worker service exited")
}

// waitForJob polls the job store until the export finishes or the drain
// timeout passes. Retries keep the job open, so this can take a while.
func waitForJob(ctx context.Context, store jobs.JobStore, jobID string, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		job, err := store.GetJob(ctx, jobID)
		if err == nil && (job.Status == jobs.JobStatusCompleted || job.Status == jobs.JobStatusFailed) {
			log.Info().Str("job_id", jobID).Str("status", string(job.Status)).Msg("Export finished")
			return
		}

		select {
		case <-ctx.Done():
			log.Warn().Str("job_id", jobID).Msg("Gave up waiting for export")
			return
		case <-ticker.C:
		}
	}
}

// shutdown waits for in-flight exports before the process exits.
func shutdown(queue *inmemory.Queue, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := queue.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
}
