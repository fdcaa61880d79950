package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/decision-ease/internal/api/handlers"
	"github.com/dvloznov/decision-ease/internal/api/middleware"
	"github.com/dvloznov/decision-ease/internal/checkout"
	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/dvloznov/decision-ease/internal/dashboard"
	"github.com/dvloznov/decision-ease/internal/integrations"
	"github.com/dvloznov/decision-ease/internal/jobs/inmemory"
	"github.com/dvloznov/decision-ease/internal/logger"
	"github.com/dvloznov/decision-ease/internal/scheduler"
	"github.com/dvloznov/decision-ease/internal/state"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML config file (optional)")
	flag.Parse()

	// Bootstrap logger until configuration is known
	log := logger.New()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.NewWithOptions(logger.Options{
		Level:  cfg.LogLevel,
		Format: logger.Format(cfg.LogFormat),
	})

	ctx := context.Background()

	store, err := state.Open(ctx, cfg.State)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.State.Backend).Msg("Failed to open state store")
	}
	defer store.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Export.QueueSize, cfg.Export.Workers, jobStore, log)

	service := dashboard.NewService(store, jobQueue, cfg.InitialBalance, log)

	exporters, err := integrations.FromConfig(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure integrations")
	}
	dispatcher := integrations.NewDispatcher(integrations.StateLoaderFunc(service.State), log, exporters...)

	// Start workers in background to process export jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, dispatcher.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start export workers")
	}

	notices := scheduler.NewNoticeScheduler(service, cfg.NoticeCron, log)
	if err := notices.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start notice scheduler")
	}

	var provider checkout.SessionCreator
	if cfg.Stripe.SecretKey != "" {
		provider = checkout.NewStripeClient(cfg.Stripe.SecretKey)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set - checkout will report a configuration error")
	}
	bridge := checkout.NewBridge(provider, log)

	router := &handlers.Router{
		Checkout:  handlers.NewCheckoutHandler(bridge, cfg.Stripe, log),
		Dashboard: handlers.NewDashboardHandler(service, log),
		Jobs:      handlers.NewJobsHandler(jobStore, log),
		StaticDir: cfg.StaticDir,
	}

	handler := middleware.Chain(router.Mux(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.RequestID,
		middleware.CORS,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("environment", cfg.Environment).
			Str("state_backend", cfg.State.Backend).
			Bool("checkout_configured", bridge.Configured()).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	notices.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorker()

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
