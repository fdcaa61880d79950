package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/dvloznov/decision-ease/internal/dashboard"
	"github.com/dvloznov/decision-ease/internal/logger"
	"github.com/dvloznov/decision-ease/internal/state"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfgFile string
	cfg     *config.Config
	log     zerolog.Logger
	store   state.Store
	service *dashboard.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "decision-ease",
		Short: "Subscription and balance notices from the command line",
		Long: `decision-ease inspects the stored dashboard state: detected subscriptions,
credit status and upcoming charges. It can also push exports to the configured
integrations without going through the API server.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./config.yaml or $HOME/.config/decision-ease/config.yaml)")

	root.AddCommand(detectCmd(a))
	root.AddCommand(statusCmd(a))
	root.AddCommand(forecastCmd(a))
	root.AddCommand(exportCmd(a))

	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	// Logs go to stderr so command output stays pipeable.
	a.log = logger.NewWithOptions(logger.Options{
		Level:  cfg.LogLevel,
		Format: logger.Format(cfg.LogFormat),
		Writer: cmd.ErrOrStderr(),
	})

	store, err := state.Open(cmd.Context(), cfg.State)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	a.store = store
	a.service = dashboard.NewService(store, nil, cfg.InitialBalance, a.log)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
