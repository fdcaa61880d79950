package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/integrations"
	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func exportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <calendar|drive|notion>",
		Short: "Run an export now",
		Long: `Export runs one export synchronously, the same way the API workers do.
The integration must be switched on in the dashboard and have credentials in
the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := domain.ParseIntegration(args[0])
			if err != nil {
				return err
			}
			if !jobs.IsExportTarget(target) {
				return fmt.Errorf("%s does not accept exports", target)
			}

			ctx := cmd.Context()
			exporters, err := integrations.FromConfig(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			dispatcher := integrations.NewDispatcher(integrations.StateLoaderFunc(a.service.State), a.log, exporters...)
			if !dispatcher.Available(target) {
				return fmt.Errorf("%s is not configured: %w", target, integrations.ErrUnavailable)
			}

			job := &jobs.ExportJob{
				JobID:     uuid.New().String(),
				Target:    target,
				Trigger:   jobs.TriggerCLI,
				Status:    jobs.JobStatusRunning,
				CreatedAt: time.Now(),
			}
			if err := dispatcher.Handle(ctx, job); err != nil {
				if errors.Is(err, integrations.ErrDisabled) {
					return fmt.Errorf("%s is switched off; enable it in the dashboard first", target)
				}
				return fmt.Errorf("export to %s failed: %w", target, err)
			}

			writeLine(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Exported to %s (job %s)", target, job.JobID)))
			return nil
		},
	}
}
