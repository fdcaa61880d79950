package integrations

import (
	"context"
	"fmt"

	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/rs/zerolog"
)

// FromConfig builds every exporter the configuration has credentials for.
// Google exporters need a credentials file; Notion needs a token and a
// database ID. Targets without credentials are left out.
func FromConfig(ctx context.Context, cfg *config.Config, log zerolog.Logger) ([]Exporter, error) {
	var exporters []Exporter

	if cfg.Google.CredentialsFile != "" {
		cal, err := NewCalendarExporter(ctx, cfg.Google.CredentialsFile, cfg.Google.CalendarID, log)
		if err != nil {
			return nil, fmt.Errorf("FromConfig: %w", err)
		}
		drv, err := NewDriveExporter(ctx, cfg.Google.CredentialsFile, cfg.Google.DriveFolderID, log)
		if err != nil {
			return nil, fmt.Errorf("FromConfig: %w", err)
		}
		exporters = append(exporters, cal, drv)
	} else {
		log.Warn().Msg("GOOGLE_CREDENTIALS_FILE not set - calendar and drive exports disabled")
	}

	if cfg.Notion.Token != "" && cfg.Notion.DatabaseID != "" {
		exporters = append(exporters, NewNotionExporter(NewNotionClient(cfg.Notion.Token), cfg.Notion.DatabaseID, log))
	} else {
		log.Warn().Msg("NOTION_TOKEN or NOTION_DATABASE_ID not set - notion exports disabled")
	}

	return exporters, nil
}
