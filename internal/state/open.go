package state

import (
	"context"
	"fmt"

	"github.com/dvloznov/decision-ease/internal/config"
)

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendGCS:
		s, err := OpenGCS(ctx, cfg.GCSBucket, cfg.GCSObject)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("Open: unknown state backend %q", cfg.Backend)
	}
}
