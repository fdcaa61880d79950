package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/dvloznov/decision-ease/internal/logger"
	"github.com/dvloznov/decision-ease/internal/state"
)

func main() {
	log := logger.New()

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

// run applies pending schema migrations to the configured SQL backend.
func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	configFile := fs.String("config", "", "Path to a YAML config file (optional)")
	appliedBy := fs.String("applied-by", "migrate-cli", "Name recorded in schema_migrations")
	statusOnly := fs.Bool("status", false, "List migrations and whether they are applied, without running any")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	db, dialect, err := state.OpenDB(ctx, cfg.State)
	if errors.Is(err, state.ErrNotSQL) {
		fmt.Fprintf(out, "State backend %q has no schema. Nothing to migrate.\n", cfg.State.Backend)
		return nil
	}
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(out, "Connected to %s state database\n", dialect)

	migrations, err := state.Migrations()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d migration files\n", len(migrations))

	if *statusOnly {
		return printStatus(ctx, db, migrations, out)
	}

	ran, err := state.Migrate(ctx, db, dialect, *appliedBy)
	for _, m := range ran {
		fmt.Fprintf(out, "  [OK]   %04d_%s\n", m.Version, m.Name)
	}
	if err != nil {
		return err
	}

	if len(ran) == 0 {
		fmt.Fprintln(out, "No new migrations to apply. Database is up to date.")
	} else {
		fmt.Fprintf(out, "Successfully applied %d migration(s)\n", len(ran))
	}
	return nil
}

func printStatus(ctx context.Context, db *sql.DB, migrations []state.Migration, out io.Writer) error {
	applied, err := state.AppliedMigrations(ctx, db)
	if err != nil {
		// schema_migrations does not exist before the first run
		applied = nil
	}
	done := make(map[int]state.AppliedMigration, len(applied))
	for _, am := range applied {
		done[am.Version] = am
	}

	for _, m := range migrations {
		if am, ok := done[m.Version]; ok {
			fmt.Fprintf(out, "  [DONE] %04d_%s (applied %s by %s)\n", m.Version, m.Name, am.AppliedAt, am.AppliedBy)
			continue
		}
		fmt.Fprintf(out, "  [TODO] %04d_%s\n", m.Version, m.Name)
	}
	return nil
}
