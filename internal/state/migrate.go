package state

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Migration is one versioned schema change.
type Migration struct {
	Version  int
	Name     string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt string
	Checksum  string
	AppliedBy string
}

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

const schemaMigrationsSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	applied_by TEXT NOT NULL
);
`

// Migrations returns the embedded migrations sorted by version.
func Migrations() ([]Migration, error) {
	return readMigrations(migrationFiles, "migrations")
}

func readMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("readMigrations: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := migrationPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		version, _ := strconv.Atoi(m[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("readMigrations: version %04d used by %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("readMigrations: %s: %w", e.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version:  version,
			Name:     m[2],
			SQL:      string(content),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Migrate applies every embedded migration that db has not seen yet and
// returns the ones it ran. A migration whose file changed after it was
// applied is an error.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, appliedBy string) ([]Migration, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, fmt.Errorf("Migrate: %w", err)
	}
	return migrate(ctx, db, dialect, appliedBy, migrations)
}

func migrate(ctx context.Context, db *sql.DB, dialect Dialect, appliedBy string, migrations []Migration) ([]Migration, error) {
	if _, err := db.ExecContext(ctx, schemaMigrationsSQL); err != nil {
		return nil, fmt.Errorf("Migrate: ensure schema_migrations: %w", err)
	}

	applied, err := AppliedMigrations(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("Migrate: %w", err)
	}
	checksums := make(map[int]string, len(applied))
	for _, am := range applied {
		checksums[am.Version] = am.Checksum
	}

	var ran []Migration
	for _, m := range migrations {
		if sum, ok := checksums[m.Version]; ok {
			if sum != m.Checksum {
				return ran, fmt.Errorf("Migrate: %04d_%s changed after it was applied", m.Version, m.Name)
			}
			continue
		}
		if err := applyMigration(ctx, db, dialect, appliedBy, m); err != nil {
			return ran, fmt.Errorf("Migrate: %04d_%s: %w", m.Version, m.Name, err)
		}
		ran = append(ran, m)
	}
	return ran, nil
}

func applyMigration(ctx context.Context, db *sql.DB, dialect Dialect, appliedBy string, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		rebind(dialect, "INSERT INTO schema_migrations (version, name, applied_at, checksum, applied_by) VALUES (?, ?, ?, ?, ?)"),
		m.Version, m.Name, time.Now().UTC().Format(time.RFC3339), m.Checksum, appliedBy,
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return tx.Commit()
}

// AppliedMigrations lists the rows of schema_migrations in version order.
func AppliedMigrations(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT version, name, applied_at, checksum, applied_by FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("AppliedMigrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.Name, &am.AppliedAt, &am.Checksum, &am.AppliedBy); err != nil {
			return nil, fmt.Errorf("AppliedMigrations: scan: %w", err)
		}
		applied = append(applied, am)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("AppliedMigrations: %w", err)
	}
	return applied, nil
}
