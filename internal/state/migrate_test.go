package state

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_add_index.sql":     {Data: []byte("CREATE INDEX i ON t (a);")},
		"m/0001_init.sql":          {Data: []byte("CREATE TABLE t (a TEXT);")},
		"m/001_short_version.sql":  {Data: []byte("SELECT 1;")},
		"m/0003_missing_extension": {Data: []byte("SELECT 1;")},
		"m/README.md":              {Data: []byte("notes")},
	}

	got, err := readMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "init", got[0].Name)
	assert.Equal(t, 2, got[1].Version)
	assert.Equal(t, "add_index", got[1].Name)
	assert.Len(t, got[0].Checksum, 64)
	assert.NotEqual(t, got[0].Checksum, got[1].Checksum)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("SELECT 1;")},
		"m/0001_b.sql": {Data: []byte("SELECT 2;")},
	}

	_, err := readMigrations(fsys, "m")
	assert.ErrorContains(t, err, "version 0001")
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].Version)
	assert.Contains(t, got[0].SQL, "dashboard_state")
}

func TestMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := OpenDB(ctx, config.StateConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "migrate.db"),
	})
	require.NoError(t, err)
	defer db.Close()

	ran, err := Migrate(ctx, db, dialect, "test")
	require.NoError(t, err)
	all, err := Migrations()
	require.NoError(t, err)
	assert.Len(t, ran, len(all))

	again, err := Migrate(ctx, db, dialect, "test")
	require.NoError(t, err)
	assert.Empty(t, again)

	applied, err := AppliedMigrations(ctx, db)
	require.NoError(t, err)
	require.Len(t, applied, len(all))
	assert.Equal(t, "test", applied[0].AppliedBy)
	assert.Equal(t, all[0].Checksum, applied[0].Checksum)
}

func TestMigrate_ChangedMigration(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := OpenDB(ctx, config.StateConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "drift.db"),
	})
	require.NoError(t, err)
	defer db.Close()

	original := []Migration{{Version: 1, Name: "init", SQL: "CREATE TABLE t (a TEXT);", Checksum: "aaa"}}
	_, err = migrate(ctx, db, dialect, "test", original)
	require.NoError(t, err)

	edited := []Migration{{Version: 1, Name: "init", SQL: "CREATE TABLE t (a TEXT, b TEXT);", Checksum: "bbb"}}
	_, err = migrate(ctx, db, dialect, "test", edited)
	assert.ErrorContains(t, err, "changed after it was applied")
}

func TestMigrate_FailedMigrationIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	db, dialect, err := OpenDB(ctx, config.StateConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "broken.db"),
	})
	require.NoError(t, err)
	defer db.Close()

	broken := []Migration{{Version: 1, Name: "broken", SQL: "CREATE TABLEX nope;", Checksum: "x"}}
	_, err = migrate(ctx, db, dialect, "test", broken)
	require.Error(t, err)

	applied, err := AppliedMigrations(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestOpenDB_NotSQL(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendGCS} {
		_, _, err := OpenDB(context.Background(), config.StateConfig{Backend: backend})
		assert.ErrorIs(t, err, ErrNotSQL, backend)
	}
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT ? , ?", rebind(DialectSQLite, "SELECT ? , ?"))
	assert.Equal(t, "SELECT $1 , $2", rebind(DialectPostgres, "SELECT ? , ?"))
}
