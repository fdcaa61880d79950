package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/decision-ease/internal/config"
	"github.com/dvloznov/decision-ease/internal/domain"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // register sqlite driver
)

// Dialect selects placeholder syntax for the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// SQLStore keeps the snapshot in a single row of a SQL table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// appliedByStore tags migrations run implicitly when a store opens.
const appliedByStore = "state-store"

// OpenSQLite opens or creates the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := openSQLiteDB(path)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: %w", err)
	}
	return newSQLStore(ctx, db, DialectSQLite)
}

// OpenPostgres connects to PostgreSQL and pings it before use.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := openPostgresDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("OpenPostgres: %w", err)
	}
	return newSQLStore(ctx, db, DialectPostgres)
}

// OpenDB opens the database behind a SQL backend without migrating it.
func OpenDB(ctx context.Context, cfg config.StateConfig) (*sql.DB, Dialect, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := openSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, "", fmt.Errorf("OpenDB: %w", err)
		}
		return db, DialectSQLite, nil
	case config.BackendPostgres:
		db, err := openPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("OpenDB: %w", err)
		}
		return db, DialectPostgres, nil
	default:
		return nil, "", fmt.Errorf("OpenDB: %w: %q", ErrNotSQL, cfg.Backend)
	}
}

func openSQLiteDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	return db, nil
}

func openPostgresDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if _, err := Migrate(ctx, db, dialect, appliedByStore); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

// Load reads the snapshot row.
func (s *SQLStore) Load(ctx context.Context) (*domain.State, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT snapshot FROM dashboard_state WHERE id = ?"), snapshotID,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("SQLStore.Load: %w", err)
	}

	st, err := decode([]byte(snapshot))
	if err != nil {
		return nil, fmt.Errorf("SQLStore.Load: %w", err)
	}
	return st, nil
}

// Save upserts the snapshot row.
func (s *SQLStore) Save(ctx context.Context, st *domain.State) error {
	data, err := encode(st)
	if err != nil {
		return fmt.Errorf("SQLStore.Save: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO dashboard_state (id, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`),
		snapshotID, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("SQLStore.Save: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) rebind(query string) string {
	return rebind(s.dialect, query)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Store = (*SQLStore)(nil)
