// Package storage persists timespans in a relational store. SQLite is the
// default engine; Postgres is reached through pgx's database/sql driver.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/Tiliavir/timebook/internal/timecalc"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// Supported driver names, as registered with database/sql.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// gooseMu guards goose's package-level dialect and filesystem settings.
var gooseMu sync.Mutex

type dialect struct {
	driver        string
	goose         string
	migrationsDir string
	numbered      bool // $1, $2 placeholders instead of ?
}

var dialects = map[string]dialect{
	DriverSQLite:   {driver: DriverSQLite, goose: "sqlite3", migrationsDir: "migrations/sqlite3"},
	DriverPostgres: {driver: DriverPostgres, goose: "postgres", migrationsDir: "migrations/postgres", numbered: true},
}

// Options selects the engine and connection.
type Options struct {
	// Driver is DriverSQLite or DriverPostgres. Empty means SQLite.
	Driver string
	// DSN is a file path for SQLite ("~" is expanded) or a postgres:// URL.
	DSN string
	// Logger receives migration output. Nil discards it.
	Logger *log.Logger
}

// Store is the timespan repository. It is safe for concurrent use; each
// mutation runs in its own transaction.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// DefaultDataDir returns the default data directory (~/.timebook).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timebook"
	}
	return filepath.Join(home, ".timebook")
}

// DefaultDBPath returns the default SQLite database file.
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "timebook.db")
}

// Open connects to the store and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	d, ok := dialects[opts.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	var (
		dsn  string
		lock *flock.Flock
	)
	switch d.driver {
	case DriverSQLite:
		path, err := expandHome(opts.DSN)
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = DefaultDBPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		// WAL keeps readers unblocked while the single writer commits.
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
		lock = flock.New(path + ".lock")
	default:
		dsn = opts.DSN
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d.driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite only supports one writer
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, dialect: d, now: func() time.Time { return timecalc.Wall(time.Now()) }}
	if err := s.migrate(ctx, lock, opts.Logger); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate runs the embedded migrations for the store's dialect. For SQLite a
// file lock next to the database serialises concurrent processes.
func (s *Store) migrate(ctx context.Context, lock *flock.Flock, logger *log.Logger) error {
	if lock != nil {
		locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
		if err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("failed to acquire migration lock %s", lock.Path())
		}
		defer lock.Unlock()
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	goose.SetLogger(logger)
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(s.dialect.goose); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, s.dialect.migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.dialect.driver
}

// transaction executes fn within a transaction, rolling back on error.
func (s *Store) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (s *Store) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
