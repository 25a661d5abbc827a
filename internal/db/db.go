// Package db provides database initialization, the connection provider used
// by the repositories, and the storage error type.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite3  = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverPostgres = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// Dialect selects SQL syntax differences between backends.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Config selects the driver and data source for Open.
type Config struct {
	Driver string `yaml:"driver,omitempty" json:"driver,omitempty"`
	DSN    string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

// Provider hands out one connection per repository call.
type Provider interface {
	// Conn returns a dedicated connection. The caller must Close it.
	Conn(ctx context.Context) (*sql.Conn, error)
	// Rebind rewrites ? placeholders into the backend's placeholder syntax.
	Rebind(query string) string
}

// DB is the Provider backed by database/sql.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// DefaultPath returns the default database path: ~/.config/itrack/tracker.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "itrack", "tracker.db"), nil
}

// Open opens (or creates) the database described by cfg and bootstraps the
// schema. SQLite files get WAL mode and foreign keys.
func Open(cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite3
	}

	dialect, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dialect == SQLite && cfg.DSN == MemoryDSN {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	d := &DB{sql: sqlDB, dialect: dialect}

	if err := sqlDB.Ping(); err != nil {
		return nil, d.closeAfter(fmt.Errorf("pinging database: %w", err))
	}

	if err := d.ensureSchema(context.Background()); err != nil {
		return nil, d.closeAfter(fmt.Errorf("bootstrapping schema: %w", err))
	}

	return d, nil
}

// OpenPath opens a SQLite database file with the default driver.
func OpenPath(path string) (*DB, error) {
	return Open(Config{Driver: DriverSQLite3, DSN: path})
}

// dataSource resolves the dialect and the driver-specific DSN.
func dataSource(cfg Config) (Dialect, string, error) {
	switch cfg.Driver {
	case DriverSQLite3, DriverSQLite:
		if cfg.DSN == "" {
			return 0, "", fmt.Errorf("sqlite database path is required")
		}
		if cfg.DSN == MemoryDSN || strings.HasPrefix(cfg.DSN, "file:") {
			return SQLite, sqliteDSN(cfg.Driver, cfg.DSN, false), nil
		}
		dir := filepath.Dir(cfg.DSN)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, "", fmt.Errorf("creating database directory %s: %w", dir, err)
		}
		return SQLite, sqliteDSN(cfg.Driver, cfg.DSN, true), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return 0, "", fmt.Errorf("postgres DSN is required")
		}
		return Postgres, cfg.DSN, nil
	default:
		return 0, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN builds a file URI with per-connection pragmas. Pragmas set with
// Exec would only reach a single pooled connection.
func sqliteDSN(driver, path string, wal bool) string {
	var params []string
	switch driver {
	case DriverSQLite:
		params = append(params, "_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)", "_time_format=sqlite")
		if wal {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	default:
		params = append(params, "_foreign_keys=on", "_busy_timeout=5000")
		if wal {
			params = append(params, "_journal_mode=WAL")
		}
	}

	uri := path
	if !strings.HasPrefix(uri, "file:") {
		uri = "file:" + uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + strings.Join(params, "&")
}

// Conn implements Provider.
func (d *DB) Conn(ctx context.Context) (*sql.Conn, error) {
	return d.sql.Conn(ctx)
}

// Rebind implements Provider.
func (d *DB) Rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}

	var b strings.Builder
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

// SQL exposes the underlying handle for tooling and tests.
func (d *DB) SQL() *sql.DB {
	return d.sql
}

// Close closes the underlying database handle.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) closeAfter(err error) error {
	if closeErr := d.sql.Close(); closeErr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
	}
	return err
}

// WithConn acquires a connection from p, runs fn and releases the connection
// on every return path. A release failure is joined into the result.
func WithConn(ctx context.Context, p Provider, fn func(conn *sql.Conn) error) (err error) {
	conn, err := p.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = joinClose(err, closeErr)
		}
	}()

	return fn(conn)
}

func joinClose(err, closeErr error) error {
	if err == nil {
		return fmt.Errorf("releasing connection: %w", closeErr)
	}
	return fmt.Errorf("%w (also failed to release connection: %v)", err, closeErr)
}
