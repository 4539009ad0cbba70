package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"identity-service/internal/repository"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection
type DB struct {
	Conn *sql.DB

	driver    string
	txRetries int
	logger    *zap.Logger
	now       func() time.Time
}

// Open returns the store selected by cfg.Driver.
func Open(cfg Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.Driver == DriverMemory {
		logger.Warn("Using in-memory contact store; data is lost on exit")
		return repository.NewMemoryStore(nil), nil
	}
	return New(cfg, logger)
}

// New creates a new database connection and runs migrations
func New(cfg Config, logger *zap.Logger) (*DB, error) {
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeSeconds > 0 {
		conn.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSeconds) * time.Second)
	}
	// Every connection to :memory: gets its own empty database.
	if cfg.Driver == DriverSQLite && strings.Contains(cfg.URL, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := newDB(conn, cfg.Driver, cfg.TxRetries, logger)

	if err := db.runMigrations(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database initialized successfully", zap.String("driver", cfg.Driver))
	return db, nil
}

func newDB(conn *sql.DB, driver string, txRetries int, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{
		Conn:      conn,
		driver:    driver,
		txRetries: txRetries,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// dataSourceName validates the driver and adds the SQLite options the store
// relies on.
func dataSourceName(cfg Config) (string, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return cfg.URL, nil
	case DriverSQLite:
		params := []string{}
		if !strings.Contains(cfg.URL, "_txlock=") {
			params = append(params, "_txlock=immediate")
		}
		if !strings.Contains(cfg.URL, "_busy_timeout=") {
			params = append(params, "_busy_timeout=5000")
		}
		if !strings.Contains(cfg.URL, "_foreign_keys=") {
			params = append(params, "_foreign_keys=on")
		}
		if len(params) == 0 {
			return cfg.URL, nil
		}
		sep := "?"
		if strings.Contains(cfg.URL, "?") {
			sep = "&"
		}
		return cfg.URL + sep + strings.Join(params, "&"), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate applies the schema. It is safe to run repeatedly.
func (db *DB) Migrate(ctx context.Context) error {
	return db.runMigrations(ctx)
}

// runMigrations executes the schema for the configured driver
func (db *DB) runMigrations(ctx context.Context) error {
	schema := sqliteSchema
	if db.driver == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := db.Conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS contacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    phone_number TEXT,
    email TEXT,
    linked_id INTEGER,
    link_precedence TEXT NOT NULL CHECK(link_precedence IN ('primary', 'secondary')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME,
    FOREIGN KEY (linked_id) REFERENCES contacts(id),
    CHECK (email IS NOT NULL OR phone_number IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_phone ON contacts(phone_number);
CREATE INDEX IF NOT EXISTS idx_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_linked_id ON contacts(linked_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS contacts (
    id BIGSERIAL PRIMARY KEY,
    phone_number TEXT,
    email TEXT,
    linked_id BIGINT REFERENCES contacts(id),
    link_precedence TEXT NOT NULL CHECK(link_precedence IN ('primary', 'secondary')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    deleted_at TIMESTAMPTZ,
    CHECK (email IS NOT NULL OR phone_number IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_phone ON contacts(phone_number);
CREATE INDEX IF NOT EXISTS idx_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_linked_id ON contacts(linked_id);
`

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.Conn.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.Conn.Close()
}

// Driver reports the SQL driver in use.
func (db *DB) Driver() string {
	return db.driver
}
