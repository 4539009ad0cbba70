package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"identity-service/internal/repository"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// WithinTx runs fn in a transaction. PostgreSQL transactions are serializable;
// SQLite ones take the write lock on BEGIN. A transaction aborted by a
// serialization conflict is re-run up to the configured retry count.
func (db *DB) WithinTx(ctx context.Context, fn func(repo repository.ContactRepository) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = db.runTx(ctx, fn)
		if err == nil || !isRetryable(err) || attempt >= db.txRetries {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}
		db.logger.Warn("Retrying transaction after conflict",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
}

func (db *DB) runTx(ctx context.Context, fn func(repo repository.ContactRepository) error) error {
	tx, err := db.Conn.BeginTx(ctx, db.txOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&contactStore{q: tx, now: db.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			db.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (db *DB) txOptions() *sql.TxOptions {
	if db.driver == DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// isRetryable reports whether err is a serialization conflict that a fresh
// attempt may not hit.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return true
		}
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}
