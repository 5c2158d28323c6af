package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UnitOfWork runs a callback inside a transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLUnitOfWork implements UnitOfWork with database/sql transactions.
type SQLUnitOfWork struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUnitOfWork creates a UnitOfWork backed by db. A nil logger discards output.
func NewUnitOfWork(db *sql.DB, logger *zap.Logger) *SQLUnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLUnitOfWork{db: db, logger: logger}
}

// WithinTx commits when fn succeeds and rolls back when it fails or panics. A failed
// rollback is logged and joined to fn's error.
func (u *SQLUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	start := time.Now()
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				u.logger.Error("rollback after panic failed", zap.Error(rbErr))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			u.logger.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		u.logger.Debug("transaction rolled back", zap.Error(err), zap.Duration("tx_duration", time.Since(start)))
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	u.logger.Debug("transaction committed", zap.Duration("tx_duration", time.Since(start)))
	return nil
}
