package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
)

// store carries what every repository needs to build and run statements.
type store struct {
	drv     *entsql.Driver
	dialect string
	logger  *slog.Logger
	now     func() time.Time
}

func newStore(db *DB, logger *slog.Logger) store {
	if logger == nil {
		logger = slog.Default()
	}
	return store{drv: db.Driver, dialect: db.Dialect, logger: logger, now: time.Now}
}

func (s store) sql() *entsql.DialectBuilder { return entsql.Dialect(s.dialect) }

// exec runs a statement and returns the affected row count.
func exec(ctx context.Context, eq dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res sql.Result
	if err := eq.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// withTx runs fn in a transaction, rolling back on error.
func (s store) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("repository.tx.rollback_failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// dbErr tags driver failures so callers can tell them from domain errors.
func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidTransition) ||
		errors.Is(err, common.ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, common.ErrDatabase, err)
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
