package querier

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrpay/internal/platform/apperr"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx. Begin on a pgx.Tx opens a savepoint.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const uniqueViolation = "23505"

// InTx runs fn inside a transaction and commits only when fn returns nil.
func InTx(ctx context.Context, db Querier, fn func(tx Querier) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// MapError translates driver errors into application errors for the named entity.
func MapError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFound(entity)
	case IsUniqueViolation(err):
		return apperr.Conflict(entity + " already exists").WithCause(err)
	default:
		return err
	}
}
