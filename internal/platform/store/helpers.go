package store

import (
	"context"
	"errors"
	"fmt"

	perr "opengov/internal/platform/errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRowsAffected means a write that must touch one row touched none (or several)
var ErrNoRowsAffected = errors.New("store: expected exactly one row affected")

// errExtraRows means a single-row read matched more than one row
var errExtraRows = errors.New("store: expected one row, got more")

// One scans exactly one row. Zero rows is perr.ErrNotFound so repos can
// translate it into their own "not found" without importing pgx.
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (out T, err error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err == nil {
			err = perr.ErrNotFound
		}
		return out, err
	}
	if out, err = scan(rows); err != nil {
		return out, err
	}
	if rows.Next() {
		var zero T
		return zero, errExtraRows
	}
	return out, rows.Err()
}

// Scalar reads a single column value
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	err := q.QueryRow(ctx, sql, args...).Scan(&v)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, pgx.ErrNoRows):
		return v, perr.ErrNotFound
	default:
		return v, err
	}
}

// ExecOne runs an INSERT/UPDATE/upsert that must affect exactly one row
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n != 1 {
		return fmt.Errorf("%w (%d)", ErrNoRowsAffected, n)
	}
	return nil
}
