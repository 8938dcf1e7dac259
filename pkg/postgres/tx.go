package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// ReadCommitted is the isolation used by repository writes.
var ReadCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// RunInTx runs fn inside a transaction started with opts. The transaction
// commits when fn returns nil and rolls back otherwise; fn's error is
// returned as is so callers can match sentinels.
func RunInTx(ctx context.Context, db TxBeginner, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	var fnErr error
	err := pgx.BeginTxFunc(ctx, db, opts, func(tx pgx.Tx) error {
		fnErr = fn(tx)
		return fnErr
	})
	switch {
	case fnErr != nil:
		return fnErr
	case err != nil:
		return fmt.Errorf("postgres: tx: %w", err)
	}
	return nil
}
