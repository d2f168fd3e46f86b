package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// WithTx runs fn inside a transaction: commit on success, rollback on error
// or panic. Each call holds exactly one pool connection for its duration.
func (db *DB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
