// Package pgx reads ChEMBL from a PostgreSQL dump through pgx.
package pgx

import (
	"context"
	"fmt"

	"github.com/chembl/compound-target-pairs-dataset/pkg/source"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxIConn interface {
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
}

// Querier implements source.Querier on a connection pool.
type Querier struct {
	conn  pgxIConn
	close func()
}

// New opens a pool on databaseURL. Sessions are read-only.
func New(ctx context.Context, databaseURL string) (*Querier, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chembl database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping chembl database: %w", err)
	}
	return &Querier{conn: pool, close: pool.Close}, nil
}

// NewFromConn wraps an existing connection, pool or transaction. Close is a
// no-op; the caller owns conn.
func NewFromConn(conn pgxIConn) *Querier {
	return &Querier{conn: conn, close: func() {}}
}

func (q *Querier) Query(ctx context.Context, sql string, fn func(source.Rows) error) error {
	rows, err := q.conn.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer rows.Close()
	if err := fn(rows); err != nil {
		return err
	}
	return rows.Err()
}

func (q *Querier) Close() {
	q.close()
}
