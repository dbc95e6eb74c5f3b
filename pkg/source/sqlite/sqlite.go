// Package sqlite reads ChEMBL from the official SQLite release file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/chembl/compound-target-pairs-dataset/pkg/source"

	_ "github.com/mattn/go-sqlite3"
)

// Querier implements source.Querier on database/sql.
type Querier struct {
	db *sql.DB
}

// Open opens path read-only.
func Open(ctx context.Context, path string) (*Querier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("chembl sqlite file: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_query_only=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open chembl sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open chembl sqlite: %w", err)
	}
	return &Querier{db: db}, nil
}

// NewFromDB wraps an open handle. Close closes db.
func NewFromDB(db *sql.DB) *Querier {
	return &Querier{db: db}
}

func (q *Querier) Query(ctx context.Context, query string, fn func(source.Rows) error) error {
	rows, err := q.db.QueryContext(ctx, query)
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
	q.db.Close()
}
