// Package export stores a finished dataset in a Postgres results store. One
// run is a row in cti_runs plus its pairs in cti_pairs; concurrent exports of
// the same ChEMBL version and source flag are serialized by a lease lock.
package export

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	_ "github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/chembl/compound-target-pairs-dataset/internal/timing"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/leaselock"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the results store schema up to date.
func Migrate(databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open results store: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate results store: %w", err)
	}
	return nil
}

// Conn is the subset of a pgx pool the exporter needs.
type Conn interface {
	leaselock.Conn
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Run identifies one exported dataset build.
type Run struct {
	ID             string
	ChemblVersion  string
	LiteratureOnly bool
}

// NewRunID returns a fresh run identifier.
func NewRunID() (string, error) {
	return gonanoid.New()
}

// LockKey is the lease key shared by every export of the same dataset.
func (r Run) LockKey() string {
	flag := "all_sources"
	if r.LiteratureOnly {
		flag = "literature_only"
	}
	return fmt.Sprintf("cti:%s:%s", r.ChemblVersion, flag)
}

// Exporter writes finished runs into the results store. Exports of the
// same ChEMBL version and source flag never overlap.
type Exporter struct {
	conn  Conn
	locks *leaselock.Client
	ttl   time.Duration
	wait  time.Duration
}

// NewExporterParams configures NewExporter.
type NewExporterParams struct {
	Conn Conn
	// LockTTL defaults to ten minutes.
	LockTTL time.Duration
	// LockWait bounds the wait for a concurrent export of the same dataset
	// and defaults to thirty minutes.
	LockWait time.Duration
}

// NewExporter returns an Exporter that takes its leases on params.Conn.
func NewExporter(params NewExporterParams) *Exporter {
	ttl := params.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	wait := params.LockWait
	if wait <= 0 {
		wait = 30 * time.Minute
	}
	return &Exporter{
		conn:  params.Conn,
		locks: leaselock.New(params.Conn),
		ttl:   ttl,
		wait:  wait,
	}
}

var pairColumns = []string{"run_id", "parent_molregno", "tid", "mutation", "dti", "data"}

// pgValue drops NUL bytes and invalid UTF-8 which Postgres text and jsonb
// columns reject.
func pgValue(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}

// Rows converts records into COPY rows. data holds every column of cols by
// name.
func Rows(runID string, cols []dataset.Column, records []*dataset.Record) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		data := make(map[string]any, len(cols))
		for _, c := range cols {
			data[c.Name] = pgValue(c.Get(r))
		}
		var mutation any
		if r.Key.HasMutation() {
			mutation = pgValue(r.Key.Mutation)
		}
		rows = append(rows, []any{runID, r.Key.Molregno, r.Key.Tid, mutation, string(r.DTI), data})
	}
	return rows
}

// Export writes the dataset and its stage timings as run. A failed copy
// removes the partially written run.
func (e *Exporter) Export(
	ctx context.Context,
	run Run,
	cols []dataset.Column,
	records []*dataset.Record,
	stages []timing.Stage,
) error {
	logger.Debug("[Export] Acquiring dataset lock", "key", run.LockKey())
	return e.locks.WithLease(ctx, run.LockKey(), leaselock.Options{
		TTL:         e.ttl,
		Wait:        true,
		MaxWait:     e.wait,
		TokenPrefix: "export/" + run.ID + "/",
	}, func(ctx context.Context) error {
		if _, err := e.conn.Exec(ctx, insertRunSQL, run.ID, run.ChemblVersion, run.LiteratureOnly, int64(len(records))); err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
		}

		n, err := e.conn.CopyFrom(ctx, pgx.Identifier{"cti_pairs"}, pairColumns, pgx.CopyFromRows(Rows(run.ID, cols, records)))
		if err == nil && n != int64(len(records)) {
			err = fmt.Errorf("copied %d of %d rows", n, len(records))
		}
		if err == nil {
			err = timing.AddStageTimes(ctx, e.conn, run.ID, stages)
		}
		if err != nil {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, delErr := e.conn.Exec(cleanupCtx, deleteRunSQL, run.ID); delErr != nil {
				logger.Warn("[Export] Failed to delete partial run", "run_id", run.ID, "err", delErr)
			}
			return fmt.Errorf("failed to export run %s: %w", run.ID, err)
		}

		logger.Info("[Export] Stored dataset", "run_id", run.ID, "rows", n)
		return nil
	})
}

const insertRunSQL = `
INSERT INTO cti_runs (run_id, chembl_version, literature_only, row_count)
VALUES ($1, $2, $3, $4);
`

const deleteRunSQL = `
DELETE FROM cti_runs WHERE run_id = $1;
`
