// Package timing records how long each pipeline stage took and persists the
// measurements next to an exported run.
package timing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Stage is one measured pipeline step.
type Stage struct {
	Name     string
	Rows     int
	Duration time.Duration
}

// Recorder collects stage timings in order. The zero value is ready to use.
type Recorder struct {
	mu     sync.Mutex
	stages []Stage
	now    func() time.Time
}

func (r *Recorder) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Start begins measuring name. The returned func stops the measurement and
// records the row count the stage produced.
func (r *Recorder) Start(name string) func(rows int) {
	start := r.clock()
	return func(rows int) {
		d := r.clock().Sub(start)
		r.mu.Lock()
		r.stages = append(r.stages, Stage{Name: name, Rows: rows, Duration: d})
		r.mu.Unlock()
	}
}

// Stages returns a copy of the recorded stages.
func (r *Recorder) Stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Stage(nil), r.stages...)
}

// Total sums all stage durations.
func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, s := range r.Stages() {
		total += s.Duration
	}
	return total
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AddStageTimes stores the recorded stages of runID.
func AddStageTimes(ctx context.Context, conn execer, runID string, stages []Stage) error {
	for _, s := range stages {
		_, err := conn.Exec(ctx, addStageTimeSQL, runID, s.Name, int64(s.Rows), s.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to store stage time %s: %w", s.Name, err)
		}
	}
	return nil
}

const addStageTimeSQL = `
INSERT INTO cti_stage_times (run_id, stage, row_count, duration_ms)
VALUES ($1, $2, $3, $4);
`
