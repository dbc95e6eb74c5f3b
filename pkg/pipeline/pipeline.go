// Package pipeline builds the compound-target interaction dataset from a
// ChEMBL source. Stages run strictly in sequence, each on the complete
// table of the previous one.
package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chembl/compound-target-pairs-dataset/internal/timing"
	"github.com/chembl/compound-target-pairs-dataset/pkg/aggregate"
	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/classify"
	"github.com/chembl/compound-target-pairs-dataset/pkg/clean"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/descriptor"
	"github.com/chembl/compound-target-pairs-dataset/pkg/efficiency"
	"github.com/chembl/compound-target-pairs-dataset/pkg/enrich"
	"github.com/chembl/compound-target-pairs-dataset/pkg/interaction"
	"github.com/chembl/compound-target-pairs-dataset/pkg/invariant"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
	"github.com/chembl/compound-target-pairs-dataset/pkg/output"
	"github.com/chembl/compound-target-pairs-dataset/pkg/source"
	"github.com/chembl/compound-target-pairs-dataset/pkg/stats"
	"github.com/chembl/compound-target-pairs-dataset/pkg/subset"
)

// Params configures one dataset build.
type Params struct {
	Source source.Source
	// Descriptors is nil when no descriptor columns are wanted.
	Descriptors descriptor.Provider
	// Writer is nil when nothing is written to disk.
	Writer *output.Writer
	Timing *timing.Recorder

	MinCompoundsBF int
	MinCompoundsB  int
	WriteBF        bool
	WriteB         bool
	WriteFull      bool
}

// Result is the outcome of a successful build.
type Result struct {
	Dataset    *dataset.Dataset
	Selections []*subset.Selection
	Ambiguous  []enrich.AmbiguousTarget
	Files      []string
}

type inputs struct {
	activities []chembl.ActivityRecord
	known      []chembl.KnownInteraction
	relations  []chembl.TargetRelation
	compounds  []chembl.Compound
	targets    []chembl.Target
}

func load(ctx context.Context, src source.Source) (*inputs, error) {
	in := &inputs{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.activities, err = src.ActivityRecords(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.known, err = src.KnownInteractions(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.relations, err = src.TargetRelations(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.compounds, err = src.Compounds(ctx)
		return err
	})
	g.Go(func() (err error) {
		in.targets, err = src.Targets(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load source tables: %w", err)
	}
	return in, nil
}

// activityRows wraps raw measurements as rows so the size trace can count
// them before aggregation.
func activityRows(activities []chembl.ActivityRecord) []*dataset.Record {
	rows := make([]*dataset.Record, len(activities))
	for i := range activities {
		a := &activities[i]
		rows[i] = &dataset.Record{
			Key:      aggregate.KeyOf(a),
			Compound: a.Compound,
			BF:       dataset.SubsetStats{Mean: a.PchemblValue},
		}
	}
	return rows
}

type runner struct {
	params Params
	ds     *dataset.Dataset
	rec    *timing.Recorder
}

func (r *runner) stage(name string, fn func() error) error {
	done := r.rec.Start(name)
	if err := fn(); err != nil {
		return err
	}
	rows := 0
	if r.ds != nil {
		rows = r.ds.Len()
		stats.AddSizes(r.ds, r.ds.Records, "", name)
	}
	done(rows)
	logger.Debug("[Pipeline] Stage done", "stage", name, "rows", rows)
	return nil
}

// Run executes every stage and writes the requested outputs. Dataset files
// are written only after the invariant checks of the subsets pass.
func Run(ctx context.Context, params Params) (*Result, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("pipeline needs a source")
	}
	rec := params.Timing
	if rec == nil {
		rec = &timing.Recorder{}
	}
	r := &runner{params: params, rec: rec}
	res := &Result{}

	var in *inputs
	var tables *enrich.Tables
	err := r.stage("load", func() error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			in, err = load(gctx, params.Source)
			return err
		})
		g.Go(func() (err error) {
			tables, err = enrich.Load(gctx, params.Source)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[Pipeline] Loaded source tables", "activities", len(in.activities), "known_interactions", len(in.known))

	err = r.stage("activity ct-pairs", func() error {
		records, err := aggregate.Aggregate(ctx, in.activities)
		if err != nil {
			return err
		}
		r.ds = dataset.New(records)
		stats.AddSizes(r.ds, activityRows(in.activities), "", "initial query")
		return nil
	})
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"dm ct-pairs", func() error {
			interaction.Resolve(r.ds, interaction.ResolveParams{
				Known:     interaction.Expand(in.known, in.relations),
				Compounds: in.compounds,
				Targets:   in.targets,
			})
			return nil
		}},
		{"DTI annotations", func() error {
			dropped := classify.Annotate(r.ds)
			logger.Debug("[Pipeline] Dropped unrelated pairs", "rows", dropped)
			return nil
		}},
		{"ChEMBL props", func() error {
			enrich.AddCompoundProperties(r.ds, tables)
			efficiency.Compute(r.ds)
			return nil
		}},
		{"removed smiles", func() error {
			dropped, err := enrich.RemoveMixtures(r.ds, tables)
			logger.Debug("[Pipeline] Dropped rows without a single-component structure", "rows", dropped)
			return err
		}},
		{"tclass annotations", func() error {
			enrich.AddTargetClasses(r.ds, tables)
			res.Ambiguous = enrich.AmbiguousTargetClasses(r.ds)
			if params.Writer != nil {
				return params.Writer.WriteAmbiguousTargets(res.Ambiguous)
			}
			return nil
		}},
	}
	if params.Descriptors != nil {
		steps = append(steps, struct {
			name string
			fn   func() error
		}{"descriptors", func() error {
			return descriptor.Apply(ctx, r.ds, params.Descriptors)
		}})
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.stage(s.name, s.fn); err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", s.name, err)
		}
	}

	if err := invariant.Check(r.ds, "enrichment"); err != nil {
		return nil, err
	}
	err = r.stage("clean df", func() error {
		clean.Clean(r.ds)
		return invariant.Check(r.ds, "cleaning")
	})
	if err != nil {
		return nil, err
	}

	thresholds := map[dataset.Suffix]int{dataset.BF: params.MinCompoundsBF, dataset.B: params.MinCompoundsB}
	for _, s := range dataset.Suffixes {
		var sel *subset.Selection
		err := r.stage("subsets "+string(s), func() error {
			var err error
			sel, err = subset.Select(r.ds, s, thresholds[s])
			return err
		})
		if err != nil {
			return nil, err
		}
		res.Selections = append(res.Selections, sel)
		for _, v := range sel.Views() {
			stats.AddSizes(r.ds, v.Records, s, v.Name)
		}
	}
	if err := invariant.Check(r.ds, "subsets"); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Writer != nil {
		if err := r.write(res); err != nil {
			return nil, err
		}
		res.Files = params.Writer.Files()
	}

	res.Dataset = r.ds
	logger.Info("[Pipeline] Dataset built", "pairs", r.ds.Len(), "duration", rec.Total())
	return res, nil
}

func (r *runner) write(res *Result) error {
	w := r.params.Writer
	enabled := map[dataset.Suffix]bool{dataset.BF: r.params.WriteBF, dataset.B: r.params.WriteB}
	for _, sel := range res.Selections {
		if !enabled[sel.Suffix] {
			continue
		}
		for _, v := range sel.Views() {
			if err := w.WriteDataset(v.Name, v.Columns, v.Records); err != nil {
				return err
			}
		}
	}
	if r.params.WriteFull {
		if err := w.WriteDataset("full_dataset", r.ds.FullColumns(), r.ds.Records); err != nil {
			return err
		}
	}
	if err := w.WriteSmiles(descriptor.SmilesSet(r.ds)); err != nil {
		return err
	}
	if logger.DebugEnabled() {
		return w.WriteSizes(r.ds)
	}
	return nil
}
