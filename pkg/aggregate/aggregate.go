// Package aggregate reduces activity records to one row per mutation aware
// compound-target pair.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"

	"github.com/aclements/go-moremath/stats"
	"golang.org/x/sync/errgroup"
)

// ErrSubsetNotContained is returned when a binding-only pair is missing from
// the binding plus functional aggregation.
var ErrSubsetNotContained = errors.New("binding pair missing from binding+functional aggregation")

type group struct {
	first    *chembl.ActivityRecord
	values   []float64
	minYear  *int64
	minYearP *int64
}

func minPtr(cur *int64, v int64) *int64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

// KeyOf returns the mutation aware pair key of an activity record.
func KeyOf(rec *chembl.ActivityRecord) dataset.PairKey {
	key := dataset.PairKey{Molregno: rec.Compound.Molregno, Tid: rec.Target.Tid}
	if rec.Mutation != nil {
		key.Mutation = *rec.Mutation
	}
	return key
}

// InSubset reports whether an assay type counts towards suffix s.
func InSubset(s dataset.Suffix, t chembl.AssayType) bool {
	switch s {
	case dataset.B:
		return t == chembl.AssayBinding
	case dataset.BF:
		return t == chembl.AssayBinding || t == chembl.AssayFunctional
	}
	return false
}

func collectGroups(records []chembl.ActivityRecord, s dataset.Suffix) map[dataset.PairKey]*group {
	groups := make(map[dataset.PairKey]*group)
	for i := range records {
		rec := &records[i]
		if !InSubset(s, rec.AssayType) {
			continue
		}
		key := KeyOf(rec)
		g, ok := groups[key]
		if !ok {
			g = &group{first: rec}
			groups[key] = g
		}
		if rec.PchemblValue != nil {
			g.values = append(g.values, *rec.PchemblValue)
		}
		if rec.Year != nil {
			g.minYear = minPtr(g.minYear, *rec.Year)
			if rec.PchemblValue != nil {
				g.minYearP = minPtr(g.minYearP, *rec.Year)
			}
		}
	}
	return groups
}

func summarize(g *group) dataset.SubsetStats {
	st := dataset.SubsetStats{
		FirstPublication:            g.minYear,
		FirstPublicationWithPchembl: g.minYearP,
	}
	if len(g.values) == 0 {
		return st
	}
	xs := append([]float64(nil), g.values...)
	sort.Float64s(xs)
	sample := stats.Sample{Xs: xs, Sorted: true}
	mean := sample.Mean()
	_, hi := sample.Bounds()
	median := sample.Quantile(0.5)
	st.Mean, st.Max, st.Median = &mean, &hi, &median
	return st
}

// Summarize computes the statistics of one measurement subset per pair.
func Summarize(records []chembl.ActivityRecord, s dataset.Suffix) map[dataset.PairKey]dataset.SubsetStats {
	groups := collectGroups(records, s)
	out := make(map[dataset.PairKey]dataset.SubsetStats, len(groups))
	for key, g := range groups {
		out[key] = summarize(g)
	}
	return out
}

// Aggregate builds one record per mutation aware pair with the BF and B
// statistics. Pairs only measured in other assay types are not represented.
// Rows are sorted by cpd_target_pair_mutation.
func Aggregate(ctx context.Context, records []chembl.ActivityRecord) ([]*dataset.Record, error) {
	var bfGroups map[dataset.PairKey]*group
	var bStats map[dataset.PairKey]dataset.SubsetStats

	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		bfGroups = collectGroups(records, dataset.BF)
		return nil
	})
	eg.Go(func() error {
		bStats = Summarize(records, dataset.B)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for key := range bStats {
		if _, ok := bfGroups[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrSubsetNotContained, key.CpdTargetPairMutation())
		}
	}

	out := make([]*dataset.Record, 0, len(bfGroups))
	for key, g := range bfGroups {
		rec := &dataset.Record{
			Key:      key,
			Compound: g.first.Compound,
			Target:   g.first.Target,
			BF:       summarize(g),
		}
		if st, ok := bStats[key]; ok {
			rec.B = st
		}
		out = append(out, rec)
	}
	dataset.SortRecords(out)

	logger.Debug("[Aggregate] Pairs aggregated", "records", len(records), "pairs_bf", len(bfGroups), "pairs_b", len(bStats))
	return out, nil
}
