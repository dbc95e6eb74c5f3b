package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
)

func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }
func s(v string) *string   { return &v }

func act(molregno, tid int64, assay chembl.AssayType, pchembl *float64, year *int64, mutation *string) chembl.ActivityRecord {
	return chembl.ActivityRecord{
		PchemblValue: pchembl,
		Compound:     chembl.Compound{Molregno: molregno, ChemblID: s(fmt.Sprintf("CHEMBL%d", molregno))},
		AssayType:    assay,
		Target:       chembl.Target{Tid: tid, TargetType: s("SINGLE PROTEIN")},
		Mutation:     mutation,
		Year:         year,
	}
}

func approx(a *float64, want float64) bool {
	return a != nil && math.Abs(*a-want) < 1e-9
}

func byKey(t *testing.T, recs []*dataset.Record, key dataset.PairKey) *dataset.Record {
	t.Helper()
	for _, r := range recs {
		if r.Key == key {
			return r
		}
	}
	t.Fatalf("no record for %+v", key)
	return nil
}

func TestAggregateStatistics(t *testing.T) {
	records := []chembl.ActivityRecord{
		act(1, 10, chembl.AssayBinding, f(6), i(2005), nil),
		act(1, 10, chembl.AssayBinding, f(8), i(2001), nil),
		act(1, 10, chembl.AssayFunctional, f(7), i(1999), nil),
		act(1, 10, chembl.AssayFunctional, f(9), nil, nil),
		act(1, 10, chembl.AssayBinding, f(5), i(2010), s("V600E")),
		act(2, 10, chembl.AssayFunctional, f(4), i(2015), nil),
		act(3, 10, chembl.AssayADMET, f(4), i(2015), nil),
	}
	recs, err := Aggregate(context.Background(), records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d pairs, want 3", len(recs))
	}

	wild := byKey(t, recs, dataset.PairKey{Molregno: 1, Tid: 10})
	if !approx(wild.BF.Mean, 7.5) || !approx(wild.BF.Max, 9) || !approx(wild.BF.Median, 7.5) {
		t.Fatalf("BF stats = mean %v max %v median %v", *wild.BF.Mean, *wild.BF.Max, *wild.BF.Median)
	}
	if !approx(wild.B.Mean, 7) || !approx(wild.B.Median, 7) || !approx(wild.B.Max, 8) {
		t.Fatalf("B stats = %+v", wild.B)
	}
	if *wild.BF.FirstPublication != 1999 || *wild.B.FirstPublication != 2001 {
		t.Fatalf("first publication BF=%d B=%d", *wild.BF.FirstPublication, *wild.B.FirstPublication)
	}
	if *wild.BF.FirstPublicationWithPchembl != 1999 {
		t.Fatalf("first publication with pchembl = %d", *wild.BF.FirstPublicationWithPchembl)
	}

	mutant := byKey(t, recs, dataset.PairKey{Molregno: 1, Tid: 10, Mutation: "V600E"})
	if !approx(mutant.BF.Mean, 5) || !approx(mutant.B.Mean, 5) {
		t.Fatalf("mutant stats = %+v", mutant)
	}

	functionalOnly := byKey(t, recs, dataset.PairKey{Molregno: 2, Tid: 10})
	if !approx(functionalOnly.BF.Mean, 4) {
		t.Fatal("functional only pair misses BF mean")
	}
	if functionalOnly.B.Mean != nil || functionalOnly.B.FirstPublication != nil {
		t.Fatalf("functional only pair has B stats: %+v", functionalOnly.B)
	}
	if functionalOnly.Compound.ChemblID == nil || functionalOnly.Target.TargetType == nil {
		t.Fatal("compound and target attributes not carried over")
	}
}

func TestAggregateMedianOddCount(t *testing.T) {
	records := []chembl.ActivityRecord{
		act(1, 10, chembl.AssayBinding, f(5), nil, nil),
		act(1, 10, chembl.AssayBinding, f(9), nil, nil),
		act(1, 10, chembl.AssayBinding, f(6), nil, nil),
		act(1, 10, chembl.AssayBinding, f(6), nil, nil),
		act(1, 10, chembl.AssayBinding, f(7), nil, nil),
	}
	recs, err := Aggregate(context.Background(), records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	r := recs[0]
	if !approx(r.BF.Median, 6) || !approx(r.BF.Mean, 6.6) {
		t.Fatalf("median %v mean %v", *r.BF.Median, *r.BF.Mean)
	}
	if r.BF.FirstPublication != nil {
		t.Fatal("first publication should stay nil without years")
	}
}

func TestBSubsetContainedInBF(t *testing.T) {
	var records []chembl.ActivityRecord
	for m := int64(1); m <= 20; m++ {
		assay := chembl.AssayBinding
		if m%3 == 0 {
			assay = chembl.AssayFunctional
		}
		records = append(records, act(m, m%4, assay, f(float64(m)/3), i(2000+m), nil))
	}
	recs, err := Aggregate(context.Background(), records)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for _, r := range recs {
		if r.B.Mean != nil && r.BF.Mean == nil {
			t.Fatalf("pair %s has B but no BF stats", r.Key.CpdTargetPairMutation())
		}
	}
	for k := 1; k < len(recs); k++ {
		if recs[k-1].Key.CpdTargetPairMutation() > recs[k].Key.CpdTargetPairMutation() {
			t.Fatal("records not sorted")
		}
	}
}

func TestAggregateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Aggregate(ctx, []chembl.ActivityRecord{act(1, 1, chembl.AssayBinding, f(5), nil, nil)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInSubset(t *testing.T) {
	tests := []struct {
		suffix dataset.Suffix
		assay  chembl.AssayType
		want   bool
	}{
		{dataset.BF, chembl.AssayBinding, true},
		{dataset.BF, chembl.AssayFunctional, true},
		{dataset.BF, chembl.AssayADMET, false},
		{dataset.B, chembl.AssayBinding, true},
		{dataset.B, chembl.AssayFunctional, false},
	}
	for _, tt := range tests {
		if got := InSubset(tt.suffix, tt.assay); got != tt.want {
			t.Fatalf("InSubset(%s, %s) = %v, want %v", tt.suffix, tt.assay, got, tt.want)
		}
	}
}
