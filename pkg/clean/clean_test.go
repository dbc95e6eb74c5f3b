package clean

import (
	"testing"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{1.23456789, 4, 1.2346},
		{-0.000049, 4, 0},
		{7, 4, 7},
		{2.5e-5, 4, 0},
		{2.5, 0, 2},
		{3.5, 0, 4},
	}
	for _, tt := range tests {
		if got := Round(tt.in, tt.places); got != tt.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	r1 := &dataset.Record{
		Key:      dataset.PairKey{Molregno: 2, Tid: 1},
		Compound: chembl.Compound{MaxPhase: f(0.55555), PrefName: s("")},
		BF:       dataset.SubsetStats{Mean: f(6.123456), LE: f(0.333333333)},
		Props:    chembl.CompoundProperties{Alogp: f(1.99999), Ro3Pass: s("N")},
	}
	r2 := &dataset.Record{Key: dataset.PairKey{Molregno: 10, Tid: 1}}
	r3 := &dataset.Record{Key: dataset.PairKey{Molregno: 1, Tid: 1}}
	ds := dataset.New([]*dataset.Record{r1, r2, r3})

	Clean(ds)

	if *r1.BF.Mean != 6.1235 || *r1.BF.LE != 0.3333 || *r1.Props.Alogp != 2 {
		t.Fatalf("floats not rounded: %v %v %v", *r1.BF.Mean, *r1.BF.LE, *r1.Props.Alogp)
	}
	if *r1.Compound.MaxPhase != 0.55555 {
		t.Fatal("max_phase must not be rounded")
	}
	if r1.Compound.PrefName != nil || r1.Props.Ro3Pass == nil {
		t.Fatal("empty string handling wrong")
	}
	want := []string{"10_1", "1_1", "2_1"}
	for i, r := range ds.Records {
		if got := r.Key.CpdTargetPairMutation(); got != want[i] {
			t.Fatalf("row %d = %s, want %s", i, got, want[i])
		}
	}
}
