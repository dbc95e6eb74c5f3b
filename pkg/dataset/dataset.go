// Package dataset defines the compound-target pair table and the context
// object that the pipeline stages pass along.
package dataset

import (
	"slices"
	"strings"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
)

// Lookups are the enrichment mappings the dataset was annotated from. The
// invariant checks compare rows against them.
type Lookups struct {
	Properties        map[int64]chembl.CompoundProperties
	FirstPublications map[int64]int64
	ATC               map[int64]string
	TargetClassL1     map[int64]string
	TargetClassL2     map[int64]string
}

// StageSize counts unique entities after a pipeline step, for all rows and
// for drugs only.
type StageSize struct {
	Step  string
	All   map[string]int
	Drugs map[string]int
}

// Dataset carries the table and everything derived alongside it.
type Dataset struct {
	Records []*Record

	// KnownPairs holds mutation free keys of drug_mechanism pairs including
	// the ones reached through target relations.
	KnownPairs   map[PairKey]struct{}
	KnownTargets map[int64]struct{}

	Lookups           Lookups
	DescriptorsLoaded bool

	// SubsetColumns lists membership columns in the order they were added.
	SubsetColumns []string

	SizesAll     []StageSize
	SizesPchembl []StageSize
}

// New wraps records into a Dataset.
func New(records []*Record) *Dataset {
	return &Dataset{Records: records}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Filter keeps the rows for which keep returns true and returns the number of
// removed rows.
func (d *Dataset) Filter(keep func(*Record) bool) int {
	before := len(d.Records)
	d.Records = slices.DeleteFunc(d.Records, func(r *Record) bool { return !keep(r) })
	return before - len(d.Records)
}

// Sort orders rows by cpd_target_pair_mutation.
func (d *Dataset) Sort() {
	SortRecords(d.Records)
}

// SortRecords orders rows by cpd_target_pair_mutation.
func SortRecords(records []*Record) {
	slices.SortStableFunc(records, func(a, b *Record) int {
		return strings.Compare(a.Key.CpdTargetPairMutation(), b.Key.CpdTargetPairMutation())
	})
}

// AddSubsetColumn registers a membership column and initialises it to false
// on every row.
func (d *Dataset) AddSubsetColumn(name string) {
	if !slices.Contains(d.SubsetColumns, name) {
		d.SubsetColumns = append(d.SubsetColumns, name)
	}
	for _, r := range d.Records {
		r.SetSubset(name, false)
	}
}

// IsKnownPair reports whether the mutation free key is a known interaction.
func (d *Dataset) IsKnownPair(k PairKey) bool {
	_, ok := d.KnownPairs[k.Unmutated()]
	return ok
}

// IsKnownTarget reports whether any known interaction involves tid.
func (d *Dataset) IsKnownTarget(tid int64) bool {
	_, ok := d.KnownTargets[tid]
	return ok
}

// Tids returns the distinct target ids in the table.
func (d *Dataset) Tids() map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, r := range d.Records {
		out[r.Key.Tid] = struct{}{}
	}
	return out
}
