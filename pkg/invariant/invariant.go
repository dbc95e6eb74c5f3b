// Package invariant asserts whole-table consistency rules. Violations are
// never repaired; any of them aborts the run.
package invariant

import (
	"fmt"
	"math"
	"strings"

	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/efficiency"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"

	"github.com/hashicorp/go-multierror"
)

// Invariant numbers.
const (
	TextualNulls = iota + 1
	MixedTypes
	UnmeasuredPairs
	EfficiencyGuards
	CompoundProperties
	Annotations
	DescriptorsSmiles
	SubsetConsistency
)

var names = map[int]string{
	TextualNulls:       "textual null values",
	MixedTypes:         "mixed value types",
	UnmeasuredPairs:    "pairs without BF potency outside drug_mechanism",
	EfficiencyGuards:   "efficiency metric null pattern",
	CompoundProperties: "compound property null pattern",
	Annotations:        "annotation null pattern",
	DescriptorsSmiles:  "descriptor null pattern",
	SubsetConsistency:  "subset consistency",
}

// maxRows bounds the row ids reported per violation.
const maxRows = 10

// Violation is one failed invariant on one column.
type Violation struct {
	Invariant int
	Column    string
	Detail    string
	// Rows holds up to maxRows cpd_target_pair_mutation ids.
	Rows  []string
	Count int
}

func (v *Violation) Error() string {
	msg := fmt.Sprintf("invariant %d (%s) violated in %s", v.Invariant, names[v.Invariant], v.Column)
	if v.Detail != "" {
		msg += ": " + v.Detail
	}
	if v.Count > 0 {
		msg += fmt.Sprintf(" [%d rows: %s", v.Count, strings.Join(v.Rows, ", "))
		if v.Count > len(v.Rows) {
			msg += ", ..."
		}
		msg += "]"
	}
	return msg
}

type collector struct {
	byColumn map[string]*Violation
	order    []string
}

func newCollector() *collector {
	return &collector{byColumn: make(map[string]*Violation)}
}

func (c *collector) add(invariant int, column, detail string, r *dataset.Record) {
	key := fmt.Sprintf("%d/%s/%s", invariant, column, detail)
	v, ok := c.byColumn[key]
	if !ok {
		v = &Violation{Invariant: invariant, Column: column, Detail: detail}
		c.byColumn[key] = v
		c.order = append(c.order, key)
	}
	v.Count++
	if r != nil && len(v.Rows) < maxRows {
		v.Rows = append(v.Rows, r.Key.CpdTargetPairMutation())
	}
}

func (c *collector) violations() []*Violation {
	out := make([]*Violation, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byColumn[key])
	}
	return out
}

// CheckTextualNulls finds text values spelling a null and floats that are
// not finite.
func CheckTextualNulls(ds *dataset.Dataset) []*Violation {
	c := newCollector()
	cols := ds.FullColumns()
	for _, r := range ds.Records {
		for _, col := range cols {
			switch v := col.Get(r).(type) {
			case string:
				if v == "nan" || v == "null" {
					c.add(TextualNulls, col.Name, fmt.Sprintf("value %q", v), r)
				}
			case float64:
				if math.IsNaN(v) || math.IsInf(v, 0) {
					c.add(TextualNulls, col.Name, "non-finite float", r)
				}
			}
		}
	}
	return c.violations()
}

func kindOf(v any) (dataset.Kind, bool) {
	switch v.(type) {
	case int64:
		return dataset.KindInt, true
	case float64:
		return dataset.KindFloat, true
	case string:
		return dataset.KindString, true
	case bool:
		return dataset.KindBool, true
	}
	return 0, false
}

// CheckKinds verifies that every non-nil value has its column's kind.
func CheckKinds(ds *dataset.Dataset) []*Violation {
	return checkKinds(ds.Records, ds.FullColumns())
}

func checkKinds(records []*dataset.Record, cols []dataset.Column) []*Violation {
	c := newCollector()
	for _, r := range records {
		for _, col := range cols {
			v := col.Get(r)
			if v == nil {
				continue
			}
			k, ok := kindOf(v)
			if !ok || k != col.Kind {
				c.add(MixedTypes, col.Name, fmt.Sprintf("%T in %s column", v, col.Kind), r)
			}
		}
	}
	return c.violations()
}

// CheckUnmeasuredPairs requires every row without a BF potency value to be a
// drug_mechanism pair.
func CheckUnmeasuredPairs(ds *dataset.Dataset) []*Violation {
	c := newCollector()
	for _, r := range ds.Records {
		if r.PairMutationInDMTable {
			continue
		}
		if r.BF.Mean == nil {
			c.add(UnmeasuredPairs, "pchembl_value_mean_BF", "", r)
		}
		if r.BF.Max == nil {
			c.add(UnmeasuredPairs, "pchembl_value_max_BF", "", r)
		}
		if r.BF.Median == nil {
			c.add(UnmeasuredPairs, "pchembl_value_median_BF", "", r)
		}
	}
	return c.violations()
}

// CheckEfficiency compares the null pattern of every efficiency metric with
// its guard.
func CheckEfficiency(ds *dataset.Dataset) []*Violation {
	c := newCollector()
	for _, r := range ds.Records {
		for _, s := range dataset.Suffixes {
			st := r.Stats(s)
			for _, m := range efficiency.Metrics {
				set := *m.Field(st) != nil
				if want := m.Expected(st, &r.Props); set != want {
					c.add(EfficiencyGuards, m.Name+"_"+string(s), fmt.Sprintf("set=%v expected=%v", set, want), r)
				}
			}
		}
	}
	return c.violations()
}

// isEmpty treats empty source strings as nil since cleaning normalises them.
func isEmpty(v any) bool {
	return v == nil || v == ""
}

// CheckCompoundProperties requires property and structure columns to be nil
// exactly when the compound or its value is missing from the source.
func CheckCompoundProperties(ds *dataset.Dataset) []*Violation {
	c := newCollector()
	cols := append(append([]dataset.Column(nil), dataset.PropertyColumns...), dataset.StructureColumns...)
	for _, r := range ds.Records {
		props, inSource := ds.Lookups.Properties[r.Key.Molregno]
		ref := &dataset.Record{Props: props}
		for _, col := range cols {
			isNil := isEmpty(col.Get(r))
			want := !inSource || isEmpty(col.Get(ref))
			if isNil != want {
				c.add(CompoundProperties, col.Name, fmt.Sprintf("nil=%v expected=%v", isNil, want), r)
			}
		}
	}
	return c.violations()
}

// CheckAnnotations requires atc_level1 and the target classes to be nil
// exactly when the key is absent from the mapping.
func CheckAnnotations(ds *dataset.Dataset) []*Violation {
	c := newCollector()
	check := func(column string, value *string, mapping map[int64]string, key int64, r *dataset.Record) {
		_, inMapping := mapping[key]
		if (value == nil) == inMapping {
			c.add(Annotations, column, fmt.Sprintf("nil=%v in_mapping=%v", value == nil, inMapping), r)
		}
	}
	for _, r := range ds.Records {
		check("atc_level1", r.ATCLevel1, ds.Lookups.ATC, r.Key.Molregno, r)
		check("target_class_l1", r.TargetClassL1, ds.Lookups.TargetClassL1, r.Key.Tid, r)
		check("target_class_l2", r.TargetClassL2, ds.Lookups.TargetClassL2, r.Key.Tid, r)
	}
	return c.violations()
}

// CheckDescriptors requires descriptor columns to be nil exactly when there
// is no canonical SMILES. Scaffolds may be nil for acyclic molecules.
func CheckDescriptors(ds *dataset.Dataset) []*Violation {
	if !ds.DescriptorsLoaded {
		return nil
	}
	c := newCollector()
	for _, r := range ds.Records {
		noSmiles := r.Props.CanonicalSmiles == nil
		for _, col := range dataset.DescriptorColumns {
			if col.Group != dataset.GroupDescriptor {
				continue
			}
			if isNil := col.Get(r) == nil; isNil != noSmiles {
				c.add(DescriptorsSmiles, col.Name, fmt.Sprintf("nil=%v without_smiles=%v", isNil, noSmiles), r)
			}
		}
	}
	return c.violations()
}

// CheckSubsetConsistency asserts that B statistics only exist next to BF
// statistics, no NDT pair survived and pair keys are unique.
func CheckSubsetConsistency(ds *dataset.Dataset) []*Violation {
	c := newCollector()
	seen := make(map[dataset.PairKey]bool, len(ds.Records))
	for _, r := range ds.Records {
		if r.B.HasPchembl() && !r.BF.HasPchembl() {
			c.add(SubsetConsistency, "pchembl_value_mean_B", "B potency without BF potency", r)
		}
		if r.B.FirstPublication != nil && r.BF.FirstPublication == nil {
			c.add(SubsetConsistency, "first_publication_cpd_target_pair_B", "B publication without BF publication", r)
		}
		if r.DTI == "" || r.DTI == dataset.NDT {
			c.add(SubsetConsistency, "DTI", fmt.Sprintf("category %q", r.DTI), r)
		}
		if seen[r.Key] {
			c.add(SubsetConsistency, "cpd_target_pair_mutation", "duplicate pair", r)
		}
		seen[r.Key] = true
	}
	return c.violations()
}

// Check runs the whole battery and returns every violation as one
// *multierror.Error, or nil.
func Check(ds *dataset.Dataset, stage string) error {
	checks := []func(*dataset.Dataset) []*Violation{
		CheckTextualNulls,
		CheckKinds,
		CheckUnmeasuredPairs,
		CheckEfficiency,
		CheckCompoundProperties,
		CheckAnnotations,
		CheckDescriptors,
		CheckSubsetConsistency,
	}

	var result *multierror.Error
	for _, check := range checks {
		for _, v := range check(ds) {
			result = multierror.Append(result, v)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Error("[Invariant] Checks failed", "stage", stage, "violations", len(result.Errors))
		return fmt.Errorf("invariant checks failed after %s: %w", stage, err)
	}
	logger.Info("[Invariant] Checks passed", "stage", stage, "rows", ds.Len())
	return nil
}
