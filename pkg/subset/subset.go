// Package subset derives the membership columns of the dataset variants.
// Rows are never removed; every subset is a boolean column on the full
// table.
package subset

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/invariant"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// ErrThreshold is returned for a compound threshold below one.
var ErrThreshold = errors.New("minimum number of compounds must be positive")

// View is a named row subset exposed with the columns of one measurement
// subset.
type View struct {
	Name    string
	Suffix  dataset.Suffix
	Records []*dataset.Record
	Columns []dataset.Column
}

// Selection holds the four views computed for one suffix.
type Selection struct {
	Suffix       dataset.Suffix
	MinCompounds int

	Base             View
	EnoughCompounds  View
	KnownInteraction View
	Drug             View
}

// Views returns the views in output order.
func (s *Selection) Views() []View {
	return []View{s.Base, s.EnoughCompounds, s.KnownInteraction, s.Drug}
}

// Members returns the views that are stored as membership columns.
func (s *Selection) Members() []View {
	return []View{s.EnoughCompounds, s.KnownInteraction, s.Drug}
}

// Names returns the membership column names for suffix s and threshold n.
func Names(s dataset.Suffix, n int) (enough, knownInteraction, drug string) {
	enough = string(s) + "_" + strconv.Itoa(n)
	return enough, enough + "_c_dt_d_dt", enough + "_d_dt"
}

// BaseRecords returns the rows a suffix is computed on: every row for BF,
// the keep_for_binding rows for B.
func BaseRecords(ds *dataset.Dataset, s dataset.Suffix) []*dataset.Record {
	if s == dataset.BF {
		return append([]*dataset.Record(nil), ds.Records...)
	}
	var out []*dataset.Record
	for _, r := range ds.Records {
		if r.KeepForBinding {
			out = append(out, r)
		}
	}
	return out
}

// CountCompounds counts per tid_mutation the compounds with a mean potency in
// suffix s.
func CountCompounds(records []*dataset.Record, s dataset.Suffix) map[string]int {
	counts := make(map[string]int)
	seen := make(map[dataset.PairKey]bool)
	for _, r := range records {
		if r.Stats(s).Mean == nil || seen[r.Key] {
			continue
		}
		seen[r.Key] = true
		counts[r.Key.TidMutation()]++
	}
	return counts
}

func filter(records []*dataset.Record, keep func(*dataset.Record) bool) []*dataset.Record {
	var out []*dataset.Record
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func targetsWith(records []*dataset.Record, pred func(*dataset.Record) bool) map[string]bool {
	out := make(map[string]bool)
	for _, r := range records {
		if pred(r) {
			out[r.Key.TidMutation()] = true
		}
	}
	return out
}

// Select computes the subsets of suffix s with at least minCompounds
// compounds per target, stores them as membership columns on ds and checks
// that the columns reproduce them.
func Select(ds *dataset.Dataset, s dataset.Suffix, minCompounds int) (*Selection, error) {
	if minCompounds < 1 {
		return nil, fmt.Errorf("%w: %s got %d", ErrThreshold, s, minCompounds)
	}

	columns := dataset.Columns(dataset.ColumnOptions{Suffix: s, Descriptors: ds.DescriptorsLoaded})
	base := BaseRecords(ds, s)

	counts := CountCompounds(base, s)
	enoughRows := filter(base, func(r *dataset.Record) bool { return counts[r.Key.TidMutation()] >= minCompounds })

	knownTargets := targetsWith(enoughRows, func(r *dataset.Record) bool { return r.DTI.KnownInteraction() })
	knownRows := filter(enoughRows, func(r *dataset.Record) bool { return knownTargets[r.Key.TidMutation()] })

	drugTargets := targetsWith(enoughRows, func(r *dataset.Record) bool { return r.DTI == dataset.DDT })
	drugRows := filter(enoughRows, func(r *dataset.Record) bool { return drugTargets[r.Key.TidMutation()] })

	enough, known, drug := Names(s, minCompounds)
	sel := &Selection{
		Suffix:           s,
		MinCompounds:     minCompounds,
		Base:             View{Name: string(s), Suffix: s, Records: base, Columns: columns},
		EnoughCompounds:  View{Name: enough, Suffix: s, Records: enoughRows, Columns: columns},
		KnownInteraction: View{Name: known, Suffix: s, Records: knownRows, Columns: columns},
		Drug:             View{Name: drug, Suffix: s, Records: drugRows, Columns: columns},
	}

	for _, v := range sel.Members() {
		ds.AddSubsetColumn(v.Name)
		for _, r := range v.Records {
			r.SetSubset(v.Name, true)
		}
	}
	if err := Verify(ds, sel); err != nil {
		return nil, err
	}

	logger.Debug("[Subset] Subsets selected", "suffix", s, "min_compounds", minCompounds,
		"base", len(base), enough, len(enoughRows), known, len(knownRows), drug, len(drugRows))
	return sel, nil
}

// Verify re-derives every membership column by predicate on ds and compares
// it with the independently computed rows of sel.
func Verify(ds *dataset.Dataset, sel *Selection) error {
	for _, v := range sel.Members() {
		derived := filter(ds.Records, func(r *dataset.Record) bool { return r.InSubset(v.Name) })
		want := make(map[*dataset.Record]bool, len(v.Records))
		for _, r := range v.Records {
			want[r] = true
		}

		viol := &invariant.Violation{Invariant: invariant.SubsetConsistency, Column: v.Name}
		if len(derived) != len(v.Records) {
			viol.Detail = fmt.Sprintf("column selects %d rows, subset has %d", len(derived), len(v.Records))
		}
		for _, r := range derived {
			if !want[r] {
				viol.Count++
				if len(viol.Rows) < 10 {
					viol.Rows = append(viol.Rows, r.Key.CpdTargetPairMutation())
				}
			}
		}
		if viol.Detail != "" || viol.Count > 0 {
			if viol.Detail == "" {
				viol.Detail = "column selects rows outside the subset"
			}
			return viol
		}
	}
	return nil
}
