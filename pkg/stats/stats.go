// Package stats counts the distinct compounds, targets and pairs of a table
// view, both for the per-file stats tables and for the debug size trace.
package stats

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// Entity is a column whose distinct values are counted.
type Entity struct {
	Column      string
	Description string
	Value       func(*dataset.Record) string
}

// Entities lists the counted columns in output order.
var Entities = []Entity{
	{
		Column: "parent_molregno", Description: "compound ID",
		Value: func(r *dataset.Record) string { return strconv.FormatInt(r.Key.Molregno, 10) },
	},
	{
		Column: "tid", Description: "target ID",
		Value: func(r *dataset.Record) string { return strconv.FormatInt(r.Key.Tid, 10) },
	},
	{
		Column: "tid_mutation", Description: "target ID with mutation annotations",
		Value: func(r *dataset.Record) string { return r.Key.TidMutation() },
	},
	{
		Column: "cpd_target_pair", Description: "compound-target pair",
		Value: func(r *dataset.Record) string { return r.Key.CpdTargetPair() },
	},
	{
		Column: "cpd_target_pair_mutation", Description: "compound-target pair with mutation annotations",
		Value: func(r *dataset.Record) string { return r.Key.CpdTargetPairMutation() },
	},
}

// SubsetType is a DTI based row filter applied before counting.
type SubsetType struct {
	Name  string
	Match func(dataset.Category) bool
}

func is(cs ...dataset.Category) func(dataset.Category) bool {
	return func(c dataset.Category) bool {
		for _, x := range cs {
			if c == x {
				return true
			}
		}
		return false
	}
}

// SubsetTypes lists the row filters of a stats table in output order.
var SubsetTypes = []SubsetType{
	{Name: "all", Match: func(dataset.Category) bool { return true }},
	{Name: "comparators", Match: is(dataset.DT)},
	{Name: "drugs", Match: is(dataset.DDT)},
	{Name: "candidates", Match: dataset.Category.Candidate},
	{Name: "candidates_phase_3", Match: is(dataset.C3DT)},
	{Name: "candidates_phase_2", Match: is(dataset.C2DT)},
	{Name: "candidates_phase_1", Match: is(dataset.C1DT)},
	{Name: "candidates_phase_0", Match: is(dataset.C0DT)},
}

// Row is one line of a stats table.
type Row struct {
	Column      string
	Description string
	SubsetType  string
	Count       int
}

// Header is the stats table header.
var Header = []string{"column", "column_description", "subset_type", "counts"}

// Strings returns the row as table cells.
func (r Row) Strings() []string {
	return []string{r.Column, r.Description, r.SubsetType, strconv.Itoa(r.Count)}
}

func distinct(records []*dataset.Record, e Entity, keep func(*dataset.Record) bool) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		if keep(r) {
			seen[e.Value(r)] = struct{}{}
		}
	}
	return len(seen)
}

// Compute returns the distinct counts of every entity column for every
// subset type.
func Compute(records []*dataset.Record) []Row {
	rows := make([]Row, 0, len(Entities)*len(SubsetTypes))
	for _, e := range Entities {
		for _, st := range SubsetTypes {
			rows = append(rows, Row{
				Column:      e.Column,
				Description: e.Description,
				SubsetType:  st.Name,
				Count:       distinct(records, e, func(r *dataset.Record) bool { return st.Match(r.DTI) }),
			})
		}
	}
	return rows
}

// Render writes rows as an aligned text table.
func Render(w io.Writer, rows []Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(Header)
	table.SetAutoWrapText(false)
	for _, r := range rows {
		table.Append(r.Strings())
	}
	table.Render()
}

// IsDrug reports whether r counts as a drug in the size trace. Before the
// DTI label exists a compound in phase 4 counts as a drug.
func IsDrug(r *dataset.Record) bool {
	if r.DTI == "" {
		return r.Compound.MaxPhase != nil && *r.Compound.MaxPhase == 4
	}
	return r.DTI == dataset.DDT
}

// Sizes counts every entity column over all rows and over the drug rows.
func Sizes(records []*dataset.Record, step string) dataset.StageSize {
	size := dataset.StageSize{
		Step:  step,
		All:   make(map[string]int, len(Entities)),
		Drugs: make(map[string]int, len(Entities)),
	}
	all := func(*dataset.Record) bool { return true }
	for _, e := range Entities {
		size.All[e.Column] = distinct(records, e, all)
		size.Drugs[e.Column] = distinct(records, e, IsDrug)
	}
	return size
}

// WithPchembl returns the rows with any potency value in suffix s, or in
// either suffix when s is empty.
func WithPchembl(records []*dataset.Record, s dataset.Suffix) []*dataset.Record {
	var out []*dataset.Record
	for _, r := range records {
		var has bool
		if s == "" {
			has = r.HasPchembl()
		} else {
			has = r.Stats(s).HasPchembl()
		}
		if has {
			out = append(out, r)
		}
	}
	return out
}

// AddSizes appends the size of records, and of its rows with a potency
// value, to the debug trace of ds. It is a no-op unless debug logging is on.
func AddSizes(ds *dataset.Dataset, records []*dataset.Record, s dataset.Suffix, step string) {
	if !logger.DebugEnabled() {
		return
	}
	all := Sizes(records, step)
	pchembl := Sizes(WithPchembl(records, s), step)
	ds.SizesAll = append(ds.SizesAll, all)
	ds.SizesPchembl = append(ds.SizesPchembl, pchembl)
	logger.Debug("[Stats] Size", "step", step,
		"pairs", all.All["cpd_target_pair_mutation"],
		"pairs_w_pchembl", pchembl.All["cpd_target_pair_mutation"])
}

// SizeHeader is the header of a size trace table.
func SizeHeader() []string {
	header := []string{"step"}
	for _, e := range Entities {
		header = append(header, e.Column+"_all")
	}
	for _, e := range Entities {
		header = append(header, e.Column+"_drugs")
	}
	return header
}
