// Package efficiency derives ligand efficiency metrics from the mean potency
// of a pair and the compound properties.
package efficiency

import (
	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// LEFactor converts pchembl per heavy atom into kcal/mol (2.303 RT at 298 K).
const LEFactor = 2.303 * 298 * 0.00199

// Metric is one efficiency ratio.
type Metric struct {
	Name string
	// Defined reports whether the property operand allows the metric.
	Defined func(p *chembl.CompoundProperties) bool
	compute func(mean float64, p *chembl.CompoundProperties) float64
	// Field returns the slot the metric is stored in.
	Field func(st *dataset.SubsetStats) **float64
}

func nonZeroFloat(v *float64) bool { return v != nil && *v != 0 }

// Metrics lists LE, BEI, SEI and LLE.
var Metrics = []Metric{
	{
		Name:    "LE",
		Defined: func(p *chembl.CompoundProperties) bool { return p.HeavyAtoms != nil && *p.HeavyAtoms != 0 },
		compute: func(mean float64, p *chembl.CompoundProperties) float64 {
			return mean / float64(*p.HeavyAtoms) * LEFactor
		},
		Field: func(st *dataset.SubsetStats) **float64 { return &st.LE },
	},
	{
		Name:    "BEI",
		Defined: func(p *chembl.CompoundProperties) bool { return nonZeroFloat(p.MwFreebase) },
		compute: func(mean float64, p *chembl.CompoundProperties) float64 {
			return mean * 1000 / *p.MwFreebase
		},
		Field: func(st *dataset.SubsetStats) **float64 { return &st.BEI },
	},
	{
		Name:    "SEI",
		Defined: func(p *chembl.CompoundProperties) bool { return nonZeroFloat(p.Psa) },
		compute: func(mean float64, p *chembl.CompoundProperties) float64 {
			return mean * 100 / *p.Psa
		},
		Field: func(st *dataset.SubsetStats) **float64 { return &st.SEI },
	},
	{
		Name:    "LLE",
		Defined: func(p *chembl.CompoundProperties) bool { return p.Alogp != nil },
		compute: func(mean float64, p *chembl.CompoundProperties) float64 {
			return mean - *p.Alogp
		},
		Field: func(st *dataset.SubsetStats) **float64 { return &st.LLE },
	},
}

// Expected reports whether m must be set for the given subset statistics.
func (m Metric) Expected(st *dataset.SubsetStats, p *chembl.CompoundProperties) bool {
	return st.Mean != nil && m.Defined(p)
}

// Compute returns the metric or nil when it is not defined.
func (m Metric) Compute(st *dataset.SubsetStats, p *chembl.CompoundProperties) *float64 {
	if !m.Expected(st, p) {
		return nil
	}
	v := m.compute(*st.Mean, p)
	return &v
}

// Compute fills the efficiency metrics of both measurement subsets on every
// row.
func Compute(ds *dataset.Dataset) {
	set := make(map[string]int)
	for _, r := range ds.Records {
		for _, s := range dataset.Suffixes {
			st := r.Stats(s)
			for _, m := range Metrics {
				v := m.Compute(st, &r.Props)
				*m.Field(st) = v
				if v != nil {
					set[m.Name+"_"+string(s)]++
				}
			}
		}
	}
	logger.Debug("[Efficiency] Metrics computed", "rows", ds.Len(), "LE_BF", set["LE_BF"], "LE_B", set["LE_B"])
}
