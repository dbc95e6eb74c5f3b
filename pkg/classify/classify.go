// Package classify assigns the drug-target interaction category of a pair.
package classify

import (
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// Classify maps the three inputs to exactly one category.
//
//	known | max_phase    | therapeutic | category
//	yes   | 4            | any         | D_DT
//	yes   | 3            | any         | C3_DT
//	yes   | 2            | any         | C2_DT
//	yes   | 1            | any         | C1_DT
//	yes   | other or nil | any         | C0_DT
//	no    | any          | yes         | DT
//	no    | any          | no          | NDT
func Classify(known bool, maxPhase *float64, therapeutic bool) dataset.Category {
	switch {
	case known && maxPhase != nil && *maxPhase == 4:
		return dataset.DDT
	case known && maxPhase != nil && *maxPhase == 3:
		return dataset.C3DT
	case known && maxPhase != nil && *maxPhase == 2:
		return dataset.C2DT
	case known && maxPhase != nil && *maxPhase == 1:
		return dataset.C1DT
	case known:
		return dataset.C0DT
	case therapeutic:
		return dataset.DT
	default:
		return dataset.NDT
	}
}

// Annotate sets therapeutic_target and DTI on every row and drops the NDT
// rows. It returns the number of dropped rows.
func Annotate(ds *dataset.Dataset) int {
	counts := make(map[dataset.Category]int)
	for _, r := range ds.Records {
		r.TherapeuticTarget = ds.IsKnownTarget(r.Key.Tid)
		r.DTI = Classify(ds.IsKnownPair(r.Key), r.Compound.MaxPhase, r.TherapeuticTarget)
		counts[r.DTI]++
	}
	dropped := ds.Filter(func(r *dataset.Record) bool { return r.DTI != dataset.NDT })

	logger.Debug("[Classify] Pairs classified",
		"D_DT", counts[dataset.DDT], "C3_DT", counts[dataset.C3DT], "C2_DT", counts[dataset.C2DT],
		"C1_DT", counts[dataset.C1DT], "C0_DT", counts[dataset.C0DT], "DT", counts[dataset.DT],
		"dropped", dropped)
	return dropped
}
