// Package clean normalises the final table before it is checked and written.
package clean

import (
	"math"

	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// DecimalPlaces is the precision of measured float columns in the output.
const DecimalPlaces = 4

// Round rounds v to the given number of decimal places, ties to even.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}

// EmptyToNil replaces empty text values with nil.
func EmptyToNil(ds *dataset.Dataset) int {
	n := 0
	for _, r := range ds.Records {
		for _, f := range r.StringFields() {
			if *f != nil && **f == "" {
				*f = nil
				n++
			}
		}
	}
	return n
}

// RoundFloats rounds every measured float column. max_phase is a category
// code and stays untouched.
func RoundFloats(ds *dataset.Dataset, places int) {
	for _, r := range ds.Records {
		for _, f := range r.MeasuredFloatFields() {
			if *f != nil {
				v := Round(**f, places)
				*f = &v
			}
		}
	}
}

// Clean normalises empty strings, rounds floats and sorts the rows.
func Clean(ds *dataset.Dataset) {
	emptied := EmptyToNil(ds)
	RoundFloats(ds, DecimalPlaces)
	ds.Sort()
	logger.Debug("[Clean] Dataset cleaned", "rows", ds.Len(), "empty_strings", emptied)
}
