package dataset

import "strconv"

// PairKey identifies a compound-target pair. Mutation is empty when the
// measurement carries no mutation annotation, which makes PairKey usable as
// a map key at both granularities.
type PairKey struct {
	Molregno int64
	Tid      int64
	Mutation string
}

// HasMutation reports whether the key is mutation qualified.
func (k PairKey) HasMutation() bool {
	return k.Mutation != ""
}

// Unmutated drops the mutation label.
func (k PairKey) Unmutated() PairKey {
	return PairKey{Molregno: k.Molregno, Tid: k.Tid}
}

// TidMutation is "<tid>" or "<tid>_<mutation>".
func (k PairKey) TidMutation() string {
	tid := strconv.FormatInt(k.Tid, 10)
	if k.Mutation == "" {
		return tid
	}
	return tid + "_" + k.Mutation
}

// CpdTargetPair is "<molregno>_<tid>".
func (k PairKey) CpdTargetPair() string {
	return strconv.FormatInt(k.Molregno, 10) + "_" + strconv.FormatInt(k.Tid, 10)
}

// CpdTargetPairMutation is "<molregno>_<tid_mutation>".
func (k PairKey) CpdTargetPairMutation() string {
	return strconv.FormatInt(k.Molregno, 10) + "_" + k.TidMutation()
}
