package dataset

import "github.com/chembl/compound-target-pairs-dataset/pkg/chembl"

// Suffix names a measurement subset.
type Suffix string

const (
	// BF aggregates binding and functional assays.
	BF Suffix = "BF"
	// B aggregates binding assays only.
	B Suffix = "B"
)

// Suffixes lists the measurement subsets in output order.
var Suffixes = []Suffix{BF, B}

// Sibling returns the other measurement subset.
func (s Suffix) Sibling() Suffix {
	if s == B {
		return BF
	}
	return B
}

// Category is the drug-target interaction label of a pair.
type Category string

const (
	DDT  Category = "D_DT"
	C3DT Category = "C3_DT"
	C2DT Category = "C2_DT"
	C1DT Category = "C1_DT"
	C0DT Category = "C0_DT"
	DT   Category = "DT"
	NDT  Category = "NDT"
)

// KnownInteraction reports whether c is one of the drug_mechanism categories.
func (c Category) KnownInteraction() bool {
	switch c {
	case DDT, C3DT, C2DT, C1DT, C0DT:
		return true
	}
	return false
}

// Candidate reports whether c labels a clinical candidate (phase 0 to 3).
func (c Category) Candidate() bool {
	return c.KnownInteraction() && c != DDT
}

// SubsetStats holds the aggregated potency values of one measurement subset
// and the efficiency metrics derived from them.
type SubsetStats struct {
	Mean   *float64
	Max    *float64
	Median *float64

	FirstPublication            *int64
	FirstPublicationWithPchembl *int64

	LE  *float64
	BEI *float64
	SEI *float64
	LLE *float64
}

// HasPchembl reports whether any potency statistic is set.
func (s *SubsetStats) HasPchembl() bool {
	return s.Mean != nil || s.Max != nil || s.Median != nil
}

// Descriptors are structure derived values computed outside this module for
// a canonical SMILES.
type Descriptors struct {
	FractionCsp3             *float64
	RingCount                *int64
	NumAliphaticRings        *int64
	NumAliphaticCarbocycles  *int64
	NumAliphaticHeterocycles *int64
	NumAromaticRings         *int64
	NumAromaticCarbocycles   *int64
	NumAromaticHeterocycles  *int64
	NumSaturatedRings        *int64
	NumSaturatedCarbocycles  *int64
	NumSaturatedHeterocycles *int64
	NumStereocentres         *int64
	NumHeteroatoms           *int64
	AromaticAtoms            *int64
	AromaticC                *int64
	AromaticN                *int64
	AromaticHetero           *int64

	// Scaffolds are nil for acyclic molecules.
	ScaffoldWStereo  *string
	ScaffoldWoStereo *string
}

// Record is one row of the dataset. Every stage fills only the fields it
// owns; nil means not known.
type Record struct {
	Key      PairKey
	Compound chembl.Compound
	Target   chembl.Target

	BF SubsetStats
	B  SubsetStats

	PairMutationInDMTable bool
	PairInDMTable         bool
	KeepForBinding        bool

	TherapeuticTarget bool
	DTI               Category

	FirstPublicationCpd *int64
	Props               chembl.CompoundProperties
	ATCLevel1           *string
	TargetClassL1       *string
	TargetClassL2       *string
	Descriptors         Descriptors

	Subsets map[string]bool
}

// Stats returns the statistics of measurement subset s.
func (r *Record) Stats(s Suffix) *SubsetStats {
	if s == B {
		return &r.B
	}
	return &r.BF
}

// HasPchembl reports whether any subset carries a potency value.
func (r *Record) HasPchembl() bool {
	return r.BF.HasPchembl() || r.B.HasPchembl()
}

// InSubset reports the membership column value for name.
func (r *Record) InSubset(name string) bool {
	return r.Subsets[name]
}

// SetSubset stores a membership column value.
func (r *Record) SetSubset(name string, member bool) {
	if r.Subsets == nil {
		r.Subsets = make(map[string]bool)
	}
	r.Subsets[name] = member
}

// StringFields returns the addresses of every nullable text field.
func (r *Record) StringFields() []**string {
	return []**string{
		&r.Compound.ChemblID, &r.Compound.PrefName,
		&r.Target.ChemblID, &r.Target.PrefName, &r.Target.TargetType, &r.Target.Organism,
		&r.Props.Ro3Pass, &r.Props.MolecularSpecies, &r.Props.FullMolformula,
		&r.Props.StandardInchi, &r.Props.StandardInchiKey, &r.Props.CanonicalSmiles,
		&r.ATCLevel1, &r.TargetClassL1, &r.TargetClassL2,
		&r.Descriptors.ScaffoldWStereo, &r.Descriptors.ScaffoldWoStereo,
	}
}

// MeasuredFloatFields returns the addresses of every nullable float field
// except max_phase, which is a category code rather than a measurement.
func (r *Record) MeasuredFloatFields() []**float64 {
	fields := []**float64{
		&r.Props.MwFreebase, &r.Props.Alogp, &r.Props.Psa,
		&r.Props.CxMostApka, &r.Props.CxMostBpka, &r.Props.CxLogp, &r.Props.CxLogd,
		&r.Props.FullMwt, &r.Props.QedWeighted, &r.Props.MwMonoisotopic,
		&r.Descriptors.FractionCsp3,
	}
	for _, s := range Suffixes {
		st := r.Stats(s)
		fields = append(fields, &st.Mean, &st.Max, &st.Median, &st.LE, &st.BEI, &st.SEI, &st.LLE)
	}
	return fields
}
