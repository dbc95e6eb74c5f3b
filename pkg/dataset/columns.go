package dataset

// Kind is the value type of a column. Non-nil values returned by a column
// getter are int64, float64, string or bool respectively.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Group tells which producer owns a column.
type Group int

const (
	GroupPair Group = iota
	GroupAggregate
	GroupAnnotation
	GroupFirstPublication
	GroupProperty
	GroupStructure
	GroupEfficiency
	GroupClassification
	GroupDescriptor
	GroupScaffold
	GroupFilter
	GroupSubset
)

// Column describes one output column.
type Column struct {
	Name   string
	Kind   Kind
	Group  Group
	Suffix Suffix
	Get    func(*Record) any
}

// ColumnOptions selects the columns of a table view.
type ColumnOptions struct {
	// Suffix restricts suffixed columns to one measurement subset. Empty
	// keeps both.
	Suffix      Suffix
	Descriptors bool
	Subsets     []string
}

func ptr[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func col(name string, kind Kind, group Group, get func(*Record) any) Column {
	return Column{Name: name, Kind: kind, Group: group, Get: get}
}

func aggregateColumns(s Suffix) []Column {
	mk := func(name string, kind Kind, get func(*SubsetStats) any) Column {
		return Column{
			Name: name + "_" + string(s), Kind: kind, Group: GroupAggregate, Suffix: s,
			Get: func(r *Record) any { return get(r.Stats(s)) },
		}
	}
	return []Column{
		mk("pchembl_value_mean", KindFloat, func(st *SubsetStats) any { return ptr(st.Mean) }),
		mk("pchembl_value_max", KindFloat, func(st *SubsetStats) any { return ptr(st.Max) }),
		mk("pchembl_value_median", KindFloat, func(st *SubsetStats) any { return ptr(st.Median) }),
		mk("first_publication_cpd_target_pair", KindInt, func(st *SubsetStats) any { return ptr(st.FirstPublication) }),
		mk("first_publication_cpd_target_pair_w_pchembl", KindInt, func(st *SubsetStats) any { return ptr(st.FirstPublicationWithPchembl) }),
	}
}

func efficiencyColumns(s Suffix) []Column {
	mk := func(name string, get func(*SubsetStats) *float64) Column {
		return Column{
			Name: name + "_" + string(s), Kind: KindFloat, Group: GroupEfficiency, Suffix: s,
			Get: func(r *Record) any { return ptr(get(r.Stats(s))) },
		}
	}
	return []Column{
		mk("LE", func(st *SubsetStats) *float64 { return st.LE }),
		mk("BEI", func(st *SubsetStats) *float64 { return st.BEI }),
		mk("SEI", func(st *SubsetStats) *float64 { return st.SEI }),
		mk("LLE", func(st *SubsetStats) *float64 { return st.LLE }),
	}
}

var pairColumns = []Column{
	col("parent_molregno", KindInt, GroupPair, func(r *Record) any { return r.Key.Molregno }),
	col("parent_chemblid", KindString, GroupPair, func(r *Record) any { return ptr(r.Compound.ChemblID) }),
	col("parent_pref_name", KindString, GroupPair, func(r *Record) any { return ptr(r.Compound.PrefName) }),
	col("max_phase", KindFloat, GroupPair, func(r *Record) any { return ptr(r.Compound.MaxPhase) }),
	col("first_approval", KindInt, GroupPair, func(r *Record) any { return ptr(r.Compound.FirstApproval) }),
	col("usan_year", KindInt, GroupPair, func(r *Record) any { return ptr(r.Compound.UsanYear) }),
	col("black_box_warning", KindInt, GroupPair, func(r *Record) any { return ptr(r.Compound.BlackBoxWarning) }),
	col("prodrug", KindInt, GroupPair, func(r *Record) any { return ptr(r.Compound.Prodrug) }),
	col("oral", KindInt, GroupPair, func(r *Record) any { return ptr(r.Compound.Oral) }),
	col("parenteral", KindInt, GroupPair, func(r *Record) any { return ptr(r.Compound.Parenteral) }),
	col("topical", KindInt, GroupPair, func(r *Record) any { return ptr(r.Compound.Topical) }),
	col("tid", KindInt, GroupPair, func(r *Record) any { return r.Key.Tid }),
	col("mutation", KindString, GroupPair, func(r *Record) any {
		if !r.Key.HasMutation() {
			return nil
		}
		return r.Key.Mutation
	}),
	col("target_chembl_id", KindString, GroupPair, func(r *Record) any { return ptr(r.Target.ChemblID) }),
	col("target_pref_name", KindString, GroupPair, func(r *Record) any { return ptr(r.Target.PrefName) }),
	col("target_type", KindString, GroupPair, func(r *Record) any { return ptr(r.Target.TargetType) }),
	col("organism", KindString, GroupPair, func(r *Record) any { return ptr(r.Target.Organism) }),
	col("tid_mutation", KindString, GroupPair, func(r *Record) any { return r.Key.TidMutation() }),
	col("cpd_target_pair", KindString, GroupPair, func(r *Record) any { return r.Key.CpdTargetPair() }),
	col("cpd_target_pair_mutation", KindString, GroupPair, func(r *Record) any { return r.Key.CpdTargetPairMutation() }),
}

var annotationColumns = []Column{
	col("therapeutic_target", KindBool, GroupAnnotation, func(r *Record) any { return r.TherapeuticTarget }),
	col("DTI", KindString, GroupAnnotation, func(r *Record) any {
		if r.DTI == "" {
			return nil
		}
		return string(r.DTI)
	}),
	col("first_publication_cpd", KindInt, GroupFirstPublication, func(r *Record) any { return ptr(r.FirstPublicationCpd) }),
}

// PropertyColumns are read from compound_properties.
var PropertyColumns = []Column{
	col("mw_freebase", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.MwFreebase) }),
	col("alogp", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.Alogp) }),
	col("hba", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.Hba) }),
	col("hbd", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.Hbd) }),
	col("psa", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.Psa) }),
	col("rtb", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.Rtb) }),
	col("ro3_pass", KindString, GroupProperty, func(r *Record) any { return ptr(r.Props.Ro3Pass) }),
	col("num_ro5_violations", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.NumRo5Violations) }),
	col("cx_most_apka", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.CxMostApka) }),
	col("cx_most_bpka", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.CxMostBpka) }),
	col("cx_logp", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.CxLogp) }),
	col("cx_logd", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.CxLogd) }),
	col("molecular_species", KindString, GroupProperty, func(r *Record) any { return ptr(r.Props.MolecularSpecies) }),
	col("full_mwt", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.FullMwt) }),
	col("aromatic_rings", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.AromaticRings) }),
	col("heavy_atoms", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.HeavyAtoms) }),
	col("qed_weighted", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.QedWeighted) }),
	col("mw_monoisotopic", KindFloat, GroupProperty, func(r *Record) any { return ptr(r.Props.MwMonoisotopic) }),
	col("full_molformula", KindString, GroupProperty, func(r *Record) any { return ptr(r.Props.FullMolformula) }),
	col("hba_lipinski", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.HbaLipinski) }),
	col("hbd_lipinski", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.HbdLipinski) }),
	col("num_lipinski_ro5_violations", KindInt, GroupProperty, func(r *Record) any { return ptr(r.Props.NumLipinskiRo5Violations) }),
}

// StructureColumns are read from compound_structures.
var StructureColumns = []Column{
	col("standard_inchi", KindString, GroupStructure, func(r *Record) any { return ptr(r.Props.StandardInchi) }),
	col("standard_inchi_key", KindString, GroupStructure, func(r *Record) any { return ptr(r.Props.StandardInchiKey) }),
	col("canonical_smiles", KindString, GroupStructure, func(r *Record) any { return ptr(r.Props.CanonicalSmiles) }),
}

var classificationColumns = []Column{
	col("atc_level1", KindString, GroupClassification, func(r *Record) any { return ptr(r.ATCLevel1) }),
	col("target_class_l1", KindString, GroupClassification, func(r *Record) any { return ptr(r.TargetClassL1) }),
	col("target_class_l2", KindString, GroupClassification, func(r *Record) any { return ptr(r.TargetClassL2) }),
}

// DescriptorColumns are filled from precomputed structure descriptors.
var DescriptorColumns = []Column{
	col("fraction_csp3", KindFloat, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.FractionCsp3) }),
	col("ring_count", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.RingCount) }),
	col("num_aliphatic_rings", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumAliphaticRings) }),
	col("num_aliphatic_carbocycles", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumAliphaticCarbocycles) }),
	col("num_aliphatic_heterocycles", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumAliphaticHeterocycles) }),
	col("num_aromatic_rings", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumAromaticRings) }),
	col("num_aromatic_carbocycles", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumAromaticCarbocycles) }),
	col("num_aromatic_heterocycles", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumAromaticHeterocycles) }),
	col("num_saturated_rings", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumSaturatedRings) }),
	col("num_saturated_carbocycles", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumSaturatedCarbocycles) }),
	col("num_saturated_heterocycles", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumSaturatedHeterocycles) }),
	col("num_stereocentres", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumStereocentres) }),
	col("num_heteroatoms", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.NumHeteroatoms) }),
	col("aromatic_atoms", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.AromaticAtoms) }),
	col("aromatic_c", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.AromaticC) }),
	col("aromatic_n", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.AromaticN) }),
	col("aromatic_hetero", KindInt, GroupDescriptor, func(r *Record) any { return ptr(r.Descriptors.AromaticHetero) }),
	col("scaffold_w_stereo", KindString, GroupScaffold, func(r *Record) any { return ptr(r.Descriptors.ScaffoldWStereo) }),
	col("scaffold_wo_stereo", KindString, GroupScaffold, func(r *Record) any { return ptr(r.Descriptors.ScaffoldWoStereo) }),
}

var filterColumns = []Column{
	col("pair_mutation_in_dm_table", KindBool, GroupFilter, func(r *Record) any { return r.PairMutationInDMTable }),
	col("pair_in_dm_table", KindBool, GroupFilter, func(r *Record) any { return r.PairInDMTable }),
	col("keep_for_binding", KindBool, GroupFilter, func(r *Record) any { return r.KeepForBinding }),
}

// SubsetColumn returns the membership column called name.
func SubsetColumn(name string) Column {
	return Column{Name: name, Kind: KindBool, Group: GroupSubset, Get: func(r *Record) any { return r.InSubset(name) }}
}

// Columns returns the ordered column set of a table view.
func Columns(opts ColumnOptions) []Column {
	keep := func(s Suffix) bool { return opts.Suffix == "" || opts.Suffix == s }

	var out []Column
	out = append(out, pairColumns...)
	for _, s := range Suffixes {
		if keep(s) {
			out = append(out, aggregateColumns(s)...)
		}
	}
	out = append(out, annotationColumns...)
	out = append(out, PropertyColumns...)
	out = append(out, StructureColumns...)
	for _, s := range []Suffix{B, BF} {
		if keep(s) {
			out = append(out, efficiencyColumns(s)...)
		}
	}
	out = append(out, classificationColumns...)
	if opts.Descriptors {
		out = append(out, DescriptorColumns...)
	}
	out = append(out, filterColumns...)
	for _, name := range opts.Subsets {
		out = append(out, SubsetColumn(name))
	}
	return out
}

// FullColumns returns every column of d including its membership columns.
func (d *Dataset) FullColumns() []Column {
	return Columns(ColumnOptions{Descriptors: d.DescriptorsLoaded, Subsets: d.SubsetColumns})
}

// ColumnByName finds a column in cols.
func ColumnByName(cols []Column, name string) (Column, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
