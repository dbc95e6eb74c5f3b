// Package chembl holds the row shapes read from a ChEMBL database. Nullable
// columns are pointers; nil means the database returned NULL.
package chembl

// AssayType is the ChEMBL assay classification code.
type AssayType string

const (
	AssayBinding    AssayType = "B"
	AssayFunctional AssayType = "F"
	AssayADMET      AssayType = "A"
	AssayToxicity   AssayType = "T"
	AssayPhyschem   AssayType = "P"
	AssayUnassigned AssayType = "U"
)

// Compound is the molecule_dictionary view of a parent compound.
type Compound struct {
	Molregno        int64
	ChemblID        *string
	PrefName        *string
	MaxPhase        *float64
	FirstApproval   *int64
	UsanYear        *int64
	BlackBoxWarning *int64
	Prodrug         *int64
	Oral            *int64
	Parenteral      *int64
	Topical         *int64
}

// Target is the target_dictionary view of a target.
type Target struct {
	Tid        int64
	ChemblID   *string
	PrefName   *string
	TargetType *string
	Organism   *string
}

// ActivityRecord is one measured activity with salt forms already resolved to
// the parent compound.
type ActivityRecord struct {
	PchemblValue *float64
	Compound     Compound
	AssayType    AssayType
	Target       Target
	Mutation     *string
	Year         *int64
}

// KnownInteraction is a disease-relevant pair from drug_mechanism.
type KnownInteraction struct {
	Molregno int64
	Tid      int64
}

// TargetRelation is one row of target_relations joined with the target type
// of both ends.
type TargetRelation struct {
	Tid               int64
	Relationship      string
	RelatedTid        int64
	TargetType        string
	RelatedTargetType string
}

// CompoundProperties joins compound_properties and compound_structures for
// a parent compound.
type CompoundProperties struct {
	Molregno int64

	MwFreebase               *float64
	Alogp                    *float64
	Hba                      *int64
	Hbd                      *int64
	Psa                      *float64
	Rtb                      *int64
	Ro3Pass                  *string
	NumRo5Violations         *int64
	CxMostApka               *float64
	CxMostBpka               *float64
	CxLogp                   *float64
	CxLogd                   *float64
	MolecularSpecies         *string
	FullMwt                  *float64
	AromaticRings            *int64
	HeavyAtoms               *int64
	QedWeighted              *float64
	MwMonoisotopic           *float64
	FullMolformula           *string
	HbaLipinski              *int64
	HbdLipinski              *int64
	NumLipinskiRo5Violations *int64

	StandardInchi    *string
	StandardInchiKey *string
	CanonicalSmiles  *string
}

// FirstPublication is the earliest document year a parent compound appears in.
type FirstPublication struct {
	Molregno int64
	Year     int64
}

// ATCClassification is a level-1 ATC code attached to a parent compound.
type ATCClassification struct {
	Molregno          int64
	Level1            string
	Level1Description string
}

// HierarchyEntry is a molecule_hierarchy row.
type HierarchyEntry struct {
	Molregno       int64
	ParentMolregno int64
}

// ParentStructure is the canonical SMILES of a parent compound.
type ParentStructure struct {
	ParentMolregno  int64
	CanonicalSmiles *string
}

// TargetComponentClass links a target to a protein class of one of its
// components.
type TargetComponentClass struct {
	Tid            int64
	ProteinClassID int64
}

// ProteinClass is a node of the protein classification tree with the pipe
// separated pref names from the root down to it.
type ProteinClass struct {
	ProteinClassID int64
	ParentID       *int64
	ClassLevel     int64
	Names          string
}
