package dataset

import "github.com/chembl/compound-target-pairs-dataset/pkg/chembl"

func propsWith(heavy *int64, smiles *string) chembl.CompoundProperties {
	return chembl.CompoundProperties{HeavyAtoms: heavy, CanonicalSmiles: smiles}
}
