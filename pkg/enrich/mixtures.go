package enrich

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// ErrIdentityResolution is returned when a compound does not resolve to a
// single canonical parent structure.
var ErrIdentityResolution = errors.New("compound identity not resolved to its parent")

// IsMixture reports whether a SMILES describes several disconnected
// fragments.
func IsMixture(smiles string) bool {
	return strings.Contains(smiles, ".")
}

// CheckParents verifies that every molregno carrying a mixture SMILES is a
// parent in the hierarchy and that the SMILES matches the parent structure.
func CheckParents(smiles map[int64]string, hierarchy []chembl.HierarchyEntry, parents []chembl.ParentStructure) error {
	isParent := make(map[int64]bool)
	saltParents := make(map[int64][]int64)
	for _, h := range hierarchy {
		isParent[h.ParentMolregno] = true
		saltParents[h.Molregno] = append(saltParents[h.Molregno], h.ParentMolregno)
	}
	parentSmiles := make(map[int64][]string)
	for _, p := range parents {
		if p.CanonicalSmiles == nil || slices.Contains(parentSmiles[p.ParentMolregno], *p.CanonicalSmiles) {
			continue
		}
		parentSmiles[p.ParentMolregno] = append(parentSmiles[p.ParentMolregno], *p.CanonicalSmiles)
	}

	molregnos := make([]int64, 0, len(smiles))
	for m := range smiles {
		molregnos = append(molregnos, m)
	}
	slices.Sort(molregnos)

	for _, m := range molregnos {
		if !isParent[m] {
			return fmt.Errorf("%w: %d is not a parent_molregno in molecule_hierarchy", ErrIdentityResolution, m)
		}
		for _, p := range saltParents[m] {
			if p != m {
				return fmt.Errorf("%w: %d occurs as a salt of %d", ErrIdentityResolution, m, p)
			}
		}
		known := parentSmiles[m]
		if len(known) != 1 {
			return fmt.Errorf("%w: %d has %d parent structures in ChEMBL", ErrIdentityResolution, m, len(known))
		}
		if known[0] != smiles[m] {
			return fmt.Errorf("%w: SMILES of %d (%s) differs from the parent structure (%s)", ErrIdentityResolution, m, smiles[m], known[0])
		}
	}
	return nil
}

// RemoveMixtures drops rows without a canonical SMILES and every row of a
// compound whose SMILES contains a dot. The mixture compounds are checked
// against the hierarchy first so that salt data never hides behind a parent
// id. It returns the number of dropped rows.
func RemoveMixtures(ds *dataset.Dataset, t *Tables) (int, error) {
	mixtures := make(map[int64]string)
	withoutSmiles := 0
	for _, r := range ds.Records {
		smiles := r.Props.CanonicalSmiles
		if smiles == nil {
			withoutSmiles++
			continue
		}
		if IsMixture(*smiles) {
			if prev, ok := mixtures[r.Key.Molregno]; ok && prev != *smiles {
				return 0, fmt.Errorf("%w: %d has several SMILES", ErrIdentityResolution, r.Key.Molregno)
			}
			mixtures[r.Key.Molregno] = *smiles
		}
	}
	if err := CheckParents(mixtures, t.Hierarchy, t.ParentStructures); err != nil {
		return 0, err
	}

	dropped := ds.Filter(func(r *dataset.Record) bool {
		if r.Props.CanonicalSmiles == nil {
			return false
		}
		_, mixture := mixtures[r.Key.Molregno]
		return !mixture
	})
	logger.Debug("[Enrich] Mixtures removed", "without_smiles", withoutSmiles, "mixture_compounds", len(mixtures), "dropped", dropped)
	return dropped, nil
}
